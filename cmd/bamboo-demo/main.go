// bamboo-demo brings up one headless bamboo window, binds a few native
// functions, and exercises the bridge from both sides. With the debug
// server enabled, the window and its bridge traffic are inspectable at
// http://127.0.0.1:9222 while the demo runs.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bamboo-ui/bamboo/internal/app"
	"github.com/bamboo-ui/bamboo/internal/config"
	"github.com/bamboo-ui/bamboo/internal/fetch"
	"github.com/bamboo-ui/bamboo/internal/style"
	"github.com/bamboo-ui/bamboo/internal/window"
)

func main() {
	configPath := flag.String("config", "", "Path to bamboo.toml (optional)")
	preset := flag.String("preset", "", "Style preset: browser, custom, mica")
	presetFile := flag.String("presets", "", "YAML file with named style presets")
	url := flag.String("url", "", "Page to load on startup")
	debug := flag.Bool("debug", false, "Enable the debug server")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *debug {
		cfg.Debug.Enabled = true
	}

	model, err := pickStyle(*preset, *presetFile)
	if err != nil {
		log.Fatalf("style: %v", err)
	}

	host, err := app.New(cfg)
	if err != nil {
		log.Fatalf("init: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		host.Quit()
	}()

	host.Loop().Post(func() {
		if err := openDemoWindow(host, model, *url); err != nil {
			log.Printf("window: %v", err)
			host.Quit()
		}
	})

	if err := host.Run(); err != nil {
		log.Fatalf("run: %v", err)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func pickStyle(preset, presetFile string) (style.Model, error) {
	if presetFile != "" && preset != "" {
		presets, err := style.LoadPresets(presetFile)
		if err != nil {
			return style.Model{}, err
		}
		if m, ok := presets[preset]; ok {
			return m, nil
		}
	}
	switch preset {
	case "browser", "":
		return style.FullBrowser(), nil
	case "custom":
		return style.FullCustom(), nil
	case "mica":
		return style.Windows11Mica(), nil
	default:
		return style.Default(), nil
	}
}

func openDemoWindow(host *app.App, model style.Model, url string) error {
	w, err := host.CreateWindow(window.Options{
		Title:   "Bamboo Demo",
		Style:   model,
		Fetcher: fetch.NewClient(nil),
		Hooks: window.Hooks{
			OnTitleChanged: func(title string) { log.Printf("title: %s", title) },
			OnLoadEnd: func(url string, status int) {
				log.Printf("loaded %s (%d)", url, status)
			},
			OnConsole: func(level, message string) {
				log.Printf("console[%s] %s", level, message)
			},
			OnClose: func() { host.Quit() },
		},
	})
	if err != nil {
		return err
	}

	// Script-callable native functions.
	w.BindFunction("greet", func(args []json.RawMessage) (any, error) {
		name := "world"
		if len(args) > 0 {
			json.Unmarshal(args[0], &name)
		}
		return "hello, " + name, nil
	})
	w.BindFunction("now", func([]json.RawMessage) (any, error) {
		return time.Now().Format(time.RFC3339), nil
	})

	// Page-side demo: call into native, restyle the window, report back.
	if err := w.ExecuteScript(`
		window.bamboo.on("kick", function(p) {
			window.bamboo.call("greet", "bamboo").then(function(greeting) {
				console.log(greeting + " (round " + p.round + ")");
			});
			window.bamboo.setStyle({ cornerRadius: 8 + p.round, alwaysOnTop: true });
		});
	`); err != nil {
		return err
	}

	if url != "" {
		if err := w.Navigate(context.Background(), url); err != nil {
			log.Printf("navigate: %v", err)
		}
	}

	// Drive a couple of rounds through the owner loop, then let the
	// window close itself.
	for round := 1; round <= 2; round++ {
		round := round
		host.Loop().Post(func() {
			w.SendEvent("kick", map[string]int{"round": round})
			w.Eval("window.bamboo.version", func(value any, err error) {
				if err == nil {
					log.Printf("bridge version: %v", value)
				}
			})
		})
	}
	return nil
}
