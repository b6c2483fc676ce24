package engine

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamboo-ui/bamboo/internal/fetch"
	"github.com/bamboo-ui/bamboo/internal/script"
	"github.com/bamboo-ui/bamboo/internal/style"
)

func newScriptContext(t *testing.T) *script.Context {
	t.Helper()
	ctx, err := script.NewContext(script.Options{
		Outbound: func([]byte) {},
	})
	require.NoError(t, err)
	return ctx
}

func TestExecuteScript(t *testing.T) {
	e, err := NewEmbedded(EmbeddedOptions{Script: newScriptContext(t)})
	require.NoError(t, err)

	assert.NoError(t, e.ExecuteScript(`var x = 1 + 1;`))
	assert.Error(t, e.ExecuteScript(`syntax error here(`))
}

func TestNavigateFiresEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><title>Docs</title></head><body>word word</body></html>`))
	}))
	defer srv.Close()

	var loads, titles []string
	var status int
	e, err := NewEmbedded(EmbeddedOptions{
		Script:  newScriptContext(t),
		Fetcher: fetch.NewClient(nil),
		Events: Events{
			OnLoadStart:    func(url string) { loads = append(loads, "start:"+url) },
			OnLoadEnd:      func(url string, s int) { loads = append(loads, "end:"+url); status = s },
			OnTitleChanged: func(title string) { titles = append(titles, title) },
		},
	})
	require.NoError(t, err)

	require.NoError(t, e.Navigate(context.Background(), srv.URL))

	assert.Equal(t, []string{"start:" + srv.URL, "end:" + srv.URL}, loads)
	assert.Equal(t, []string{"Docs"}, titles)
	assert.Equal(t, http.StatusOK, status)
	require.NotNil(t, e.Page())
	assert.Equal(t, "Docs", e.Page().Title)
}

func TestNavigationHookBlocks(t *testing.T) {
	e, err := NewEmbedded(EmbeddedOptions{
		Script:  newScriptContext(t),
		Fetcher: fetch.NewClient(nil),
		Events: Events{
			OnNavigationRequest: func(url string) bool { return false },
			OnLoadStart:         func(string) { t.Fatal("load must not start") },
		},
	})
	require.NoError(t, err)

	err = e.Navigate(context.Background(), "http://example.invalid/")
	assert.ErrorIs(t, err, ErrNavigationBlocked)
}

func TestReloadRepeatsLastNavigation(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`<html><body>ok</body></html>`))
	}))
	defer srv.Close()

	e, err := NewEmbedded(EmbeddedOptions{
		Script:  newScriptContext(t),
		Fetcher: fetch.NewClient(nil),
	})
	require.NoError(t, err)

	assert.Error(t, e.Reload(context.Background()))

	require.NoError(t, e.Navigate(context.Background(), srv.URL))
	require.NoError(t, e.Reload(context.Background()))
	assert.Equal(t, 2, hits)
}

func TestFindCountsMatches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body>alpha beta Alpha</body></html>`))
	}))
	defer srv.Close()

	var reported int
	e, err := NewEmbedded(EmbeddedOptions{
		Script:  newScriptContext(t),
		Fetcher: fetch.NewClient(nil),
		Events:  Events{OnFindResult: func(n int) { reported = n }},
	})
	require.NoError(t, err)

	_, err = e.Find("alpha")
	assert.Error(t, err, "find before any navigation")

	require.NoError(t, e.Navigate(context.Background(), srv.URL))
	n, err := e.Find("alpha")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, reported)

	assert.NoError(t, e.StopFind())
}

func TestZoomValidation(t *testing.T) {
	e, err := NewEmbedded(EmbeddedOptions{Script: newScriptContext(t)})
	require.NoError(t, err)

	assert.Equal(t, 1.0, e.Zoom())
	require.NoError(t, e.SetZoom(1.2))
	assert.Equal(t, 1.2, e.Zoom())
	assert.Error(t, e.SetZoom(0))
	assert.Error(t, e.SetZoom(-1))
}

func TestDevToolsFlag(t *testing.T) {
	e, err := NewEmbedded(EmbeddedOptions{Script: newScriptContext(t)})
	require.NoError(t, err)

	assert.False(t, e.DevToolsOpen())
	require.NoError(t, e.OpenDevTools(false))
	assert.True(t, e.DevToolsOpen())
	assert.False(t, e.DevToolsDocked())
	require.NoError(t, e.OpenDevTools(true))
	assert.True(t, e.DevToolsDocked())
	require.NoError(t, e.CloseDevTools())
	assert.False(t, e.DevToolsOpen())
}

func TestHistoryNavigation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `<html><head><title>%s</title></head><body></body></html>`, r.URL.Path)
	}))
	defer srv.Close()

	e, err := NewEmbedded(EmbeddedOptions{
		Script:  newScriptContext(t),
		Fetcher: fetch.NewClient(nil),
	})
	require.NoError(t, err)

	assert.False(t, e.CanGoBack())
	assert.Error(t, e.GoBack(context.Background()))

	require.NoError(t, e.Navigate(context.Background(), srv.URL+"/a"))
	require.NoError(t, e.Navigate(context.Background(), srv.URL+"/b"))
	require.True(t, e.CanGoBack())
	assert.False(t, e.CanGoForward())

	require.NoError(t, e.GoBack(context.Background()))
	assert.Equal(t, "/a", e.Page().Title)
	require.True(t, e.CanGoForward())

	require.NoError(t, e.GoForward(context.Background()))
	assert.Equal(t, "/b", e.Page().Title)

	// Navigating from a back position truncates the forward entries.
	require.NoError(t, e.GoBack(context.Background()))
	require.NoError(t, e.Navigate(context.Background(), srv.URL+"/c"))
	assert.False(t, e.CanGoForward())
	assert.Equal(t, "/c", e.Page().Title)

	assert.NoError(t, e.Stop())
}

func TestCaptureScreenshotUsesBackground(t *testing.T) {
	e, err := NewEmbedded(EmbeddedOptions{
		Script:     newScriptContext(t),
		Width:      4,
		Height:     3,
		Background: func() style.Color { return style.RGB(10, 20, 30) },
	})
	require.NoError(t, err)

	data, err := e.CaptureScreenshot()
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())
	assert.Equal(t, 3, img.Bounds().Dy())

	r, g, b, _ := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(10), r>>8)
	assert.Equal(t, uint32(20), g>>8)
	assert.Equal(t, uint32(30), b>>8)
}

func TestCloseStopsWork(t *testing.T) {
	e, err := NewEmbedded(EmbeddedOptions{Script: newScriptContext(t)})
	require.NoError(t, err)

	require.NoError(t, e.Close())
	require.NoError(t, e.Close())
	assert.Error(t, e.ExecuteScript(`1`))
	_, err = e.CaptureScreenshot()
	assert.Error(t, err)
}
