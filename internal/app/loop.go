package app

import "sync"

// Loop is the owner loop: the single goroutine all bridge, style and
// window state is confined to. Work posted from any goroutine runs on the
// loop in FIFO order.
type Loop struct {
	mu       sync.Mutex
	cond     *sync.Cond
	queue    []func()
	quitting bool
	running  bool
}

// NewLoop creates an idle loop.
func NewLoop() *Loop {
	l := &Loop{}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// Post schedules fn onto the loop. Safe from any goroutine, including the
// loop itself. Work posted after Quit is dropped.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.quitting {
		return
	}
	l.queue = append(l.queue, fn)
	l.cond.Signal()
}

// Run processes posted work until Quit, then drains what remains. It must
// be called from exactly one goroutine.
func (l *Loop) Run() {
	l.mu.Lock()
	l.running = true
	for {
		for len(l.queue) == 0 && !l.quitting {
			l.cond.Wait()
		}
		if len(l.queue) == 0 {
			break
		}
		fn := l.queue[0]
		l.queue = l.queue[1:]
		l.mu.Unlock()
		fn()
		l.mu.Lock()
	}
	l.running = false
	l.mu.Unlock()
}

// Quit stops the loop after the already-posted work has run.
func (l *Loop) Quit() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.quitting = true
	l.cond.Signal()
}
