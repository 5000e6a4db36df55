// Package viewtest provides in-memory view hosts and a manual dispatcher
// for tests.
package viewtest

import (
	"errors"
	"sort"
	"sync"
	"time"

	"pkt.systems/tabshell/view"
)

// ErrInjected is returned by fakes configured to fail.
var ErrInjected = errors.New("injected failure")

// Host records every surface it builds.
type Host struct {
	mu       sync.Mutex
	surfaces []*Surface
	failNew  map[view.SurfaceKind]error
	failLoad map[view.SurfaceKind]error
}

// NewHost returns an empty fake host.
func NewHost() *Host {
	return &Host{
		failNew:  make(map[view.SurfaceKind]error),
		failLoad: make(map[view.SurfaceKind]error),
	}
}

// FailCreate makes NewSurface fail for kind. A nil err clears the failure.
func (h *Host) FailCreate(kind view.SurfaceKind, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err == nil {
		delete(h.failNew, kind)
		return
	}
	h.failNew[kind] = err
}

// FailLoad makes the first Load of new surfaces of kind fail.
func (h *Host) FailLoad(kind view.SurfaceKind, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err == nil {
		delete(h.failLoad, kind)
		return
	}
	h.failLoad[kind] = err
}

// NewSurface implements view.Host.
func (h *Host) NewSurface(kind view.SurfaceKind, attrs view.Attributes) (view.Surface, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.failNew[kind]; err != nil {
		return nil, err
	}
	s := &Surface{Kind: kind, Attrs: attrs.Clone(), loadErr: h.failLoad[kind]}
	h.surfaces = append(h.surfaces, s)
	return s, nil
}

// Surfaces returns every surface built so far.
func (h *Host) Surfaces() []*Surface {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Surface, len(h.surfaces))
	copy(out, h.surfaces)
	return out
}

// Count returns how many surfaces of kind were built.
func (h *Host) Count(kind view.SurfaceKind) int {
	n := 0
	for _, s := range h.Surfaces() {
		if s.Kind == kind {
			n++
		}
	}
	return n
}

// Last returns the most recent surface, or nil.
func (h *Host) Last() *Surface {
	surfaces := h.Surfaces()
	if len(surfaces) == 0 {
		return nil
	}
	return surfaces[len(surfaces)-1]
}

// Surface is a fake rendering surface.
type Surface struct {
	Kind  view.SurfaceKind
	Attrs view.Attributes

	mu        sync.Mutex
	loads     []view.Source
	reloads   int
	visible   bool
	focused   int
	closed    bool
	loadErr   error
	reloadErr error
	fn        func(view.Signal)
}

// Load implements view.Surface.
func (s *Surface) Load(src view.Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		err := s.loadErr
		s.loadErr = nil
		return err
	}
	s.loads = append(s.loads, src)
	return nil
}

// Reload implements view.Surface.
func (s *Surface) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloads++
	return s.reloadErr
}

// SetVisible implements view.Surface.
func (s *Surface) SetVisible(visible bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible = visible
	return nil
}

// Focus implements view.Surface.
func (s *Surface) Focus() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.focused++
	return nil
}

// Close implements view.Surface.
func (s *Surface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// OnSignal implements view.Surface.
func (s *Surface) OnSignal(fn func(view.Signal)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fn = fn
}

// Emit delivers sig to the subscriber on the calling goroutine.
func (s *Surface) Emit(sig view.Signal) {
	s.mu.Lock()
	fn := s.fn
	s.mu.Unlock()
	if fn != nil {
		fn(sig)
	}
}

// FailReload makes every later Reload return err.
func (s *Surface) FailReload(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadErr = err
}

// Loads returns every source loaded so far.
func (s *Surface) Loads() []view.Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]view.Source, len(s.loads))
	copy(out, s.loads)
	return out
}

// LastLoad returns the most recent source.
func (s *Surface) LastLoad() view.Source {
	loads := s.Loads()
	if len(loads) == 0 {
		return view.Source{}
	}
	return loads[len(loads)-1]
}

// Reloads returns the reload count.
func (s *Surface) Reloads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reloads
}

// Visible reports the last visibility set.
func (s *Surface) Visible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}

// Focused returns how many times the surface was focused.
func (s *Surface) Focused() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.focused
}

// Closed reports whether Close was called.
func (s *Surface) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Dispatcher queues posted closures and fake timers until the test drains
// them. It satisfies the core dispatcher contract.
type Dispatcher struct {
	mu     sync.Mutex
	now    time.Duration
	queue  []func()
	timers []*timer
	seq    int
}

type timer struct {
	at      time.Duration
	seq     int
	fn      func()
	stopped bool
}

// NewDispatcher returns an empty manual dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Post queues fn.
func (d *Dispatcher) Post(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queue = append(d.queue, fn)
}

// AfterFunc schedules fn to be posted once Advance passes delay.
func (d *Dispatcher) AfterFunc(delay time.Duration, fn func()) func() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	t := &timer{at: d.now + delay, seq: d.seq, fn: fn}
	d.timers = append(d.timers, t)
	return func() bool {
		d.mu.Lock()
		defer d.mu.Unlock()
		if t.stopped {
			return false
		}
		t.stopped = true
		return true
	}
}

// Pending returns the number of armed timers.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, t := range d.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

// Flush runs queued closures until the queue is empty.
func (d *Dispatcher) Flush() {
	for {
		d.mu.Lock()
		if len(d.queue) == 0 {
			d.mu.Unlock()
			return
		}
		fn := d.queue[0]
		d.queue = d.queue[1:]
		d.mu.Unlock()
		fn()
	}
}

// Advance moves the fake clock, posts every due timer in deadline order
// and flushes.
func (d *Dispatcher) Advance(delta time.Duration) {
	d.Flush()
	d.mu.Lock()
	d.now += delta
	var due []*timer
	kept := d.timers[:0]
	for _, t := range d.timers {
		switch {
		case t.stopped:
		case t.at <= d.now:
			t.stopped = true
			due = append(due, t)
		default:
			kept = append(kept, t)
		}
	}
	d.timers = kept
	sort.Slice(due, func(i, j int) bool {
		if due[i].at == due[j].at {
			return due[i].seq < due[j].seq
		}
		return due[i].at < due[j].at
	})
	for _, t := range due {
		d.queue = append(d.queue, t.fn)
	}
	d.mu.Unlock()
	d.Flush()
}
