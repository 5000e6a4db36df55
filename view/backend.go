package view

import (
	"sync/atomic"

	"pkt.systems/tabshell/schema"
)

// Backend is the rendering surface bound to one tab. Implementations are
// Primary, Embedded and Static; the interface is sealed.
//
// Backend methods are called from the owning tab's dispatcher. Signals
// subscribed with Subscribe arrive on the surface's goroutines and stop
// once the backend is detached.
type Backend interface {
	Tier() schema.Tier
	Source() Source
	Attributes() Attributes
	Attached() bool
	Attach() error
	Detach() error
	Navigate(url string) error
	Reload() error
	SetVisible(visible bool) error
	Focus() error
	Subscribe(fn func(Signal))

	backend()
}

// PrimaryAttributes are applied to every primary surface.
var PrimaryAttributes = Attributes{
	"partition":          "temp-in-memory",
	"allowpopups":        "true",
	"disablewebsecurity": "true",
	"webpreferences":     "allowRunningInsecureContent=true, experimentalFeatures=true",
}

// EmbeddedAttributes are applied to every embedded frame.
var EmbeddedAttributes = Attributes{
	"sandbox": "allow-scripts allow-same-origin allow-popups allow-forms allow-modals",
	"allow":   "fullscreen; autoplay; clipboard-read; clipboard-write",
	"loading": "lazy",
}

type base struct {
	tier   schema.Tier
	kind   SurfaceKind
	host   Host
	attrs  Attributes
	src    Source
	accept func(SignalKind) bool

	fn      func(Signal)
	surface Surface
	live    *atomic.Bool
}

func newBase(tier schema.Tier, kind SurfaceKind, host Host, src Source, attrs Attributes, forced Attributes, accept func(SignalKind) bool) base {
	merged := attrs.Clone()
	for k, v := range forced {
		merged[k] = v
	}
	return base{tier: tier, kind: kind, host: host, attrs: merged, src: src, accept: accept}
}

func (b *base) Tier() schema.Tier { return b.tier }

func (b *base) Source() Source { return b.src }

func (b *base) Attributes() Attributes { return b.attrs.Clone() }

func (b *base) Attached() bool { return b.surface != nil }

// Subscribe sets the signal callback. It must be called before Attach.
func (b *base) Subscribe(fn func(Signal)) { b.fn = fn }

func (b *base) Attach() error {
	if b.surface != nil {
		return nil
	}
	if b.host == nil {
		return newSurfaceError(SurfaceErrorCreate, b.tier, "attach", schema.ErrMissingHost)
	}
	surface, err := b.host.NewSurface(b.kind, b.attrs.Clone())
	if err != nil {
		return newSurfaceError(SurfaceErrorCreate, b.tier, "attach", err)
	}
	live := &atomic.Bool{}
	live.Store(true)
	fn, accept := b.fn, b.accept
	surface.OnSignal(func(sig Signal) {
		if !live.Load() || fn == nil || !accept(sig.Kind) {
			return
		}
		fn(sig)
	})
	if err := surface.Load(b.src); err != nil {
		live.Store(false)
		_ = surface.Close()
		return newSurfaceError(SurfaceErrorLoad, b.tier, "load", err)
	}
	b.surface = surface
	b.live = live
	return nil
}

// Detach stops signal delivery and closes the surface. Detaching an
// unattached backend is a no-op.
func (b *base) Detach() error {
	if b.surface == nil {
		return nil
	}
	b.live.Store(false)
	surface := b.surface
	b.surface = nil
	b.live = nil
	return surface.Close()
}

func (b *base) navigate(url string) error {
	b.src = Source{URL: url}
	if b.surface == nil {
		return newSurfaceError(SurfaceErrorLoad, b.tier, "navigate", schema.ErrNotAttached)
	}
	if err := b.surface.Load(b.src); err != nil {
		return newSurfaceError(SurfaceErrorLoad, b.tier, "navigate", err)
	}
	return nil
}

func (b *base) reload() error {
	if b.surface == nil {
		return newSurfaceError(SurfaceErrorReload, b.tier, "reload", schema.ErrNotAttached)
	}
	if err := b.surface.Reload(); err != nil {
		return newSurfaceError(SurfaceErrorReload, b.tier, "reload", err)
	}
	return nil
}

func (b *base) SetVisible(visible bool) error {
	if b.surface == nil {
		return nil
	}
	if err := b.surface.SetVisible(visible); err != nil {
		return newSurfaceError(SurfaceErrorDisplay, b.tier, "set visible", err)
	}
	return nil
}

func (b *base) Focus() error {
	if b.surface == nil {
		return nil
	}
	if err := b.surface.Focus(); err != nil {
		return newSurfaceError(SurfaceErrorDisplay, b.tier, "focus", err)
	}
	return nil
}

// Primary is the full-capability isolated browsing surface.
type Primary struct {
	base
}

// NewPrimary returns an unattached primary backend for url.
func NewPrimary(host Host, url string, attrs Attributes) *Primary {
	return &Primary{base: newBase(schema.TierPrimary, SurfaceBrowsing, host, Source{URL: url}, attrs, PrimaryAttributes, func(kind SignalKind) bool {
		return kind != SignalError
	})}
}

func (p *Primary) Navigate(url string) error { return p.navigate(url) }

func (p *Primary) Reload() error { return p.reload() }

func (*Primary) backend() {}

// Embedded is the sandboxed frame. It never reports crashes or hangs; a
// frame that cannot show its document raises SignalError instead.
type Embedded struct {
	base
}

// NewEmbedded returns an unattached embedded backend for url.
func NewEmbedded(host Host, url string, attrs Attributes) *Embedded {
	return &Embedded{base: newBase(schema.TierEmbedded, SurfaceFrame, host, Source{URL: url}, attrs, EmbeddedAttributes, func(kind SignalKind) bool {
		switch kind {
		case SignalCrashed, SignalUnresponsive, SignalResponsive:
			return false
		}
		return true
	})}
}

func (e *Embedded) Navigate(url string) error { return e.navigate(url) }

func (e *Embedded) Reload() error { return e.reload() }

func (*Embedded) backend() {}

// Document is the content of a static backend. URL is informational.
type Document struct {
	Title string
	HTML  string
	URL   string
}

// Static renders a locally generated document. It cannot navigate.
type Static struct {
	base
	doc Document
}

// NewStatic returns an unattached static backend for doc.
func NewStatic(host Host, doc Document, attrs Attributes) *Static {
	return &Static{
		base: newBase(schema.TierStatic, SurfaceDocument, host, Source{URL: doc.URL, HTML: doc.HTML}, attrs, nil, func(kind SignalKind) bool {
			switch kind {
			case SignalLoadDone, SignalDOMReady, SignalTitle:
				return true
			}
			return false
		}),
		doc: doc,
	}
}

// Document returns the rendered document.
func (s *Static) Document() Document { return s.doc }

// Navigate always fails; static documents are replaced, not navigated.
func (s *Static) Navigate(string) error {
	return newSurfaceError(SurfaceErrorLoad, s.tier, "navigate", schema.ErrStaticNavigation)
}

// Reload renders the document again.
func (s *Static) Reload() error {
	if s.surface == nil {
		return newSurfaceError(SurfaceErrorReload, s.tier, "reload", schema.ErrNotAttached)
	}
	if err := s.surface.Load(s.src); err != nil {
		return newSurfaceError(SurfaceErrorReload, s.tier, "reload", err)
	}
	return nil
}

func (*Static) backend() {}
