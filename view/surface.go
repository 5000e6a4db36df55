// Package view binds tabs to rendering surfaces supplied by a host.
//
// A Backend is one of three tiers: Primary (full isolated browsing surface),
// Embedded (sandboxed document frame) or Static (locally generated
// document). The set is closed; callers switch on Tier.
package view

// SignalKind names a lifecycle signal raised by a surface.
type SignalKind string

const (
	SignalLoadStart    SignalKind = "load-start"
	SignalLoadDone     SignalKind = "load-done"
	SignalLoadFailed   SignalKind = "load-failed"
	SignalCrashed      SignalKind = "crashed"
	SignalUnresponsive SignalKind = "unresponsive"
	SignalResponsive   SignalKind = "responsive"
	SignalNavigated    SignalKind = "navigated"
	SignalDOMReady     SignalKind = "dom-ready"
	SignalTitle        SignalKind = "title"
	// SignalError is raised by frame surfaces when the embedded document
	// cannot be shown.
	SignalError SignalKind = "error"
)

// Signal is a single event from a surface.
type Signal struct {
	Kind        SignalKind
	URL         string
	Title       string
	Code        int
	Description string
	MainFrame   bool
}

// SurfaceKind selects the rendering primitive a host builds.
type SurfaceKind string

const (
	// SurfaceBrowsing is an isolated browsing context.
	SurfaceBrowsing SurfaceKind = "browsing"
	// SurfaceFrame is a sandboxed frame embedding a remote document.
	SurfaceFrame SurfaceKind = "frame"
	// SurfaceDocument renders inline HTML.
	SurfaceDocument SurfaceKind = "document"
)

// Attributes are string attributes applied to a surface at creation.
type Attributes map[string]string

// Clone returns a copy of a.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return Attributes{}
	}
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Source is what a surface renders: a URL, or inline HTML when HTML is set.
type Source struct {
	URL  string
	HTML string
}

// Surface is the rendering primitive. Methods may block; signals are
// delivered on arbitrary goroutines in the order the surface raised them.
type Surface interface {
	Load(src Source) error
	Reload() error
	SetVisible(visible bool) error
	Focus() error
	Close() error
	OnSignal(fn func(Signal))
}

// Host builds surfaces.
type Host interface {
	NewSurface(kind SurfaceKind, attrs Attributes) (Surface, error)
}
