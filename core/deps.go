package core

import (
	"pkt.systems/pslog"

	"pkt.systems/tabshell/schema"
	"pkt.systems/tabshell/view"
)

// Strip is the host tab strip. The group drives it; it never calls back.
type Strip interface {
	Insert(tab schema.TabSnapshot, index int)
	Update(tab schema.TabSnapshot)
	Remove(id schema.TabID)
	Move(id schema.TabID, index int)
	SetVisible(visible bool)
}

// GroupDeps captures the collaborators of a tab group. Host and
// Dispatcher are required.
type GroupDeps struct {
	Host       view.Host
	Strip      Strip
	Dispatcher Dispatcher
	Sink       EventSink
	Policy     schema.PolicyConfig
	Recovery   schema.RecoveryConfig
	Logger     pslog.Logger
}

// GroupOptions configures presentation and the default tab.
type GroupOptions struct {
	TabClass         string
	ViewClass        string
	CloseButtonText  string
	NewTabButtonText string
	// VisibilityThreshold is the tab count at which the strip is shown.
	VisibilityThreshold int
	// NewTab builds the spec used whenever the group needs a default tab.
	NewTab func(*TabGroup) TabSpec
	// Ready runs once the group is constructed.
	Ready func(*TabGroup)
}

// Default option values.
const (
	DefaultTabClass         = "etabs-tab"
	DefaultViewClass        = "etabs-view"
	DefaultCloseButtonText  = "×"
	DefaultNewTabButtonText = "＋"
)

func normalizeOptions(opts GroupOptions) GroupOptions {
	if opts.TabClass == "" {
		opts.TabClass = DefaultTabClass
	}
	if opts.ViewClass == "" {
		opts.ViewClass = DefaultViewClass
	}
	if opts.CloseButtonText == "" {
		opts.CloseButtonText = DefaultCloseButtonText
	}
	if opts.NewTabButtonText == "" {
		opts.NewTabButtonText = DefaultNewTabButtonText
	}
	if opts.VisibilityThreshold < 0 {
		opts.VisibilityThreshold = 0
	}
	if opts.NewTab == nil {
		opts.NewTab = HomeTab
	}
	return opts
}

// TabSpec describes a tab to add. Nil Closable and Visible mean true.
type TabSpec struct {
	Title          string
	Src            string
	Icon           string
	IconURL        string
	Badge          string
	IsNative       bool
	Component      string
	ComponentProps map[string]string
	Closable       *bool
	Active         bool
	Visible        *bool
	Attributes     view.Attributes
	Ready          func(*Tab)
}

// Bool returns a pointer to v for the optional TabSpec fields.
func Bool(v bool) *bool {
	return &v
}

// HomeTab is the built-in default tab: the native new tab page.
func HomeTab(*TabGroup) TabSpec {
	return TabSpec{
		Title:     "Home",
		Icon:      "fa fa-grip-horizontal",
		IconURL:   "icon.png",
		IsNative:  true,
		Component: "blank",
		Active:    true,
	}
}

type nopStrip struct{}

func (nopStrip) Insert(schema.TabSnapshot, int) {}
func (nopStrip) Update(schema.TabSnapshot)      {}
func (nopStrip) Remove(schema.TabID)            {}
func (nopStrip) Move(schema.TabID, int)         {}
func (nopStrip) SetVisible(bool)                {}
