package navigate

import (
	"context"
	"strings"

	"pkt.systems/pslog"

	"pkt.systems/tabshell/core"
	"pkt.systems/tabshell/internal/logx"
	"pkt.systems/tabshell/schema"
)

// Navigator routes address bar submissions to a tab group. Like the group
// it must only be used on the group's dispatcher.
type Navigator struct {
	group  *core.TabGroup
	engine Engine
	log    pslog.Logger
}

// New builds a navigator over group using the named search engine.
func New(group *core.TabGroup, engine string, logger pslog.Logger) (*Navigator, error) {
	e, err := LookupEngine(engine)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Navigator{group: group, engine: e, log: logx.WithGroup(logger, group.ID())}, nil
}

// Engine returns the active search engine.
func (n *Navigator) Engine() Engine { return n.engine }

// SetEngine switches the search engine.
func (n *Navigator) SetEngine(name string) error {
	e, err := LookupEngine(name)
	if err != nil {
		return err
	}
	n.engine = e
	return nil
}

// Submit handles input typed into tab's address bar and returns the tab
// that now shows the result.
//
// Extension store URLs open the installation help page. zero:// URLs
// replace tab with the internal page. Otherwise the input is resolved to a
// URL: a native tab becomes a browsing tab, a degraded tab is replaced by a
// fresh tab at the same position, and a healthy tab navigates in place.
func (n *Navigator) Submit(tab *core.Tab, input string) (*core.Tab, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, schema.ErrEmptyInput
	}
	if tab == nil {
		return nil, schema.ErrNoActiveTab
	}
	if tab.Lifecycle() != schema.LifecycleOpen {
		return nil, schema.ErrTabClosed
	}
	log := n.log.With("tab", tab.ID())
	if IsMarketplace(input) {
		log.Info("navigate marketplace blocked", "url", input)
		return n.OpenNative(ExtensionsPage, CalledByExtensions), nil
	}
	if strings.HasPrefix(strings.ToLower(input), ZeroScheme) {
		page, ok := LookupPage(input)
		if !ok {
			return nil, schema.ErrUnknownPage
		}
		next := n.OpenNative(page, CalledByURLBar)
		tab.Close(false)
		next.Activate()
		return next, nil
	}

	url := ParseInput(input, n.engine)
	switch {
	case tab.IsNative():
		tab.RemoveNative(url)
		tab.Activate()
		log.Debug("navigate native replaced", "url", url)
		return tab, nil
	case tab.State().Health == schema.HealthDegraded:
		return n.replace(tab, url), nil
	default:
		if err := tab.Navigate(url); err != nil {
			return tab, err
		}
		log.Debug("navigate", "url", url)
		return tab, nil
	}
}

// replace opens url in a fresh tab where old sits and closes old. A new
// tab starts at the highest tier policy allows.
func (n *Navigator) replace(old *core.Tab, url string) *core.Tab {
	position := old.Position(false)
	next := n.group.AddTab(core.TabSpec{Src: url, Title: url})
	if next == nil {
		return nil
	}
	next.SetPosition(position)
	next.Activate()
	old.Close(true)
	n.log.Info("navigate degraded tab replaced", "old_tab", old.ID(), "tab", next.ID(), "tier", next.Tier().String())
	return next
}

// OpenNative opens page in a new active tab.
func (n *Navigator) OpenNative(page NativePage, calledBy string) *core.Tab {
	tab := n.group.AddTab(core.TabSpec{
		Title:          page.Title,
		Src:            page.Src,
		Icon:           page.Icon,
		IconURL:        nativeIconURL,
		IsNative:       true,
		Component:      page.Component,
		ComponentProps: map[string]string{calledByPropertyName: calledBy},
		Active:         true,
	})
	if tab != nil {
		n.log.Debug("navigate native opened", "tab", tab.ID(), "component", page.Component, "called_by", calledBy)
	}
	return tab
}

// NewTab opens and activates the group's default tab.
func (n *Navigator) NewTab() *core.Tab {
	tab := n.group.AddDefaultTab()
	if tab != nil {
		tab.Activate()
	}
	return tab
}
