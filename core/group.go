package core

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"pkt.systems/pslog"

	"pkt.systems/tabshell/internal/logx"
	"pkt.systems/tabshell/schema"
	"pkt.systems/tabshell/view"
)

// TabGroup owns a set of tabs. It keeps two orders: the stacking order
// shown in the strip and the recency order whose head is the active tab.
// A group is never empty after an operation settles: removing the last tab
// adds a default one.
//
// TabGroup is not safe for concurrent use. Every call, including listener
// registration, must run on the group's dispatcher.
type TabGroup struct {
	id         schema.GroupID
	opts       GroupOptions
	host       view.Host
	strip      Strip
	dispatcher Dispatcher
	sink       EventSink
	policy     Policy
	recovery   schema.RecoveryConfig
	logger     pslog.Logger

	nextID    schema.TabID
	order     []*Tab
	recent    []*Tab
	listeners registry[GroupEvent]
	shutdown  bool
}

// NewTabGroup constructs an empty group. Ready, when set, runs before
// NewTabGroup returns.
func NewTabGroup(opts GroupOptions, deps GroupDeps) (*TabGroup, error) {
	if deps.Host == nil {
		return nil, schema.ErrMissingHost
	}
	if deps.Dispatcher == nil {
		return nil, schema.ErrMissingDispatcher
	}
	policy, err := schema.NormalizePolicyConfig(deps.Policy)
	if err != nil {
		return nil, fmt.Errorf("policy: %w", err)
	}
	logger := deps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	strip := deps.Strip
	if strip == nil {
		strip = nopStrip{}
	}
	g := &TabGroup{
		id:         schema.GroupID(uuid.NewString()),
		opts:       normalizeOptions(opts),
		host:       deps.Host,
		strip:      strip,
		dispatcher: deps.Dispatcher,
		sink:       deps.Sink,
		policy:     NewPolicy(policy),
		recovery:   schema.NormalizeRecoveryConfig(deps.Recovery),
	}
	g.logger = logx.WithGroup(logger, g.id)
	g.updateStripVisibility()
	g.logger.Debug("group created", "visibility_threshold", g.opts.VisibilityThreshold)
	if g.opts.Ready != nil {
		g.opts.Ready(g)
	}
	return g, nil
}

// ID returns the group instance id.
func (g *TabGroup) ID() schema.GroupID { return g.id }

// Options returns the normalized options.
func (g *TabGroup) Options() GroupOptions { return g.opts }

// Policy returns the current host policy.
func (g *TabGroup) Policy() Policy { return g.policy }

// SetPolicy replaces the host policy. Tabs apply it to later decisions;
// tiers already chosen are kept.
func (g *TabGroup) SetPolicy(cfg schema.PolicyConfig) error {
	normalized, err := schema.NormalizePolicyConfig(cfg)
	if err != nil {
		return err
	}
	g.policy = NewPolicy(normalized)
	g.logger.Info("group policy updated", "hostile", len(normalized.Hostile), "sensitive", len(normalized.Sensitive))
	return nil
}

// On registers a listener for a group event and returns its cancel func.
func (g *TabGroup) On(name schema.EventName, fn func(GroupEvent)) func() {
	return g.listeners.on(name, fn)
}

// AddTab creates a tab at the end of the stacking order. The tab is only
// activated when spec.Active is set.
func (g *TabGroup) AddTab(spec TabSpec) *Tab {
	if g.shutdown {
		return nil
	}
	id := g.nextID
	g.nextID++
	t := newTab(groupOps{g}, id, spec)
	g.order = append(g.order, t)
	g.recent = append(g.recent, t)
	t.init(spec)
	if spec.Active {
		t.Activate()
	}
	g.logger.Debug("group tab added", "tab", id, "tier", t.Tier().String(), "native", t.native)
	g.emit(schema.EventTabAdded, t)
	g.updateStripVisibility()
	return t
}

// AddDefaultTab adds the tab built by the NewTab option.
func (g *TabGroup) AddDefaultTab() *Tab {
	return g.AddTab(g.opts.NewTab(g))
}

// ActiveTab returns the head of the recency order, or nil when empty.
func (g *TabGroup) ActiveTab() *Tab {
	if len(g.recent) == 0 {
		return nil
	}
	return g.recent[0]
}

// Tab returns the tab with id, or nil.
func (g *TabGroup) Tab(id schema.TabID) *Tab {
	for _, t := range g.order {
		if t.id == id {
			return t
		}
	}
	return nil
}

// TabByPosition returns the tab at a 1-based position. Negative positions
// count from the right edge.
func (g *TabGroup) TabByPosition(position int) *Tab {
	fromRight := position < 0
	for _, t := range g.order {
		if t.Position(fromRight) == position {
			return t
		}
	}
	return nil
}

// TabByRelPosition returns the tab delta positions away from the active
// tab, or nil when that leaves the strip.
func (g *TabGroup) TabByRelPosition(delta int) *Tab {
	active := g.ActiveTab()
	if active == nil {
		return nil
	}
	position := active.Position(false) + delta
	if position <= 0 {
		return nil
	}
	return g.TabByPosition(position)
}

// NextTab returns the tab right of the active tab.
func (g *TabGroup) NextTab() *Tab { return g.TabByRelPosition(1) }

// PreviousTab returns the tab left of the active tab.
func (g *TabGroup) PreviousTab() *Tab { return g.TabByRelPosition(-1) }

// Tabs returns the tabs in stacking order.
func (g *TabGroup) Tabs() []*Tab {
	return slices.Clone(g.order)
}

// EachTab calls fn for every tab in stacking order.
func (g *TabGroup) EachTab(fn func(*Tab)) {
	for _, t := range g.Tabs() {
		fn(t)
	}
}

// Len returns the number of tabs.
func (g *TabGroup) Len() int { return len(g.order) }

// Snapshot returns a transport-friendly view of the group.
func (g *TabGroup) Snapshot() schema.GroupSnapshot {
	snap := schema.GroupSnapshot{ID: g.id, ActiveTab: schema.NoTab}
	for _, t := range g.order {
		snap.Tabs = append(snap.Tabs, t.Snapshot())
	}
	if active := g.ActiveTab(); active != nil {
		snap.ActiveTab = active.id
	}
	return snap
}

// Shutdown closes every tab without running closing listeners and without
// adding a default tab.
func (g *TabGroup) Shutdown() {
	if g.shutdown {
		return
	}
	g.shutdown = true
	for _, t := range g.Tabs() {
		t.close(true, false)
	}
	g.logger.Debug("group shutdown")
}

func (g *TabGroup) removeTab(t *Tab) {
	idx := g.indexOf(t)
	if idx < 0 {
		return
	}
	g.order = slices.Delete(g.order, idx, idx+1)
	if r := slices.Index(g.recent, t); r >= 0 {
		g.recent = slices.Delete(g.recent, r, r+1)
	}
	g.logger.Debug("group tab removed", "tab", t.id, "remaining", len(g.order))
	g.emit(schema.EventTabRemoved, t)
	g.updateStripVisibility()
	if len(g.order) == 0 && !g.shutdown {
		spec := g.opts.NewTab(g)
		spec.Active = true
		g.AddTab(spec)
	}
}

func (g *TabGroup) setActive(t *Tab) {
	if r := slices.Index(g.recent, t); r >= 0 {
		g.recent = slices.Delete(g.recent, r, r+1)
	}
	g.recent = slices.Insert(g.recent, 0, t)
	g.emit(schema.EventTabActive, t)
}

func (g *TabGroup) activateRecent() {
	if g.shutdown || len(g.recent) == 0 {
		return
	}
	g.recent[0].Activate()
}

func (g *TabGroup) indexOf(t *Tab) int {
	return slices.Index(g.order, t)
}

func (g *TabGroup) move(t *Tab, index int) {
	idx := g.indexOf(t)
	if idx < 0 || idx == index {
		return
	}
	g.order = slices.Delete(g.order, idx, idx+1)
	index = min(max(index, 0), len(g.order))
	g.order = slices.Insert(g.order, index, t)
	g.strip.Move(t.id, index)
}

func (g *TabGroup) updateStripVisibility() {
	g.strip.SetVisible(len(g.order) >= g.opts.VisibilityThreshold)
}

func (g *TabGroup) emit(name schema.EventName, t *Tab) {
	g.listeners.emit(name, GroupEvent{Name: name, Tab: t, Group: g})
	g.publish(schema.Event{Scope: schema.ScopeGroup, Name: name, Tab: t.Snapshot()})
}

func (g *TabGroup) publish(event schema.Event) {
	if g.sink == nil {
		return
	}
	event.GroupID = g.id
	event.ActiveTab = schema.NoTab
	if active := g.ActiveTab(); active != nil {
		event.ActiveTab = active.id
	}
	g.sink.OnEvent(event)
}
