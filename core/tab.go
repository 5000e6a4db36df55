package core

import (
	"maps"

	"pkt.systems/pslog"

	"pkt.systems/tabshell/internal/logx"
	"pkt.systems/tabshell/internal/staticpage"
	"pkt.systems/tabshell/schema"
	"pkt.systems/tabshell/view"
)

// Tab is one entry of a TabGroup. It owns presentation state, exactly one
// current view backend and the degradation controller deciding which tier
// that backend uses. All methods must run on the group's dispatcher.
type Tab struct {
	id    schema.TabID
	group groupHandle
	log   pslog.Logger

	title     string
	icon      string
	iconURL   string
	badge     string
	closable  bool
	native    bool
	component string
	props     map[string]string
	attrs     view.Attributes
	src       string
	lifecycle schema.Lifecycle

	marked   bool
	visible  bool
	flashing bool
	busy     bool
	loading  bool
	failed   bool
	failure  string

	backend    view.Backend
	ctrl       *controller
	stopReload func() bool
	listeners  registry[TabEvent]
}

func newTab(group groupHandle, id schema.TabID, spec TabSpec) *Tab {
	t := &Tab{
		id:        id,
		group:     group,
		log:       logx.WithTab(group.logger(), id),
		title:     spec.Title,
		icon:      spec.Icon,
		iconURL:   spec.IconURL,
		badge:     spec.Badge,
		closable:  spec.Closable == nil || *spec.Closable,
		native:    spec.IsNative,
		component: spec.Component,
		props:     maps.Clone(spec.ComponentProps),
		attrs:     spec.Attributes.Clone(),
		src:       spec.Src,
		lifecycle: schema.LifecycleOpen,
	}
	if _, ok := t.attrs["class"]; !ok {
		t.attrs["class"] = group.options().ViewClass
	}
	t.ctrl = newController(spec.Src, spec.IsNative, group.policy, group.recovery())
	return t
}

// init runs once the tab is part of the group collection.
func (t *Tab) init(spec TabSpec) {
	t.group.strip().Insert(t.Snapshot(), t.group.indexOf(t))
	t.bind(t.ctrl.tier())
	if spec.Visible == nil || *spec.Visible {
		t.Show(true)
	}
	if spec.Ready != nil {
		spec.Ready(t)
	}
}

// ID returns the tab id.
func (t *Tab) ID() schema.TabID { return t.id }

// Title returns the title, or "" once closed.
func (t *Tab) Title() string {
	if t.lifecycle == schema.LifecycleClosed {
		return ""
	}
	return t.title
}

// Icon returns the icon URL when set, otherwise the icon class.
func (t *Tab) Icon() string {
	if t.lifecycle == schema.LifecycleClosed {
		return ""
	}
	if t.iconURL != "" {
		return t.iconURL
	}
	return t.icon
}

// Badge returns the badge, or "" once closed.
func (t *Tab) Badge() string {
	if t.lifecycle == schema.LifecycleClosed {
		return ""
	}
	return t.badge
}

func (t *Tab) Src() string                       { return t.src }
func (t *Tab) IsNative() bool                    { return t.native }
func (t *Tab) Closable() bool                    { return t.closable }
func (t *Tab) Component() string                 { return t.component }
func (t *Tab) ComponentProps() map[string]string { return maps.Clone(t.props) }
func (t *Tab) Lifecycle() schema.Lifecycle       { return t.lifecycle }
func (t *Tab) State() schema.DegradationState    { return t.ctrl.state }
func (t *Tab) Backend() view.Backend             { return t.backend }
func (t *Tab) IsVisible() bool                   { return t.visible }
func (t *Tab) IsFlashing() bool                  { return t.flashing }
func (t *Tab) IsBusy() bool                      { return t.busy }
func (t *Tab) IsLoading() bool                   { return t.loading }
func (t *Tab) IsFailed() bool                    { return t.failed }
func (t *Tab) Tier() schema.Tier                 { return t.ctrl.tier() }
func (t *Tab) open() bool                        { return t.lifecycle == schema.LifecycleOpen }

// IsActive reports whether the tab heads the group's recency order.
func (t *Tab) IsActive() bool {
	return t.open() && t.group.activeTab() == t
}

// On registers a listener for a tab event and returns its cancel func.
func (t *Tab) On(name schema.EventName, fn func(TabEvent)) func() {
	return t.listeners.on(name, fn)
}

// SetTitle sets the title.
func (t *Tab) SetTitle(title string) {
	if !t.open() {
		return
	}
	t.title = title
	t.sync()
	t.emit(TabEvent{Name: schema.EventTitleChanged, Value: title})
}

// SetIcon sets the icon URL and icon class. The URL wins when both are set.
func (t *Tab) SetIcon(iconURL, icon string) {
	if !t.open() {
		return
	}
	t.iconURL = iconURL
	t.icon = icon
	t.sync()
	switch {
	case iconURL != "":
		t.emit(TabEvent{Name: schema.EventIconChanged, Value: iconURL})
	case icon != "":
		t.emit(TabEvent{Name: schema.EventIconChanged, Value: icon})
	}
}

// SetBadge sets the badge. An empty badge hides it.
func (t *Tab) SetBadge(badge string) {
	if !t.open() {
		return
	}
	t.badge = badge
	t.sync()
	t.emit(TabEvent{Name: schema.EventBadgeChanged, Value: badge})
}

// Show toggles the tab strip entry.
func (t *Tab) Show(visible bool) {
	if !t.open() {
		return
	}
	t.visible = visible
	t.sync()
	if visible {
		t.emit(TabEvent{Name: schema.EventVisible})
		return
	}
	t.emit(TabEvent{Name: schema.EventHidden})
}

// Hide is Show(false).
func (t *Tab) Hide() { t.Show(false) }

// Flash toggles the attention marker.
func (t *Tab) Flash(on bool) {
	if !t.open() {
		return
	}
	t.flashing = on
	t.sync()
	if on {
		t.emit(TabEvent{Name: schema.EventFlash})
		return
	}
	t.emit(TabEvent{Name: schema.EventUnflash})
}

// Unflash is Flash(false).
func (t *Tab) Unflash() { t.Flash(false) }

// Position returns the 1-based stacking position. With fromRight the
// position counts from the right edge and is negative (-1 is last).
func (t *Tab) Position(fromRight bool) int {
	position := t.group.indexOf(t)
	if position < 0 {
		return 0
	}
	if fromRight {
		position -= t.group.count()
	}
	if position >= 0 {
		position++
	}
	return position
}

// SetPosition moves the tab in the stacking order. Positive positions are
// 1-based and clamp to the end, negative positions count from the right and
// clamp to the start; 0 moves the tab first.
func (t *Tab) SetPosition(position int) {
	if !t.open() {
		return
	}
	n := t.group.count()
	var index int
	switch {
	case position < 0:
		index = max(position+n, 0)
	case position == 0:
		index = 0
	default:
		index = min(position, n) - 1
	}
	t.group.move(t, index)
}

// Activate makes the tab the active one.
func (t *Tab) Activate() {
	if !t.open() {
		return
	}
	prev := t.group.activeTab()
	if prev == t && t.marked {
		return
	}
	if prev != nil && prev != t {
		prev.deactivate()
	}
	t.group.setActive(t)
	t.marked = true
	t.showBackend()
	t.sync()
	t.emit(TabEvent{Name: schema.EventActive})
}

func (t *Tab) deactivate() {
	t.marked = false
	if t.backend != nil {
		if err := t.backend.SetVisible(false); err != nil {
			t.log.Debug("tab view hide failed", "err", err)
		}
	}
	t.sync()
	t.emit(TabEvent{Name: schema.EventInactive})
}

// Navigate loads url in the current backend. A native tab turns into a
// browsing tab first. A url that policy confines to a more restrictive tier
// replaces the backend instead.
func (t *Tab) Navigate(url string) error {
	if !t.open() {
		return schema.ErrTabClosed
	}
	if url == "" {
		return schema.ErrEmptyInput
	}
	if t.native {
		t.RemoveNative(url)
		return nil
	}
	t.cancelReload()
	t.src = url
	t.failed = false
	t.failure = ""
	t.ctrl.setURL(url)
	if a := t.ctrl.degrade(t.ctrl.floor()); a.kind == actionDegrade {
		t.swap(a.tier)
		return nil
	}
	if t.backend == nil {
		return schema.ErrNotAttached
	}
	err := t.backend.Navigate(url)
	t.sync()
	return err
}

// Reload reloads the current backend.
func (t *Tab) Reload() error {
	if !t.open() {
		return schema.ErrTabClosed
	}
	if t.backend == nil {
		return schema.ErrNotAttached
	}
	return t.backend.Reload()
}

// RemoveNative turns a native tab into a browsing tab for url with a fresh
// controller. On a tab that is already browsing it only navigates, so the
// tier never moves back up.
func (t *Tab) RemoveNative(url string) {
	if !t.open() {
		return
	}
	if !t.native {
		if err := t.Navigate(url); err != nil {
			logx.WithURL(t.log, url).Debug("tab navigate failed", "err", err)
		}
		return
	}
	t.native = false
	t.component = ""
	t.props = nil
	t.src = url
	t.failed = false
	t.failure = ""
	t.loading = false
	t.busy = false
	t.cancelReload()
	t.detach()
	t.ctrl = newController(url, false, t.group.policy, t.group.recovery())
	logx.WithURL(t.log, url).Debug("tab native removed", "tier", t.ctrl.tier().String())
	t.bind(t.ctrl.tier())
	t.sync()
}

// Close closes the tab unless a closing listener aborts, or the tab is not
// closable and force is false. It reports whether the tab was closed.
func (t *Tab) Close(force bool) bool {
	return t.close(force, true)
}

func (t *Tab) close(force, veto bool) bool {
	if !t.open() {
		return false
	}
	if veto {
		t.lifecycle = schema.LifecycleClosing
		aborted := false
		t.emit(TabEvent{Name: schema.EventClosing, abort: func() { aborted = true }})
		if t.lifecycle != schema.LifecycleClosing {
			return false
		}
		if aborted || (!t.closable && !force) {
			t.lifecycle = schema.LifecycleOpen
			t.log.Debug("tab close suppressed", "aborted", aborted, "closable", t.closable)
			return false
		}
	}
	wasActive := t.group.activeTab() == t
	t.lifecycle = schema.LifecycleClosing
	t.cancelReload()
	t.group.strip().Remove(t.id)
	t.detach()
	t.group.remove(t)
	t.lifecycle = schema.LifecycleClosed
	t.marked = false
	t.log.Debug("tab closed")
	t.emit(TabEvent{Name: schema.EventClose})
	if wasActive {
		t.group.activateRecent()
	}
	return true
}

// Snapshot returns a transport-friendly view of the tab.
func (t *Tab) Snapshot() schema.TabSnapshot {
	return schema.TabSnapshot{
		ID:        t.id,
		Title:     t.title,
		Icon:      t.icon,
		IconURL:   t.iconURL,
		Badge:     t.badge,
		Src:       t.src,
		Native:    t.native,
		Closable:  t.closable,
		Active:    t.IsActive(),
		Visible:   t.visible,
		Flashing:  t.flashing,
		Loading:   t.loading,
		Busy:      t.busy,
		Failed:    t.failed,
		Position:  t.Position(false),
		Lifecycle: t.lifecycle,
		State:     t.ctrl.state,
	}
}

func (t *Tab) sync() {
	if !t.open() || t.group.indexOf(t) < 0 {
		return
	}
	t.group.strip().Update(t.Snapshot())
}

func (t *Tab) emit(event TabEvent) {
	event.Tab = t
	t.listeners.emit(event.Name, event)
	detail := event.Value
	if detail == "" {
		detail = event.Signal.Description
	}
	t.group.publish(schema.Event{
		Scope:  schema.ScopeTab,
		Name:   event.Name,
		Tab:    t.Snapshot(),
		Detail: detail,
		From:   event.From,
		To:     event.To,
	})
}

// bind builds and attaches a backend at tier, falling through to more
// restrictive tiers while attaching fails.
func (t *Tab) bind(tier schema.Tier) {
	for {
		b := t.newBackend(tier)
		b.Subscribe(t.forward(b))
		err := b.Attach()
		if err == nil {
			t.backend = b
			t.showBackend()
			logx.WithTier(t.log, tier).Debug("tab view attached")
			return
		}
		logx.WithTier(t.log, tier).Warn("tab view attach failed", "err", err)
		next, ok := t.ctrl.onAttachFailed(tier)
		if !ok {
			t.backend = b
			t.failed = true
			return
		}
		tier = next
	}
}

func (t *Tab) newBackend(tier schema.Tier) view.Backend {
	host := t.group.host()
	switch tier {
	case schema.TierPrimary:
		return view.NewPrimary(host, t.src, t.attrs)
	case schema.TierEmbedded:
		return view.NewEmbedded(host, t.src, t.attrs)
	default:
		return view.NewStatic(host, t.document(), t.attrs)
	}
}

func (t *Tab) document() view.Document {
	if t.native {
		return staticpage.Native(t.title, t.component, t.props)
	}
	if guidance := t.ctrl.guidance(); guidance != "" {
		return staticpage.Guidance(t.src, guidance)
	}
	return staticpage.Failure(t.src, t.failure)
}

func (t *Tab) showBackend() {
	if t.backend == nil {
		return
	}
	if err := t.backend.SetVisible(t.marked); err != nil {
		t.log.Debug("tab view visibility failed", "err", err)
	}
	if !t.marked {
		return
	}
	if err := t.backend.Focus(); err != nil {
		t.log.Debug("tab view focus failed", "err", err)
	}
}

func (t *Tab) detach() {
	if t.backend == nil {
		return
	}
	if err := t.backend.Detach(); err != nil {
		t.log.Debug("tab view detach failed", "err", err)
	}
	t.backend = nil
}

// forward posts surface signals from b onto the dispatcher.
func (t *Tab) forward(b view.Backend) func(view.Signal) {
	dispatcher := t.group.dispatcher()
	return func(sig view.Signal) {
		dispatcher.Post(func() { t.handleSignal(b, sig) })
	}
}

// current reports whether b is still the live backend of an open tab.
func (t *Tab) current(b view.Backend) bool {
	return t.open() && t.backend == b
}

func (t *Tab) handleSignal(b view.Backend, sig view.Signal) {
	if !t.current(b) {
		return
	}
	switch sig.Kind {
	case view.SignalLoadStart:
		t.loading = true
		t.failed = false
		t.sync()
	case view.SignalLoadDone:
		t.loading = false
		t.ctrl.onLoadDone()
		t.sync()
		t.emit(TabEvent{Name: schema.EventWebviewReady, Signal: sig})
	case view.SignalLoadFailed:
		t.loading = false
		t.failed = true
		t.failure = sig.Description
		t.sync()
		t.log.Info("tab load failed", "code", sig.Code, "description", sig.Description)
		t.emit(TabEvent{Name: schema.EventWebviewLoadFailed, Signal: sig})
		if t.current(b) {
			t.apply(t.ctrl.onLoadFailed(sig.Description))
		}
	case view.SignalCrashed:
		t.loading = false
		t.failed = true
		t.failure = "The page crashed."
		t.sync()
		logx.WithURL(t.log, t.src).Warn("tab view crashed")
		t.emit(TabEvent{Name: schema.EventWebviewCrashed, Signal: sig})
		if t.current(b) {
			t.apply(t.ctrl.onCrash())
		}
	case view.SignalUnresponsive:
		t.busy = true
		t.sync()
		t.emit(TabEvent{Name: schema.EventWebviewUnresponsive, Signal: sig})
	case view.SignalResponsive:
		t.busy = false
		t.sync()
		t.emit(TabEvent{Name: schema.EventWebviewResponsive, Signal: sig})
	case view.SignalNavigated:
		if sig.URL != "" {
			t.src = sig.URL
			t.ctrl.setURL(sig.URL)
			t.sync()
		}
	case view.SignalDOMReady:
		t.emit(TabEvent{Name: schema.EventWebviewDOMReady, Signal: sig})
	case view.SignalTitle:
		if !t.native && sig.Title != "" {
			t.SetTitle(sig.Title)
		}
	case view.SignalError:
		t.failed = true
		t.failure = sig.Description
		t.sync()
		t.emit(TabEvent{Name: schema.EventWebviewLoadFailed, Signal: sig})
		if t.current(b) {
			t.apply(t.ctrl.onFrameError())
		}
	}
}

// apply runs a controller decision. Listeners of the event that led to it
// may have closed the tab or replaced its backend in the meantime.
func (t *Tab) apply(a action) {
	if !t.open() {
		return
	}
	switch a.kind {
	case actionReload:
		t.scheduleReload()
	case actionDegrade:
		t.swap(a.tier)
	}
}

func (t *Tab) scheduleReload() {
	t.cancelReload()
	b := t.backend
	delay := t.group.recovery().ReloadDelay
	t.log.Info("tab reload scheduled", "delay", delay)
	t.stopReload = t.group.dispatcher().AfterFunc(delay, func() {
		t.stopReload = nil
		if !t.open() || t.backend != b || b == nil {
			return
		}
		if err := b.Reload(); err != nil {
			t.log.Warn("tab reload failed", "err", err)
			t.apply(t.ctrl.onReloadFailed())
		}
	})
}

func (t *Tab) cancelReload() {
	if t.stopReload == nil {
		return
	}
	t.stopReload()
	t.stopReload = nil
}

// swap replaces the backend with one at tier. The old backend is detached
// before the new one attaches.
func (t *Tab) swap(tier schema.Tier) {
	if !t.open() {
		return
	}
	from := schema.TierPrimary
	if t.backend != nil {
		from = t.backend.Tier()
	}
	t.cancelReload()
	t.detach()
	t.loading = false
	t.busy = false
	t.bind(tier)
	to := t.ctrl.tier()
	logx.WithURL(t.log, t.src).Info("tab degrade", "from", from.String(), "to", to.String())
	t.sync()
	t.emit(TabEvent{Name: schema.EventTierChanged, From: from, To: to})
}
