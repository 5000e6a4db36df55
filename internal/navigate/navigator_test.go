package navigate

import (
	"errors"
	"testing"

	"pkt.systems/tabshell/core"
	"pkt.systems/tabshell/internal/viewtest"
	"pkt.systems/tabshell/schema"
	"pkt.systems/tabshell/view"
)

type fixture struct {
	group      *core.TabGroup
	host       *viewtest.Host
	dispatcher *viewtest.Dispatcher
	nav        *Navigator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{host: viewtest.NewHost(), dispatcher: viewtest.NewDispatcher()}
	group, err := core.NewTabGroup(core.GroupOptions{}, core.GroupDeps{Host: f.host, Dispatcher: f.dispatcher})
	if err != nil {
		t.Fatalf("new group: %v", err)
	}
	f.group = group
	nav, err := New(group, "", nil)
	if err != nil {
		t.Fatalf("new navigator: %v", err)
	}
	f.nav = nav
	return f
}

func TestSubmitFromNativeTabBecomesBrowsing(t *testing.T) {
	f := newFixture(t)
	home := f.nav.NewTab()
	if !home.IsNative() || !home.IsActive() {
		t.Fatalf("expected active native home tab")
	}
	got, err := f.nav.Submit(home, "example.com")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got != home || got.IsNative() {
		t.Fatalf("expected home tab to turn into a browsing tab")
	}
	if got.Src() != "https://example.com" || got.Tier() != schema.TierPrimary {
		t.Fatalf("unexpected tab state src=%q tier=%s", got.Src(), got.Tier())
	}
	surface := f.host.Last()
	if surface.Kind != view.SurfaceBrowsing || surface.LastLoad().URL != "https://example.com" {
		t.Fatalf("expected browsing surface loading the url, got %+v", surface)
	}
	if !surface.Visible() {
		t.Fatalf("expected surface shown for the active tab")
	}
}

func TestSubmitHealthyTabNavigatesInPlace(t *testing.T) {
	f := newFixture(t)
	tab := f.group.AddTab(core.TabSpec{Src: "http://one.test", Active: true})
	surface := f.host.Last()
	got, err := f.nav.Submit(tab, "two words")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got != tab {
		t.Fatalf("expected same tab")
	}
	if surface.LastLoad().URL != "https://duckduckgo.com/?q=two+words" {
		t.Fatalf("unexpected load %+v", surface.LastLoad())
	}
	if f.host.Count(view.SurfaceBrowsing) != 1 {
		t.Fatalf("expected surface reuse")
	}
}

func TestSubmitDegradedTabReplacesAtSamePosition(t *testing.T) {
	f := newFixture(t)
	first := f.group.AddTab(core.TabSpec{Src: "http://first.test"})
	tab := f.group.AddTab(core.TabSpec{Src: "https://broken.test", Active: true})
	last := f.group.AddTab(core.TabSpec{Src: "http://last.test"})
	f.host.Surfaces()[1].Emit(view.Signal{Kind: view.SignalCrashed})
	f.dispatcher.Flush()
	if tab.State().Health != schema.HealthDegraded {
		t.Fatalf("expected degraded tab, got %+v", tab.State())
	}

	got, err := f.nav.Submit(tab, "https://fresh.test")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got == tab {
		t.Fatalf("expected a replacement tab")
	}
	if tab.Lifecycle() != schema.LifecycleClosed {
		t.Fatalf("expected degraded tab closed, got %s", tab.Lifecycle())
	}
	if got.Tier() != schema.TierPrimary || got.Position(false) != 2 || !got.IsActive() {
		t.Fatalf("unexpected replacement tier=%s position=%d active=%v", got.Tier(), got.Position(false), got.IsActive())
	}
	tabs := f.group.Tabs()
	if len(tabs) != 3 || tabs[0] != first || tabs[2] != last {
		t.Fatalf("unexpected stacking order")
	}
}

func TestSubmitZeroURLReplacesTabWithNativePage(t *testing.T) {
	f := newFixture(t)
	tab := f.group.AddTab(core.TabSpec{Src: "http://one.test", Active: true})
	got, err := f.nav.Submit(tab, "zero://downloads")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if tab.Lifecycle() != schema.LifecycleClosed {
		t.Fatalf("expected submitting tab closed")
	}
	if !got.IsNative() || got.Title() != "Downloads" || !got.IsActive() {
		t.Fatalf("unexpected native tab %+v", got.Snapshot())
	}
	if got.ComponentProps()["calledBy"] != CalledByURLBar {
		t.Fatalf("unexpected props %v", got.ComponentProps())
	}
	if f.group.Len() != 1 {
		t.Fatalf("expected one tab, got %d", f.group.Len())
	}
	if _, err := f.nav.Submit(got, "zero://unknown"); !errors.Is(err, schema.ErrUnknownPage) {
		t.Fatalf("expected ErrUnknownPage, got %v", err)
	}
}

func TestSubmitMarketplaceOpensHelp(t *testing.T) {
	f := newFixture(t)
	tab := f.group.AddTab(core.TabSpec{Src: "http://one.test", Active: true})
	browsing := f.host.Count(view.SurfaceBrowsing)
	got, err := f.nav.Submit(tab, "https://chromewebstore.google.com/detail/x")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got.Title() != "Extension Installation Help" || got.ComponentProps()["calledBy"] != CalledByExtensions {
		t.Fatalf("unexpected help tab %+v", got.Snapshot())
	}
	if tab.Lifecycle() != schema.LifecycleOpen || tab.Src() != "http://one.test" {
		t.Fatalf("expected submitting tab untouched")
	}
	if f.host.Count(view.SurfaceBrowsing) != browsing {
		t.Fatalf("expected no browsing surface for the marketplace")
	}
}

func TestSubmitRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	tab := f.group.AddTab(core.TabSpec{Src: "http://one.test", Active: true})
	if _, err := f.nav.Submit(tab, "   "); !errors.Is(err, schema.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	if _, err := f.nav.Submit(nil, "example.com"); !errors.Is(err, schema.ErrNoActiveTab) {
		t.Fatalf("expected ErrNoActiveTab, got %v", err)
	}
	tab.Close(true)
	if _, err := f.nav.Submit(tab, "example.com"); !errors.Is(err, schema.ErrTabClosed) {
		t.Fatalf("expected ErrTabClosed, got %v", err)
	}
}

func TestSetEngine(t *testing.T) {
	f := newFixture(t)
	if err := f.nav.SetEngine("bing"); err != nil {
		t.Fatalf("set engine: %v", err)
	}
	if f.nav.Engine().Name != "bing" {
		t.Fatalf("expected bing")
	}
	if err := f.nav.SetEngine("nope"); !errors.Is(err, schema.ErrUnknownSearchEngine) {
		t.Fatalf("expected ErrUnknownSearchEngine, got %v", err)
	}
}
