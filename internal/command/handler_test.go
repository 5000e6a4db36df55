package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"pkt.systems/tabshell/core"
	"pkt.systems/tabshell/internal/navigate"
	"pkt.systems/tabshell/internal/viewtest"
	"pkt.systems/tabshell/schema"
)

// inlineExec runs work on the calling goroutine.
type inlineExec struct {
	err error
}

func (e inlineExec) Do(_ context.Context, fn func()) error {
	if e.err != nil {
		return e.err
	}
	fn()
	return nil
}

type fixture struct {
	group   *core.TabGroup
	host    *viewtest.Host
	handler *Handler
}

func newFixture(t *testing.T, cfg HandlerConfig) *fixture {
	t.Helper()
	host := viewtest.NewHost()
	group, err := core.NewTabGroup(core.GroupOptions{}, core.GroupDeps{Host: host, Dispatcher: viewtest.NewDispatcher()})
	if err != nil {
		t.Fatalf("new group: %v", err)
	}
	nav, err := navigate.New(group, "", nil)
	if err != nil {
		t.Fatalf("new navigator: %v", err)
	}
	nav.NewTab()
	return &fixture{group: group, host: host, handler: NewHandler(inlineExec{}, group, nav, cfg)}
}

func (f *fixture) run(t *testing.T, input string) Result {
	t.Helper()
	res, err := f.handler.Handle(context.Background(), input)
	if err != nil {
		t.Fatalf("Handle(%q): %v", input, err)
	}
	return res
}

func TestParse(t *testing.T) {
	cmd, ok := Parse("  /GO  some search  terms ")
	if !ok {
		t.Fatalf("expected command")
	}
	if cmd.Name != "go" || cmd.Remainder != "some search  terms" || len(cmd.Args) != 3 {
		t.Fatalf("unexpected command %+v", cmd)
	}
	if _, ok := Parse("example.com/path"); ok {
		t.Fatalf("expected bare input")
	}
	if cmd, ok := Parse("/"); !ok || cmd.Name != "" {
		t.Fatalf("expected empty command, got %+v %v", cmd, ok)
	}
}

func TestIntArg(t *testing.T) {
	cmd, _ := Parse("/tab -2 x")
	v, ok, err := cmd.IntArg(0)
	if err != nil || !ok || v != -2 {
		t.Fatalf("unexpected int arg %d %v %v", v, ok, err)
	}
	if _, ok, err := cmd.IntArg(1); !ok || err == nil {
		t.Fatalf("expected parse error for non-number")
	}
	if _, ok, _ := cmd.IntArg(2); ok {
		t.Fatalf("expected missing arg")
	}
}

func TestBareInputNavigatesActiveTab(t *testing.T) {
	f := newFixture(t, HandlerConfig{})
	home := f.group.ActiveTab()
	res := f.run(t, "example.com")
	if home.IsNative() || home.Src() != "https://example.com" {
		t.Fatalf("expected home tab to load the url, got %q native=%v", home.Src(), home.IsNative())
	}
	if len(res.Lines) != 1 || !strings.Contains(res.Lines[0], "https://example.com") {
		t.Fatalf("unexpected output %v", res.Lines)
	}
	if f.host.Last().LastLoad().URL != "https://example.com" {
		t.Fatalf("expected surface load")
	}
}

func TestNewWithInputOpensActiveTab(t *testing.T) {
	f := newFixture(t, HandlerConfig{})
	f.run(t, "/new rust book")
	if f.group.Len() != 2 {
		t.Fatalf("expected 2 tabs, got %d", f.group.Len())
	}
	active := f.group.ActiveTab()
	if active.Position(false) != 2 || active.Src() != "https://duckduckgo.com/?q=rust+book" {
		t.Fatalf("unexpected active tab %+v", active.Snapshot())
	}
}

func TestNewWithoutInputOpensHome(t *testing.T) {
	f := newFixture(t, HandlerConfig{})
	f.run(t, "/new")
	if f.group.Len() != 2 || !f.group.ActiveTab().IsNative() {
		t.Fatalf("expected a native home tab to be active")
	}
}

func TestGoRequiresInput(t *testing.T) {
	f := newFixture(t, HandlerConfig{})
	if _, err := f.handler.Handle(context.Background(), "/go"); err == nil || !strings.Contains(err.Error(), "usage: /go") {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestTabNavigationCommands(t *testing.T) {
	f := newFixture(t, HandlerConfig{})
	f.run(t, "/new one.test")
	f.run(t, "/new two.test")
	tabs := f.group.Tabs()

	f.run(t, "/tab 1")
	if f.group.ActiveTab() != tabs[0] {
		t.Fatalf("expected first tab active")
	}
	f.run(t, "/next")
	if f.group.ActiveTab() != tabs[1] {
		t.Fatalf("expected second tab active")
	}
	f.run(t, "/tab -1")
	if f.group.ActiveTab() != tabs[2] {
		t.Fatalf("expected last tab active")
	}
	f.run(t, "/prev")
	if f.group.ActiveTab() != tabs[1] {
		t.Fatalf("expected second tab active again")
	}
	f.run(t, "/tab 3")
	if _, err := f.handler.Handle(context.Background(), "/next"); !errors.Is(err, schema.ErrTabNotFound) {
		t.Fatalf("expected ErrTabNotFound past the end, got %v", err)
	}
	if _, err := f.handler.Handle(context.Background(), "/tab 9"); !errors.Is(err, schema.ErrTabNotFound) {
		t.Fatalf("expected ErrTabNotFound, got %v", err)
	}
	if _, err := f.handler.Handle(context.Background(), "/tab x"); err == nil {
		t.Fatalf("expected invalid number error")
	}
}

func TestMoveActiveTab(t *testing.T) {
	f := newFixture(t, HandlerConfig{})
	f.run(t, "/new one.test")
	f.run(t, "/new two.test")
	active := f.group.ActiveTab()
	res := f.run(t, "/move 1")
	if active.Position(false) != 1 {
		t.Fatalf("expected active tab first, got %d", active.Position(false))
	}
	if len(res.Lines) != 1 || !strings.HasSuffix(res.Lines[0], "position 1") {
		t.Fatalf("unexpected output %v", res.Lines)
	}
}

func TestCloseAndForce(t *testing.T) {
	f := newFixture(t, HandlerConfig{})
	pinned := f.group.AddTab(core.TabSpec{Src: "http://pinned.test", Closable: core.Bool(false)})
	res := f.run(t, "/close "+fmt.Sprint(pinned.ID()))
	if pinned.Lifecycle() != schema.LifecycleOpen || !strings.Contains(res.Lines[0], "not closed") {
		t.Fatalf("expected non-closable tab to stay open: %v", res.Lines)
	}
	f.run(t, "/force "+fmt.Sprint(pinned.ID()))
	if pinned.Lifecycle() != schema.LifecycleClosed {
		t.Fatalf("expected forced close")
	}
	if _, err := f.handler.Handle(context.Background(), "/close 99"); !errors.Is(err, schema.ErrTabNotFound) {
		t.Fatalf("expected ErrTabNotFound, got %v", err)
	}
}

func TestCloseLastTabLeavesDefault(t *testing.T) {
	f := newFixture(t, HandlerConfig{})
	home := f.group.ActiveTab()
	f.run(t, "/close")
	if home.Lifecycle() != schema.LifecycleClosed {
		t.Fatalf("expected home tab closed")
	}
	if f.group.Len() != 1 || f.group.ActiveTab() == nil || f.group.ActiveTab() == home {
		t.Fatalf("expected a fresh default tab")
	}
}

func TestListShowsTabs(t *testing.T) {
	f := newFixture(t, HandlerConfig{})
	f.run(t, "/new one.test")
	res := f.run(t, "/list")
	if len(res.Lines) != 2 {
		t.Fatalf("expected two lines, got %v", res.Lines)
	}
	if !strings.HasPrefix(res.Lines[1], "* 2.") {
		t.Fatalf("expected active marker on second tab, got %q", res.Lines[1])
	}
}

func TestNativePagesAndEngine(t *testing.T) {
	f := newFixture(t, HandlerConfig{})
	f.run(t, "/settings")
	settings := f.group.ActiveTab()
	if settings.Title() != "Settings" || settings.ComponentProps()["calledBy"] != navigate.CalledByMenu {
		t.Fatalf("unexpected settings tab %+v", settings.Snapshot())
	}
	f.run(t, "/downloads")
	if f.group.ActiveTab().Title() != "Downloads" {
		t.Fatalf("expected downloads tab")
	}
	res := f.run(t, "/engine brave")
	if res.Lines[0] != "search engine: brave" {
		t.Fatalf("unexpected engine output %v", res.Lines)
	}
	if _, err := f.handler.Handle(context.Background(), "/engine lycos"); !errors.Is(err, schema.ErrUnknownSearchEngine) {
		t.Fatalf("expected ErrUnknownSearchEngine, got %v", err)
	}
}

func TestReloadActiveTab(t *testing.T) {
	f := newFixture(t, HandlerConfig{})
	f.run(t, "/go example.com")
	surface := f.host.Last()
	f.run(t, "/reload")
	if surface.Reloads() != 1 {
		t.Fatalf("expected one reload, got %d", surface.Reloads())
	}
}

func TestQuitHelpAndUnknown(t *testing.T) {
	f := newFixture(t, HandlerConfig{})
	if res := f.run(t, "/quit"); !res.Quit {
		t.Fatalf("expected quit")
	}
	if res := f.run(t, "/help"); len(res.Lines) == 0 {
		t.Fatalf("expected help lines")
	}
	if res := f.run(t, "/version"); len(res.Lines) != 1 || !strings.HasPrefix(res.Lines[0], "pkt.systems/") {
		t.Fatalf("unexpected version output %v", res.Lines)
	}
	if _, err := f.handler.Handle(context.Background(), "/bogus"); err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
	if _, err := f.handler.Handle(context.Background(), "/"); err == nil {
		t.Fatalf("expected invalid command error")
	}
	if res := f.run(t, "   "); len(res.Lines) != 0 {
		t.Fatalf("expected blank input to be ignored")
	}
}

func TestExecutorErrorIsReturned(t *testing.T) {
	f := newFixture(t, HandlerConfig{})
	f.handler.exec = inlineExec{err: schema.ErrLoopClosed}
	if _, err := f.handler.Handle(context.Background(), "/list"); !errors.Is(err, schema.ErrLoopClosed) {
		t.Fatalf("expected ErrLoopClosed, got %v", err)
	}
}

// lateExec gives up on the caller and runs the work afterwards.
type lateExec struct {
	ran chan struct{}
}

func (e lateExec) Do(_ context.Context, fn func()) error {
	go func() {
		defer close(e.ran)
		fn()
	}()
	return context.Canceled
}

func TestCancelledCommandStillRunsLater(t *testing.T) {
	f := newFixture(t, HandlerConfig{})
	ran := make(chan struct{})
	f.handler.exec = lateExec{ran: ran}
	res, err := f.handler.Handle(context.Background(), "/list")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(res.Lines) != 0 {
		t.Fatalf("expected an empty result, got %+v", res)
	}
	<-ran
}
