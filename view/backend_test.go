package view_test

import (
	"errors"
	"testing"

	"pkt.systems/tabshell/internal/viewtest"
	"pkt.systems/tabshell/schema"
	"pkt.systems/tabshell/view"
)

func TestPrimaryAttachLoadsURL(t *testing.T) {
	host := viewtest.NewHost()
	b := view.NewPrimary(host, "https://example.com", view.Attributes{"class": "etabs-view", "partition": "persist:x"})
	if b.Attached() {
		t.Fatalf("expected backend to start detached")
	}
	if err := b.Attach(); err != nil {
		t.Fatalf("attach: %v", err)
	}
	s := host.Last()
	if s.Kind != view.SurfaceBrowsing {
		t.Fatalf("expected browsing surface, got %q", s.Kind)
	}
	if got := s.LastLoad().URL; got != "https://example.com" {
		t.Fatalf("expected url load, got %q", got)
	}
	if s.Attrs["partition"] != "temp-in-memory" {
		t.Fatalf("expected forced in-memory partition, got %q", s.Attrs["partition"])
	}
	if s.Attrs["class"] != "etabs-view" {
		t.Fatalf("expected caller attribute to survive, got %q", s.Attrs["class"])
	}
	if b.Tier() != schema.TierPrimary {
		t.Fatalf("unexpected tier %v", b.Tier())
	}
}

func TestEmbeddedSandboxAttributes(t *testing.T) {
	host := viewtest.NewHost()
	b := view.NewEmbedded(host, "https://example.com", nil)
	if err := b.Attach(); err != nil {
		t.Fatalf("attach: %v", err)
	}
	s := host.Last()
	if s.Kind != view.SurfaceFrame {
		t.Fatalf("expected frame surface, got %q", s.Kind)
	}
	if s.Attrs["sandbox"] == "" || s.Attrs["loading"] != "lazy" {
		t.Fatalf("missing sandbox attributes: %v", s.Attrs)
	}
}

func TestAttachCreateErrorIsClassified(t *testing.T) {
	host := viewtest.NewHost()
	host.FailCreate(view.SurfaceBrowsing, viewtest.ErrInjected)
	b := view.NewPrimary(host, "https://example.com", nil)
	err := b.Attach()
	var surfaceErr *view.SurfaceError
	if !errors.As(err, &surfaceErr) {
		t.Fatalf("expected SurfaceError, got %v", err)
	}
	if surfaceErr.Kind != view.SurfaceErrorCreate || surfaceErr.Tier != schema.TierPrimary {
		t.Fatalf("unexpected classification: %+v", surfaceErr)
	}
	if !errors.Is(err, viewtest.ErrInjected) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	if b.Attached() {
		t.Fatalf("expected backend to stay detached")
	}
}

func TestAttachLoadErrorClosesSurface(t *testing.T) {
	host := viewtest.NewHost()
	host.FailLoad(view.SurfaceFrame, viewtest.ErrInjected)
	b := view.NewEmbedded(host, "https://example.com", nil)
	if err := b.Attach(); err == nil {
		t.Fatalf("expected load error")
	}
	if !host.Last().Closed() {
		t.Fatalf("expected surface to be closed after failed load")
	}
}

func TestSignalFilteringPerTier(t *testing.T) {
	host := viewtest.NewHost()
	var got []view.SignalKind
	record := func(sig view.Signal) { got = append(got, sig.Kind) }

	all := []view.SignalKind{
		view.SignalLoadStart, view.SignalLoadDone, view.SignalCrashed,
		view.SignalUnresponsive, view.SignalDOMReady, view.SignalError,
	}

	cases := []struct {
		name    string
		backend view.Backend
		want    []view.SignalKind
	}{
		{"primary", view.NewPrimary(host, "https://a", nil), []view.SignalKind{view.SignalLoadStart, view.SignalLoadDone, view.SignalCrashed, view.SignalUnresponsive, view.SignalDOMReady}},
		{"embedded", view.NewEmbedded(host, "https://a", nil), []view.SignalKind{view.SignalLoadStart, view.SignalLoadDone, view.SignalDOMReady, view.SignalError}},
		{"static", view.NewStatic(host, view.Document{HTML: "<p>x</p>"}, nil), []view.SignalKind{view.SignalLoadDone, view.SignalDOMReady}},
	}
	for _, tc := range cases {
		got = nil
		tc.backend.Subscribe(record)
		if err := tc.backend.Attach(); err != nil {
			t.Fatalf("case %q attach: %v", tc.name, err)
		}
		s := host.Last()
		for _, kind := range all {
			s.Emit(view.Signal{Kind: kind})
		}
		if len(got) != len(tc.want) {
			t.Fatalf("case %q expected %v, got %v", tc.name, tc.want, got)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("case %q expected %v, got %v", tc.name, tc.want, got)
			}
		}
	}
}

func TestDetachDropsLateSignals(t *testing.T) {
	host := viewtest.NewHost()
	b := view.NewPrimary(host, "https://a", nil)
	count := 0
	b.Subscribe(func(view.Signal) { count++ })
	if err := b.Attach(); err != nil {
		t.Fatalf("attach: %v", err)
	}
	s := host.Last()
	if err := b.Detach(); err != nil {
		t.Fatalf("detach: %v", err)
	}
	s.Emit(view.Signal{Kind: view.SignalCrashed})
	if count != 0 {
		t.Fatalf("expected no signals after detach, got %d", count)
	}
	if !s.Closed() {
		t.Fatalf("expected surface closed")
	}
	if err := b.Detach(); err != nil {
		t.Fatalf("second detach: %v", err)
	}
}

func TestStaticCannotNavigate(t *testing.T) {
	host := viewtest.NewHost()
	b := view.NewStatic(host, view.Document{Title: "Offline", HTML: "<p>offline</p>", URL: "https://a"}, nil)
	if err := b.Attach(); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := b.Navigate("https://b"); !errors.Is(err, schema.ErrStaticNavigation) {
		t.Fatalf("expected ErrStaticNavigation, got %v", err)
	}
	if err := b.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if n := len(host.Last().Loads()); n != 2 {
		t.Fatalf("expected reload to render again, got %d loads", n)
	}
	if b.Document().Title != "Offline" {
		t.Fatalf("unexpected document %+v", b.Document())
	}
}

func TestNavigateRequiresAttach(t *testing.T) {
	b := view.NewPrimary(viewtest.NewHost(), "https://a", nil)
	if err := b.Navigate("https://b"); !errors.Is(err, schema.ErrNotAttached) {
		t.Fatalf("expected ErrNotAttached, got %v", err)
	}
	if b.Source().URL != "https://b" {
		t.Fatalf("expected source to track the request, got %q", b.Source().URL)
	}
}
