package format

import (
	"strings"
	"testing"

	"pkt.systems/tabshell/schema"
)

func TestFormatTabsMarksActiveAndFlags(t *testing.T) {
	lines := NewPlainRenderer().FormatTabs(schema.GroupSnapshot{
		ActiveTab: 2,
		Tabs: []schema.TabSnapshot{
			{ID: 0, Title: "Home", Position: 1, Native: true, State: schema.DegradationState{Health: schema.HealthHealthy, Tier: schema.TierStatic}},
			{ID: 2, Src: "https://example.com", Position: 2, Loading: true, State: schema.DegradationState{Health: schema.HealthDegraded, Tier: schema.TierEmbedded}},
		},
	})
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %v", lines)
	}
	if lines[0] != "  1. #0 Home [native]" {
		t.Fatalf("unexpected first line %q", lines[0])
	}
	if lines[1] != "* 2. #2 https://example.com [embedded, loading]" {
		t.Fatalf("unexpected second line %q", lines[1])
	}
}

func TestFormatTabsEmpty(t *testing.T) {
	lines := NewPlainRenderer().FormatTabs(schema.GroupSnapshot{ActiveTab: schema.NoTab})
	if len(lines) != 1 || lines[0] != "no tabs" {
		t.Fatalf("unexpected lines %v", lines)
	}
}

func TestFormatEventTierChange(t *testing.T) {
	lines, err := NewPlainRenderer().FormatEvent(schema.Event{
		Name: schema.EventTierChanged,
		Tab:  schema.TabSnapshot{ID: 4},
		From: schema.TierPrimary,
		To:   schema.TierEmbedded,
	})
	if err != nil {
		t.Fatalf("FormatEvent: %v", err)
	}
	if len(lines) != 1 || lines[0] != "tab 4 degraded: primary -> embedded" {
		t.Fatalf("unexpected lines %v", lines)
	}
}

func TestFormatEventLoadFailureCarriesDetail(t *testing.T) {
	lines, _ := NewPlainRenderer().FormatEvent(schema.Event{
		Name:   schema.EventWebviewLoadFailed,
		Tab:    schema.TabSnapshot{ID: 1},
		Detail: "net::ERR_CERT_INVALID",
	})
	if len(lines) != 1 || !strings.HasSuffix(lines[0], ": net::ERR_CERT_INVALID") {
		t.Fatalf("unexpected lines %v", lines)
	}
}

func TestFormatEventSkipsStripOnlyEvents(t *testing.T) {
	for _, name := range []schema.EventName{schema.EventVisible, schema.EventFlash, schema.EventIconChanged, schema.EventWebviewDOMReady} {
		lines, err := NewPlainRenderer().FormatEvent(schema.Event{Name: name})
		if err != nil || len(lines) != 0 {
			t.Fatalf("expected no lines for %s, got %v %v", name, lines, err)
		}
	}
}
