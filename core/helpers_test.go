package core

import (
	"testing"

	"pkt.systems/tabshell/internal/strip"
	"pkt.systems/tabshell/internal/viewtest"
	"pkt.systems/tabshell/schema"
	"pkt.systems/tabshell/view"
)

type harness struct {
	group      *TabGroup
	host       *viewtest.Host
	strip      *strip.Memory
	dispatcher *viewtest.Dispatcher
	sink       *recordingSink
}

func newHarness(t *testing.T, opts GroupOptions) *harness {
	t.Helper()
	h := &harness{
		host:       viewtest.NewHost(),
		strip:      strip.NewMemory(),
		dispatcher: viewtest.NewDispatcher(),
		sink:       &recordingSink{},
	}
	group, err := NewTabGroup(opts, GroupDeps{
		Host:       h.host,
		Strip:      h.strip,
		Dispatcher: h.dispatcher,
		Sink:       h.sink,
	})
	if err != nil {
		t.Fatalf("new group: %v", err)
	}
	h.group = group
	return h
}

type recordingSink struct {
	events []schema.Event
}

func (s *recordingSink) OnEvent(event schema.Event) {
	s.events = append(s.events, event)
}

func (s *recordingSink) names() []schema.EventName {
	out := make([]schema.EventName, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev.Name)
	}
	return out
}

func (s *recordingSink) count(name schema.EventName) int {
	n := 0
	for _, ev := range s.events {
		if ev.Name == name {
			n++
		}
	}
	return n
}

// activeCount counts tabs carrying the active marker.
func activeCount(g *TabGroup) int {
	n := 0
	for _, t := range g.Tabs() {
		if t.marked {
			n++
		}
	}
	return n
}

func recordTab(tab *Tab, names ...schema.EventName) *[]schema.EventName {
	var got []schema.EventName
	for _, name := range names {
		tab.On(name, func(ev TabEvent) { got = append(got, ev.Name) })
	}
	return &got
}

func lifecycleSignal(title string) view.Signal {
	return view.Signal{Kind: view.SignalTitle, Title: title}
}
