package core

import (
	"pkt.systems/tabshell/schema"
	"pkt.systems/tabshell/view"
)

// TabEvent is delivered to listeners registered with Tab.On.
type TabEvent struct {
	Name schema.EventName
	Tab  *Tab
	// Value is the new title, icon or badge for the *-changed events.
	Value string
	// Signal is the surface signal behind webview-* events.
	Signal view.Signal
	// From and To are set for tier-changed.
	From  schema.Tier
	To    schema.Tier
	abort func()
}

// Abort vetoes a pending close. It only has an effect on the closing event.
func (e TabEvent) Abort() {
	if e.abort != nil {
		e.abort()
	}
}

// GroupEvent is delivered to listeners registered with TabGroup.On.
type GroupEvent struct {
	Name  schema.EventName
	Tab   *Tab
	Group *TabGroup
}
