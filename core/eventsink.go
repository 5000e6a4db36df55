package core

import "pkt.systems/tabshell/schema"

// EventSink receives transport-friendly copies of group and tab events.
type EventSink interface {
	OnEvent(event schema.Event)
}
