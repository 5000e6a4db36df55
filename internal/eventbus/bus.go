package eventbus

import (
	"context"
	"sync"

	"pkt.systems/pslog"

	"pkt.systems/tabshell/internal/logx"
	"pkt.systems/tabshell/schema"
)

// Bus fanouts group and tab events to per-group subscribers.
type Bus struct {
	mu    sync.Mutex
	subs  map[schema.GroupID]map[chan schema.Event]struct{}
	log   pslog.Logger
	depth int
}

// New constructs a Bus.
func New(logger pslog.Logger) *Bus {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Bus{
		subs:  make(map[schema.GroupID]map[chan schema.Event]struct{}),
		log:   logger,
		depth: 256,
	}
}

// Subscribe registers a subscriber for the group and returns a channel + cancel.
func (b *Bus) Subscribe(groupID schema.GroupID) (<-chan schema.Event, func()) {
	if b == nil {
		return nil, func() {}
	}
	ch := make(chan schema.Event, b.depth)
	b.mu.Lock()
	groupSubs := b.subs[groupID]
	if groupSubs == nil {
		groupSubs = make(map[chan schema.Event]struct{})
		b.subs[groupID] = groupSubs
	}
	groupSubs[ch] = struct{}{}
	count := len(groupSubs)
	b.mu.Unlock()
	if b.log != nil {
		logx.WithGroup(b.log, groupID).Debug("eventbus subscribe", "subs", count)
	}
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			if subs := b.subs[groupID]; subs != nil {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(b.subs, groupID)
				}
			}
			b.mu.Unlock()
			close(ch)
			if b.log != nil {
				logx.WithGroup(b.log, groupID).Debug("eventbus unsubscribe")
			}
		})
	}
}

// OnEvent publishes an event to the subscribers of its group.
func (b *Bus) OnEvent(event schema.Event) {
	b.publish(event.GroupID, event)
}

func (b *Bus) publish(groupID schema.GroupID, event schema.Event) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	groupSubs := b.subs[groupID]
	if len(groupSubs) == 0 {
		return
	}
	dropped := 0
	for sub := range groupSubs {
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	if dropped > 0 && b.log != nil {
		logx.WithGroup(b.log, groupID).Trace("eventbus dropped", "count", dropped)
	}
}
