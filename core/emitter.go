package core

import "pkt.systems/tabshell/schema"

type handler[E any] struct {
	id int
	fn func(E)
}

// registry is a typed listener list keyed by event name. It is only touched
// from the dispatcher.
type registry[E any] struct {
	seq      int
	handlers map[schema.EventName][]handler[E]
}

func (r *registry[E]) on(name schema.EventName, fn func(E)) func() {
	if fn == nil {
		return func() {}
	}
	if r.handlers == nil {
		r.handlers = make(map[schema.EventName][]handler[E])
	}
	r.seq++
	id := r.seq
	r.handlers[name] = append(r.handlers[name], handler[E]{id: id, fn: fn})
	return func() {
		list := r.handlers[name]
		for i, h := range list {
			if h.id == id {
				r.handlers[name] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
}

// emit calls listeners in registration order. Listeners added or removed
// during emit take effect on the next emit.
func (r *registry[E]) emit(name schema.EventName, event E) {
	list := r.handlers[name]
	if len(list) == 0 {
		return
	}
	snapshot := make([]handler[E], len(list))
	copy(snapshot, list)
	for _, h := range snapshot {
		h.fn(event)
	}
}
