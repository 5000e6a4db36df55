package logx

import (
	"context"

	"pkt.systems/pslog"

	"pkt.systems/tabshell/schema"
)

type contextKey int

const groupKey contextKey = iota

// WithGroup annotates the logger with the group id if present.
func WithGroup(log pslog.Logger, groupID schema.GroupID) pslog.Logger {
	if groupID != "" {
		log = log.With("group", groupID)
	}
	return log
}

// FromContext returns the context logger annotated with the group id, unless
// the context already carries that group.
func FromContext(ctx context.Context, groupID schema.GroupID) pslog.Logger {
	log := pslog.Ctx(ctx)
	if current, ok := ctx.Value(groupKey).(schema.GroupID); ok && current == groupID {
		return log
	}
	return WithGroup(log, groupID)
}

// ContextWithGroupLogger attaches a group logger and the group marker to the
// context.
func ContextWithGroupLogger(ctx context.Context, log pslog.Logger, groupID schema.GroupID) context.Context {
	ctx = pslog.ContextWithLogger(ctx, log)
	if groupID == "" {
		return ctx
	}
	return context.WithValue(ctx, groupKey, groupID)
}

// WithTab annotates an existing logger with a tab id.
func WithTab(log pslog.Logger, tabID schema.TabID) pslog.Logger {
	if tabID != schema.NoTab {
		log = log.With("tab", tabID)
	}
	return log
}

// WithTier annotates the logger with a view tier.
func WithTier(log pslog.Logger, tier schema.Tier) pslog.Logger {
	return log.With("tier", tier.String())
}

// WithURL annotates the logger with a url when available.
func WithURL(log pslog.Logger, url string) pslog.Logger {
	if url != "" {
		log = log.With("url", url)
	}
	return log
}
