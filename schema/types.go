package schema

import "fmt"

// GroupID identifies a tab group instance.
type GroupID string

// TabID identifies a tab within one group. Ids come from a per-group counter
// and are never reused for the lifetime of the group.
type TabID int64

// NoTab is the TabID reported when no tab applies.
const NoTab TabID = -1

// Tier is the capability level of a view backend. Larger values are more
// restrictive; a tab only ever moves towards larger values.
type Tier int

const (
	// TierPrimary is the full-capability isolated browsing surface.
	TierPrimary Tier = iota
	// TierEmbedded is the sandboxed document-embedding surface.
	TierEmbedded
	// TierStatic is a locally generated document. It never fails.
	TierStatic
)

func (t Tier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierEmbedded:
		return "embedded"
	case TierStatic:
		return "static"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	return t >= TierPrimary && t <= TierStatic
}

// Health describes where a tab stands in the recovery protocol.
type Health string

const (
	// HealthHealthy means the tab renders at the tier it was built for.
	HealthHealthy Health = "healthy"
	// HealthRecovering means an in-place reload is pending or in flight.
	HealthRecovering Health = "recovering"
	// HealthDegraded means the tab was moved to a more restrictive tier.
	HealthDegraded Health = "degraded"
)

// DegradationState is the per-tab recovery state.
type DegradationState struct {
	Health Health
	Tier   Tier
}

// Lifecycle is the open/close state of a tab.
type Lifecycle string

const (
	// LifecycleOpen accepts every operation.
	LifecycleOpen Lifecycle = "open"
	// LifecycleClosing is set once a close passed its veto phase.
	LifecycleClosing Lifecycle = "closing"
	// LifecycleClosed is terminal; mutating operations are ignored.
	LifecycleClosed Lifecycle = "closed"
)
