package core

import "pkt.systems/tabshell/schema"

type actionKind int

const (
	actionNone actionKind = iota
	actionReload
	actionDegrade
)

// action is what the controller asks its tab to do.
type action struct {
	kind actionKind
	tier schema.Tier
}

// controller is the per-tab degradation state machine. One controller
// lives until RemoveNative turns a native tab into a browsing tab. The
// tier only moves towards TierStatic.
type controller struct {
	state    schema.DegradationState
	url      string
	reloads  int
	policy   func() Policy
	recovery schema.RecoveryConfig
}

func newController(url string, native bool, policy func() Policy, recovery schema.RecoveryConfig) *controller {
	c := &controller{url: url, policy: policy, recovery: recovery}
	switch {
	case native:
		c.state = schema.DegradationState{Health: schema.HealthHealthy, Tier: schema.TierStatic}
	case c.floor() > schema.TierPrimary:
		c.state = schema.DegradationState{Health: schema.HealthDegraded, Tier: c.floor()}
	default:
		c.state = schema.DegradationState{Health: schema.HealthHealthy, Tier: schema.TierPrimary}
	}
	return c
}

func (c *controller) tier() schema.Tier {
	return c.state.Tier
}

// guidance returns the hostile guidance for the current url, if any.
func (c *controller) guidance() string {
	if rule, ok := c.policy().Hostile(c.url); ok {
		return rule.Guidance
	}
	return ""
}

// floor is the least restrictive tier the current url may use.
func (c *controller) floor() schema.Tier {
	if rule, ok := c.policy().Hostile(c.url); ok {
		return ruleTier(rule)
	}
	return schema.TierPrimary
}

func (c *controller) setURL(url string) {
	if url != "" {
		c.url = url
	}
}

func (c *controller) degrade(to schema.Tier) action {
	target := max(to, c.floor())
	if target <= c.state.Tier {
		return action{}
	}
	c.state = schema.DegradationState{Health: schema.HealthDegraded, Tier: target}
	return action{kind: actionDegrade, tier: target}
}

func (c *controller) onCrash() action {
	if c.state.Tier != schema.TierPrimary {
		return action{}
	}
	if c.policy().Sensitive(c.url) {
		return c.degrade(schema.TierEmbedded)
	}
	if c.state.Health == schema.HealthRecovering || c.reloads >= c.recovery.MaxCrashReloads {
		return c.degrade(schema.TierEmbedded)
	}
	c.reloads++
	c.state.Health = schema.HealthRecovering
	return action{kind: actionReload}
}

func (c *controller) onReloadFailed() action {
	if c.state.Tier != schema.TierPrimary {
		return action{}
	}
	return c.degrade(schema.TierEmbedded)
}

func (c *controller) onLoadDone() {
	if c.state.Health == schema.HealthRecovering {
		c.state.Health = schema.HealthHealthy
	}
}

func (c *controller) onLoadFailed(description string) action {
	if c.state.Tier != schema.TierPrimary {
		return action{}
	}
	policy := c.policy()
	if policy.Sensitive(c.url) && policy.TransportFailure(description) {
		return c.degrade(schema.TierEmbedded)
	}
	return action{}
}

func (c *controller) onFrameError() action {
	if c.state.Tier != schema.TierEmbedded {
		return action{}
	}
	return c.degrade(schema.TierStatic)
}

// onAttachFailed picks the tier to try after tier failed to attach. The
// second result is false once no tier is left.
func (c *controller) onAttachFailed(tier schema.Tier) (schema.Tier, bool) {
	if tier >= schema.TierStatic {
		return tier, false
	}
	target := max(tier+1, c.floor())
	c.state = schema.DegradationState{Health: schema.HealthDegraded, Tier: target}
	return target, true
}
