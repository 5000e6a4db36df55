package core

import (
	"strings"

	"pkt.systems/tabshell/schema"
)

// Policy answers host questions for the degradation controller. Every
// check is a case-insensitive substring match against the full URL.
type Policy struct {
	cfg schema.PolicyConfig
}

// NewPolicy wraps a normalized policy config.
func NewPolicy(cfg schema.PolicyConfig) Policy {
	return Policy{cfg: cfg}
}

// Config returns the wrapped config.
func (p Policy) Config() schema.PolicyConfig {
	return p.cfg
}

// Hostile returns the most restrictive hostile rule matching url.
func (p Policy) Hostile(url string) (schema.HostRule, bool) {
	lowered := strings.ToLower(url)
	var (
		match schema.HostRule
		found bool
	)
	for _, rule := range p.cfg.Hostile {
		if rule.Pattern == "" || !strings.Contains(lowered, rule.Pattern) {
			continue
		}
		if !found || ruleTier(rule) > ruleTier(match) {
			match = rule
			found = true
		}
	}
	return match, found
}

// Sensitive reports whether url matches a sensitive pattern.
func (p Policy) Sensitive(url string) bool {
	lowered := strings.ToLower(url)
	for _, pattern := range p.cfg.Sensitive {
		if pattern != "" && strings.Contains(lowered, pattern) {
			return true
		}
	}
	return false
}

// TransportFailure reports whether a load failure description names a
// transport security problem.
func (p Policy) TransportFailure(description string) bool {
	lowered := strings.ToLower(description)
	for _, keyword := range p.cfg.TransportKeywords {
		if keyword != "" && strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

// ruleTier is the tier a hostile rule forces. Rules with guidance always
// render the guidance document.
func ruleTier(rule schema.HostRule) schema.Tier {
	if rule.Guidance != "" {
		return schema.TierStatic
	}
	return rule.Tier
}
