package schema

import (
	"fmt"
	"strings"
	"time"
)

// HostRule maps a URL pattern to the tier a tab must start at.
// Guidance, when set, is shown instead of the blocked page.
type HostRule struct {
	Pattern  string
	Tier     Tier
	Guidance string
}

// PolicyConfig holds the host policy used by the degradation controller.
// All patterns match as case-insensitive substrings of the full URL.
type PolicyConfig struct {
	Hostile           []HostRule
	Sensitive         []string
	TransportKeywords []string
}

// MarketplaceGuidance is shown for the blocked extension marketplace.
const MarketplaceGuidance = `<p>The extension marketplace cannot be displayed inside this browser.</p>
<ol>
<li>Open the extension page in another browser.</li>
<li>Download the packaged extension.</li>
<li>Load it from <code>zero://extensions</code>.</li>
</ol>`

// DefaultPolicyConfig returns the built-in host policy.
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		Hostile: []HostRule{
			{Pattern: "chrome.google.com/webstore", Tier: TierStatic, Guidance: MarketplaceGuidance},
			{Pattern: "chromewebstore.google.com", Tier: TierEmbedded},
		},
		Sensitive:         []string{"chrome.google.com", "chromewebstore.google.com", "https://"},
		TransportKeywords: []string{"ssl", "cert", "handshake", "eproto"},
	}
}

// NormalizePolicyConfig lower-cases and validates patterns. A zero config
// yields the defaults.
func NormalizePolicyConfig(cfg PolicyConfig) (PolicyConfig, error) {
	if len(cfg.Hostile) == 0 && len(cfg.Sensitive) == 0 && len(cfg.TransportKeywords) == 0 {
		return DefaultPolicyConfig(), nil
	}
	out := PolicyConfig{}
	for _, rule := range cfg.Hostile {
		pattern, err := NormalizeHostPattern(rule.Pattern)
		if err != nil {
			return PolicyConfig{}, err
		}
		if rule.Tier == TierPrimary || !rule.Tier.Valid() {
			return PolicyConfig{}, fmt.Errorf("hostile rule %q: %w", rule.Pattern, ErrInvalidTier)
		}
		out.Hostile = append(out.Hostile, HostRule{Pattern: pattern, Tier: rule.Tier, Guidance: strings.TrimSpace(rule.Guidance)})
	}
	for _, raw := range cfg.Sensitive {
		pattern, err := NormalizeHostPattern(raw)
		if err != nil {
			return PolicyConfig{}, err
		}
		out.Sensitive = append(out.Sensitive, pattern)
	}
	for _, raw := range cfg.TransportKeywords {
		keyword := strings.ToLower(strings.TrimSpace(raw))
		if keyword == "" {
			continue
		}
		out.TransportKeywords = append(out.TransportKeywords, keyword)
	}
	return out, nil
}

// RecoveryConfig tunes the crash recovery protocol.
type RecoveryConfig struct {
	// ReloadDelay is the pause before the in-place reload after a crash.
	ReloadDelay time.Duration
	// MaxCrashReloads is the number of in-place reloads per controller epoch.
	MaxCrashReloads int
	// HangTimeout is how long a liveness check may take before the surface
	// is reported unresponsive.
	HangTimeout time.Duration
	// HangInterval is the liveness check period.
	HangInterval time.Duration
}

const (
	// DefaultReloadDelay is the default crash reload delay.
	DefaultReloadDelay = time.Second
	// DefaultMaxCrashReloads is the default reload budget.
	DefaultMaxCrashReloads = 1
	// DefaultHangTimeout is the default liveness check timeout.
	DefaultHangTimeout = 5 * time.Second
	// DefaultHangInterval is the default liveness check period.
	DefaultHangInterval = 2 * time.Second
)

// NormalizeRecoveryConfig applies defaults. A negative MaxCrashReloads
// disables in-place reloads.
func NormalizeRecoveryConfig(cfg RecoveryConfig) RecoveryConfig {
	if cfg.ReloadDelay <= 0 {
		cfg.ReloadDelay = DefaultReloadDelay
	}
	if cfg.MaxCrashReloads == 0 {
		cfg.MaxCrashReloads = DefaultMaxCrashReloads
	}
	if cfg.MaxCrashReloads < 0 {
		cfg.MaxCrashReloads = 0
	}
	if cfg.HangTimeout <= 0 {
		cfg.HangTimeout = DefaultHangTimeout
	}
	if cfg.HangInterval <= 0 {
		cfg.HangInterval = DefaultHangInterval
	}
	return cfg
}
