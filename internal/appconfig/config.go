package appconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"pkt.systems/tabshell/schema"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int            `mapstructure:"config_version" yaml:"config_version"`
	StateDir      string         `mapstructure:"state_dir" yaml:"state_dir"`
	Group         GroupConfig    `mapstructure:"group" yaml:"group"`
	NewTab        NewTabConfig   `mapstructure:"new_tab" yaml:"new_tab"`
	Recovery      RecoveryConfig `mapstructure:"recovery" yaml:"recovery"`
	Policy        PolicyConfig   `mapstructure:"policy" yaml:"policy"`
	Search        SearchConfig   `mapstructure:"search" yaml:"search"`
	Chrome        ChromeConfig   `mapstructure:"chrome" yaml:"chrome"`
	Logging       LoggingConfig  `mapstructure:"logging" yaml:"logging"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// GroupConfig controls tab strip presentation.
type GroupConfig struct {
	TabClass            string `mapstructure:"tab_class" yaml:"tab_class"`
	ViewClass           string `mapstructure:"view_class" yaml:"view_class"`
	CloseButtonText     string `mapstructure:"close_button_text" yaml:"close_button_text"`
	NewTabButtonText    string `mapstructure:"new_tab_button_text" yaml:"new_tab_button_text"`
	VisibilityThreshold int    `mapstructure:"visibility_threshold" yaml:"visibility_threshold"`
}

// NewTabConfig describes the default tab. When URL is set new tabs load it
// instead of the native home page.
type NewTabConfig struct {
	Title     string `mapstructure:"title" yaml:"title"`
	Icon      string `mapstructure:"icon" yaml:"icon"`
	IconURL   string `mapstructure:"icon_url" yaml:"icon_url"`
	Component string `mapstructure:"component" yaml:"component"`
	URL       string `mapstructure:"url" yaml:"url"`
}

// RecoveryConfig tunes crash and hang recovery. Zero values take the
// defaults; a negative max_crash_reloads disables in-place reloads.
type RecoveryConfig struct {
	ReloadDelayMS   int `mapstructure:"reload_delay_ms" yaml:"reload_delay_ms"`
	MaxCrashReloads int `mapstructure:"max_crash_reloads" yaml:"max_crash_reloads"`
	HangTimeoutMS   int `mapstructure:"hang_timeout_ms" yaml:"hang_timeout_ms"`
	HangIntervalMS  int `mapstructure:"hang_interval_ms" yaml:"hang_interval_ms"`
}

// PolicyConfig lists hosts that never get the primary tier.
type PolicyConfig struct {
	Hostile           []HostRuleConfig `mapstructure:"hostile" yaml:"hostile"`
	Sensitive         []string         `mapstructure:"sensitive" yaml:"sensitive"`
	TransportKeywords []string         `mapstructure:"transport_keywords" yaml:"transport_keywords"`
}

// HostRuleConfig is one hostile host rule. Tier is embedded or static.
type HostRuleConfig struct {
	Pattern  string `mapstructure:"pattern" yaml:"pattern"`
	Tier     string `mapstructure:"tier" yaml:"tier"`
	Guidance string `mapstructure:"guidance" yaml:"guidance,omitempty"`
}

// SearchConfig selects the address bar search engine.
type SearchConfig struct {
	Engine string `mapstructure:"engine" yaml:"engine"`
}

// ChromeConfig configures the browser process.
type ChromeConfig struct {
	ExecPath         string            `mapstructure:"exec_path" yaml:"exec_path"`
	Headless         bool              `mapstructure:"headless" yaml:"headless"`
	NoSandbox        bool              `mapstructure:"no_sandbox" yaml:"no_sandbox"`
	UserDataDir      string            `mapstructure:"user_data_dir" yaml:"user_data_dir"`
	Flags            map[string]string `mapstructure:"flags" yaml:"flags"`
	CommandTimeoutMS int               `mapstructure:"command_timeout_ms" yaml:"command_timeout_ms"`
}

// LoggingConfig controls log output and audit logging.
type LoggingConfig struct {
	File               string `mapstructure:"file" yaml:"file"`
	MaxSizeMB          int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups         int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays         int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	DisableAuditTrails bool   `mapstructure:"disable_audit_trails" yaml:"disable_audit_trails"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	policy := schema.DefaultPolicyConfig()
	recovery := schema.NormalizeRecoveryConfig(schema.RecoveryConfig{})
	return Config{
		ConfigVersion: CurrentConfigVersion,
		StateDir:      filepath.Join(home, ".tabshell", "state"),
		Group: GroupConfig{
			TabClass:            "etabs-tab",
			ViewClass:           "etabs-view",
			CloseButtonText:     "×",
			NewTabButtonText:    "＋",
			VisibilityThreshold: 0,
		},
		NewTab: NewTabConfig{
			Title:     "Home",
			Icon:      "fa fa-grip-horizontal",
			IconURL:   "icon.png",
			Component: "blank",
		},
		Recovery: RecoveryConfig{
			ReloadDelayMS:   int(recovery.ReloadDelay.Milliseconds()),
			MaxCrashReloads: recovery.MaxCrashReloads,
			HangTimeoutMS:   int(recovery.HangTimeout.Milliseconds()),
			HangIntervalMS:  int(recovery.HangInterval.Milliseconds()),
		},
		Policy: policyFromSchema(policy),
		Search: SearchConfig{
			Engine: "ddg",
		},
		Chrome: ChromeConfig{
			Headless:         true,
			UserDataDir:      filepath.Join(home, ".tabshell", "state", "chrome"),
			Flags:            map[string]string{},
			CommandTimeoutMS: 30000,
		},
		Logging: LoggingConfig{
			File:       "",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}, nil
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".tabshell", "config.yaml"), nil
}

func policyFromSchema(policy schema.PolicyConfig) PolicyConfig {
	out := PolicyConfig{
		Sensitive:         append([]string{}, policy.Sensitive...),
		TransportKeywords: append([]string{}, policy.TransportKeywords...),
	}
	for _, rule := range policy.Hostile {
		out.Hostile = append(out.Hostile, HostRuleConfig{
			Pattern:  rule.Pattern,
			Tier:     rule.Tier.String(),
			Guidance: rule.Guidance,
		})
	}
	return out
}

// SchemaPolicy converts the policy section. Tier names are validated here.
func (c Config) SchemaPolicy() (schema.PolicyConfig, error) {
	out := schema.PolicyConfig{
		Sensitive:         append([]string{}, c.Policy.Sensitive...),
		TransportKeywords: append([]string{}, c.Policy.TransportKeywords...),
	}
	for i, rule := range c.Policy.Hostile {
		tier, err := schema.ParseTier(rule.Tier)
		if err != nil {
			return schema.PolicyConfig{}, fmt.Errorf("policy.hostile[%d].tier %q: %w", i, rule.Tier, err)
		}
		out.Hostile = append(out.Hostile, schema.HostRule{Pattern: rule.Pattern, Tier: tier, Guidance: rule.Guidance})
	}
	return schema.NormalizePolicyConfig(out)
}

// SchemaRecovery converts the recovery section.
func (c Config) SchemaRecovery() schema.RecoveryConfig {
	return schema.NormalizeRecoveryConfig(schema.RecoveryConfig{
		ReloadDelay:     millis(c.Recovery.ReloadDelayMS),
		MaxCrashReloads: c.Recovery.MaxCrashReloads,
		HangTimeout:     millis(c.Recovery.HangTimeoutMS),
		HangInterval:    millis(c.Recovery.HangIntervalMS),
	})
}
