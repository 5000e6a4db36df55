package appconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Load reads configuration from the provided path. If path is empty, uses DefaultConfigPath.
func Load(path string) (Config, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("config_version", cfg.ConfigVersion)
	v.SetDefault("state_dir", cfg.StateDir)
	v.SetDefault("group.tab_class", cfg.Group.TabClass)
	v.SetDefault("group.view_class", cfg.Group.ViewClass)
	v.SetDefault("group.close_button_text", cfg.Group.CloseButtonText)
	v.SetDefault("group.new_tab_button_text", cfg.Group.NewTabButtonText)
	v.SetDefault("group.visibility_threshold", cfg.Group.VisibilityThreshold)
	v.SetDefault("new_tab.title", cfg.NewTab.Title)
	v.SetDefault("new_tab.icon", cfg.NewTab.Icon)
	v.SetDefault("new_tab.icon_url", cfg.NewTab.IconURL)
	v.SetDefault("new_tab.component", cfg.NewTab.Component)
	v.SetDefault("new_tab.url", cfg.NewTab.URL)
	v.SetDefault("recovery.reload_delay_ms", cfg.Recovery.ReloadDelayMS)
	v.SetDefault("recovery.max_crash_reloads", cfg.Recovery.MaxCrashReloads)
	v.SetDefault("recovery.hang_timeout_ms", cfg.Recovery.HangTimeoutMS)
	v.SetDefault("recovery.hang_interval_ms", cfg.Recovery.HangIntervalMS)
	v.SetDefault("policy.hostile", cfg.Policy.Hostile)
	v.SetDefault("policy.sensitive", cfg.Policy.Sensitive)
	v.SetDefault("policy.transport_keywords", cfg.Policy.TransportKeywords)
	v.SetDefault("search.engine", cfg.Search.Engine)
	v.SetDefault("chrome.exec_path", cfg.Chrome.ExecPath)
	v.SetDefault("chrome.headless", cfg.Chrome.Headless)
	v.SetDefault("chrome.no_sandbox", cfg.Chrome.NoSandbox)
	v.SetDefault("chrome.user_data_dir", cfg.Chrome.UserDataDir)
	v.SetDefault("chrome.flags", cfg.Chrome.Flags)
	v.SetDefault("chrome.command_timeout_ms", cfg.Chrome.CommandTimeoutMS)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.max_size_mb", cfg.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", cfg.Logging.MaxBackups)
	v.SetDefault("logging.max_age_days", cfg.Logging.MaxAgeDays)
	v.SetDefault("logging.disable_audit_trails", cfg.Logging.DisableAuditTrails)

	configLoaded := false
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return Config{}, err
		}
	} else {
		configLoaded = true
	}

	if configLoaded {
		if !v.IsSet("config_version") {
			return Config{}, fmt.Errorf("config_version is required; expected %d", CurrentConfigVersion)
		}
		if v.GetInt("config_version") != CurrentConfigVersion {
			return Config{}, fmt.Errorf("unsupported config_version %d; expected %d", v.GetInt("config_version"), CurrentConfigVersion)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	expandConfigEnv(&cfg)
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	if _, err := cfg.SchemaPolicy(); err != nil {
		return err
	}
	if cfg.Group.VisibilityThreshold < 0 {
		return fmt.Errorf("group.visibility_threshold must not be negative")
	}
	for key, value := range map[string]int{
		"recovery.reload_delay_ms":  cfg.Recovery.ReloadDelayMS,
		"recovery.hang_timeout_ms":  cfg.Recovery.HangTimeoutMS,
		"recovery.hang_interval_ms": cfg.Recovery.HangIntervalMS,
		"chrome.command_timeout_ms": cfg.Chrome.CommandTimeoutMS,
		"logging.max_size_mb":       cfg.Logging.MaxSizeMB,
		"logging.max_backups":       cfg.Logging.MaxBackups,
		"logging.max_age_days":      cfg.Logging.MaxAgeDays,
	} {
		if value < 0 {
			return fmt.Errorf("%s must not be negative", key)
		}
	}
	return nil
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

func expandConfigEnv(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.StateDir = expandEnv(cfg.StateDir)
	cfg.Chrome.ExecPath = expandEnv(cfg.Chrome.ExecPath)
	cfg.Chrome.UserDataDir = expandEnv(cfg.Chrome.UserDataDir)
	cfg.Logging.File = expandEnv(cfg.Logging.File)
}

func expandEnv(value string) string {
	if value == "" {
		return value
	}
	return os.Expand(value, func(key string) string {
		if key == "" {
			return ""
		}
		if val, ok := lookupEnv(key); ok {
			return val
		}
		return "$" + key
	})
}

func lookupEnv(key string) (string, bool) {
	if val, ok := os.LookupEnv(key); ok {
		return val, true
	}
	switch key {
	case "UID":
		return fmt.Sprintf("%d", os.Getuid()), true
	case "GID":
		return fmt.Sprintf("%d", os.Getgid()), true
	}
	return "", false
}

// WriteDefault writes the default config to the target path.
func WriteDefault(path string, overwrite bool) (string, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = defaultPath
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config already exists at %s", path)
		}
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return "", err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
