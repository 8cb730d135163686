package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

type Config struct {
	LogLevel      string `mapstructure:"log_level"`
	LogFormat     string `mapstructure:"log_format"`
	LogFile       string `mapstructure:"log_file"`
	LogMaxSizeMB  int    `mapstructure:"log_max_size_mb"`
	LogMaxBackups int    `mapstructure:"log_max_backups"`

	// CPUSampleMs is the delta window for per-process CPU measurement.
	CPUSampleMs int `mapstructure:"cpu_sample_ms"`
	// KillWaitMs bounds how long a graceful terminate waits for exit
	// before reporting a timeout.
	KillWaitMs int `mapstructure:"kill_wait_ms"`

	DefaultLimit   int `mapstructure:"default_limit"`
	MaxLimit       int `mapstructure:"max_limit"`
	CollectWorkers int `mapstructure:"collect_workers"`

	ProtectedNames    []string `mapstructure:"protected_names"`
	SystemUsers       []string `mapstructure:"system_users"`
	ProtectPolicyFile string   `mapstructure:"protect_policy_file"`

	AuditEnabled    bool   `mapstructure:"audit_enabled"`
	AuditDir        string `mapstructure:"audit_dir"`
	AuditMaxSizeMB  int    `mapstructure:"audit_max_size_mb"`
	AuditMaxBackups int    `mapstructure:"audit_max_backups"`
}

func Default() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		LogMaxSizeMB:    50,
		LogMaxBackups:   3,
		CPUSampleMs:     200,
		KillWaitMs:      1500,
		DefaultLimit:    10,
		MaxLimit:        500,
		CollectWorkers:  8,
		AuditEnabled:    true,
		AuditMaxSizeMB:  50,
		AuditMaxBackups: 3,
	}
}

func Load(cfgFile string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("procmcp")
		v.SetConfigType("yaml")
		v.AddConfigPath(configDir())
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("PROCMCP")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func Save(cfg *Config) error {
	return SaveTo(cfg, "")
}

func SaveTo(cfg *Config, cfgFile string) error {
	v := viper.New()
	v.Set("log_level", cfg.LogLevel)
	v.Set("log_format", cfg.LogFormat)
	v.Set("log_file", cfg.LogFile)
	v.Set("log_max_size_mb", cfg.LogMaxSizeMB)
	v.Set("log_max_backups", cfg.LogMaxBackups)
	v.Set("cpu_sample_ms", cfg.CPUSampleMs)
	v.Set("kill_wait_ms", cfg.KillWaitMs)
	v.Set("default_limit", cfg.DefaultLimit)
	v.Set("max_limit", cfg.MaxLimit)
	v.Set("collect_workers", cfg.CollectWorkers)
	v.Set("protected_names", cfg.ProtectedNames)
	v.Set("system_users", cfg.SystemUsers)
	v.Set("protect_policy_file", cfg.ProtectPolicyFile)
	v.Set("audit_enabled", cfg.AuditEnabled)
	v.Set("audit_dir", cfg.AuditDir)
	v.Set("audit_max_size_mb", cfg.AuditMaxSizeMB)
	v.Set("audit_max_backups", cfg.AuditMaxBackups)

	var cfgPath string
	if cfgFile != "" {
		cfgPath = cfgFile
		dir := filepath.Dir(cfgPath)
		if dir != "." {
			if err := os.MkdirAll(dir, 0700); err != nil {
				return err
			}
		}
	} else {
		cfgPath = filepath.Join(configDir(), "procmcp.yaml")
		if err := os.MkdirAll(configDir(), 0700); err != nil {
			return err
		}
	}

	if err := v.WriteConfigAs(cfgPath); err != nil {
		return err
	}

	return os.Chmod(cfgPath, 0600)
}

func configDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("ProgramData"), "procmcp")
	case "darwin":
		return "/Library/Application Support/procmcp"
	default:
		return "/etc/procmcp"
	}
}

// GetDataDir returns the platform directory for runtime state such as
// audit logs.
func GetDataDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("ProgramData"), "procmcp", "data")
	case "darwin":
		return "/Library/Application Support/procmcp/data"
	default:
		return "/var/lib/procmcp"
	}
}
