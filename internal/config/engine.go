package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Cycle types understood by the proration engine.
const (
	CycleWeekly       = "weekly"
	CycleBiWeekly     = "bi-weekly"
	CycleMonthly      = "monthly"
	CycleQuarterly    = "quarterly"
	CycleSemiAnnually = "semi-annually"
	CycleAnnually     = "annually"
)

// EngineConfig tunes the billing engine and the callers around it.
type EngineConfig struct {
	DefaultCycle              string
	DefaultCycleEffectiveDate time.Time
	ProrationTimezone         string
	RecalculationLockTTL      time.Duration
	LockRetry                 RetryConfig
}

// RetryConfig is the bounded retry policy handed to callers.
type RetryConfig struct {
	MaxAttempts    int           `mapstructure:"maxAttempts"`
	InitialBackoff time.Duration `mapstructure:"initialBackoff"`
	MaxBackoff     time.Duration `mapstructure:"maxBackoff"`
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		DefaultCycle:              CycleMonthly,
		DefaultCycleEffectiveDate: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		ProrationTimezone:         "UTC",
		RecalculationLockTTL:      30 * time.Second,
		LockRetry: RetryConfig{
			MaxAttempts:    5,
			InitialBackoff: 100 * time.Millisecond,
			MaxBackoff:     2 * time.Second,
		},
	}
}

// Location resolves ProrationTimezone, falling back to UTC.
func (c EngineConfig) Location() *time.Location {
	name := strings.TrimSpace(c.ProrationTimezone)
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

type EngineConfigHolder struct {
	current atomic.Value // holds EngineConfig
}

// NewStaticEngineConfigHolder wraps a fixed config. Used by tests and tools.
func NewStaticEngineConfigHolder(cfg EngineConfig) *EngineConfigHolder {
	holder := &EngineConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewEngineConfigHolder() (*EngineConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("billing")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/billingengine")
	v.AddConfigPath(".")

	v.SetEnvPrefix("BILLINGENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultEngineConfig()
	v.SetDefault("engine.defaultCycle", defaults.DefaultCycle)
	v.SetDefault("engine.defaultCycleEffectiveDate", defaults.DefaultCycleEffectiveDate.Format(time.RFC3339))
	v.SetDefault("engine.prorationTimezone", defaults.ProrationTimezone)
	v.SetDefault("engine.recalculationLockTTL", defaults.RecalculationLockTTL)
	v.SetDefault("engine.lockRetry.maxAttempts", defaults.LockRetry.MaxAttempts)
	v.SetDefault("engine.lockRetry.initialBackoff", defaults.LockRetry.InitialBackoff)
	v.SetDefault("engine.lockRetry.maxBackoff", defaults.LockRetry.MaxBackoff)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	cfg, err := decodeEngineConfig(v)
	if err != nil {
		return nil, err
	}

	holder := NewStaticEngineConfigHolder(cfg)
	if !fileFound {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeEngineConfig(v)
		if err != nil {
			log.Printf("[engine-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[engine-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *EngineConfigHolder) Get() EngineConfig {
	return h.current.Load().(EngineConfig)
}

// engineConfigFile mirrors the on-disk layout; dates stay strings until parsed.
type engineConfigFile struct {
	DefaultCycle              string        `mapstructure:"defaultCycle"`
	DefaultCycleEffectiveDate string        `mapstructure:"defaultCycleEffectiveDate"`
	ProrationTimezone         string        `mapstructure:"prorationTimezone"`
	RecalculationLockTTL      time.Duration `mapstructure:"recalculationLockTTL"`
	LockRetry                 RetryConfig   `mapstructure:"lockRetry"`
}

func decodeEngineConfig(v *viper.Viper) (EngineConfig, error) {
	var raw engineConfigFile
	if err := v.UnmarshalKey("engine", &raw); err != nil {
		return EngineConfig{}, err
	}
	effective, err := time.Parse(time.RFC3339, strings.TrimSpace(raw.DefaultCycleEffectiveDate))
	if err != nil {
		return EngineConfig{}, fmt.Errorf("engine.defaultCycleEffectiveDate: %w", err)
	}
	cfg := EngineConfig{
		DefaultCycle:              strings.ToLower(strings.TrimSpace(raw.DefaultCycle)),
		DefaultCycleEffectiveDate: effective.UTC(),
		ProrationTimezone:         raw.ProrationTimezone,
		RecalculationLockTTL:      raw.RecalculationLockTTL,
		LockRetry:                 raw.LockRetry,
	}
	if err := validateEngineConfig(cfg); err != nil {
		return EngineConfig{}, err
	}
	return cfg, nil
}

func validateEngineConfig(cfg EngineConfig) error {
	switch cfg.DefaultCycle {
	case CycleWeekly, CycleBiWeekly, CycleMonthly, CycleQuarterly, CycleSemiAnnually, CycleAnnually:
	default:
		return fmt.Errorf("engine.defaultCycle %q is not a known cycle", cfg.DefaultCycle)
	}
	if cfg.DefaultCycleEffectiveDate.IsZero() {
		return errors.New("engine.defaultCycleEffectiveDate cannot be empty")
	}
	if _, err := time.LoadLocation(strings.TrimSpace(cfg.ProrationTimezone)); err != nil {
		return fmt.Errorf("engine.prorationTimezone: %w", err)
	}
	if cfg.RecalculationLockTTL <= 0 {
		return errors.New("engine.recalculationLockTTL must be positive")
	}
	if cfg.LockRetry.MaxAttempts <= 0 {
		return errors.New("engine.lockRetry.maxAttempts must be positive")
	}
	return nil
}
