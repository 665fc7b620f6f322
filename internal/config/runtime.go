package config

import (
	"errors"
	"log"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// RuntimeConfig holds settings that may change without a restart.
type RuntimeConfig struct {
	LogLevel string `mapstructure:"logLevel"`
}

func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{LogLevel: "info"}
}

type RuntimeHolder struct {
	current atomic.Value // holds RuntimeConfig

	mu        sync.Mutex
	listeners []func(RuntimeConfig)
}

// NewRuntimeHolder reads the optional runtime file and watches it for edits.
// A missing file keeps the defaults.
func NewRuntimeHolder(cfg Config) (*RuntimeHolder, error) {
	v := viper.New()
	if cfg.RuntimeConfig != "" {
		v.SetConfigFile(cfg.RuntimeConfig)
	} else {
		v.SetConfigName("roomledger")
		v.SetConfigType("yml")
		v.AddConfigPath("/etc/roomledger")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("ROOMLEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultRuntimeConfig()
	v.SetDefault("runtime.logLevel", defaults.LogLevel)

	holder := &RuntimeHolder{}
	found := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfg.RuntimeConfig != "" || !errors.As(err, &notFound) {
			return nil, err
		}
		found = false
	}

	var rc RuntimeConfig
	if err := v.UnmarshalKey("runtime", &rc); err != nil {
		return nil, err
	}
	if err := validateRuntimeConfig(rc); err != nil {
		return nil, err
	}
	holder.current.Store(rc)

	if found {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			var updated RuntimeConfig
			if err := v.UnmarshalKey("runtime", &updated); err != nil {
				log.Printf("[runtime-config] reload failed: %v", err)
				return
			}
			if err := validateRuntimeConfig(updated); err != nil {
				log.Printf("[runtime-config] invalid config ignored: %v", err)
				return
			}
			holder.Set(updated)
			log.Printf("[runtime-config] reloaded from %s", e.Name)
		})
	}

	return holder, nil
}

// NewStaticRuntimeHolder returns a holder that never watches a file.
func NewStaticRuntimeHolder(rc RuntimeConfig) *RuntimeHolder {
	holder := &RuntimeHolder{}
	holder.current.Store(rc)
	return holder
}

func (h *RuntimeHolder) Get() RuntimeConfig {
	return h.current.Load().(RuntimeConfig)
}

// Set stores rc and notifies listeners.
func (h *RuntimeHolder) Set(rc RuntimeConfig) {
	h.current.Store(rc)

	h.mu.Lock()
	listeners := append([]func(RuntimeConfig){}, h.listeners...)
	h.mu.Unlock()
	for _, fn := range listeners {
		fn(rc)
	}
}

func (h *RuntimeHolder) OnChange(fn func(RuntimeConfig)) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	h.listeners = append(h.listeners, fn)
	h.mu.Unlock()
}

func validateRuntimeConfig(rc RuntimeConfig) error {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(rc.LogLevel))); err != nil {
		return errors.New("runtime.logLevel is not a valid level")
	}
	return nil
}
