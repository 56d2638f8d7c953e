package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full CrewSync configuration
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Engine  EngineConfig  `yaml:"engine"`
	Cache   CacheConfig   `yaml:"cache"`
	Gateway GatewayConfig `yaml:"gateway"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LogConfig controls structured logging output
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// EngineConfig holds the sync engine's tuning knobs. The defaults
// match the engine's documented contract; override with care.
type EngineConfig struct {
	BatchSize          int           `yaml:"batchSize"`
	BatchInterval      time.Duration `yaml:"batchInterval"`
	HealthInterval     time.Duration `yaml:"healthInterval"`
	DedupWindow        time.Duration `yaml:"dedupWindow"`
	SyncTimeout        time.Duration `yaml:"syncTimeout"`
	MaxRetryAttempts   int           `yaml:"maxRetryAttempts"`
	MaxQueueDepth      int           `yaml:"maxQueueDepth"`
	StaleConnectionAge time.Duration `yaml:"staleConnectionAge"`
	CallTimeout        time.Duration `yaml:"callTimeout"`
	ResubscribeDelay   time.Duration `yaml:"resubscribeDelay"`
}

// UnmarshalYAML decodes durations from human-readable strings
// ("500ms", "1m") and leaves absent fields at their prior values, so
// a partial config file overrides only what it names
func (e *EngineConfig) UnmarshalYAML(value *yaml.Node) error {
	type raw struct {
		BatchSize          *int   `yaml:"batchSize"`
		BatchInterval      string `yaml:"batchInterval"`
		HealthInterval     string `yaml:"healthInterval"`
		DedupWindow        string `yaml:"dedupWindow"`
		SyncTimeout        string `yaml:"syncTimeout"`
		MaxRetryAttempts   *int   `yaml:"maxRetryAttempts"`
		MaxQueueDepth      *int   `yaml:"maxQueueDepth"`
		StaleConnectionAge string `yaml:"staleConnectionAge"`
		CallTimeout        string `yaml:"callTimeout"`
		ResubscribeDelay   string `yaml:"resubscribeDelay"`
	}

	var r raw
	if err := value.Decode(&r); err != nil {
		return err
	}

	if r.BatchSize != nil {
		e.BatchSize = *r.BatchSize
	}
	if r.MaxRetryAttempts != nil {
		e.MaxRetryAttempts = *r.MaxRetryAttempts
	}
	if r.MaxQueueDepth != nil {
		e.MaxQueueDepth = *r.MaxQueueDepth
	}

	durations := []struct {
		raw  string
		dst  *time.Duration
		name string
	}{
		{r.BatchInterval, &e.BatchInterval, "batchInterval"},
		{r.HealthInterval, &e.HealthInterval, "healthInterval"},
		{r.DedupWindow, &e.DedupWindow, "dedupWindow"},
		{r.SyncTimeout, &e.SyncTimeout, "syncTimeout"},
		{r.StaleConnectionAge, &e.StaleConnectionAge, "staleConnectionAge"},
		{r.CallTimeout, &e.CallTimeout, "callTimeout"},
		{r.ResubscribeDelay, &e.ResubscribeDelay, "resubscribeDelay"},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("engine.%s: %w", d.name, err)
		}
		*d.dst = parsed
	}
	return nil
}

// CacheConfig locates the cache store
type CacheConfig struct {
	DataDir string `yaml:"dataDir"`
}

// GatewayConfig controls the consumer-facing WebSocket listener
type GatewayConfig struct {
	ListenAddr string `yaml:"listenAddr"`
}

// MetricsConfig controls the Prometheus/health listener
type MetricsConfig struct {
	ListenAddr string `yaml:"listenAddr"`
}

// Default returns the configuration with every knob at its documented
// default
func Default() Config {
	return Config{
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
		Engine: EngineConfig{
			BatchSize:          10,
			BatchInterval:      1 * time.Second,
			HealthInterval:     60 * time.Second,
			DedupWindow:        5 * time.Second,
			SyncTimeout:        30 * time.Second,
			MaxRetryAttempts:   3,
			MaxQueueDepth:      10000,
			StaleConnectionAge: 5 * time.Minute,
			CallTimeout:        10 * time.Second,
			ResubscribeDelay:   5 * time.Second,
		},
		Cache: CacheConfig{
			DataDir: "/var/lib/crewsync",
		},
		Gateway: GatewayConfig{
			ListenAddr: ":8090",
		},
		Metrics: MetricsConfig{
			ListenAddr: ":9090",
		},
	}
}

// Load reads a YAML config file over the defaults
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for impossible values
func (c Config) Validate() error {
	if c.Engine.BatchSize <= 0 {
		return fmt.Errorf("engine.batchSize must be positive, got %d", c.Engine.BatchSize)
	}
	if c.Engine.BatchInterval <= 0 {
		return fmt.Errorf("engine.batchInterval must be positive, got %s", c.Engine.BatchInterval)
	}
	if c.Engine.HealthInterval <= 0 {
		return fmt.Errorf("engine.healthInterval must be positive, got %s", c.Engine.HealthInterval)
	}
	if c.Engine.DedupWindow < 0 {
		return fmt.Errorf("engine.dedupWindow must not be negative, got %s", c.Engine.DedupWindow)
	}
	if c.Engine.MaxRetryAttempts <= 0 {
		return fmt.Errorf("engine.maxRetryAttempts must be positive, got %d", c.Engine.MaxRetryAttempts)
	}
	if c.Engine.MaxQueueDepth <= 0 {
		return fmt.Errorf("engine.maxQueueDepth must be positive, got %d", c.Engine.MaxQueueDepth)
	}
	if c.Cache.DataDir == "" {
		return fmt.Errorf("cache.dataDir must not be empty")
	}
	return nil
}
