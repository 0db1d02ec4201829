package config

import (
	"context"
	"fmt"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cuemby/flashflood/pkg/compactor"
	"github.com/cuemby/flashflood/pkg/flashflood"
	"github.com/cuemby/flashflood/pkg/log"
	"github.com/cuemby/flashflood/pkg/notify"
	"github.com/cuemby/flashflood/pkg/store"
	"gopkg.in/yaml.v3"
)

// Backend names recognized by the store section.
const (
	BackendMemory = "memory"
	BackendBolt   = "bolt"
	BackendS3     = "s3"
)

// StoreConfig selects and configures a store.Store backend.
type StoreConfig struct {
	Backend string `yaml:"backend"`
	Bucket  string `yaml:"bucket,omitempty"`
	Region  string `yaml:"region,omitempty"`
	BoltPath string `yaml:"bolt_path,omitempty"`
}

// JournalConfig holds the thresholds Journal checks before combining backlog.
type JournalConfig struct {
	MinimumNumberOfEvents int   `yaml:"minimum_number_of_events"`
	MinimumSize           int64 `yaml:"minimum_size"`
}

// CompactorConfig holds the background compaction tick interval.
type CompactorConfig struct {
	Interval        time.Duration `yaml:"interval"`
	UpdatesPerCycle int           `yaml:"updates_per_cycle,omitempty"`
}

// PoolConfig sizes the worker pool used for fan-out store operations.
type PoolConfig struct {
	Workers int `yaml:"workers"`
}

// LoggingConfig selects the level and format log.Init configures the
// package-level logger with. Level recognizes "debug", "info", "warn" and
// "error"; any other value (including empty) falls back to info.
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`
	JSONOutput bool   `yaml:"json_output,omitempty"`
}

// Config is the top-level configuration document.
type Config struct {
	RootPrefix string          `yaml:"root_prefix"`
	Store      StoreConfig     `yaml:"store"`
	Journal    JournalConfig   `yaml:"journal"`
	Compactor  CompactorConfig `yaml:"compactor"`
	Pool       PoolConfig      `yaml:"pool"`
	Logging    LoggingConfig   `yaml:"logging,omitempty"`
}

// InitLogging configures the package-level logger from the Logging section.
// NewEngine calls it before wiring the store and engine so that the
// log.WithComponent/WithJournalID/WithEventID lines pkg/flashflood and
// pkg/compactor emit pick up the configured level and format.
func (c *Config) InitLogging() {
	level := log.InfoLevel
	switch c.Logging.Level {
	case "debug":
		level = log.DebugLevel
	case "warn":
		level = log.WarnLevel
	case "error":
		level = log.ErrorLevel
	}
	log.Init(log.Config{
		Level:      level,
		JSONOutput: c.Logging.JSONOutput,
	})
}

// Load reads and parses a Config from path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.RootPrefix == "" {
		return nil, fmt.Errorf("config: root_prefix is required")
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = BackendMemory
	}
	return &cfg, nil
}

// NewStore builds the store.Store the Store section describes.
func (c *Config) NewStore(ctx context.Context) (store.Store, error) {
	switch c.Store.Backend {
	case BackendMemory, "":
		return store.NewMemory(), nil
	case BackendBolt:
		if c.Store.BoltPath == "" {
			return nil, fmt.Errorf("config: store.bolt_path is required for backend %q", BackendBolt)
		}
		s, err := store.NewBolt(c.Store.BoltPath)
		if err != nil {
			return nil, fmt.Errorf("config: open bolt store: %w", err)
		}
		return s, nil
	case BackendS3:
		if c.Store.Bucket == "" {
			return nil, fmt.Errorf("config: store.bucket is required for backend %q", BackendS3)
		}
		var opts []func(*awsconfig.LoadOptions) error
		if c.Store.Region != "" {
			opts = append(opts, awsconfig.WithRegion(c.Store.Region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("config: load aws config: %w", err)
		}
		client := s3.NewFromConfig(awsCfg)
		return store.NewS3(client, c.Store.Bucket), nil
	default:
		return nil, fmt.Errorf("config: unknown store backend %q", c.Store.Backend)
	}
}

// NewEngine wires a store.Store and notify.Broker into a flashflood.FlashFlood per this config.
func (c *Config) NewEngine(ctx context.Context, broker *notify.Broker) (*flashflood.FlashFlood, error) {
	c.InitLogging()
	s, err := c.NewStore(ctx)
	if err != nil {
		return nil, err
	}
	return flashflood.New(s, c.RootPrefix, broker)
}

// NewCompactor builds a compactor.Compactor over engine using this config's thresholds.
func (c *Config) NewCompactor(engine *flashflood.FlashFlood) *compactor.Compactor {
	return compactor.New(engine, compactor.Config{
		Interval:              c.Compactor.Interval,
		MinimumNumberOfEvents: c.Journal.MinimumNumberOfEvents,
		MinimumSize:           c.Journal.MinimumSize,
		UpdatesPerCycle:       c.Compactor.UpdatesPerCycle,
	})
}
