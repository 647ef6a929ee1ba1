// Package config loads the settings shared by every command from the
// environment (prefix MYTHOS_) and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/japaniel/mythos/pkg/corpus"
	"github.com/japaniel/mythos/pkg/extract"
	"github.com/japaniel/mythos/pkg/logging"
	"github.com/japaniel/mythos/pkg/store/firestore"
	"github.com/japaniel/mythos/pkg/upload"
	"github.com/japaniel/mythos/pkg/validate"
)

// EnvPrefix prefixes every environment variable, e.g. MYTHOS_ROOT.
const EnvPrefix = "MYTHOS"

// Store backends.
const (
	BackendSQLite    = "sqlite"
	BackendFirestore = "firestore"
)

// Config holds all application configuration.
type Config struct {
	Root       string `envconfig:"ROOT" yaml:"root"`
	DataDir    string `envconfig:"DATA_DIR" default:"data/extracted" yaml:"dataDir"`
	OutDir     string `envconfig:"OUT_DIR" default:"." yaml:"outDir"`
	SidecarDir string `envconfig:"SIDECAR_DIR" yaml:"sidecarDir"`
	Workers    int    `envconfig:"WORKERS" default:"4" yaml:"workers"`

	Logging LogConfig    `envconfig:"LOG" yaml:"logging"`
	Store   StoreConfig  `envconfig:"STORE" yaml:"store"`
	Policy  PolicyConfig `envconfig:"POLICY" yaml:"policy"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LEVEL" default:"info" yaml:"level"`
	Development bool   `envconfig:"DEV" default:"false" yaml:"development"`
}

// StoreConfig selects and configures the document store.
type StoreConfig struct {
	Backend    string `envconfig:"BACKEND" default:"sqlite" yaml:"backend"`
	Collection string `envconfig:"COLLECTION" default:"entities" yaml:"collection"`
	BatchSize  int    `envconfig:"BATCH_SIZE" default:"250" yaml:"batchSize"`
	SQLitePath string `envconfig:"SQLITE_PATH" default:"mythos.db" yaml:"sqlitePath"`

	Firestore FirestoreConfig `envconfig:"FIRESTORE" yaml:"firestore"`
}

// FirestoreConfig reaches a Firestore project or emulator.
type FirestoreConfig struct {
	ProjectID       string `envconfig:"PROJECT_ID" yaml:"projectId"`
	EmulatorHost    string `envconfig:"EMULATOR_HOST" yaml:"emulatorHost"`
	CredentialsFile string `envconfig:"CREDENTIALS_FILE" yaml:"credentialsFile"`
}

// PolicyConfig holds the content policies applied by extract and validate.
type PolicyConfig struct {
	BrokenRefBlocks bool   `envconfig:"BROKEN_REF_BLOCKS" default:"false" yaml:"brokenRefBlocks"`
	DraftThreshold  int    `envconfig:"DRAFT_THRESHOLD" default:"50" yaml:"draftThreshold"`
	TemplatesFile   string `envconfig:"TEMPLATES_FILE" yaml:"templatesFile"`
}

// Load reads the environment and then overlays path when it is not empty.
// Values in the file win over the environment; command-line flags are
// applied by the caller afterwards.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, &corpus.ConfigError{Op: "config", Err: err}
	}
	if path == "" {
		return &cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, corpus.NewConfigError("config", "config file %q does not exist", path)
		}
		return nil, &corpus.ConfigError{Op: "config", Err: err}
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &corpus.ConfigError{Op: "config", Err: fmt.Errorf("%s: %w", path, err)}
	}
	return &cfg, nil
}

// Validate checks the settings every command depends on.
func (c *Config) Validate() error {
	if c.Workers <= 0 {
		return corpus.NewConfigError("config", "workers must be positive, got %d", c.Workers)
	}
	if c.Store.BatchSize <= 0 || c.Store.BatchSize > 500 {
		return corpus.NewConfigError("config", "batch size must be in 1..500, got %d", c.Store.BatchSize)
	}
	if c.Policy.DraftThreshold < 0 || c.Policy.DraftThreshold > 100 {
		return corpus.NewConfigError("config", "draft threshold must be in 0..100, got %d", c.Policy.DraftThreshold)
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return &corpus.ConfigError{Op: "config", Err: err}
	}
	switch c.Store.Backend {
	case BackendSQLite, BackendFirestore:
	default:
		return corpus.NewConfigError("config", "unknown store backend %q", c.Store.Backend)
	}
	return nil
}

// ValidateStore checks the settings needed to open the selected backend.
func (c *Config) ValidateStore() error {
	if err := c.Validate(); err != nil {
		return err
	}
	switch c.Store.Backend {
	case BackendSQLite:
		if strings.TrimSpace(c.Store.SQLitePath) == "" {
			return corpus.NewConfigError("config", "sqlite path is required")
		}
	case BackendFirestore:
		if firestore.NewProvider(c.FirestoreConfig()).ProjectID() == "" {
			return &corpus.ConfigError{Op: "config", Err: firestore.ErrProjectIDMissing}
		}
	}
	return nil
}

// RequireRoot checks that the corpus root is set and is a directory.
func (c *Config) RequireRoot() error {
	if strings.TrimSpace(c.Root) == "" {
		return corpus.NewConfigError("config", "corpus root is required (--root or MYTHOS_ROOT)")
	}
	info, err := os.Stat(c.Root)
	if err != nil {
		return &corpus.ConfigError{Op: "config", Err: fmt.Errorf("corpus root: %w", err)}
	}
	if !info.IsDir() {
		return corpus.NewConfigError("config", "corpus root %q is not a directory", c.Root)
	}
	return nil
}

// LoggingConfig converts the logging block.
func (c *Config) LoggingConfig() logging.Config {
	return logging.Config{Level: c.Logging.Level, Development: c.Logging.Development}
}

// FirestoreConfig converts the Firestore block.
func (c *Config) FirestoreConfig() firestore.Config {
	return firestore.Config{
		ProjectID:       c.Store.Firestore.ProjectID,
		EmulatorHost:    c.Store.Firestore.EmulatorHost,
		CredentialsFile: c.Store.Firestore.CredentialsFile,
	}
}

// ValidationPolicy converts the policy block.
func (c *Config) ValidationPolicy() validate.Policy {
	p := validate.DefaultPolicy
	p.BrokenRefBlocks = c.Policy.BrokenRefBlocks
	return p
}

// ExtractOptions converts the extraction settings. Templates are loaded
// from TemplatesFile when set.
func (c *Config) ExtractOptions() (extract.Options, error) {
	opts := extract.Options{
		SidecarDir:     c.SidecarDir,
		DraftThreshold: c.Policy.DraftThreshold,
	}
	if c.Policy.TemplatesFile != "" {
		tpl, err := extract.LoadTemplates(c.Policy.TemplatesFile)
		if err != nil {
			return opts, err
		}
		opts.Templates = tpl
	}
	return opts, nil
}

// UploadOptions converts the upload settings.
func (c *Config) UploadOptions() upload.Options {
	return upload.Options{BatchSize: c.Store.BatchSize}
}
