// Package config provides configuration management for notesync.
// It supports YAML configuration files, environment variables, and sensible defaults.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/metamechanic/notesync/internal/model"
	"github.com/metamechanic/notesync/internal/util"
)

// Config represents the complete notesync configuration.
type Config struct {
	// Platforms configures vault locations for each note platform
	Platforms PlatformsConfig `yaml:"platforms"`

	// Schema configures where the note-type schema lives
	Schema SchemaConfig `yaml:"schema"`

	// Sync configures default synchronization behavior
	Sync SyncConfig `yaml:"sync"`

	// Ledger configures the last-synced hash ledger
	Ledger LedgerConfig `yaml:"ledger"`

	// Output configures display preferences
	Output OutputConfig `yaml:"output"`

	// Watch configures continuous-sync behavior
	Watch WatchConfig `yaml:"watch"`
}

// PlatformsConfig holds per-platform vault configuration.
type PlatformsConfig struct {
	Logseq   LogseqConfig   `yaml:"logseq"`
	Obsidian ObsidianConfig `yaml:"obsidian"`
	Quarto   QuartoConfig   `yaml:"quarto"`
}

// LogseqConfig locates a Logseq graph.
type LogseqConfig struct {
	// Graph is the graph root; pages live under <graph>/pages.
	Graph string `yaml:"graph"`
}

// PagesPath returns the directory holding Logseq page files.
func (c LogseqConfig) PagesPath(baseDir string) string {
	return filepath.Join(util.ExpandPath(c.Graph, baseDir), "pages")
}

// ObsidianConfig locates an Obsidian vault and its type-based folders.
type ObsidianConfig struct {
	// Vault is the vault root directory.
	Vault string `yaml:"vault"`

	// Folders routes note types to vault subfolders. Types without an
	// entry fall back to DefaultFolder.
	Folders map[string]string `yaml:"folders,omitempty"`

	// DefaultFolder receives notes whose type has no folder mapping.
	DefaultFolder string `yaml:"default_folder"`
}

// FolderFor returns the vault subfolder a note type routes to.
func (c ObsidianConfig) FolderFor(noteType string) string {
	if folder, ok := c.Folders[strings.ToLower(noteType)]; ok {
		return folder
	}
	if c.DefaultFolder != "" {
		return c.DefaultFolder
	}
	return "Notes"
}

// QuartoConfig locates a Quarto project.
type QuartoConfig struct {
	// Project is the project root directory.
	Project string `yaml:"project"`

	// PostsDir holds regular published notes, relative to the project root.
	PostsDir string `yaml:"posts_dir"`

	// VisualizationsDir holds interactive .qmd documents, relative to the
	// project root.
	VisualizationsDir string `yaml:"visualizations_dir"`
}

// SchemaConfig locates the note-type schema document.
type SchemaConfig struct {
	// Path is the schema JSON file. Empty means ~/.notesync/schema.json.
	Path string `yaml:"path"`
}

// SchemaPath returns the resolved schema file path.
func (c SchemaConfig) SchemaPath(baseDir string) string {
	if c.Path == "" {
		return filepath.Join(util.ConfigPath(), "schema.json")
	}
	return util.ExpandPath(c.Path, baseDir)
}

// SyncConfig holds synchronization settings.
type SyncConfig struct {
	// DefaultSource is the platform treated as source when none is given.
	DefaultSource string `yaml:"default_source"`

	// Bidirectional propagates target-side edits back by default.
	Bidirectional bool `yaml:"bidirectional"`
}

// LedgerConfig holds hash-ledger settings.
type LedgerConfig struct {
	// Path is the ledger file. Empty means ~/.notesync/ledger.json.
	Path string `yaml:"path"`
}

// OutputConfig holds display preferences.
type OutputConfig struct {
	// Color controls color output (auto, always, never)
	Color string `yaml:"color"`
	// Verbose enables verbose output
	Verbose bool `yaml:"verbose"`
	// Progress enables progress bars for long runs
	Progress bool `yaml:"progress"`
}

// WatchConfig holds continuous-sync settings.
type WatchConfig struct {
	// Debounce is how long to wait after the last write event before
	// syncing a changed note.
	Debounce time.Duration `yaml:"debounce"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Platforms: PlatformsConfig{
			Logseq: LogseqConfig{
				Graph: "~/Documents/logseq",
			},
			Obsidian: ObsidianConfig{
				Vault: "~/Documents/obsidian",
				Folders: map[string]string{
					"person":       "People",
					"book":         "Books",
					"article":      "Articles",
					"place":        "Places",
					"organization": "Organizations",
				},
				DefaultFolder: "Notes",
			},
			Quarto: QuartoConfig{
				Project:           "~/Documents/quarto-site",
				PostsDir:          "posts",
				VisualizationsDir: "visualizations",
			},
		},
		Schema: SchemaConfig{},
		Sync: SyncConfig{
			DefaultSource: string(model.Logseq),
			Bidirectional: false,
		},
		Ledger: LedgerConfig{},
		Output: OutputConfig{
			Color:    "auto",
			Verbose:  false,
			Progress: true,
		},
		Watch: WatchConfig{
			Debounce: 2 * time.Second,
		},
	}
}

// configFileName is the name of the config file.
const configFileName = "config.yaml"

// FilePath returns the path to the config file.
func FilePath() string {
	return filepath.Join(util.ConfigPath(), configFileName)
}

// Load loads the configuration from file, merging with defaults.
// If the config file doesn't exist, returns default configuration.
func Load() (*Config, error) {
	cfg := Default()

	configPath := FilePath()
	// #nosec G304 - configPath is constructed from trusted config directory
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvironment()
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.applyEnvironment()
	return cfg, nil
}

// LoadFromPath loads configuration from a specific path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	// #nosec G304 - path is provided by caller
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.applyEnvironment()
	return cfg, nil
}

// Save writes the configuration to the config file.
func (c *Config) Save() error {
	return c.SaveToPath(FilePath())
}

// SaveToPath writes the configuration to a specific path.
func (c *Config) SaveToPath(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	// #nosec G306 - config file should be readable by user
	return os.WriteFile(path, data, 0o644)
}

// ApplyEnvironment applies NOTESYNC_* overrides to an existing config.
// Load and LoadFromPath call this automatically; Default does not.
func (c *Config) ApplyEnvironment() {
	c.applyEnvironment()
}

// applyEnvironment applies environment variable overrides.
// Environment variables follow the pattern NOTESYNC_<SECTION>_<KEY>.
func (c *Config) applyEnvironment() {
	if v := os.Getenv("NOTESYNC_LOGSEQ_GRAPH"); v != "" {
		c.Platforms.Logseq.Graph = v
	}
	if v := os.Getenv("NOTESYNC_OBSIDIAN_VAULT"); v != "" {
		c.Platforms.Obsidian.Vault = v
	}
	if v := os.Getenv("NOTESYNC_QUARTO_PROJECT"); v != "" {
		c.Platforms.Quarto.Project = v
	}
	if v := os.Getenv("NOTESYNC_SCHEMA_PATH"); v != "" {
		c.Schema.Path = v
	}
	if v := os.Getenv("NOTESYNC_LEDGER_PATH"); v != "" {
		c.Ledger.Path = v
	}
	if v := os.Getenv("NOTESYNC_SYNC_SOURCE"); v != "" {
		c.Sync.DefaultSource = v
	}
	if v := os.Getenv("NOTESYNC_SYNC_BIDIRECTIONAL"); v != "" {
		c.Sync.Bidirectional = parseBool(v)
	}
	if v := os.Getenv("NOTESYNC_OUTPUT_COLOR"); v != "" {
		c.Output.Color = v
	}
	if v := os.Getenv("NOTESYNC_OUTPUT_VERBOSE"); v != "" {
		c.Output.Verbose = parseBool(v)
	}
	if v := os.Getenv("NOTESYNC_WATCH_DEBOUNCE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Watch.Debounce = d
		}
	}
}

// parseBool parses a boolean from common string representations.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// DefaultSourcePlatform returns the configured default source, validated.
func (c *Config) DefaultSourcePlatform() model.Platform {
	p := model.Platform(strings.ToLower(c.Sync.DefaultSource))
	if p.IsValid() {
		return p
	}
	return model.Logseq
}

// RootFor returns the expanded content root for a platform: the Logseq
// pages directory, the Obsidian vault, or the Quarto project.
func (c *Config) RootFor(platform model.Platform, baseDir string) string {
	switch platform {
	case model.Logseq:
		return c.Platforms.Logseq.PagesPath(baseDir)
	case model.Obsidian:
		return util.ExpandPath(c.Platforms.Obsidian.Vault, baseDir)
	case model.Quarto:
		return util.ExpandPath(c.Platforms.Quarto.Project, baseDir)
	default:
		return ""
	}
}

// Exists returns true if a config file exists.
func Exists() bool {
	_, err := os.Stat(FilePath())
	return err == nil
}
