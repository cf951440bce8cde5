// Package cli provides command definitions for notesync.
package cli

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	gosync "sync"
	"syscall"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/metamechanic/notesync/internal/config"
	"github.com/metamechanic/notesync/internal/logging"
	"github.com/metamechanic/notesync/internal/model"
	"github.com/metamechanic/notesync/internal/progress"
	"github.com/metamechanic/notesync/internal/schema"
	"github.com/metamechanic/notesync/internal/sync"
	"github.com/metamechanic/notesync/internal/ui"
	"github.com/metamechanic/notesync/internal/ui/tui"
	"github.com/metamechanic/notesync/internal/util"
	"github.com/metamechanic/notesync/internal/watch"
)

// loadConfig loads the configuration, honoring the global --config flag.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	if path := cmd.String("config"); path != "" {
		cfg, err := config.LoadFromPath(util.ExpandPath(path, ""))
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
		return cfg, nil
	}
	return config.Load()
}

// loadSchema loads the note-type schema the configuration points at. A
// missing schema file falls back to the built-in defaults; a present but
// invalid one is fatal.
func loadSchema(cfg *config.Config) (*schema.Schema, error) {
	path := cfg.Schema.SchemaPath("")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logging.Debug("schema file missing, using built-in defaults", logging.Path(path))
		return schema.Default(), nil
	}
	return schema.Load(path)
}

// newSynchronizer wires config and schema into a ready Synchronizer.
func newSynchronizer(cmd *cli.Command) (*sync.Synchronizer, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	s, err := loadSchema(cfg)
	if err != nil {
		return nil, nil, err
	}
	syn, err := sync.New(cfg, s, "")
	if err != nil {
		return nil, nil, err
	}
	return syn, cfg, nil
}

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:      "sync",
		Usage:     "Synchronize note sections across platforms",
		UsageText: "notesync sync [options]",
		Description: `Synchronize schematized note sections between platforms.

   Supported platforms: logseq, obsidian, quarto

   Examples:
     notesync sync
     notesync sync --source logseq --target obsidian
     notesync sync --bidirectional --dry-run
     notesync sync --file ~/Documents/logseq/pages/Alan\ Turing.md`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "source",
				Aliases: []string{"s"},
				Usage:   "Source platform whose edits win (default from config)",
			},
			&cli.StringSliceFlag{
				Name:    "target",
				Aliases: []string{"t"},
				Usage:   "Target platform, repeatable; 'all' or omitted means every other platform",
			},
			&cli.BoolFlag{
				Name:    "bidirectional",
				Aliases: []string{"b"},
				Usage:   "Also copy target-side edits back to the source",
			},
			&cli.StringFlag{
				Name:  "file",
				Usage: "Restrict the run to the note stored at this path",
			},
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"d"},
				Usage:   "Preview changes without modifying files",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			syn, cfg, err := newSynchronizer(cmd)
			if err != nil {
				return err
			}

			opts, err := syncOptions(cmd, cfg)
			if err != nil {
				return err
			}

			var bar *progress.Bar
			if cfg.Output.Progress && !opts.DryRun {
				bar = progress.Spinner("Syncing notes")
			}
			result, err := syn.Run(opts)
			if bar != nil {
				_ = bar.Clear()
			}
			if err != nil {
				return err
			}

			if cmd.Bool("verbose") || cmd.Bool("debug") || cfg.Output.Verbose {
				printSections(result)
			}
			fmt.Print(result.Summary())
			if result.HasConflicts() {
				fmt.Println(ui.StatusConflict("Run `notesync conflicts` to review."))
			}
			if !result.Success() {
				return fmt.Errorf("%d section(s) failed", len(result.Failed()))
			}
			return nil
		},
	}
}

// syncOptions builds run options from flags, falling back to configuration.
func syncOptions(cmd *cli.Command, cfg *config.Config) (sync.Options, error) {
	opts := sync.Options{
		Source:        cfg.DefaultSourcePlatform(),
		Bidirectional: cmd.Bool("bidirectional") || cfg.Sync.Bidirectional,
		File:          cmd.String("file"),
		DryRun:        cmd.Bool("dry-run"),
	}

	if v := cmd.String("source"); v != "" {
		p, err := model.ParsePlatform(v)
		if err != nil {
			return opts, fmt.Errorf("invalid source platform: %w", err)
		}
		opts.Source = p
	}

	for _, v := range cmd.StringSlice("target") {
		if v == "all" {
			opts.Targets = nil
			break
		}
		p, err := model.ParsePlatform(v)
		if err != nil {
			return opts, fmt.Errorf("invalid target platform: %w", err)
		}
		opts.Targets = append(opts.Targets, p)
	}

	return opts, nil
}

// printSections lists every non-skip section outcome, one line each.
func printSections(result *sync.Result) {
	for _, sr := range result.Sections {
		if sr.Action == sync.ActionSkip {
			continue
		}
		line := fmt.Sprintf("  %s  %s / %s", ui.ActionColor(string(sr.Action)), sr.Directive.Identity, sr.Directive.Section)
		if sr.Message != "" {
			line += " " + ui.Dim("("+sr.Message+")")
		}
		fmt.Println(line)
	}
}

func conflictsCommand() *cli.Command {
	return &cli.Command{
		Name:  "conflicts",
		Usage: "Review recorded sync conflicts",
		Description: `Browse sections that diverged on both platforms since the last sync.

   Conflicts are resolved by editing one platform's file and rerunning
   the sync; this command only shows what differs and where.`,
		Action: func(_ context.Context, cmd *cli.Command) error {
			syn, _, err := newSynchronizer(cmd)
			if err != nil {
				return err
			}

			conflicts := syn.ConflictStore().List()
			if len(conflicts) == 0 {
				fmt.Println(ui.StatusSuccess("No conflicts. Everything is in sync."))
				return nil
			}

			if term.IsTerminal(int(os.Stdout.Fd())) {
				_, err := tui.Run(tui.NewConflictListModel(conflicts))
				return err
			}

			// Plain listing for pipes and scripts.
			for _, c := range conflicts {
				fmt.Println(ui.StatusConflict(c.Summary()))
			}
			return nil
		},
	}
}

func initCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Create the config file, default schema, and vault directories",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite an existing config file and schema",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			force := cmd.Bool("force")

			cfgPath := cmd.String("config")
			if cfgPath == "" {
				cfgPath = config.FilePath()
			} else {
				cfgPath = util.ExpandPath(cfgPath, "")
			}

			cfg := config.Default()
			cfg.ApplyEnvironment()
			if _, err := os.Stat(cfgPath); err == nil && !force {
				loaded, err := config.LoadFromPath(cfgPath)
				if err != nil {
					return fmt.Errorf("load config %s: %w", cfgPath, err)
				}
				cfg = loaded
				fmt.Println(ui.StatusSkipped("config exists: " + cfgPath))
			} else {
				if err := cfg.SaveToPath(cfgPath); err != nil {
					return fmt.Errorf("write config: %w", err)
				}
				fmt.Println(ui.StatusSuccess("wrote config: " + cfgPath))
			}

			schemaPath := cfg.Schema.SchemaPath("")
			if _, err := os.Stat(schemaPath); err == nil && !force {
				fmt.Println(ui.StatusSkipped("schema exists: " + schemaPath))
			} else {
				if err := os.MkdirAll(filepath.Dir(schemaPath), 0o750); err != nil {
					return fmt.Errorf("create schema directory: %w", err)
				}
				// #nosec G306 - the schema is a user-editable document
				if err := os.WriteFile(schemaPath, []byte(schema.DefaultJSON), 0o644); err != nil {
					return fmt.Errorf("write schema: %w", err)
				}
				fmt.Println(ui.StatusSuccess("wrote schema: " + schemaPath))
			}

			for _, p := range model.AllPlatforms() {
				root := cfg.RootFor(p, "")
				if err := os.MkdirAll(root, 0o750); err != nil {
					return fmt.Errorf("create %s root: %w", p, err)
				}
				fmt.Println(ui.StatusSuccess(fmt.Sprintf("%s root: %s", p, root)))
			}
			quartoRoot := cfg.RootFor(model.Quarto, "")
			for _, sub := range []string{cfg.Platforms.Quarto.PostsDir, cfg.Platforms.Quarto.VisualizationsDir} {
				if err := os.MkdirAll(filepath.Join(quartoRoot, sub), 0o750); err != nil {
					return fmt.Errorf("create quarto %s: %w", sub, err)
				}
			}

			fmt.Println()
			fmt.Println("Edit the config to point at your vaults, then run " + ui.Bold("notesync sync") + ".")
			return nil
		},
	}
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Display the effective configuration",
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Println(ui.Header("Configuration"))
			fmt.Print(string(data))

			fmt.Println(ui.Header("Resolved paths"))
			for _, p := range model.AllPlatforms() {
				fmt.Printf("  %-9s %s\n", p.String()+":", cfg.RootFor(p, ""))
			}
			fmt.Printf("  %-9s %s\n", "schema:", cfg.Schema.SchemaPath(""))
			ledgerPath := cfg.Ledger.Path
			if ledgerPath == "" {
				ledgerPath = filepath.Join(util.ConfigPath(), "ledger.json")
			}
			fmt.Printf("  %-9s %s\n", "ledger:", util.ExpandPath(ledgerPath, ""))
			return nil
		},
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Watch vaults and sync notes as they change",
		Description: `Continuously sync: when a note file changes on any platform, that
   platform becomes the source and the change propagates to the others
   after a debounce window.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "source",
				Aliases: []string{"s"},
				Usage:   "Only watch this platform's vault",
			},
			&cli.BoolFlag{
				Name:    "bidirectional",
				Aliases: []string{"b"},
				Usage:   "Allow target-side edits to copy back during each run",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			syn, cfg, err := newSynchronizer(cmd)
			if err != nil {
				return err
			}

			watched := model.AllPlatforms()
			if v := cmd.String("source"); v != "" {
				p, err := model.ParsePlatform(v)
				if err != nil {
					return fmt.Errorf("invalid source platform: %w", err)
				}
				watched = []model.Platform{p}
			}
			roots := make(map[model.Platform]string, len(watched))
			for _, p := range watched {
				roots[p] = cfg.RootFor(p, "")
			}

			bidirectional := cmd.Bool("bidirectional") || cfg.Sync.Bidirectional

			// Timer goroutines share the ledger and conflict store, so
			// triggered runs must not interleave.
			var mu gosync.Mutex
			handler := func(ev watch.Event) {
				mu.Lock()
				defer mu.Unlock()

				logging.Debug("change detected",
					logging.Platform(string(ev.Platform)),
					logging.Path(ev.Path))
				result, err := syn.Run(sync.Options{
					Source:        ev.Platform,
					File:          ev.Path,
					Bidirectional: bidirectional,
				})
				if err != nil {
					fmt.Println(ui.StatusError(fmt.Sprintf("sync failed for %s: %v", ev.Path, err)))
					return
				}
				if result.TotalChanged() > 0 || result.HasConflicts() || !result.Success() {
					fmt.Print(result.Summary())
				}
				if result.HasConflicts() {
					fmt.Println(ui.StatusConflict("Run `notesync conflicts` to review."))
				}
			}

			for _, p := range watched {
				count := 0
				err := syn.Vault(p).Walk(func(path string, _ fs.DirEntry) error {
					if ext := filepath.Ext(path); ext == ".md" || ext == ".qmd" {
						count++
					}
					return nil
				})
				if err != nil {
					return fmt.Errorf("%s vault: %w", p, err)
				}
				fmt.Println(ui.Info(fmt.Sprintf("%s: %d note file(s) under %s", p, count, roots[p])))
			}

			fmt.Println(ui.Info("Watching for note changes. Press Ctrl+C to stop."))
			w := watch.New(roots, cfg.Watch.Debounce, handler)

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := w.Run(ctx); err != nil && err != context.Canceled {
				return err
			}
			return nil
		},
	}
}
