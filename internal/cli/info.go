package cli

import (
	"context"
	"errors"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/tgienger/tdt/internal/config"
	"github.com/tgienger/tdt/internal/db"
	"github.com/tgienger/tdt/internal/service"
)

const defaultRecentLimit = 10

func (a *app) treeCmd() *Command {
	fs := flag.NewFlagSet("tree", flag.ContinueOnError)
	fs.String("format", formatText, "Output format (text|json|yaml)")

	return &Command{
		Flags:    fs,
		Usage:    "tree [flags]",
		Aliases:  []string{"projects"},
		Short:    "Show the project tree",
		Examples: []string{"tdt tree --format json"},
		Long: "Show projects as a tree. A tag like +home---errands is the node errands under home.\n" +
			"Counts are the number of tags naming exactly that node.",
		Exec: func(_ context.Context, io *IO, _ []string) error {
			format, _ := fs.GetString("format")
			if err := validateFormat(format); err != nil {
				return err
			}
			return a.withService(func(svc *service.Service) error {
				return printTree(io, format, svc.Tree())
			})
		},
	}
}

func (a *app) printConfigCmd() *Command {
	return &Command{
		Flags:   flag.NewFlagSet("print-config", flag.ContinueOnError),
		Usage:   "print-config",
		Aliases: []string{"config"},
		Short:   "Show resolved configuration",
		Long:    "Display the effective configuration and which files it was loaded from.",
		Exec: func(_ context.Context, io *IO, _ []string) error {
			return execPrintConfig(io, a.cfg)
		},
	}
}

func execPrintConfig(io *IO, cfg config.Config) error {
	formatted, err := config.Format(cfg)
	if err != nil {
		return err
	}

	io.Printf("%s", formatted)
	io.Println()
	io.Println("# effective_cwd:", cfg.EffectiveCwd)
	io.Println("# todo_file:", cfg.TodoFileAbs)
	io.Println("# sources:")

	if cfg.Sources.Empty() {
		io.Println("#   (defaults only)")
		return nil
	}
	if cfg.Sources.Global != "" {
		io.Println("#   global:", cfg.Sources.Global)
	}
	if cfg.Sources.Project != "" {
		io.Println("#   project:", cfg.Sources.Project)
	}
	if cfg.Sources.Explicit != "" {
		io.Println("#   explicit:", cfg.Sources.Explicit)
	}
	return nil
}

func (a *app) recentCmd() *Command {
	fs := flag.NewFlagSet("recent", flag.ContinueOnError)
	fs.IntP("limit", "n", defaultRecentLimit, "Maximum files to show")

	return &Command{
		Flags: fs,
		Usage: "recent [flags]",
		Short: "List todo files recently opened in the interactive view",
		Exec: func(_ context.Context, io *IO, _ []string) error {
			limit, _ := fs.GetInt("limit")
			if limit <= 0 {
				return errors.New("--limit must be positive")
			}
			return a.execRecent(io, limit)
		},
	}
}

func (a *app) execRecent(io *IO, limit int) (err error) {
	store, err := a.openStateDB()
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, store.Close())
	}()

	paths, err := store.RecentFiles(limit)
	if err != nil {
		return fmt.Errorf("read recent files: %w", err)
	}
	for _, p := range paths {
		io.Println(p)
	}
	return nil
}

func (a *app) openStateDB() (*db.DB, error) {
	path := a.cfg.StateDB
	if path == "" {
		var err error
		if path, err = db.DefaultPath(); err != nil {
			return nil, fmt.Errorf("locate state db: %w", err)
		}
	}
	store, err := db.New(path)
	if err != nil {
		return nil, fmt.Errorf("open state db %s: %w", path, err)
	}
	return store, nil
}
