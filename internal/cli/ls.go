package cli

import (
	"context"
	"slices"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/tgienger/tdt/internal/models"
	"github.com/tgienger/tdt/internal/projecttree"
	"github.com/tgienger/tdt/internal/service"
)

func (a *app) lsCmd() *Command {
	fs := flag.NewFlagSet("ls", flag.ContinueOnError)
	fs.BoolP("all", "a", false, "Include completed tasks")
	fs.Bool("done", false, "Show only completed tasks")
	fs.StringP("project", "p", "", "Show tasks at or below a project path (e.g. home---errands)")
	fs.String("context", "", "Show tasks with the given @context")
	fs.String("format", formatText, "Output format (text|json|yaml)")

	return &Command{
		Flags:   fs,
		Usage:   "ls [flags]",
		Aliases: []string{"list"},
		Short:   "List tasks",
		Long:    "List tasks in file order. Pending tasks only unless --all or --done is given.",
		Examples: []string{
			"tdt ls --project home",
			"tdt ls --all --format json",
		},
		Exec: func(_ context.Context, io *IO, _ []string) error {
			return a.execLs(io, fs)
		},
	}
}

func (a *app) execLs(io *IO, fs *flag.FlagSet) error {
	all, _ := fs.GetBool("all")
	done, _ := fs.GetBool("done")
	project, _ := fs.GetString("project")
	ctxTag, _ := fs.GetString("context")
	format, _ := fs.GetString("format")
	project = strings.TrimPrefix(project, "+")
	ctxTag = strings.TrimPrefix(ctxTag, "@")

	if all && done {
		return ErrConflictingFlags
	}
	if err := validateFormat(format); err != nil {
		return err
	}

	showDone := all || (a.cfg.ShowCompleted && !fs.Changed("all"))

	return a.withService(func(svc *service.Service) error {
		var out []models.Task
		for _, t := range svc.FetchAll() {
			switch {
			case done && !t.Finished:
				continue
			case !done && !showDone && t.Finished:
				continue
			case project != "" && !matchesProject(t, project):
				continue
			case ctxTag != "" && !slices.Contains(t.Contexts, ctxTag):
				continue
			}
			out = append(out, t)
		}
		return printTasks(io, format, out)
	})
}

func matchesProject(t models.Task, fullPath string) bool {
	for _, p := range t.Projects {
		if projecttree.Matches(p, fullPath) {
			return true
		}
	}
	return false
}
