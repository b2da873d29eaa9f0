package cli

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/tgienger/tdt/internal/models"
	"github.com/tgienger/tdt/internal/service"
	"github.com/tgienger/tdt/internal/todotxt"
)

func (a *app) addCmd() *Command {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.StringP("priority", "p", "", "Priority letter (A-Z)")

	return &Command{
		Flags:   fs,
		Usage:   "add <text...>",
		Aliases: []string{"a"},
		Short:   "Add a task",
		Long: "Append a task. The text is a todo.txt line and may carry @contexts, +projects and key:value tags.\n" +
			"Use - as the text to add one task per line read from stdin.",
		Examples: []string{
			`tdt add "Buy milk @shopping +home---errands"`,
			"tdt add --priority B Call the bank",
			"cat tasks.txt | tdt add -",
		},
		Exec: func(_ context.Context, io *IO, args []string) error {
			pri, _ := fs.GetString("priority")
			return a.execAdd(io, args, pri)
		},
	}
}

func (a *app) execAdd(io *IO, args []string, pri string) error {
	p := todotxt.PriorityNone
	if pri != "" {
		var ok bool
		p, ok = todotxt.ParsePriority(pri)
		if !ok {
			return fmt.Errorf("%w: %s", ErrInvalidPriority, pri)
		}
	}

	lines, err := a.addLines(io, args)
	if err != nil {
		return err
	}

	return a.withService(func(svc *service.Service) error {
		for _, line := range lines {
			tasks, err := svc.Add(line)
			if err != nil {
				return err
			}
			added := tasks[len(tasks)-1]
			if p.Valid() {
				if tasks, err = svc.SetPriority(added.ID, p); err != nil {
					return err
				}
				added = tasks[len(tasks)-1]
			}
			io.Println(formatTaskLine(added))
		}
		return nil
	})
}

func (a *app) addLines(io *IO, args []string) ([]string, error) {
	if len(args) == 1 && args[0] == "-" {
		if io.in == nil {
			return nil, ErrTextRequired
		}
		var lines []string
		sc := bufio.NewScanner(io.in)
		for sc.Scan() {
			if line := strings.TrimSpace(sc.Text()); line != "" {
				lines = append(lines, line)
			}
		}
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		if len(lines) == 0 {
			return nil, ErrTextRequired
		}
		return lines, nil
	}

	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return nil, ErrTextRequired
	}
	return []string{text}, nil
}

// idCommand builds a command that takes a single task id.
func (a *app) idCommand(name, short string, aliases []string, op func(*service.Service, uint64) ([]models.Task, error)) *Command {
	return &Command{
		Flags:    flag.NewFlagSet(name, flag.ContinueOnError),
		Usage:    name + " <id>",
		Aliases:  aliases,
		Short:    short,
		Examples: []string{"tdt " + name + " 3"},
		Exec: func(_ context.Context, io *IO, args []string) error {
			id, err := parseID(args)
			if err != nil {
				return err
			}
			return a.withService(func(svc *service.Service) error {
				tasks, err := op(svc, id)
				if err != nil {
					return err
				}
				return printTaskByID(io, tasks, id)
			})
		},
	}
}

func (a *app) doCmd() *Command {
	return a.idCommand("do", "Mark a task completed", []string{"done"}, (*service.Service).Complete)
}

func (a *app) undoCmd() *Command {
	return a.idCommand("undo", "Mark a task pending", []string{"undone"}, (*service.Service).Uncomplete)
}

func (a *app) toggleCmd() *Command {
	return a.idCommand("toggle", "Flip a task between pending and completed", nil, (*service.Service).Toggle)
}

func (a *app) rmCmd() *Command {
	return &Command{
		Flags:    flag.NewFlagSet("rm", flag.ContinueOnError),
		Usage:    "rm <id>",
		Aliases:  []string{"del", "delete"},
		Short:    "Delete a task",
		Examples: []string{"tdt rm 3"},
		Exec: func(_ context.Context, io *IO, args []string) error {
			id, err := parseID(args)
			if err != nil {
				return err
			}
			return a.withService(func(svc *service.Service) error {
				removed, err := svc.Get(id)
				if err != nil {
					return err
				}
				if _, err := svc.Delete(id); err != nil {
					return err
				}
				io.Println("removed", formatTaskLine(removed))
				return nil
			})
		},
	}
}

func (a *app) editCmd() *Command {
	return &Command{
		Flags:    flag.NewFlagSet("edit", flag.ContinueOnError),
		Usage:    "edit <id> <text...>",
		Aliases:  []string{"replace"},
		Short:    "Replace a task's line",
		Long:     "Replace the whole todo.txt line of a task. The task keeps its id.",
		Examples: []string{`tdt edit 3 "(A) Call mom @phone +family"`},
		Exec: func(_ context.Context, io *IO, args []string) error {
			id, err := parseID(args)
			if err != nil {
				return err
			}
			text := strings.TrimSpace(strings.Join(args[1:], " "))
			if text == "" {
				return ErrTextRequired
			}
			return a.withService(func(svc *service.Service) error {
				tasks, err := svc.Edit(id, text)
				if err != nil {
					return err
				}
				return printTaskByID(io, tasks, id)
			})
		},
	}
}

func (a *app) priCmd() *Command {
	return &Command{
		Flags:    flag.NewFlagSet("pri", flag.ContinueOnError),
		Usage:    "pri <id> <A-Z|->",
		Aliases:  []string{"priority"},
		Short:    "Set or clear a task's priority",
		Examples: []string{"tdt pri 3 A", "tdt pri 3 -"},
		Exec: func(_ context.Context, io *IO, args []string) error {
			id, err := parseID(args)
			if err != nil {
				return err
			}
			if len(args) < 2 {
				return ErrInvalidPriority
			}
			p, ok := todotxt.ParsePriority(args[1])
			if !ok {
				return fmt.Errorf("%w: %s", ErrInvalidPriority, args[1])
			}
			return a.withService(func(svc *service.Service) error {
				tasks, err := svc.SetPriority(id, p)
				if err != nil {
					return err
				}
				return printTaskByID(io, tasks, id)
			})
		},
	}
}

func parseID(args []string) (uint64, error) {
	if len(args) == 0 {
		return 0, ErrIDRequired
	}
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: %s", ErrInvalidID, args[0])
	}
	return id, nil
}

func printTaskByID(io *IO, tasks []models.Task, id uint64) error {
	for _, t := range tasks {
		if t.ID == id {
			io.Println(formatTaskLine(t))
			return nil
		}
	}
	return fmt.Errorf("%w: %d", todotxt.ErrNotFound, id)
}
