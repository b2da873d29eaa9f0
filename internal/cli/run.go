// Package cli implements the tdt command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	flag "github.com/spf13/pflag"

	"github.com/tgienger/tdt/internal/config"
	"github.com/tgienger/tdt/internal/logging"
	"github.com/tgienger/tdt/internal/service"
)

// BuildInfo is printed by --version.
var BuildInfo = "dev"

// Run is the main entry point. Returns exit code.
func Run(in io.Reader, out, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	o := NewIO(in, out, errOut)

	globals := flag.NewFlagSet("tdt", flag.ContinueOnError)
	globals.SetInterspersed(false)
	globals.SetOutput(&strings.Builder{})
	todoFile := globals.StringP("file", "f", "", "Use the given todo.txt file")
	configPath := globals.StringP("config", "c", "", "Use the given config file")
	workDir := globals.StringP("cwd", "C", "", "Run as if started in `dir`")
	logLevel := globals.String("log-level", "", "Log level (debug, info, warn, error)")
	showVersion := globals.BoolP("version", "v", false, "Print version and exit")
	showHelp := globals.BoolP("help", "h", false, "Show help")

	if len(args) > 0 {
		args = args[1:]
	}
	if err := globals.Parse(args); err != nil {
		o.ErrPrintln("error:", err)
		printUsage(errOut, globals, nil)
		return 1
	}

	if *showVersion {
		o.Println("tdt", BuildInfo)
		return 0
	}

	cfg, err := config.Load(config.LoadInput{
		WorkDirOverride:  *workDir,
		ConfigPath:       *configPath,
		TodoFileOverride: *todoFile,
		LogLevelOverride: *logLevel,
		Env:              env,
	})
	if err != nil {
		o.ErrPrintln("error:", err)
		return 1
	}

	a := &app{cfg: cfg, logger: stderrLogger(errOut, cfg.LogLevel)}
	commands := a.commands()

	rest := globals.Args()
	if *showHelp {
		printUsage(out, globals, commands)
		return 0
	}
	if len(rest) == 0 {
		rest = []string{"tui"}
	}

	name := rest[0]
	cmd := findCommand(commands, name)
	if cmd == nil {
		o.ErrPrintln("error:", fmt.Errorf("%w: %s", ErrUnknownCommand, name))
		printUsage(errOut, globals, commands)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if sigCh != nil {
		go func() {
			select {
			case <-sigCh:
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	return cmd.Run(ctx, o, rest[1:])
}

// app carries what every command needs.
type app struct {
	cfg    config.Config
	logger *log.Logger
}

func (a *app) commands() []*Command {
	return []*Command{
		a.lsCmd(),
		a.addCmd(),
		a.doCmd(),
		a.undoCmd(),
		a.toggleCmd(),
		a.rmCmd(),
		a.editCmd(),
		a.priCmd(),
		a.treeCmd(),
		a.printConfigCmd(),
		a.recentCmd(),
		a.tuiCmd(),
	}
}

// openService opens the configured todo file. The caller closes it.
func (a *app) openService(logger *log.Logger) (*service.Service, error) {
	opts := []service.Option{service.WithLogger(logger)}
	if !a.cfg.Lock {
		opts = append(opts, service.WithoutLock())
	}
	return service.Open(a.cfg.TodoFileAbs, opts...)
}

// withService runs fn against an open service and closes it afterwards.
func (a *app) withService(fn func(*service.Service) error) (err error) {
	svc, err := a.openService(a.logger)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, svc.Close())
	}()
	return fn(svc)
}

// stderrLogger keeps routine info logs off the terminal so command output
// stays readable. Debug and stricter levels pass through.
func stderrLogger(w io.Writer, level string) *log.Logger {
	if level == "" || strings.EqualFold(level, "info") {
		level = "warn"
	}
	logger, err := logging.New(w, level)
	if err != nil {
		return logging.Discard()
	}
	logger.SetReportTimestamp(false)
	return logger
}

func printUsage(w io.Writer, globals *flag.FlagSet, commands []*Command) {
	_, _ = fmt.Fprintln(w, `tdt - todo.txt manager with a project tree

Usage: tdt [options] [command] [args]

Without a command, tdt opens the interactive view.

Options:`)
	globals.SetOutput(w)
	globals.PrintDefaults()
	globals.SetOutput(&strings.Builder{})

	if len(commands) == 0 {
		return
	}
	_, _ = fmt.Fprintln(w, "\nCommands:")
	for _, c := range commands {
		_, _ = fmt.Fprintln(w, c.HelpLine())
	}
}
