package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	flag "github.com/spf13/pflag"
)

// Command is one tdt subcommand: its flags, help text and handler.
type Command struct {
	Flags *flag.FlagSet

	// Usage follows "tdt" in help, e.g. "rm <id>". Its first word is the name.
	Usage string

	// Aliases are alternative names accepted on the command line.
	Aliases []string

	Short string
	Long  string

	// Examples are full command lines shown under the description.
	Examples []string

	Exec func(ctx context.Context, o *IO, args []string) error
}

// Name returns the command name.
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")
	return name
}

// Matches reports whether name selects this command.
func (c *Command) Matches(name string) bool {
	return name == c.Name() || slices.Contains(c.Aliases, name)
}

// HelpLine is the command's row in "tdt --help".
func (c *Command) HelpLine() string {
	line := fmt.Sprintf("  %-26s %s", c.Usage, c.Short)
	if len(c.Aliases) > 0 {
		line += " (" + strings.Join(c.Aliases, ", ") + ")"
	}
	return line
}

// PrintHelp prints "tdt <cmd> --help".
func (c *Command) PrintHelp(o *IO) {
	o.Println("Usage: tdt [options]", c.Usage)
	if len(c.Aliases) > 0 {
		o.Println("Aliases:", strings.Join(c.Aliases, ", "))
	}
	o.Println()

	desc := c.Long
	if desc == "" {
		desc = c.Short
	}
	o.Println(desc)

	if c.Flags != nil && c.Flags.HasFlags() {
		o.Println()
		o.Println("Flags:")

		var buf strings.Builder
		c.Flags.SetOutput(&buf)
		c.Flags.PrintDefaults()
		o.Printf("%s", buf.String())
	}

	if len(c.Examples) > 0 {
		o.Println()
		o.Println("Examples:")
		for _, ex := range c.Examples {
			o.Println("  " + ex)
		}
	}

	o.Println()
	o.Println(`Run "tdt --help" for global options such as --file and --config.`)
}

// Run parses flags and executes the command. Returns exit code.
func (c *Command) Run(ctx context.Context, o *IO, args []string) int {
	c.Flags.SetOutput(&strings.Builder{})

	if err := c.Flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			c.PrintHelp(o)
			return 0
		}
		o.ErrPrintln("error:", err)
		o.ErrPrintln(`Run "tdt ` + c.Name() + ` --help" for usage.`)
		return 1
	}

	if err := c.Exec(ctx, o, c.Flags.Args()); err != nil {
		o.ErrPrintln("error:", err)
		if isUsageError(err) {
			o.ErrPrintln("Usage: tdt", c.Usage)
		}
		return 1
	}

	return 0
}

// findCommand returns the command selected by name, or nil.
func findCommand(commands []*Command, name string) *Command {
	for _, c := range commands {
		if c.Matches(name) {
			return c
		}
	}
	return nil
}
