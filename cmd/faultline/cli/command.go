// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

// Command is a node in the faultline command tree. A command either
// runs (Run) or dispatches to one of its Subcommands by the first
// positional argument.
type Command struct {
	// Name is the word typed to select the command (e.g., "check").
	Name string

	// Summary is the one-line description in the parent's command list.
	Summary string

	// Description is the longer text at the top of the command's own
	// help. Summary is used when it is empty.
	Description string

	// Usage overrides the synthesized usage line.
	Usage string

	// Examples are listed at the end of the help output.
	Examples []Example

	// Flags builds the command's flag set. It is called for every
	// parse and every help rendering, so it must return a fresh set.
	// Nil means the command takes no flags.
	Flags func() *pflag.FlagSet

	Subcommands []*Command

	// Run receives the positional arguments left after flag parsing.
	// When Subcommands is also set, Run handles invocations that start
	// with a flag.
	Run func(args []string) error

	// Output receives help text. Subcommands inherit it from their
	// parent; the root defaults to os.Stderr.
	Output io.Writer

	parent *Command
}

// Example is a command line shown in help output.
type Example struct {
	Description string
	Command     string
}

// Execute parses args and runs the selected command.
func (c *Command) Execute(args []string) error {
	switch {
	case len(args) > 0 && isHelpFlag(args[0]):
		c.PrintHelp(c.output())
		return nil
	case len(c.Subcommands) > 0 && len(args) > 0 && !strings.HasPrefix(args[0], "-"):
		return c.dispatch(args[0], args[1:])
	case len(c.Subcommands) > 0 && c.Run == nil:
		c.PrintHelp(c.output())
		if len(args) == 0 {
			return errors.New("subcommand required")
		}
		return fmt.Errorf("subcommand required (got flag %q)", args[0])
	}

	positional, err := c.parseFlags(args)
	if err != nil {
		return err
	}
	if c.Run == nil {
		c.PrintHelp(c.output())
		return fmt.Errorf("no action defined for %q", c.fullName())
	}
	return c.Run(positional)
}

func (c *Command) dispatch(name string, args []string) error {
	for _, sub := range c.Subcommands {
		if sub.Name == name {
			sub.parent = c
			return sub.Execute(args)
		}
	}
	if suggestion := suggestCommand(name, c.Subcommands); suggestion != "" {
		return c.usageError("unknown command %q (did you mean %q?)", name, suggestion)
	}
	return c.usageError("unknown command %q", name)
}

// parseFlags returns the positional arguments. Parse errors for
// unknown flags carry the closest defined flag.
func (c *Command) parseFlags(args []string) ([]string, error) {
	if c.Flags == nil {
		return args, nil
	}
	flagSet := c.Flags()
	flagSet.SetOutput(io.Discard)
	err := flagSet.Parse(args)
	if err == nil {
		return flagSet.Args(), nil
	}

	message := err.Error()
	if strings.HasPrefix(message, "unknown flag") || strings.HasPrefix(message, "unknown shorthand flag") {
		// The failed parse may have set values; suggest from a fresh set.
		if suggestion := suggestFlag(args, c.Flags()); suggestion != "" {
			return nil, c.usageError("%s (did you mean %s?)", message, suggestion)
		}
	}
	return nil, c.usageError("%s", message)
}

func (c *Command) usageError(format string, args ...any) error {
	return fmt.Errorf("%s\n\nRun '%s --help' for usage.", fmt.Sprintf(format, args...), c.fullName())
}

// PrintHelp writes the command's help to w.
func (c *Command) PrintHelp(w io.Writer) {
	switch {
	case c.Description != "":
		fmt.Fprintf(w, "%s\n\n", c.Description)
	case c.Summary != "":
		fmt.Fprintf(w, "%s\n\n", c.Summary)
	}
	fmt.Fprintf(w, "Usage:\n  %s\n", c.usageLine())
	c.writeCommands(w)
	c.writeFlags(w)
	c.writeExamples(w)
	if len(c.Subcommands) > 0 {
		fmt.Fprintf(w, "\nRun '%s <command> --help' for more information on a command.\n", c.fullName())
	}
}

func (c *Command) usageLine() string {
	switch {
	case c.Usage != "":
		return c.Usage
	case len(c.Subcommands) > 0:
		return c.fullName() + " <command> [flags]"
	default:
		return c.fullName() + " [flags]"
	}
}

func (c *Command) writeCommands(w io.Writer) {
	if len(c.Subcommands) == 0 {
		return
	}
	fmt.Fprintf(w, "\nCommands:\n")
	table := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
	for _, sub := range c.Subcommands {
		fmt.Fprintf(table, "  %s\t%s\n", sub.Name, sub.Summary)
	}
	table.Flush()
}

func (c *Command) writeFlags(w io.Writer) {
	if c.Flags == nil {
		return
	}
	if usage := c.Flags().FlagUsages(); usage != "" {
		fmt.Fprintf(w, "\nFlags:\n%s", usage)
	}
}

func (c *Command) writeExamples(w io.Writer) {
	if len(c.Examples) == 0 {
		return
	}
	fmt.Fprintf(w, "\nExamples:\n")
	for _, example := range c.Examples {
		if example.Description == "" {
			fmt.Fprintf(w, "  %s\n", example.Command)
			continue
		}
		fmt.Fprintf(w, "  # %s\n  %s\n\n", example.Description, example.Command)
	}
}

// fullName is the command path from the root, e.g. "faultline show".
func (c *Command) fullName() string {
	if c.parent == nil {
		return c.Name
	}
	return c.parent.fullName() + " " + c.Name
}

func (c *Command) output() io.Writer {
	for command := c; command != nil; command = command.parent {
		if command.Output != nil {
			return command.Output
		}
	}
	return os.Stderr
}

func isHelpFlag(arg string) bool {
	switch arg {
	case "-h", "--help", "help":
		return true
	}
	return false
}
