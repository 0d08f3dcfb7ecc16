package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Flag documents one flag of a command. Arg names the flag's value and is
// empty for boolean switches.
type Flag struct {
	Name    string
	Short   string
	Arg     string
	Help    string
	Default string
}

// spec renders the flag as "-j, --jobs N"
func (f Flag) spec() string {
	s := "    --" + f.Name
	if f.Short != "" {
		s = "-" + f.Short + ", --" + f.Name
	}
	if f.Arg != "" {
		s += " " + f.Arg
	}
	return s
}

// Command documents one subcommand. Operand names its positional argument
// and is empty for commands that take none.
type Command struct {
	Name     string
	Operand  string
	Summary  string
	Flags    []Flag
	Examples []string
}

// Synopsis is the one-line invocation of c
func (c Command) Synopsis(tool string) string {
	parts := []string{tool, c.Name}
	if len(c.Flags) > 0 {
		parts = append(parts, "[flags]")
	}
	if c.Operand != "" {
		parts = append(parts, c.Operand)
	}
	return strings.Join(parts, " ")
}

// OperandOf returns the single positional argument of c from args
func (c Command) OperandOf(tool string, args []string) (string, error) {
	switch {
	case len(args) == 0:
		return "", fmt.Errorf("%s %s: missing %s\nusage: %s", tool, c.Name, c.Operand, c.Synopsis(tool))
	case len(args) > 1:
		return "", fmt.Errorf("%s %s: unexpected arguments after %s: %s", tool, c.Name, args[0], strings.Join(args[1:], " "))
	}
	return args[0], nil
}

// Help is the usage text of a tool with subcommands
type Help struct {
	Tool     string
	Summary  string
	Commands []Command
}

// Lookup finds a subcommand by name
func (h Help) Lookup(name string) (Command, bool) {
	for _, c := range h.Commands {
		if c.Name == name {
			return c, true
		}
	}
	return Command{}, false
}

// Write prints the overview listing every command
func (h Help) Write(w io.Writer) {
	fmt.Fprintf(w, "%s: %s\n\nUsage:\n  %s <command> [flags] <file.yaml>\n\nCommands:\n", h.Tool, h.Summary, h.Tool)
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	for _, c := range h.Commands {
		fmt.Fprintf(tw, "  %s\t%s\n", c.Name, c.Summary)
	}
	tw.Flush()
	fmt.Fprintf(w, "\nRun '%s help <command>' for the flags of a command.\n", h.Tool)
}

// WriteCommand prints the synopsis, flags and examples of c
func (h Help) WriteCommand(w io.Writer, c Command) {
	fmt.Fprintf(w, "Usage: %s\n\n%s\n", c.Synopsis(h.Tool), c.Summary)
	if len(c.Flags) > 0 {
		fmt.Fprintf(w, "\nFlags:\n")
		tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
		for _, f := range c.Flags {
			help := f.Help
			if f.Default != "" {
				help += " (default: " + f.Default + ")"
			}
			fmt.Fprintf(tw, "  %s\t%s\n", f.spec(), help)
		}
		tw.Flush()
	}
	if len(c.Examples) > 0 {
		fmt.Fprintf(w, "\nExamples:\n")
		for _, ex := range c.Examples {
			fmt.Fprintf(w, "  %s\n", ex)
		}
	}
}
