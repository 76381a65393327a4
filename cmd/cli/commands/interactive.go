package commands

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// InteractiveCmd creates the interactive command
func InteractiveCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Start an interactive session (load config and credentials once, run multiple commands)",
		Long: `Start an interactive session where you can run multiple commands against the same
storage and spreadsheet clients. The session keeps running until you type 'exit' or 'quit'.

Type 'help' to see available commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "\nStarting interactive session...")
			fmt.Fprintln(out, "Type 'help' for available commands, 'exit' or 'quit' to leave")

			session := newSession(cmd.Parent(), out)
			scanner := bufio.NewScanner(cmd.InOrStdin())

			for {
				fmt.Fprint(out, "> ")
				if !scanner.Scan() {
					break
				}
				if session.execute(scanner.Text()) {
					return nil
				}
			}

			if err := scanner.Err(); err != nil {
				return fmt.Errorf("error reading input: %w", err)
			}
			return nil
		},
	}
}

// session dispatches REPL lines to sibling commands without re-running PersistentPreRunE
type session struct {
	commands map[string]*cobra.Command
	out      io.Writer
}

func newSession(root *cobra.Command, out io.Writer) *session {
	commands := make(map[string]*cobra.Command)
	for _, sub := range root.Commands() {
		switch sub.Name() {
		case "interactive", "completion", "help":
			continue
		}
		commands[sub.Name()] = sub
	}
	return &session{commands: commands, out: out}
}

// execute runs one input line and reports whether the session should end
func (s *session) execute(line string) bool {
	parts, err := parseCommandLine(strings.TrimSpace(line))
	if err != nil {
		fmt.Fprintf(s.out, "✗ Error parsing command: %v\n\n", err)
		return false
	}
	if len(parts) == 0 {
		return false
	}

	name, args := parts[0], parts[1:]
	switch name {
	case "exit", "quit":
		fmt.Fprintln(s.out, "Goodbye!")
		return true
	case "help":
		s.printHelp()
		return false
	}

	target, ok := s.commands[name]
	if !ok {
		fmt.Fprintf(s.out, "✗ Unknown command: %s (type 'help' for available commands)\n\n", name)
		return false
	}

	// Flags keep values between runs unless reset
	target.Flags().VisitAll(func(flag *pflag.Flag) {
		flag.Changed = false
		_ = flag.Value.Set(flag.DefValue)
	})

	if err := target.ParseFlags(args); err != nil {
		fmt.Fprintf(s.out, "✗ Error parsing flags: %v\n\n", err)
		return false
	}
	args = target.Flags().Args()

	if target.Args != nil {
		if err := target.Args(target, args); err != nil {
			fmt.Fprintf(s.out, "✗ Error: %v\n\n", err)
			return false
		}
	}

	target.SetOut(s.out)
	if target.RunE != nil {
		if err := target.RunE(target, args); err != nil {
			fmt.Fprintf(s.out, "✗ Error: %v\n\n", err)
		}
	} else if target.Run != nil {
		target.Run(target, args)
	}
	return false
}

func (s *session) printHelp() {
	fmt.Fprintln(s.out, "\nAvailable commands:")

	names := make([]string, 0, len(s.commands))
	for name := range s.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cmd := s.commands[name]
		fmt.Fprintf(s.out, "  %-30s %s\n", cmd.Use, cmd.Short)
	}

	fmt.Fprintln(s.out, "\n  help                           Show this help message")
	fmt.Fprintln(s.out, "  exit, quit                     Exit the interactive session")
}

// parseCommandLine splits a line into arguments, honouring single and double quotes
func parseCommandLine(line string) ([]string, error) {
	var args []string
	var current strings.Builder
	var inQuote rune
	quoted := false

	for _, r := range line {
		switch {
		case inQuote != 0:
			if r == inQuote {
				inQuote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '"' || r == '\'':
			inQuote = r
			quoted = true
		case unicode.IsSpace(r):
			if current.Len() > 0 || quoted {
				args = append(args, current.String())
				current.Reset()
				quoted = false
			}
		default:
			current.WriteRune(r)
		}
	}

	if inQuote != 0 {
		return nil, fmt.Errorf("unclosed quote: %c", inQuote)
	}
	if current.Len() > 0 || quoted {
		args = append(args, current.String())
	}

	return args, nil
}
