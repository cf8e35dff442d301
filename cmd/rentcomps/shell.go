package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"rentcomps/internal/query"
	"rentcomps/internal/session"
)

var shellCommands = []string{
	"edit", "set", "sortby", "submit", "cancel", "reset", "form",
	"page", "next", "prev", "sort", "show", "status", "query",
	"help", "quit", "exit",
}

// shell maps typed commands onto session gestures. Fetching commands block
// until their request settles and then print the table.
type shell struct {
	sess *session.Session
	out  io.Writer
}

func newShell(sess *session.Session, out io.Writer) *shell {
	return &shell{sess: sess, out: out}
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".rentcomps_history")
}

func (s *shell) runInteractive(ctx context.Context) error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(completer)

	if f, err := os.Open(historyFile()); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if path := historyFile(); path != "" {
			if f, err := os.Create(path); err == nil {
				line.WriteHistory(f)
				f.Close()
			}
		}
	}()

	fmt.Fprintln(s.out, "RentComps - rental listing history")
	fmt.Fprintln(s.out, "The search form is open. Use 'set <field> <value>', 'sortby <key>', then 'submit'. Type 'help' for commands.")
	df, dk := s.draft()
	renderDraft(s.out, df, dk)

	for {
		if ctx.Err() != nil {
			return nil
		}

		input, err := line.Prompt(s.prompt())
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(s.out, "\nBye!")
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if s.exec(ctx, input) {
			fmt.Fprintln(s.out, "Bye!")
			return nil
		}
	}
}

// runScript executes one command per line. Blank lines and lines starting
// with '#' are skipped.
func (s *shell) runScript(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" || strings.HasPrefix(input, "#") {
			continue
		}
		if s.exec(ctx, input) {
			return nil
		}
	}
	return scanner.Err()
}

func (s *shell) prompt() string {
	if s.sess.EditorOpen() {
		return "rentcomps [form]> "
	}
	return "rentcomps> "
}

func (s *shell) draft() (query.FilterSet, query.SortKey) {
	return s.sess.Draft()
}

// exec runs one command line and reports whether the shell should exit.
func (s *shell) exec(ctx context.Context, input string) bool {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "quit", "exit", "q":
		return true

	case "help", "?":
		s.printHelp()

	case "edit", "search":
		s.sess.OpenEditor()
		df, dk := s.draft()
		renderDraft(s.out, df, dk)

	case "form", "draft":
		df, dk := s.draft()
		renderDraft(s.out, df, dk)

	case "set":
		s.cmdSet(args)

	case "sortby":
		s.cmdSortBy(args)

	case "submit":
		s.cmdSubmit(ctx)

	case "cancel":
		if !s.requireEditor() {
			return false
		}
		s.sess.Cancel()
		fmt.Fprintln(s.out, "Search form closed; edits discarded.")

	case "reset":
		if !s.requireEditor() {
			return false
		}
		s.sess.ResetDraft()
		df, dk := s.draft()
		renderDraft(s.out, df, dk)

	case "page":
		s.cmdPage(ctx, args)

	case "next":
		s.settle(s.sess.NextPage(ctx))

	case "prev":
		s.settle(s.sess.PrevPage(ctx))

	case "sort":
		s.cmdSort(ctx, args)

	case "show":
		renderTable(s.out, s.sess.View())

	case "status":
		renderStatus(s.out, s.sess.View(), s.sess.EditorOpen())

	case "query":
		if q := s.sess.View().Query; q != "" {
			fmt.Fprintln(s.out, q)
		} else {
			fmt.Fprintln(s.out, "No search issued yet.")
		}

	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (s *shell) requireEditor() bool {
	if s.sess.EditorOpen() {
		return true
	}
	fmt.Fprintln(s.out, "The search form is closed; open it with 'edit'.")
	return false
}

func (s *shell) cmdSet(args []string) {
	if !s.requireEditor() {
		return
	}
	if len(args) < 1 {
		fmt.Fprintln(s.out, "Usage: set <field> [value]")
		return
	}
	value := strings.Join(args[1:], " ")
	if err := s.sess.SetField(args[0], value); err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
	}
}

func (s *shell) cmdSortBy(args []string) {
	if !s.requireEditor() {
		return
	}
	if len(args) != 1 {
		fmt.Fprintln(s.out, "Usage: sortby <beds|baths|price|date_updated>")
		return
	}
	if err := s.sess.SetSortKey(args[0]); err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
	}
}

func (s *shell) cmdSubmit(ctx context.Context) {
	if !s.requireEditor() {
		return
	}
	s.settle(s.sess.Submit(ctx), nil)
}

func (s *shell) cmdPage(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "Usage: page <n>")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		fmt.Fprintf(s.out, "Error: page must be a positive number, got %q\n", args[0])
		return
	}
	s.settle(s.sess.ChangePage(ctx, n-1))
}

func (s *shell) cmdSort(ctx context.Context, args []string) {
	if len(args) < 1 || len(args) > 2 {
		fmt.Fprintln(s.out, "Usage: sort <beds|baths|price|date_updated> [asc|desc]")
		return
	}
	descending := true
	if len(args) == 2 {
		switch strings.ToLower(args[1]) {
		case "asc":
			descending = false
		case "desc":
		default:
			fmt.Fprintf(s.out, "Error: direction must be asc or desc, got %q\n", args[1])
			return
		}
	}
	s.settle(s.sess.ChangeSort(ctx, args[0], descending))
}

// settle waits for a request to finish and prints the result.
func (s *shell) settle(done <-chan struct{}, err error) {
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	<-done
	renderTable(s.out, s.sess.View())
}

func completer(line string) []string {
	lower := strings.ToLower(line)

	if rest, ok := strings.CutPrefix(lower, "set "); ok {
		var out []string
		for _, name := range query.FilterNames() {
			if strings.HasPrefix(name.String(), rest) {
				out = append(out, "set "+name.String()+" ")
			}
		}
		return out
	}
	for _, prefix := range []string{"sortby ", "sort "} {
		if rest, ok := strings.CutPrefix(lower, prefix); ok {
			var out []string
			for _, key := range query.SortKeys() {
				if strings.HasPrefix(string(key), rest) {
					out = append(out, prefix+string(key))
				}
			}
			return out
		}
	}

	var completions []string
	for _, cmd := range shellCommands {
		if strings.HasPrefix(cmd, lower) {
			completions = append(completions, cmd)
		}
	}
	return completions
}

func (s *shell) printHelp() {
	fmt.Fprintln(s.out, "Search form:")
	fmt.Fprintln(s.out, "  edit                        Open the search form with the current search")
	fmt.Fprintln(s.out, "  set <field> [value]         Set city, state, zip_code, beds, baths or street_address")
	fmt.Fprintln(s.out, "  sortby <key>                Sort by beds, baths, price or date_updated (newest first)")
	fmt.Fprintln(s.out, "  form                        Show the form values")
	fmt.Fprintln(s.out, "  reset                       Restore the form defaults")
	fmt.Fprintln(s.out, "  submit                      Run the search and close the form")
	fmt.Fprintln(s.out, "  cancel                      Close the form, discarding edits")
	fmt.Fprintln(s.out, "Results:")
	fmt.Fprintln(s.out, "  show                        Print the current page")
	fmt.Fprintln(s.out, "  page <n> / next / prev      Change page")
	fmt.Fprintln(s.out, "  sort <key> [asc|desc]       Re-sort the results")
	fmt.Fprintln(s.out, "  status                      Show page, sort and last error")
	fmt.Fprintln(s.out, "  query                       Print the last query string")
	fmt.Fprintln(s.out, "  help                        Show this help")
	fmt.Fprintln(s.out, "  quit / exit / q             Exit")
}
