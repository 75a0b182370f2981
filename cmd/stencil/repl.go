package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"github.com/vango-dev/stencil/internal/dev"
	"github.com/vango-dev/stencil/pkg/dom"
)

const (
	historyFile = ".stencil_history"
	prompt      = "stencil> "
)

const replHelp = `Expressions are evaluated against the instance; assignments re-render.

  :html              print the mounted markup
  :pretty            print the mounted markup, indented
  :state             print the instance data
  :click <sel>       click the first element matching sel
  :fire <ev> <sel> [json]
                     dispatch ev to sel with an optional detail
  :flush             run a deferred pass
  :reload            re-read the template file
  :help              show this help
  :quit              exit
`

func replCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Evaluate expressions against a mounted template",
		Long: `Mount a template and read expressions from the terminal.

Every line is evaluated against the instance. The host mutations of
the pass it caused, if any, are printed below the result.

Examples:
  stencil repl -t counter.html
  stencil> count = 4
  stencil> :click button`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(flags)
			if err != nil {
				return err
			}
			s, err := p.session(nil)
			if err != nil {
				return err
			}
			defer s.Close()
			return runRepl(p, s)
		},
	}
}

func runRepl(p *project, s *dev.Session) error {
	fmt.Print(banner)
	fmt.Printf("  %s (:help for commands)\n\n", p.templatePath)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		ln.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			ln.WriteHistory(f)
			f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	r := &repl{out: os.Stdout, session: s, project: p, color: isatty.IsTerminal(os.Stdout.Fd())}
	for {
		line, err := ln.Prompt(prompt)
		if err != nil {
			fmt.Println()
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ln.AppendHistory(line)
		if !r.exec(line) {
			return nil
		}
	}
}

// repl executes single lines. It is separate from the terminal loop so it
// can run against any writer.
type repl struct {
	out     io.Writer
	session *dev.Session
	project *project
	color   bool
}

func (r *repl) paint(code, s string) string {
	if !r.color {
		return s
	}
	return code + s + "\033[0m"
}

// exec runs one line and reports whether the loop should continue.
func (r *repl) exec(line string) bool {
	if !strings.HasPrefix(line, ":") {
		v, muts, err := r.session.Eval(line)
		if err != nil {
			r.fail(err)
			return true
		}
		fmt.Fprintln(r.out, r.paint("\033[36m", formatValue(v)))
		r.mutations(muts)
		return true
	}

	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	switch cmd {
	case ":quit", ":q", ":exit":
		return false
	case ":help":
		fmt.Fprint(r.out, replHelp)
	case ":html", ":pretty":
		html, err := r.session.HTML(cmd == ":pretty")
		if err != nil {
			r.fail(err)
			break
		}
		fmt.Fprintln(r.out, html)
	case ":state":
		data, _ := json.MarshalIndent(r.session.Data(), "", "  ")
		fmt.Fprintln(r.out, string(data))
	case ":click":
		r.fire("click", rest, "")
	case ":fire":
		fields := strings.SplitN(rest, " ", 3)
		if len(fields) < 2 {
			fmt.Fprintln(r.out, "usage: :fire <event> <selector> [json]")
			break
		}
		detail := ""
		if len(fields) == 3 {
			detail = fields[2]
		}
		r.fire(fields[0], fields[1], detail)
	case ":flush":
		muts, err := r.session.Flush()
		if err != nil {
			r.fail(err)
		}
		r.mutations(muts)
	case ":reload":
		src, err := os.ReadFile(r.project.templatePath)
		if err != nil {
			r.fail(err)
			break
		}
		muts, err := r.session.Reload(string(src))
		if err != nil {
			r.fail(err)
			break
		}
		r.mutations(muts)
	default:
		fmt.Fprintf(r.out, "unknown command %s. Type :help for a list.\n", cmd)
	}
	return true
}

func (r *repl) fire(event, selector, detail string) {
	if selector == "" {
		fmt.Fprintln(r.out, "missing selector")
		return
	}
	var d any
	if detail != "" {
		if err := json.Unmarshal([]byte(detail), &d); err != nil {
			r.fail(err)
			return
		}
	}
	muts, err := r.session.Dispatch(selector, event, d)
	if err != nil {
		r.fail(err)
	}
	r.mutations(muts)
}

func (r *repl) mutations(muts []dom.Mutation) {
	for _, m := range muts {
		fmt.Fprintln(r.out, r.paint("\033[90m", "  "+m.String()))
	}
}

func (r *repl) fail(err error) {
	fmt.Fprintln(r.out, r.paint("\033[31m", err.Error()))
}

// formatValue prints strings quoted and maps with sorted keys.
func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", v)
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + formatValue(v[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case []any:
		parts := make([]string, len(v))
		for i, e := range v {
			parts[i] = formatValue(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return fmt.Sprint(v)
}
