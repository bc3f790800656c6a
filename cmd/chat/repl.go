package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"artemis/client"
)

const replHelp = `Commands:
  /report <path>  load a plain-text report
  /analyze        analyze the loaded report
  /reset          clear the conversation (keeps the report)
  /quit           exit
Anything else is sent as a question.`

func newREPLCommand(a *app) *cobra.Command {
	var reportPath string
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Chat in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			r := &repl{
				builder: a.builder(),
				session: client.NewSession(),
				out:     cmd.OutOrStdout(),
			}
			if reportPath != "" {
				r.loadReport(reportPath)
			}
			return r.run(cmd.Context(), cmd.InOrStdin())
		},
	}
	cmd.Flags().StringVarP(&reportPath, "report", "r", "", "Report file to load on start")
	return cmd
}

type repl struct {
	builder *client.Builder
	session *client.Session
	out     io.Writer
}

var (
	promptColor = color.New(color.FgGreen, color.Bold)
	replyColor  = color.New(color.FgCyan)
	errorColor  = color.New(color.FgRed)
	infoColor   = color.New(color.FgYellow)
)

func (r *repl) run(ctx context.Context, in io.Reader) error {
	fmt.Fprintln(r.out, replHelp)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), client.MaxReportBytes)
	for {
		promptColor.Fprint(r.out, "you> ")
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}
		if quit := r.handle(ctx, strings.TrimSpace(scanner.Text())); quit {
			return nil
		}
	}
}

// handle runs one input line and reports whether the loop should stop.
// Failures are printed and the loop goes on.
func (r *repl) handle(ctx context.Context, line string) bool {
	cmd, arg, _ := strings.Cut(line, " ")
	switch cmd {
	case "":
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Fprintln(r.out, replHelp)
	case "/report":
		r.loadReport(strings.TrimSpace(arg))
	case "/analyze":
		reply, err := r.builder.Analyze(ctx, r.session)
		r.print(reply, err)
	case "/reset":
		r.builder.Reset(r.session)
		infoColor.Fprintln(r.out, "Chat history has been reset!")
	default:
		reply, err := r.builder.Ask(ctx, r.session, line)
		r.print(reply, err)
	}
	return false
}

func (r *repl) loadReport(path string) {
	if path == "" {
		errorColor.Fprintln(r.out, "usage: /report <path>")
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		errorColor.Fprintf(r.out, "Failed to read report: %v\n", err)
		return
	}
	text, err := client.ReportText(path, data)
	if err == nil {
		err = r.builder.SetReport(r.session, text)
	}
	if err != nil {
		errorColor.Fprintf(r.out, "Report rejected: %v\n", err)
		return
	}
	infoColor.Fprintln(r.out, "Report uploaded!")
}

func (r *repl) print(reply string, err error) {
	if err != nil {
		if errors.Is(err, client.ErrNoReport) {
			errorColor.Fprintln(r.out, "Upload a report first: /report <path>")
			return
		}
		errorColor.Fprintf(r.out, "Failed to contact MCP server: %v\n", err)
		return
	}
	replyColor.Fprintln(r.out, reply)
}
