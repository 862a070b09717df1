package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"ledgerkit/internal/tools"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

const usageText = `Usage: ledgerctl <command> [arguments]

Commands:
  tools                      list available tools
  call <tool> [json-args]    run a tool and print its result
  prompt [name] [json-args]  list prompts, or render one
  resource [uri]             list resources, or read one
  events                     print ledger events from AMQP until interrupted
`

type app struct {
	reg    *tools.Registry
	stdout io.Writer
	stderr io.Writer
}

func (a *app) usage(w io.Writer) {
	fmt.Fprint(w, usageText)
}

// run executes one command and returns the process exit code.
func (a *app) run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		a.usage(a.stderr)
		return exitUsage
	}

	switch cmd, rest := args[0], args[1:]; cmd {
	case "tools":
		return a.listTools()
	case "call":
		if len(rest) == 0 || len(rest) > 2 {
			printError(a.stderr, "usage: ledgerctl call <tool> [json-args]")
			return exitUsage
		}
		return a.call(ctx, rest[0], optionalArg(rest, 1))
	case "prompt":
		if len(rest) == 0 {
			return a.listPrompts()
		}
		return a.prompt(ctx, rest[0], optionalArg(rest, 1))
	case "resource":
		if len(rest) == 0 {
			return a.listResources(ctx)
		}
		return a.readResource(ctx, rest[0])
	case "help", "-h", "--help":
		a.usage(a.stdout)
		return exitOK
	default:
		printError(a.stderr, fmt.Sprintf("unknown command %q", cmd))
		a.usage(a.stderr)
		return exitUsage
	}
}

func optionalArg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func (a *app) listTools() int {
	printHeading(a.stdout, "Tools")
	for _, t := range a.reg.Tools() {
		printEntry(a.stdout, t.Name, t.Description)
	}
	return exitOK
}

func (a *app) call(ctx context.Context, name, rawArgs string) int {
	var args json.RawMessage
	if strings.TrimSpace(rawArgs) != "" {
		if !json.Valid([]byte(rawArgs)) {
			printError(a.stderr, "arguments must be valid JSON")
			return exitUsage
		}
		args = json.RawMessage(rawArgs)
	}

	res, err := a.reg.Call(ctx, name, args)
	if res.IsError {
		printError(a.stderr, res.Text())
		if errors.Is(err, tools.ErrUnknownTool) {
			return exitUsage
		}
		return exitError
	}
	fmt.Fprintln(a.stdout, res.Text())
	return exitOK
}

func (a *app) listPrompts() int {
	printHeading(a.stdout, "Prompts")
	for _, p := range a.reg.Prompts() {
		desc := p.Description
		if len(p.Arguments) > 0 {
			names := make([]string, len(p.Arguments))
			for i, arg := range p.Arguments {
				names[i] = arg.Name
			}
			desc += faint.Sprintf(" (%s)", strings.Join(names, ", "))
		}
		printEntry(a.stdout, p.Name, desc)
	}
	return exitOK
}

func (a *app) prompt(ctx context.Context, name, rawArgs string) int {
	var args map[string]string
	if strings.TrimSpace(rawArgs) != "" {
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			printError(a.stderr, "prompt arguments must be a JSON object of strings")
			return exitUsage
		}
	}
	res, err := a.reg.GetPrompt(ctx, name, args)
	if err != nil {
		printError(a.stderr, "Error: "+err.Error())
		if errors.Is(err, tools.ErrUnknownPrompt) {
			return exitUsage
		}
		return exitError
	}
	printHeading(a.stdout, res.Description)
	for _, m := range res.Messages {
		cyan.Fprintf(a.stdout, "[%s]\n", m.Role)
		fmt.Fprintln(a.stdout, m.Content.Text)
	}
	return exitOK
}

func (a *app) listResources(ctx context.Context) int {
	list, err := a.reg.Resources(ctx)
	if err != nil {
		printError(a.stderr, "Error: "+err.Error())
		return exitError
	}
	printHeading(a.stdout, "Resources")
	for _, r := range list {
		printEntry(a.stdout, r.URI, r.Description)
	}
	return exitOK
}

func (a *app) readResource(ctx context.Context, uri string) int {
	contents, err := a.reg.ReadResource(ctx, uri)
	if err != nil {
		printError(a.stderr, "Error: "+err.Error())
		return exitError
	}
	fmt.Fprintln(a.stdout, contents.Text)
	return exitOK
}
