// Package tools exposes the ledger to a conversational agent as named tools,
// prompts and resources. Every tool takes JSON arguments and returns text
// content; a failing tool yields an error result rather than a Go error.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"ledgerkit/internal/core"
	"ledgerkit/internal/ledger"
	"ledgerkit/internal/log"
	"ledgerkit/internal/services"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnknownTool     = errors.New("unknown tool")
	ErrUnknownPrompt   = errors.New("unknown prompt")
	ErrUnknownResource = errors.New("unknown resource")
)

const (
	defaultSummaryMonths = 3
	defaultHistoryMonths = 12
)

type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type Result struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

func textResult(text string) Result {
	return Result{Content: []Content{{Type: "text", Text: text}}}
}

func jsonResult(v any) (Result, error) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return Result{}, fmt.Errorf("encode result: %w", err)
	}
	return textResult(string(raw)), nil
}

// ErrorResult wraps err the way tool failures are reported to the agent.
func ErrorResult(err error) Result {
	return Result{Content: []Content{{Type: "text", Text: "Error: " + err.Error()}}, IsError: true}
}

// Text joins the text content of a result.
func (r Result) Text() string {
	parts := make([]string, len(r.Content))
	for i, c := range r.Content {
		parts[i] = c.Text
	}
	return strings.Join(parts, "\n")
}

type Handler func(ctx context.Context, args json.RawMessage) (Result, error)

type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema Schema `json:"inputSchema"`
	handler     Handler
}

// Deps carries what the registry needs. Ledger serves reads; Service
// performs mutations and may be nil for a read-only registry.
type Deps struct {
	Ledger               ledger.Reader
	Service              *services.LedgerService
	Logger               *log.Logger
	Now                  func() time.Time
	DefaultSummaryMonths int
	DefaultHistoryMonths int
}

type Registry struct {
	ledger        ledger.Reader
	service       *services.LedgerService
	log           *log.StructuredLogger
	now           func() time.Time
	summaryMonths int
	historyMonths int

	tools   map[string]Tool
	prompts map[string]Prompt
}

func New(d Deps) *Registry {
	if d.Logger == nil {
		d.Logger = log.Discard()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.DefaultSummaryMonths <= 0 {
		d.DefaultSummaryMonths = defaultSummaryMonths
	}
	if d.DefaultHistoryMonths <= 0 {
		d.DefaultHistoryMonths = defaultHistoryMonths
	}

	r := &Registry{
		ledger:        d.Ledger,
		service:       d.Service,
		log:           log.NewStructuredLogger(d.Logger),
		now:           d.Now,
		summaryMonths: d.DefaultSummaryMonths,
		historyMonths: d.DefaultHistoryMonths,
		tools:         make(map[string]Tool),
		prompts:       make(map[string]Prompt),
	}
	r.registerReports()
	if d.Service != nil {
		r.registerMutations()
	}
	r.registerPrompts()
	return r
}

func (r *Registry) register(t Tool) {
	if _, dup := r.tools[t.Name]; dup {
		panic("tools: duplicate tool " + t.Name)
	}
	r.tools[t.Name] = t
}

// Tools lists the registered tools by name.
func (r *Registry) Tools() []Tool {
	out := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Call runs a tool. Handler failures come back as error results; the
// returned error is ErrUnknownTool only.
func (r *Registry) Call(ctx context.Context, name string, args json.RawMessage) (Result, error) {
	t, ok := r.tools[name]
	if !ok {
		unknown := Result{Content: []Content{{Type: "text", Text: "Error: Unknown tool " + name}}, IsError: true}
		return unknown, fmt.Errorf("%s: %w", name, ErrUnknownTool)
	}
	if len(args) == 0 || string(args) == "null" {
		args = json.RawMessage("{}")
	}

	start := time.Now()
	res, err := t.handler(ctx, args)
	if err != nil {
		res = ErrorResult(err)
		if !errors.Is(err, ErrInvalidInput) {
			r.log.LogError(ctx, "Tool call failed", err, log.ComponentTools, log.OpCall,
				log.NewFields().WithTool(name))
		}
	}
	r.log.LogToolCall(ctx, name, time.Since(start), res.IsError)
	return res, nil
}

func (r *Registry) today() core.Date {
	return core.DateOf(r.now())
}
