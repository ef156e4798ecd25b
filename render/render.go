// Copyright (c) Microsoft. All rights reserved.

// Package render prints agent conversations to a terminal.
//
// A [Printer] formats messages with their citations resolved, run status
// changes, run steps, token usage and streamed text. Output is styled with
// lipgloss unless the printer is plain.
package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	af "github.com/azure-ai-foundry/foundry-samples/go/agentframework"
	"github.com/azure-ai-foundry/foundry-samples/go/agents"
)

const (
	colorPrimary = "12"
	colorUser    = "14"
	colorAgent   = "10"
	colorError   = "9"
	colorWarning = "11"
	colorSubtle  = "8"
)

// timeLayout formats message timestamps.
const timeLayout = "2006-01-02 15:04:05"

type styles struct {
	banner  lipgloss.Style
	user    lipgloss.Style
	agent   lipgloss.Style
	label   lipgloss.Style
	subtle  lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
}

func newStyles(plain bool) styles {
	if plain {
		s := lipgloss.NewStyle()
		return styles{s, s, s, s, s, s, s, s}
	}
	return styles{
		banner:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorPrimary)),
		user:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorUser)),
		agent:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorAgent)),
		label:   lipgloss.NewStyle().Bold(true),
		subtle:  lipgloss.NewStyle().Foreground(lipgloss.Color(colorSubtle)),
		success: lipgloss.NewStyle().Foreground(lipgloss.Color(colorAgent)),
		warning: lipgloss.NewStyle().Foreground(lipgloss.Color(colorWarning)),
		failure: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorError)),
	}
}

// Printer writes formatted output to w. It is not safe for concurrent use.
type Printer struct {
	w         io.Writer
	plain     bool
	fileNames map[string]string
	loc       *time.Location
	st        styles

	// streaming tracks whether a streamed message line is open.
	streaming bool
}

// Option configures a [Printer].
type Option func(*Printer)

// WithPlain disables styling.
func WithPlain() Option {
	return func(p *Printer) { p.plain = true }
}

// WithFileNames maps file IDs to display names for citations.
func WithFileNames(names map[string]string) Option {
	return func(p *Printer) { p.fileNames = names }
}

// WithLocation sets the time zone of printed timestamps. Defaults to UTC.
func WithLocation(loc *time.Location) Option {
	return func(p *Printer) { p.loc = loc }
}

// New returns a printer writing to w.
func New(w io.Writer, opts ...Option) *Printer {
	p := &Printer{w: w, loc: time.UTC}
	for _, o := range opts {
		o(p)
	}
	p.st = newStyles(p.plain)
	return p
}

// AddFileName registers a display name used when citing id.
func (p *Printer) AddFileName(id, name string) {
	if p.fileNames == nil {
		p.fileNames = make(map[string]string)
	}
	p.fileNames[id] = name
}

// Banner prints a section heading.
func (p *Printer) Banner(title string) {
	p.endStream()
	rule := strings.Repeat("=", max(len(title), 20))
	fmt.Fprintln(p.w, p.st.banner.Render(rule))
	fmt.Fprintln(p.w, p.st.banner.Render(title))
	fmt.Fprintln(p.w, p.st.banner.Render(rule))
}

// Prompt echoes the user's input.
func (p *Printer) Prompt(text string) {
	p.endStream()
	fmt.Fprintf(p.w, "%s %s\n", p.st.user.Render("User:"), text)
}

// Info prints a labelled value.
func (p *Printer) Info(label, value string) {
	p.endStream()
	fmt.Fprintf(p.w, "%s %s\n", p.st.label.Render(label+":"), value)
}

// Error prints err.
func (p *Printer) Error(err error) {
	p.endStream()
	fmt.Fprintf(p.w, "%s %v\n", p.st.failure.Render("Error:"), err)
}

// Status prints the run's current status.
func (p *Printer) Status(run *agents.Run) {
	if run == nil {
		return
	}
	p.endStream()
	fmt.Fprintf(p.w, "%s %s\n", p.st.subtle.Render("Run status:"), p.statusStyle(run.Status).Render(string(run.Status)))
	if run.Status == agents.RunStatusFailed && run.LastError != nil {
		fmt.Fprintf(p.w, "%s %s (%s)\n", p.st.failure.Render("Run failed:"), run.LastError.Message, run.LastError.Code)
	}
}

func (p *Printer) statusStyle(s agents.RunStatus) lipgloss.Style {
	switch s {
	case agents.RunStatusCompleted:
		return p.st.success
	case agents.RunStatusFailed, agents.RunStatusExpired:
		return p.st.failure
	case agents.RunStatusCancelled, agents.RunStatusCancelling, agents.RunStatusIncomplete, agents.RunStatusRequiresAction:
		return p.st.warning
	}
	return p.st.subtle
}

// Usage prints a token usage table. Nil usage prints nothing.
func (p *Printer) Usage(u *af.UsageDetails) {
	if u == nil {
		return
	}
	p.endStream()
	rows := [][2]string{
		{"Prompt tokens", fmt.Sprint(u.InputTokens)},
		{"Completion tokens", fmt.Sprint(u.OutputTokens)},
		{"Total tokens", fmt.Sprint(u.TotalTokens)},
	}
	label := p.st.label.Width(18)
	for _, r := range rows {
		fmt.Fprintf(p.w, "%s %8s\n", label.Render(r[0]), r[1])
	}
}

// Table prints rows under a header with columns padded to their widest cell.
func (p *Printer) Table(header []string, rows [][]string) {
	p.endStream()
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, r := range rows {
		for i := range min(len(r), len(widths)) {
			widths[i] = max(widths[i], lipgloss.Width(r[i]))
		}
	}
	line := func(cells []string, style lipgloss.Style) string {
		out := make([]string, len(widths))
		for i := range widths {
			var c string
			if i < len(cells) {
				c = cells[i]
			}
			if i < len(widths)-1 {
				out[i] = style.Width(widths[i] + 2).Render(c)
			} else {
				out[i] = style.Render(c)
			}
		}
		return strings.TrimRight(strings.Join(out, ""), " ")
	}
	fmt.Fprintln(p.w, line(header, p.st.label))
	for _, r := range rows {
		fmt.Fprintln(p.w, line(r, lipgloss.NewStyle()))
	}
}

// Message prints one thread message with its content blocks.
func (p *Printer) Message(m *agents.ThreadMessage) {
	p.endStream()
	role := p.st.agent
	if m.Role == agents.MessageRoleUser {
		role = p.st.user
	}
	ts := m.CreatedAt.Time().In(p.loc).Format(timeLayout)
	fmt.Fprintf(p.w, "%s %s\n", p.st.subtle.Render(ts), role.Render(string(m.Role)+":"))
	for _, c := range m.Content {
		fmt.Fprintln(p.w, p.content(c))
	}
}

// Messages prints msgs in order.
func (p *Printer) Messages(msgs []agents.ThreadMessage) {
	for i := range msgs {
		p.Message(&msgs[i])
	}
}

func (p *Printer) content(c agents.MessageContent) string {
	switch c := c.(type) {
	case *agents.TextContent:
		return agents.ResolveCitations(c.Value, c.Annotations, p.fileNames)
	case *agents.ImageFileContent:
		return p.st.subtle.Render(fmt.Sprintf("[image file: %s]", c.FileID))
	case *agents.ImageURLContent:
		return p.st.subtle.Render(fmt.Sprintf("[image: %s]", c.URL))
	default:
		return p.st.subtle.Render(fmt.Sprintf("[%s content]", c.ContentType()))
	}
}

// RunStep prints what a run step did.
func (p *Printer) RunStep(step *agents.RunStep) {
	p.endStream()
	fmt.Fprintf(p.w, "%s %s (%s, %s)\n", p.st.label.Render("Step"), step.ID, step.Type, step.Status)
	d := step.StepDetails
	if d.MessageCreation != nil {
		fmt.Fprintf(p.w, "  created message %s\n", d.MessageCreation.MessageID)
	}
	for _, tc := range d.ToolCalls {
		fmt.Fprintf(p.w, "  %s\n", p.toolCall(tc))
	}
	if step.LastError != nil {
		fmt.Fprintf(p.w, "  %s %s\n", p.st.failure.Render("error:"), step.LastError.Message)
	}
}

func (p *Printer) toolCall(tc agents.RunStepToolCall) string {
	switch {
	case tc.Function != nil:
		s := fmt.Sprintf("function %s(%s)", tc.Function.Name, tc.Function.Arguments)
		if tc.Function.Output != nil {
			s += " -> " + *tc.Function.Output
		}
		return s
	case tc.CodeInterpreter != nil:
		return fmt.Sprintf("code_interpreter: %s", tc.CodeInterpreter.Input)
	case tc.BingGrounding != nil:
		if q, ok := tc.BingGrounding["requesturl"]; ok {
			return "bing_grounding: " + q
		}
		return "bing_grounding"
	case tc.AzureAISearch != nil:
		if q, ok := tc.AzureAISearch["input"]; ok {
			return "azure_ai_search: " + q
		}
		return "azure_ai_search"
	}
	return tc.Type
}

// Event prints a stream event. Message deltas are written inline and the
// line is closed when the message completes; run status changes are shown
// as status lines and usage is printed when the run completes.
func (p *Printer) Event(ev agents.StreamEvent) {
	switch ev := ev.(type) {
	case *agents.MessageDeltaEvent:
		p.Delta(ev.Text())
	case *agents.MessageEvent:
		if ev.Event == agents.EventMessageCompleted {
			p.endStream()
		}
	case *agents.RunEvent:
		switch ev.Event {
		case agents.EventRunCreated, agents.EventRunQueued, agents.EventRunInProgress:
		default:
			p.Status(&ev.Run)
			if ev.Event == agents.EventRunCompleted {
				p.Usage(ev.Run.Usage)
			}
		}
	case *agents.ErrorEvent:
		p.Error(ev.Err)
	}
}

// Delta writes streamed text without a trailing newline. The first delta
// of a message is prefixed with the agent label.
func (p *Printer) Delta(text string) {
	if text == "" {
		return
	}
	if !p.streaming {
		fmt.Fprintf(p.w, "%s ", p.st.agent.Render("Agent:"))
		p.streaming = true
	}
	fmt.Fprint(p.w, text)
}

// ChatUpdate writes a streamed chat completion update.
func (p *Printer) ChatUpdate(u *af.ChatResponseUpdate) {
	p.Delta(u.Text())
}

// Reply prints the text of a chat completion response.
func (p *Printer) Reply(resp *af.ChatResponse) {
	p.endStream()
	fmt.Fprintf(p.w, "%s %s\n", p.st.agent.Render("Agent:"), resp.Text())
}

// Flush closes an open streamed line.
func (p *Printer) Flush() { p.endStream() }

func (p *Printer) endStream() {
	if p.streaming {
		fmt.Fprintln(p.w)
		p.streaming = false
	}
}
