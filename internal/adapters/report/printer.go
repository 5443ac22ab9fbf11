// Package report renders the execution report at the end of a build.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/bake/internal/ui/style"
)

var _ ports.Reporter = (*Printer)(nil)

// Printer implements ports.Reporter as coloured lines or a single JSON object.
type Printer struct {
	mu      sync.Mutex
	out     io.Writer
	json    bool
	noColor bool
}

// NewPrinter creates a Printer writing to w. Colour follows the terminal and NO_COLOR.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{out: w, noColor: color.NoColor}
}

// SetOutput changes the destination of subsequent reports.
func (p *Printer) SetOutput(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.out = w
}

// SetJSON selects JSON output.
func (p *Printer) SetJSON(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.json = enabled
}

// DisableColor forces plain text.
func (p *Printer) DisableColor() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.noColor = true
}

// Report writes one line per node followed by a summary.
// Output of failed nodes and of commands that ran is included, indented.
func (p *Printer) Report(r *domain.Report) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.json {
		return p.writeJSON(r)
	}

	var b strings.Builder
	var built, fresh int
	for _, res := range r.Results {
		switch {
		case res.State == domain.StateSucceeded && res.Fresh:
			fresh++
			fmt.Fprintf(&b, "%s %s (up to date)\n", p.paint(color.FgHiBlack, style.Fresh), res.ID)
		case res.State == domain.StateSucceeded:
			built++
			fmt.Fprintf(&b, "%s %s (%s)\n", p.paint(color.FgGreen, style.Check), res.ID, seconds(res))
			if res.Kind == domain.KindCommand {
				writeOutput(&b, res.Stdout, res.Stderr)
			}
		case res.State == domain.StateFailed:
			fmt.Fprintf(&b, "%s %s (exit %d, %s)\n", p.paint(color.FgRed, style.Cross), res.ID, res.ExitCode, seconds(res))
			writeOutput(&b, res.Stderr, res.Stdout)
		default:
			fmt.Fprintf(&b, "%s %s (%s)\n", p.paint(color.FgYellow, style.Skip), res.ID, res.State)
		}
	}

	b.WriteString("\n")
	if r.Succeeded() {
		fmt.Fprintf(&b, "%s: %d built, %d up to date\n", p.paint(color.FgGreen, "Build succeeded"), built, fresh)
	} else {
		fmt.Fprintf(&b, "%s: %d built, %d up to date, %d failed, %d skipped\n",
			p.paint(color.FgRed, "Build failed"), built, fresh, len(r.Failed), len(r.Skipped))
	}

	_, err := io.WriteString(p.out, b.String())
	return err
}

func (p *Printer) paint(attr color.Attribute, s string) string {
	c := color.New(attr)
	if p.noColor {
		c.DisableColor()
	} else {
		c.EnableColor()
	}
	return c.Sprint(s)
}

func seconds(res domain.NodeResult) string {
	return fmt.Sprintf("%.2fs", res.Duration.Seconds())
}

func writeOutput(b *strings.Builder, streams ...string) {
	for _, s := range streams {
		s = strings.TrimRight(s, "\n")
		if s == "" {
			continue
		}
		for line := range strings.SplitSeq(s, "\n") {
			b.WriteString("    " + line + "\n")
		}
	}
}

type jsonNode struct {
	ID         string  `json:"id"`
	Kind       string  `json:"kind"`
	State      string  `json:"state"`
	Fresh      bool    `json:"fresh,omitempty"`
	ExitCode   int     `json:"exit_code,omitempty"`
	DurationMS int64   `json:"duration_ms"`
	Error      *string `json:"error,omitempty"`
}

type jsonReport struct {
	Verdict string     `json:"verdict"`
	Failed  []string   `json:"failed,omitempty"`
	Skipped []string   `json:"skipped,omitempty"`
	Nodes   []jsonNode `json:"nodes"`
}

func (p *Printer) writeJSON(r *domain.Report) error {
	out := jsonReport{
		Verdict: string(r.Verdict),
		Failed:  r.Failed,
		Skipped: r.Skipped,
		Nodes:   make([]jsonNode, 0, len(r.Results)),
	}
	for _, res := range r.Results {
		n := jsonNode{
			ID:         res.ID,
			Kind:       string(res.Kind),
			State:      string(res.State),
			Fresh:      res.Fresh,
			ExitCode:   res.ExitCode,
			DurationMS: res.Duration.Milliseconds(),
		}
		if res.Err != nil {
			msg := res.Err.Error()
			n.Error = &msg
		}
		out.Nodes = append(out.Nodes, n)
	}
	return json.NewEncoder(p.out).Encode(out)
}
