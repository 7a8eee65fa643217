// Package report formats a laid out diagram as a terminal summary: the
// methods with their scores, the groups of methods that are not
// significantly different, and the connector layers.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/critdiff/pkg/diagram"
)

// DefaultNameWidth caps how wide the method column grows before names are
// truncated.
const DefaultNameWidth = 24

// Options controls report formatting.
type Options struct {
	Styled    bool // use lipgloss colors; false gives plain text for pipes and the clipboard
	NameWidth int  // max method column width, DefaultNameWidth when zero
}

// Summary is the tabular content of a report.
type Summary struct {
	Methods []MethodRow
	Groups  [][]string // method names per maximal clique, in index order
	Layers  [][]diagram.Placement
	XLabel  string
}

// MethodRow is one method line.
type MethodRow struct {
	Index int
	Name  string
	Score float64
	Side  diagram.Side
}

// Summarize extracts the report content from plan.
func Summarize(plan diagram.Plan) Summary {
	s := Summary{Methods: make([]MethodRow, len(plan.Points))}
	for i, pt := range plan.Points {
		row := MethodRow{Index: i, Score: pt.X, Name: strconv.Itoa(i)}
		if i < len(plan.Labels) {
			row.Name = plan.Labels[i].Text
			row.Side = plan.Labels[i].Side
		}
		s.Methods[i] = row
	}
	for _, clique := range diagram.Cliques(len(plan.Points), plan.Pairs) {
		names := make([]string, len(clique))
		for i, idx := range clique {
			names[i] = s.Methods[idx].Name
		}
		s.Groups = append(s.Groups, names)
	}
	if n := diagram.Layers(plan.Placements); n > 0 {
		s.Layers = make([][]diagram.Placement, n)
		for _, pl := range plan.Placements {
			s.Layers[pl.Layer] = append(s.Layers[pl.Layer], pl)
		}
	}
	if plan.XLabel != nil {
		s.XLabel = plan.XLabel.Text
	}
	return s
}

type styles struct {
	title  lipgloss.Style
	header lipgloss.Style
	name   lipgloss.Style
	score  lipgloss.Style
	muted  lipgloss.Style
}

var (
	colorTitle = lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}
	colorScore = lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}
	colorMuted = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#6272A4"}
)

func newStyles(r *lipgloss.Renderer, styled bool) styles {
	if !styled {
		plain := r.NewStyle()
		return styles{plain, plain, plain, plain, plain}
	}
	return styles{
		title:  r.NewStyle().Bold(true).Foreground(colorTitle),
		header: r.NewStyle().Bold(true).Underline(true),
		name:   r.NewStyle(),
		score:  r.NewStyle().Foreground(colorScore),
		muted:  r.NewStyle().Foreground(colorMuted),
	}
}

// Write formats plan to w.
func Write(w io.Writer, plan diagram.Plan, opts Options) error {
	_, err := io.WriteString(w, Format(lipgloss.NewRenderer(w), plan, opts))
	return err
}

// String formats plan as plain text.
func String(plan diagram.Plan) string {
	return Format(lipgloss.NewRenderer(io.Discard), plan, Options{})
}

// Format renders the report with the given lipgloss renderer.
func Format(r *lipgloss.Renderer, plan diagram.Plan, opts Options) string {
	st := newStyles(r, opts.Styled)
	s := Summarize(plan)
	maxName := opts.NameWidth
	if maxName <= 0 {
		maxName = DefaultNameWidth
	}

	nameWidth := runewidth.StringWidth("method")
	for _, m := range s.Methods {
		nameWidth = max(nameWidth, runewidth.StringWidth(m.Name))
	}
	nameWidth = min(nameWidth, maxName)

	var b strings.Builder
	connectors := len(plan.Placements)
	b.WriteString(st.title.Render(fmt.Sprintf("%d %s, %d %s on %d %s",
		len(s.Methods), plural(len(s.Methods), "method"),
		connectors, plural(connectors, "connector"),
		len(s.Layers), plural(len(s.Layers), "layer"))))
	b.WriteByte('\n')
	if s.XLabel != "" {
		b.WriteString(st.muted.Render("axis: " + s.XLabel))
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	b.WriteString(st.header.Render(fmt.Sprintf("%3s  %s  %10s  %s", "#", cell("method", nameWidth), "score", "side")))
	b.WriteByte('\n')
	for _, m := range s.Methods {
		fmt.Fprintf(&b, "%3d  %s  %s  %s\n",
			m.Index,
			st.name.Render(cell(m.Name, nameWidth)),
			st.score.Render(fmt.Sprintf("%10.4g", m.Score)),
			st.muted.Render(m.Side.String()))
	}

	if len(s.Groups) > 0 {
		b.WriteByte('\n')
		b.WriteString(st.header.Render("Not significantly different"))
		b.WriteByte('\n')
		for _, g := range s.Groups {
			fmt.Fprintf(&b, "  {%s}\n", strings.Join(g, ", "))
		}
	}

	if len(s.Layers) > 0 {
		b.WriteByte('\n')
		b.WriteString(st.header.Render("Connectors"))
		b.WriteByte('\n')
		for layer, pls := range s.Layers {
			spans := make([]string, len(pls))
			for i, pl := range pls {
				spans[i] = fmt.Sprintf("%s..%s", s.Methods[pl.Lo].Name, s.Methods[pl.Hi].Name)
			}
			fmt.Fprintf(&b, "  %s %s\n",
				st.muted.Render(fmt.Sprintf("layer %d (y=%.2f):", layer, plan.Params.Height(layer))),
				strings.Join(spans, "  "))
		}
	}
	return b.String()
}

// cell pads or truncates s to exactly width terminal cells.
func cell(s string, width int) string {
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, "…")
	}
	return runewidth.FillRight(s, width)
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
