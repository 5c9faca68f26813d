// Package report prints what a command did: the build summary after a
// document is written and the resolved build order for a plan. Output is
// styled with lipgloss on a terminal and plain otherwise.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/vvka-141/metafmt/internal/assembly"
	"github.com/vvka-141/metafmt/internal/checksum"
	"github.com/vvka-141/metafmt/internal/schema"
)

// Summary describes one written document.
type Summary struct {
	Template string
	Output   string
	Format   string
	Bytes    int
	Digest   string
	Elements map[string]int
	Invalid  []schema.Invalid
	Duration time.Duration
}

// Total returns the number of elements built.
func (s *Summary) Total() int {
	n := 0
	for _, c := range s.Elements {
		n += c
	}
	return n
}

// CountElements tallies the tree rooted at root by schema type.
func CountElements(root *schema.Element) map[string]int {
	counts := map[string]int{}
	_ = root.Walk(func(_ string, e *schema.Element) error {
		counts[e.Type]++
		return nil
	})
	return counts
}

// Printer writes reports to one writer.
type Printer struct {
	w      io.Writer
	styled bool
	st     styles
}

// NewPrinter returns a Printer writing to w. Unstyled output is one plain
// line per fact, stable enough for scripts to read.
func NewPrinter(w io.Writer, styled bool) *Printer {
	return &Printer{w: w, styled: styled, st: newStyles(lipgloss.NewRenderer(w))}
}

// Summary prints s.
func (p *Printer) Summary(s *Summary) {
	lines := []string{
		p.row("output", fmt.Sprintf("%s (%s, %d bytes)", s.Output, s.Format, s.Bytes)),
		p.row("template", s.Template),
		p.row("digest", checksum.Short(s.Digest)),
		p.row("elements", fmt.Sprintf("%d (%s)", s.Total(), breakdown(s.Elements))),
		p.row("duration", s.Duration.Round(time.Millisecond).String()),
	}

	if !p.styled {
		for _, l := range lines {
			fmt.Fprintln(p.w, l)
		}
		fmt.Fprintf(p.w, "invalid: %d\n", len(s.Invalid))
		for _, inv := range s.Invalid {
			fmt.Fprintf(p.w, "  %s\n", inv)
		}
		return
	}

	status := p.st.success.Render(SymbolCheck + " document is valid")
	if len(s.Invalid) > 0 {
		status = p.st.err.Render(fmt.Sprintf("%s %d invalid element(s)", SymbolCross, len(s.Invalid)))
	}
	lines = append(lines, "", status)
	for _, inv := range s.Invalid {
		lines = append(lines, p.st.warning.Render("  "+SymbolBullet+" "+inv.String()))
	}
	fmt.Fprintln(p.w, p.st.title.Render("metafmt"))
	fmt.Fprintln(p.w, p.st.box.Render(strings.Join(lines, "\n")))
}

func (p *Printer) row(label, value string) string {
	if !p.styled {
		return label + ": " + value
	}
	return p.st.label.Render(label) + value
}

func breakdown(counts map[string]int) string {
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Strings(types)
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = fmt.Sprintf("%s %d", t, counts[t])
	}
	return strings.Join(parts, ", ")
}

// Plan prints the arranged tree in build order, one node per line,
// indented by depth. A node the arrangement moved away from its template
// position is marked.
func (p *Printer) Plan(root *assembly.Node) {
	p.planNode(root, 0, root.Index)
}

func (p *Printer) planNode(n *assembly.Node, depth, position int) {
	source := "dao " + n.DAOType
	if n.Link != nil {
		source = fmt.Sprintf("link %s %q", n.Link.Type, n.Link.Name)
		if n.Link.Optional {
			source += " optional"
		}
	}
	indent := strings.Repeat("  ", depth)
	name := n.Kind.Name
	moved := ""
	if n.Index != position {
		moved = " " + SymbolArrowRight + " moved"
	}
	if p.styled {
		name = p.st.title.Render(name)
		source = p.st.muted.Render(source)
		if moved != "" {
			moved = " " + p.st.warning.Render(strings.TrimSpace(moved))
		}
	}
	fmt.Fprintf(p.w, "%s%s %s%s\n", indent, name, source, moved)
	for i, c := range n.Children {
		p.planNode(c, depth+1, i)
	}
}
