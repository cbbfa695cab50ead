// Package report renders correlation tables for terminals, documents and
// machines.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"gocorr/domain/correlation"
)

// Format is an output format
type Format string

const (
	FormatTable    Format = "table"
	FormatMatrix   Format = "matrix"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
)

// Options controls rendering
type Options struct {
	Format Format
	Digits int
	// Value is the matrix cell content
	Value correlation.MatrixValue
}

// DefaultOptions returns table output with three digits
func DefaultOptions() Options {
	return Options{Format: FormatTable, Digits: 3, Value: correlation.ValueEstimate}
}

// Write renders t to w
func Write(w io.Writer, t *correlation.Table, opts Options) error {
	var out string
	switch opts.Format {
	case FormatTable, "":
		out = Text(t, opts)
	case FormatMatrix:
		s, err := Matrices(t, opts, false)
		if err != nil {
			return err
		}
		out = s
	case FormatMarkdown:
		s, err := Markdown(t, opts)
		if err != nil {
			return err
		}
		out = s
	case FormatHTML:
		b, err := HTML(t, opts)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	case FormatJSON:
		return JSON(w, t)
	default:
		return fmt.Errorf("unknown report format %q", opts.Format)
	}
	_, err := io.WriteString(w, out+"\n")
	return err
}

// columns of the long table in display order
func header(t *correlation.Table) table.Row {
	row := table.Row{}
	if len(t.Groups) > 1 {
		row = append(row, "Group")
	}
	row = append(row, "Parameter1", "Parameter2", estimateHeader(t), ciHeader(t))
	if t.Options.Bayesian {
		return append(row, "pd", "% in ROPE", "BF10", "Prior", "Method", "n_Obs")
	}
	return append(row, "Statistic", "p", "Method", "n_Obs")
}

func estimateHeader(t *correlation.Table) string {
	names := make(map[string]bool)
	for _, r := range t.Rows {
		names[r.EstimateName] = true
	}
	if len(names) == 1 {
		for n := range names {
			return n
		}
	}
	return "Estimate"
}

func ciHeader(t *correlation.Table) string {
	return fmt.Sprintf("%s%% CI", Number(t.Options.CI*100, 0))
}

func row(t *correlation.Table, r correlation.TestResult, digits int) table.Row {
	out := table.Row{}
	if len(t.Groups) > 1 {
		out = append(out, r.Group)
	}
	if r.Failed() {
		out = append(out, r.Parameter1, r.Parameter2, "NA", "")
		if t.Options.Bayesian {
			return append(out, "", "", "", "", r.Method, r.NObs)
		}
		return append(out, "", "", r.Method, r.NObs)
	}
	out = append(out, r.Parameter1, r.Parameter2, Number(r.Estimate, digits), Interval(r.CILow, r.CIHigh, digits))
	if t.Options.Bayesian {
		prior := ""
		if r.PriorName != "" {
			prior = fmt.Sprintf("%s (%s +- %s)", r.PriorName, Number(r.PriorLocation, 2), Number(r.PriorScale, 2))
		}
		return append(out,
			Number(r.PD*100, 2)+"%",
			Number(r.ROPEPercentage*100, 2)+"%",
			BayesFactor(r.BF10)+BayesStars(r.BF10),
			prior, r.Method, r.NObs)
	}
	return append(out, Statistic(r, 2), PValue(r.P)+Stars(r.P), r.Method, r.NObs)
}

func newWriter(title string) table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateColumns = true
	if title != "" {
		tbl.SetTitle(title)
	}
	return tbl
}

func title(t *correlation.Table) string {
	method := t.Options.Method.Info().Label
	if len(t.Rows) > 0 {
		method = t.Rows[0].Method
	}
	kind := "Correlation Matrix"
	switch {
	case t.Options.Partial:
		kind = "Partial Correlation Matrix"
	case t.Options.Multilevel:
		kind = "Correlation Matrix (multilevel)"
	}
	return fmt.Sprintf("%s (%s)", kind, method)
}

// footer describes the adjustment and any failed rows
func footer(t *correlation.Table) []string {
	var lines []string
	if !t.Options.Bayesian {
		lines = append(lines, "p-value adjustment method: "+adjustLabel(t.Options.PAdjust))
	}
	if t.PartialConverted {
		lines = append(lines, "partial estimates converted back to zero-order correlations")
	}
	for _, r := range t.Failures() {
		lines = append(lines, fmt.Sprintf("NA %s: %s", r.Pair(), r.Note))
	}
	return lines
}

// Text renders the long table
func Text(t *correlation.Table, opts Options) string {
	tbl := newWriter(title(t))
	tbl.AppendHeader(header(t))
	for _, r := range t.Rows {
		tbl.AppendRow(row(t, r, opts.Digits))
	}
	out := tbl.Render()
	if lines := footer(t); len(lines) > 0 {
		out += "\n\n" + strings.Join(lines, "\n")
	}
	return out
}

// Matrices renders one matrix per group, as text or markdown
func Matrices(t *correlation.Table, opts Options, md bool) (string, error) {
	value := opts.Value
	if value == "" {
		value = correlation.ValueEstimate
	}
	var parts []string
	for _, g := range t.Groups {
		m, err := t.Pivot(g, value, t.Options.Redundant)
		if err != nil {
			return "", err
		}
		heading := title(t)
		if value == correlation.ValueZeroOrder {
			heading += ", converted to zero-order"
		}
		if g != "" {
			heading += " - Group: " + g
		}
		tbl := newWriter("")
		hdr := table.Row{"Parameter"}
		for _, c := range m.ColNames {
			hdr = append(hdr, c)
		}
		tbl.AppendHeader(hdr)
		configs := make([]table.ColumnConfig, 0, len(m.ColNames))
		for j := range m.ColNames {
			configs = append(configs, table.ColumnConfig{Number: j + 2, Align: text.AlignRight})
		}
		tbl.SetColumnConfigs(configs)
		for i, name := range m.RowNames {
			r := table.Row{name}
			for j := range m.ColNames {
				r = append(r, cell(t, g, m, i, j, value, opts.Digits))
			}
			tbl.AppendRow(r)
		}
		if md {
			parts = append(parts, "## "+heading+"\n\n"+tbl.RenderMarkdown())
		} else {
			tbl.SetTitle(heading)
			parts = append(parts, tbl.Render())
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

// cell formats a matrix entry; estimates carry significance stars
func cell(t *correlation.Table, group string, m *correlation.Matrix, i, j int, value correlation.MatrixValue, digits int) string {
	v := m.At(i, j)
	if math.IsNaN(v) {
		return ""
	}
	if value == correlation.ValueN {
		return Number(v, 0)
	}
	s := Number(v, digits)
	if value != correlation.ValueEstimate {
		return s
	}
	r, ok := t.Find(group, m.RowNames[i], m.ColNames[j])
	if !ok {
		return s
	}
	if t.Options.Bayesian {
		return s + BayesStars(r.BF10)
	}
	return s + Stars(r.P)
}

// Markdown renders the long table and the matrices as a markdown document
func Markdown(t *correlation.Table, opts Options) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title(t))

	tbl := newWriter("")
	tbl.AppendHeader(header(t))
	for _, r := range t.Rows {
		tbl.AppendRow(row(t, r, opts.Digits))
	}
	b.WriteString(tbl.RenderMarkdown())
	b.WriteString("\n")

	for _, line := range footer(t) {
		fmt.Fprintf(&b, "\n- %s", line)
	}
	if len(footer(t)) > 0 {
		b.WriteString("\n")
	}

	m, err := Matrices(t, opts, true)
	if err != nil {
		return "", err
	}
	b.WriteString("\n" + m + "\n")
	return b.String(), nil
}

// HTML renders the markdown document as a complete page
func HTML(t *correlation.Table, opts Options) ([]byte, error) {
	md, err := Markdown(t, opts)
	if err != nil {
		return nil, err
	}
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: title(t),
	})
	return markdown.ToHTML([]byte(md), p, renderer), nil
}
