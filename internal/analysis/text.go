package analysis

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"
)

// barWidth is the number of cells a bar spans between min and max.
const barWidth = 40

// Format writes v as plain text: headings, aligned metrics, bars and lists.
func Format(w io.Writer, v View) error {
	if _, err := fmt.Fprintf(w, "== %s ==\n", v.Title); err != nil {
		return err
	}
	for _, s := range v.Sections {
		if err := formatSection(w, s); err != nil {
			return err
		}
	}
	return nil
}

func formatSection(w io.Writer, s Section) error {
	if _, err := fmt.Fprintf(w, "\n%s\n", s.Heading); err != nil {
		return err
	}
	if s.Text != "" {
		if _, err := fmt.Fprintf(w, "  %s\n", s.Text); err != nil {
			return err
		}
	}
	if len(s.Metrics) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, m := range s.Metrics {
			value := m.Value
			if m.Unit != "" {
				value += " " + m.Unit
			}
			fmt.Fprintf(tw, "  %s\t%s\n", m.Label, value)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	for _, b := range s.Bars {
		if _, err := io.WriteString(w, DrawBar(b)); err != nil {
			return err
		}
	}
	for _, item := range s.Items {
		if _, err := fmt.Fprintf(w, "  - %s\n", item); err != nil {
			return err
		}
	}
	return nil
}

// DrawBar renders b as two lines: the range with band '=', mean 'o' and
// markers '|', then the min and max labels.
func DrawBar(b Bar) string {
	cells := []rune(strings.Repeat("-", barWidth+1))
	lo, hi := cell(b.BandLow), cell(b.BandHigh)
	for i := lo; i <= hi; i++ {
		cells[i] = '='
	}
	for _, m := range b.Markers {
		cells[cell(m.Position)] = '|'
	}
	cells[cell(b.MeanPosition)] = 'o'

	unit := ""
	if b.Unit != "" {
		unit = " " + b.Unit
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "  %s%s\n", b.Label, unit)
	fmt.Fprintf(&sb, "  [%s]\n", string(cells))
	fmt.Fprintf(&sb, "  min %s  mean %s  max %s\n",
		trimFloat(b.Stats.Min), trimFloat(b.Stats.Mean), trimFloat(b.Stats.Max))
	for _, m := range b.Markers {
		fmt.Fprintf(&sb, "  | %s %s at %.0f%%\n", m.Label, trimFloat(m.Value), m.Position)
	}
	return sb.String()
}

func cell(pos float64) int {
	return int(math.Round(clamp(pos) / 100 * barWidth))
}

func trimFloat(v float64) string {
	s := num(v, 3)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
