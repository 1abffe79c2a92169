package analysis

// View is the renderable result of one analysis payload.
type View struct {
	Capability Capability
	Title      string
	// Fallback is set when no renderer matched the capability identifier.
	Fallback bool
	Sections []Section
}

// Section groups related quantities. Empty parts are not drawn.
type Section struct {
	Heading string
	Text    string
	Metrics []Metric
	Bars    []Bar
	Items   []string
}

func (s Section) empty() bool {
	return s.Text == "" && len(s.Metrics) == 0 && len(s.Bars) == 0 && len(s.Items) == 0
}

type Metric struct {
	Label string
	Value string
	Unit  string
}

// Section returns the section with the given heading.
func (v View) Section(heading string) (Section, bool) {
	for _, s := range v.Sections {
		if s.Heading == heading {
			return s, true
		}
	}
	return Section{}, false
}

// Metric returns the metric with the given label.
func (s Section) Metric(label string) (Metric, bool) {
	for _, m := range s.Metrics {
		if m.Label == label {
			return m, true
		}
	}
	return Metric{}, false
}

func appendSection(out []Section, s Section) []Section {
	if s.empty() {
		return out
	}
	return append(out, s)
}
