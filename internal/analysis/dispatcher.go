package analysis

import (
	"strings"

	"github.com/tidwall/gjson"

	"leona-console/internal/domain"
)

// Renderer builds the capability-specific sections of a payload. Absent
// fields drop their section; a renderer never fails.
type Renderer func(payload gjson.Result) []Section

// Dispatcher routes payloads to renderers by capability.
type Dispatcher struct {
	renderers map[Capability]Renderer
}

// NewDispatcher returns a dispatcher with the built-in renderers.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{renderers: map[Capability]Renderer{
		CapabilityDeforestation: renderDeforestation,
		CapabilityUrbanHeat:     renderUrbanHeat,
		CapabilityIrrigation:    renderIrrigation,
	}}
}

// Dispatch renders payload for the capability named by label.
func (d *Dispatcher) Dispatch(label string, payload []byte) View {
	return d.DispatchCapability(CapabilityFromLabel(label), payload)
}

// DispatchCapability renders payload for an already resolved capability.
func (d *Dispatcher) DispatchCapability(c Capability, payload []byte) View {
	render, ok := d.renderers[c]
	if !ok {
		return View{Capability: CapabilityNone, Title: CapabilityNone.Title(), Fallback: true}
	}
	return View{
		Capability: c,
		Title:      c.Title(),
		Sections:   render(parse(payload)),
	}
}

// RenderResponse renders an assistant payload: the capability view of its
// api_results followed by the narrative analysis sections.
func (d *Dispatcher) RenderResponse(resp domain.ChatResponse) View {
	v := d.Dispatch(resp.APIUsed(), resp.APIResults)
	if ra := resp.ResultsAnalysis(); ra != nil {
		v.Sections = append(v.Sections, narrativeSections(ra)...)
	}
	if resp.Metadata != nil {
		v.Sections = appendSection(v.Sections, alternativeApplications(parse(resp.Metadata.AlternativeApplications)))
	}
	return v
}

func parse(payload []byte) gjson.Result {
	if len(payload) == 0 || !gjson.ValidBytes(payload) {
		return gjson.Result{}
	}
	return gjson.ParseBytes(payload)
}

func narrativeSections(ra *domain.ResultsAnalysis) []Section {
	var out []Section
	out = appendSection(out, Section{Heading: "Summary", Text: strings.TrimSpace(ra.ResultsSummary)})
	out = appendSection(out, Section{Heading: "Key Takeaways", Items: nonEmpty(ra.KeyTakeaways)})

	rec := parse(ra.Recommendations)
	recs := Section{Heading: "Recommendations"}
	switch {
	case rec.IsObject():
		recs.Items = stringItems(rec.Get("immediate_actions"))
		if v := strings.TrimSpace(rec.Get("monitoring_plan").String()); v != "" {
			recs.Metrics = append(recs.Metrics, Metric{Label: "Monitoring plan", Value: v})
		}
		if v := strings.TrimSpace(rec.Get("follow_up_suggestions").String()); v != "" {
			recs.Metrics = append(recs.Metrics, Metric{Label: "Follow-up", Value: v})
		}
	case rec.IsArray():
		recs.Items = stringItems(rec)
	case rec.Type == gjson.String:
		recs.Text = strings.TrimSpace(rec.String())
	}
	out = appendSection(out, recs)
	out = appendSection(out, Section{Heading: "Limitations", Text: strings.TrimSpace(ra.Limitations)})
	return out
}

func alternativeApplications(alt gjson.Result) Section {
	s := Section{Heading: "Alternative Applications"}
	switch {
	case alt.IsArray():
		for _, a := range alt.Array() {
			if a.IsObject() {
				title := strings.TrimSpace(a.Get("title").String())
				desc := strings.TrimSpace(a.Get("description").String())
				switch {
				case title != "" && desc != "":
					s.Items = append(s.Items, title+": "+desc)
				case title != "":
					s.Items = append(s.Items, title)
				case desc != "":
					s.Items = append(s.Items, desc)
				}
				continue
			}
			if v := strings.TrimSpace(a.String()); v != "" {
				s.Items = append(s.Items, v)
			}
		}
	case alt.Type == gjson.String:
		s.Text = strings.TrimSpace(alt.String())
	}
	return s
}

func stringItems(r gjson.Result) []string {
	if !r.IsArray() {
		if v := strings.TrimSpace(r.String()); r.Type == gjson.String && v != "" {
			return []string{v}
		}
		return nil
	}
	var out []string
	for _, item := range r.Array() {
		if v := strings.TrimSpace(item.String()); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
