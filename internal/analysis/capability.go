// Package analysis turns capability-specific result payloads into views.
package analysis

import "strings"

// Capability identifies the backend analysis endpoint that produced a payload.
type Capability int

const (
	CapabilityNone Capability = iota
	CapabilityDeforestation
	CapabilityUrbanHeat
	CapabilityIrrigation
)

func (c Capability) String() string {
	switch c {
	case CapabilityDeforestation:
		return "deforestation"
	case CapabilityUrbanHeat:
		return "urban_heat"
	case CapabilityIrrigation:
		return "irrigation"
	default:
		return "none"
	}
}

// Title is the human name of the capability.
func (c Capability) Title() string {
	switch c {
	case CapabilityDeforestation:
		return "Deforestation Detection"
	case CapabilityUrbanHeat:
		return "Urban Heat Island Mapping"
	case CapabilityIrrigation:
		return "Agricultural Health Monitoring"
	default:
		return "No visualization available"
	}
}

// Endpoint is the backend path serving the capability.
func (c Capability) Endpoint() string {
	switch c {
	case CapabilityDeforestation:
		return "/satellite/deforestation"
	case CapabilityUrbanHeat:
		return "/satellite/urban_heat"
	case CapabilityIrrigation:
		return "/irrigation/detect"
	default:
		return ""
	}
}

var knownCapabilities = []Capability{CapabilityDeforestation, CapabilityUrbanHeat, CapabilityIrrigation}

// CapabilityFromKey is the exact-match lookup by stable key ("deforestation",
// "urban_heat", "irrigation").
func CapabilityFromKey(key string) Capability {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, c := range knownCapabilities {
		if c.String() == key {
			return c
		}
	}
	return CapabilityNone
}

// CapabilityFromLabel resolves a free-text label such as
// "Deforestation Detection (/satellite/deforestation)" by substring match on
// each capability key, with spaces read as underscores. Labels naming no key
// resolve to CapabilityNone.
func CapabilityFromLabel(label string) Capability {
	label = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(label)), " ", "_")
	if label == "" {
		return CapabilityNone
	}
	for _, c := range knownCapabilities {
		if strings.Contains(label, c.String()) {
			return c
		}
	}
	return CapabilityNone
}

// keyCollisions lists pairs of capability keys where one contains the other.
// Substring matching is only unambiguous while this is empty.
func keyCollisions() [][2]string {
	var out [][2]string
	for _, a := range knownCapabilities {
		for _, b := range knownCapabilities {
			if a != b && strings.Contains(a.String(), b.String()) {
				out = append(out, [2]string{a.String(), b.String()})
			}
		}
	}
	return out
}
