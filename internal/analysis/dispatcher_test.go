package analysis

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"leona-console/internal/domain"
)

func TestCapabilityKeysDoNotCollide(t *testing.T) {
	require.Empty(t, keyCollisions())
}

func TestCapabilityFromLabel(t *testing.T) {
	tests := []struct {
		label string
		want  Capability
	}{
		{"Deforestation Detection (/satellite/deforestation)", CapabilityDeforestation},
		{"/satellite/urban_heat", CapabilityUrbanHeat},
		{"Urban Heat Island Mapping", CapabilityUrbanHeat},
		{"Agricultural Health Monitoring (/irrigation/detect)", CapabilityIrrigation},
		{"flood extent", CapabilityNone},
		{"", CapabilityNone},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			require.Equal(t, tt.want, CapabilityFromLabel(tt.label))
		})
	}
}

func TestCapabilityFromKey(t *testing.T) {
	require.Equal(t, CapabilityUrbanHeat, CapabilityFromKey("urban_heat"))
	require.Equal(t, CapabilityNone, CapabilityFromKey("/satellite/urban_heat"))
	for _, c := range knownCapabilities {
		require.Equal(t, c, CapabilityFromKey(c.String()))
		require.Equal(t, c, CapabilityFromLabel(c.Endpoint()))
	}
}

func TestDispatchUnknownCapability(t *testing.T) {
	v := NewDispatcher().Dispatch("soil moisture", []byte(`{"pixels": 3}`))
	require.True(t, v.Fallback)
	require.Equal(t, CapabilityNone, v.Capability)
	require.Equal(t, "No visualization available", v.Title)
	require.Empty(t, v.Sections)
}

func TestDispatchDeforestation(t *testing.T) {
	payload := []byte(`{
		"deforested_pixels": 20,
		"deforested_area_km2": 2,
		"valid_pixels": 100,
		"valid_area_km2": 10,
		"ndvi_mean_ref": 0.8,
		"ndvi_mean_recent": 0.6,
		"dnbr_mean": 0.12,
		"thresholds": {"dNDVI": -0.2, "dNBR": 0.1}
	}`)
	v := NewDispatcher().Dispatch("Deforestation Detection (/satellite/deforestation)", payload)
	require.False(t, v.Fallback)
	require.Equal(t, CapabilityDeforestation, v.Capability)

	change, ok := v.Section("Forest Change")
	require.True(t, ok)
	m, ok := change.Metric("Deforestation")
	require.True(t, ok)
	require.Equal(t, "20.00", m.Value)
	m, ok = change.Metric("Healthy forest")
	require.True(t, ok)
	require.Equal(t, "80.00", m.Value)

	veg, ok := v.Section("Vegetation Index")
	require.True(t, ok)
	m, ok = veg.Metric("NDVI change")
	require.True(t, ok)
	require.Equal(t, "-0.200", m.Value)

	_, ok = v.Section("Data Quality")
	require.False(t, ok)
}

func TestDeforestationShareWithoutValidArea(t *testing.T) {
	_, _, ok := DeforestationShare(2, 0)
	require.False(t, ok)

	v := NewDispatcher().DispatchCapability(CapabilityDeforestation, []byte(`{"deforested_area_km2": 2, "valid_area_km2": 0}`))
	change, ok := v.Section("Forest Change")
	require.True(t, ok)
	_, ok = change.Metric("Deforestation")
	require.False(t, ok)
}

func TestDispatchUrbanHeatMissingSubObjects(t *testing.T) {
	payload := []byte(`{
		"temperature_analysis": {
			"mean_temperature_c": 30,
			"temperature_std_c": 2,
			"min_temperature_c": 20,
			"max_temperature_c": 40,
			"urban_heat_fraction": 0.25,
			"heat_threshold_c": 35
		}
	}`)
	v := NewDispatcher().DispatchCapability(CapabilityUrbanHeat, payload)
	require.Len(t, v.Sections, 1)

	temp := v.Sections[0]
	require.Equal(t, "Surface Temperature", temp.Heading)
	m, ok := temp.Metric("Heat island share")
	require.True(t, ok)
	require.Equal(t, "25.0", m.Value)
	require.Len(t, temp.Bars, 1)
	require.InDelta(t, 50, temp.Bars[0].MeanPosition, 1e-9)
	require.Len(t, temp.Bars[0].Markers, 1)
	require.InDelta(t, 75, temp.Bars[0].Markers[0].Position, 1e-9)
}

func TestDispatchIrrigation(t *testing.T) {
	payload := []byte(`{
		"pixels_detected": 50,
		"area_detected_km2": 0.5,
		"resolution": {"width": 10, "height": 100},
		"confidence_fraction": 0.8,
		"delta_ndwi_stats": {"mean": 0.1, "std": 0.05, "min": -0.2, "max": 0.3},
		"ndwi_threshold": 0.05,
		"delta_vv_db_stats": {"mean": 0, "std": 1, "min": -3, "max": 3},
		"vv_db_threshold": 1.5
	}`)
	v := NewDispatcher().DispatchCapability(CapabilityIrrigation, payload)

	det, ok := v.Section("Irrigation Detection")
	require.True(t, ok)
	m, ok := det.Metric("Detected share")
	require.True(t, ok)
	require.Equal(t, "5.00", m.Value)
	m, ok = det.Metric("Detection coverage")
	require.True(t, ok)
	require.Equal(t, "80.0", m.Value)
	_, ok = det.Metric("Confidence")
	require.False(t, ok)

	ndwi, ok := v.Section("Water Index Change (ΔNDWI)")
	require.True(t, ok)
	require.Len(t, ndwi.Bars[0].Markers, 1)

	vv, ok := v.Section("Radar Backscatter Change (ΔVV)")
	require.True(t, ok)
	require.Len(t, vv.Bars[0].Markers, 2)
	require.InDelta(t, 25, vv.Bars[0].Markers[0].Position, 1e-9)
	require.InDelta(t, 75, vv.Bars[0].Markers[1].Position, 1e-9)
}

func TestDispatchInvalidPayload(t *testing.T) {
	v := NewDispatcher().DispatchCapability(CapabilityIrrigation, []byte(`not json`))
	require.False(t, v.Fallback)
	require.Empty(t, v.Sections)
}

func TestRenderResponse(t *testing.T) {
	resp := domain.ChatResponse{
		Response:   "Here is what I found.",
		APIResults: json.RawMessage(`{"deforested_area_km2": 1, "valid_area_km2": 4}`),
		Metadata: &domain.ResponseMetadata{
			ResultsAnalysis: &domain.ResultsAnalysis{
				ResultsSummary:   "A quarter of the forest is gone.",
				KeyTakeaways:     []string{"loss is concentrated", " "},
				Recommendations:  json.RawMessage(`{"immediate_actions": ["patrol"], "monitoring_plan": "monthly"}`),
				TechnicalContext: &domain.TechnicalContext{APIUsed: "/satellite/deforestation"},
			},
			AlternativeApplications: json.RawMessage(`[{"title": "Fire risk", "description": "burn scars"}, "carbon"]`),
		},
	}
	v := NewDispatcher().RenderResponse(resp)
	require.Equal(t, CapabilityDeforestation, v.Capability)

	change, ok := v.Section("Forest Change")
	require.True(t, ok)
	m, _ := change.Metric("Deforestation")
	require.Equal(t, "25.00", m.Value)

	kt, ok := v.Section("Key Takeaways")
	require.True(t, ok)
	require.Equal(t, []string{"loss is concentrated"}, kt.Items)

	recs, ok := v.Section("Recommendations")
	require.True(t, ok)
	require.Equal(t, []string{"patrol"}, recs.Items)
	plan, ok := recs.Metric("Monitoring plan")
	require.True(t, ok)
	require.Equal(t, "monthly", plan.Value)

	alt, ok := v.Section("Alternative Applications")
	require.True(t, ok)
	require.Equal(t, []string{"Fire risk: burn scars", "carbon"}, alt.Items)

	_, ok = v.Section("Limitations")
	require.False(t, ok)
}
