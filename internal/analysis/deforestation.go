package analysis

import "github.com/tidwall/gjson"

// DeforestationShare splits the valid area into deforested and healthy
// percentages, formatted to two decimals. ok is false without a valid area.
func DeforestationShare(deforestedKm2, validKm2 float64) (deforested, healthy string, ok bool) {
	if validKm2 <= 0 {
		return "", "", false
	}
	share := deforestedKm2 / validKm2 * 100
	return num(share, 2), num(100-share, 2), true
}

func renderDeforestation(p gjson.Result) []Section {
	var out []Section

	change := Section{Heading: "Forest Change"}
	change.Metrics = floatMetric(change.Metrics, p, "deforested_area_km2", "Deforested area", "km²", 4)
	change.Metrics = floatMetric(change.Metrics, p, "valid_area_km2", "Analyzed area", "km²", 4)
	def, okDef := number(p, "deforested_area_km2")
	valid, okValid := number(p, "valid_area_km2")
	if okDef && okValid {
		if d, h, ok := DeforestationShare(def, valid); ok {
			change.Metrics = append(change.Metrics,
				Metric{Label: "Deforestation", Value: d, Unit: "%"},
				Metric{Label: "Healthy forest", Value: h, Unit: "%"},
			)
		}
	}
	out = appendSection(out, change)

	pixels := Section{Heading: "Pixels"}
	pixels.Metrics = intMetric(pixels.Metrics, p, "deforested_pixels", "Deforested pixels")
	pixels.Metrics = intMetric(pixels.Metrics, p, "valid_pixels", "Valid pixels")
	if dp, ok := number(p, "deforested_pixels"); ok {
		if vp, ok := number(p, "valid_pixels"); ok && vp > 0 {
			pixels.Metrics = append(pixels.Metrics, Metric{Label: "Deforested share", Value: pct(dp, vp), Unit: "%"})
		}
	}
	out = appendSection(out, pixels)

	veg := Section{Heading: "Vegetation Index"}
	veg.Metrics = floatMetric(veg.Metrics, p, "ndvi_mean_ref", "NDVI (reference)", "", 3)
	veg.Metrics = floatMetric(veg.Metrics, p, "ndvi_mean_recent", "NDVI (recent)", "", 3)
	ref, okRef := number(p, "ndvi_mean_ref")
	recent, okRecent := number(p, "ndvi_mean_recent")
	if okRef && okRecent {
		veg.Metrics = append(veg.Metrics, Metric{Label: "NDVI change", Value: num(recent-ref, 3)})
		if ref != 0 {
			veg.Metrics = append(veg.Metrics, Metric{Label: "NDVI change ratio", Value: pct(recent-ref, ref), Unit: "%"})
		}
	}
	veg.Metrics = floatMetric(veg.Metrics, p, "dnbr_mean", "Mean dNBR", "", 3)
	out = appendSection(out, veg)

	th := Section{Heading: "Detection Thresholds"}
	th.Metrics = floatMetric(th.Metrics, p, "thresholds.dNDVI", "dNDVI", "", 2)
	th.Metrics = floatMetric(th.Metrics, p, "thresholds.dNBR", "dNBR", "", 2)
	out = appendSection(out, th)

	dq := Section{Heading: "Data Quality"}
	dq.Metrics = intMetric(dq.Metrics, p, "data_quality.ref_valid_pixels", "Reference valid pixels")
	dq.Metrics = intMetric(dq.Metrics, p, "data_quality.recent_valid_pixels", "Recent valid pixels")
	dq.Metrics = intMetric(dq.Metrics, p, "data_quality.cloud_free_overlap", "Cloud-free overlap")
	out = appendSection(out, dq)

	return out
}
