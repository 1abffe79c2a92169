package analysis

import "github.com/tidwall/gjson"

func renderIrrigation(p gjson.Result) []Section {
	var out []Section

	det := Section{Heading: "Irrigation Detection"}
	det.Metrics = intMetric(det.Metrics, p, "pixels_detected", "Pixels detected")
	det.Metrics = floatMetric(det.Metrics, p, "area_detected_km2", "Area detected", "km²", 4)
	det.Metrics = floatMetric(det.Metrics, p, "pixel_area_km2", "Pixel area", "km²", 6)
	w, okW := number(p, "resolution.width")
	h, okH := number(p, "resolution.height")
	if okW && okH && w*h > 0 {
		det.Metrics = append(det.Metrics, Metric{Label: "Scene pixels", Value: num(w*h, 0)})
		if detected, ok := number(p, "pixels_detected"); ok {
			det.Metrics = append(det.Metrics, Metric{Label: "Detected share", Value: pct(detected, w*h), Unit: "%"})
		}
	}
	if conf, ok := number(p, "confidence_fraction"); ok {
		det.Metrics = append(det.Metrics, Metric{Label: "Detection coverage", Value: num(conf*100, 1), Unit: "%"})
	}
	out = appendSection(out, det)

	if stats, ok := readStats(p.Get("delta_ndwi_stats")); ok {
		s := Section{Heading: "Water Index Change (ΔNDWI)"}
		s.Metrics = statMetrics(stats, "", 3)
		var thresholds []Threshold
		if t, ok := number(p, "ndwi_threshold"); ok {
			s.Metrics = append(s.Metrics, Metric{Label: "Threshold", Value: num(t, 3)})
			thresholds = append(thresholds, Threshold{Label: "NDWI threshold", Value: t, Mode: SingleSided})
		}
		s.Bars = append(s.Bars, NewBar("ΔNDWI", "", stats, thresholds...))
		out = append(out, s)
	}

	if stats, ok := readStats(p.Get("delta_vv_db_stats")); ok {
		s := Section{Heading: "Radar Backscatter Change (ΔVV)"}
		s.Metrics = statMetrics(stats, "dB", 2)
		var thresholds []Threshold
		if t, ok := number(p, "vv_db_threshold"); ok {
			s.Metrics = append(s.Metrics, Metric{Label: "Threshold", Value: "±" + num(abs(t), 2), Unit: "dB"})
			thresholds = append(thresholds, Threshold{Label: "VV threshold", Value: t, Mode: Symmetric})
		}
		s.Bars = append(s.Bars, NewBar("ΔVV", "dB", stats, thresholds...))
		out = append(out, s)
	}

	return out
}

func statMetrics(s Stats, unit string, prec int) []Metric {
	return []Metric{
		{Label: "Mean", Value: num(s.Mean, prec), Unit: unit},
		{Label: "Std deviation", Value: num(s.Std, prec), Unit: unit},
		{Label: "Min", Value: num(s.Min, prec), Unit: unit},
		{Label: "Max", Value: num(s.Max, prec), Unit: unit},
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
