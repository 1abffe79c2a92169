package analysis

import "github.com/tidwall/gjson"

func renderUrbanHeat(p gjson.Result) []Section {
	var out []Section

	temp := p.Get("temperature_analysis")
	ts := Section{Heading: "Surface Temperature"}
	ts.Metrics = floatMetric(ts.Metrics, temp, "mean_temperature_c", "Mean", "°C", 2)
	ts.Metrics = floatMetric(ts.Metrics, temp, "temperature_std_c", "Std deviation", "°C", 2)
	ts.Metrics = floatMetric(ts.Metrics, temp, "min_temperature_c", "Min", "°C", 2)
	ts.Metrics = floatMetric(ts.Metrics, temp, "max_temperature_c", "Max", "°C", 2)
	ts.Metrics = floatMetric(ts.Metrics, temp, "heat_threshold_c", "Heat threshold", "°C", 2)
	if frac, ok := number(temp, "urban_heat_fraction"); ok {
		ts.Metrics = append(ts.Metrics, Metric{Label: "Heat island share", Value: num(frac*100, 1), Unit: "%"})
	}
	if stats, ok := readStats(temperatureStats(temp)); ok {
		var thresholds []Threshold
		if t, ok := number(temp, "heat_threshold_c"); ok {
			thresholds = append(thresholds, Threshold{Label: "heat threshold", Value: t, Mode: SingleSided})
		}
		ts.Bars = append(ts.Bars, NewBar("Land surface temperature", "°C", stats, thresholds...))
	}
	out = appendSection(out, ts)

	veg := Section{Heading: "Vegetation"}
	veg.Metrics = floatMetric(veg.Metrics, p, "vegetation_analysis.mean_ndvi", "Mean NDVI", "", 3)
	veg.Metrics = stringMetric(veg.Metrics, p, "vegetation_analysis.vegetation_health", "Vegetation health")
	out = appendSection(out, veg)

	dq := Section{Heading: "Data Quality"}
	dq.Metrics = intMetric(dq.Metrics, p, "data_quality.valid_pixels", "Valid pixels")
	dq.Metrics = intMetric(dq.Metrics, p, "data_quality.total_pixels", "Total pixels")
	if vp, ok := number(p, "data_quality.valid_pixels"); ok {
		if tp, ok := number(p, "data_quality.total_pixels"); ok && tp > 0 {
			dq.Metrics = append(dq.Metrics, Metric{Label: "Valid share", Value: pct(vp, tp), Unit: "%"})
		}
	}
	dq.Metrics = floatMetric(dq.Metrics, p, "data_quality.coverage_percentage", "Coverage", "%", 1)
	dq.Metrics = floatMetric(dq.Metrics, p, "data_quality.cloud_cover", "Cloud cover", "%", 1)
	dq.Metrics = stringMetric(dq.Metrics, p, "data_quality.image_date", "Image date")
	dq.Metrics = stringMetric(dq.Metrics, p, "data_quality.collection", "Collection")
	out = appendSection(out, dq)

	proc := Section{Heading: "Processing"}
	proc.Metrics = stringMetric(proc.Metrics, p, "processing_info.data_source", "Data source")
	proc.Metrics = stringMetric(proc.Metrics, p, "processing_info.spatial_resolution", "Resolution")
	proc.Text = p.Get("processing_info.note").String()
	out = appendSection(out, proc)

	return out
}

// temperatureStats reshapes the temperature block into a {min,mean,std,max}
// object so it reads like the other stats blocks.
func temperatureStats(temp gjson.Result) gjson.Result {
	if !temp.IsObject() {
		return gjson.Result{}
	}
	fields := []struct{ from, to string }{
		{"min_temperature_c", "min"},
		{"mean_temperature_c", "mean"},
		{"temperature_std_c", "std"},
		{"max_temperature_c", "max"},
	}
	raw := "{"
	first := true
	for _, f := range fields {
		v := temp.Get(f.from)
		if v.Type != gjson.Number {
			continue
		}
		if !first {
			raw += ","
		}
		raw += `"` + f.to + `":` + v.Raw
		first = false
	}
	raw += "}"
	return gjson.Parse(raw)
}
