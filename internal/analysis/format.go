package analysis

import (
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"
)

func pct(part, whole float64) string {
	return strconv.FormatFloat(part/whole*100, 'f', 2, 64)
}

func num(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}

// floatMetric adds a metric when path exists in r.
func floatMetric(ms []Metric, r gjson.Result, path, label, unit string, prec int) []Metric {
	v := r.Get(path)
	if !v.Exists() || v.Type == gjson.Null {
		return ms
	}
	return append(ms, Metric{Label: label, Value: num(v.Float(), prec), Unit: unit})
}

func intMetric(ms []Metric, r gjson.Result, path, label string) []Metric {
	v := r.Get(path)
	if !v.Exists() || v.Type == gjson.Null {
		return ms
	}
	return append(ms, Metric{Label: label, Value: fmt.Sprintf("%d", v.Int())})
}

func stringMetric(ms []Metric, r gjson.Result, path, label string) []Metric {
	v := r.Get(path)
	if !v.Exists() || v.Type == gjson.Null || v.String() == "" {
		return ms
	}
	return append(ms, Metric{Label: label, Value: v.String()})
}

// number returns the value at path when it is present and numeric.
func number(r gjson.Result, path string) (float64, bool) {
	v := r.Get(path)
	if v.Type != gjson.Number {
		return 0, false
	}
	return v.Float(), true
}

// readStats needs min, mean and max; std defaults to zero.
func readStats(r gjson.Result) (Stats, bool) {
	if !r.IsObject() {
		return Stats{}, false
	}
	lo, okMin := number(r, "min")
	mean, okMean := number(r, "mean")
	hi, okMax := number(r, "max")
	if !okMin || !okMean || !okMax {
		return Stats{}, false
	}
	std, _ := number(r, "std")
	return Stats{Min: lo, Mean: mean, Std: std, Max: hi}, true
}
