package api

import (
	"math"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/j-veylop/gemini-token-dashboard/internal/models"
)

// Responses are validated field by field. Unknown fields are ignored; a
// missing or mistyped known field rejects the whole snapshot.

func parseRoot(body []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, payloadErrorf("body is not valid JSON")
	}
	return gjson.ParseBytes(body), nil
}

func decodeSummaryStats(body []byte) (models.SummaryStats, error) {
	root, err := parseRoot(body)
	if err != nil {
		return models.SummaryStats{}, err
	}
	if !root.IsObject() {
		return models.SummaryStats{}, payloadErrorf("expected object, got %s", root.Type)
	}

	var s models.SummaryStats
	fields := []struct {
		name string
		dst  *int64
	}{
		{"daily_total", &s.DailyTotal},
		{"monthly_total", &s.MonthlyTotal},
		{"peak_day", &s.PeakDay},
		{"lifetime_total", &s.LifetimeTotal},
	}
	for _, f := range fields {
		v, err := countField(root, f.name)
		if err != nil {
			return models.SummaryStats{}, err
		}
		*f.dst = v
	}
	return s, nil
}

func decodeGraphStats(body []byte) (models.GraphStats, error) {
	root, err := parseRoot(body)
	if err != nil {
		return models.GraphStats{}, err
	}
	if !root.IsObject() {
		return models.GraphStats{}, payloadErrorf("expected object, got %s", root.Type)
	}

	var g models.GraphStats
	if g.InputTokens, err = countField(root, "input_tokens"); err != nil {
		return models.GraphStats{}, err
	}
	if g.OutputTokens, err = countField(root, "output_tokens"); err != nil {
		return models.GraphStats{}, err
	}
	if g.PeakHours, err = stringField(root, "peak_hours"); err != nil {
		return models.GraphStats{}, err
	}
	if g.DailyChange, err = stringField(root, "daily_change"); err != nil {
		return models.GraphStats{}, err
	}
	return g, nil
}

func decodeTokenUsage(body []byte) ([]models.HourlyTokenPoint, error) {
	root, err := parseRoot(body)
	if err != nil {
		return nil, err
	}
	if !root.IsArray() {
		return nil, payloadErrorf("expected array, got %s", root.Type)
	}

	elems := root.Array()
	points := make([]models.HourlyTokenPoint, 0, len(elems))
	for i, elem := range elems {
		if !elem.IsObject() {
			return nil, payloadErrorf("element %d: expected object, got %s", i, elem.Type)
		}
		hour, err := numberField(elem, "hour")
		if err != nil {
			return nil, payloadErrorf("element %d: %v", i, err)
		}
		if hour < 0 || hour > models.HoursPerDay {
			return nil, payloadErrorf("element %d: hour %v outside [0, %d]", i, hour, models.HoursPerDay)
		}
		tokens, err := countField(elem, "tokens")
		if err != nil {
			return nil, payloadErrorf("element %d: %v", i, err)
		}
		points = append(points, models.HourlyTokenPoint{Hour: hour, Tokens: tokens})
	}
	return points, nil
}

func numberField(obj gjson.Result, name string) (float64, error) {
	r := obj.Get(gjson.Escape(name))
	if !r.Exists() {
		return 0, payloadErrorf("missing field %q", name)
	}
	if r.Type != gjson.Number {
		return 0, payloadErrorf("field %q: expected number, got %s", name, r.Type)
	}
	v := r.Float()
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, payloadErrorf("field %q: not a finite number", name)
	}
	return v, nil
}

// countField reads a non-negative token count. Fractional values are rounded.
func countField(obj gjson.Result, name string) (int64, error) {
	v, err := numberField(obj, name)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, payloadErrorf("field %q: negative count %v", name, v)
	}
	if v >= math.MaxInt64 {
		return 0, payloadErrorf("field %q: count %v out of range", name, v)
	}

	r := obj.Get(gjson.Escape(name))
	if !strings.ContainsAny(r.Raw, ".eE") {
		// Plain integers keep full precision.
		return r.Int(), nil
	}
	return int64(math.Round(v)), nil
}

func stringField(obj gjson.Result, name string) (string, error) {
	r := obj.Get(gjson.Escape(name))
	if !r.Exists() {
		return "", payloadErrorf("missing field %q", name)
	}
	if r.Type != gjson.String {
		return "", payloadErrorf("field %q: expected string, got %s", name, r.Type)
	}
	return r.String(), nil
}
