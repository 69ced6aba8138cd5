package dashboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"time"
)

// ErrUnknownShape is returned by ParseDailyTotals for an unrecognised body.
var ErrUnknownShape = errors.New("dashboard: unknown daily totals shape")

// Shape names a recognised /reports/daily response layout.
type Shape string

const (
	// ShapeSeries is [{"date": "...", "total": n}, ...].
	ShapeSeries Shape = "series"
	// ShapeEnvelope is {"daily": [...]} or {"data": [...]} around a series.
	ShapeEnvelope Shape = "envelope"
	// ShapeDateMap is {"YYYY-MM-DD": n, ...}, optionally under "data".
	ShapeDateMap Shape = "datemap"
	// ShapeLabels is {"labels": [...], "values": [...]}.
	ShapeLabels Shape = "labels"
)

// DailyTotal is the amount spent on one calendar day.
type DailyTotal struct {
	Date  string  `json:"date"`
	Total float64 `json:"total"`
}

type dailyParser struct {
	shape Shape
	parse func(body []byte) ([]DailyTotal, bool)
}

// dailyParsers are tried in order; the first match wins.
var dailyParsers = []dailyParser{
	{shape: ShapeSeries, parse: parseSeries},
	{shape: ShapeEnvelope, parse: parseEnvelope},
	{shape: ShapeLabels, parse: parseLabels},
	{shape: ShapeDateMap, parse: parseDateMap},
}

// ParseDailyTotals recognises body and returns its totals sorted by date.
func ParseDailyTotals(body []byte) (Shape, []DailyTotal, error) {
	body = bytes.TrimSpace(body)
	for _, p := range dailyParsers {
		if totals, ok := p.parse(body); ok {
			sort.SliceStable(totals, func(i, j int) bool { return totals[i].Date < totals[j].Date })
			return p.shape, totals, nil
		}
	}
	return "", nil, ErrUnknownShape
}

type seriesPoint struct {
	Date   string          `json:"date"`
	Day    string          `json:"day"`
	Total  json.RawMessage `json:"total"`
	Amount json.RawMessage `json:"amount"`
}

func parseSeries(body []byte) ([]DailyTotal, bool) {
	if len(body) == 0 || body[0] != '[' {
		return nil, false
	}
	var points []seriesPoint
	if json.Unmarshal(body, &points) != nil {
		return nil, false
	}
	out := make([]DailyTotal, 0, len(points))
	for _, p := range points {
		date := p.Date
		if date == "" {
			date = p.Day
		}
		if !isDate(date) {
			return nil, false
		}
		raw := p.Total
		if len(raw) == 0 {
			raw = p.Amount
		}
		total, ok := number(raw)
		if !ok {
			return nil, false
		}
		out = append(out, DailyTotal{Date: date, Total: total})
	}
	return out, true
}

func parseEnvelope(body []byte) ([]DailyTotal, bool) {
	var env struct {
		Daily json.RawMessage `json:"daily"`
		Data  json.RawMessage `json:"data"`
	}
	if json.Unmarshal(body, &env) != nil {
		return nil, false
	}
	for _, raw := range []json.RawMessage{env.Daily, env.Data} {
		if totals, ok := parseSeries(bytes.TrimSpace(raw)); ok {
			return totals, true
		}
	}
	return nil, false
}

func parseLabels(body []byte) ([]DailyTotal, bool) {
	var lv struct {
		Labels []string          `json:"labels"`
		Values []json.RawMessage `json:"values"`
	}
	if json.Unmarshal(body, &lv) != nil || lv.Labels == nil || len(lv.Labels) != len(lv.Values) {
		return nil, false
	}
	out := make([]DailyTotal, 0, len(lv.Labels))
	for i, label := range lv.Labels {
		total, ok := number(lv.Values[i])
		if !isDate(label) || !ok {
			return nil, false
		}
		out = append(out, DailyTotal{Date: label, Total: total})
	}
	return out, true
}

func parseDateMap(body []byte) ([]DailyTotal, bool) {
	var obj map[string]json.RawMessage
	if json.Unmarshal(body, &obj) != nil || len(obj) == 0 {
		return nil, false
	}
	if inner, ok := obj["data"]; ok && len(obj) == 1 {
		if json.Unmarshal(inner, &obj) != nil || len(obj) == 0 {
			return nil, false
		}
	}
	out := make([]DailyTotal, 0, len(obj))
	for k, v := range obj {
		total, ok := number(v)
		if !isDate(k) || !ok {
			return nil, false
		}
		out = append(out, DailyTotal{Date: k, Total: total})
	}
	return out, true
}

// number accepts a JSON number or a numeric string.
func number(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, false
	}
	var f float64
	if json.Unmarshal(raw, &f) == nil {
		return f, true
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

func isDate(s string) bool {
	_, err := time.Parse(time.DateOnly, s)
	return err == nil
}
