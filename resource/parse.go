package resource

import (
	"bytes"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// listParser extracts purchases from one known list response shape.
type listParser struct {
	name  string
	parse func(body []byte) ([]Purchase, bool)
}

// listParsers are tried in order; the first match wins.
var listParsers = []listParser{
	{name: "array", parse: parseArray},
	{name: "data", parse: envelopeField("data")},
	{name: "purchases", parse: envelopeField("purchases")},
}

// [{...}, ...]
func parseArray(body []byte) ([]Purchase, bool) {
	if len(body) == 0 || body[0] != '[' {
		return nil, false
	}
	var out []Purchase
	if json.Unmarshal(body, &out) != nil {
		return nil, false
	}
	return out, true
}

// {"<field>": [{...}, ...]}
func envelopeField(field string) func([]byte) ([]Purchase, bool) {
	return func(body []byte) ([]Purchase, bool) {
		var env map[string]json.RawMessage
		if json.Unmarshal(body, &env) != nil {
			return nil, false
		}
		raw, ok := env[field]
		if !ok {
			return nil, false
		}
		return parseArray(bytes.TrimSpace(raw))
	}
}

func parsePurchaseList(body []byte) ([]Purchase, string, error) {
	body = bytes.TrimSpace(body)
	for _, p := range listParsers {
		if list, ok := p.parse(body); ok {
			if list == nil {
				list = []Purchase{}
			}
			return list, p.name, nil
		}
	}
	return nil, "", fmt.Errorf("%w: unrecognised purchase list shape", ErrMalformedResponse)
}

func zapShape(shape string) zap.Field { return zap.String("shape", shape) }

func zapCount(n int) zap.Field { return zap.Int("count", n) }
