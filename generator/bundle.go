package generator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/sjson"

	"auto_social_publisher/failure"
	"auto_social_publisher/tags"
)

// Bundle is the three-part schema handed to the model: the route-specific
// slice, the root schema and the schema shared by every platform.
type Bundle struct {
	Schema       json.RawMessage `json:"schema"`
	RootSchema   json.RawMessage `json:"root_schema"`
	CommonSchema json.RawMessage `json:"common_schema"`
}

var emptyObject = json.RawMessage(`{}`)

// BuildBundle reads <route>, <root> and <common> from the schema document.
// Absent tags become {}; present tags must hold valid JSON.
func BuildBundle(schemaDoc, route string) (Bundle, error) {
	var b Bundle
	parts := []struct {
		tag string
		dst *json.RawMessage
	}{
		{strings.ToLower(route), &b.Schema},
		{"root", &b.RootSchema},
		{"common", &b.CommonSchema},
	}
	for _, p := range parts {
		body, ok := tags.ExtractOne(schemaDoc, p.tag)
		if !ok || p.tag == "" {
			*p.dst = emptyObject
			continue
		}
		if !json.Valid([]byte(body)) {
			return Bundle{}, fmt.Errorf("%w: schema tag <%s> is not valid json", failure.ErrUpstreamShape, p.tag)
		}
		*p.dst = json.RawMessage(body)
	}
	return b, nil
}

// JSON assembles the bundle as a single object.
func (b Bundle) JSON() ([]byte, error) {
	out := []byte(`{}`)
	var err error
	for _, kv := range []struct {
		key string
		val json.RawMessage
	}{
		{"schema", b.Schema},
		{"root_schema", b.RootSchema},
		{"common_schema", b.CommonSchema},
	} {
		val := kv.val
		if len(val) == 0 {
			val = emptyObject
		}
		out, err = sjson.SetRawBytes(out, kv.key, val)
		if err != nil {
			return nil, fmt.Errorf("bundle: set %s: %w", kv.key, err)
		}
	}
	return out, nil
}

func (b Bundle) MarshalJSON() ([]byte, error) {
	return b.JSON()
}

func compact(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "{}"
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
