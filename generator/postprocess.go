package generator

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"auto_social_publisher/failure"
)

// Well-known paths into the generated document.
const (
	PathCaption         = "output.caption"
	PathImageSuggestion = "common_schema.image_suggestion"
	PathTitle           = "root_schema.name"
)

// Content is the model's JSON document. Its shape is set by the schema
// bundle and is not checked here beyond being an object.
type Content struct {
	raw []byte
}

// ParseContent accepts raw only if it is a single JSON object.
func ParseContent(raw string) (Content, error) {
	b := bytes.TrimSpace([]byte(raw))
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(b, &obj); err != nil {
		return Content{}, fmt.Errorf("%w: model output is not a json object: %w", failure.ErrUpstreamShape, err)
	}
	if obj == nil {
		return Content{}, fmt.Errorf("%w: model output is null", failure.ErrUpstreamShape)
	}
	return Content{raw: b}, nil
}

// Lookup returns the string at a gjson path such as "output.caption".
// Non-string values come back as their JSON text.
func (c Content) Lookup(path string) (string, error) {
	r := gjson.GetBytes(c.raw, path)
	if !r.Exists() {
		return "", fmt.Errorf("%w: generated content has no %s", failure.ErrUpstreamShape, path)
	}
	if r.Type == gjson.String {
		return r.Str, nil
	}
	return r.Raw, nil
}

// Raw returns the document as received, trimmed.
func (c Content) Raw() json.RawMessage {
	return json.RawMessage(c.raw)
}

func (c Content) MarshalJSON() ([]byte, error) {
	if len(c.raw) == 0 {
		return []byte("null"), nil
	}
	return c.raw, nil
}
