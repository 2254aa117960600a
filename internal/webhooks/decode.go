package webhooks

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// jsonDecoder decodes a JSON body into the provider-typed struct produced by
// newTyped, plus the generic map form. Malformed JSON is a decode failure;
// the pipeline surfaces it as a MalformedPayload rejection.
type jsonDecoder struct {
	newTyped func() any
}

func (d *jsonDecoder) Decode(rawBody []byte) (*NativePayload, error) {
	typed := d.newTyped()
	if err := json.Unmarshal(rawBody, typed); err != nil {
		return nil, fmt.Errorf("decoding JSON payload: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(rawBody, &raw); err != nil {
		return nil, fmt.Errorf("decoding JSON payload: %w", err)
	}

	return &NativePayload{Typed: typed, Raw: raw}, nil
}

// formDecoder decodes a URL-encoded body (legacy payment postbacks) into a
// string-keyed map. Repeated keys keep their first value.
type formDecoder struct{}

func (d *formDecoder) Decode(rawBody []byte) (*NativePayload, error) {
	values, err := url.ParseQuery(string(rawBody))
	if err != nil {
		return nil, fmt.Errorf("decoding form payload: %w", err)
	}

	fields := make(map[string]string, len(values))
	raw := make(map[string]any, len(values))
	for key := range values {
		v := values.Get(key)
		fields[key] = v
		raw[key] = v
	}

	return &NativePayload{Typed: fields, Raw: raw}, nil
}
