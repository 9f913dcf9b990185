package generate

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// SchemaFormat reflects a JSON schema from v, a struct value or pointer, for
// use as Request.Format. Definitions are inlined.
func SchemaFormat(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, fmt.Errorf("schema format: nil value")
	}
	r := &jsonschema.Reflector{
		DoNotReference: true,
		Anonymous:      true,
	}
	schema := r.Reflect(v)
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("schema format: %w", err)
	}
	return data, nil
}

// WithSchema constrains output to the JSON schema of v. Decode the generated
// text with Response.Decode.
//
//	type Answer struct {
//	    City    string `json:"city"`
//	    Country string `json:"country"`
//	}
//	client, err := generate.New(endpoint, model, generate.WithSchema(Answer{}))
func WithSchema(v any) Option {
	return func(c *Client) {
		format, err := SchemaFormat(v)
		if err != nil {
			if c.optErr == nil {
				c.optErr = err
			}
			return
		}
		c.defaults.Format = format
	}
}
