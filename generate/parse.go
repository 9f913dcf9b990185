package generate

import (
	"bytes"
	"encoding/json"
	"errors"
)

var errMissingResponse = errors.New(`missing "response" field`)

// ParseFragment decodes one stream line into a Response.
//
// Blank and whitespace-only lines carry no record: ParseFragment returns
// nil, nil and the caller skips them. A line that is not a JSON object, or
// whose "response" field is absent or not a string, fails with ErrDecode.
func ParseFragment(line []byte) (*Response, error) {
	if len(bytes.TrimSpace(line)) == 0 {
		return nil, nil
	}
	resp, err := decodeResponse(line)
	if err != nil {
		return nil, &Error{Op: "parse", Kind: ErrDecode, Err: err}
	}
	return resp, nil
}

// responseFields has Response's fields without its methods.
type responseFields Response

// decodeResponse unmarshals one JSON object, requiring the "response" field.
func decodeResponse(data []byte) (*Response, error) {
	resp := &Response{}
	// The shallower Text field captures "response" so presence is visible.
	aux := struct {
		Text *string `json:"response"`
		*responseFields
	}{responseFields: (*responseFields)(resp)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return nil, err
	}
	if aux.Text == nil {
		return nil, errMissingResponse
	}
	resp.Response = *aux.Text
	resp.Raw = append(json.RawMessage(nil), bytes.TrimSpace(data)...)
	return resp, nil
}
