package service

import (
	"encoding/json"
	"net/http"

	"github.com/mitchellh/mapstructure"
)

type Response struct {
	StatusCode int
	Header     http.Header

	// Data is the body decoded as JSON. It holds the raw text as a string
	// when decoding failed, and nil when the body was empty.
	Data any
	Body []byte

	Request *Request

	// Elapsed is the round trip in seconds, only meaningful when Timed is set.
	Elapsed float64
	Timed   bool
}

// Bind decodes the body into v.
func (r *Response) Bind(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Decode copies the decoded body held in Data into v, matching fields by their
// json tag. Numbers are converted to the field types when they fit.
func (r *Response) Decode(v any) error {
	d, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           v,
	})
	if err != nil {
		return err
	}

	return d.Decode(r.Data)
}
