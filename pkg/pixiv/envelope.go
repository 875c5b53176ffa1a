package pixiv

import (
	"bytes"
	"encoding/json"

	errs "pixivarc/pkg/errors"
)

// Response is the envelope wrapping every platform JSON response
type Response[T any] struct {
	Error   bool            `json:"error"`
	Message string          `json:"message"`
	Body    json.RawMessage `json:"body"`
}

// Downcast unwraps the envelope body. A response with error=true or a
// null/absent body is never a valid T.
func (r Response[T]) Downcast() (T, error) {
	var zero T

	if r.Error || len(r.Body) == 0 || bytes.Equal(r.Body, []byte("null")) {
		return zero, errs.Envelope(r.Message)
	}

	var body T
	if err := json.Unmarshal(r.Body, &body); err != nil {
		return zero, errs.New(errs.ErrorTypeParsing, "failed to parse envelope body: "+err.Error())
	}

	return body, nil
}
