package api

import (
	"github.com/danielgtaylor/huma/v2"
)

// Envelope is the uniform JSON wrapper around every API response.
// Success responses carry data; failures carry an error payload.
type Envelope struct {
	Success bool          `json:"success"`
	Data    any           `json:"data,omitempty"`
	Error   *ErrorPayload `json:"error,omitempty"`
}

// ErrorPayload describes a failed request.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer wraps every response body in the envelope. Registered
// as a huma transformer so handlers return plain bodies.
func EnvelopeTransformer(_ huma.Context, _ string, v any) (any, error) {
	switch e := v.(type) {
	case *APIError:
		return &Envelope{
			Success: false,
			Error: &ErrorPayload{
				Code:    e.Code,
				Message: e.Message,
				Details: e.Details,
			},
		}, nil
	case huma.StatusError:
		return &Envelope{
			Success: false,
			Error: &ErrorPayload{
				Code:    statusToCode(e.GetStatus()),
				Message: e.Error(),
			},
		}, nil
	}

	return &Envelope{Success: true, Data: v}, nil
}
