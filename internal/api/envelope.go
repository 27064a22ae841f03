package api

import (
	"github.com/danielgtaylor/huma/v2"
)

// EnvelopeVersion is the wire version clients use to detect envelope
// format changes. Bump only on breaking envelope changes.
const EnvelopeVersion = 1

// APIEnvelope wraps every success response (and plain-string errors).
type APIEnvelope struct {
	Version int    `json:"v" doc:"Envelope format version"`
	Success bool   `json:"success" doc:"Whether the request succeeded"`
	Data    any    `json:"data,omitempty" doc:"Response payload"`
	Error   string `json:"error,omitempty" doc:"Error message when success is false"`
}

// APIErrorEnvelope wraps coded errors so clients can branch on the
// machine-readable code instead of parsing messages.
type APIErrorEnvelope struct {
	Version int    `json:"v" doc:"Envelope format version"`
	Success bool   `json:"success" doc:"Always false"`
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

// EnvelopeTransformer wraps every response body in the versioned
// envelope. Register it on the huma config before creating the API.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	if status >= "400" {
		if apiErr, ok := v.(*APIError); ok && apiErr.Code != "" {
			return APIErrorEnvelope{
				Version: EnvelopeVersion,
				Success: false,
				Code:    apiErr.Code,
				Message: apiErr.Message,
				Details: apiErr.Details,
			}, nil
		}
		if err, ok := v.(error); ok {
			return APIEnvelope{
				Version: EnvelopeVersion,
				Success: false,
				Error:   err.Error(),
			}, nil
		}
	}

	return APIEnvelope{
		Version: EnvelopeVersion,
		Success: true,
		Data:    v,
	}, nil
}
