// Package types holds the JSON envelopes every handler writes.
package types

// SuccessEnvelope is the {"data": ...} wrapper for successful responses.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// ErrorBody is what a client sees for a failed request. Details is only set
// for codes that allow it.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error ErrorBody `json:"error"`
}

// Failure builds an error envelope for code with the given message.
func Failure(code, message string, details any) ErrorEnvelope {
	return ErrorEnvelope{Error: ErrorBody{Code: code, Message: message, Details: details}}
}
