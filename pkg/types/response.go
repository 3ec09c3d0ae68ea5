package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the body of every failed dashboard request.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
