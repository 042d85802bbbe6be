package httpdto

// ErrorResponse is the envelope for all 4xx/5xx replies. Code is the stable
// machine-readable reason; Error is the human-readable message.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func NewErrorResponse(err string, code string) ErrorResponse {
	return ErrorResponse{Error: err, Code: code}
}
