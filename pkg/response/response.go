package response

// ErrorBody is the JSON envelope for every failed request.
type ErrorBody struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func Error(code, message string, details any) ErrorBody {
	return ErrorBody{
		Status:  "error",
		Code:    code,
		Message: message,
		Details: details,
	}
}
