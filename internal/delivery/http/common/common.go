package http_common

// ErrorResponse is the single wire shape for every failure class.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func NewError(message string) ErrorResponse {
	return ErrorResponse{
		Success: false,
		Message: message,
	}
}
