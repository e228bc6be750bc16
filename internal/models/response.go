package models

// APIResponse is a generic API response wrapper
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`

	// ErrorType mirrors Result.ErrorType so clients can branch without parsing Error.
	ErrorType ErrorType   `json:"errorType,omitempty"`
	Errors    interface{} `json:"errors,omitempty"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data interface{}) APIResponse {
	return APIResponse{
		Success: true,
		Data:    data,
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(message string) APIResponse {
	return APIResponse{
		Success: false,
		Error:   message,
	}
}

// PhotoUploadResponse is returned after a profile photo passes moderation.
type PhotoUploadResponse struct {
	URL string `json:"url"`
}
