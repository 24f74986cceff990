package model

// ErrorResponse is the JSON error body of the device management API.
type ErrorResponse struct {
	Code        int64           `json:"code,omitempty"`
	Message     string          `json:"message,omitempty"`
	Description string          `json:"description,omitempty"`
	MoreInfo    string          `json:"moreInfo,omitempty"`
	ErrorItems  []ErrorListItem `json:"errorItems,omitempty"`
}

// ErrorListItem details one cause inside an ErrorResponse.
type ErrorListItem struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error returns an ErrorResponse carrying only msg.
func Error(msg string) ErrorResponse {
	return ErrorResponse{Message: msg}
}

// ErrorWithCode allows specifying a numeric error code.
func ErrorWithCode(code int64, msg string) ErrorResponse {
	return ErrorResponse{
		Code:    code,
		Message: msg,
	}
}
