package dto

// Envelope wraps every assistant API response.
type Envelope struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// AnswerData is the payload of a successful assistant call.
type AnswerData struct {
	Content   string `json:"content"`
	SessionID string `json:"sessionId,omitempty"`
	TokenUsed int    `json:"tokenUsed,omitempty"`
}

// AnswerResponse documents the success envelope of the assistant endpoints.
type AnswerResponse struct {
	Success bool       `json:"success"`
	Code    int        `json:"code"`
	Message string     `json:"message"`
	Data    AnswerData `json:"data"`
}

// HealthResponse is the response for health check.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Provider string `json:"provider,omitempty"`
}

// Fail builds an unsuccessful envelope.
func Fail(code int, message string) Envelope {
	return Envelope{Success: false, Code: code, Message: message}
}
