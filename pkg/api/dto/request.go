package dto

// QuestionRequest is the body of the session and hint endpoints.
type QuestionRequest struct {
	Question string `json:"question" binding:"required"`
}

// ErrorAnalysisRequest asks for an analysis of a failed submission.
type ErrorAnalysisRequest struct {
	Question string `json:"question" binding:"required"`
	ErrorMsg string `json:"errorMsg"`
}
