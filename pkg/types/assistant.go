package types

import "time"

// AssistantEventType names a notification for the floating assistant.
type AssistantEventType string

const (
	EventPageEnter           AssistantEventType = "page_enter"
	EventCheckpointCompleted AssistantEventType = "checkpoint_completed"
	EventChapterCompleted    AssistantEventType = "chapter_completed"
	EventAnalyzeError        AssistantEventType = "analyze_error"
	EventCustom              AssistantEventType = "custom"
)

// ErrorInfo carries the failure a learner may ask the assistant to analyze.
type ErrorInfo struct {
	Message        string         `json:"errorMessage"`
	Code           string         `json:"code,omitempty"`
	CheckpointType CheckpointType `json:"checkpointType,omitempty"`
}

// AssistantEvent is published on the assistant bus.
type AssistantEvent struct {
	ID        string             `json:"id"`
	Type      AssistantEventType `json:"type"`
	Message   string             `json:"message,omitempty"`
	ErrorInfo *ErrorInfo         `json:"errorInfo,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// NewAssistantEvent stamps an event with an id and the current time.
func NewAssistantEvent(kind AssistantEventType, message string) AssistantEvent {
	return AssistantEvent{
		ID:        GenerateEventID(),
		Type:      kind,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// ChatMessage is one entry of a chat transcript.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChatMessage creates a message with a fresh id.
func NewChatMessage(role Role, content string) ChatMessage {
	return ChatMessage{
		ID:        GenerateMessageID(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// Message is a single LLM conversation turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Usage statistics for LLM
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
