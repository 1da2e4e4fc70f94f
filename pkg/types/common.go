package types

import (
	"github.com/oklog/ulid/v2"
)

// CheckpointType identifies the interaction mode of a checkpoint.
type CheckpointType string

const (
	CheckpointChoice CheckpointType = "CHOICE"
	CheckpointText   CheckpointType = "TEXT"
	CheckpointCode   CheckpointType = "CODE"
)

// Valid reports whether t is one of the known checkpoint types.
func (t CheckpointType) Valid() bool {
	switch t {
	case CheckpointChoice, CheckpointText, CheckpointCode:
		return true
	}
	return false
}

// Role of a chat message author.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ID Generation Helpers

func GenerateID(prefix string) string {
	return prefix + "_" + ulid.Make().String()
}

func GenerateMessageID() string { return GenerateID("msg") }
func GenerateEventID() string   { return GenerateID("evt") }
func GenerateSessionID() string { return GenerateID("ses") }
