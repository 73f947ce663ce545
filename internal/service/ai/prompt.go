package ai

import (
	"fmt"

	"github.com/zhouzirui/persona-chat/backend/internal/model/chat"
	"github.com/zhouzirui/persona-chat/backend/internal/model/persona"
)

// Fixed replies used when the provider returns no content.
const (
	LengthTruncatedReply = "Sorry, my response was too long. Please try asking in a simpler way!"
	SafetyBlockedReply   = "I apologize, but I can't respond to that due to safety guidelines."
	NoResponseReply      = "I'm having trouble generating a response. Please try again!"
)

// BuildOutgoingMessage prefixes the user message with persona context. The
// opening turn of a session carries the full persona prompt; later turns only
// name the active persona so a mid-conversation switch is still announced.
func BuildOutgoingMessage(p persona.Persona, userMessage string, firstTurn bool) string {
	if firstTurn {
		return fmt.Sprintf("%s\n\nUser: %s", p.Prompt, userMessage)
	}
	return fmt.Sprintf("[You are currently in %s persona - respond accordingly]\n\n%s", p.Name, userMessage)
}

// BuildHistory translates stored turns into provider history.
func BuildHistory(turns []chat.Turn) []Content {
	history := make([]Content, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case chat.RoleUser:
			history = append(history, Content{Role: RoleUser, Parts: []string{turn.Content}})
		case chat.RoleAssistant:
			history = append(history, Content{Role: RoleModel, Parts: []string{turn.Content}})
		}
	}
	return history
}

// ReplyText picks the assistant message for a provider response.
func ReplyText(resp Response) string {
	if resp.HasContent {
		return resp.Text
	}
	switch resp.FinishReason {
	case FinishLengthTruncated:
		return LengthTruncatedReply
	case FinishSafetyBlocked:
		return SafetyBlockedReply
	default:
		return NoResponseReply
	}
}
