// Package chat implements the conversation window management for Kaori:
// a part-structured message model, an approximate token estimator, tool
// result summarization, and budget-bounded history compaction. The package
// is pure — it receives a message history and returns a reduced one; the
// LLM call itself lives with the caller.
package chat

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// PartKind discriminates the Part union. Every switch over a PartKind must
// handle all three kinds explicitly — new kinds are a compile-visible event,
// not a silent passthrough.
type PartKind string

const (
	// PartText is plain message text.
	PartText PartKind = "text"

	// PartTool is a tool invocation together with its (eventual) result.
	PartTool PartKind = "tool"

	// PartOpaque covers reasoning traces, step markers and other payloads
	// the compactor passes through or drops verbatim but never interprets.
	PartOpaque PartKind = "opaque"
)

// ToolState is the lifecycle state of a tool-call part.
type ToolState string

const (
	ToolPending         ToolState = "pending"
	ToolOutputAvailable ToolState = "output-available"
	ToolFailed          ToolState = "failed"
)

// Part is one element of a message body. Exactly the fields for its Kind
// are populated; the rest stay zero.
type Part struct {
	Kind PartKind `json:"kind"`

	// Text part.
	Text string `json:"text,omitempty"`

	// Tool part.
	ToolName string         `json:"toolName,omitempty"`
	CallID   string         `json:"callId,omitempty"`
	State    ToolState      `json:"state,omitempty"`
	Input    map[string]any `json:"input,omitempty"`
	Output   any            `json:"output,omitempty"`

	// Opaque part.
	Raw json.RawMessage `json:"raw,omitempty"`
}

// TextPart builds a text part.
func TextPart(text string) Part {
	return Part{Kind: PartText, Text: text}
}

// ToolPart builds a tool-call part.
func ToolPart(toolName, callID string, state ToolState, input map[string]any, output any) Part {
	return Part{
		Kind:     PartTool,
		ToolName: toolName,
		CallID:   callID,
		State:    state,
		Input:    input,
		Output:   output,
	}
}

// OpaquePart builds a passthrough part from a raw payload.
func OpaquePart(raw json.RawMessage) Part {
	return Part{Kind: PartOpaque, Raw: raw}
}

// Message is a single entry in the conversation history. Messages are
// immutable once appended — the compactor returns copies, never mutates.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Parts     []Part    `json:"parts"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewTextMessage builds a message containing a single text part.
func NewTextMessage(role Role, text string) Message {
	return Message{
		ID:        uuid.New().String(),
		Role:      role,
		Parts:     []Part{TextPart(text)},
		CreatedAt: time.Now(),
	}
}

// TextContent joins the message's text parts with single spaces. Tool and
// opaque parts contribute nothing. Used by callers that feed user text to
// the persona signal extractor.
func (m Message) TextContent() string {
	var out string
	for _, p := range m.Parts {
		switch p.Kind {
		case PartText:
			if p.Text == "" {
				continue
			}
			if out != "" {
				out += " "
			}
			out += p.Text
		case PartTool, PartOpaque:
			// Not text.
		}
	}
	return out
}
