package webhook

import (
	"time"

	"github.com/goccy/go-json"
)

// Provider event types, as delivered on the wire.
const (
	TypeCallStarted      = "call.started"
	TypeCallEnded        = "call.ended"
	TypeEndOfCallReport  = "end-of-call-report"
	TypeTranscript       = "transcript"
	TypeFunctionCall     = "function-call"
	TypeAssistantRequest = "assistant-request"
)

type CallPayload struct {
	ID            string          `json:"id"`
	Status        string          `json:"status,omitempty"`
	StartedAt     *time.Time      `json:"startedAt,omitempty"`
	EndedAt       *time.Time      `json:"endedAt,omitempty"`
	Transcript    string          `json:"transcript,omitempty"`
	RecordingURL  string          `json:"recordingUrl,omitempty"`
	Summary       string          `json:"summary,omitempty"`
	Cost          *float64        `json:"cost,omitempty"`
	CostBreakdown json.RawMessage `json:"costBreakdown,omitempty"`
	Messages      json.RawMessage `json:"messages,omitempty"`
}

// Event is the provider's webhook envelope. Transcript carries the partial
// text on real-time transcript events; everything else rides on Call.
type Event struct {
	Type       string       `json:"type"`
	Call       *CallPayload `json:"call,omitempty"`
	Transcript string       `json:"transcript,omitempty"`
}
