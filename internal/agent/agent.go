// Package agent models the planning agent's output boundary. The
// engine consumes agent responses as a tagged union and never second-
// guesses their semantic plausibility; malformed pieces degrade to
// smaller results downstream.
package agent

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"weekplan/internal/schedule"
)

// UpdateType tags a schedule response: no change, an incremental
// change set, or a full weekly replacement.
type UpdateType string

const (
	UpdateNone    UpdateType = "none"
	UpdatePartial UpdateType = "partial"
	UpdateFull    UpdateType = "full"
)

// Response is the agent's schedule payload.
type Response struct {
	UpdateType UpdateType `json:"update_type"`

	// WeeklySchedule is set for full updates.
	WeeklySchedule []schedule.DayBlocks `json:"weekly_schedule,omitempty"`

	// Changes is the ordered operation list for partial updates.
	Changes []schedule.Change `json:"changes,omitempty"`

	Summary string `json:"schedule_summary,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

// DecodeResponse reads one agent response. Structural JSON errors and
// unknown update types are reported; a missing update_type is treated
// as "none" so an empty object means no change.
func DecodeResponse(r io.Reader) (Response, error) {
	var resp Response
	dec := json.NewDecoder(r)
	if err := dec.Decode(&resp); err != nil {
		return Response{}, fmt.Errorf("decode agent response: %w", err)
	}

	switch resp.UpdateType {
	case UpdateNone, UpdatePartial, UpdateFull:
	case "":
		resp.UpdateType = UpdateNone
	default:
		return Response{}, fmt.Errorf("unknown update_type %q", resp.UpdateType)
	}
	return resp, nil
}

// Part is one typed fragment of an agent chat message.
type Part struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Message is an agent chat message. Older transports put the whole
// text in Content; newer ones send typed parts. Text is the single
// canonical extraction, so callers never probe field shapes.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content,omitempty"`
	Parts   []Part `json:"parts,omitempty"`
}

// Text returns the message's textual content regardless of transport
// shape: Content when present, otherwise the concatenated text parts.
func (m Message) Text() string {
	if m.Content != "" {
		return m.Content
	}
	var b strings.Builder
	for _, p := range m.Parts {
		if p.Type == "text" {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}
