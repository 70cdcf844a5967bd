package server

import (
	"github.com/ripple-dev/ripple/pkg/cascade"
	"github.com/ripple-dev/ripple/pkg/records"
)

// Surface is the rendering collaborator handed to GraphBuilder; the
// server implements it over the session's WebSocket connection.
type Surface = cascade.Surface

// Client message types.
const (
	// MsgSet mutates a source node: {"type":"set","key":...,"value":...}.
	MsgSet = "set"
)

// Server message types.
const (
	MsgHello   = "hello"
	MsgChoices = "choices"
	MsgRecords = "records"
	MsgCounts  = "counts"
	MsgErrors  = "errors"
)

// ClientMessage is an inbound wire message.
type ClientMessage struct {
	Type  string `json:"type"`
	Key   string `json:"key,omitempty"`
	Value string `json:"value,omitempty"`
}

// ServerMessage is an outbound wire message. Exactly one payload field is
// populated per message, selected by Type.
type ServerMessage struct {
	Type      string              `json:"type"`
	SessionID string              `json:"sessionId,omitempty"`
	Control   string              `json:"control,omitempty"`
	View      string              `json:"view,omitempty"`
	Choices   []string            `json:"choices,omitempty"`
	Records   []records.Record    `json:"records,omitempty"`
	Counts    []cascade.WordCount `json:"counts,omitempty"`
	Errors    []WireError         `json:"errors,omitempty"`
}

// WireError is one node failure reported to the client.
type WireError struct {
	Node    string `json:"node"`
	Message string `json:"message"`
}
