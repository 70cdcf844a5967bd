package server

import (
	"github.com/ripple-dev/ripple/pkg/cascade"
	"github.com/ripple-dev/ripple/pkg/records"
)

// wsSurface adapts a WebSocket connection to the rendering surface
// contract. Effects write to it; nothing reads back.
type wsSurface struct {
	client *liveClient
}

func (s *wsSurface) PushChoices(control string, choices []string) {
	s.client.send(&ServerMessage{
		Type:    MsgChoices,
		Control: control,
		Choices: choices,
	})
}

func (s *wsSurface) PushRecords(view string, recs []records.Record) {
	s.client.send(&ServerMessage{
		Type:    MsgRecords,
		View:    view,
		Records: recs,
	})
}

func (s *wsSurface) PushCounts(view string, counts []cascade.WordCount) {
	s.client.send(&ServerMessage{
		Type:   MsgCounts,
		View:   view,
		Counts: counts,
	})
}

var _ cascade.Surface = (*wsSurface)(nil)
