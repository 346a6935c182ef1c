package server

import (
	"github.com/undeconstructed/solarquest/comms"
)

// Handle deals with one message from a TCP or WebSocket client. Anything
// that goes wrong is sent back to that client as an error message.
func (s *Session) Handle(connID string, msg comms.Message) {
	log := s.log.With().Str("conn", connID).Logger()
	log.Debug().Msgf("received: %s %s", msg.Head, string(msg.Data))

	var err error

	switch msg.Type() {
	case "join":
		var req comms.JoinRequest
		if err = comms.Decode(msg, &req); err != nil {
			break
		}
		p, jerr := s.Join(connID, req.Name)
		s.reply(connID, "joined", comms.JoinResponse{Player: p, Err: comms.WrapError(jerr)})
		return
	case "start":
		err = s.Start()
	case "act":
		var req comms.ActRequest
		if err = comms.Decode(msg, &req); err != nil {
			break
		}
		err = s.Act(connID, req)
	case "resync":
		err = s.Resync(connID)
	case "text":
		var text string
		if err = comms.Decode(msg, &text); err != nil {
			break
		}
		s.Text(connID, text)
	default:
		log.Info().Msgf("junk from client: %v", msg.Head.Fields())
		err = comms.ErrBadMessage
	}

	if err != nil {
		log.Debug().Err(err).Msgf("%s refused", msg.Type())
		s.reply(connID, "error", comms.WrapError(err))
	}
}

func (s *Session) reply(connID, head string, v interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.conns[connID]; ok {
		s.sendLocked(c, head, v)
	}
}
