package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"

	"github.com/undeconstructed/solarquest/comms"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
)

type WsJSONMessage struct {
	Head string          `json:"head"`
	Data json.RawMessage `json:"data,omitempty"`
}

type commsHandler struct {
	session *Session
	origins []string
	log     zerolog.Logger
}

func (ch *commsHandler) serveWS(c *gin.Context) {
	addr := c.Request.RemoteAddr

	log := ch.log.With().Str("client", addr).Logger()
	log.Info().Msgf("connecting")

	socket, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		Subprotocols:   []string{"comms"},
		OriginPatterns: ch.origins,
	})
	if err != nil {
		log.Info().Err(err).Msg("websocket accept error")
		return
	}
	defer socket.Close(websocket.StatusInternalError, "the sky is falling")

	if socket.Subprotocol() != "comms" {
		socket.Close(websocket.StatusPolicyViolation, "client must speak the comms subprotocol")
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	connID, downCh := ch.session.Connect()
	defer ch.session.Disconnect(connID)

	go func() {
		// read downCh, write to conn
		for msg := range downCh {
			if err := sendDownWs(ctx, socket, msg); err != nil {
				log.Info().Err(err).Msg("send error")
				break
			}
		}
		// either dropped by the session or the socket failed
		cancel()
	}()

	for {
		// read conn, despatch into session
		msg, err := readMessageWs(ctx, socket)
		if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
			return
		}
		if err != nil {
			log.Info().Err(err).Msg("client read error")
			return
		}
		ch.session.Handle(connID, msg)
	}
}

func sendDownWs(ctx context.Context, ws *websocket.Conn, msg comms.Message) error {
	w, err := ws.Writer(ctx, websocket.MessageText)
	if err != nil {
		return err
	}
	defer w.Close()

	jmsg := WsJSONMessage{
		Head: string(msg.Head),
		Data: json.RawMessage(msg.Data),
	}

	tmsg, err := json.Marshal(jmsg)
	if err != nil {
		return err
	}

	_, err = w.Write(tmsg)
	if err != nil {
		return err
	}

	return w.Close()
}

func readMessageWs(ctx context.Context, c *websocket.Conn) (comms.Message, error) {
	typ, r, err := c.Reader(ctx)
	if err != nil {
		return comms.Message{}, err
	}

	if typ != websocket.MessageText {
		return comms.Message{}, fmt.Errorf("client sent a %v", typ)
	}

	// text type means fully encapsulated in JSON
	bytes, err := ioutil.ReadAll(r)
	if err != nil {
		return comms.Message{}, err
	}
	msg := WsJSONMessage{}
	if err := json.Unmarshal(bytes, &msg); err != nil {
		return comms.Message{}, err
	}
	if msg.Head == "" {
		return comms.Message{}, fmt.Errorf("message with no head")
	}

	return comms.Message{Head: comms.Head(msg.Head), Data: msg.Data}, nil
}
