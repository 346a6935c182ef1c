package server

import (
	"context"
	"errors"
	"io"
	"net"

	"github.com/undeconstructed/solarquest/comms"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RunTCPGateway serves the comms protocol on a TCP port until the context
// ends.
func RunTCPGateway(ctx context.Context, session *Session, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return serveTCP(ctx, session, ln)
}

func serveTCP(ctx context.Context, session *Session, ln net.Listener) error {
	log := log.With().Str("gw", "tcp").Logger()
	log.Info().Msgf("comms listening on tcp:%v", ln.Addr())

	m := &tcpManager{
		session: session,
		log:     log,
	}

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	err := m.Serve(ln)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

type tcpManager struct {
	session *Session
	log     zerolog.Logger
}

func (m *tcpManager) Serve(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go m.manageTcpConnection(conn)
	}
}

func (m *tcpManager) manageTcpConnection(conn net.Conn) {
	defer conn.Close()

	log := m.log.With().Str("client", conn.RemoteAddr().String()).Logger()
	log.Info().Msgf("connecting")

	upStream := comms.NewDecoder(conn)
	dnStream := comms.NewEncoder(conn)

	connID, downCh := m.session.Connect()
	defer m.session.Disconnect(connID)

	go func() {
		// read downCh, write to conn
		for msg := range downCh {
			if err := dnStream.Send(msg); err != nil {
				log.Info().Err(err).Msg("send error")
				conn.Close()
				break
			}
		}
		// dropped by the session
		conn.Close()
	}()

	for {
		// read conn, despatch into session
		msg, err := upStream.Decode()
		if err != nil {
			if err != io.EOF && !errors.Is(err, net.ErrClosed) {
				log.Info().Err(err).Msg("decode error")
			}
			return
		}
		m.session.Handle(connID, msg)
	}
}
