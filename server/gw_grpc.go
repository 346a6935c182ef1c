package server

import (
	"context"
	"encoding/json"
	"net"

	"github.com/undeconstructed/solarquest/comms"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// The session service carries the same messages as the comms protocol, as
// protobuf structs: {head, data} going down, and the fields of the request
// going up.
type sessionServer interface {
	Watch(*structpb.Struct, grpc.ServerStream) error
	Act(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Resync(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var sessionServiceDesc = grpc.ServiceDesc{
	ServiceName: "solarquest.Session",
	HandlerType: (*sessionServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Act", Handler: unaryHandler("Act", sessionServer.Act)},
		{MethodName: "Resync", Handler: unaryHandler("Resync", sessionServer.Resync)},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Watch", Handler: watchHandler, ServerStreams: true},
	},
}

type unaryMethod func(sessionServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(name string, m unaryMethod) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return m(srv.(sessionServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/solarquest.Session/" + name,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return m(srv.(sessionServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func watchHandler(srv interface{}, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(sessionServer).Watch(in, stream)
}

// RunGRPCGateway serves the session service until the context ends.
func RunGRPCGateway(ctx context.Context, session *Session, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return serveGRPC(ctx, session, ln)
}

func serveGRPC(ctx context.Context, session *Session, ln net.Listener) error {
	log := log.With().Str("gw", "grpc").Logger()
	log.Info().Msgf("grpc listening on %v", ln.Addr())

	srv := grpc.NewServer()
	srv.RegisterService(&sessionServiceDesc, &grpcGateway{session: session, log: log})

	go func() {
		<-ctx.Done()
		srv.Stop()
	}()

	err := srv.Serve(ln)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

type grpcGateway struct {
	session *Session
	log     zerolog.Logger
}

// Watch connects an observer, and joins if given a name.
func (g *grpcGateway) Watch(in *structpb.Struct, stream grpc.ServerStream) error {
	connID, downCh := g.session.Connect()
	defer g.session.Disconnect(connID)

	log := g.log.With().Str("conn", connID).Logger()
	log.Info().Msg("watching")

	if name := in.GetFields()["name"].GetStringValue(); name != "" {
		p, err := g.session.Join(connID, name)
		g.session.reply(connID, "joined", comms.JoinResponse{Player: p, Err: comms.WrapError(err)})
	}

	for {
		select {
		case <-stream.Context().Done():
			return nil
		case msg, ok := <-downCh:
			if !ok {
				return status.Error(codes.Aborted, "dropped by the session")
			}
			out, err := messageToStruct(msg)
			if err != nil {
				log.Error().Err(err).Msg("cannot convert message")
				continue
			}
			if err := stream.SendMsg(out); err != nil {
				log.Info().Err(err).Msg("send error")
				return err
			}
		}
	}
}

func (g *grpcGateway) Act(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	f := in.GetFields()

	req := comms.ActRequest{
		Player: int(f["player"].GetNumberValue()),
		Type:   f["type"].GetStringValue(),
	}
	if v, ok := f["value"]; ok {
		raw, err := json.Marshal(v.AsInterface())
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		req.Value = raw
	}

	if err := g.session.Act(f["conn"].GetStringValue(), req); err != nil {
		return nil, toStatus(err)
	}
	return &structpb.Struct{}, nil
}

func (g *grpcGateway) Resync(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := g.session.Resync(in.GetFields()["conn"].GetStringValue()); err != nil {
		return nil, toStatus(err)
	}
	return &structpb.Struct{}, nil
}

func messageToStruct(msg comms.Message) (*structpb.Struct, error) {
	m := map[string]interface{}{
		"head": string(msg.Head),
	}
	if len(msg.Data) > 0 {
		var data interface{}
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return nil, err
		}
		m["data"] = data
	}
	return structpb.NewStruct(m)
}

var statusCodes = map[string]codes.Code{
	"NOTSEATED":     codes.PermissionDenied,
	"NOTYOURTURN":   codes.PermissionDenied,
	"TOOFAST":       codes.ResourceExhausted,
	"BADMESSAGE":    codes.InvalidArgument,
	"BADREQUEST":    codes.InvalidArgument,
	"UNKNOWNPLAYER": codes.NotFound,
	"STARTED":       codes.FailedPrecondition,
	"NOTSTARTED":    codes.FailedPrecondition,
	"GAMEOVER":      codes.FailedPrecondition,
}

// toStatus keeps the error code at the front of the message.
func toStatus(err error) error {
	ce := comms.WrapError(err)
	code, ok := statusCodes[ce.Code]
	if !ok {
		code = codes.Unknown
	}
	return status.Error(code, ce.Code+": "+ce.Msg)
}
