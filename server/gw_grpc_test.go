package server

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/undeconstructed/solarquest/comms"
	"github.com/undeconstructed/solarquest/game"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

func startGRPC(t *testing.T, s *Session) *grpc.ClientConn {
	t.Helper()
	ln := bufconn.Listen(1 << 20)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- serveGRPC(ctx, s, ln)
	}()

	conn, err := grpc.DialContext(ctx, "bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) {
			return ln.Dial()
		}),
		grpc.WithInsecure(),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	t.Cleanup(func() {
		conn.Close()
		cancel()
		if err := <-done; err != nil {
			t.Errorf("serve: %v", err)
		}
	})
	return conn
}

type watcher struct {
	t      *testing.T
	stream grpc.ClientStream
	conn   string
}

func watch(t *testing.T, ctx context.Context, cc *grpc.ClientConn, name string) *watcher {
	t.Helper()
	stream, err := cc.NewStream(ctx, &sessionServiceDesc.Streams[0], "/solarquest.Session/Watch")
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	in, _ := structpb.NewStruct(map[string]interface{}{"name": name})
	if err := stream.SendMsg(in); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := stream.CloseSend(); err != nil {
		t.Fatalf("close send: %v", err)
	}

	w := &watcher{t: t, stream: stream}
	hello := w.expect("hello")
	w.conn = hello.GetFields()["conn"].GetStringValue()
	return w
}

// expect returns the data of the next message with the head.
func (w *watcher) expect(head string) *structpb.Struct {
	w.t.Helper()
	for {
		out := new(structpb.Struct)
		if err := w.stream.RecvMsg(out); err != nil {
			w.t.Fatalf("waiting for %s: %v", head, err)
		}
		if out.GetFields()["head"].GetStringValue() == head {
			return out.GetFields()["data"].GetStructValue()
		}
	}
}

func (w *watcher) expectEvent(typ game.EventType) *structpb.Struct {
	w.t.Helper()
	for {
		ev := w.expect("event")
		if ev.GetFields()["type"].GetStringValue() == string(typ) {
			return ev
		}
	}
}

func act(ctx context.Context, cc *grpc.ClientConn, conn string, player int, typ string) error {
	in, err := structpb.NewStruct(map[string]interface{}{
		"conn":   conn,
		"player": player,
		"type":   typ,
	})
	if err != nil {
		return err
	}
	return cc.Invoke(ctx, "/solarquest.Session/Act", in, new(structpb.Struct))
}

func TestGRPCGateway(t *testing.T) {
	s := newTestSession(t, Options{})
	cc := startGRPC(t, s)
	runSession(t, s)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ann := watch(t, ctx, cc, "ann")
	if p := ann.expect("joined").GetFields()["player"].GetNumberValue(); p != 0 {
		t.Fatalf("ann is %v", p)
	}
	bob := watch(t, ctx, cc, "bob")
	if p := bob.expect("joined").GetFields()["player"].GetNumberValue(); p != 1 {
		t.Fatalf("bob is %v", p)
	}

	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	ann.expectEvent(game.EventPreRoll)

	err := act(ctx, cc, bob.conn, 0, "no_pre_roll")
	if status.Code(err) != codes.PermissionDenied || !strings.HasPrefix(status.Convert(err).Message(), "NOTSEATED") {
		t.Errorf("bob acted for ann: %v", err)
	}

	if err := act(ctx, cc, ann.conn, 0, "no_pre_roll"); err != nil {
		t.Fatalf("act: %v", err)
	}
	ev := bob.expectEvent(game.EventRolled)
	dice := ev.GetFields()["value"].GetStructValue().GetFields()
	if dice["die1"].GetNumberValue()+dice["die2"].GetNumberValue() != 3 {
		t.Errorf("rolled %v", dice)
	}

	resync, _ := structpb.NewStruct(map[string]interface{}{"conn": bob.conn})
	if err := cc.Invoke(ctx, "/solarquest.Session/Resync", resync, new(structpb.Struct)); err != nil {
		t.Fatalf("resync: %v", err)
	}
	bob.expect("event")
}

func TestGRPCGateway_notStarted(t *testing.T) {
	s := newTestSession(t, Options{})
	cc := startGRPC(t, s)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	w := watch(t, ctx, cc, "")
	err := act(ctx, cc, w.conn, 0, "no_pre_roll")
	if status.Code(err) != codes.FailedPrecondition {
		t.Errorf("act: %v", err)
	}

	in, _ := structpb.NewStruct(map[string]interface{}{"conn": w.conn})
	err = cc.Invoke(ctx, "/solarquest.Session/Resync", in, new(structpb.Struct))
	if status.Code(err) != codes.FailedPrecondition {
		t.Errorf("resync: %v", err)
	}
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		err  error
		code codes.Code
	}{
		{comms.ErrTooFast, codes.ResourceExhausted},
		{comms.ErrBadMessage, codes.InvalidArgument},
		{game.ErrUnknownPlayer, codes.NotFound},
		{game.ErrGameOver, codes.FailedPrecondition},
		{comms.ErrSessionFull, codes.Unknown},
	}
	for _, tt := range tests {
		if got := status.Code(toStatus(tt.err)); got != tt.code {
			t.Errorf("%v: got %v want %v", tt.err, got, tt.code)
		}
	}
}
