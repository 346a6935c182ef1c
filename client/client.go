package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/undeconstructed/solarquest/comms"
	"github.com/undeconstructed/solarquest/game"

	rl "github.com/chzyer/readline"
)

const (
	GREEN = "\033[32m"
	RED   = "\033[31m"
	RESET = "\033[0m"
)

type Client interface {
	Run(ctx context.Context) error
}

// NewClient makes a console client. With a name it takes a seat as soon as
// it's connected.
func NewClient(name, server string) Client {
	return &client{
		name:   name,
		server: server,
		view:   newView(),
	}
}

type client struct {
	name   string
	server string
	out    io.Writer
	view   *view
}

func (c *client) Run(ctx context.Context) error {
	conn, err := net.Dial("tcp", c.server)
	if err != nil {
		return err
	}

	l, err := c.startUI()
	if err != nil {
		conn.Close()
		return err
	}
	defer l.Close()

	c.out = l.Stdout()

	lineCh := make(chan string)
	go func() {
		defer close(lineCh)
		for {
			line, err := l.Readline()
			if err == rl.ErrInterrupt {
				if len(line) == 0 {
					return
				}
				continue
			} else if err != nil {
				return
			}
			lineCh <- line
		}
	}()

	return c.loop(ctx, conn, lineCh, l.SetPrompt)
}

func (c *client) startUI() (*rl.Instance, error) {
	completer := rl.NewPrefixCompleter(
		rl.PcItem("join"),
		rl.PcItem("start"),
		rl.PcItem("roll"),
		rl.PcItem("land"),
		rl.PcItem("end"),
		rl.PcItem("buy"),
		rl.PcItem("fuel"),
		rl.PcItem("station",
			rl.PcItem("buy"),
			rl.PcItem("place"),
			rl.PcItem("sell"),
		),
		rl.PcItem("move"),
		rl.PcItem("sell"),
		rl.PcItem("sellstation"),
		rl.PcItem("bankrupt"),
		rl.PcItem("trade"),
		rl.PcItem("accept"),
		rl.PcItem("reject"),
		rl.PcItem("takeover"),
		rl.PcItem("lose"),
		rl.PcItem("win"),
		rl.PcItem("fire"),
		rl.PcItem("quit"),
		rl.PcItem("resync"),
		rl.PcItem("say"),
		rl.PcItem("help"),
	)

	return rl.NewEx(&rl.Config{
		Prompt:            "» ",
		HistoryFile:       "hist.txt",
		AutoComplete:      completer,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
}

// loop is the client's main loop: lines typed go up, messages coming down are
// printed. It ends when either side does.
func (c *client) loop(ctx context.Context, conn io.ReadWriteCloser, lines <-chan string, setPrompt func(string)) error {
	defer conn.Close()

	upStream := comms.NewEncoder(conn)
	dnStream := comms.NewDecoder(conn)

	downCh := make(chan comms.Message, 16)
	errCh := make(chan error, 1)
	go func() {
		defer close(downCh)
		for {
			msg, err := dnStream.Decode()
			if err != nil {
				errCh <- err
				return
			}
			downCh <- msg
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(line)
			switch line {
			case "":
				continue
			case "help":
				c.println("%s", helpText)
				continue
			}
			msg, err := parseLine(line, c.view)
			if err != nil {
				c.println(RED+"%v"+RESET, err)
				continue
			}
			if err := upStream.Send(msg); err != nil {
				return err
			}
		case msg, ok := <-downCh:
			if !ok {
				err := <-errCh
				if errors.Is(err, io.EOF) {
					c.println("server went away")
					return nil
				}
				return err
			}
			for _, reply := range c.handle(msg) {
				if err := upStream.Send(reply); err != nil {
					return err
				}
			}
			setPrompt(c.prompt())
		}
	}
}

func (c *client) prompt() string {
	p := c.view.promptText()
	if c.view.holds(c.view.current) && !c.view.over {
		return GREEN + p + RESET
	}
	return p
}

// handle prints a message from the server, and says what to send back.
func (c *client) handle(msg comms.Message) []comms.Message {
	var replies []comms.Message

	switch msg.Type() {
	case "hello":
		var hello comms.Hello
		if err := comms.Decode(msg, &hello); err != nil {
			c.println("bad hello: %v", err)
			break
		}
		c.view.conn = hello.Conn
		c.println("connected as %s", hello.Conn)
		if c.name != "" {
			if join, err := comms.Encode("join", comms.JoinRequest{Name: c.name}); err == nil {
				replies = append(replies, join)
			}
		}
	case "joined":
		var res comms.JoinResponse
		if err := comms.Decode(msg, &res); err != nil {
			c.println("bad join response: %v", err)
			break
		}
		if res.Err != nil {
			c.println(RED+"cannot join: %v"+RESET, comms.ReError(res.Err))
			break
		}
		c.view.seat = res.Player
		c.println("seated at %d, until the game starts", res.Player)
	case "players":
		var players []int
		if err := comms.Decode(msg, &players); err != nil {
			c.println("bad players: %v", err)
			break
		}
		c.view.setPlayers(players)
		if len(players) == 0 {
			c.println("watching")
		} else {
			c.println("playing as %v", players)
		}
	case "snapshot":
		var snap game.Snapshot
		if err := comms.Decode(msg, &snap); err != nil {
			c.println("bad snapshot: %v", err)
			break
		}
		c.view.applySnapshot(snap)
		c.printSnapshot(snap)
	case "event":
		var ev game.Event
		if err := comms.Decode(msg, &ev); err != nil {
			c.println("bad event: %v", err)
			break
		}
		line := c.view.applyEvent(ev)
		if ev.Type == game.EventInvalidState {
			c.println(RED+"%s"+RESET, line)
			if resync, err := comms.Encode("resync", nil); err == nil {
				replies = append(replies, resync)
			}
			break
		}
		c.println("> %s", line)
	case "error":
		var ce comms.CommsError
		if err := comms.Decode(msg, &ce); err != nil {
			c.println("bad error: %v", err)
			break
		}
		c.println(RED+"error %s: %s"+RESET, ce.Code, ce.Msg)
	case "text":
		var text comms.Text
		if err := comms.Decode(msg, &text); err != nil {
			c.println("bad text: %v", err)
			break
		}
		c.println("%s: %s", text.From, text.Text)
	default:
		c.println("unknown message %s", msg.Head)
	}

	return replies
}

func (c *client) printSnapshot(s game.Snapshot) {
	c.println("state %s, player %d to play, %d fuel stations left", s.State, s.Current, s.FuelStationsRemaining)
	for _, p := range s.Players {
		status := ""
		if p.GameOver {
			status = " (out)"
		}
		c.println("  %d %-10s cash %5d  fuel %2d  stations %2d  at %-14s owns %v%s",
			p.Number, p.Name, p.Cash, p.Fuel, p.FuelStations, p.Node, p.Owned, status)
	}
}

func (c *client) println(format string, args ...interface{}) {
	fmt.Fprintf(c.out, format+"\n", args...)
}
