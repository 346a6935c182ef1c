package game

import (
	"context"
	"math/rand"
	"time"

	"github.com/undeconstructed/solarquest/board"
	"github.com/undeconstructed/solarquest/card"
	"github.com/undeconstructed/solarquest/rules"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Observer is where events go. Broadcast is for everyone, SendTo is for the
// one connection that sent a refused command. Neither may block.
type Observer interface {
	Broadcast(ev Event)
	SendTo(conn string, ev Event)
}

// Roller rolls one die.
type Roller interface {
	Roll(pips int) int
}

type randomDice struct {
	rng *rand.Rand
}

func (d randomDice) Roll(pips int) int {
	return d.rng.Intn(pips) + 1
}

type Options struct {
	Board   *board.Board
	Rules   rules.RuleSet
	Cards   []card.Card
	Players []string
	// Dice defaults to random dice
	Dice Roller
	// Seed drives the shuffle, and the dice if there are none. Zero means
	// use the clock.
	Seed int64
	Log  *zerolog.Logger
}

type commandHandler func(*Player, Command) error

type snapshotMsg struct {
	Rep chan Snapshot
}

// Engine runs one game. Everything about the game belongs to the goroutine
// in Run; the rest of the world talks to it through Submit and Query.
type Engine struct {
	board *board.Board
	rules rules.RuleSet
	deck  *card.Deck
	dice  Roller
	out   Observer
	log   zerolog.Logger
	cmds  map[string]commandHandler

	inCh chan interface{}
	done chan struct{}

	players      []*Player
	owners       map[*board.Node]*Player
	stations     map[*board.Node]bool
	stationsLeft int
	remaining    int

	current             *Player
	state               State
	turnOver            bool
	allowedMoves        []*board.Node
	pendingFuel         int
	boughtFuelInPreRoll bool
	firedLasers         bool

	debts      []Debt
	debtResume State

	trade          *Trade
	postTradeState State
	postTradeEvent Event

	lastEvent Event
}

func NewEngine(opts Options, out Observer) (*Engine, error) {
	if len(opts.Players) < 2 {
		return nil, ErrNoPlayers
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	dice := opts.Dice
	if dice == nil {
		dice = randomDice{rng}
	}

	logger := log.With().Str("comp", "engine").Logger()
	if opts.Log != nil {
		logger = *opts.Log
	}

	e := &Engine{
		board:    opts.Board,
		rules:    opts.Rules,
		deck:     card.NewDeck(opts.Cards, rng),
		dice:     dice,
		out:      out,
		log:      logger,
		inCh:     make(chan interface{}, 100),
		done:     make(chan struct{}),
		owners:   map[*board.Node]*Player{},
		stations: map[*board.Node]bool{},
	}

	e.cmds = map[string]commandHandler{}
	e.cmds["no_pre_roll"] = e.doNoPreRoll
	e.cmds["no_pre_land"] = e.doNoPreLand
	e.cmds["no_post_roll"] = e.doNoPostRoll
	e.cmds["quit"] = e.doQuit
	e.cmds["purchase_node"] = e.doPurchaseNode
	e.cmds["purchase_fuel"] = e.doPurchaseFuel
	e.cmds["purchase_fuel_station"] = e.doPurchaseFuelStation
	e.cmds["place_fuel_station"] = e.doPlaceFuelStation
	e.cmds["sell_fuel_station"] = e.doSellFuelStation
	e.cmds["choose_allowed_move"] = e.doChooseAllowedMove
	e.cmds["sell_fuel_station_for_debt"] = e.doSellFuelStationForDebt
	e.cmds["declare_bankruptcy"] = e.doDeclareBankruptcy
	e.cmds["sell_node"] = e.doSellNode
	e.cmds["trade"] = e.doProposeTrade
	e.cmds["trade_completed"] = e.doCompleteTrade
	e.cmds["negligence_takeover"] = e.doNegligenceTakeover
	e.cmds["choose_node_lost_to_league"] = e.doChooseNodeLostToLeague
	e.cmds["choose_node_won_from_league"] = e.doChooseNodeWonFromLeague
	e.cmds["choose_node_won_from_player"] = e.doChooseNodeWonFromPlayer
	e.cmds["fire_lasers"] = e.doFireLasers

	initialStations := opts.Rules.Int(rules.InitialFuelStations)
	e.stationsLeft = opts.Rules.Int(rules.TotalFuelStations) - initialStations*len(opts.Players)
	if e.stationsLeft < 0 {
		return nil, ErrTooManyPlayers
	}

	for i, name := range opts.Players {
		p := newPlayer(i, name)
		p.Cash = opts.Rules.Int(rules.InitialCash)
		p.Fuel = opts.Rules.Int(rules.InitialFuel)
		p.FuelStations = initialStations
		p.Node = opts.Board.Start()
		e.players = append(e.players, p)
	}
	e.remaining = len(e.players)
	e.current = e.players[0]
	e.state = StatePreRoll

	return e, nil
}

// Run processes commands one at a time until the game is over or the context
// ends. It may only be called once.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.done)

	e.log.Info().Int("players", len(e.players)).Msg("engine running")
	defer e.log.Info().Msg("engine stopping")

	e.begin()

	// this is the engine's main loop
	for e.state != StateGameOver {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case in := <-e.inCh:
			switch msg := in.(type) {
			case Request:
				e.handle(msg)
			case snapshotMsg:
				msg.Rep <- e.Snapshot()
			default:
				e.log.Warn().Msgf("nonsense in core: %#v", in)
			}
		}
	}

	return nil
}

func (e *Engine) begin() {
	e.current = e.players[0]
	e.setState(StatePreRoll)
}

// Submit queues a request. It is false if the engine has stopped.
func (e *Engine) Submit(req Request) bool {
	select {
	case <-e.done:
		return false
	default:
	}
	select {
	case e.inCh <- req:
		return true
	case <-e.done:
		return false
	}
}

// Query gets a snapshot from the running engine, or straight away once it
// has stopped.
func (e *Engine) Query() Snapshot {
	rep := make(chan Snapshot, 1)
	select {
	case e.inCh <- snapshotMsg{rep}:
	case <-e.done:
		return e.Snapshot()
	}
	select {
	case s := <-rep:
		return s
	case <-e.done:
		return e.Snapshot()
	}
}

// Done is closed when Run returns.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

func (e *Engine) handle(req Request) {
	if req.Command == nil {
		e.reject(req, ErrBadRequest)
		return
	}
	if e.state == StateGameOver {
		e.reject(req, ErrGameOver)
		return
	}

	e.checkGroupCounts()

	if d, ok := req.Command.(PlayersDropped); ok {
		e.playersDropped(d.Players)
		e.afterCommand()
		return
	}

	p := e.player(req.Player)
	if p == nil {
		e.reject(req, ErrUnknownPlayer)
		return
	}

	h, ok := e.cmds[req.Command.CommandType()]
	if !ok {
		e.reject(req, ErrBadRequest)
		return
	}

	if err := h(p, req.Command); err != nil {
		e.reject(req, err)
		return
	}

	e.afterCommand()
}

// checkGroupCounts repairs any player whose group counts have drifted from
// what they own.
func (e *Engine) checkGroupCounts() {
	for _, p := range e.players {
		if !p.groupCountsRight() {
			e.log.Warn().Int("player", p.Number).Msg("group counts wrong, fixing")
			p.FixGroupCounts()
		}
	}
}

// afterCommand moves the turn on if the current player is gone, and settles
// any debts the command left behind.
func (e *Engine) afterCommand() {
	if e.state == StateGameOver {
		return
	}

	if e.turnOver {
		e.turnOver = false
		e.nextTurn()
	}

	switch {
	case e.state == StateTrading:
		// debts wait for the trade
	case e.state == StateSettlingDebt:
		e.settleDebts()
	case len(e.debts) > 0:
		e.debtResume = e.state
		e.settleDebts()
	}
}

func (e *Engine) reject(req Request, err error) {
	info := ErrorInfo{Code: "ERROR", Msg: err.Error()}
	if ge, ok := err.(*GameError); ok {
		info.Code = ge.Code
	}

	kind := "none"
	if req.Command != nil {
		kind = req.Command.CommandType()
	}
	e.log.Debug().Str("conn", req.From).Int("player", req.Player).Str("command", kind).Msgf("refused: %s", info.Code)

	player := req.Player
	e.out.SendTo(req.From, Event{Type: EventInvalidState, Player: &player, Value: info})
}

func (e *Engine) emit(t EventType, p *Player, v interface{}) {
	e.emitEvent(Event{Type: t, Player: playerRef(p), Value: v})
}

func (e *Engine) emitEvent(ev Event) {
	e.lastEvent = ev
	e.out.Broadcast(ev)
}

// setState announces the new state, unless there are debts to settle first,
// in which case the announcement comes when they're paid.
func (e *Engine) setState(s State) {
	e.state = s
	if len(e.debts) > 0 && s != StateGameOver {
		return
	}
	if t, ok := s.prompt(); ok {
		var p *Player
		if s != StateGameOver {
			p = e.current
		}
		e.emit(t, p, nil)
	}
}

func (e *Engine) nextTurn() {
	if e.remaining <= 1 {
		return
	}

	i := e.current.Number
	for {
		i = (i + 1) % len(e.players)
		if !e.players[i].GameOver {
			break
		}
	}

	e.current = e.players[i]
	e.allowedMoves = nil
	e.pendingFuel = 0
	e.boughtFuelInPreRoll = false
	e.firedLasers = false
	e.setState(StatePreRoll)
}

// player finds a player still in the game.
func (e *Engine) player(number int) *Player {
	if number < 0 || number >= len(e.players) {
		return nil
	}
	p := e.players[number]
	if p.GameOver {
		return nil
	}
	return p
}

// turnIn checks that it's the player's turn and the engine is in one of the
// states.
func (e *Engine) turnIn(p *Player, states ...State) error {
	if p != e.current {
		return ErrNotYourTurn
	}
	for _, s := range states {
		if e.state == s {
			return nil
		}
	}
	return ErrNotNow
}

// settling checks that the player is the one who has to settle a debt now.
func (e *Engine) settling(p *Player) error {
	if e.state != StateSettlingDebt {
		return ErrNotNow
	}
	if p != e.debtor() {
		return ErrNotYourTurn
	}
	return nil
}
