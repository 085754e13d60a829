package tictactoe

import (
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/entity"
)

// AISymbol is the mark the bot plays in ai mode.
const AISymbol = entity.PlayerO

// Engine owns the turn history, player names and game mode of a single game.
// Board, active player and outcome are always derived from the history.
// It is not safe for concurrent use; callers serialise intents.
type Engine struct {
	history []entity.Move
	names   entity.PlayerNames
	mode    entity.GameMode
	rnd     RandSource
}

// State is the derived view of an engine, recomputed on every read.
type State struct {
	ActivePlayer entity.Symbol      `json:"active_player"`
	Board        entity.Board       `json:"board"`
	Outcome      entity.Outcome     `json:"outcome"`
	Turns        []entity.Move      `json:"turns"`
	Players      entity.PlayerNames `json:"players"`
	Mode         entity.GameMode    `json:"mode"`
}

// AIDecisionKey captures every input the pending bot move depends on.
type AIDecisionKey struct {
	Moves   int
	Mode    entity.GameMode
	Active  entity.Symbol
	Outcome entity.OutcomeStatus
}

func NewEngine(names entity.PlayerNames, mode entity.GameMode, rnd RandSource) *Engine {
	if names == nil {
		names = entity.DefaultPlayerNames()
	}

	if !mode.IsValid() {
		mode = entity.ModePlayer
	}

	if rnd == nil {
		rnd = NewRandSource(0)
	}

	return &Engine{
		history: []entity.Move{},
		names:   names.Clone(),
		mode:    mode,
		rnd:     rnd,
	}
}

// Restore - rebuilds an engine from a saved history, replaying it through the same
// acceptance rules as live moves. Moves that would be rejected are dropped.
func Restore(history []entity.Move, names entity.PlayerNames, mode entity.GameMode, rnd RandSource) *Engine {
	engine := NewEngine(names, mode, rnd)
	for _, move := range history {
		engine.SubmitMoveAs(move.Square.Row, move.Square.Col, move.Player)
	}

	return engine
}

func (that *Engine) ActivePlayer() entity.Symbol {
	return entity.DeriveActivePlayer(that.history)
}

func (that *Engine) Board() entity.Board {
	return entity.DeriveBoard(that.history)
}

func (that *Engine) Outcome() entity.Outcome {
	return entity.DeriveOutcome(that.Board(), that.names, len(that.history))
}

func (that *Engine) Mode() entity.GameMode {
	return that.mode
}

// History - returns a copy of the turn history in chronological order.
func (that *Engine) History() []entity.Move {
	history := make([]entity.Move, len(that.history))
	copy(history, that.history)

	return history
}

func (that *Engine) Names() entity.PlayerNames {
	return that.names.Clone()
}

// Validate - reports why a move on (row, col) would be refused, or nil.
func (that *Engine) Validate(row, col int) error {
	square := entity.Square{Row: row, Col: col}
	if !square.InBounds() {
		return apperror.ErrInvalidCell
	}

	board := that.Board()
	if !entity.DeriveOutcome(board, that.names, len(that.history)).IsInProgress() {
		return apperror.ErrGameFinished
	}

	if board.Cell(square) != entity.EmptyCell {
		return apperror.ErrCellOccupied
	}

	return nil
}

// SubmitMove - plays (row, col) for the active player.
func (that *Engine) SubmitMove(row, col int) bool {
	return that.ApplyMove(row, col, that.ActivePlayer()) == nil
}

// SubmitMoveAs - plays (row, col) for the given player. Occupied cells and moves
// after the game has ended are ignored.
func (that *Engine) SubmitMoveAs(row, col int, player entity.Symbol) bool {
	return that.ApplyMove(row, col, player) == nil
}

// ApplyMove - appends the move or returns the reason it was refused; the
// history is untouched on error.
func (that *Engine) ApplyMove(row, col int, player entity.Symbol) error {
	if !player.IsValid() {
		return apperror.ErrInvalidSymbol
	}

	if err := that.Validate(row, col); err != nil {
		return err
	}

	that.history = append(that.history, entity.Move{
		Square: entity.Square{Row: row, Col: col},
		Player: player,
	})

	return nil
}

// Reset - clears the history. Names and mode are kept.
func (that *Engine) Reset() {
	that.history = []entity.Move{}
}

func (that *Engine) SetPlayerName(symbol entity.Symbol, name string) error {
	if !symbol.IsValid() {
		return apperror.ErrInvalidSymbol
	}

	that.names[symbol] = name

	return nil
}

// SetGameMode - switches the mode without touching the history, so enabling ai
// mode on O's turn lets the bot move straight away.
func (that *Engine) SetGameMode(mode entity.GameMode) error {
	if !mode.IsValid() {
		return apperror.ErrInvalidMode
	}

	that.mode = mode

	return nil
}

// ChooseAIMove - picks a random empty cell on the current board.
func (that *Engine) ChooseAIMove() (entity.Square, bool) {
	return ChooseAIMove(that.Board(), that.rnd)
}

func (that *Engine) AIDecisionKey() AIDecisionKey {
	return AIDecisionKey{
		Moves:   len(that.history),
		Mode:    that.mode,
		Active:  that.ActivePlayer(),
		Outcome: that.Outcome().Status,
	}
}

func (that *Engine) ShouldScheduleAIMove() bool {
	return ShouldScheduleAIMove(that.mode, that.ActivePlayer(), that.Outcome())
}

func (that *Engine) State() State {
	board := that.Board()

	return State{
		ActivePlayer: entity.DeriveActivePlayer(that.history),
		Board:        board,
		Outcome:      entity.DeriveOutcome(board, that.names, len(that.history)),
		Turns:        that.History(),
		Players:      that.Names(),
		Mode:         that.mode,
	}
}

// ShouldScheduleAIMove - the bot moves only in ai mode, on its own turn, while the game runs.
func ShouldScheduleAIMove(mode entity.GameMode, active entity.Symbol, outcome entity.Outcome) bool {
	return mode == entity.ModeAI && active == AISymbol && outcome.IsInProgress()
}
