package entity

type Symbol string

const (
	PlayerX Symbol = "X"
	PlayerO Symbol = "O"

	EmptyCell Symbol = ""
)

const BoardSize = 3

type GameMode string

const (
	ModePlayer GameMode = "player"
	ModeAI     GameMode = "ai"
)

type OutcomeStatus string

const (
	StatusInProgress OutcomeStatus = "in_progress"
	StatusWin        OutcomeStatus = "win"
	StatusDraw       OutcomeStatus = "draw"
)

// Square is a board coordinate.
type Square struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// WinCombos are scanned in order: rows, columns, main diagonal, anti-diagonal.
var WinCombos = [8][3]Square{
	{{0, 0}, {0, 1}, {0, 2}},
	{{1, 0}, {1, 1}, {1, 2}},
	{{2, 0}, {2, 1}, {2, 2}},
	{{0, 0}, {1, 0}, {2, 0}},
	{{0, 1}, {1, 1}, {2, 1}},
	{{0, 2}, {1, 2}, {2, 2}},
	{{0, 0}, {1, 1}, {2, 2}},
	{{0, 2}, {1, 1}, {2, 0}},
}

// Move is one entry of the turn history.
type Move struct {
	Square Square `json:"square"`
	Player Symbol `json:"player"`
}

type Board [BoardSize][BoardSize]Symbol

type PlayerNames map[Symbol]string

// Outcome is derived from the board. Winner and WinnerName are set only for StatusWin.
type Outcome struct {
	Status     OutcomeStatus `json:"status"`
	Winner     Symbol        `json:"winner,omitempty"`
	WinnerName string        `json:"winner_name,omitempty"`
}

func (that Symbol) IsValid() bool {
	return that == PlayerX || that == PlayerO
}

func (that GameMode) IsValid() bool {
	return that == ModePlayer || that == ModeAI
}

func (that Square) InBounds() bool {
	return that.Row >= 0 && that.Row < BoardSize && that.Col >= 0 && that.Col < BoardSize
}

func (that Outcome) IsInProgress() bool {
	return that.Status == StatusInProgress
}

func (that Outcome) IsFinished() bool {
	return that.Status == StatusWin || that.Status == StatusDraw
}

func (that Board) Cell(square Square) Symbol {
	return that[square.Row][square.Col]
}

// EmptySquares lists the empty cells in row-major order.
func (that Board) EmptySquares() []Square {
	squares := make([]Square, 0, BoardSize*BoardSize)
	for row := range that {
		for col := range that[row] {
			if that[row][col] == EmptyCell {
				squares = append(squares, Square{Row: row, Col: col})
			}
		}
	}

	return squares
}

// DefaultPlayerNames - returns the names shown before anyone renames a player.
func DefaultPlayerNames() PlayerNames {
	return PlayerNames{
		PlayerX: "Player 1",
		PlayerO: "Player 2",
	}
}

func (that PlayerNames) Clone() PlayerNames {
	clone := make(PlayerNames, len(that))
	for symbol, name := range that {
		clone[symbol] = name
	}

	return clone
}

// DeriveActivePlayer - X plays on even history lengths, O on odd ones.
func DeriveActivePlayer(history []Move) Symbol {
	if len(history)%2 == 0 {
		return PlayerX
	}

	return PlayerO
}

// DeriveBoard - replays the history over a blank grid.
func DeriveBoard(history []Move) Board {
	var board Board
	for _, move := range history {
		board[move.Square.Row][move.Square.Col] = move.Player
	}

	return board
}

// DeriveOutcome - the first complete line wins; a full board without one is a draw.
func DeriveOutcome(board Board, names PlayerNames, moves int) Outcome {
	for _, combo := range WinCombos {
		a, b, c := board.Cell(combo[0]), board.Cell(combo[1]), board.Cell(combo[2])
		if a != EmptyCell && a == b && b == c {
			return Outcome{
				Status:     StatusWin,
				Winner:     a,
				WinnerName: names[a],
			}
		}
	}

	if moves == BoardSize*BoardSize {
		return Outcome{Status: StatusDraw}
	}

	return Outcome{Status: StatusInProgress}
}
