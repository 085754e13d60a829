package tictactoe

import (
	"math/rand"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/entity"
)

// RandSource is satisfied by *rand.Rand.
type RandSource interface {
	Intn(n int) int
}

// NewRandSource - seeded source; seed 0 picks a random seed.
func NewRandSource(seed int64) RandSource {
	if seed == 0 {
		seed = rand.Int63() //nolint: gosec // it's ok
	}

	return rand.New(rand.NewSource(seed)) //nolint: gosec // it's ok
}

// ChooseAIMove - returns a uniformly random empty square, or false on a full board.
func ChooseAIMove(board entity.Board, rnd RandSource) (entity.Square, bool) {
	availableCells := board.EmptySquares()
	if len(availableCells) == 0 {
		return entity.Square{}, false
	}

	return availableCells[rnd.Intn(len(availableCells))], true
}
