package engine

import "github.com/hailam/negabot/internal/board"

// pst holds positional bonuses for one half of the board, seen from the
// owner's side: row 0 is the enemy back rank, row 7 the owner's, and the
// four columns are the files a-d (e-h mirror them).
var pst = [6][32]int8{
	board.Pawn: {
		0, 0, 0, 0,
		50, 50, 50, 50,
		10, 10, 20, 30,
		5, 5, 10, 25,
		0, 0, 0, 20,
		5, -5, -10, 0,
		5, 10, 10, -20,
		0, 0, 0, 0,
	},
	board.Knight: {
		-50, -40, -30, -30,
		-40, -20, 0, 0,
		-30, 0, 10, 15,
		-30, 5, 15, 20,
		-30, 0, 15, 20,
		-30, 5, 10, 15,
		-40, -20, 0, 5,
		-50, -40, -30, -30,
	},
	board.Bishop: {
		-20, -10, -10, -10,
		-10, 0, 0, 0,
		-10, 0, 5, 10,
		-10, 5, 5, 10,
		-10, 0, 10, 10,
		-10, 10, 10, 10,
		-10, 5, 0, 0,
		-20, -10, -10, -10,
	},
	board.Rook: {
		0, 0, 0, 0,
		5, 10, 10, 10,
		-5, 0, 0, 0,
		-5, 0, 0, 0,
		-5, 0, 0, 0,
		-5, 0, 0, 0,
		-5, 0, 0, 0,
		0, 0, 0, 0,
	},
	board.Queen: {
		-20, -10, -10, -5,
		-10, 0, 0, 0,
		-10, 0, 5, 5,
		-5, 0, 5, 5,
		0, 0, 5, 5,
		-10, 5, 5, 5,
		-10, 0, 5, 0,
		-20, -10, -10, -5,
	},
	board.King: {
		-30, -40, -40, -50,
		-30, -40, -40, -50,
		-30, -40, -40, -50,
		-30, -40, -40, -50,
		-20, -30, -30, -40,
		-10, -20, -20, -20,
		20, 20, 0, 0,
		20, 30, 10, 0,
	},
}

// pstMax bounds the magnitude of every pst entry.
const pstMax = 127

// pstIndex folds sq into the half-board table for color c.
func pstIndex(sq board.Square, c board.Color) int {
	row := 7 - sq.Rank()
	if c == board.Black {
		row = sq.Rank()
	}
	file := sq.File()
	if file > 3 {
		file = 7 - file
	}
	return row*4 + file
}
