package board

import (
	"testing"

	"github.com/matryer/is"
)

func TestGameEndPredicates(t *testing.T) {
	tests := []struct {
		name      string
		fen       string
		checkmate bool
		stalemate bool
	}{
		{"back rank mate", "R6k/6pp/8/8/8/8/8/K7 b - - 0 1", true, false},
		{"king takes checker", "6Rk/8/8/8/8/8/8/K7 b - - 0 1", false, false},
		{"smothered", "6rk/5Npp/8/8/8/8/8/K7 b - - 0 1", true, false},
		{"corner stalemate", "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", false, true},
		{"start", StartFEN, false, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos := mustParse(t, tc.fen)
			if got := pos.IsCheckmate(); got != tc.checkmate {
				t.Errorf("IsCheckmate = %v, want %v", got, tc.checkmate)
			}
			if got := pos.IsStalemate(); got != tc.stalemate {
				t.Errorf("IsStalemate = %v, want %v", got, tc.stalemate)
			}
		})
	}
}

func TestInsufficientMaterial(t *testing.T) {
	is := is.New(t)
	is.True(mustParse(t, "8/8/4k3/8/8/3K4/8/8 w - - 0 1").IsInsufficientMaterial())
	is.True(mustParse(t, "8/8/4k3/8/8/3KN3/8/8 w - - 0 1").IsInsufficientMaterial())
	is.True(mustParse(t, "8/8/4kb2/8/8/3K4/8/8 w - - 0 1").IsInsufficientMaterial())
	is.True(!mustParse(t, "8/8/4k3/8/8/R2K4/8/8 w - - 0 1").IsInsufficientMaterial())
	is.True(!mustParse(t, "8/8/4k3/4p3/8/3K4/8/8 w - - 0 1").IsInsufficientMaterial())
	is.True(!mustParse(t, "8/8/4kn2/8/8/3KB3/8/8 w - - 0 1").IsInsufficientMaterial())
}

func TestFiftyMoveRule(t *testing.T) {
	is := is.New(t)
	is.True(!mustParse(t, "8/8/4k3/8/8/R2K4/8/8 w - - 99 80").IsFiftyMoveDraw())
	is.True(mustParse(t, "8/8/4k3/8/8/R2K4/8/8 w - - 100 80").IsFiftyMoveDraw())
	// Mate delivered on the hundredth half-move is not a draw.
	is.True(!mustParse(t, "R6k/6pp/8/8/8/8/8/K7 b - - 100 80").IsFiftyMoveDraw())
}
