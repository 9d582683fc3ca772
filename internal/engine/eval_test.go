package engine

import (
	"strings"
	"testing"

	"github.com/hailam/negabot/internal/board"
)

// mirrorFEN flips the board vertically and swaps the colours. Castling and
// en passant fields must be "-".
func mirrorFEN(fen string) string {
	fields := strings.Fields(fen)
	ranks := strings.Split(fields[0], "/")
	for i, j := 0, len(ranks)-1; i < j; i, j = i+1, j-1 {
		ranks[i], ranks[j] = ranks[j], ranks[i]
	}
	swapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z':
			return r - 'A' + 'a'
		}
		return r
	}, strings.Join(ranks, "/"))

	side := "w"
	if fields[1] == "w" {
		side = "b"
	}
	return strings.Join(append([]string{swapped, side}, fields[2:]...), " ")
}

var evalFENs = []string{
	"r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w - - 2 3",
	"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w - - 0 1",
	"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	"6k1/5ppp/8/8/8/8/8/R5K1 b - - 0 1",
}

func TestEvaluateStartPositionIsBalanced(t *testing.T) {
	ev := NewEvaluator(DefaultConfig())
	if score := ev.Evaluate(board.NewPosition()); score != 0 {
		t.Errorf("Evaluate(startpos) = %d, want 0", score)
	}
}

func TestEvaluateColourSymmetry(t *testing.T) {
	ev := NewEvaluator(DefaultConfig())
	for _, fen := range evalFENs {
		pos := mustParse(t, fen)
		mirrored := mustParse(t, mirrorFEN(fen))
		if a, b := ev.Evaluate(pos), ev.Evaluate(mirrored); a != b {
			t.Errorf("%s: score %d, mirrored %d", fen, a, b)
		}
	}
}

func TestEvaluateIsSideToMoveRelative(t *testing.T) {
	ev := NewEvaluator(DefaultConfig())
	white := mustParse(t, "4k3/8/8/8/8/8/8/3QK3 w - - 0 1")
	black := mustParse(t, "4k3/8/8/8/8/8/8/3QK3 b - - 0 1")

	ws, bs := ev.Evaluate(white), ev.Evaluate(black)
	if ws <= 0 {
		t.Errorf("extra queen, white to move: %d, want > 0", ws)
	}
	if ws != -bs {
		t.Errorf("white to move %d, black to move %d: want negation", ws, bs)
	}
}

func TestEvaluateMaterialWeights(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MobilityWeight = 0
	ev := NewEvaluator(cfg)

	// Same squares, knight replaced by a rook: only the material term moves.
	knight := mustParse(t, "4k3/8/8/8/8/8/8/N3K3 w - - 0 1")
	rook := mustParse(t, "4k3/8/8/8/8/8/8/R3K3 w - - 0 1")
	diff := ev.Evaluate(rook) - ev.Evaluate(knight)
	want := cfg.PieceValues[board.Rook] - cfg.PieceValues[board.Knight] +
		int(pst[board.Rook][pstIndex(board.A1, board.White)]) -
		int(pst[board.Knight][pstIndex(board.A1, board.White)])
	if diff != want {
		t.Errorf("rook minus knight = %d, want %d", diff, want)
	}
}

func TestEvaluateMobility(t *testing.T) {
	base := DefaultConfig()
	base.MobilityWeight = 0
	mobile := DefaultConfig()
	mobile.MobilityWeight = 10

	// A lone white rook on d4 attacks 14 squares.
	pos := mustParse(t, "7k/8/8/8/3R4/8/8/K7 w - - 0 1")
	diff := NewEvaluator(mobile).Evaluate(pos) - NewEvaluator(base).Evaluate(pos)
	if diff != 140 {
		t.Errorf("mobility contribution = %d, want 140", diff)
	}
}
