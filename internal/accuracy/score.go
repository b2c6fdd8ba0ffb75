// Package accuracy scores games by replaying their moves through a UCI
// engine and converting evaluation swings into per-move accuracy, then
// averaging per side. Formulas follow the published lichess.org model.
package accuracy

import "math"

// WinPercent converts a centipawn evaluation, relative to the side to
// move, into a winning probability percentage.
func WinPercent(centipawns float64) float64 {
	return 50 + 50*(2/(1+math.Exp(-0.00368208*centipawns))-1)
}

// MoveAccuracy converts the win-percentage drop caused by a move into
// an accuracy percentage, clamped to [0, 100].
func MoveAccuracy(winBefore, winAfter float64) float64 {
	acc := 103.1668*math.Exp(-0.04354*(winBefore-winAfter)) - 3.1669
	return math.Max(0, math.Min(acc, 100))
}
