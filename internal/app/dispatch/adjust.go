package dispatch

import (
	"math"

	"github.com/osa030/muse/internal/domain/action"
)

const (
	minVolume     = 0
	maxVolume     = 100
	unknownVolume = 50
)

// ApplyVolume returns the target volume for mode. current is nil when the
// player did not report a volume. The result is clamped to [0, 100].
func ApplyVolume(current *int, mode string, amount int) int {
	base := unknownVolume
	if current != nil {
		base = *current
	}

	var target int
	switch mode {
	case action.VolumeIncrease:
		target = base + amount
	case action.VolumeDecrease:
		target = base - amount
	default:
		target = amount
	}
	return clamp(target, minVolume, maxVolume)
}

// ApplySeek returns the target position in milliseconds. amount is seconds,
// or a percentage for to_percent. The result is clamped to [0, durationMs].
func ApplySeek(progressMs, durationMs int, target string, amount float64) int {
	offset := int(math.Round(amount * 1000))

	var pos int
	switch target {
	case action.SeekForward:
		pos = progressMs + offset
	case action.SeekBackward:
		pos = progressMs - offset
	case action.SeekToTime:
		pos = offset
	case action.SeekToPercent:
		pos = int(math.Round(float64(durationMs) * amount / 100))
	case action.SeekMiddle:
		pos = durationMs / 2
	default:
		pos = progressMs
	}
	return clamp(pos, 0, durationMs)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
