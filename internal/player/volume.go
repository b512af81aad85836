package player

import "math"

// clampLevel bounds a volume level to 0-100.
func clampLevel(level int) int {
	return max(0, min(100, level))
}

// levelToVolume converts a 0-100 level to beep's Volume value.
// beep uses a logarithmic scale with base 2: 0 is unity gain, -1 is half
// amplitude, -2 a quarter. 100 -> 0, 50 -> -1, 25 -> -2, 0 -> silent.
func levelToVolume(level int) (volume float64, silent bool) {
	if level <= 0 {
		return -10, true
	}
	if level >= 100 {
		return 0, false
	}
	return math.Log2(float64(level) / 100), false
}
