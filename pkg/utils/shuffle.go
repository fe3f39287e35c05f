package utils

import "math/rand"

// Shuffle returns a Fisher-Yates shuffled copy, leaving the input intact.
func Shuffle[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	for i := len(out) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
