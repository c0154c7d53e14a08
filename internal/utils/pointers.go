package utils

import "math"

func PtrBool(b *bool, fallback bool) bool {
	if b == nil {
		return fallback
	}
	return *b
}

func RoundFloat64(f float64, places int) float64 {
	shift := math.Pow(10, float64(places))
	return math.Round(f*shift) / shift
}
