package dto

import "math"

// Round1 rounds to one decimal place for display.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Round1Ptr rounds a nullable value, keeping nil as nil.
func Round1Ptr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := Round1(*v)
	return &r
}
