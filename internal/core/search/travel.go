package search

import "math"

// Travel speeds in meters per minute, calibrated for urban movement.
const (
	walkSpeed    = 80
	bicycleSpeed = 250
	carSpeed     = 500
)

// EstimateTravelMinutes returns rough door-to-door travel times per mode
// for a straight-line distance. Every estimate is at least one minute.
func EstimateTravelMinutes(distanceMeters float64) map[string]int {
	est := func(speed float64) int {
		m := int(math.Round(distanceMeters / speed))
		if m < 1 {
			m = 1
		}
		return m
	}
	return map[string]int{
		"walk":    est(walkSpeed),
		"bicycle": est(bicycleSpeed),
		"car":     est(carSpeed),
	}
}
