// Package units provides shared constants and validation for angle units
package units

import "math"

// Unit constants
const (
	Degrees = "deg"
	Radians = "rad"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{Degrees, Radians}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "deg, rad"
}

// ConvertAngle converts an angle from degrees to the target units
// The engine computes and stores joint angles in degrees
func ConvertAngle(angleDeg float64, targetUnits string) float64 {
	switch targetUnits {
	case Degrees:
		return angleDeg
	case Radians:
		return angleDeg * math.Pi / 180.0
	default:
		return angleDeg
	}
}

// ConvertToDegrees converts an angle from the given units back to degrees
func ConvertToDegrees(angle float64, fromUnits string) float64 {
	switch fromUnits {
	case Degrees:
		return angle
	case Radians:
		return angle * 180.0 / math.Pi
	default:
		return angle
	}
}
