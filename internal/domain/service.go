package domain

import (
	"fmt"
	"math"
)

// VolumeAlgorithm selects the curve between the home-automation and system volume scales.
type VolumeAlgorithm int

const (
	AlgorithmLinear VolumeAlgorithm = iota
	AlgorithmLogarithmic
)

func (a VolumeAlgorithm) String() string {
	switch a {
	case AlgorithmLinear:
		return "linear"
	case AlgorithmLogarithmic:
		return "logarithmic"
	default:
		return "unknown"
	}
}

// ParseAlgorithm converts "linear" or "logarithmic" to a VolumeAlgorithm.
func ParseAlgorithm(s string) (VolumeAlgorithm, error) {
	switch s {
	case "", "linear":
		return AlgorithmLinear, nil
	case "logarithmic", "log":
		return AlgorithmLogarithmic, nil
	default:
		return AlgorithmLinear, fmt.Errorf("%w: unknown volume algorithm %q", ErrInvalidConfig, s)
	}
}

// logScale makes both ends of the logarithmic curve land on 0 and 100.
var logScale = 100 / math.Log10(101)

// ToSystem converts a home-automation volume (0-100) to the system scale.
// The result is not rounded; the gateway rounds when talking to the OS.
func (a VolumeAlgorithm) ToSystem(homeKit float64) float64 {
	if a == AlgorithmLogarithmic {
		return math.Log10(1+homeKit) * logScale
	}
	return homeKit
}

// ToHomeKit converts a system volume (0-100) to the home-automation scale.
func (a VolumeAlgorithm) ToHomeKit(system float64) int {
	if a == AlgorithmLogarithmic {
		return int(math.Round(math.Pow(10, system/logScale) - 1))
	}
	return int(math.Round(system))
}

// Clamp limits v to the 0-100 percentage range.
func Clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
