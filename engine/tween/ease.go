package tween

import (
	"fmt"
	"strings"

	"github.com/chewxy/math32"
)

// Ease maps linear progress in [0, 1] to eased progress. Eases must return 0 at 0 and 1 at 1.
type Ease func(t float32) float32

// Linear returns t unchanged.
func Linear(t float32) float32 { return t }

// Power1Out is a quadratic ease-out. It is the default ease for tweens that do not set one.
func Power1Out(t float32) float32 {
	inv := 1 - t
	return 1 - inv*inv
}

// Power2In is a cubic ease-in.
func Power2In(t float32) float32 { return t * t * t }

// Power2Out is a cubic ease-out.
func Power2Out(t float32) float32 {
	return 1 - math32.Pow(1-t, 3)
}

// Power2InOut is a cubic ease-in for the first half and a cubic ease-out for the second.
func Power2InOut(t float32) float32 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math32.Pow(-2*t+2, 3)/2
}

var easesByName = map[string]Ease{
	"none":          Linear,
	"linear":        Linear,
	"power0":        Linear,
	"power1":        Power1Out,
	"power1.out":    Power1Out,
	"power2.in":     Power2In,
	"power2":        Power2Out,
	"power2.out":    Power2Out,
	"power2.inout":  Power2InOut,
	"power2.in-out": Power2InOut,
}

// ParseEase resolves an ease by its animation-library style name, e.g. "power2.inOut".
// Names are case-insensitive; the empty string resolves to Power1Out.
//
// Parameters:
//   - name: the ease name
//
// Returns:
//   - Ease: the resolved ease function
//   - error: error if the name is unknown
func ParseEase(name string) (Ease, error) {
	if name == "" {
		return Power1Out, nil
	}
	e, ok := easesByName[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown ease %q", name)
	}
	return e, nil
}
