package game

import (
	"embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Response model constants. These are part of the simulation's observable
// behaviour and must not be re-derived from physical formulas.
const (
	// MotionScale converts a recorded speed into the displacement of one impulse.
	MotionScale = 3.0
	// MotionDuration is the duration of every main impulse, in time units.
	MotionDuration = 3.0
	// NudgeDuration is the duration of the corrective impulse issued after a wall bounce.
	NudgeDuration = 0.01
	// WallSpeedRetention is the fraction of speed a ball keeps after a wall bounce.
	WallSpeedRetention = 0.5
	// StrikerCoefficient scales the combined normal momentum given back to the striking ball.
	StrikerCoefficient = 0.0
	// StruckCoefficient scales the combined normal momentum given to the struck ball.
	StruckCoefficient = 0.5
)

// Default table geometry.
const (
	DefaultTableWidth  = 0.5
	DefaultTableLength = 0.3
	DefaultBallRadius  = 0.02
	DefaultTargetBalls = 2
	DefaultRackSpacing = 0.05
)

const (
	ProfileCanonical = "canonical"
	ProfileLegacy    = "legacy"
)

// ErrUnknownProfile is returned when a named tuning profile is not embedded.
var ErrUnknownProfile = errors.New("unknown tuning profile")

//go:embed tunings/*.yaml
var tuningFS embed.FS

// Tuning holds the thresholds that differed between historical versions of
// the pocket test and the idle cut-off.
type Tuning struct {
	Name            string  `yaml:"name" json:"name"`
	SideCornerRatio float64 `yaml:"side_corner_ratio" json:"side_corner_ratio"`
	EndCornerRatio  float64 `yaml:"end_corner_ratio" json:"end_corner_ratio"`
	MidPocketLow    float64 `yaml:"mid_pocket_low" json:"mid_pocket_low"`
	MidPocketHigh   float64 `yaml:"mid_pocket_high" json:"mid_pocket_high"`
	IdleEpsilon     float64 `yaml:"idle_epsilon" json:"idle_epsilon"`
}

// CanonicalTuning returns the canonical thresholds without touching the embedded files.
func CanonicalTuning() Tuning {
	return Tuning{
		Name:            ProfileCanonical,
		SideCornerRatio: 0.06,
		EndCornerRatio:  0.10,
		MidPocketLow:    0.47,
		MidPocketHigh:   0.53,
		IdleEpsilon:     0.0001,
	}
}

// Validate checks that the thresholds describe usable pocket bands.
func (t Tuning) Validate() error {
	if t.SideCornerRatio < 0 || t.SideCornerRatio >= 0.5 {
		return fmt.Errorf("tuning %q: side_corner_ratio %v out of range [0, 0.5)", t.Name, t.SideCornerRatio)
	}
	if t.EndCornerRatio < 0 || t.EndCornerRatio >= 0.5 {
		return fmt.Errorf("tuning %q: end_corner_ratio %v out of range [0, 0.5)", t.Name, t.EndCornerRatio)
	}
	if t.MidPocketLow >= t.MidPocketHigh {
		return fmt.Errorf("tuning %q: mid pocket band [%v, %v] is empty", t.Name, t.MidPocketLow, t.MidPocketHigh)
	}
	if t.IdleEpsilon <= 0 {
		return fmt.Errorf("tuning %q: idle_epsilon must be positive", t.Name)
	}
	return nil
}

// LoadTuning loads a tuning profile.
// Search order: customPath -> embedded profile by name.
func LoadTuning(name, customPath string) (Tuning, error) {
	var t Tuning

	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return t, fmt.Errorf("failed to read tuning %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &t); err != nil {
			return t, fmt.Errorf("failed to parse tuning %s: %w", customPath, err)
		}
		if t.Name == "" {
			t.Name = customPath
		}
		return t, t.Validate()
	}

	if name == "" {
		name = ProfileCanonical
	}
	data, err := tuningFS.ReadFile("tunings/" + name + ".yaml")
	if err != nil {
		return t, fmt.Errorf("%w: %s", ErrUnknownProfile, name)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("failed to parse embedded tuning %s: %w", name, err)
	}
	return t, t.Validate()
}
