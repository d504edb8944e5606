package core

import (
	"encoding/json"
	"sort"
)

// CalibrationMap is a non-decreasing step function C: [0,1] -> [0,1],
// fit offline by isotonic regression of observed outcomes against raw ELO
// win probabilities over a historical window (spec.md §4.4).
//
// @Description Versioned isotonic calibration map from raw to calibrated win probability.
type CalibrationMap struct {
	Version     string
	breakpoints []calibrationPoint
}

type calibrationPoint struct {
	x float64
	y float64
}

// TrainingPair is one (raw probability, observed outcome) sample used to
// fit a CalibrationMap.
type TrainingPair struct {
	RawProbability float64
	Outcome        float64 // 0 or 1
}

// FitIsotonic fits a CalibrationMap from historical (raw probability,
// outcome) pairs using pool-adjacent-violators (PAV), the standard
// isotonic-regression algorithm. No isotonic-regression library appears
// anywhere in the corpus, so PAV is implemented directly here.
func FitIsotonic(version string, samples []TrainingPair) *CalibrationMap {
	sorted := make([]TrainingPair, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].RawProbability < sorted[j].RawProbability })

	// Pool-adjacent-violators: maintain a stack of blocks, each with a
	// weighted mean value and a weight (sample count); merge the
	// top two blocks whenever the stack would become non-monotone.
	type block struct {
		xMin, xMax float64
		sum        float64
		weight     float64
	}

	var blocks []block
	for _, s := range sorted {
		blocks = append(blocks, block{xMin: s.RawProbability, xMax: s.RawProbability, sum: s.Outcome, weight: 1})
		for len(blocks) > 1 {
			n := len(blocks)
			prev := blocks[n-2]
			last := blocks[n-1]
			if prev.sum/prev.weight <= last.sum/last.weight {
				break
			}
			merged := block{
				xMin:   prev.xMin,
				xMax:   last.xMax,
				sum:    prev.sum + last.sum,
				weight: prev.weight + last.weight,
			}
			blocks = blocks[:n-2]
			blocks = append(blocks, merged)
		}
	}

	points := make([]calibrationPoint, 0, len(blocks))
	for _, b := range blocks {
		mean := clamp01(b.sum / b.weight)
		points = append(points, calibrationPoint{x: b.xMax, y: mean})
	}

	return &CalibrationMap{Version: version, breakpoints: points}
}

// Apply returns C(p), clamped to [0,1]. The away probability is 1 - C(p).
func (c *CalibrationMap) Apply(p float64) float64 {
	if len(c.breakpoints) == 0 {
		return clamp01(p)
	}

	p = clamp01(p)

	// breakpoints are sorted ascending by x; find the first breakpoint
	// whose x is >= p and use its y (step function, non-decreasing).
	for _, bp := range c.breakpoints {
		if p <= bp.x {
			return bp.y
		}
	}
	return c.breakpoints[len(c.breakpoints)-1].y
}

// CheckVersion returns a CalibrationVersionMismatchError if c's version
// does not match expected.
func (c *CalibrationMap) CheckVersion(expected string) error {
	if c.Version != expected {
		return NewCalibrationVersionMismatchError(expected, c.Version)
	}
	return nil
}

// MarshalJSON serializes the version and breakpoints for persistence by
// CalibrationMapRepository; the breakpoint slice itself stays unexported
// so callers can only construct a CalibrationMap via FitIsotonic or
// CalibrationMapFromJSON.
func (c *CalibrationMap) MarshalJSON() ([]byte, error) {
	type point struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	points := make([]point, len(c.breakpoints))
	for i, bp := range c.breakpoints {
		points[i] = point{X: bp.x, Y: bp.y}
	}
	return json.Marshal(struct {
		Version     string  `json:"version"`
		Breakpoints []point `json:"breakpoints"`
	}{Version: c.Version, Breakpoints: points})
}

// CalibrationMapFromJSON reconstructs a CalibrationMap from the bytes
// produced by MarshalJSON.
func CalibrationMapFromJSON(data []byte) (*CalibrationMap, error) {
	var parsed struct {
		Version     string `json:"version"`
		Breakpoints []struct {
			X float64 `json:"x"`
			Y float64 `json:"y"`
		} `json:"breakpoints"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, err
	}
	points := make([]calibrationPoint, len(parsed.Breakpoints))
	for i, bp := range parsed.Breakpoints {
		points[i] = calibrationPoint{x: bp.X, y: bp.Y}
	}
	return &CalibrationMap{Version: parsed.Version, breakpoints: points}, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
