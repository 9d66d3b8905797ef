// Package transform re-encodes videos with small randomized cosmetic changes.
package transform

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/five82/vidsim/internal/config"
	"github.com/five82/vidsim/internal/ffmpeg"
)

// atempo accepts factors in [atempoMin, atempoMax]; larger changes are chained.
const (
	atempoMin = 0.5
	atempoMax = 2.0
)

// evenScale keeps both dimensions divisible by two after cropping, which
// yuv420p requires.
const evenScale = "scale=trunc(iw/2)*2:trunc(ih/2)*2"

// Ranges bounds the randomized parameters.
type Ranges struct {
	CropMin, CropMax             float64
	BrightnessMin, BrightnessMax float64
	SaturationMin, SaturationMax float64
	SpeedMin, SpeedMax           float64
	Mirror                       bool
}

// RangesFromConfig copies the ranges out of the transform config section.
func RangesFromConfig(c config.Transform) Ranges {
	return Ranges{
		CropMin:       c.CropMin,
		CropMax:       c.CropMax,
		BrightnessMin: c.BrightnessMin,
		BrightnessMax: c.BrightnessMax,
		SaturationMin: c.SaturationMin,
		SaturationMax: c.SaturationMax,
		SpeedMin:      c.SpeedMin,
		SpeedMax:      c.SpeedMax,
		Mirror:        c.Mirror,
	}
}

// Params is one randomized set of cosmetic changes.
type Params struct {
	CropPercent float64
	Brightness  float64
	Saturation  float64
	Mirror      bool
	Speed       float64
}

// Randomizer draws Params. Safe for concurrent use.
type Randomizer struct {
	mu     sync.Mutex
	rng    *rand.Rand
	ranges Ranges
}

// NewRandomizer returns a Randomizer with a fixed seed, for reproducible runs.
func NewRandomizer(ranges Ranges, seed uint64) *Randomizer {
	return &Randomizer{
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		ranges: ranges,
	}
}

// NewTimeSeededRandomizer returns a Randomizer seeded from the clock.
func NewTimeSeededRandomizer(ranges Ranges) *Randomizer {
	return NewRandomizer(ranges, uint64(time.Now().UnixNano()))
}

// Next draws a new parameter set. Brightness and saturation are rounded to
// three decimals and speed to two.
func (r *Randomizer) Next() Params {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := Params{
		CropPercent: r.uniform(r.ranges.CropMin, r.ranges.CropMax),
		Brightness:  round(r.uniform(r.ranges.BrightnessMin, r.ranges.BrightnessMax), 3),
		Saturation:  round(r.uniform(r.ranges.SaturationMin, r.ranges.SaturationMax), 3),
		Speed:       round(r.uniform(r.ranges.SpeedMin, r.ranges.SpeedMax), 2),
	}
	if r.ranges.Mirror {
		p.Mirror = r.rng.IntN(2) == 0
	}
	return p
}

func (r *Randomizer) uniform(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + r.rng.Float64()*(hi-lo)
}

// OutputSize returns the frame size the video filter produces for a
// width x height input.
func (p Params) OutputSize(width, height int64) (int64, int64) {
	keep := round(1-p.CropPercent, 4)
	w := int64(float64(width) * keep)
	h := int64(float64(height) * keep)
	return w &^ 1, h &^ 1
}

// OutputDuration returns the duration of an input of the given length after
// the speed change.
func (p Params) OutputDuration(duration float64) float64 {
	if p.Speed <= 0 {
		return duration
	}
	return duration / p.Speed
}

// VideoFilter returns the -vf chain for p.
func (p Params) VideoFilter() string {
	keep := formatFloat(round(1-p.CropPercent, 4))
	chain := ffmpeg.NewFilterChain().
		AddCrop(fmt.Sprintf("crop=iw*%s:ih*%s", keep, keep)).
		AddFilter(evenScale).
		AddFilter(fmt.Sprintf("eq=brightness=%s:saturation=%s", formatFloat(p.Brightness), formatFloat(p.Saturation)))
	if p.Mirror {
		chain.AddFilter("hflip")
	}
	if p.Speed > 0 && p.Speed != 1 {
		chain.AddFilter(fmt.Sprintf("setpts=PTS/%s", formatFloat(p.Speed)))
	}
	return chain.Build()
}

// AudioFilter returns the atempo chain matching p's speed.
func (p Params) AudioFilter() string {
	factors := AtempoChain(p.Speed)
	parts := make([]string, len(factors))
	for i, f := range factors {
		parts[i] = "atempo=" + formatFloat(f)
	}
	return strings.Join(parts, ",")
}

// AtempoChain splits speed into atempo factors that each lie within [0.5, 2].
// Out-of-range speeds are reduced by 1.5 (too fast) or 0.75 (too slow) until
// the remainder fits; the remainder is rounded to two decimals. A
// non-positive speed yields a single neutral factor.
func AtempoChain(speed float64) []float64 {
	if speed <= 0 || math.IsNaN(speed) || math.IsInf(speed, 0) {
		return []float64{1}
	}
	var factors []float64
	for speed < atempoMin || speed > atempoMax {
		f := 0.75
		if speed > 1.5 {
			f = 1.5
		}
		factors = append(factors, f)
		speed /= f
	}
	return append(factors, round(speed, 2))
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
