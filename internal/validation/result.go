// Package validation checks transformed outputs against what the encode asked for.
package validation

import "fmt"

// Result contains the overall validation result.
type Result struct {
	IsCodecCorrect    bool
	IsSizeCorrect     bool
	IsDurationCorrect bool
	IsAudioCorrect    bool

	// Details
	CodecName          string
	ActualDimensions   *[2]int64
	ExpectedDimensions *[2]int64
	SizeMessage        string
	ActualDuration     *float64
	ExpectedDuration   *float64
	DurationMessage    string
	AudioCodec         string
	AudioMessage       string

	expectedCodec string
}

// Step is a single validation check.
type Step struct {
	Name    string
	Passed  bool
	Details string
}

// IsValid returns true if all validation checks passed.
func (r *Result) IsValid() bool {
	return r.IsCodecCorrect &&
		r.IsSizeCorrect &&
		r.IsDurationCorrect &&
		r.IsAudioCorrect
}

// Steps returns all validation steps with results.
func (r *Result) Steps() []Step {
	return []Step{
		{
			Name:    "Video codec",
			Passed:  r.IsCodecCorrect,
			Details: formatCodecDetails(r.CodecName, r.expectedCodec, r.IsCodecCorrect),
		},
		{
			Name:    "Dimensions",
			Passed:  r.IsSizeCorrect,
			Details: r.SizeMessage,
		},
		{
			Name:    "Duration",
			Passed:  r.IsDurationCorrect,
			Details: r.DurationMessage,
		},
		{
			Name:    "Audio",
			Passed:  r.IsAudioCorrect,
			Details: r.AudioMessage,
		},
	}
}

// Failures returns descriptions of failed checks.
func (r *Result) Failures() []string {
	var failures []string
	for _, step := range r.Steps() {
		if !step.Passed {
			failures = append(failures, step.Name+": "+step.Details)
		}
	}
	return failures
}

func formatCodecDetails(codec, expected string, passed bool) string {
	switch {
	case passed && codec != "":
		return codec
	case passed:
		return "Not checked"
	case codec == "":
		return "Unknown codec"
	default:
		return fmt.Sprintf("Expected %s, got %s", expected, codec)
	}
}
