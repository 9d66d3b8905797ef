// Package similarity scores a pair of videos with SSIM and classifies the
// score into a qualitative rating.
package similarity

import "fmt"

// Rating is a qualitative bucket for a similarity score, ordered from most
// to least similar.
type Rating int

const (
	RatingAlmostIdentical Rating = iota
	RatingVerySimilar
	RatingModeratelyDifferent
	RatingSignificantlyDifferent
)

// Lower bounds, inclusive, for each rating.
const (
	AlmostIdenticalThreshold = 0.95
	VerySimilarThreshold     = 0.85
	ModeratelyDiffThreshold  = 0.70
)

// Classify maps a score to its rating. Thresholds are checked top-down and
// the first matching lower bound wins.
func Classify(score float64) Rating {
	switch {
	case score >= AlmostIdenticalThreshold:
		return RatingAlmostIdentical
	case score >= VerySimilarThreshold:
		return RatingVerySimilar
	case score >= ModeratelyDiffThreshold:
		return RatingModeratelyDifferent
	default:
		return RatingSignificantlyDifferent
	}
}

// Label returns the human-readable label for the rating.
func (r Rating) Label() string {
	switch r {
	case RatingAlmostIdentical:
		return "Almost identical"
	case RatingVerySimilar:
		return "Very similar"
	case RatingModeratelyDifferent:
		return "Moderately different"
	case RatingSignificantlyDifferent:
		return "Significantly different"
	default:
		return fmt.Sprintf("Rating(%d)", int(r))
	}
}

func (r Rating) String() string {
	return r.Label()
}

// Emoji returns the marker shown next to the label in chat replies.
func (r Rating) Emoji() string {
	switch r {
	case RatingAlmostIdentical:
		return "🔁"
	case RatingVerySimilar:
		return "🟢"
	case RatingModeratelyDifferent:
		return "🟡"
	default:
		return "🔴"
	}
}

// MarshalText encodes the rating as its label.
func (r Rating) MarshalText() ([]byte, error) {
	return []byte(r.Label()), nil
}

// ParseRating converts a label back into a Rating.
func ParseRating(label string) (Rating, error) {
	for _, r := range []Rating{
		RatingAlmostIdentical,
		RatingVerySimilar,
		RatingModeratelyDifferent,
		RatingSignificantlyDifferent,
	} {
		if r.Label() == label {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown rating %q", label)
}
