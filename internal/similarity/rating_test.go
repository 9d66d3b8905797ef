package similarity

import "testing"

func TestClassifyBoundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{1.02, "Almost identical"},
		{1.0, "Almost identical"},
		{0.95, "Almost identical"},
		{0.9499, "Very similar"},
		{0.85, "Very similar"},
		{0.8499, "Moderately different"},
		{0.70, "Moderately different"},
		{0.6999, "Significantly different"},
		{0, "Significantly different"},
		{-0.1, "Significantly different"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := Classify(tt.score).Label(); got != tt.want {
				t.Errorf("Classify(%v) = %q, want %q", tt.score, got, tt.want)
			}
		})
	}
}

func TestClassifyMonotonic(t *testing.T) {
	prev := Classify(-0.5)
	for i := -5000; i <= 11000; i++ {
		s := float64(i) / 10000
		r := Classify(s)
		// Lower Rating values are more similar.
		if r > prev {
			t.Fatalf("Classify(%v) = %v is less similar than a lower score's %v", s, r, prev)
		}
		prev = r
	}
}

func TestParseRating(t *testing.T) {
	r, err := ParseRating("Very similar")
	if err != nil || r != RatingVerySimilar {
		t.Errorf("ParseRating = %v, %v", r, err)
	}
	if _, err := ParseRating("Identical-ish"); err == nil {
		t.Error("expected error for unknown label")
	}
}
