package valueobject

import "fmt"

// Confidence is an immutable value object bucketing how far a fraud
// probability sits from the undecided middle.
type Confidence struct {
	value string
}

var (
	ConfidenceLow    = Confidence{value: "low"}
	ConfidenceMedium = Confidence{value: "medium"}
	ConfidenceHigh   = Confidence{value: "high"}
)

// ConfidenceFromString reconstructs a Confidence from its string representation.
func ConfidenceFromString(s string) (Confidence, error) {
	switch s {
	case "low":
		return ConfidenceLow, nil
	case "medium":
		return ConfidenceMedium, nil
	case "high":
		return ConfidenceHigh, nil
	default:
		return Confidence{}, fmt.Errorf("invalid confidence: %s", s)
	}
}

// ConfidenceFromProbability buckets a fraud probability.
// Outside (0.3, 0.7) is high, outside (0.4, 0.6) is medium, the rest is low.
func ConfidenceFromProbability(p float64) Confidence {
	switch {
	case p < 0.3 || p > 0.7:
		return ConfidenceHigh
	case p < 0.4 || p > 0.6:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// String returns the string representation.
func (c Confidence) String() string {
	return c.value
}

// IsZero returns true if the Confidence has not been set.
func (c Confidence) IsZero() bool {
	return c.value == ""
}

// Equal checks equality with another Confidence.
func (c Confidence) Equal(other Confidence) bool {
	return c.value == other.value
}
