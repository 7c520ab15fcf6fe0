package provider

// Quality scores a payload along four independent axes, each in [0, 1].
// The axes are deliberately unweighted: no axis dominates another.
type Quality struct {
	Accuracy     float64 `json:"accuracy"`
	Completeness float64 `json:"completeness"`
	Timeliness   float64 `json:"timeliness"`
	Confidence   float64 `json:"confidence"`
}

// Overall is the arithmetic mean of the four axes.
func (q Quality) Overall() float64 {
	return (q.Accuracy + q.Completeness + q.Timeliness + q.Confidence) / 4
}

// Clamp bounds every axis into [0, 1].
func (q Quality) Clamp() Quality {
	q.Accuracy = clamp01(q.Accuracy)
	q.Completeness = clamp01(q.Completeness)
	q.Timeliness = clamp01(q.Timeliness)
	q.Confidence = clamp01(q.Confidence)
	return q
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
