package domain

// Label is the binary risk class.
type Label int

const (
	// LabelLegitimate marks a listing judged legitimate (class 0).
	LabelLegitimate Label = 0

	// LabelSuspicious marks a listing judged suspicious (class 1).
	LabelSuspicious Label = 1
)

// Display names used in the risk report.
const (
	DisplayLegitimate = "Original/Legítimo"
	DisplaySuspicious = "Suspeito"
)

// DisplayName maps a numeric class to its report label.
func (l Label) DisplayName() string {
	if l == LabelSuspicious {
		return DisplaySuspicious
	}
	return DisplayLegitimate
}
