package analytics

import (
	"fmt"
	"math"
	"strings"
)

// Shift thresholds for milestone detection.
const (
	acceptanceShiftThreshold = 0.20
	diversityShiftThreshold  = 0.15
)

// ChangeResult describes how a period differs from its predecessor.
type ChangeResult struct {
	IsSignificant bool
	Description   string
}

// DetectChange compares a period to the immediately preceding emitted
// period. Each rule is independent and contributes its own sentence; the
// period is a milestone iff at least one rule fired. The first period of a
// timeline (previous == nil) is never a milestone.
func DetectChange(current TimelineDataPoint, previous *TimelineDataPoint) ChangeResult {
	if previous == nil {
		return ChangeResult{}
	}

	var sentences []string

	if delta := current.AcceptanceRate - previous.AcceptanceRate; math.Abs(delta) > acceptanceShiftThreshold {
		if delta > 0 {
			sentences = append(sentences, "Track acceptance improved noticeably.")
		} else {
			sentences = append(sentences, "Track acceptance declined noticeably.")
		}
	}

	if cur, prev := current.Moods.Dominant(), previous.Moods.Dominant(); cur != prev {
		sentences = append(sentences, fmt.Sprintf("Dominant mood shifted from %s to %s.", prev, cur))
	}

	if cur := topItemName(current.TopArtists); cur != "" && cur != topItemName(previous.TopArtists) {
		sentences = append(sentences, fmt.Sprintf("New favorite artist: %s.", cur))
	}

	if delta := current.DiversityScore - previous.DiversityScore; math.Abs(delta) > diversityShiftThreshold {
		if delta > 0 {
			sentences = append(sentences, "Listening expanded across more artists.")
		} else {
			sentences = append(sentences, "Listening narrowed to fewer artists.")
		}
	}

	if len(sentences) == 0 {
		return ChangeResult{}
	}
	return ChangeResult{
		IsSignificant: true,
		Description:   strings.Join(sentences, " "),
	}
}

func topItemName(items []TopItem) string {
	if len(items) == 0 {
		return ""
	}
	return items[0].Name
}
