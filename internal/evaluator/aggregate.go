package evaluator

import (
	"math"

	"github.com/verisource/procure-cli/internal/model"
)

// Aggregate combines per-item compliance scores into an overall 0-100 bid
// score. Mandatory technical specs act as a gate: when their average score
// falls below 50, the base score is reduced multiplicatively by up to 50%.
// A bid that is strong everywhere but fails mandatory specs must not win on
// the plain average alone.
func Aggregate(requirementScores, technicalScores []int, mandatorySpecIDs []string, technicalCompliance map[string]model.ComplianceScore) float64 {
	var sum, n int
	for _, s := range requirementScores {
		sum += s
		n++
	}
	for _, s := range technicalScores {
		sum += s
		n++
	}

	baseScore := 0.0
	if n > 0 {
		baseScore = float64(sum) / float64(n)
	}

	// Mandatory specs missing from the compliance map score 0.
	penalty := 0.0
	if len(mandatorySpecIDs) > 0 {
		mandatorySum := 0
		for _, id := range mandatorySpecIDs {
			mandatorySum += technicalCompliance[id].Score
		}
		mandatoryAvg := float64(mandatorySum) / float64(len(mandatorySpecIDs))
		if mandatoryAvg < 50 {
			penalty = (50 - mandatoryAvg) / 100
		}
	}

	overall := baseScore * (1 - penalty)
	return math.Round(overall*100) / 100
}
