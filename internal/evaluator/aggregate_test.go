package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/verisource/procure-cli/internal/model"
)

func TestAggregate_NoPenaltyAboveThreshold(t *testing.T) {
	compliance := map[string]model.ComplianceScore{
		"spec1": {Score: 90, Explanation: "fully addressed"},
	}

	overall := Aggregate([]int{80, 60}, []int{90}, []string{"spec1"}, compliance)
	// base = (80+60+90)/3 = 76.67, mandatory avg 90 so no gate
	assert.Equal(t, 76.67, overall)
}

func TestAggregate_MandatoryGateApplied(t *testing.T) {
	compliance := map[string]model.ComplianceScore{
		"spec1": {Score: 20},
	}

	overall := Aggregate([]int{100, 100}, []int{20}, []string{"spec1"}, compliance)
	// base = 73.33, mandatory avg 20 -> penalty 0.30 -> 73.33 * 0.70
	assert.Equal(t, 51.33, overall)
}

func TestAggregate_NoMandatorySpecsNoGate(t *testing.T) {
	compliance := map[string]model.ComplianceScore{
		"spec1": {Score: 0},
	}

	overall := Aggregate([]int{100}, []int{0}, nil, compliance)
	assert.Equal(t, 50.0, overall)
}

func TestAggregate_EmptyInputs(t *testing.T) {
	overall := Aggregate(nil, nil, nil, map[string]model.ComplianceScore{})
	assert.Equal(t, 0.0, overall)
}

func TestAggregate_MissingMandatorySpecScoresZero(t *testing.T) {
	// spec2 was never scored; it counts as 0 toward the mandatory average.
	compliance := map[string]model.ComplianceScore{
		"spec1": {Score: 60},
	}

	overall := Aggregate([]int{80}, []int{60}, []string{"spec1", "spec2"}, compliance)
	// base = 70, mandatory avg = 30 -> penalty 0.20 -> 56
	assert.Equal(t, 56.0, overall)
}

func TestAggregate_ExactThresholdNoPenalty(t *testing.T) {
	compliance := map[string]model.ComplianceScore{
		"spec1": {Score: 50},
	}

	overall := Aggregate([]int{50}, []int{50}, []string{"spec1"}, compliance)
	assert.Equal(t, 50.0, overall)
}

func TestAggregate_TotalMandatoryFailureHalvesScore(t *testing.T) {
	compliance := map[string]model.ComplianceScore{
		"spec1": {Score: 0},
	}

	overall := Aggregate([]int{100, 100}, []int{0}, []string{"spec1"}, compliance)
	// base = 66.67, penalty capped at 0.50
	assert.Equal(t, 33.33, overall)
}
