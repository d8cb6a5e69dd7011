package model

import "time"

// SecurityFramework classifies a security requirement's origin.
type SecurityFramework string

const (
	FrameworkNIST    SecurityFramework = "NIST"
	FrameworkFedRAMP SecurityFramework = "FedRAMP"
	FrameworkCMMC    SecurityFramework = "CMMC"
	FrameworkISO     SecurityFramework = "ISO"
	FrameworkOther   SecurityFramework = "Other"
)

// SecurityFrameworks lists the known frameworks, most specific first.
var SecurityFrameworks = []SecurityFramework{
	FrameworkNIST,
	FrameworkFedRAMP,
	FrameworkCMMC,
	FrameworkISO,
	FrameworkOther,
}

// ComplianceLevel ranks how binding a security requirement is.
type ComplianceLevel string

const (
	ComplianceRequired    ComplianceLevel = "required"
	ComplianceRecommended ComplianceLevel = "recommended"
	ComplianceOptional    ComplianceLevel = "optional"
)

// SecurityRequirement is a framework control a bid is assessed against.
type SecurityRequirement struct {
	ID              string            `json:"id"`
	RFPID           string            `json:"rfp_id"`
	Framework       SecurityFramework `json:"framework"`
	ControlID       string            `json:"control_id,omitempty"` // e.g. AC-2, IA-4
	Title           string            `json:"title"`
	Description     string            `json:"description,omitempty"`
	ComplianceLevel ComplianceLevel   `json:"compliance_level"`
}

// BidSecurityCompliance records one bid's assessment against one security
// requirement. A bid is compliant at a score of 70 or above.
type BidSecurityCompliance struct {
	ID            string    `json:"id"`
	BidID         string    `json:"bid_id"`
	RequirementID string    `json:"requirement_id"`
	Score         int       `json:"score"`
	Notes         string    `json:"notes,omitempty"`
	Evidence      string    `json:"evidence,omitempty"`
	IsCompliant   bool      `json:"is_compliant"`
	AssessedAt    time.Time `json:"assessed_at"`
}

// RiskFinding is one identified risk in a bid.
type RiskFinding struct {
	Category    string `json:"category"`
	Title       string `json:"title"`
	Severity    string `json:"severity"` // High, Medium, Low
	Explanation string `json:"explanation"`
	Mitigation  string `json:"mitigation"`
}

// RiskAssessment is the result of bid risk prediction.
type RiskAssessment struct {
	BidID            string        `json:"bid_id"`
	VendorName       string        `json:"vendor_name"`
	AnalyzedAt       time.Time     `json:"analyzed_at"`
	OverallRiskScore float64       `json:"overall_risk_score"` // 0-100, 0 is lowest risk
	Risks            []RiskFinding `json:"risks"`
}

// SentimentFinding is one notable language pattern found in a bid.
type SentimentFinding struct {
	Finding        string `json:"finding"`
	Evidence       string `json:"evidence"`
	Significance   string `json:"significance"`
	Recommendation string `json:"recommendation"`
}

// SentimentAnalysis is the result of bid sentiment analysis.
type SentimentAnalysis struct {
	BidID            string             `json:"bid_id"`
	VendorName       string             `json:"vendor_name"`
	AnalyzedAt       time.Time          `json:"analyzed_at"`
	OverallSentiment string             `json:"overall_sentiment"` // positive, neutral, negative
	ConfidenceScore  float64            `json:"confidence_score"`  // 0-100
	KeyFindings      []SentimentFinding `json:"key_findings"`
}
