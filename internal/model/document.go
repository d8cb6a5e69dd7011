package model

import "time"

// RFP is a Request for Proposal: the soliciting agency's requirement document.
type RFP struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Agency      string     `json:"agency,omitempty"`
	ProjectID   string     `json:"project_id,omitempty"`
	Description string     `json:"description,omitempty"`
	DocumentRef string     `json:"document_ref"`
	UploadedAt  time.Time  `json:"uploaded_at"`
	IsProcessed bool       `json:"is_processed"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// Requirement is a single extracted requirement owned by an RFP.
// Immutable after RFP analysis completes.
type Requirement struct {
	ID          string `json:"id"`
	RFPID       string `json:"rfp_id"`
	Category    string `json:"category,omitempty"` // e.g. Technical, Financial, Compliance
	Description string `json:"description"`
	Priority    string `json:"priority,omitempty"` // e.g. Must-have, Should-have, Nice-to-have
	Section     string `json:"section,omitempty"`  // source location in the RFP document
}

// TechnicalSpecification is a measurable spec owned by an RFP. Mandatory
// specs participate in the aggregation penalty.
type TechnicalSpecification struct {
	ID              string `json:"id"`
	RFPID           string `json:"rfp_id"`
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	Category        string `json:"category,omitempty"` // e.g. Network, Hardware, Software
	MeasurementUnit string `json:"measurement_unit,omitempty"`
	MinValue        string `json:"min_value,omitempty"`
	MaxValue        string `json:"max_value,omitempty"`
	IsMandatory     bool   `json:"is_mandatory"`
}

// VendorBid is a vendor's submitted response to an RFP. TotalScore is a
// cached copy of the latest AnalysisResult overall score.
type VendorBid struct {
	ID          string    `json:"id"`
	RFPID       string    `json:"rfp_id"`
	VendorName  string    `json:"vendor_name"`
	SubmittedAt time.Time `json:"submitted_at"`
	DocumentRef string    `json:"document_ref"`
	IsProcessed bool      `json:"is_processed"`
	TotalScore  *float64  `json:"total_score,omitempty"`
}

// ComplianceScore is one 0-100 scored item with its explanation.
type ComplianceScore struct {
	Score       int    `json:"score"`
	Explanation string `json:"explanation"`
}

// GapItem is one entry of a gap analysis.
type GapItem struct {
	Item        string `json:"item"`
	Requirement string `json:"requirement"`
	Gap         string `json:"gap"`
	Impact      string `json:"impact"`
}

// AnalysisResult holds the full evaluation of one bid. Exactly one row per
// bid: re-evaluation overwrites the row in place (upsert keyed on BidID).
type AnalysisResult struct {
	ID                    string                     `json:"id"`
	BidID                 string                     `json:"bid_id"`
	AnalyzedAt            time.Time                  `json:"analyzed_at"`
	RequirementCompliance map[string]ComplianceScore `json:"requirement_compliance"`
	TechnicalCompliance   map[string]ComplianceScore `json:"technical_compliance"`
	Strengths             []string                   `json:"strengths"`
	Weaknesses            []string                   `json:"weaknesses"`
	GapAnalysis           []GapItem                  `json:"gap_analysis"`
	OverallScore          float64                    `json:"overall_score"`
}
