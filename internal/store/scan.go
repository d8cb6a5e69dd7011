package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/verisource/procure-cli/internal/model"
)

// Shared row scanning and JSON column helpers used by both backends.

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRFP(row scannable) (*model.RFP, error) {
	var r model.RFP
	var processedAt sql.NullTime

	err := row.Scan(&r.ID, &r.Title, &r.Agency, &r.ProjectID, &r.Description,
		&r.DocumentRef, &r.UploadedAt, &r.IsProcessed, &processedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("rfp not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: scan rfp")
	}
	if processedAt.Valid {
		t := processedAt.Time
		r.ProcessedAt = &t
	}
	return &r, nil
}

func scanBid(row scannable) (*model.VendorBid, error) {
	var b model.VendorBid
	var totalScore sql.NullFloat64

	err := row.Scan(&b.ID, &b.RFPID, &b.VendorName, &b.SubmittedAt, &b.DocumentRef, &b.IsProcessed, &totalScore)
	if err == sql.ErrNoRows {
		return nil, eris.New("bid not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: scan bid")
	}
	if totalScore.Valid {
		v := totalScore.Float64
		b.TotalScore = &v
	}
	return &b, nil
}

func scanReview(row scannable) (*model.HumanReview, error) {
	var r model.HumanReview
	var bidID, rfpID, assignedTo, completedBy, notes, rationale sql.NullString
	var aiJSON, humanJSON sql.NullString
	var completedAt sql.NullTime
	var timeToComplete, agreement, confidence sql.NullFloat64

	err := row.Scan(&r.ID, &bidID, &rfpID, &r.ReviewType, &r.Status, &r.Priority,
		&r.CreatedAt, &r.UpdatedAt, &assignedTo, &completedBy, &completedAt, &timeToComplete,
		&aiJSON, &humanJSON, &notes, &rationale, &agreement, &confidence)
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.New("review not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: scan review")
	}

	r.BidID = bidID.String
	r.RFPID = rfpID.String
	r.AssignedTo = assignedTo.String
	r.CompletedBy = completedBy.String
	r.ReviewNotes = notes.String
	r.DecisionRationale = rationale.String
	if completedAt.Valid {
		t := completedAt.Time
		r.CompletedAt = &t
	}
	if timeToComplete.Valid {
		v := timeToComplete.Float64
		r.TimeToComplete = &v
	}
	if agreement.Valid {
		v := agreement.Float64
		r.AgreementLevel = &v
	}
	if confidence.Valid {
		v := confidence.Float64
		r.ConfidenceScore = &v
	}
	if aiJSON.Valid && aiJSON.String != "" {
		if err := json.Unmarshal([]byte(aiJSON.String), &r.AIAssessment); err != nil {
			return nil, eris.Wrap(err, "store: unmarshal ai assessment")
		}
	}
	if humanJSON.Valid && humanJSON.String != "" {
		if err := json.Unmarshal([]byte(humanJSON.String), &r.HumanAssessment); err != nil {
			return nil, eris.Wrap(err, "store: unmarshal human assessment")
		}
	}
	return &r, nil
}

func collectReviews(rows *sql.Rows) ([]model.HumanReview, error) {
	var reviews []model.HumanReview
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, *r)
	}
	return reviews, eris.Wrap(rows.Err(), "store: collect reviews")
}

func marshalAnalysis(a *model.AnalysisResult) (req, tech, strengths, weaknesses, gaps string, err error) {
	parts := []struct {
		name string
		v    any
		out  *string
	}{
		{"requirement_compliance", orEmptyMap(a.RequirementCompliance), &req},
		{"technical_compliance", orEmptyMap(a.TechnicalCompliance), &tech},
		{"strengths", orEmptySlice(a.Strengths), &strengths},
		{"weaknesses", orEmptySlice(a.Weaknesses), &weaknesses},
		{"gap_analysis", orEmptyGaps(a.GapAnalysis), &gaps},
	}
	for _, p := range parts {
		buf, merr := json.Marshal(p.v)
		if merr != nil {
			return "", "", "", "", "", eris.Wrapf(merr, "marshal %s", p.name)
		}
		*p.out = string(buf)
	}
	return req, tech, strengths, weaknesses, gaps, nil
}

func unmarshalAnalysis(a *model.AnalysisResult, req, tech, strengths, weaknesses, gaps string) error {
	parts := []struct {
		name string
		data string
		out  any
	}{
		{"requirement_compliance", req, &a.RequirementCompliance},
		{"technical_compliance", tech, &a.TechnicalCompliance},
		{"strengths", strengths, &a.Strengths},
		{"weaknesses", weaknesses, &a.Weaknesses},
		{"gap_analysis", gaps, &a.GapAnalysis},
	}
	for _, p := range parts {
		if p.data == "" {
			continue
		}
		if err := json.Unmarshal([]byte(p.data), p.out); err != nil {
			return eris.Wrapf(err, "unmarshal %s", p.name)
		}
	}
	return nil
}

func marshalAssessments(r *model.HumanReview) (aiJSON, humanJSON any, err error) {
	if r.AIAssessment != nil {
		buf, merr := json.Marshal(r.AIAssessment)
		if merr != nil {
			return nil, nil, eris.Wrap(merr, "marshal ai assessment")
		}
		aiJSON = string(buf)
	}
	if r.HumanAssessment != nil {
		buf, merr := json.Marshal(r.HumanAssessment)
		if merr != nil {
			return nil, nil, eris.Wrap(merr, "marshal human assessment")
		}
		humanJSON = string(buf)
	}
	return aiJSON, humanJSON, nil
}

func orEmptyMap(m map[string]model.ComplianceScore) map[string]model.ComplianceScore {
	if m == nil {
		return map[string]model.ComplianceScore{}
	}
	return m
}

func orEmptySlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func orEmptyGaps(g []model.GapItem) []model.GapItem {
	if g == nil {
		return []model.GapItem{}
	}
	return g
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
