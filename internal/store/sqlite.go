package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/verisource/procure-cli/internal/model"
	"github.com/verisource/procure-cli/internal/review"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS rfps (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	agency       TEXT,
	project_id   TEXT,
	description  TEXT,
	document_ref TEXT NOT NULL,
	uploaded_at  DATETIME NOT NULL,
	is_processed INTEGER NOT NULL DEFAULT 0,
	processed_at DATETIME
);

CREATE TABLE IF NOT EXISTS requirements (
	id          TEXT PRIMARY KEY,
	rfp_id      TEXT NOT NULL REFERENCES rfps(id),
	category    TEXT,
	description TEXT NOT NULL,
	priority    TEXT,
	section     TEXT
);

CREATE TABLE IF NOT EXISTS technical_specifications (
	id               TEXT PRIMARY KEY,
	rfp_id           TEXT NOT NULL REFERENCES rfps(id),
	name             TEXT NOT NULL,
	description      TEXT,
	category         TEXT,
	measurement_unit TEXT,
	min_value        TEXT,
	max_value        TEXT,
	is_mandatory     INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS vendor_bids (
	id           TEXT PRIMARY KEY,
	rfp_id       TEXT NOT NULL REFERENCES rfps(id),
	vendor_name  TEXT NOT NULL,
	submitted_at DATETIME NOT NULL,
	document_ref TEXT NOT NULL,
	is_processed INTEGER NOT NULL DEFAULT 0,
	total_score  REAL,
	UNIQUE(rfp_id, document_ref)
);

CREATE TABLE IF NOT EXISTS analysis_results (
	id                     TEXT PRIMARY KEY,
	bid_id                 TEXT NOT NULL UNIQUE REFERENCES vendor_bids(id),
	analyzed_at            DATETIME NOT NULL,
	requirement_compliance TEXT NOT NULL DEFAULT '{}',
	technical_compliance   TEXT NOT NULL DEFAULT '{}',
	strengths              TEXT NOT NULL DEFAULT '[]',
	weaknesses             TEXT NOT NULL DEFAULT '[]',
	gap_analysis           TEXT NOT NULL DEFAULT '[]',
	overall_score          REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS security_requirements (
	id               TEXT PRIMARY KEY,
	rfp_id           TEXT NOT NULL REFERENCES rfps(id),
	framework        TEXT NOT NULL,
	control_id       TEXT,
	title            TEXT NOT NULL,
	description      TEXT,
	compliance_level TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS bid_security_compliance (
	id             TEXT PRIMARY KEY,
	bid_id         TEXT NOT NULL REFERENCES vendor_bids(id),
	requirement_id TEXT NOT NULL REFERENCES security_requirements(id),
	score          INTEGER NOT NULL,
	notes          TEXT,
	evidence       TEXT,
	is_compliant   INTEGER NOT NULL DEFAULT 0,
	assessed_at    DATETIME NOT NULL,
	UNIQUE(bid_id, requirement_id)
);

CREATE TABLE IF NOT EXISTS human_reviews (
	id                 TEXT PRIMARY KEY,
	bid_id             TEXT REFERENCES vendor_bids(id),
	rfp_id             TEXT REFERENCES rfps(id),
	review_type        TEXT NOT NULL,
	status             TEXT NOT NULL DEFAULT 'pending',
	priority           TEXT NOT NULL DEFAULT 'medium',
	created_at         DATETIME NOT NULL,
	updated_at         DATETIME NOT NULL,
	assigned_to        TEXT,
	completed_by       TEXT,
	completed_at       DATETIME,
	time_to_complete   REAL,
	ai_assessment      TEXT,
	human_assessment   TEXT,
	review_notes       TEXT,
	decision_rationale TEXT,
	agreement_level    REAL,
	confidence_score   REAL
);

CREATE INDEX IF NOT EXISTS idx_requirements_rfp_id ON requirements(rfp_id);
CREATE INDEX IF NOT EXISTS idx_tech_specs_rfp_id ON technical_specifications(rfp_id);
CREATE INDEX IF NOT EXISTS idx_vendor_bids_rfp_id ON vendor_bids(rfp_id);
CREATE INDEX IF NOT EXISTS idx_analysis_results_bid_id ON analysis_results(bid_id);
CREATE INDEX IF NOT EXISTS idx_security_requirements_rfp_id ON security_requirements(rfp_id);
CREATE INDEX IF NOT EXISTS idx_bid_security_compliance_bid_id ON bid_security_compliance(bid_id);
CREATE INDEX IF NOT EXISTS idx_human_reviews_status ON human_reviews(status);
CREATE INDEX IF NOT EXISTS idx_human_reviews_bid_id ON human_reviews(bid_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// RFPs

func (s *SQLiteStore) CreateRFP(ctx context.Context, rfp *model.RFP) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rfps (id, title, agency, project_id, description, document_ref, uploaded_at, is_processed, processed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rfp.ID, rfp.Title, rfp.Agency, rfp.ProjectID, rfp.Description, rfp.DocumentRef,
		rfp.UploadedAt, rfp.IsProcessed, nullTime(rfp.ProcessedAt),
	)
	return eris.Wrap(err, "sqlite: insert rfp")
}

func (s *SQLiteStore) GetRFP(ctx context.Context, rfpID string) (*model.RFP, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, agency, project_id, description, document_ref, uploaded_at, is_processed, processed_at
		 FROM rfps WHERE id = ?`, rfpID)
	return scanRFP(row)
}

func (s *SQLiteStore) ListRFPs(ctx context.Context) ([]model.RFP, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, agency, project_id, description, document_ref, uploaded_at, is_processed, processed_at
		 FROM rfps ORDER BY uploaded_at DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list rfps")
	}
	defer rows.Close()

	var rfps []model.RFP
	for rows.Next() {
		r, err := scanRFP(rows)
		if err != nil {
			return nil, err
		}
		rfps = append(rfps, *r)
	}
	return rfps, eris.Wrap(rows.Err(), "sqlite: list rfps iterate")
}

func (s *SQLiteStore) SaveRFPAnalysis(ctx context.Context, rfp *model.RFP, requirements []model.Requirement, specs []model.TechnicalSpecification) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	// Re-analysis replaces the previous extraction.
	if _, err := tx.ExecContext(ctx, `DELETE FROM requirements WHERE rfp_id = ?`, rfp.ID); err != nil {
		return eris.Wrap(err, "sqlite: clear requirements")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM technical_specifications WHERE rfp_id = ?`, rfp.ID); err != nil {
		return eris.Wrap(err, "sqlite: clear tech specs")
	}

	for _, req := range requirements {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO requirements (id, rfp_id, category, description, priority, section) VALUES (?, ?, ?, ?, ?, ?)`,
			req.ID, req.RFPID, req.Category, req.Description, req.Priority, req.Section,
		); err != nil {
			return eris.Wrap(err, "sqlite: insert requirement")
		}
	}
	for _, spec := range specs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO technical_specifications (id, rfp_id, name, description, category, measurement_unit, min_value, max_value, is_mandatory)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			spec.ID, spec.RFPID, spec.Name, spec.Description, spec.Category,
			spec.MeasurementUnit, spec.MinValue, spec.MaxValue, spec.IsMandatory,
		); err != nil {
			return eris.Wrap(err, "sqlite: insert tech spec")
		}
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE rfps SET is_processed = ?, processed_at = ? WHERE id = ?`,
		rfp.IsProcessed, nullTime(rfp.ProcessedAt), rfp.ID,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: update rfp")
	}
	if err := checkRowsAffected(res, "rfp", rfp.ID); err != nil {
		return err
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit rfp analysis")
}

func (s *SQLiteStore) ListRequirements(ctx context.Context, rfpID string) ([]model.Requirement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, rfp_id, category, description, priority, section FROM requirements WHERE rfp_id = ? ORDER BY id`, rfpID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list requirements")
	}
	defer rows.Close()

	var requirements []model.Requirement
	for rows.Next() {
		var r model.Requirement
		if err := rows.Scan(&r.ID, &r.RFPID, &r.Category, &r.Description, &r.Priority, &r.Section); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan requirement")
		}
		requirements = append(requirements, r)
	}
	return requirements, eris.Wrap(rows.Err(), "sqlite: list requirements iterate")
}

func (s *SQLiteStore) ListTechSpecs(ctx context.Context, rfpID string) ([]model.TechnicalSpecification, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, rfp_id, name, description, category, measurement_unit, min_value, max_value, is_mandatory
		 FROM technical_specifications WHERE rfp_id = ? ORDER BY id`, rfpID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list tech specs")
	}
	defer rows.Close()

	var specs []model.TechnicalSpecification
	for rows.Next() {
		var sp model.TechnicalSpecification
		if err := rows.Scan(&sp.ID, &sp.RFPID, &sp.Name, &sp.Description, &sp.Category,
			&sp.MeasurementUnit, &sp.MinValue, &sp.MaxValue, &sp.IsMandatory); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan tech spec")
		}
		specs = append(specs, sp)
	}
	return specs, eris.Wrap(rows.Err(), "sqlite: list tech specs iterate")
}

// Bids

func (s *SQLiteStore) CreateBid(ctx context.Context, bid *model.VendorBid) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO vendor_bids (id, rfp_id, vendor_name, submitted_at, document_ref, is_processed, total_score)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		bid.ID, bid.RFPID, bid.VendorName, bid.SubmittedAt, bid.DocumentRef, bid.IsProcessed, nullFloat(bid.TotalScore),
	)
	return eris.Wrap(err, "sqlite: insert bid")
}

func (s *SQLiteStore) GetBid(ctx context.Context, bidID string) (*model.VendorBid, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, rfp_id, vendor_name, submitted_at, document_ref, is_processed, total_score
		 FROM vendor_bids WHERE id = ?`, bidID)
	return scanBid(row)
}

func (s *SQLiteStore) ListBids(ctx context.Context, rfpID string) ([]model.VendorBid, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, rfp_id, vendor_name, submitted_at, document_ref, is_processed, total_score
		 FROM vendor_bids WHERE rfp_id = ? ORDER BY submitted_at`, rfpID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list bids")
	}
	defer rows.Close()

	var bids []model.VendorBid
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		bids = append(bids, *b)
	}
	return bids, eris.Wrap(rows.Err(), "sqlite: list bids iterate")
}

func (s *SQLiteStore) UpsertBids(ctx context.Context, bids []model.VendorBid) (int64, error) {
	if len(bids) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	var written int64
	for _, bid := range bids {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO vendor_bids (id, rfp_id, vendor_name, submitted_at, document_ref, is_processed, total_score)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(rfp_id, document_ref) DO UPDATE SET
			   vendor_name = excluded.vendor_name,
			   submitted_at = excluded.submitted_at,
			   is_processed = excluded.is_processed`,
			bid.ID, bid.RFPID, bid.VendorName, bid.SubmittedAt, bid.DocumentRef, bid.IsProcessed, nullFloat(bid.TotalScore),
		)
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: upsert bid")
		}
		n, _ := res.RowsAffected()
		written += n
	}

	return written, eris.Wrap(tx.Commit(), "sqlite: commit bid upsert")
}

// Evaluations

func (s *SQLiteStore) SaveEvaluation(ctx context.Context, analysis *model.AnalysisResult) error {
	reqJSON, techJSON, strengthsJSON, weaknessesJSON, gapJSON, err := marshalAnalysis(analysis)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO analysis_results
		   (id, bid_id, analyzed_at, requirement_compliance, technical_compliance, strengths, weaknesses, gap_analysis, overall_score)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(bid_id) DO UPDATE SET
		   analyzed_at = excluded.analyzed_at,
		   requirement_compliance = excluded.requirement_compliance,
		   technical_compliance = excluded.technical_compliance,
		   strengths = excluded.strengths,
		   weaknesses = excluded.weaknesses,
		   gap_analysis = excluded.gap_analysis,
		   overall_score = excluded.overall_score`,
		analysis.ID, analysis.BidID, analysis.AnalyzedAt,
		reqJSON, techJSON, strengthsJSON, weaknessesJSON, gapJSON, analysis.OverallScore,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: upsert analysis result")
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE vendor_bids SET total_score = ? WHERE id = ?`,
		analysis.OverallScore, analysis.BidID,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: update bid total score")
	}
	if err := checkRowsAffected(res, "bid", analysis.BidID); err != nil {
		return err
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit evaluation")
}

func (s *SQLiteStore) GetEvaluation(ctx context.Context, bidID string) (*model.AnalysisResult, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, bid_id, analyzed_at, requirement_compliance, technical_compliance, strengths, weaknesses, gap_analysis, overall_score
		 FROM analysis_results WHERE bid_id = ?`, bidID)

	var a model.AnalysisResult
	var reqJSON, techJSON, strengthsJSON, weaknessesJSON, gapJSON string
	err := row.Scan(&a.ID, &a.BidID, &a.AnalyzedAt, &reqJSON, &techJSON, &strengthsJSON, &weaknessesJSON, &gapJSON, &a.OverallScore)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get analysis result")
	}
	if err := unmarshalAnalysis(&a, reqJSON, techJSON, strengthsJSON, weaknessesJSON, gapJSON); err != nil {
		return nil, err
	}
	return &a, nil
}

// Security

func (s *SQLiteStore) CreateSecurityRequirements(ctx context.Context, requirements []model.SecurityRequirement) error {
	if len(requirements) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	for _, req := range requirements {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO security_requirements (id, rfp_id, framework, control_id, title, description, compliance_level)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			req.ID, req.RFPID, string(req.Framework), req.ControlID, req.Title, req.Description, string(req.ComplianceLevel),
		); err != nil {
			return eris.Wrap(err, "sqlite: insert security requirement")
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit security requirements")
}

func (s *SQLiteStore) ListSecurityRequirements(ctx context.Context, rfpID string) ([]model.SecurityRequirement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, rfp_id, framework, control_id, title, description, compliance_level
		 FROM security_requirements WHERE rfp_id = ? ORDER BY id`, rfpID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list security requirements")
	}
	defer rows.Close()

	var requirements []model.SecurityRequirement
	for rows.Next() {
		var r model.SecurityRequirement
		if err := rows.Scan(&r.ID, &r.RFPID, &r.Framework, &r.ControlID, &r.Title, &r.Description, &r.ComplianceLevel); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan security requirement")
		}
		requirements = append(requirements, r)
	}
	return requirements, eris.Wrap(rows.Err(), "sqlite: list security requirements iterate")
}

func (s *SQLiteStore) SaveSecurityCompliance(ctx context.Context, compliance *model.BidSecurityCompliance) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bid_security_compliance (id, bid_id, requirement_id, score, notes, evidence, is_compliant, assessed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(bid_id, requirement_id) DO UPDATE SET
		   score = excluded.score,
		   notes = excluded.notes,
		   evidence = excluded.evidence,
		   is_compliant = excluded.is_compliant,
		   assessed_at = excluded.assessed_at`,
		compliance.ID, compliance.BidID, compliance.RequirementID, compliance.Score,
		compliance.Notes, compliance.Evidence, compliance.IsCompliant, compliance.AssessedAt,
	)
	return eris.Wrap(err, "sqlite: save security compliance")
}

func (s *SQLiteStore) ListSecurityCompliance(ctx context.Context, bidID string) ([]model.BidSecurityCompliance, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, bid_id, requirement_id, score, notes, evidence, is_compliant, assessed_at
		 FROM bid_security_compliance WHERE bid_id = ? ORDER BY assessed_at`, bidID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list security compliance")
	}
	defer rows.Close()

	var compliance []model.BidSecurityCompliance
	for rows.Next() {
		var c model.BidSecurityCompliance
		if err := rows.Scan(&c.ID, &c.BidID, &c.RequirementID, &c.Score, &c.Notes, &c.Evidence, &c.IsCompliant, &c.AssessedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan security compliance")
		}
		compliance = append(compliance, c)
	}
	return compliance, eris.Wrap(rows.Err(), "sqlite: list security compliance iterate")
}

// Reviews

const reviewColumns = `id, bid_id, rfp_id, review_type, status, priority, created_at, updated_at,
	assigned_to, completed_by, completed_at, time_to_complete,
	ai_assessment, human_assessment, review_notes, decision_rationale,
	agreement_level, confidence_score`

func (s *SQLiteStore) CreateReview(ctx context.Context, r *model.HumanReview) error {
	aiJSON, humanJSON, err := marshalAssessments(r)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO human_reviews (`+reviewColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, nullStr(r.BidID), nullStr(r.RFPID), string(r.ReviewType), string(r.Status), string(r.Priority),
		r.CreatedAt, r.UpdatedAt, r.AssignedTo, r.CompletedBy, nullTime(r.CompletedAt), nullFloat(r.TimeToComplete),
		aiJSON, humanJSON, r.ReviewNotes, r.DecisionRationale,
		nullFloat(r.AgreementLevel), nullFloat(r.ConfidenceScore),
	)
	return eris.Wrap(err, "sqlite: insert review")
}

func (s *SQLiteStore) GetReview(ctx context.Context, reviewID string) (*model.HumanReview, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM human_reviews WHERE id = ?`, reviewID)
	return scanReview(row)
}

func (s *SQLiteStore) ListPendingReviews(ctx context.Context, filter review.PendingFilter) ([]model.HumanReview, error) {
	query := `SELECT ` + reviewColumns + ` FROM human_reviews WHERE status = 'pending'`
	var args []any

	if filter.AssignedTo != "" {
		query += ` AND assigned_to = ?`
		args = append(args, filter.AssignedTo)
	}
	if filter.Priority != "" {
		query += ` AND priority = ?`
		args = append(args, string(filter.Priority))
	}
	if filter.ReviewType != "" {
		query += ` AND review_type = ?`
		args = append(args, string(filter.ReviewType))
	}
	query += ` ORDER BY ` + priorityRankSQL + ` DESC, created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list pending reviews")
	}
	defer rows.Close()
	return collectReviews(rows)
}

func (s *SQLiteStore) ListReviews(ctx context.Context) ([]model.HumanReview, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+reviewColumns+` FROM human_reviews ORDER BY created_at DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list reviews")
	}
	defer rows.Close()
	return collectReviews(rows)
}

func (s *SQLiteStore) CompleteReview(ctx context.Context, r *model.HumanReview, write *review.ReconcileWrite) error {
	aiJSON, humanJSON, err := marshalAssessments(r)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE human_reviews SET
		   status = ?, completed_by = ?, completed_at = ?, time_to_complete = ?,
		   ai_assessment = ?, human_assessment = ?, review_notes = ?, decision_rationale = ?,
		   agreement_level = ?, confidence_score = ?, updated_at = ?
		 WHERE id = ?`,
		string(r.Status), r.CompletedBy, nullTime(r.CompletedAt), nullFloat(r.TimeToComplete),
		aiJSON, humanJSON, r.ReviewNotes, r.DecisionRationale,
		nullFloat(r.AgreementLevel), nullFloat(r.ConfidenceScore), r.UpdatedAt,
		r.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update review %s", r.ID)
	}
	if err := checkRowsAffected(res, "review", r.ID); err != nil {
		return err
	}

	if write != nil {
		if err := applyReconcileSQLite(ctx, tx, write); err != nil {
			return err
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit review")
}

// applyReconcileSQLite writes the accepted assessment fields onto the bid's
// analysis row, creating it when absent, and refreshes the bid's cached
// score when the write carries one.
func applyReconcileSQLite(ctx context.Context, tx *sql.Tx, write *review.ReconcileWrite) error {
	var sets []string
	var args []any

	addJSON := func(col string, v any) error {
		buf, err := json.Marshal(v)
		if err != nil {
			return eris.Wrapf(err, "sqlite: marshal %s", col)
		}
		sets = append(sets, col+" = ?")
		args = append(args, string(buf))
		return nil
	}

	if write.RequirementCompliance != nil {
		if err := addJSON("requirement_compliance", write.RequirementCompliance); err != nil {
			return err
		}
	}
	if write.TechnicalCompliance != nil {
		if err := addJSON("technical_compliance", write.TechnicalCompliance); err != nil {
			return err
		}
	}
	if write.Strengths != nil {
		if err := addJSON("strengths", *write.Strengths); err != nil {
			return err
		}
	}
	if write.Weaknesses != nil {
		if err := addJSON("weaknesses", *write.Weaknesses); err != nil {
			return err
		}
	}
	if write.GapAnalysis != nil {
		if err := addJSON("gap_analysis", *write.GapAnalysis); err != nil {
			return err
		}
	}
	if write.OverallScore != nil {
		sets = append(sets, "overall_score = ?")
		args = append(args, *write.OverallScore)
	}

	if len(sets) > 0 {
		// Get-or-create keyed on bid_id: a review can complete before a
		// machine evaluation ever ran.
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO analysis_results (id, bid_id, analyzed_at) VALUES (?, ?, ?)
			 ON CONFLICT(bid_id) DO NOTHING`,
			uuid.New().String(), write.BidID, time.Now().UTC(),
		); err != nil {
			return eris.Wrap(err, "sqlite: ensure analysis row")
		}

		query := fmt.Sprintf(`UPDATE analysis_results SET %s WHERE bid_id = ?`, strings.Join(sets, ", "))
		args = append(args, write.BidID)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return eris.Wrap(err, "sqlite: apply reconcile write")
		}
	}

	if write.OverallScore != nil {
		if _, err := tx.ExecContext(ctx,
			`UPDATE vendor_bids SET total_score = ? WHERE id = ?`,
			*write.OverallScore, write.BidID,
		); err != nil {
			return eris.Wrap(err, "sqlite: update bid total score")
		}
	}
	return nil
}

// priorityRankSQL orders priorities for queue listing; SQLite has no enum
// comparison so ranks are spelled out.
const priorityRankSQL = `CASE priority
	WHEN 'critical' THEN 4
	WHEN 'high' THEN 3
	WHEN 'medium' THEN 2
	WHEN 'low' THEN 1
	ELSE 0 END`
