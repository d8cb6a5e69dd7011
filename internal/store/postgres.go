package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/verisource/procure-cli/internal/db"
	"github.com/verisource/procure-cli/internal/model"
	"github.com/verisource/procure-cli/internal/review"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"get_rfp":           `SELECT id, title, agency, project_id, description, document_ref, uploaded_at, is_processed, processed_at FROM rfps WHERE id = $1`,
	"get_bid":           `SELECT id, rfp_id, vendor_name, submitted_at, document_ref, is_processed, total_score FROM vendor_bids WHERE id = $1`,
	"get_review":        `SELECT ` + reviewColumns + ` FROM human_reviews WHERE id = $1`,
	"list_requirements": `SELECT id, rfp_id, category, description, priority, section FROM requirements WHERE rfp_id = $1 ORDER BY id`,
	"list_tech_specs":   `SELECT id, rfp_id, name, description, category, measurement_unit, min_value, max_value, is_mandatory FROM technical_specifications WHERE rfp_id = $1 ORDER BY id`,
	"get_evaluation":    `SELECT id, bid_id, analyzed_at, requirement_compliance, technical_compliance, strengths, weaknesses, gap_analysis, overall_score FROM analysis_results WHERE bid_id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool; used by tests with pgxmock.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Pool returns the underlying database pool for subsystems that need direct
// query access.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS rfps (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	title        TEXT NOT NULL,
	agency       TEXT,
	project_id   TEXT,
	description  TEXT,
	document_ref TEXT NOT NULL,
	uploaded_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	is_processed BOOLEAN NOT NULL DEFAULT false,
	processed_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS requirements (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	rfp_id      TEXT NOT NULL REFERENCES rfps(id),
	category    TEXT,
	description TEXT NOT NULL,
	priority    TEXT,
	section     TEXT
);

CREATE TABLE IF NOT EXISTS technical_specifications (
	id               TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	rfp_id           TEXT NOT NULL REFERENCES rfps(id),
	name             TEXT NOT NULL,
	description      TEXT,
	category         TEXT,
	measurement_unit TEXT,
	min_value        TEXT,
	max_value        TEXT,
	is_mandatory     BOOLEAN NOT NULL DEFAULT true
);

CREATE TABLE IF NOT EXISTS vendor_bids (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	rfp_id       TEXT NOT NULL REFERENCES rfps(id),
	vendor_name  TEXT NOT NULL,
	submitted_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	document_ref TEXT NOT NULL,
	is_processed BOOLEAN NOT NULL DEFAULT false,
	total_score  DOUBLE PRECISION,
	UNIQUE(rfp_id, document_ref)
);

CREATE TABLE IF NOT EXISTS analysis_results (
	id                     TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	bid_id                 TEXT NOT NULL UNIQUE REFERENCES vendor_bids(id),
	analyzed_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
	requirement_compliance JSONB NOT NULL DEFAULT '{}',
	technical_compliance   JSONB NOT NULL DEFAULT '{}',
	strengths              JSONB NOT NULL DEFAULT '[]',
	weaknesses             JSONB NOT NULL DEFAULT '[]',
	gap_analysis           JSONB NOT NULL DEFAULT '[]',
	overall_score          DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS security_requirements (
	id               TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	rfp_id           TEXT NOT NULL REFERENCES rfps(id),
	framework        TEXT NOT NULL,
	control_id       TEXT,
	title            TEXT NOT NULL,
	description      TEXT,
	compliance_level TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS bid_security_compliance (
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	bid_id         TEXT NOT NULL REFERENCES vendor_bids(id),
	requirement_id TEXT NOT NULL REFERENCES security_requirements(id),
	score          INTEGER NOT NULL,
	notes          TEXT,
	evidence       TEXT,
	is_compliant   BOOLEAN NOT NULL DEFAULT false,
	assessed_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE(bid_id, requirement_id)
);

CREATE TABLE IF NOT EXISTS human_reviews (
	id                 TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	bid_id             TEXT REFERENCES vendor_bids(id),
	rfp_id             TEXT REFERENCES rfps(id),
	review_type        TEXT NOT NULL,
	status             TEXT NOT NULL DEFAULT 'pending',
	priority           TEXT NOT NULL DEFAULT 'medium',
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	assigned_to        TEXT,
	completed_by       TEXT,
	completed_at       TIMESTAMPTZ,
	time_to_complete   DOUBLE PRECISION,
	ai_assessment      JSONB,
	human_assessment   JSONB,
	review_notes       TEXT,
	decision_rationale TEXT,
	agreement_level    DOUBLE PRECISION,
	confidence_score   DOUBLE PRECISION
);

CREATE INDEX IF NOT EXISTS idx_requirements_rfp_id ON requirements(rfp_id);
CREATE INDEX IF NOT EXISTS idx_tech_specs_rfp_id ON technical_specifications(rfp_id);
CREATE INDEX IF NOT EXISTS idx_vendor_bids_rfp_id ON vendor_bids(rfp_id);
CREATE INDEX IF NOT EXISTS idx_analysis_results_bid_id ON analysis_results(bid_id);
CREATE INDEX IF NOT EXISTS idx_security_requirements_rfp_id ON security_requirements(rfp_id);
CREATE INDEX IF NOT EXISTS idx_bid_security_compliance_bid_id ON bid_security_compliance(bid_id);
CREATE INDEX IF NOT EXISTS idx_human_reviews_status ON human_reviews(status);
CREATE INDEX IF NOT EXISTS idx_human_reviews_bid_id ON human_reviews(bid_id);
CREATE INDEX IF NOT EXISTS idx_human_reviews_queue ON human_reviews(status, priority, created_at);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// RFPs

func (s *PostgresStore) CreateRFP(ctx context.Context, rfp *model.RFP) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO rfps (id, title, agency, project_id, description, document_ref, uploaded_at, is_processed, processed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rfp.ID, rfp.Title, rfp.Agency, rfp.ProjectID, rfp.Description, rfp.DocumentRef,
		rfp.UploadedAt, rfp.IsProcessed, rfp.ProcessedAt,
	)
	return eris.Wrap(err, "postgres: insert rfp")
}

func (s *PostgresStore) GetRFP(ctx context.Context, rfpID string) (*model.RFP, error) {
	var r model.RFP
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, agency, project_id, description, document_ref, uploaded_at, is_processed, processed_at
		 FROM rfps WHERE id = $1`, rfpID,
	).Scan(&r.ID, &r.Title, &r.Agency, &r.ProjectID, &r.Description, &r.DocumentRef,
		&r.UploadedAt, &r.IsProcessed, &r.ProcessedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get rfp %s", rfpID)
	}
	return &r, nil
}

func (s *PostgresStore) ListRFPs(ctx context.Context) ([]model.RFP, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, agency, project_id, description, document_ref, uploaded_at, is_processed, processed_at
		 FROM rfps ORDER BY uploaded_at DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list rfps")
	}
	defer rows.Close()

	var rfps []model.RFP
	for rows.Next() {
		var r model.RFP
		if err := rows.Scan(&r.ID, &r.Title, &r.Agency, &r.ProjectID, &r.Description, &r.DocumentRef,
			&r.UploadedAt, &r.IsProcessed, &r.ProcessedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan rfp")
		}
		rfps = append(rfps, r)
	}
	return rfps, eris.Wrap(rows.Err(), "postgres: list rfps iterate")
}

func (s *PostgresStore) SaveRFPAnalysis(ctx context.Context, rfp *model.RFP, requirements []model.Requirement, specs []model.TechnicalSpecification) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin tx")
	}
	defer tx.Rollback(ctx)

	// Re-analysis replaces the previous extraction.
	if _, err := tx.Exec(ctx, `DELETE FROM requirements WHERE rfp_id = $1`, rfp.ID); err != nil {
		return eris.Wrap(err, "postgres: clear requirements")
	}
	if _, err := tx.Exec(ctx, `DELETE FROM technical_specifications WHERE rfp_id = $1`, rfp.ID); err != nil {
		return eris.Wrap(err, "postgres: clear tech specs")
	}

	reqRows := make([][]any, 0, len(requirements))
	for _, req := range requirements {
		reqRows = append(reqRows, []any{req.ID, req.RFPID, req.Category, req.Description, req.Priority, req.Section})
	}
	if _, err := db.CopyFromTx(ctx, tx, "requirements",
		[]string{"id", "rfp_id", "category", "description", "priority", "section"}, reqRows); err != nil {
		return err
	}

	specRows := make([][]any, 0, len(specs))
	for _, spec := range specs {
		specRows = append(specRows, []any{spec.ID, spec.RFPID, spec.Name, spec.Description, spec.Category,
			spec.MeasurementUnit, spec.MinValue, spec.MaxValue, spec.IsMandatory})
	}
	if _, err := db.CopyFromTx(ctx, tx, "technical_specifications",
		[]string{"id", "rfp_id", "name", "description", "category", "measurement_unit", "min_value", "max_value", "is_mandatory"},
		specRows); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx,
		`UPDATE rfps SET is_processed = $1, processed_at = $2 WHERE id = $3`,
		rfp.IsProcessed, rfp.ProcessedAt, rfp.ID,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: update rfp")
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("rfp not found: %s", rfp.ID)
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit rfp analysis")
}

func (s *PostgresStore) ListRequirements(ctx context.Context, rfpID string) ([]model.Requirement, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, rfp_id, category, description, priority, section FROM requirements WHERE rfp_id = $1 ORDER BY id`, rfpID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list requirements")
	}
	defer rows.Close()

	var requirements []model.Requirement
	for rows.Next() {
		var r model.Requirement
		if err := rows.Scan(&r.ID, &r.RFPID, &r.Category, &r.Description, &r.Priority, &r.Section); err != nil {
			return nil, eris.Wrap(err, "postgres: scan requirement")
		}
		requirements = append(requirements, r)
	}
	return requirements, eris.Wrap(rows.Err(), "postgres: list requirements iterate")
}

func (s *PostgresStore) ListTechSpecs(ctx context.Context, rfpID string) ([]model.TechnicalSpecification, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, rfp_id, name, description, category, measurement_unit, min_value, max_value, is_mandatory
		 FROM technical_specifications WHERE rfp_id = $1 ORDER BY id`, rfpID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list tech specs")
	}
	defer rows.Close()

	var specs []model.TechnicalSpecification
	for rows.Next() {
		var sp model.TechnicalSpecification
		if err := rows.Scan(&sp.ID, &sp.RFPID, &sp.Name, &sp.Description, &sp.Category,
			&sp.MeasurementUnit, &sp.MinValue, &sp.MaxValue, &sp.IsMandatory); err != nil {
			return nil, eris.Wrap(err, "postgres: scan tech spec")
		}
		specs = append(specs, sp)
	}
	return specs, eris.Wrap(rows.Err(), "postgres: list tech specs iterate")
}

// Bids

func (s *PostgresStore) CreateBid(ctx context.Context, bid *model.VendorBid) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO vendor_bids (id, rfp_id, vendor_name, submitted_at, document_ref, is_processed, total_score)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		bid.ID, bid.RFPID, bid.VendorName, bid.SubmittedAt, bid.DocumentRef, bid.IsProcessed, bid.TotalScore,
	)
	return eris.Wrap(err, "postgres: insert bid")
}

func (s *PostgresStore) GetBid(ctx context.Context, bidID string) (*model.VendorBid, error) {
	var b model.VendorBid
	err := s.pool.QueryRow(ctx,
		`SELECT id, rfp_id, vendor_name, submitted_at, document_ref, is_processed, total_score
		 FROM vendor_bids WHERE id = $1`, bidID,
	).Scan(&b.ID, &b.RFPID, &b.VendorName, &b.SubmittedAt, &b.DocumentRef, &b.IsProcessed, &b.TotalScore)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get bid %s", bidID)
	}
	return &b, nil
}

func (s *PostgresStore) ListBids(ctx context.Context, rfpID string) ([]model.VendorBid, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, rfp_id, vendor_name, submitted_at, document_ref, is_processed, total_score
		 FROM vendor_bids WHERE rfp_id = $1 ORDER BY submitted_at`, rfpID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list bids")
	}
	defer rows.Close()

	var bids []model.VendorBid
	for rows.Next() {
		var b model.VendorBid
		if err := rows.Scan(&b.ID, &b.RFPID, &b.VendorName, &b.SubmittedAt, &b.DocumentRef, &b.IsProcessed, &b.TotalScore); err != nil {
			return nil, eris.Wrap(err, "postgres: scan bid")
		}
		bids = append(bids, b)
	}
	return bids, eris.Wrap(rows.Err(), "postgres: list bids iterate")
}

func (s *PostgresStore) UpsertBids(ctx context.Context, bids []model.VendorBid) (int64, error) {
	rows := make([][]any, 0, len(bids))
	for _, b := range bids {
		rows = append(rows, []any{b.ID, b.RFPID, b.VendorName, b.SubmittedAt, b.DocumentRef, b.IsProcessed, b.TotalScore})
	}
	return db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "vendor_bids",
		Columns:      []string{"id", "rfp_id", "vendor_name", "submitted_at", "document_ref", "is_processed", "total_score"},
		ConflictKeys: []string{"rfp_id", "document_ref"},
		UpdateCols:   []string{"vendor_name", "submitted_at", "is_processed"},
	}, rows)
}

// Evaluations

func (s *PostgresStore) SaveEvaluation(ctx context.Context, analysis *model.AnalysisResult) error {
	reqJSON, err := json.Marshal(orEmptyMap(analysis.RequirementCompliance))
	if err != nil {
		return eris.Wrap(err, "postgres: marshal requirement compliance")
	}
	techJSON, err := json.Marshal(orEmptyMap(analysis.TechnicalCompliance))
	if err != nil {
		return eris.Wrap(err, "postgres: marshal technical compliance")
	}
	strengthsJSON, err := json.Marshal(orEmptySlice(analysis.Strengths))
	if err != nil {
		return eris.Wrap(err, "postgres: marshal strengths")
	}
	weaknessesJSON, err := json.Marshal(orEmptySlice(analysis.Weaknesses))
	if err != nil {
		return eris.Wrap(err, "postgres: marshal weaknesses")
	}
	gapJSON, err := json.Marshal(orEmptyGaps(analysis.GapAnalysis))
	if err != nil {
		return eris.Wrap(err, "postgres: marshal gap analysis")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin tx")
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO analysis_results
		   (id, bid_id, analyzed_at, requirement_compliance, technical_compliance, strengths, weaknesses, gap_analysis, overall_score)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (bid_id) DO UPDATE SET
		   analyzed_at = $3,
		   requirement_compliance = $4,
		   technical_compliance = $5,
		   strengths = $6,
		   weaknesses = $7,
		   gap_analysis = $8,
		   overall_score = $9`,
		analysis.ID, analysis.BidID, analysis.AnalyzedAt,
		reqJSON, techJSON, strengthsJSON, weaknessesJSON, gapJSON, analysis.OverallScore,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: upsert analysis result")
	}

	tag, err := tx.Exec(ctx,
		`UPDATE vendor_bids SET total_score = $1 WHERE id = $2`,
		analysis.OverallScore, analysis.BidID,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: update bid total score")
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("bid not found: %s", analysis.BidID)
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit evaluation")
}

func (s *PostgresStore) GetEvaluation(ctx context.Context, bidID string) (*model.AnalysisResult, error) {
	var a model.AnalysisResult
	var reqJSON, techJSON, strengthsJSON, weaknessesJSON, gapJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, bid_id, analyzed_at, requirement_compliance, technical_compliance, strengths, weaknesses, gap_analysis, overall_score
		 FROM analysis_results WHERE bid_id = $1`, bidID,
	).Scan(&a.ID, &a.BidID, &a.AnalyzedAt, &reqJSON, &techJSON, &strengthsJSON, &weaknessesJSON, &gapJSON, &a.OverallScore)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get analysis result")
	}
	if err := unmarshalAnalysis(&a, string(reqJSON), string(techJSON), string(strengthsJSON), string(weaknessesJSON), string(gapJSON)); err != nil {
		return nil, err
	}
	return &a, nil
}

// Security

func (s *PostgresStore) CreateSecurityRequirements(ctx context.Context, requirements []model.SecurityRequirement) error {
	rows := make([][]any, 0, len(requirements))
	for _, req := range requirements {
		rows = append(rows, []any{req.ID, req.RFPID, string(req.Framework), req.ControlID, req.Title, req.Description, string(req.ComplianceLevel)})
	}
	_, err := db.CopyFrom(ctx, s.pool, "security_requirements",
		[]string{"id", "rfp_id", "framework", "control_id", "title", "description", "compliance_level"}, rows)
	return err
}

func (s *PostgresStore) ListSecurityRequirements(ctx context.Context, rfpID string) ([]model.SecurityRequirement, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, rfp_id, framework, control_id, title, description, compliance_level
		 FROM security_requirements WHERE rfp_id = $1 ORDER BY id`, rfpID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list security requirements")
	}
	defer rows.Close()

	var requirements []model.SecurityRequirement
	for rows.Next() {
		var r model.SecurityRequirement
		if err := rows.Scan(&r.ID, &r.RFPID, &r.Framework, &r.ControlID, &r.Title, &r.Description, &r.ComplianceLevel); err != nil {
			return nil, eris.Wrap(err, "postgres: scan security requirement")
		}
		requirements = append(requirements, r)
	}
	return requirements, eris.Wrap(rows.Err(), "postgres: list security requirements iterate")
}

func (s *PostgresStore) SaveSecurityCompliance(ctx context.Context, compliance *model.BidSecurityCompliance) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO bid_security_compliance (id, bid_id, requirement_id, score, notes, evidence, is_compliant, assessed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (bid_id, requirement_id) DO UPDATE SET
		   score = $4, notes = $5, evidence = $6, is_compliant = $7, assessed_at = $8`,
		compliance.ID, compliance.BidID, compliance.RequirementID, compliance.Score,
		compliance.Notes, compliance.Evidence, compliance.IsCompliant, compliance.AssessedAt,
	)
	return eris.Wrap(err, "postgres: save security compliance")
}

func (s *PostgresStore) ListSecurityCompliance(ctx context.Context, bidID string) ([]model.BidSecurityCompliance, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, bid_id, requirement_id, score, notes, evidence, is_compliant, assessed_at
		 FROM bid_security_compliance WHERE bid_id = $1 ORDER BY assessed_at`, bidID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list security compliance")
	}
	defer rows.Close()

	var compliance []model.BidSecurityCompliance
	for rows.Next() {
		var c model.BidSecurityCompliance
		if err := rows.Scan(&c.ID, &c.BidID, &c.RequirementID, &c.Score, &c.Notes, &c.Evidence, &c.IsCompliant, &c.AssessedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan security compliance")
		}
		compliance = append(compliance, c)
	}
	return compliance, eris.Wrap(rows.Err(), "postgres: list security compliance iterate")
}

// Reviews

func (s *PostgresStore) CreateReview(ctx context.Context, r *model.HumanReview) error {
	aiJSON, humanJSON, err := marshalAssessments(r)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO human_reviews (`+reviewColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		r.ID, nullStr(r.BidID), nullStr(r.RFPID), string(r.ReviewType), string(r.Status), string(r.Priority),
		r.CreatedAt, r.UpdatedAt, r.AssignedTo, r.CompletedBy, r.CompletedAt, r.TimeToComplete,
		aiJSON, humanJSON, r.ReviewNotes, r.DecisionRationale, r.AgreementLevel, r.ConfidenceScore,
	)
	return eris.Wrap(err, "postgres: insert review")
}

func (s *PostgresStore) GetReview(ctx context.Context, reviewID string) (*model.HumanReview, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+reviewColumns+` FROM human_reviews WHERE id = $1`, reviewID)
	r, err := scanReview(row)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get review %s", reviewID)
	}
	return r, nil
}

func (s *PostgresStore) ListPendingReviews(ctx context.Context, filter review.PendingFilter) ([]model.HumanReview, error) {
	query := `SELECT ` + reviewColumns + ` FROM human_reviews WHERE status = 'pending'`
	args := []any{}
	argIdx := 1

	if filter.AssignedTo != "" {
		query += fmt.Sprintf(` AND assigned_to = $%d`, argIdx)
		args = append(args, filter.AssignedTo)
		argIdx++
	}
	if filter.Priority != "" {
		query += fmt.Sprintf(` AND priority = $%d`, argIdx)
		args = append(args, string(filter.Priority))
		argIdx++
	}
	if filter.ReviewType != "" {
		query += fmt.Sprintf(` AND review_type = $%d`, argIdx)
		args = append(args, string(filter.ReviewType))
		argIdx++
	}
	query += ` ORDER BY ` + priorityRankSQL + ` DESC, created_at ASC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list pending reviews")
	}
	defer rows.Close()
	return collectPgxReviews(rows)
}

func (s *PostgresStore) ListReviews(ctx context.Context) ([]model.HumanReview, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+reviewColumns+` FROM human_reviews ORDER BY created_at DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list reviews")
	}
	defer rows.Close()
	return collectPgxReviews(rows)
}

func (s *PostgresStore) CompleteReview(ctx context.Context, r *model.HumanReview, write *review.ReconcileWrite) error {
	aiJSON, humanJSON, err := marshalAssessments(r)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin tx")
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE human_reviews SET
		   status = $1, completed_by = $2, completed_at = $3, time_to_complete = $4,
		   ai_assessment = $5, human_assessment = $6, review_notes = $7, decision_rationale = $8,
		   agreement_level = $9, confidence_score = $10, updated_at = $11
		 WHERE id = $12`,
		string(r.Status), r.CompletedBy, r.CompletedAt, r.TimeToComplete,
		aiJSON, humanJSON, r.ReviewNotes, r.DecisionRationale,
		r.AgreementLevel, r.ConfidenceScore, r.UpdatedAt,
		r.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update review %s", r.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("review not found: %s", r.ID)
	}

	if write != nil {
		if err := applyReconcilePgx(ctx, tx, write); err != nil {
			return err
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit review")
}

func applyReconcilePgx(ctx context.Context, tx pgx.Tx, write *review.ReconcileWrite) error {
	var sets []string
	var args []any

	addJSON := func(col string, v any) error {
		buf, err := json.Marshal(v)
		if err != nil {
			return eris.Wrapf(err, "postgres: marshal %s", col)
		}
		args = append(args, buf)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
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
		args = append(args, *write.OverallScore)
		sets = append(sets, fmt.Sprintf("overall_score = $%d", len(args)))
	}

	if len(sets) > 0 {
		// Get-or-create keyed on bid_id: a review can complete before a
		// machine evaluation ever ran.
		if _, err := tx.Exec(ctx,
			`INSERT INTO analysis_results (id, bid_id, analyzed_at) VALUES ($1, $2, $3)
			 ON CONFLICT (bid_id) DO NOTHING`,
			uuid.New().String(), write.BidID, time.Now().UTC(),
		); err != nil {
			return eris.Wrap(err, "postgres: ensure analysis row")
		}

		args = append(args, write.BidID)
		query := fmt.Sprintf(`UPDATE analysis_results SET %s WHERE bid_id = $%d`, strings.Join(sets, ", "), len(args))
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return eris.Wrap(err, "postgres: apply reconcile write")
		}
	}

	if write.OverallScore != nil {
		if _, err := tx.Exec(ctx,
			`UPDATE vendor_bids SET total_score = $1 WHERE id = $2`,
			*write.OverallScore, write.BidID,
		); err != nil {
			return eris.Wrap(err, "postgres: update bid total score")
		}
	}
	return nil
}

func collectPgxReviews(rows pgx.Rows) ([]model.HumanReview, error) {
	var reviews []model.HumanReview
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan review")
		}
		reviews = append(reviews, *r)
	}
	return reviews, eris.Wrap(rows.Err(), "postgres: collect reviews")
}
