package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/huandu/go-sqlbuilder"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	customErrors "github.com/domjweb/FastVal/claims/errors"
	"github.com/domjweb/FastVal/claims/models"
)

type queryable interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type executable interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

const sqlFlavor = sqlbuilder.PostgreSQL

// Postgres class for unique_violation
const pqUniqueViolation = "23505"

// Ensure Repository satisfies the interface
var _ models.Repository = &Repository{}

type Repository struct {
	queryable
	executable
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db, db}
}

func NewRepositoryTx(tx *sql.Tx) *Repository {
	return &Repository{tx, tx}
}

var claimColumns = []string{
	"claim_id", "claim_type",
	"patient_id", "patient_name", "patient_dob", "patient_gender",
	"provider_id", "provider_name", "provider_npi",
	"service_date", "admission_date", "discharge_date",
	"service_lines", "diagnosis_codes", "procedure_codes",
	"total_charges", "allowed_amount", "paid_amount",
	"status", "denial_reason", "validation_reasons",
	"raw_edi", "created_at", "updated_at", "version",
}

func (r *Repository) CreateClaim(ctx context.Context, claim *models.Claim) error {
	lines, err := json.Marshal(claim.ServiceLines)
	if err != nil {
		return errors.Wrap(err, "marshaling service lines")
	}
	diagnoses, err := json.Marshal(claim.DiagnosisCodes)
	if err != nil {
		return errors.Wrap(err, "marshaling diagnosis codes")
	}
	procedures, err := json.Marshal(claim.ProcedureCodes)
	if err != nil {
		return errors.Wrap(err, "marshaling procedure codes")
	}
	reasons, err := json.Marshal(claim.ValidationReasons)
	if err != nil {
		return errors.Wrap(err, "marshaling validation reasons")
	}

	now := time.Now()
	claim.CreatedAt, claim.UpdatedAt, claim.Version = now, now, 1

	ib := sqlFlavor.NewInsertBuilder()
	ib.InsertInto("claims").Cols(claimColumns...).Values(
		claim.ClaimID, string(claim.ClaimType),
		claim.PatientID, claim.PatientName, claim.PatientDOB, claim.PatientGender,
		claim.ProviderID, claim.ProviderName, claim.ProviderNPI,
		claim.ServiceDate, claim.AdmissionDate, claim.DischargeDate,
		lines, diagnoses, procedures,
		claim.TotalCharges, claim.AllowedAmount, claim.PaidAmount,
		string(claim.Status), claim.DenialReason, reasons,
		claim.RawEDI, claim.CreatedAt, claim.UpdatedAt, claim.Version,
	)

	query, args := ib.Build()
	if _, err := r.ExecContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return &customErrors.ConflictError{ClaimID: claim.ClaimID, Msg: "claim already exists"}
		}
		return err
	}
	return nil
}

func (r *Repository) GetClaim(ctx context.Context, claimID string) (*models.Claim, error) {
	sb := sqlFlavor.NewSelectBuilder()
	sb.Select(claimColumns...).From("claims")
	sb.Where(sb.Equal("claim_id", claimID))

	query, args := sb.Build()
	claim, err := scanClaim(r.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &customErrors.NotFoundError{ClaimID: claimID}
		}
		return nil, err
	}
	return claim, nil
}

func (r *Repository) GetClaims(ctx context.Context, filter models.ListFilter) ([]*models.Claim, error) {
	sb := sqlFlavor.NewSelectBuilder()
	sb.Select(claimColumns...).From("claims")
	applyFilter(sb, filter)
	sb.OrderBy("created_at").Desc()
	if filter.Limit > 0 {
		sb.Limit(filter.Limit)
	}
	if filter.Skip > 0 {
		sb.Offset(filter.Skip)
	}

	query, args := sb.Build()
	rows, err := r.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claims []*models.Claim
	for rows.Next() {
		claim, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		claims = append(claims, claim)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return claims, nil
}

func (r *Repository) CountClaims(ctx context.Context, filter models.ListFilter) (int, error) {
	sb := sqlFlavor.NewSelectBuilder()
	sb.Select("COUNT(1)").From("claims")
	applyFilter(sb, filter)

	query, args := sb.Build()
	var count int
	if err := r.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func applyFilter(sb *sqlbuilder.SelectBuilder, filter models.ListFilter) {
	if filter.Status != "" {
		sb.Where(sb.Equal("status", string(filter.Status)))
	}
	if filter.PatientID != "" {
		sb.Where(sb.Equal("patient_id", filter.PatientID))
	}
	if filter.ProviderID != "" {
		sb.Where(sb.Equal("provider_id", filter.ProviderID))
	}
}

// UpdateClaim is a compare-and-swap on the claim's version token; the WHERE
// clause matching zero rows means either a concurrent writer advanced the
// version first, or the claim is gone.
func (r *Repository) UpdateClaim(ctx context.Context, claim *models.Claim) error {
	reasons, err := json.Marshal(claim.ValidationReasons)
	if err != nil {
		return errors.Wrap(err, "marshaling validation reasons")
	}

	now := time.Now()
	ub := sqlFlavor.NewUpdateBuilder()
	ub.Update("claims").Set(
		ub.Assign("status", string(claim.Status)),
		ub.Assign("allowed_amount", claim.AllowedAmount),
		ub.Assign("paid_amount", claim.PaidAmount),
		ub.Assign("denial_reason", claim.DenialReason),
		ub.Assign("validation_reasons", reasons),
		ub.Assign("updated_at", now),
		ub.Assign("version", claim.Version+1),
	)
	ub.Where(
		ub.Equal("claim_id", claim.ClaimID),
		ub.Equal("version", claim.Version),
	)

	query, args := ub.Build()
	result, err := r.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		if _, err := r.GetClaim(ctx, claim.ClaimID); err != nil {
			return err
		}
		return &customErrors.ConflictError{ClaimID: claim.ClaimID}
	}

	claim.Version++
	claim.UpdatedAt = now
	return nil
}

func (r *Repository) DeleteClaim(ctx context.Context, claimID string) error {
	if err := r.DeleteRemittanceForClaim(ctx, claimID); err != nil {
		return err
	}

	db := sqlFlavor.NewDeleteBuilder()
	db.DeleteFrom("claims")
	db.Where(db.Equal("claim_id", claimID))

	query, args := db.Build()
	result, err := r.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &customErrors.NotFoundError{ClaimID: claimID}
	}
	return nil
}

var remittanceColumns = []string{
	"remittance_id", "claim_id",
	"check_number", "payment_date", "payment_method", "payer_id", "payer_name",
	"total_billed", "total_allowed", "total_paid", "total_adjustments",
	"adjustments", "raw_835", "created_at",
}

func (r *Repository) CreateRemittance(ctx context.Context, advice *models.RemittanceAdvice) error {
	adjustments, err := json.Marshal(advice.Adjustments)
	if err != nil {
		return errors.Wrap(err, "marshaling adjustments")
	}

	advice.CreatedAt = time.Now()

	ib := sqlFlavor.NewInsertBuilder()
	ib.InsertInto("remittances").Cols(remittanceColumns...).Values(
		advice.RemittanceID, advice.ClaimID,
		advice.CheckNumber, advice.PaymentDate, advice.PaymentMethod, advice.PayerID, advice.PayerName,
		advice.TotalBilled, advice.TotalAllowed, advice.TotalPaid, advice.TotalAdjustments,
		adjustments, advice.Raw835, advice.CreatedAt,
	)

	query, args := ib.Build()
	if _, err := r.ExecContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return &customErrors.ConflictError{ClaimID: advice.ClaimID, Msg: "remittance already exists"}
		}
		return err
	}
	return nil
}

func (r *Repository) GetRemittanceByClaimID(ctx context.Context, claimID string) (*models.RemittanceAdvice, error) {
	sb := sqlFlavor.NewSelectBuilder()
	sb.Select(remittanceColumns...).From("remittances")
	sb.Where(sb.Equal("claim_id", claimID))

	query, args := sb.Build()

	var (
		advice      models.RemittanceAdvice
		adjustments []byte
	)
	err := r.QueryRowContext(ctx, query, args...).Scan(
		&advice.RemittanceID, &advice.ClaimID,
		&advice.CheckNumber, &advice.PaymentDate, &advice.PaymentMethod, &advice.PayerID, &advice.PayerName,
		&advice.TotalBilled, &advice.TotalAllowed, &advice.TotalPaid, &advice.TotalAdjustments,
		&adjustments, &advice.Raw835, &advice.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &customErrors.NotFoundError{ClaimID: claimID}
		}
		return nil, err
	}
	if len(adjustments) > 0 {
		if err := json.Unmarshal(adjustments, &advice.Adjustments); err != nil {
			return nil, errors.Wrap(err, "unmarshaling adjustments")
		}
	}
	return &advice, nil
}

func (r *Repository) DeleteRemittanceForClaim(ctx context.Context, claimID string) error {
	db := sqlFlavor.NewDeleteBuilder()
	db.DeleteFrom("remittances")
	db.Where(db.Equal("claim_id", claimID))

	query, args := db.Build()
	_, err := r.ExecContext(ctx, query, args...)
	return err
}

type row interface {
	Scan(dest ...interface{}) error
}

func scanClaim(r row) (*models.Claim, error) {
	var (
		claim     models.Claim
		claimType string
		status    string
		lines     []byte
		diagnoses []byte
		codes     []byte
		reasons   []byte
	)
	err := r.Scan(
		&claim.ClaimID, &claimType,
		&claim.PatientID, &claim.PatientName, &claim.PatientDOB, &claim.PatientGender,
		&claim.ProviderID, &claim.ProviderName, &claim.ProviderNPI,
		&claim.ServiceDate, &claim.AdmissionDate, &claim.DischargeDate,
		&lines, &diagnoses, &codes,
		&claim.TotalCharges, &claim.AllowedAmount, &claim.PaidAmount,
		&status, &claim.DenialReason, &reasons,
		&claim.RawEDI, &claim.CreatedAt, &claim.UpdatedAt, &claim.Version,
	)
	if err != nil {
		return nil, err
	}

	claim.ClaimType = models.ClaimType(claimType)
	claim.Status = models.ClaimStatus(status)

	for _, col := range []struct {
		data []byte
		dest interface{}
	}{
		{lines, &claim.ServiceLines},
		{diagnoses, &claim.DiagnosisCodes},
		{codes, &claim.ProcedureCodes},
		{reasons, &claim.ValidationReasons},
	} {
		if len(col.data) == 0 {
			continue
		}
		if err := json.Unmarshal(col.data, col.dest); err != nil {
			return nil, errors.Wrap(err, "unmarshaling claim column")
		}
	}

	return &claim, nil
}
