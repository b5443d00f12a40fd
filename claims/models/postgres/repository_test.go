package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	customErrors "github.com/domjweb/FastVal/claims/errors"
	"github.com/domjweb/FastVal/claims/models"
)

func testRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db), mock
}

func claimRow() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(claimColumns).AddRow(
		"CLM-TEST0001", "837P",
		"PAT001", "DOE JOHN", "1980-01-02", "M",
		"1234567890", "ACME CLINIC", "1234567890",
		"2026-08-01", "", "",
		[]byte(`[{"line_number":1,"procedure_code":"99213","units":1,"charge_amount":"100.00"},{"line_number":2,"procedure_code":"85025","units":1,"charge_amount":"250.50"}]`),
		[]byte(`["I10","E11.9"]`),
		[]byte(`["99213","85025"]`),
		"350.50", nil, nil,
		"VALIDATED", "", []byte(`[]`),
		"ISA*...", now, now, 1,
	)
}

func TestGetClaim(t *testing.T) {
	repository, mock := testRepository(t)

	mock.ExpectQuery("SELECT .+ FROM claims WHERE claim_id = .+").
		WithArgs("CLM-TEST0001").
		WillReturnRows(claimRow())

	claim, err := repository.GetClaim(context.Background(), "CLM-TEST0001")
	require.NoError(t, err)

	assert.Equal(t, "CLM-TEST0001", claim.ClaimID)
	assert.Equal(t, models.ClaimTypeProfessional, claim.ClaimType)
	assert.Equal(t, models.ClaimStatusValidated, claim.Status)
	assert.Len(t, claim.ServiceLines, 2)
	assert.True(t, claim.TotalCharges.Equal(decimal.RequireFromString("350.50")))
	assert.False(t, claim.AllowedAmount.Valid)
	assert.False(t, claim.PaidAmount.Valid)
	assert.Equal(t, []string{"I10", "E11.9"}, claim.DiagnosisCodes)
	assert.Equal(t, 1, claim.Version)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetClaimNotFound(t *testing.T) {
	repository, mock := testRepository(t)

	mock.ExpectQuery("SELECT .+ FROM claims WHERE claim_id = .+").
		WithArgs("CLM-MISSING").
		WillReturnRows(sqlmock.NewRows(claimColumns))

	_, err := repository.GetClaim(context.Background(), "CLM-MISSING")
	var notFound *customErrors.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "CLM-MISSING", notFound.ClaimID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateClaimDuplicate(t *testing.T) {
	repository, mock := testRepository(t)

	mock.ExpectExec("INSERT INTO claims").
		WillReturnError(&pq.Error{Code: "23505"})

	claim := &models.Claim{ClaimID: "CLM-TEST0001", Status: models.ClaimStatusReceived}
	err := repository.CreateClaim(context.Background(), claim)

	var conflict *customErrors.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "CLM-TEST0001", conflict.ClaimID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateClaim(t *testing.T) {
	repository, mock := testRepository(t)

	mock.ExpectExec("INSERT INTO claims").
		WillReturnResult(sqlmock.NewResult(1, 1))

	claim := &models.Claim{
		ClaimID:      "CLM-TEST0002",
		ClaimType:    models.ClaimTypeInstitutional,
		Status:       models.ClaimStatusValidated,
		TotalCharges: decimal.RequireFromString("350.50"),
	}
	require.NoError(t, repository.CreateClaim(context.Background(), claim))
	assert.Equal(t, 1, claim.Version)
	assert.False(t, claim.CreatedAt.IsZero())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateClaim(t *testing.T) {
	repository, mock := testRepository(t)

	mock.ExpectExec("UPDATE claims SET .+ WHERE claim_id = .+ AND version = .+").
		WillReturnResult(sqlmock.NewResult(0, 1))

	claim := &models.Claim{ClaimID: "CLM-TEST0001", Status: models.ClaimStatusAdjudicated, Version: 1}
	require.NoError(t, repository.UpdateClaim(context.Background(), claim))
	assert.Equal(t, 2, claim.Version)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateClaimConflict(t *testing.T) {
	repository, mock := testRepository(t)

	// Zero rows matched, but the claim still exists: the version moved.
	mock.ExpectExec("UPDATE claims SET .+").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT .+ FROM claims WHERE claim_id = .+").
		WillReturnRows(claimRow())

	claim := &models.Claim{ClaimID: "CLM-TEST0001", Status: models.ClaimStatusAdjudicated, Version: 1}
	err := repository.UpdateClaim(context.Background(), claim)

	var conflict *customErrors.ConflictError
	require.ErrorAs(t, err, &conflict)
	// The caller's copy keeps its stale version for the re-read.
	assert.Equal(t, 1, claim.Version)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateClaimGone(t *testing.T) {
	repository, mock := testRepository(t)

	mock.ExpectExec("UPDATE claims SET .+").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT .+ FROM claims WHERE claim_id = .+").
		WillReturnRows(sqlmock.NewRows(claimColumns))

	claim := &models.Claim{ClaimID: "CLM-GONE", Status: models.ClaimStatusAdjudicated, Version: 1}
	err := repository.UpdateClaim(context.Background(), claim)

	var notFound *customErrors.NotFoundError
	assert.ErrorAs(t, err, &notFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetClaimsFilter(t *testing.T) {
	repository, mock := testRepository(t)

	mock.ExpectQuery("SELECT .+ FROM claims WHERE status = .+ AND patient_id = .+ ORDER BY created_at DESC LIMIT .+").
		WithArgs("VALIDATED", "PAT001", 10).
		WillReturnRows(claimRow())

	claims, err := repository.GetClaims(context.Background(), models.ListFilter{
		Status:    models.ClaimStatusValidated,
		PatientID: "PAT001",
		Limit:     10,
	})
	require.NoError(t, err)
	require.Len(t, claims, 1)
	assert.Equal(t, "CLM-TEST0001", claims[0].ClaimID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountClaims(t *testing.T) {
	repository, mock := testRepository(t)

	mock.ExpectQuery("SELECT COUNT.+ FROM claims WHERE provider_id = .+").
		WithArgs("1234567890").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := repository.CountClaims(context.Background(), models.ListFilter{ProviderID: "1234567890"})
	require.NoError(t, err)
	assert.Equal(t, 7, count)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteClaim(t *testing.T) {
	repository, mock := testRepository(t)

	mock.ExpectExec("DELETE FROM remittances WHERE claim_id = .+").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM claims WHERE claim_id = .+").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repository.DeleteClaim(context.Background(), "CLM-TEST0001"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteClaimNotFound(t *testing.T) {
	repository, mock := testRepository(t)

	mock.ExpectExec("DELETE FROM remittances WHERE claim_id = .+").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM claims WHERE claim_id = .+").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repository.DeleteClaim(context.Background(), "CLM-MISSING")
	var notFound *customErrors.NotFoundError
	assert.ErrorAs(t, err, &notFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRemittanceByClaimID(t *testing.T) {
	repository, mock := testRepository(t)

	mock.ExpectQuery("SELECT .+ FROM remittances WHERE claim_id = .+").
		WithArgs("CLM-TEST0001").
		WillReturnRows(sqlmock.NewRows(remittanceColumns).AddRow(
			"RMT-ABCDEF123456", "CLM-TEST0001",
			"CHK12345678", "2026-08-27", "ACH", "PAYER001", "Sample Insurance Co",
			"350.50", "280.40", "280.40", "70.10",
			[]byte(`[{"group_code":"CO","reason_code":"45","amount":"70.10"}]`),
			"ISA*...", time.Now(),
		))

	advice, err := repository.GetRemittanceByClaimID(context.Background(), "CLM-TEST0001")
	require.NoError(t, err)
	assert.Equal(t, "RMT-ABCDEF123456", advice.RemittanceID)
	assert.True(t, advice.TotalAdjustments.Equal(decimal.RequireFromString("70.10")))
	require.Len(t, advice.Adjustments, 1)
	assert.Equal(t, "CO", advice.Adjustments[0].GroupCode)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRemittanceByClaimIDNotFound(t *testing.T) {
	repository, mock := testRepository(t)

	mock.ExpectQuery("SELECT .+ FROM remittances WHERE claim_id = .+").
		WillReturnRows(sqlmock.NewRows(remittanceColumns))

	_, err := repository.GetRemittanceByClaimID(context.Background(), "CLM-TEST0001")
	var notFound *customErrors.NotFoundError
	assert.ErrorAs(t, err, &notFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
