package models

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockRepository is a testify mock of Repository, shared by service and web
// tests.
type MockRepository struct {
	mock.Mock
}

var _ Repository = &MockRepository{}

func (m *MockRepository) CreateClaim(ctx context.Context, claim *Claim) error {
	args := m.Called(ctx, claim)
	return args.Error(0)
}

func (m *MockRepository) GetClaim(ctx context.Context, claimID string) (*Claim, error) {
	args := m.Called(ctx, claimID)
	claim, _ := args.Get(0).(*Claim)
	return claim, args.Error(1)
}

func (m *MockRepository) GetClaims(ctx context.Context, filter ListFilter) ([]*Claim, error) {
	args := m.Called(ctx, filter)
	claims, _ := args.Get(0).([]*Claim)
	return claims, args.Error(1)
}

func (m *MockRepository) CountClaims(ctx context.Context, filter ListFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) UpdateClaim(ctx context.Context, claim *Claim) error {
	args := m.Called(ctx, claim)
	return args.Error(0)
}

func (m *MockRepository) DeleteClaim(ctx context.Context, claimID string) error {
	args := m.Called(ctx, claimID)
	return args.Error(0)
}

func (m *MockRepository) CreateRemittance(ctx context.Context, advice *RemittanceAdvice) error {
	args := m.Called(ctx, advice)
	return args.Error(0)
}

func (m *MockRepository) GetRemittanceByClaimID(ctx context.Context, claimID string) (*RemittanceAdvice, error) {
	args := m.Called(ctx, claimID)
	advice, _ := args.Get(0).(*RemittanceAdvice)
	return advice, args.Error(1)
}

func (m *MockRepository) DeleteRemittanceForClaim(ctx context.Context, claimID string) error {
	args := m.Called(ctx, claimID)
	return args.Error(0)
}
