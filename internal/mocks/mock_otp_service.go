package mocks

import (
	"context"

	"github.com/MikeMehr/patient-intake-2-sub002/domain"
)

// MockOTPService implements domain.OTPService for testing.
type MockOTPService struct {
	UpsertFunc func(ctx context.Context, invitationID string) (string, error)
	VerifyFunc func(ctx context.Context, invitationID, code string) (*domain.OTPVerifyResult, error)
}

// NewMockOTPService creates a new MockOTPService with default behaviors
func NewMockOTPService() *MockOTPService {
	return &MockOTPService{}
}

// Upsert issues a fixed code unless UpsertFunc is set.
func (m *MockOTPService) Upsert(ctx context.Context, invitationID string) (string, error) {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, invitationID)
	}
	return "123456", nil
}

// Verify accepts "123456" unless VerifyFunc is set.
func (m *MockOTPService) Verify(ctx context.Context, invitationID, code string) (*domain.OTPVerifyResult, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, invitationID, code)
	}
	if code == "123456" {
		return &domain.OTPVerifyResult{OK: true}, nil
	}
	return &domain.OTPVerifyResult{Reason: domain.OTPReasonInvalid}, nil
}
