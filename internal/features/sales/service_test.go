package sales

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"gebeyahub.et/referral-bot/internal/common"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) AddPending(ctx context.Context, userID int64, pkg, note string) (*PendingPurchase, error) {
	args := m.Called(ctx, userID, pkg, note)
	p, _ := args.Get(0).(*PendingPurchase)
	return p, args.Error(1)
}

func (m *mockRepository) ConfirmPurchase(ctx context.Context, userID int64, pkg string, commission int64) (*ConfirmResult, error) {
	args := m.Called(ctx, userID, pkg, commission)
	r, _ := args.Get(0).(*ConfirmResult)
	return r, args.Error(1)
}

func (m *mockRepository) ListPending(ctx context.Context) ([]*PendingPurchase, error) {
	args := m.Called(ctx)
	ps, _ := args.Get(0).([]*PendingPurchase)
	return ps, args.Error(1)
}

func TestPackageByName(t *testing.T) {
	tests := []struct {
		input      string
		name       string
		price      int64
		commission int64
		ok         bool
	}{
		{"Basic", PackageBasic, 1500, 200, true},
		{"basic", PackageBasic, 1500, 200, true},
		{"PREMIUM", PackagePremium, 3000, 400, true},
		{"vip", PackageVIP, 3500, 500, true},
		{"Vip", PackageVIP, 3500, 500, true},
		{"gold", "", 0, 0, false},
		{"", "", 0, 0, false},
	}

	for _, tt := range tests {
		pkg, ok := PackageByName(tt.input)
		assert.Equal(t, tt.ok, ok, "input %q", tt.input)
		if tt.ok {
			assert.Equal(t, tt.name, pkg.Name)
			assert.Equal(t, tt.price, pkg.Price)
			assert.Equal(t, tt.commission, pkg.Commission)
		}
	}
}

func TestService_AddPending_InvalidPackage(t *testing.T) {
	repo := &mockRepository{}
	service := NewService(repo)

	_, err := service.AddPending(context.Background(), 7, "gold", "")
	assert.ErrorIs(t, err, common.ErrInvalidPackage)
	repo.AssertNotCalled(t, "AddPending")
}

func TestService_AddPending_NormalizesPackageName(t *testing.T) {
	repo := &mockRepository{}
	service := NewService(repo)

	want := &PendingPurchase{ID: 1, UserID: 7, Package: PackagePremium}
	repo.On("AddPending", mock.Anything, int64(7), PackagePremium, "receipt #42").Return(want, nil)

	got, err := service.AddPending(context.Background(), 7, "premium", "receipt #42")
	assert.NoError(t, err)
	assert.Equal(t, want, got)
	repo.AssertExpectations(t)
}

func TestService_ConfirmPurchase_PassesCommissionRate(t *testing.T) {
	repo := &mockRepository{}
	service := NewService(repo)

	referrerID := int64(99)
	want := &ConfirmResult{
		UserID:          7,
		Package:         PackageVIP,
		ReferrerID:      &referrerID,
		ReferrerBalance: 500,
		Commission:      500,
	}
	repo.On("ConfirmPurchase", mock.Anything, int64(7), PackageVIP, int64(500)).Return(want, nil)

	got, err := service.ConfirmPurchase(context.Background(), 7, "vip")
	assert.NoError(t, err)
	assert.Equal(t, want, got)
	repo.AssertExpectations(t)
}

func TestService_ConfirmPurchase_InvalidPackage(t *testing.T) {
	repo := &mockRepository{}
	service := NewService(repo)

	_, err := service.ConfirmPurchase(context.Background(), 7, "platinum")
	assert.ErrorIs(t, err, common.ErrInvalidPackage)
	repo.AssertNotCalled(t, "ConfirmPurchase")
}

func TestService_ConfirmPurchase_UserNotFound(t *testing.T) {
	repo := &mockRepository{}
	service := NewService(repo)

	repo.On("ConfirmPurchase", mock.Anything, int64(404), PackageBasic, int64(200)).
		Return(nil, common.ErrUserNotFound)

	_, err := service.ConfirmPurchase(context.Background(), 404, "Basic")
	assert.ErrorIs(t, err, common.ErrUserNotFound)
}
