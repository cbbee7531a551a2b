package withdraw

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

func (m *mockRepository) Create(ctx context.Context, userID, amount int64, method string) (*Request, error) {
	args := m.Called(ctx, userID, amount, method)
	req, _ := args.Get(0).(*Request)
	return req, args.Error(1)
}

func (m *mockRepository) CreateFullBalance(ctx context.Context, userID int64) (*Request, error) {
	args := m.Called(ctx, userID)
	req, _ := args.Get(0).(*Request)
	return req, args.Error(1)
}

func (m *mockRepository) Approve(ctx context.Context, id int64, note string) (*Request, error) {
	args := m.Called(ctx, id, note)
	req, _ := args.Get(0).(*Request)
	return req, args.Error(1)
}

func (m *mockRepository) Reject(ctx context.Context, id int64, reason string) (*Request, error) {
	args := m.Called(ctx, id, reason)
	req, _ := args.Get(0).(*Request)
	return req, args.Error(1)
}

func (m *mockRepository) ListPending(ctx context.Context) ([]*Request, error) {
	args := m.Called(ctx)
	reqs, _ := args.Get(0).([]*Request)
	return reqs, args.Error(1)
}

func TestService_CheckAmount(t *testing.T) {
	service := NewService(&mockRepository{}, 100, 100)

	tests := []struct {
		name    string
		amount  int64
		balance int64
		wantErr error
	}{
		{"valid", 200, 500, nil},
		{"exact balance", 500, 500, nil},
		{"zero", 0, 500, common.ErrInvalidAmount},
		{"negative", -100, 500, common.ErrInvalidAmount},
		{"not a multiple of 100", 150, 500, common.ErrInvalidAmount},
		{"over balance", 600, 500, common.ErrInsufficientBalance},
		{"negative non-multiple stays invalid", -50, 500, common.ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := service.CheckAmount(tt.amount, tt.balance)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestService_Create_RejectsBadAmountsWithoutTouchingRepo(t *testing.T) {
	repo := &mockRepository{}
	service := NewService(repo, 100, 100)

	for _, amount := range []int64{0, -100, 150, 99} {
		_, err := service.Create(context.Background(), 7, amount, MethodTelebirr)
		assert.ErrorIs(t, err, common.ErrInvalidAmount, "amount %d", amount)
	}
	repo.AssertNotCalled(t, "Create")
}

func TestService_Create_DelegatesToRepo(t *testing.T) {
	repo := &mockRepository{}
	service := NewService(repo, 100, 100)

	method := MethodCBE
	want := &Request{ID: 1, UserID: 7, Amount: 200, PaymentMethod: &method, Status: StatusPending}
	repo.On("Create", mock.Anything, int64(7), int64(200), MethodCBE).Return(want, nil)

	got, err := service.Create(context.Background(), 7, 200, MethodCBE)
	assert.NoError(t, err)
	assert.Equal(t, want, got)
	repo.AssertExpectations(t)
}

func TestService_Create_SurfacesInsufficientBalance(t *testing.T) {
	repo := &mockRepository{}
	service := NewService(repo, 100, 100)

	repo.On("Create", mock.Anything, int64(7), int64(900), MethodTelebirr).
		Return(nil, common.ErrInsufficientBalance)

	_, err := service.Create(context.Background(), 7, 900, MethodTelebirr)
	assert.ErrorIs(t, err, common.ErrInsufficientBalance)
}

func TestService_ResolveErrorsPassThrough(t *testing.T) {
	repo := &mockRepository{}
	service := NewService(repo, 100, 100)

	repo.On("Approve", mock.Anything, int64(5), "").Return(nil, common.ErrRequestNotPending)
	repo.On("Reject", mock.Anything, int64(6), "dup").Return(nil, common.ErrRequestNotFound)

	_, err := service.Approve(context.Background(), 5, "")
	assert.ErrorIs(t, err, common.ErrRequestNotPending)

	_, err = service.Reject(context.Background(), 6, "dup")
	assert.ErrorIs(t, err, common.ErrRequestNotFound)
}
