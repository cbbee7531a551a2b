package users

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

func (m *mockRepository) Create(ctx context.Context, u *User) (*User, error) {
	args := m.Called(ctx, u)
	out, _ := args.Get(0).(*User)
	return out, args.Error(1)
}

func (m *mockRepository) GetByUserID(ctx context.Context, userID int64) (*User, error) {
	args := m.Called(ctx, userID)
	out, _ := args.Get(0).(*User)
	return out, args.Error(1)
}

func (m *mockRepository) GetByReferralCode(ctx context.Context, code string) (*User, error) {
	args := m.Called(ctx, code)
	out, _ := args.Get(0).(*User)
	return out, args.Error(1)
}

func (m *mockRepository) GetBalance(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRepository) ListReferrals(ctx context.Context, code string) ([]*User, error) {
	args := m.Called(ctx, code)
	out, _ := args.Get(0).([]*User)
	return out, args.Error(1)
}

func (m *mockRepository) AllUserIDs(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).([]int64)
	return out, args.Error(1)
}

func TestService_Register_IdempotentForExistingUser(t *testing.T) {
	repo := &mockRepository{}
	service := NewService(repo)

	existing := &User{ID: 1, UserID: 7, ReferralCode: "J5JQJZ3K"}
	repo.On("GetByUserID", mock.Anything, int64(7)).Return(existing, nil)

	user, referrer, created, err := service.Register(context.Background(), 7, "abebe", "Abebe", "", "SOMECODE")
	assert.NoError(t, err)
	assert.Equal(t, existing, user)
	assert.Nil(t, referrer, "existing user gets no referrer notification")
	assert.False(t, created)

	// the referral code on a repeat /start must not even be resolved
	repo.AssertNotCalled(t, "GetByReferralCode")
	repo.AssertNotCalled(t, "Create")
}

func TestService_Register_UnknownReferralCodeDropped(t *testing.T) {
	repo := &mockRepository{}
	service := NewService(repo)

	repo.On("GetByUserID", mock.Anything, int64(7)).Return(nil, common.ErrUserNotFound)
	repo.On("GetByReferralCode", mock.Anything, "NOSUCH").Return(nil, common.ErrUserNotFound)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(u *User) bool {
		return u.UserID == 7 && u.ReferredBy == nil && u.ReferralCode != ""
	})).Return(&User{ID: 2, UserID: 7, ReferralCode: "AAAAAAAA"}, nil)

	user, referrer, created, err := service.Register(context.Background(), 7, "abebe", "Abebe", "", "NOSUCH")
	assert.NoError(t, err)
	assert.NotNil(t, user)
	assert.Nil(t, referrer)
	assert.True(t, created)
	repo.AssertExpectations(t)
}

func TestService_Register_ResolvesReferrer(t *testing.T) {
	repo := &mockRepository{}
	service := NewService(repo)

	ref := &User{ID: 1, UserID: 99, ReferralCode: "REFCODE1"}
	repo.On("GetByUserID", mock.Anything, int64(7)).Return(nil, common.ErrUserNotFound)
	repo.On("GetByReferralCode", mock.Anything, "REFCODE1").Return(ref, nil)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(u *User) bool {
		return u.ReferredBy != nil && *u.ReferredBy == "REFCODE1"
	})).Return(&User{ID: 2, UserID: 7, ReferralCode: "BBBBBBBB"}, nil)

	_, referrer, created, err := service.Register(context.Background(), 7, "abebe", "Abebe", "", "REFCODE1")
	assert.NoError(t, err)
	assert.True(t, created)
	if assert.NotNil(t, referrer) {
		assert.Equal(t, int64(99), referrer.UserID)
	}
	repo.AssertExpectations(t)
}

func TestService_Register_NoCode(t *testing.T) {
	repo := &mockRepository{}
	service := NewService(repo)

	repo.On("GetByUserID", mock.Anything, int64(7)).Return(nil, common.ErrUserNotFound)
	repo.On("Create", mock.Anything, mock.Anything).Return(&User{ID: 2, UserID: 7}, nil)

	_, referrer, created, err := service.Register(context.Background(), 7, "abebe", "Abebe", "", "")
	assert.NoError(t, err)
	assert.Nil(t, referrer)
	assert.True(t, created)
	repo.AssertNotCalled(t, "GetByReferralCode")
}

func TestNewReferralCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		code := newReferralCode()
		assert.Len(t, code, 8)
		seen[code] = true
	}
	// 40 random bits: 100 draws colliding would be astonishing
	assert.Greater(t, len(seen), 95)
}
