package withdraw

import (
	"context"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gebeyahub.et/referral-bot/internal/config"
)

type fakeSender struct {
	texts []string
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.texts = append(f.texts, msg.Text)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) last() string {
	if len(f.texts) == 0 {
		return ""
	}
	return f.texts[len(f.texts)-1]
}

type fakeBalances struct {
	balance int64
}

func (f *fakeBalances) GetBalance(ctx context.Context, userID int64) (int64, error) {
	return f.balance, nil
}

func newTestHandler(repo *mockRepository, balance int64) (*Handler, *fakeSender) {
	out := &fakeSender{}
	h := NewHandler(
		NewService(repo, 100, 100),
		&fakeBalances{balance: balance},
		NewSessionStore(time.Minute),
		out,
		&config.Config{AdminIDs: []int64{1}},
	)
	return h, out
}

func TestHandler_Dialog_HappyPath(t *testing.T) {
	repo := &mockRepository{}
	method := MethodTelebirr
	repo.On("Create", mock.Anything, int64(7), int64(200), MethodTelebirr).
		Return(&Request{ID: 1, UserID: 7, Amount: 200, PaymentMethod: &method, Status: StatusPending}, nil)
	h, out := newTestHandler(repo, 500)
	ctx := context.Background()

	h.HandleWithdraw(ctx, 7, 7)
	sess := h.store.get(7)
	require.NotNil(t, sess)
	assert.Equal(t, stateAwaitingAmount, sess.state)

	assert.True(t, h.HandleSessionMessage(ctx, 7, 7, "200"))
	sess = h.store.get(7)
	require.NotNil(t, sess)
	assert.Equal(t, stateAwaitingMethod, sess.state)
	assert.Equal(t, int64(200), sess.amount)

	assert.True(t, h.HandleSessionMessage(ctx, 7, 7, "telebirr"))
	assert.Nil(t, h.store.get(7), "dialog ends once the request is filed")
	repo.AssertExpectations(t)

	// the request lands with the admin with the resolution commands
	assert.Contains(t, out.texts[len(out.texts)-2], "/approve 1")
	assert.Contains(t, out.last(), "Request #1")
}

func TestHandler_Dialog_CancelAtAmountStep(t *testing.T) {
	repo := &mockRepository{}
	h, _ := newTestHandler(repo, 500)
	ctx := context.Background()

	h.HandleWithdraw(ctx, 7, 7)
	assert.True(t, h.HandleSessionMessage(ctx, 7, 7, "cancel"))

	assert.Nil(t, h.store.get(7))
	repo.AssertNotCalled(t, "Create")
}

func TestHandler_Dialog_CancelAtMethodStep(t *testing.T) {
	repo := &mockRepository{}
	h, _ := newTestHandler(repo, 500)
	ctx := context.Background()

	h.HandleWithdraw(ctx, 7, 7)
	assert.True(t, h.HandleSessionMessage(ctx, 7, 7, "300"))
	assert.True(t, h.HandleSessionMessage(ctx, 7, 7, "Cancel"))

	assert.Nil(t, h.store.get(7))
	repo.AssertNotCalled(t, "Create")
}

func TestHandler_Dialog_ValidationKeepsState(t *testing.T) {
	repo := &mockRepository{}
	h, out := newTestHandler(repo, 500)
	ctx := context.Background()

	h.HandleWithdraw(ctx, 7, 7)

	// none of these advance the dialog past the amount step
	for _, text := range []string{"abc", "150", "-100", "600"} {
		assert.True(t, h.HandleSessionMessage(ctx, 7, 7, text), "input %q", text)
		sess := h.store.get(7)
		require.NotNil(t, sess, "input %q", text)
		assert.Equal(t, stateAwaitingAmount, sess.state, "input %q", text)
	}

	assert.True(t, h.HandleSessionMessage(ctx, 7, 7, "300"))
	require.NotNil(t, h.store.get(7))
	assert.Equal(t, stateAwaitingMethod, h.store.get(7).state)

	// an unknown method keeps the dialog at the method step
	assert.True(t, h.HandleSessionMessage(ctx, 7, 7, "paypal"))
	sess := h.store.get(7)
	require.NotNil(t, sess)
	assert.Equal(t, stateAwaitingMethod, sess.state)
	assert.Contains(t, out.last(), "Telebirr")

	repo.AssertNotCalled(t, "Create")
}

func TestHandler_Dialog_NoSessionFallsThrough(t *testing.T) {
	h, _ := newTestHandler(&mockRepository{}, 500)

	assert.False(t, h.HandleSessionMessage(context.Background(), 7, 7, "200"),
		"free text without a dialog is not consumed")
}

func TestHandler_HandleWithdraw_BelowMinimum(t *testing.T) {
	h, out := newTestHandler(&mockRepository{}, 50)

	h.HandleWithdraw(context.Background(), 7, 7)

	assert.Nil(t, h.store.get(7), "no dialog for an empty balance")
	assert.Contains(t, out.last(), "at least 100 birr")
}
