package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusTransitions(t *testing.T) {
	assert.True(t, StatusPending.CanTransition(StatusApproved))
	assert.True(t, StatusPending.CanTransition(StatusRejected))
	assert.False(t, StatusPending.CanTransition(StatusCompleted))

	assert.True(t, StatusApproved.CanTransition(StatusCompleted))
	assert.False(t, StatusApproved.CanTransition(StatusRejected))

	assert.False(t, StatusRejected.CanTransition(StatusApproved))
	assert.False(t, StatusCompleted.CanTransition(StatusPending))
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusApproved.Terminal())
	assert.True(t, StatusRejected.Terminal())
	assert.True(t, StatusCompleted.Terminal())
}

func TestGenerateRequestID(t *testing.T) {
	w := &WithdrawalRequest{}
	w.GenerateRequestID()
	assert.NotEmpty(t, w.RequestID)

	id := w.RequestID
	w.GenerateRequestID()
	assert.Equal(t, id, w.RequestID)
}

func TestShortID(t *testing.T) {
	w := &WithdrawalRequest{RequestID: "0123456789abcdef"}
	assert.Equal(t, "01234567", w.ShortID())

	w = &WithdrawalRequest{RequestID: "abc"}
	assert.Equal(t, "abc", w.ShortID())
}

func TestPayoutMethodValid(t *testing.T) {
	assert.True(t, MethodBkash.Valid())
	assert.True(t, MethodNagad.Valid())
	assert.True(t, MethodRocket.Valid())
	assert.False(t, PayoutMethod("paypal").Valid())
	assert.False(t, PayoutMethod("").Valid())
}
