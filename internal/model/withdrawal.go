package model

import (
	"time"

	"github.com/google/uuid"
)

type WithdrawalStatus string

const (
	StatusPending   WithdrawalStatus = "pending"
	StatusApproved  WithdrawalStatus = "approved"
	StatusRejected  WithdrawalStatus = "rejected"
	StatusCompleted WithdrawalStatus = "completed"
)

// Terminal reports whether no further status transition is permitted.
func (s WithdrawalStatus) Terminal() bool {
	return s == StatusRejected || s == StatusCompleted
}

// CanTransition reports whether the status may move to next.
// pending goes to approved or rejected; only approved goes to completed.
func (s WithdrawalStatus) CanTransition(next WithdrawalStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusApproved || next == StatusRejected
	case StatusApproved:
		return next == StatusCompleted
	default:
		return false
	}
}

// PayoutMethod is one of the supported mobile banking channels.
type PayoutMethod string

const (
	MethodBkash  PayoutMethod = "bkash"
	MethodNagad  PayoutMethod = "nagad"
	MethodRocket PayoutMethod = "rocket"
)

func (m PayoutMethod) Valid() bool {
	return m == MethodBkash || m == MethodNagad || m == MethodRocket
}

// DisplayName returns the channel name as shown to users.
func (m PayoutMethod) DisplayName() string {
	switch m {
	case MethodBkash:
		return "বিকাশ"
	case MethodNagad:
		return "নগদ"
	case MethodRocket:
		return "রকেট"
	default:
		return string(m)
	}
}

type WithdrawalRequest struct {
	RequestID     string           `json:"request_id"`
	UserID        int64            `json:"user_id"`
	FullName      string           `json:"full_name"`
	Amount        int64            `json:"amount"`
	Method        PayoutMethod     `json:"method"`
	AccountNumber string           `json:"account_number"`
	Status        WithdrawalStatus `json:"status"`
	RequestedAt   time.Time        `json:"requested_at"`
}

// GenerateRequestID assigns a new random request id if one is not set yet.
func (w *WithdrawalRequest) GenerateRequestID() {
	if w.RequestID == "" {
		w.RequestID = uuid.New().String()
	}
}

// ShortID returns the request id prefix used in chat messages.
func (w *WithdrawalRequest) ShortID() string {
	if len(w.RequestID) > 8 {
		return w.RequestID[:8]
	}
	return w.RequestID
}
