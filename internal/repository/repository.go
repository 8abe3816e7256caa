package repository

import (
	"context"

	"github.com/getpaidbd/referralbot/internal/model"
)

// BalanceOp selects the direction of a balance adjustment.
type BalanceOp int

const (
	BalanceAdd BalanceOp = iota
	BalanceSubtract
)

type Repository interface {
	// Users
	GetUser(ctx context.Context, id int64) (*model.UserAccount, error)
	CreateUser(ctx context.Context, user *model.UserAccount) error
	AdjustBalance(ctx context.Context, id int64, amount int64, op BalanceOp) error
	IncrementReferralCount(ctx context.Context, id int64) error
	IncrementWithdrawCount(ctx context.Context, id int64) error
	GetAllUserIDs(ctx context.Context) ([]int64, error)

	// Withdrawals
	RecordWithdrawal(ctx context.Context, request *model.WithdrawalRequest) error
	GetWithdrawals(ctx context.Context, userID int64, limit int) ([]model.WithdrawalRequest, error)
	GetWithdrawalByRequestID(ctx context.Context, requestID string) (*model.WithdrawalRequest, error)
	UpdateWithdrawalStatus(ctx context.Context, requestID string, status model.WithdrawalStatus) error
	GetWithdrawnTotal(ctx context.Context, userID int64) (int64, error)
}
