package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/getpaidbd/referralbot/internal/model"
	"github.com/getpaidbd/referralbot/internal/repository"
)

// Repository is the slice of the storage layer the reward service uses.
type Repository interface {
	GetUser(ctx context.Context, id int64) (*model.UserAccount, error)
	CreateUser(ctx context.Context, user *model.UserAccount) error
	AdjustBalance(ctx context.Context, id int64, amount int64, op repository.BalanceOp) error
	IncrementReferralCount(ctx context.Context, id int64) error
	IncrementWithdrawCount(ctx context.Context, id int64) error
	GetAllUserIDs(ctx context.Context) ([]int64, error)
	RecordWithdrawal(ctx context.Context, request *model.WithdrawalRequest) error
	GetWithdrawals(ctx context.Context, userID int64, limit int) ([]model.WithdrawalRequest, error)
	GetWithdrawalByRequestID(ctx context.Context, requestID string) (*model.WithdrawalRequest, error)
	UpdateWithdrawalStatus(ctx context.Context, requestID string, status model.WithdrawalStatus) error
	GetWithdrawnTotal(ctx context.Context, userID int64) (int64, error)
}

// LedgerError means the debit itself could not complete; no balance was touched.
type LedgerError struct {
	Err error
}

func (e *LedgerError) Error() string { return fmt.Sprintf("ledger failure: %v", e.Err) }
func (e *LedgerError) Unwrap() error { return e.Err }

// RecordingError means the balance was debited but the withdrawal request could
// not be recorded. Refunded tells whether the compensating credit succeeded.
type RecordingError struct {
	Refunded bool
	Err      error
}

func (e *RecordingError) Error() string {
	return fmt.Sprintf("recording failure (refunded=%t): %v", e.Refunded, e.Err)
}
func (e *RecordingError) Unwrap() error { return e.Err }

// RewardService implements referral accrual, withdrawal settlement and the
// account views on top of the repository.
type RewardService struct {
	repo          Repository
	joiningBonus  int64
	referralBonus int64
	minWithdrawal int64
}

func NewRewardService(repo Repository, joiningBonus, referralBonus, minWithdrawal int64) *RewardService {
	return &RewardService{
		repo:          repo,
		joiningBonus:  joiningBonus,
		referralBonus: referralBonus,
		minWithdrawal: minWithdrawal,
	}
}

func (s *RewardService) JoiningBonus() int64  { return s.joiningBonus }
func (s *RewardService) ReferralBonus() int64 { return s.referralBonus }
func (s *RewardService) MinWithdrawal() int64 { return s.minWithdrawal }

func (s *RewardService) GetUser(ctx context.Context, id int64) (*model.UserAccount, error) {
	return s.repo.GetUser(ctx, id)
}

// RegisterUser creates the account on first contact and applies the referral
// bonuses. Re-delivered /start events resolve to the existing account, so the
// second return value tells callers whether this registration actually
// created the user.
func (s *RewardService) RegisterUser(ctx context.Context, id int64, name string, referredBy *int64) (*model.UserAccount, bool, error) {
	if existing, err := s.repo.GetUser(ctx, id); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, model.ErrUserNotFound) {
		return nil, false, err
	}

	referrer := s.resolveReferrer(ctx, id, referredBy)

	user := &model.UserAccount{
		ID:         id,
		Name:       name,
		Balance:    s.joiningBonus,
		ReferredBy: referrer,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, model.ErrUserExists) {
			// Lost a race against a duplicate registration event.
			existing, getErr := s.repo.GetUser(ctx, id)
			if getErr != nil {
				return nil, false, getErr
			}
			return existing, false, nil
		}
		return nil, false, err
	}

	if referrer != nil {
		s.creditReferrer(ctx, *referrer, id)
	}
	return user, true, nil
}

// resolveReferrer drops referrer ids that do not resolve to an existing
// account or point back at the new user itself.
func (s *RewardService) resolveReferrer(ctx context.Context, id int64, referredBy *int64) *int64 {
	if referredBy == nil {
		return nil
	}
	if *referredBy == id {
		log.Printf("user %d tried to refer self", id)
		return nil
	}
	if _, err := s.repo.GetUser(ctx, *referredBy); err != nil {
		log.Printf("referrer %d not found for user %d: %v", *referredBy, id, err)
		return nil
	}
	return referredBy
}

// creditReferrer applies the two referrer-side effects. They are not atomic
// with each other; if the referrer account vanished between the existence
// check and the credit, that is logged as a terminal error, never swallowed.
func (s *RewardService) creditReferrer(ctx context.Context, referrerID, newUserID int64) {
	if err := s.repo.AdjustBalance(ctx, referrerID, s.referralBonus, repository.BalanceAdd); err != nil {
		log.Printf("ERROR: failed to credit referral bonus to %d for new user %d: %v", referrerID, newUserID, err)
		return
	}
	if err := s.repo.IncrementReferralCount(ctx, referrerID); err != nil {
		log.Printf("ERROR: failed to increment referral count for %d: %v", referrerID, err)
	}
}

// ConfirmWithdrawal settles a confirmed withdrawal: re-check the balance,
// debit it, then record the request. Debit-before-record means a recorded
// withdrawal is always funded; if recording fails the debit is reversed.
func (s *RewardService) ConfirmWithdrawal(ctx context.Context, userID int64, fullName string, amount int64, method model.PayoutMethod, accountNumber string) (*model.WithdrawalRequest, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, &LedgerError{Err: err}
	}
	if user.Balance < amount {
		return nil, model.ErrInsufficientFunds
	}

	if err := s.repo.AdjustBalance(ctx, userID, amount, repository.BalanceSubtract); err != nil {
		if errors.Is(err, model.ErrInsufficientFunds) {
			return nil, model.ErrInsufficientFunds
		}
		return nil, &LedgerError{Err: err}
	}

	request := &model.WithdrawalRequest{
		UserID:        userID,
		FullName:      fullName,
		Amount:        amount,
		Method:        method,
		AccountNumber: accountNumber,
		Status:        model.StatusPending,
		RequestedAt:   time.Now(),
	}
	request.GenerateRequestID()

	if err := s.repo.RecordWithdrawal(ctx, request); err != nil {
		log.Printf("CRITICAL: user %d debited %d but withdrawal recording failed, refunding: %v", userID, amount, err)
		refundErr := s.repo.AdjustBalance(ctx, userID, amount, repository.BalanceAdd)
		if refundErr != nil {
			log.Printf("CRITICAL: refund of %d to user %d failed: %v", amount, userID, refundErr)
		}
		return nil, &RecordingError{Refunded: refundErr == nil, Err: err}
	}

	if err := s.repo.IncrementWithdrawCount(ctx, userID); err != nil {
		// Informational counter only, the request already stands.
		log.Printf("failed to increment withdraw count for %d: %v", userID, err)
	}

	log.Printf("withdrawal recorded: user %d, amount %d, id %s", userID, amount, request.RequestID)
	return request, nil
}

// Withdrawals returns the user's most recent requests, newest first.
func (s *RewardService) Withdrawals(ctx context.Context, userID int64, limit int) ([]model.WithdrawalRequest, error) {
	return s.repo.GetWithdrawals(ctx, userID, limit)
}

func (s *RewardService) AllUserIDs(ctx context.Context) ([]int64, error) {
	return s.repo.GetAllUserIDs(ctx)
}

// UpdateRequestStatus applies an operator status transition, enforcing the
// pending -> approved/rejected -> completed lifecycle.
func (s *RewardService) UpdateRequestStatus(ctx context.Context, requestID string, next model.WithdrawalStatus) (*model.WithdrawalRequest, error) {
	request, err := s.repo.GetWithdrawalByRequestID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !request.Status.CanTransition(next) {
		return nil, fmt.Errorf("%w: %s -> %s", model.ErrInvalidStatusTransition, request.Status, next)
	}
	if err := s.repo.UpdateWithdrawalStatus(ctx, requestID, next); err != nil {
		return nil, err
	}
	request.Status = next
	return request, nil
}

// AccountStats is the aggregate shown in the stats view.
type AccountStats struct {
	Balance          int64
	Referrals        int64
	ReferralEarnings int64
	WithdrawnTotal   int64
	NeededAmount     int64
	NeededReferrals  int64
}

func (s *RewardService) Stats(ctx context.Context, userID int64) (*AccountStats, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	withdrawn, err := s.repo.GetWithdrawnTotal(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawn total: %w", err)
	}

	stats := &AccountStats{
		Balance:          user.Balance,
		Referrals:        user.Referrals,
		ReferralEarnings: user.Referrals * s.referralBonus,
		WithdrawnTotal:   withdrawn,
	}
	if user.Balance < s.minWithdrawal {
		stats.NeededAmount = s.minWithdrawal - user.Balance
		if s.referralBonus > 0 {
			stats.NeededReferrals = (stats.NeededAmount + s.referralBonus - 1) / s.referralBonus
		}
	}
	return stats, nil
}
