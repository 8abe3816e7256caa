package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	"github.com/supabase-community/supabase-go"

	"github.com/getpaidbd/referralbot/internal/model"
)

// SupabaseRepository stores users and withdrawal requests in Supabase.
// Balance and counter updates are read-modify-write against PostgREST, so
// every mutation of a user row runs under that user's lock to keep two
// concurrent adjustments from reading the same stale balance.
type SupabaseRepository struct {
	client *supabase.Client

	mu        sync.Mutex
	userLocks map[int64]*sync.Mutex
}

func NewSupabaseRepository(url, key string) (*SupabaseRepository, error) {
	client, err := supabase.NewClient(url, key, &supabase.ClientOptions{})
	if err != nil {
		return nil, err
	}

	return &SupabaseRepository{
		client:    client,
		userLocks: make(map[int64]*sync.Mutex),
	}, nil
}

// userLock returns the mutex serializing mutations of one user row.
func (r *SupabaseRepository) userLock(id int64) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.userLocks[id]
	if !ok {
		lock = &sync.Mutex{}
		r.userLocks[id] = lock
	}
	return lock
}

func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "23505") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

func (r *SupabaseRepository) GetUser(ctx context.Context, id int64) (*model.UserAccount, error) {
	data, _, err := r.client.From("users").
		Select("*", "", false).
		Eq("id", strconv.FormatInt(id, 10)).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}

	var users []model.UserAccount
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("failed to parse user %d: %w", id, err)
	}
	if len(users) == 0 {
		return nil, model.ErrUserNotFound
	}
	return &users[0], nil
}

func (r *SupabaseRepository) CreateUser(ctx context.Context, user *model.UserAccount) error {
	data, _, err := r.client.From("users").Insert(user, false, "", "", "").Execute()
	if err != nil {
		if isDuplicateKeyErr(err) {
			return model.ErrUserExists
		}
		return fmt.Errorf("failed to create user %d: %w", user.ID, err)
	}

	var created []model.UserAccount
	if err := json.Unmarshal(data, &created); err != nil {
		return fmt.Errorf("failed to parse created user: %w", err)
	}
	if len(created) > 0 {
		*user = created[0]
	}
	return nil
}

func (r *SupabaseRepository) AdjustBalance(ctx context.Context, id int64, amount int64, op BalanceOp) error {
	lock := r.userLock(id)
	lock.Lock()
	defer lock.Unlock()

	user, err := r.GetUser(ctx, id)
	if err != nil {
		return err
	}

	var newBalance int64
	switch op {
	case BalanceAdd:
		newBalance = user.Balance + amount
	case BalanceSubtract:
		if user.Balance < amount {
			return model.ErrInsufficientFunds
		}
		newBalance = user.Balance - amount
	default:
		return fmt.Errorf("unknown balance operation %d", op)
	}

	_, _, err = r.client.From("users").
		Update(map[string]interface{}{"balance": newBalance}, "", "").
		Eq("id", strconv.FormatInt(id, 10)).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to update balance for user %d: %w", id, err)
	}
	log.Printf("user %d balance: %d -> %d", id, user.Balance, newBalance)
	return nil
}

func (r *SupabaseRepository) IncrementReferralCount(ctx context.Context, id int64) error {
	lock := r.userLock(id)
	lock.Lock()
	defer lock.Unlock()

	user, err := r.GetUser(ctx, id)
	if err != nil {
		return err
	}

	_, _, err = r.client.From("users").
		Update(map[string]interface{}{"referrals": user.Referrals + 1}, "", "").
		Eq("id", strconv.FormatInt(id, 10)).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to update referral count for user %d: %w", id, err)
	}
	return nil
}

func (r *SupabaseRepository) IncrementWithdrawCount(ctx context.Context, id int64) error {
	lock := r.userLock(id)
	lock.Lock()
	defer lock.Unlock()

	user, err := r.GetUser(ctx, id)
	if err != nil {
		return err
	}

	_, _, err = r.client.From("users").
		Update(map[string]interface{}{"withdraws": user.Withdraws + 1}, "", "").
		Eq("id", strconv.FormatInt(id, 10)).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to update withdraw count for user %d: %w", id, err)
	}
	return nil
}

func (r *SupabaseRepository) GetAllUserIDs(ctx context.Context) ([]int64, error) {
	data, _, err := r.client.From("users").
		Select("id", "", false).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get user ids: %w", err)
	}

	var rows []struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse user ids: %w", err)
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids, nil
}

func (r *SupabaseRepository) RecordWithdrawal(ctx context.Context, request *model.WithdrawalRequest) error {
	data, _, err := r.client.From("withdrawals").Insert(request, false, "", "", "").Execute()
	if err != nil {
		return fmt.Errorf("failed to record withdrawal: %w", err)
	}

	var created []model.WithdrawalRequest
	if err := json.Unmarshal(data, &created); err != nil {
		return fmt.Errorf("failed to parse recorded withdrawal: %w", err)
	}
	if len(created) > 0 {
		request.RequestedAt = created[0].RequestedAt
	}
	return nil
}

func (r *SupabaseRepository) GetWithdrawals(ctx context.Context, userID int64, limit int) ([]model.WithdrawalRequest, error) {
	query := r.client.From("withdrawals").
		Select("*", "", false).
		Eq("user_id", strconv.FormatInt(userID, 10)).
		Order("requested_at.desc", nil)

	if limit > 0 {
		query = query.Limit(limit, "")
	}

	data, _, err := query.Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawals: %w", err)
	}

	var withdrawals []model.WithdrawalRequest
	if err := json.Unmarshal(data, &withdrawals); err != nil {
		return nil, fmt.Errorf("failed to parse withdrawals: %w", err)
	}
	return withdrawals, nil
}

func (r *SupabaseRepository) GetWithdrawalByRequestID(ctx context.Context, requestID string) (*model.WithdrawalRequest, error) {
	data, _, err := r.client.From("withdrawals").
		Select("*", "", false).
		Eq("request_id", requestID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawal %s: %w", requestID, err)
	}

	var withdrawals []model.WithdrawalRequest
	if err := json.Unmarshal(data, &withdrawals); err != nil {
		return nil, fmt.Errorf("failed to parse withdrawal %s: %w", requestID, err)
	}
	if len(withdrawals) == 0 {
		return nil, model.ErrWithdrawalNotFound
	}
	return &withdrawals[0], nil
}

func (r *SupabaseRepository) UpdateWithdrawalStatus(ctx context.Context, requestID string, status model.WithdrawalStatus) error {
	_, _, err := r.client.From("withdrawals").
		Update(map[string]interface{}{"status": status}, "", "").
		Eq("request_id", requestID).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to update withdrawal %s status: %w", requestID, err)
	}
	return nil
}

// GetWithdrawnTotal sums the user's approved and completed withdrawals.
func (r *SupabaseRepository) GetWithdrawnTotal(ctx context.Context, userID int64) (int64, error) {
	data, _, err := r.client.From("withdrawals").
		Select("amount,status", "", false).
		Eq("user_id", strconv.FormatInt(userID, 10)).
		Execute()
	if err != nil {
		return 0, fmt.Errorf("failed to get withdrawn total: %w", err)
	}

	var rows []struct {
		Amount int64                  `json:"amount"`
		Status model.WithdrawalStatus `json:"status"`
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		return 0, fmt.Errorf("failed to parse withdrawn total: %w", err)
	}

	var total int64
	for _, row := range rows {
		if row.Status == model.StatusApproved || row.Status == model.StatusCompleted {
			total += row.Amount
		}
	}
	return total, nil
}
