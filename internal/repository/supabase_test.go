package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/getpaidbd/referralbot/internal/model"
)

// fakeUsersTable is a minimal PostgREST stand-in for the users table: GET
// returns the current row, PATCH applies the balance from the request body.
type fakeUsersTable struct {
	mu      sync.Mutex
	balance int64
	patches int
}

func (f *fakeUsersTable) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		fmt.Fprintf(w, `[{"id":1,"name":"Rahim Uddin","balance":%d,"referrals":0,"withdraws":0}]`, f.balance)
	case http.MethodPatch:
		var body struct {
			Balance int64 `json:"balance"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.balance = body.Balance
		f.patches++
		fmt.Fprintf(w, `[{"id":1,"balance":%d}]`, f.balance)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestRepository(t *testing.T, handler http.Handler) *SupabaseRepository {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	repo, err := NewSupabaseRepository(srv.URL, "test-key")
	assert.NoError(t, err)
	return repo
}

func TestAdjustBalanceRejectsOverdraft(t *testing.T) {
	table := &fakeUsersTable{balance: 100}
	repo := newTestRepository(t, table)

	err := repo.AdjustBalance(context.Background(), 1, 200, BalanceSubtract)
	assert.ErrorIs(t, err, model.ErrInsufficientFunds)

	// The rejected debit must not have written anything.
	table.mu.Lock()
	defer table.mu.Unlock()
	assert.Equal(t, 0, table.patches)
	assert.Equal(t, int64(100), table.balance)
}

func TestAdjustBalanceSubtractToZero(t *testing.T) {
	table := &fakeUsersTable{balance: 100}
	repo := newTestRepository(t, table)

	err := repo.AdjustBalance(context.Background(), 1, 100, BalanceSubtract)
	assert.NoError(t, err)

	table.mu.Lock()
	defer table.mu.Unlock()
	assert.Equal(t, int64(0), table.balance)
}

func TestAdjustBalanceSerializesPerUser(t *testing.T) {
	table := &fakeUsersTable{}
	repo := newTestRepository(t, table)

	// Concurrent read-modify-write credits on one user must not lose updates.
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, repo.AdjustBalance(context.Background(), 1, 10, BalanceAdd))
		}()
	}
	wg.Wait()

	table.mu.Lock()
	defer table.mu.Unlock()
	assert.Equal(t, int64(100), table.balance)
	assert.Equal(t, 10, table.patches)
}

func TestIsDuplicateKeyErr(t *testing.T) {
	assert.True(t, isDuplicateKeyErr(errors.New(`(23505) duplicate key value violates unique constraint "users_pkey"`)))
	assert.True(t, isDuplicateKeyErr(errors.New("ERROR: duplicate key value violates unique constraint")))
	assert.False(t, isDuplicateKeyErr(errors.New("connection refused")))
	assert.False(t, isDuplicateKeyErr(nil))
}
