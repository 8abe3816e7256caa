package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/getpaidbd/referralbot/internal/model"
	"github.com/getpaidbd/referralbot/internal/service"
)

type confirmCall struct {
	userID        int64
	fullName      string
	amount        int64
	method        model.PayoutMethod
	accountNumber string
}

// stubService scripts the reward layer for the engine.
type stubService struct {
	balance    int64
	getErr     error
	min        int64
	confirmErr error
	confirmed  []confirmCall
}

func (s *stubService) GetUser(ctx context.Context, id int64) (*model.UserAccount, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &model.UserAccount{ID: id, Balance: s.balance}, nil
}

func (s *stubService) ConfirmWithdrawal(ctx context.Context, userID int64, fullName string, amount int64, method model.PayoutMethod, accountNumber string) (*model.WithdrawalRequest, error) {
	s.confirmed = append(s.confirmed, confirmCall{userID, fullName, amount, method, accountNumber})
	if s.confirmErr != nil {
		return nil, s.confirmErr
	}
	request := &model.WithdrawalRequest{
		UserID:        userID,
		FullName:      fullName,
		Amount:        amount,
		Method:        method,
		AccountNumber: accountNumber,
		Status:        model.StatusPending,
	}
	request.GenerateRequestID()
	return request, nil
}

func (s *stubService) MinWithdrawal() int64 { return s.min }

func handle(t *testing.T, e *Engine, userID int64, ev Event) Reply {
	t.Helper()
	reply, err := e.Handle(context.Background(), userID, ev)
	assert.NoError(t, err)
	return reply
}

func TestStartRejectedBelowMinimum(t *testing.T) {
	svc := &stubService{balance: 499, min: 500}
	e := NewEngine(svc)

	reply := handle(t, e, 1, Event{Kind: EventStart})

	assert.Equal(t, ReplyBalanceTooLow, reply.Kind)
	assert.Equal(t, int64(499), reply.Balance)
	assert.Equal(t, int64(1), reply.Shortfall)
	assert.False(t, e.Active(1))
}

func TestWithdrawalHappyPathWithBounds(t *testing.T) {
	svc := &stubService{balance: 500, min: 500}
	e := NewEngine(svc)

	reply := handle(t, e, 1, Event{Kind: EventStart})
	assert.Equal(t, ReplyAskName, reply.Kind)
	assert.True(t, e.Active(1))

	// Invalid name re-prompts without advancing.
	reply = handle(t, e, 1, Event{Kind: EventText, Text: "ab"})
	assert.Equal(t, ReplyInvalidName, reply.Kind)

	reply = handle(t, e, 1, Event{Kind: EventText, Text: "Rahim Uddin"})
	assert.Equal(t, ReplyAskMethod, reply.Kind)
	assert.Equal(t, "Rahim Uddin", reply.Name)

	reply = handle(t, e, 1, Event{Kind: EventMethod, Method: model.MethodBkash})
	assert.Equal(t, ReplyAskAccountNumber, reply.Kind)

	reply = handle(t, e, 1, Event{Kind: EventText, Text: "0171234567"})
	assert.Equal(t, ReplyInvalidAccountNumber, reply.Kind)

	reply = handle(t, e, 1, Event{Kind: EventText, Text: "01712345678"})
	assert.Equal(t, ReplyAskAmount, reply.Kind)
	assert.Equal(t, int64(500), reply.Balance)

	reply = handle(t, e, 1, Event{Kind: EventText, Text: "lots"})
	assert.Equal(t, ReplyInvalidAmount, reply.Kind)
	assert.Equal(t, AmountNotANumber, reply.AmountIssue)

	reply = handle(t, e, 1, Event{Kind: EventText, Text: "499"})
	assert.Equal(t, ReplyInvalidAmount, reply.Kind)
	assert.Equal(t, AmountBelowMinimum, reply.AmountIssue)

	reply = handle(t, e, 1, Event{Kind: EventText, Text: "501"})
	assert.Equal(t, ReplyInvalidAmount, reply.Kind)
	assert.Equal(t, AmountAboveBalance, reply.AmountIssue)

	reply = handle(t, e, 1, Event{Kind: EventText, Text: "500"})
	assert.Equal(t, ReplyConfirmSummary, reply.Kind)
	assert.Equal(t, int64(500), reply.Amount)
	assert.Equal(t, model.MethodBkash, reply.Method)

	reply = handle(t, e, 1, Event{Kind: EventConfirm})
	assert.Equal(t, ReplySubmitted, reply.Kind)
	assert.NotNil(t, reply.Request)
	assert.Equal(t, model.StatusPending, reply.Request.Status)
	assert.False(t, e.Active(1))

	assert.Len(t, svc.confirmed, 1)
	assert.Equal(t, confirmCall{1, "Rahim Uddin", 500, model.MethodBkash, "01712345678"}, svc.confirmed[0])
}

func TestExplicitCancelDiscardsSession(t *testing.T) {
	svc := &stubService{balance: 1000, min: 500}
	e := NewEngine(svc)

	handle(t, e, 1, Event{Kind: EventStart})
	reply := handle(t, e, 1, Event{Kind: EventCancel})

	assert.Equal(t, ReplyCancelled, reply.Kind)
	assert.False(t, e.Active(1))

	// Further input has nowhere to go.
	reply = handle(t, e, 1, Event{Kind: EventText, Text: "Rahim Uddin"})
	assert.Equal(t, ReplyNone, reply.Kind)
	assert.Empty(t, svc.confirmed)
}

func TestUnrelatedActionImplicitlyCancels(t *testing.T) {
	svc := &stubService{balance: 1000, min: 500}
	e := NewEngine(svc)

	handle(t, e, 1, Event{Kind: EventStart})
	handle(t, e, 1, Event{Kind: EventText, Text: "Rahim Uddin"})

	reply := handle(t, e, 1, Event{Kind: EventMenu})
	assert.Equal(t, ReplyCancelled, reply.Kind)
	assert.False(t, e.Active(1))
}

func TestUnexpectedEventCancels(t *testing.T) {
	svc := &stubService{balance: 1000, min: 500}
	e := NewEngine(svc)

	handle(t, e, 1, Event{Kind: EventStart})

	// A confirm click while still collecting the name is unrelated input.
	reply := handle(t, e, 1, Event{Kind: EventConfirm})
	assert.Equal(t, ReplyCancelled, reply.Kind)
	assert.False(t, e.Active(1))
	assert.Empty(t, svc.confirmed)
}

func TestTextWhileAwaitingButtonReprompts(t *testing.T) {
	svc := &stubService{balance: 1000, min: 500}
	e := NewEngine(svc)

	handle(t, e, 1, Event{Kind: EventStart})
	handle(t, e, 1, Event{Kind: EventText, Text: "Rahim Uddin"})

	// Typing instead of pressing a method button keeps the session.
	reply := handle(t, e, 1, Event{Kind: EventText, Text: "bkash"})
	assert.Equal(t, ReplyAskMethod, reply.Kind)
	assert.True(t, e.Active(1))

	handle(t, e, 1, Event{Kind: EventMethod, Method: model.MethodBkash})
	handle(t, e, 1, Event{Kind: EventText, Text: "01712345678"})
	handle(t, e, 1, Event{Kind: EventText, Text: "600"})

	reply = handle(t, e, 1, Event{Kind: EventText, Text: "yes"})
	assert.Equal(t, ReplyConfirmSummary, reply.Kind)
	assert.Equal(t, int64(600), reply.Amount)
	assert.True(t, e.Active(1))
	assert.Empty(t, svc.confirmed)
}

func TestRestartResetsSession(t *testing.T) {
	svc := &stubService{balance: 1000, min: 500}
	e := NewEngine(svc)

	handle(t, e, 1, Event{Kind: EventStart})
	handle(t, e, 1, Event{Kind: EventText, Text: "Rahim Uddin"})

	reply := handle(t, e, 1, Event{Kind: EventStart})
	assert.Equal(t, ReplyAskName, reply.Kind)

	// Back at the name step, a method pick is unexpected again.
	reply = handle(t, e, 1, Event{Kind: EventMethod, Method: model.MethodBkash})
	assert.Equal(t, ReplyCancelled, reply.Kind)
}

func TestConfirmInsufficientFunds(t *testing.T) {
	svc := &stubService{balance: 1000, min: 500, confirmErr: model.ErrInsufficientFunds}
	e := NewEngine(svc)

	runToConfirmation(t, e, 1)
	reply := handle(t, e, 1, Event{Kind: EventConfirm})

	assert.Equal(t, ReplyInsufficientFunds, reply.Kind)
	assert.False(t, e.Active(1))
}

func TestConfirmRecordingFailure(t *testing.T) {
	svc := &stubService{balance: 1000, min: 500,
		confirmErr: &service.RecordingError{Refunded: true}}
	e := NewEngine(svc)

	runToConfirmation(t, e, 1)
	reply := handle(t, e, 1, Event{Kind: EventConfirm})

	assert.Equal(t, ReplyRecordingFailure, reply.Kind)
	assert.True(t, reply.Refunded)
	assert.False(t, e.Active(1))
}

func TestConfirmLedgerFailure(t *testing.T) {
	svc := &stubService{balance: 1000, min: 500,
		confirmErr: &service.LedgerError{}}
	e := NewEngine(svc)

	runToConfirmation(t, e, 1)
	reply := handle(t, e, 1, Event{Kind: EventConfirm})

	assert.Equal(t, ReplyLedgerFailure, reply.Kind)
	assert.False(t, e.Active(1))
}

func runToConfirmation(t *testing.T, e *Engine, userID int64) {
	t.Helper()
	handle(t, e, userID, Event{Kind: EventStart})
	handle(t, e, userID, Event{Kind: EventText, Text: "Rahim Uddin"})
	handle(t, e, userID, Event{Kind: EventMethod, Method: model.MethodNagad})
	handle(t, e, userID, Event{Kind: EventText, Text: "01812345678"})
	reply := handle(t, e, userID, Event{Kind: EventText, Text: "600"})
	assert.Equal(t, ReplyConfirmSummary, reply.Kind)
}

func TestNameValidation(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"latin", "Rahim Uddin", true},
		{"bengali", "আব্দুল করিম", true},
		{"apostrophe and hyphen", "O'Brien-Khan", true},
		{"too short", "ab", false},
		{"digits", "Rahim99", false},
		{"symbols", "Rahim@Uddin", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, validName(tt.input))
		})
	}
}

func TestAccountNumberValidation(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"11 digits", "01712345678", true},
		{"12 digits", "017123456789", true},
		{"bad prefix", "01212345678", false},
		{"too short", "0171234567", false},
		{"too long", "0171234567890", false},
		{"letters", "0171234567a", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, accountNumberRE.MatchString(tt.input))
		})
	}
}
