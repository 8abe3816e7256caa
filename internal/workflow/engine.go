package workflow

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/getpaidbd/referralbot/internal/model"
	"github.com/getpaidbd/referralbot/internal/service"
)

// State is the position of one user's withdrawal conversation.
type State int

const (
	StateIdle State = iota
	StateCollectingName
	StateCollectingMethod
	StateCollectingAccountNumber
	StateCollectingAmount
	StateAwaitingConfirmation
)

// EventKind classifies an incoming user action.
type EventKind int

const (
	EventStart EventKind = iota
	EventText
	EventMethod
	EventConfirm
	EventCancel
	// EventMenu is any unrelated command or menu action; from any non-idle
	// state it acts as an implicit cancel.
	EventMenu
)

type Event struct {
	Kind   EventKind
	Text   string
	Method model.PayoutMethod
}

type ReplyKind int

const (
	// ReplyNone means there was no active session and nothing happened.
	ReplyNone ReplyKind = iota
	ReplyBalanceTooLow
	ReplyAskName
	ReplyInvalidName
	ReplyAskMethod
	ReplyAskAccountNumber
	ReplyInvalidAccountNumber
	ReplyAskAmount
	ReplyInvalidAmount
	ReplyConfirmSummary
	ReplyCancelled
	ReplySubmitted
	ReplyInsufficientFunds
	ReplyLedgerFailure
	ReplyRecordingFailure
)

// AmountIssue says why an entered amount was rejected.
type AmountIssue int

const (
	AmountOK AmountIssue = iota
	AmountNotANumber
	AmountBelowMinimum
	AmountAboveBalance
)

// Reply carries everything the transport layer needs to answer the user.
type Reply struct {
	Kind ReplyKind

	// Session snapshot for rendering prompts and the confirmation summary.
	Name          string
	Method        model.PayoutMethod
	AccountNumber string
	Amount        int64

	Balance     int64       // balance shown with the amount prompt
	Shortfall   int64       // missing amount when balance is below the minimum
	AmountIssue AmountIssue // set with ReplyInvalidAmount

	Request  *model.WithdrawalRequest // set with ReplySubmitted
	Refunded bool                     // set with ReplyRecordingFailure
}

// Service is what the engine needs from the reward layer.
type Service interface {
	GetUser(ctx context.Context, id int64) (*model.UserAccount, error)
	ConfirmWithdrawal(ctx context.Context, userID int64, fullName string, amount int64, method model.PayoutMethod, accountNumber string) (*model.WithdrawalRequest, error)
	MinWithdrawal() int64
}

// Full name: 3-60 characters of Latin or Bengali letters, spaces, period,
// apostrophe, hyphen. Account: BD mobile number, 11 or 12 digits.
var (
	nameRE          = regexp.MustCompile(`^[a-zA-Z\x{0980}-\x{09FF}\s.'-]+$`)
	accountNumberRE = regexp.MustCompile(`^01[3-9][0-9]{8}[0-9]?$`)
)

type session struct {
	mu            sync.Mutex
	state         State
	name          string
	method        model.PayoutMethod
	accountNumber string
	amount        int64
}

type transitionKey struct {
	state State
	event EventKind
}

type transitionFunc func(ctx context.Context, userID int64, s *session, ev Event) (Reply, error)

// Engine drives the per-user withdrawal state machine. Every reachable
// transition is an entry in the table; events with no entry for the current
// state discard the session, matching the "any unrelated action cancels"
// rule. Sessions live in memory only and are discarded on any terminal
// outcome.
type Engine struct {
	svc Service

	mu       sync.Mutex
	sessions map[int64]*session

	table map[transitionKey]transitionFunc
}

func NewEngine(svc Service) *Engine {
	e := &Engine{
		svc:      svc,
		sessions: make(map[int64]*session),
	}
	e.table = map[transitionKey]transitionFunc{
		{StateCollectingName, EventText}:          e.collectName,
		{StateCollectingMethod, EventMethod}:      e.collectMethod,
		{StateCollectingMethod, EventText}:        e.repromptMethod,
		{StateCollectingAccountNumber, EventText}: e.collectAccountNumber,
		{StateCollectingAmount, EventText}:        e.collectAmount,
		{StateAwaitingConfirmation, EventConfirm}: e.confirm,
		{StateAwaitingConfirmation, EventText}:    e.repromptConfirmation,
	}
	return e
}

// Active reports whether the user has a withdrawal conversation in flight.
func (e *Engine) Active(userID int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.sessions[userID]
	return ok
}

// Handle feeds one event into the user's state machine and returns the reply
// to render. Events for the same user are processed strictly one at a time.
func (e *Engine) Handle(ctx context.Context, userID int64, ev Event) (Reply, error) {
	if ev.Kind == EventStart {
		return e.start(ctx, userID)
	}

	e.mu.Lock()
	s, ok := e.sessions[userID]
	e.mu.Unlock()
	if !ok {
		return Reply{Kind: ReplyNone}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The session may have been discarded while we waited for its lock;
	// a stale pointer must not replay a terminal transition.
	e.mu.Lock()
	current := e.sessions[userID] == s
	e.mu.Unlock()
	if !current {
		return Reply{Kind: ReplyNone}, nil
	}

	if ev.Kind == EventCancel || ev.Kind == EventMenu {
		e.discard(userID)
		return Reply{Kind: ReplyCancelled}, nil
	}

	fn, ok := e.table[transitionKey{s.state, ev.Kind}]
	if !ok {
		// Anything the current state does not expect is an implicit cancel.
		e.discard(userID)
		return Reply{Kind: ReplyCancelled}, nil
	}
	return fn(ctx, userID, s, ev)
}

// start opens a fresh session when the balance clears the minimum. A restart
// while a session exists resets it.
func (e *Engine) start(ctx context.Context, userID int64) (Reply, error) {
	user, err := e.svc.GetUser(ctx, userID)
	if err != nil {
		return Reply{}, err
	}

	min := e.svc.MinWithdrawal()
	if user.Balance < min {
		return Reply{
			Kind:      ReplyBalanceTooLow,
			Balance:   user.Balance,
			Shortfall: min - user.Balance,
		}, nil
	}

	e.mu.Lock()
	e.sessions[userID] = &session{state: StateCollectingName}
	e.mu.Unlock()
	return Reply{Kind: ReplyAskName}, nil
}

func (e *Engine) discard(userID int64) {
	e.mu.Lock()
	delete(e.sessions, userID)
	e.mu.Unlock()
}

func validName(name string) bool {
	n := utf8.RuneCountInString(name)
	return n >= 3 && n <= 60 && nameRE.MatchString(name)
}

func (e *Engine) collectName(ctx context.Context, userID int64, s *session, ev Event) (Reply, error) {
	name := strings.TrimSpace(ev.Text)
	if !validName(name) {
		return Reply{Kind: ReplyInvalidName}, nil
	}
	s.name = name
	s.state = StateCollectingMethod
	return Reply{Kind: ReplyAskMethod, Name: name}, nil
}

// repromptMethod keeps the session alive when the user types instead of
// pressing a payout method button.
func (e *Engine) repromptMethod(ctx context.Context, userID int64, s *session, ev Event) (Reply, error) {
	return Reply{Kind: ReplyAskMethod, Name: s.name}, nil
}

func (e *Engine) repromptConfirmation(ctx context.Context, userID int64, s *session, ev Event) (Reply, error) {
	return Reply{
		Kind:          ReplyConfirmSummary,
		Name:          s.name,
		Method:        s.method,
		AccountNumber: s.accountNumber,
		Amount:        s.amount,
	}, nil
}

func (e *Engine) collectMethod(ctx context.Context, userID int64, s *session, ev Event) (Reply, error) {
	if !ev.Method.Valid() {
		return Reply{Kind: ReplyAskMethod, Name: s.name}, nil
	}
	s.method = ev.Method
	s.state = StateCollectingAccountNumber
	return Reply{Kind: ReplyAskAccountNumber, Method: s.method}, nil
}

func (e *Engine) collectAccountNumber(ctx context.Context, userID int64, s *session, ev Event) (Reply, error) {
	number := strings.TrimSpace(ev.Text)
	if !accountNumberRE.MatchString(number) {
		return Reply{Kind: ReplyInvalidAccountNumber, Method: s.method}, nil
	}
	s.accountNumber = number
	s.state = StateCollectingAmount

	user, err := e.svc.GetUser(ctx, userID)
	if err != nil {
		return Reply{}, err
	}
	return Reply{
		Kind:          ReplyAskAmount,
		AccountNumber: number,
		Balance:       user.Balance,
	}, nil
}

func (e *Engine) collectAmount(ctx context.Context, userID int64, s *session, ev Event) (Reply, error) {
	amount, err := strconv.ParseInt(strings.TrimSpace(ev.Text), 10, 64)
	if err != nil || amount <= 0 {
		return Reply{Kind: ReplyInvalidAmount, AmountIssue: AmountNotANumber}, nil
	}

	user, err := e.svc.GetUser(ctx, userID)
	if err != nil {
		return Reply{}, err
	}

	min := e.svc.MinWithdrawal()
	if amount < min {
		return Reply{Kind: ReplyInvalidAmount, AmountIssue: AmountBelowMinimum, Balance: user.Balance}, nil
	}
	if amount > user.Balance {
		return Reply{Kind: ReplyInvalidAmount, AmountIssue: AmountAboveBalance, Balance: user.Balance}, nil
	}

	s.amount = amount
	s.state = StateAwaitingConfirmation
	return Reply{
		Kind:          ReplyConfirmSummary,
		Name:          s.name,
		Method:        s.method,
		AccountNumber: s.accountNumber,
		Amount:        amount,
	}, nil
}

// confirm runs the terminal transition. The session is discarded whatever
// the outcome; a fresh entry is required for another withdrawal.
func (e *Engine) confirm(ctx context.Context, userID int64, s *session, ev Event) (Reply, error) {
	defer e.discard(userID)

	request, err := e.svc.ConfirmWithdrawal(ctx, userID, s.name, s.amount, s.method, s.accountNumber)
	if err != nil {
		if errors.Is(err, model.ErrInsufficientFunds) {
			return Reply{Kind: ReplyInsufficientFunds}, nil
		}
		var recErr *service.RecordingError
		if errors.As(err, &recErr) {
			return Reply{Kind: ReplyRecordingFailure, Refunded: recErr.Refunded}, nil
		}
		return Reply{Kind: ReplyLedgerFailure}, nil
	}

	return Reply{
		Kind:          ReplySubmitted,
		Name:          s.name,
		Method:        s.method,
		AccountNumber: s.accountNumber,
		Amount:        s.amount,
		Request:       request,
	}, nil
}
