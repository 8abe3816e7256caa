package broadcast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeTransport records every attempt and fails the scripted recipients.
type fakeTransport struct {
	errs  map[int64]error
	calls []int64

	photos int
	videos int
	texts  int
}

func (f *fakeTransport) SendText(chatID int64, text string) error {
	f.calls = append(f.calls, chatID)
	f.texts++
	return f.errs[chatID]
}

func (f *fakeTransport) SendPhoto(chatID int64, fileID, caption string) error {
	f.calls = append(f.calls, chatID)
	f.photos++
	return f.errs[chatID]
}

func (f *fakeTransport) SendVideo(chatID int64, fileID, caption string) error {
	f.calls = append(f.calls, chatID)
	f.videos++
	return f.errs[chatID]
}

func TestDispatchAccounting(t *testing.T) {
	recipients := []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	transport := &fakeTransport{errs: map[int64]error{
		2: errors.New("Forbidden: bot was blocked by the user"),
		5: errors.New("Forbidden: user is deactivated"),
		7: errors.New("Bad Request: chat not found"),
		9: errors.New("Too Many Requests: retry after 5"),
	}}
	d := NewDispatcher(transport, 0)

	summary := d.Dispatch(context.Background(), Payload{Text: "hello"}, recipients)

	assert.Equal(t, Summary{Targeted: 10, Sent: 6, Failed: 1, Blocked: 3}, summary)
	assert.Equal(t, summary.Targeted, summary.Sent+summary.Failed+summary.Blocked)

	// Every recipient is attempted in store order despite the failures.
	assert.Equal(t, recipients, transport.calls)
}

func TestDispatchEmptyRecipientSet(t *testing.T) {
	transport := &fakeTransport{}
	d := NewDispatcher(transport, 0)

	summary := d.Dispatch(context.Background(), Payload{Text: "hello"}, nil)

	assert.Equal(t, Summary{}, summary)
	assert.Empty(t, transport.calls)
}

func TestDispatchPayloadRouting(t *testing.T) {
	transport := &fakeTransport{}
	d := NewDispatcher(transport, 0)

	d.Dispatch(context.Background(), Payload{Text: "hello"}, []int64{1})
	d.Dispatch(context.Background(), Payload{PhotoID: "photo-1", Caption: "look"}, []int64{1})
	d.Dispatch(context.Background(), Payload{VideoID: "video-1"}, []int64{1})

	assert.Equal(t, 1, transport.texts)
	assert.Equal(t, 1, transport.photos)
	assert.Equal(t, 1, transport.videos)
}

func TestDispatchDelayBetweenSendsOnly(t *testing.T) {
	transport := &fakeTransport{}
	d := NewDispatcher(transport, 80*time.Millisecond)

	start := time.Now()
	d.Dispatch(context.Background(), Payload{Text: "hello"}, []int64{1})
	assert.Less(t, time.Since(start), 80*time.Millisecond)

	start = time.Now()
	d.Dispatch(context.Background(), Payload{Text: "hello"}, []int64{1, 2})
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Outcome
	}{
		{"nil is sent", nil, OutcomeSent},
		{"blocked", errors.New("Forbidden: bot was blocked by the user"), OutcomeBlocked},
		{"deactivated", errors.New("Forbidden: user is deactivated"), OutcomeBlocked},
		{"chat not found", errors.New("Bad Request: chat not found"), OutcomeBlocked},
		{"rate limited", errors.New("Too Many Requests: retry after 5"), OutcomeFailed},
		{"network", errors.New("connection reset by peer"), OutcomeFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}
