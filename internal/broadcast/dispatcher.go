package broadcast

import (
	"context"
	"log"
	"strings"
	"time"
)

// Transport delivers one message to one recipient.
type Transport interface {
	SendText(chatID int64, text string) error
	SendPhoto(chatID int64, fileID, caption string) error
	SendVideo(chatID int64, fileID, caption string) error
}

// Payload is the message fanned out to every recipient: plain text, or a
// photo/video with an optional caption.
type Payload struct {
	Text    string
	PhotoID string
	VideoID string
	Caption string
}

// Outcome classifies one delivery attempt.
type Outcome int

const (
	OutcomeSent Outcome = iota
	OutcomeBlocked
	OutcomeFailed
)

// Summary is the accounting for one dispatch. Targeted is always
// Sent + Failed + Blocked.
type Summary struct {
	Targeted int
	Sent     int
	Failed   int
	Blocked  int
}

// Dispatcher fans a payload out to the full recipient set with a fixed
// inter-send delay. One recipient's failure never aborts the rest; each
// attempt is classified independently.
type Dispatcher struct {
	transport Transport
	delay     time.Duration
}

func NewDispatcher(transport Transport, delay time.Duration) *Dispatcher {
	return &Dispatcher{
		transport: transport,
		delay:     delay,
	}
}

// Classify maps a delivery error to an outcome. Unreachable recipients
// (blocked the bot, deactivated, chat not found) count as blocked; anything
// else is a generic failure.
func Classify(err error) Outcome {
	if err == nil {
		return OutcomeSent
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "blocked") ||
		strings.Contains(msg, "deactivated") ||
		strings.Contains(msg, "not found") {
		return OutcomeBlocked
	}
	return OutcomeFailed
}

// Dispatch sends the payload to every recipient in order and returns the
// delivery summary. Once started it runs over the full set; failed and
// blocked recipients are not retried.
func (d *Dispatcher) Dispatch(ctx context.Context, payload Payload, recipients []int64) Summary {
	summary := Summary{Targeted: len(recipients)}

	for i, chatID := range recipients {
		// The delay runs between attempts, not after the last one.
		if i > 0 {
			time.Sleep(d.delay)
		}
		err := d.send(chatID, payload)
		switch Classify(err) {
		case OutcomeSent:
			summary.Sent++
		case OutcomeBlocked:
			summary.Blocked++
		case OutcomeFailed:
			summary.Failed++
			log.Printf("broadcast to %d failed: %v", chatID, err)
		}
	}

	log.Printf("broadcast complete: targeted=%d sent=%d failed=%d blocked=%d",
		summary.Targeted, summary.Sent, summary.Failed, summary.Blocked)
	return summary
}

func (d *Dispatcher) send(chatID int64, payload Payload) error {
	switch {
	case payload.PhotoID != "":
		return d.transport.SendPhoto(chatID, payload.PhotoID, payload.Caption)
	case payload.VideoID != "":
		return d.transport.SendVideo(chatID, payload.VideoID, payload.Caption)
	default:
		return d.transport.SendText(chatID, payload.Text)
	}
}
