package fanout

import "time"

// Attempt outcomes reported to EventListener.OnAttempt.
const (
	OutcomeSucceeded    = "succeeded"
	OutcomeRetryable    = "retryable"
	OutcomeNonRetryable = "non_retryable"
)

type EventListener interface {
	OnAttempt(outcome string, took time.Duration)
	OnRetryRound(round, size int)
	OnBroadcast(items int)
}

type SelectiveListener struct {
	OnAttemptCb    func(outcome string, took time.Duration)
	OnRetryRoundCb func(round, size int)
	OnBroadcastCb  func(items int)
}

func (l *SelectiveListener) OnAttempt(outcome string, took time.Duration) {
	if l.OnAttemptCb != nil {
		l.OnAttemptCb(outcome, took)
	}
}

func (l *SelectiveListener) OnRetryRound(round, size int) {
	if l.OnRetryRoundCb != nil {
		l.OnRetryRoundCb(round, size)
	}
}

func (l *SelectiveListener) OnBroadcast(items int) {
	if l.OnBroadcastCb != nil {
		l.OnBroadcastCb(items)
	}
}
