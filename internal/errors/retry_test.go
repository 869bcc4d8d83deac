package errors

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPolicy_SucceedsFirstAttempt(t *testing.T) {
	p := Policy{MaxAttempts: 3, Delay: time.Millisecond}

	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestPolicy_RetriesRetryableUntilSuccess(t *testing.T) {
	p := Policy{MaxAttempts: 3, Delay: time.Millisecond}

	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return NewExchangeAPIError("/api/order", errors.New("timeout"))
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestPolicy_ExhaustionReturnsLastError(t *testing.T) {
	p := Policy{MaxAttempts: 2, Delay: time.Millisecond}

	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		return NewExchangeAPIError("/api/order", errors.New("timeout"))
	})

	assert.Error(t, err)
	assert.Equal(t, 2, calls)

	var appErr *AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, "E200", appErr.Code)
}

func TestPolicy_NonRetryableAbortsImmediately(t *testing.T) {
	p := Policy{MaxAttempts: 5, Delay: time.Millisecond}

	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		return NewExchangeRejection("/api/create", "Amount too low")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestPolicy_PlainErrorsNotRetried(t *testing.T) {
	p := Policy{MaxAttempts: 5, Delay: time.Millisecond}

	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		return errors.New("boom")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestPolicy_ContextCancelStopsRetries(t *testing.T) {
	p := Policy{MaxAttempts: 10, Delay: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := p.Do(ctx, func() error {
		calls++
		return NewExchangeAPIError("/api/order", errors.New("timeout"))
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestPolicy_ZeroAttemptsRunsOnce(t *testing.T) {
	p := Policy{}

	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRejectionReason(t *testing.T) {
	assert.Equal(t, "TO_ADDRESS_INVALID", RejectionReason(NewExchangeRejection("/api/create", "TO_ADDRESS_INVALID")))
	assert.Empty(t, RejectionReason(nil))
	assert.Empty(t, RejectionReason(errors.New("plain")))
	assert.Empty(t, RejectionReason(NewExchangeAPIError("/api/create", errors.New("timeout"))))
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.False(t, IsRetryable(NewValidationError("bad input")))
	assert.True(t, IsRetryable(NewExchangeAPIError("/api/rates", errors.New("timeout"))))
	assert.True(t, IsRetryable(NewTransportError(errors.New("closed"))))
}
