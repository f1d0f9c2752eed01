package mail

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_FallsBackToLogSender(t *testing.T) {
	s := New(SMTPConfig{}, zap.NewNop())
	_, ok := s.(*LogSender)
	assert.True(t, ok)

	s = New(SMTPConfig{Host: "smtp.a.com"}, zap.NewNop())
	b, ok := s.(*BreakerSender)
	require.True(t, ok)
	_, ok = b.next.(*SMTPSender)
	assert.True(t, ok)
}

func TestLogSender(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s := NewLogSender(zap.New(core))

	require.NoError(t, s.SendConfirmEmail(context.Background(), "user@a.com", "http://x/confirm?token=t"))
	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "user@a.com", fields["to"])
	assert.Equal(t, "http://x/confirm?token=t", fields["link"])
}

func TestSMTPSender_InvalidAddress(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{Host: "127.0.0.1", Port: 1, From: "no-reply@a.com"}, zap.NewNop())
	err := s.SendConfirmEmail(context.Background(), "not an address", "http://x")
	assert.ErrorIs(t, err, ErrInvalidAddress)

	s = NewSMTPSender(SMTPConfig{Host: "127.0.0.1", Port: 1, From: ""}, zap.NewNop())
	err = s.SendConfirmEmail(context.Background(), "user@a.com", "http://x")
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

type flakySender struct {
	calls int
	err   error
}

func (f *flakySender) SendConfirmEmail(context.Context, string, string) error {
	f.calls++
	return f.err
}

func TestBreakerSender_OpensAfterFailures(t *testing.T) {
	down := &flakySender{err: errors.New("dial tcp: connection refused")}
	b := newBreakerSender(down, zap.NewNop(), 2, time.Hour)
	ctx := context.Background()

	assert.ErrorIs(t, b.SendConfirmEmail(ctx, "a@a.com", "l"), down.err)
	assert.ErrorIs(t, b.SendConfirmEmail(ctx, "a@a.com", "l"), down.err)

	err := b.SendConfirmEmail(ctx, "a@a.com", "l")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 2, down.calls, "open breaker skips delivery")
}

func TestBreakerSender_AddressErrorsDoNotTrip(t *testing.T) {
	bad := &flakySender{err: fmt.Errorf("%w: to", ErrInvalidAddress)}
	b := newBreakerSender(bad, zap.NewNop(), 1, time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, b.SendConfirmEmail(ctx, "bad", "l"), ErrInvalidAddress)
	}
	assert.Equal(t, 3, bad.calls)

	bad.err = nil
	assert.NoError(t, b.SendConfirmEmail(ctx, "a@a.com", "l"))
}
