package mail

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

var ErrUnavailable = errors.New("mail: smtp unavailable")

// BreakerSender 连续 3 次投递失败后熔断 30s，避免注册请求卡在 SMTP 超时上。
// 地址错误不计入失败
type BreakerSender struct {
	next Sender
	cb   *gobreaker.CircuitBreaker
}

func NewBreakerSender(next Sender, l *zap.Logger) *BreakerSender {
	return newBreakerSender(next, l, 3, 30*time.Second)
}

func newBreakerSender(next Sender, l *zap.Logger, failures uint32, open time.Duration) *BreakerSender {
	return &BreakerSender{
		next: next,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "smtp",
			MaxRequests: 1,
			Timeout:     open,
			ReadyToTrip: func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= failures },
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, ErrInvalidAddress)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				l.Warn("mail breaker state changed", zap.String("name", name),
					zap.String("from", from.String()), zap.String("to", to.String()))
			},
		}),
	}
}

func (b *BreakerSender) SendConfirmEmail(ctx context.Context, to, link string) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.next.SendConfirmEmail(ctx, to, link)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
