package llm

import (
	"context"
	"errors"
	"log"
	"time"

	"golang.org/x/time/rate"
)

// Middleware decorates a Gateway to inject cross-cutting concerns
// (rate limiting, timeouts, logging).
type Middleware func(Gateway) Gateway

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner Gateway, mws ...Middleware) Gateway {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// -------- Rate limiting --------

// RateLimit limits request rate with a token bucket.
// If rps <= 0, the limiter is disabled.
func RateLimit(rps float64, burst int) Middleware {
	return func(next Gateway) Gateway {
		if rps <= 0 {
			return next
		}
		if burst < 1 {
			burst = 1
		}
		return &rateLimited{next: next, rl: rate.NewLimiter(rate.Limit(rps), burst)}
	}
}

type rateLimited struct {
	next Gateway
	rl   *rate.Limiter
}

func (c *rateLimited) Name() string { return c.next.Name() }
func (c *rateLimited) Close() error { return c.next.Close() }

func (c *rateLimited) Generate(ctx context.Context, prompt, system string, temperature float32) (string, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return "", unavailable(c.next.Name(), err)
	}
	return c.next.Generate(ctx, prompt, system, temperature)
}

func (c *rateLimited) Chat(ctx context.Context, message string, history []Message) (string, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return "", unavailable(c.next.Name(), err)
	}
	return c.next.Chat(ctx, message, history)
}

// -------- Timeout --------

// WithTimeout bounds every call. A deadline hit is reported as ErrUnavailable.
func WithTimeout(d time.Duration) Middleware {
	return func(next Gateway) Gateway {
		if d <= 0 {
			return next
		}
		return &timed{next: next, d: d}
	}
}

type timed struct {
	next Gateway
	d    time.Duration
}

func (t *timed) Name() string { return t.next.Name() }
func (t *timed) Close() error { return t.next.Close() }

func (t *timed) Generate(ctx context.Context, prompt, system string, temperature float32) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	out, err := t.next.Generate(ctx, prompt, system, temperature)
	return out, t.wrap(err)
}

func (t *timed) Chat(ctx context.Context, message string, history []Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	out, err := t.next.Chat(ctx, message, history)
	return out, t.wrap(err)
}

func (t *timed) wrap(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return unavailable(t.next.Name(), err)
	}
	return err
}

// -------- Logging --------

// WithLogging logs each call's phase, latency and failure. A nil logger
// uses the standard logger.
func WithLogging(l *log.Logger) Middleware {
	if l == nil {
		l = log.Default()
	}
	return func(next Gateway) Gateway {
		return &logged{next: next, log: l}
	}
}

type logged struct {
	next Gateway
	log  *log.Logger
}

func (c *logged) Name() string { return c.next.Name() }
func (c *logged) Close() error { return c.next.Close() }

func (c *logged) Generate(ctx context.Context, prompt, system string, temperature float32) (string, error) {
	start := time.Now()
	out, err := c.next.Generate(ctx, prompt, system, temperature)
	c.report(ctx, "generate", len(prompt), len(out), start, err)
	return out, err
}

func (c *logged) Chat(ctx context.Context, message string, history []Message) (string, error) {
	start := time.Now()
	out, err := c.next.Chat(ctx, message, history)
	c.report(ctx, "chat", len(message), len(out), start, err)
	return out, err
}

func (c *logged) report(ctx context.Context, op string, in, out int, start time.Time, err error) {
	elapsed := time.Since(start).Round(time.Millisecond)
	if err != nil {
		c.log.Printf("llm %s %s phase=%s failed after %s: %v", c.next.Name(), op, PhaseFrom(ctx), elapsed, err)
		return
	}
	c.log.Printf("llm %s %s phase=%s in=%d out=%d took=%s", c.next.Name(), op, PhaseFrom(ctx), in, out, elapsed)
}
