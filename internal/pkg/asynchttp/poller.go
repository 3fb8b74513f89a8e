// Package asynchttp implements the HTTP respond-async pattern: a 202 Accepted with a Content-Location
// that has to be polled until the server answers with anything other than 202.
package asynchttp

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"feasibility-backend/internal/pkg/clock"
	"feasibility-backend/internal/pkg/errs"

	"github.com/cenkalti/backoff/v4"
)

const (
	initialDelay  = 250 * time.Millisecond
	maxDelay      = 30 * time.Second
	cancelTimeout = 10 * time.Second

	headerPrefer          = "Prefer"
	headerContentLocation = "Content-Location"
	headerRetryAfter      = "Retry-After"
)

// Timeouts and transport failures are additionally marked with errs.ErrCommunication.
var (
	ErrAsyncProtocol = errs.New("respond-async protocol violation")
	ErrTimeout       = errs.New("respond-async request timed out")
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type Poller struct {
	client *http.Client
	clock  clock.Clock
	sleep  SleepFunc
	logger *slog.Logger
}

type Option func(*Poller)

func WithClock(c clock.Clock) Option { return func(p *Poller) { p.clock = c } }

func WithSleep(s SleepFunc) Option { return func(p *Poller) { p.sleep = s } }

func New(client *http.Client, logger *slog.Logger, opts ...Option) *Poller {
	p := &Poller{
		client: client,
		clock:  clock.NewRealClock(),
		sleep:  sleepContext,
		logger: logger,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Do sends req with "Prefer: respond-async" and returns the first non-202 response.
// The caller owns the returned body. timeout counts from the moment req is sent and bounds every
// request made on the way, not only the waits between polls.
// On timeout or cancellation the server-side job is cancelled with a DELETE and ErrTimeout is returned.
func (p *Poller) Do(ctx context.Context, req *http.Request, timeout time.Duration) (*http.Response, error) {
	deadline := p.clock.Now().Add(timeout)
	req = req.Clone(ctx)
	req.Header.Set(headerPrefer, "respond-async")

	resp, err := p.send(req, deadline)
	if err != nil {
		if ctx.Err() != nil || errs.Is(err, context.DeadlineExceeded) {
			return nil, timedOut(errs.Wrap(err, "respond-async request abandoned"))
		}
		return nil, communication(err, "respond-async request failed")
	}
	if resp.StatusCode != http.StatusAccepted {
		return resp, nil
	}
	discard(resp)

	location, err := statusLocation(req.URL, resp)
	if err != nil {
		return nil, err
	}

	schedule := NewSchedule(p.clock)
	delay := schedule.Next(resp)
	for {
		remaining := deadline.Sub(p.clock.Now())
		if remaining <= 0 {
			return nil, p.cancel(ctx, req, location, errs.Newf("no final response within %s", timeout))
		}
		if err := p.sleep(ctx, min(delay, remaining)); err != nil {
			return nil, p.cancel(ctx, req, location, err)
		}
		if !p.clock.Now().Before(deadline) {
			return nil, p.cancel(ctx, req, location, errs.Newf("no final response within %s", timeout))
		}

		poll, err := p.newFollowUp(ctx, http.MethodGet, location, req.Header)
		if err != nil {
			return nil, err
		}
		resp, err = p.send(poll, deadline)
		if err != nil {
			if ctx.Err() != nil || errs.Is(err, context.DeadlineExceeded) {
				return nil, p.cancel(ctx, req, location, err)
			}
			return nil, communication(err, "respond-async poll failed")
		}
		if resp.StatusCode != http.StatusAccepted {
			return resp, nil
		}
		delay = schedule.Next(resp)
		discard(resp)
		p.logger.Debug("respond-async job still running", "location", location.String(), "next_delay", delay)
	}
}

// send performs r with the overall deadline attached. The deadline is measured on the poller's clock
// and converted to wall time; it stays in force until the returned body is closed.
func (p *Poller) send(r *http.Request, deadline time.Time) (*http.Response, error) {
	ctx, cancel := context.WithDeadline(r.Context(), time.Now().Add(deadline.Sub(p.clock.Now())))
	resp, err := p.client.Do(r.WithContext(ctx))
	if err != nil {
		if errs.Is(ctx.Err(), context.DeadlineExceeded) {
			err = errs.Mark(err, context.DeadlineExceeded)
		}
		cancel()
		return nil, err
	}
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

func communication(err error, msg string) error {
	return errs.Mark(errs.Wrap(err, msg), errs.ErrCommunication)
}

func timedOut(err error) error {
	return errs.Mark(errs.Mark(err, ErrTimeout), errs.ErrCommunication)
}

// cancel asks the server to drop the job. The DELETE outcome never changes the returned error.
func (p *Poller) cancel(ctx context.Context, orig *http.Request, location *url.URL, cause error) error {
	cctx, done := context.WithTimeout(context.WithoutCancel(ctx), cancelTimeout)
	defer done()

	del, err := p.newFollowUp(cctx, http.MethodDelete, location, orig.Header)
	if err == nil {
		var resp *http.Response
		resp, err = p.client.Do(del)
		if err == nil {
			if resp.StatusCode != http.StatusAccepted {
				p.logger.Warn("respond-async cancellation not accepted",
					"location", location.String(),
					"status_code", resp.StatusCode)
			}
			discard(resp)
		}
	}
	if err != nil {
		p.logger.Warn("respond-async cancellation failed", "location", location.String(), "error", err.Error())
	}
	return timedOut(errs.Wrap(cause, "respond-async request abandoned"))
}

func (p *Poller) newFollowUp(ctx context.Context, method string, location *url.URL, orig http.Header) (*http.Request, error) {
	r, err := http.NewRequestWithContext(ctx, method, location.String(), nil)
	if err != nil {
		return nil, errs.Wrap(err, "failed to build follow-up request")
	}
	for k, vs := range orig {
		switch http.CanonicalHeaderKey(k) {
		case "Content-Type", "Content-Length":
			continue
		}
		for _, v := range vs {
			r.Header.Add(k, v)
		}
	}
	return r, nil
}

func statusLocation(base *url.URL, resp *http.Response) (*url.URL, error) {
	raw := strings.TrimSpace(resp.Header.Get(headerContentLocation))
	if raw == "" {
		return nil, errs.Wrap(ErrAsyncProtocol, "202 Accepted without Content-Location")
	}
	loc, err := url.Parse(raw)
	if err != nil {
		return nil, errs.Mark(errs.Wrap(err, "invalid Content-Location"), ErrAsyncProtocol)
	}
	return base.ResolveReference(loc), nil
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

// Schedule yields the wait before each poll: Retry-After when present, otherwise
// exponential backoff from 250ms doubling up to 30s. The backoff advances every round either way.
type Schedule struct {
	clock   clock.Clock
	backoff *backoff.ExponentialBackOff
}

func NewSchedule(clk clock.Clock) *Schedule {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     initialDelay,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         maxDelay,
		MaxElapsedTime:      0,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	b.Reset()
	return &Schedule{clock: clk, backoff: b}
}

func (s *Schedule) Next(resp *http.Response) time.Duration {
	next := s.backoff.NextBackOff()
	if resp != nil {
		if d, ok := RetryAfter(resp.Header.Get(headerRetryAfter), s.clock.Now()); ok {
			return d
		}
	}
	return next
}

// RetryAfter reads an HTTP-date first and a number of seconds second. Past dates yield 0.
func RetryAfter(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if t, err := http.ParseTime(value); err == nil {
		return max(t.Sub(now), 0), true
	}
	if secs, err := strconv.Atoi(value); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second, true
	}
	return 0, false
}
