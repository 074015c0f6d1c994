package telegram

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	logx "pronote2telegram/pkg/logx"
)

// retryTransport retries Telegram calls the API asks us to slow down on.
// The request body is buffered once so every attempt resends it intact.
type retryTransport struct {
	base    http.RoundTripper
	max     int
	first   time.Duration
	next    time.Duration
	timeout time.Duration
	log     logx.Logger
	sleep   func(context.Context, time.Duration) error
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout, http.StatusTooManyRequests,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil && req.Body != http.NoBody {
		b, err := io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, err
		}
		body = b
	}

	for attempt := 0; ; attempt++ {
		resp, err := t.attempt(req, body)
		if err != nil {
			return nil, err
		}
		if !retryableStatus(resp.StatusCode) || attempt >= t.max {
			return resp, nil
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()

		delay := t.next
		if attempt == 0 {
			delay = t.first
		}
		t.log.Warn("telegram asked to retry",
			logx.Int("status", resp.StatusCode),
			logx.Int("attempt", attempt+1),
			logx.Duration("delay", delay),
		)
		if err := t.sleep(req.Context(), delay); err != nil {
			return nil, err
		}
	}
}

func (t *retryTransport) attempt(req *http.Request, body []byte) (*http.Response, error) {
	ctx, cancel := req.Context(), context.CancelFunc(func() {})
	if t.timeout > 0 {
		ctx, cancel = context.WithTimeout(req.Context(), t.timeout)
	}
	r := req.Clone(ctx)
	if body != nil {
		r.Body = io.NopCloser(bytes.NewReader(body))
		r.ContentLength = int64(len(body))
		r.GetBody = func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(body)), nil }
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	resp, err := base.RoundTrip(r)
	if err != nil {
		cancel()
		return nil, err
	}
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// cancelOnClose releases the per-attempt context once the caller is done
// reading the response.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
