// Package bridge implements portal.Client against a portal bridge: a small
// HTTP service that speaks the school portal's protocol and exposes typed
// JSON snapshots.
//
// Every call is a JSON POST; the session token travels as a bearer token.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pronote2telegram/internal/portal"
	logx "pronote2telegram/pkg/logx"
)

type Config struct {
	URL     string
	Timeout time.Duration
}

type Client struct {
	base string
	http *http.Client
	log  logx.Logger
}

var _ portal.Client = (*Client)(nil)

func New(cfg Config, log logx.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if base == "" {
		return nil, errors.New("portal bridge url is empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{base: base, http: &http.Client{Timeout: timeout}, log: log}, nil
}

// apiError is the bridge's error body.
type apiError struct {
	Error string `json:"error"`
}

func (c *Client) call(ctx context.Context, s *portal.Session, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if s != nil && s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("bridge %s: %w", path, err)
	}
	defer resp.Body.Close()
	c.log.Debug("bridge call", logx.String("path", path), logx.Int("status", resp.StatusCode), logx.Duration("took", time.Since(start)))

	if resp.StatusCode/100 != 2 {
		var ae apiError
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&ae)
		if ae.Error != "" {
			return fmt.Errorf("bridge %s failed: %s (http=%d)", path, ae.Error, resp.StatusCode)
		}
		return fmt.Errorf("bridge %s failed: http=%d", path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("bridge %s: decode: %w", path, err)
	}
	return nil
}

type loginResponse struct {
	Session     string             `json:"session"`
	User        portal.User        `json:"user"`
	Credentials portal.Credentials `json:"credentials"`
}

func (c *Client) Login(ctx context.Context, cr portal.Credentials) (*portal.Session, portal.Credentials, error) {
	var out loginResponse
	if err := c.call(ctx, nil, "/login", cr, &out); err != nil {
		return nil, portal.Credentials{}, err
	}
	if out.Session == "" {
		return nil, portal.Credentials{}, errors.New("bridge /login: empty session")
	}
	return &portal.Session{Token: out.Session, User: out.User}, out.Credentials, nil
}

// QRCode is the payload encoded in the portal's enrollment QR code.
type QRCode struct {
	Jeton             string `json:"jeton"`
	Login             string `json:"login"`
	URL               string `json:"url"`
	AvecPageConnexion bool   `json:"avecPageConnexion"`
}

// EnrollQRCode registers a new device from a QR code and returns the first
// credentials for it.
func (c *Client) EnrollQRCode(ctx context.Context, deviceUUID, pin string, qr QRCode) (portal.Credentials, error) {
	in := struct {
		DeviceUUID string `json:"deviceUUID"`
		Pin        string `json:"pin"`
		QR         QRCode `json:"qr"`
	}{deviceUUID, pin, qr}
	var out loginResponse
	if err := c.call(ctx, nil, "/login/qrcode", in, &out); err != nil {
		return portal.Credentials{}, err
	}
	out.Credentials.DeviceUUID = deviceUUID
	return out.Credentials, nil
}

func (c *Client) Assignments(ctx context.Context, s *portal.Session, fromWeek, toWeek int) ([]portal.Assignment, error) {
	in := map[string]int{"from": fromWeek, "to": toWeek}
	var out []portal.Assignment
	if err := c.call(ctx, s, "/assignments", in, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Timetable(ctx context.Context, s *portal.Session, week int) ([]portal.TimetableClass, error) {
	in := struct {
		Week             int  `json:"week"`
		WithCanceled     bool `json:"withCanceledClasses"`
		WithPlanned      bool `json:"withPlannedClasses"`
		WithSuperimposed bool `json:"withSuperposedCanceledClasses"`
	}{Week: week, WithCanceled: true, WithPlanned: true}
	var out struct {
		Classes []portal.TimetableClass `json:"classes"`
	}
	if err := c.call(ctx, s, "/timetable", in, &out); err != nil {
		return nil, err
	}
	return out.Classes, nil
}

type periodRequest struct {
	Period portal.Period `json:"period"`
}

func (c *Client) Grades(ctx context.Context, s *portal.Session, p portal.Period) (portal.GradesOverview, error) {
	var out portal.GradesOverview
	err := c.call(ctx, s, "/grades", periodRequest{p}, &out)
	return out, err
}

func (c *Client) Notebook(ctx context.Context, s *portal.Session, p portal.Period) (portal.Notebook, error) {
	var out portal.Notebook
	err := c.call(ctx, s, "/notebook", periodRequest{p}, &out)
	return out, err
}

func (c *Client) GradebookURL(ctx context.Context, s *portal.Session, p portal.Period) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	if err := c.call(ctx, s, "/gradebook", periodRequest{p}, &out); err != nil {
		return "", err
	}
	if out.URL == "" {
		return "", errors.New("bridge /gradebook: no url")
	}
	return out.URL, nil
}

// maxDownload caps attachment downloads; Telegram rejects bigger uploads anyway.
const maxDownload = 50 << 20

func (c *Client) Download(ctx context.Context, s *portal.Session, url string) ([]byte, error) {
	_ = s
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("download failed: http=%d", resp.StatusCode)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxDownload+1))
	if err != nil {
		return nil, err
	}
	if len(b) > maxDownload {
		return nil, fmt.Errorf("download exceeds %d bytes", maxDownload)
	}
	return b, nil
}
