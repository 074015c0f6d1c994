package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"pronote2telegram/internal/config"
	"pronote2telegram/internal/portal"
	"pronote2telegram/internal/portal/bridge"
	logx "pronote2telegram/pkg/logx"
)

// EnrollOptions drive the one-time device enrollment.
type EnrollOptions struct {
	Home string
	// QRFile holds the JSON decoded from the portal's QR code.
	QRFile string
	// PIN is the 4-digit code chosen in the portal when creating the QR code.
	PIN string
	// PortalURL overrides the bridge URL of the config.
	PortalURL string
}

// Enroller registers a new device and returns its first credentials.
type Enroller interface {
	EnrollQRCode(ctx context.Context, deviceUUID, pin string, qr bridge.QRCode) (portal.Credentials, error)
}

// Enroll creates <home>/login.json from a QR code. e may be nil, in which
// case the portal bridge is used.
func Enroll(ctx context.Context, opts EnrollOptions, e Enroller, log logx.Logger) error {
	if log.IsZero() {
		log = logx.Nop()
	}
	log = log.With(logx.String("comp", "enroll"))
	if strings.TrimSpace(opts.Home) == "" {
		opts.Home = "."
	}
	if strings.TrimSpace(opts.PIN) == "" {
		return errors.New("pin is required")
	}

	b, err := os.ReadFile(opts.QRFile)
	if err != nil {
		return fmt.Errorf("read qr code: %w", err)
	}
	var qr bridge.QRCode
	if err := json.Unmarshal(b, &qr); err != nil {
		return fmt.Errorf("decode qr code %s: %w", opts.QRFile, err)
	}

	if e == nil {
		url := enrollPortalURL(opts)
		if url == "" {
			return errors.New("portal url unknown: pass --portal or set portal.url")
		}
		c, err := bridge.New(bridge.Config{URL: url, Timeout: config.DefaultPortalTimeout}, log)
		if err != nil {
			return err
		}
		e = c
	}

	device := uuid.NewString()
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	creds, err := e.EnrollQRCode(ctx, device, opts.PIN, qr)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLogin, err)
	}
	creds.DeviceUUID = device

	cfg := config.Config{Home: opts.Home}
	if err := portal.SaveCredentials(cfg.CredentialsPath(), creds); err != nil {
		return err
	}
	log.Info("device enrolled", logx.String("file", cfg.CredentialsPath()), logx.String("user", creds.Username))
	return nil
}

// enrollPortalURL picks the bridge URL: flag, then environment, then the
// config file. The config is not validated here since Telegram settings may
// not exist yet.
func enrollPortalURL(opts EnrollOptions) string {
	if u := strings.TrimSpace(opts.PortalURL); u != "" {
		return u
	}
	if u := strings.TrimSpace(os.Getenv(config.EnvPortalURL)); u != "" {
		return u
	}
	path, err := config.Find(opts.Home)
	if err != nil {
		return ""
	}
	cfg, err := config.Parse(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cfg.Portal.URL)
}
