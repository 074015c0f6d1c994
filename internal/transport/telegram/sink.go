// Package telegram delivers relay notifications to a Telegram chat.
//
// A Sink is shared by every processor of a run. It serializes calls through
// one rate limiter and retries throttled requests at the HTTP layer, so
// callers only see the final outcome of each call.
package telegram

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	"pronote2telegram/internal/format"
	kit "pronote2telegram/internal/transport"
	logx "pronote2telegram/pkg/logx"
)

// maxGroup is the largest media group Telegram accepts.
const maxGroup = 10

const (
	DefaultThrottle   = 1500 * time.Millisecond
	DefaultTimeout    = 20 * time.Second
	DefaultRetryMax   = 5
	DefaultFirstRetry = time.Second
	DefaultRetryDelay = 61 * time.Second
	DefaultGroupPause = 60100 * time.Millisecond
)

type Config struct {
	Token  string
	ChatID string
	// APIURL overrides the Bot API endpoint (tests, local bot API servers).
	APIURL string

	Throttle   time.Duration
	Timeout    time.Duration
	RetryMax   int
	FirstRetry time.Duration
	RetryDelay time.Duration
	GroupPause time.Duration
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RetryMax < 0 {
		c.RetryMax = 0
	}
	if c.FirstRetry < 0 {
		c.FirstRetry = 0
	}
	if c.RetryDelay < 0 {
		c.RetryDelay = 0
	}
	if c.GroupPause < 0 {
		c.GroupPause = 0
	}
	return c
}

// chatRecipient addresses a chat by numeric id or @username.
type chatRecipient string

func (c chatRecipient) Recipient() string { return string(c) }

type Sink struct {
	cfg     Config
	log     logx.Logger
	fmt     *format.Formatter
	bot     *tele.Bot
	to      chatRecipient
	limiter *rate.Limiter
	retry   *retryTransport
	// sleep waits between full media groups.
	sleep func(context.Context, time.Duration) error
}

var _ kit.Sink = (*Sink)(nil)

func New(cfg Config, f *format.Formatter, log logx.Logger) (*Sink, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if strings.TrimSpace(cfg.ChatID) == "" {
		return nil, errors.New("telegram chat id is empty")
	}
	if f == nil {
		return nil, errors.New("telegram sink needs a formatter")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	cfg = cfg.withDefaults()
	log = log.With(logx.String("comp", "telegram.sink"))

	retry := &retryTransport{
		base:    http.DefaultTransport,
		max:     cfg.RetryMax,
		first:   cfg.FirstRetry,
		next:    cfg.RetryDelay,
		timeout: cfg.Timeout,
		log:     log,
		sleep:   sleepCtx,
	}
	client := &http.Client{Transport: retry}
	b, err := tele.NewBot(tele.Settings{
		URL:     strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/"),
		Token:   cfg.Token,
		Client:  client,
		Offline: true,
	})
	if err != nil {
		return nil, err
	}

	limit := rate.Inf
	if cfg.Throttle > 0 {
		limit = rate.Every(cfg.Throttle)
	}
	return &Sink{
		cfg:     cfg,
		log:     log,
		fmt:     f,
		bot:     b,
		to:      chatRecipient(strings.TrimSpace(cfg.ChatID)),
		limiter: rate.NewLimiter(limit, 1),
		retry:   retry,
		sleep:   sleepCtx,
	}, nil
}

// SendMessage sends a MarkdownV2 category message, split when too long.
func (s *Sink) SendMessage(ctx context.Context, child, subject, body string, isMarkdown bool) error {
	text := format.Message(child, subject, body, isMarkdown)
	s.log.Debug("sending message", logx.String("subject", subject))
	return s.sendText(ctx, text.String(), tele.ModeMarkdownV2, false)
}

// SendPost sends the HTML body of post, then its attachments grouped by
// kind. Kinds Telegram cannot upload are summarized in a text notice.
func (s *Sink) SendPost(ctx context.Context, post kit.Post) error {
	s.log.Debug("sending post", logx.String("subject", post.Subject), logx.Int("attachments", len(post.Attachments)))
	if err := s.sendText(ctx, s.fmt.Post(post).String(), tele.ModeHTML, false); err != nil {
		return err
	}

	groups := map[kit.MediaKind][]kit.Attachment{}
	var other []string
	for _, a := range post.Attachments {
		switch a.Kind {
		case kit.MediaImage, kit.MediaDocument, kit.MediaVideo:
			groups[a.Kind] = append(groups[a.Kind], a)
		default:
			label := strings.TrimSpace(a.Type)
			if label == "" {
				label = string(kit.MediaOther)
			}
			other = append(other, label)
		}
	}

	for _, kind := range []kit.MediaKind{kit.MediaImage, kit.MediaDocument, kit.MediaVideo} {
		if err := s.sendFiles(ctx, groups[kind]); err != nil {
			return err
		}
	}
	if len(other) > 0 {
		return s.sendText(ctx, s.fmt.OtherObjects(other), "", true)
	}
	return nil
}

func (s *Sink) sendText(ctx context.Context, text string, mode tele.ParseMode, silent bool) error {
	for _, chunk := range splitTelegramText(text, telegramTextLimit, string(mode)) {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		opt := &tele.SendOptions{ParseMode: mode, DisableNotification: silent}
		if _, err := s.bot.Send(s.to, chunk, opt); err != nil {
			return err
		}
	}
	return nil
}

// sendFiles uploads one kind of attachment. A lone file is sent silently on
// its own; more are sent as media groups, pausing after each full group.
func (s *Sink) sendFiles(ctx context.Context, files []kit.Attachment) error {
	if len(files) == 1 {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		_, err := s.bot.Send(s.to, inputFile(files[0]), &tele.SendOptions{DisableNotification: true})
		return err
	}

	for start := 0; start < len(files); start += maxGroup {
		end := min(start+maxGroup, len(files))
		album := make(tele.Album, 0, end-start)
		for _, f := range files[start:end] {
			album = append(album, inputFile(f))
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		if len(album) == 1 {
			if _, err := s.bot.Send(s.to, album[0], &tele.SendOptions{DisableNotification: true}); err != nil {
				return err
			}
			continue
		}
		if _, err := s.bot.SendAlbum(s.to, album); err != nil {
			return err
		}
		if len(album) == maxGroup {
			s.log.Debug("media group full, pausing", logx.Duration("pause", s.cfg.GroupPause))
			if err := s.sleep(ctx, s.cfg.GroupPause); err != nil {
				return err
			}
		}
	}
	return nil
}

func inputFile(a kit.Attachment) tele.Inputtable {
	file := tele.FromReader(bytes.NewReader(a.Data))
	switch a.Kind {
	case kit.MediaImage:
		return &tele.Photo{File: file}
	case kit.MediaVideo:
		return &tele.Video{File: file, FileName: a.Name}
	default:
		return &tele.Document{File: file, FileName: a.Name}
	}
}
