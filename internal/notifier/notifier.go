package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/wildanadt/RTA-WRT/internal/utils/logger"
	"github.com/wildanadt/RTA-WRT/internal/utils/network"
)

const defaultAPIBase = "https://api.telegram.org"

// Config drives one release announcement.
type Config struct {
	Token   string
	ChatID  string
	TopicID int // forum topic, 0 = none

	// APIBase overrides the Telegram endpoint, used by tests.
	APIBase string

	MaxFilesPerGroup int           // default 10, Telegram's media-group limit
	RetryAttempts    int           // default 3
	RetryDelay       time.Duration // default 5s
	GroupPacing      time.Duration // pause between media groups, default 1s

	// DryRun logs what would be sent without any HTTP traffic.
	DryRun bool
}

func (c Config) withDefaults() Config {
	if c.APIBase == "" {
		c.APIBase = defaultAPIBase
	}
	if c.MaxFilesPerGroup <= 0 {
		c.MaxFilesPerGroup = 10
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 5 * time.Second
	}
	if c.GroupPacing <= 0 {
		c.GroupPacing = time.Second
	}
	return c
}

// Button is one inline-keyboard download link under the announcement.
type Button struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// Bot sends release announcements over the Telegram Bot API.
type Bot struct {
	cfg    Config
	client *http.Client
}

func New(cfg Config) *Bot {
	return NewWithClient(cfg, network.NewSecureHTTPClient())
}

func NewWithClient(cfg Config, client *http.Client) *Bot {
	return &Bot{cfg: cfg.withDefaults(), client: client}
}

// SendMessage posts an HTML-formatted announcement, optionally with rows of
// inline download buttons (one button per row).
func (b *Bot) SendMessage(ctx context.Context, html string, buttons []Button) error {
	log := logger.Logger()
	if b.cfg.DryRun {
		log.Infof("DRY RUN: would send message to chat %s: %.50s", b.cfg.ChatID, html)
		return nil
	}

	payload := map[string]any{
		"chat_id":    b.cfg.ChatID,
		"text":       html,
		"parse_mode": "HTML",
	}
	if b.cfg.TopicID != 0 {
		payload["message_thread_id"] = b.cfg.TopicID
	}
	if len(buttons) > 0 {
		rows := make([][]Button, len(buttons))
		for i, btn := range buttons {
			rows[i] = []Button{btn}
		}
		payload["reply_markup"] = map[string]any{"inline_keyboard": rows}
	}

	err := b.withRetry(ctx, "sendMessage", func() error {
		return b.postJSON(ctx, "sendMessage", payload)
	})
	if err != nil {
		return err
	}
	log.Infof("Message sent to chat %s", b.cfg.ChatID)
	return nil
}

// SendFiles uploads the given files in media groups of at most
// MaxFilesPerGroup, captioning each group "(Group i/n)" when there is more
// than one. An empty list is a warning, not an error.
func (b *Bot) SendFiles(ctx context.Context, paths []string, caption string) error {
	log := logger.Logger()
	if len(paths) == 0 {
		log.Warn("No files to send")
		return nil
	}
	if b.cfg.DryRun {
		log.Infof("DRY RUN: would send %d file(s) to chat %s", len(paths), b.cfg.ChatID)
		return nil
	}

	groups := groupPaths(paths, b.cfg.MaxFilesPerGroup)
	log.Infof("Sending %d file(s) in %d group(s)", len(paths), len(groups))

	for i, group := range groups {
		groupCaption := caption
		if len(groups) > 1 {
			groupCaption = fmt.Sprintf("%s\n\n(Group %d/%d)", caption, i+1, len(groups))
		}
		desc := fmt.Sprintf("file group %d/%d", i+1, len(groups))
		err := b.withRetry(ctx, desc, func() error {
			return b.sendMediaGroup(ctx, group, groupCaption)
		})
		if err != nil {
			return err
		}
		log.Infof("File group %d/%d sent", i+1, len(groups))
		if i < len(groups)-1 {
			select {
			case <-time.After(b.cfg.GroupPacing):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}

func groupPaths(paths []string, size int) [][]string {
	var groups [][]string
	for len(paths) > size {
		groups = append(groups, paths[:size])
		paths = paths[size:]
	}
	return append(groups, paths)
}

// withRetry runs fn up to the configured attempt count, waiting RetryDelay
// between attempts.
func (b *Bot) withRetry(ctx context.Context, desc string, fn func() error) error {
	log := logger.Logger()
	var err error
	for attempt := 1; attempt <= b.cfg.RetryAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt < b.cfg.RetryAttempts {
			log.Warnf("Attempt %d for %s failed: %v. Retrying in %s", attempt, desc, err, b.cfg.RetryDelay)
			select {
			case <-time.After(b.cfg.RetryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", desc, b.cfg.RetryAttempts, err)
}

func (b *Bot) endpoint(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", b.cfg.APIBase, b.cfg.Token, method)
}

func (b *Bot) postJSON(ctx context.Context, method string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding %s payload: %w", method, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint(method), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return b.do(req, method)
}

// sendMediaGroup uploads one group of documents with a single multipart
// request. The caption rides on the first document.
func (b *Bot) sendMediaGroup(ctx context.Context, paths []string, caption string) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	media := make([]map[string]any, len(paths))
	for i := range paths {
		media[i] = map[string]any{
			"type":  "document",
			"media": fmt.Sprintf("attach://file%d", i),
		}
		if i == 0 && caption != "" {
			media[i]["caption"] = caption
			media[i]["parse_mode"] = "HTML"
		}
	}
	mediaJSON, err := json.Marshal(media)
	if err != nil {
		return fmt.Errorf("encoding media group: %w", err)
	}

	if err := w.WriteField("chat_id", b.cfg.ChatID); err != nil {
		return err
	}
	if b.cfg.TopicID != 0 {
		if err := w.WriteField("message_thread_id", strconv.Itoa(b.cfg.TopicID)); err != nil {
			return err
		}
	}
	if err := w.WriteField("media", string(mediaJSON)); err != nil {
		return err
	}
	for i, path := range paths {
		part, err := w.CreateFormFile(fmt.Sprintf("file%d", i), filepath.Base(path))
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening %s: %w", path, err)
		}
		_, err = io.Copy(part, f)
		f.Close()
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
	}
	if err := w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint("sendMediaGroup"), &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return b.do(req, "sendMediaGroup")
}

// do issues the request and decodes the Bot API envelope, surfacing
// Telegram's error description on failure.
func (b *Bot) do(req *http.Request, method string) error {
	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	var apiResp struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return fmt.Errorf("%s: decoding response (status %d): %w", method, resp.StatusCode, err)
	}
	if !apiResp.OK {
		return fmt.Errorf("%s: telegram API error (status %d): %s", method, resp.StatusCode, apiResp.Description)
	}
	return nil
}
