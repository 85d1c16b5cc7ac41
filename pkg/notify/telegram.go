/*
Copyright 2025 David Arnold
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at
    http://www.apache.org/licenses/LICENSE-2.0
Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/sync/errgroup"

	"gitlab.com/davidxarnold/hostwatch/pkg/util"
)

// DefaultTelegramAPI is the Bot API base URL.
const DefaultTelegramAPI = "https://api.telegram.org"

const (
	maxConcurrentSends = 4
	defaultSendTimeout = 30 * time.Second
	maxResponseBytes   = 1 << 20
)

// TelegramConfig configures the Bot API transport.
type TelegramConfig struct {
	Token   string
	ChatIDs []string
	// APIBase defaults to DefaultTelegramAPI.
	APIBase string
	Timeout time.Duration
}

// Telegram posts messages and photos through the Telegram Bot API. Every
// request is attempted once: a send that timed out may still have been
// delivered, so repeating it could duplicate the notification.
type Telegram struct {
	cfg  TelegramConfig
	http *retryablehttp.Client
}

// NewTelegram validates cfg and returns a Telegram notifier.
func NewTelegram(cfg TelegramConfig) (*Telegram, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is required")
	}
	if len(cfg.ChatIDs) == 0 {
		return nil, errors.New("at least one telegram chat id is required")
	}
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultTelegramAPI
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultSendTimeout
	}

	c := util.NewHTTPClient("telegram", 0, cfg.Token)
	c.CheckRetry = neverRetry
	c.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Telegram{cfg: cfg, http: c}, nil
}

func neverRetry(ctx context.Context, _ *http.Response, _ error) (bool, error) {
	return false, ctx.Err()
}

type botResponse struct {
	Ok          bool   `json:"ok"`
	Description string `json:"description"`
}

// SendText sends a Markdown message to every chat. A message over the limit
// is cut and sent as plain text, since the cut may split a Markdown entity.
func (t *Telegram) SendText(ctx context.Context, text string) []Delivery {
	parseMode := "Markdown"
	if len([]rune(text)) > MaxMessageLength {
		text = Truncate(text)
		parseMode = ""
	}
	return t.fanOut(ctx, func(ctx context.Context, chatID string) error {
		form := url.Values{}
		form.Set("chat_id", chatID)
		form.Set("text", text)
		if parseMode != "" {
			form.Set("parse_mode", parseMode)
		}
		return t.post(ctx, "sendMessage", "application/x-www-form-urlencoded", []byte(form.Encode()))
	})
}

// SendPhoto uploads a PNG to every chat with a plain text caption.
func (t *Telegram) SendPhoto(ctx context.Context, photo []byte, caption string) []Delivery {
	caption = truncateTo(caption, MaxCaptionLength)
	return t.fanOut(ctx, func(ctx context.Context, chatID string) error {
		body, contentType, err := photoBody(chatID, caption, photo)
		if err != nil {
			return err
		}
		return t.post(ctx, "sendPhoto", contentType, body)
	})
}

// fanOut runs send for every chat with bounded concurrency. Failures are
// collected per chat and never cancel the other sends.
func (t *Telegram) fanOut(ctx context.Context, send func(context.Context, string) error) []Delivery {
	out := make([]Delivery, len(t.cfg.ChatIDs))

	var g errgroup.Group
	g.SetLimit(maxConcurrentSends)
	for i, chatID := range t.cfg.ChatIDs {
		g.Go(func() error {
			out[i] = Delivery{Destination: chatID, Err: send(ctx, chatID)}
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func photoBody(chatID, caption string, photo []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("chat_id", chatID); err != nil {
		return nil, "", err
	}
	if caption != "" {
		if err := mw.WriteField("caption", caption); err != nil {
			return nil, "", err
		}
	}
	fw, err := mw.CreateFormFile("photo", "hosts.png")
	if err != nil {
		return nil, "", err
	}
	if _, err := fw.Write(photo); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

func (t *Telegram) post(ctx context.Context, method, contentType string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/bot%s/%s", strings.TrimRight(t.cfg.APIBase, "/"), t.cfg.Token, method)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", method, t.redact(err))
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := t.http.Do(req)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
		}
		return fmt.Errorf("%s: %w", method, t.redact(err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%s: read response: %w", method, t.redact(err))
	}

	var br botResponse
	decodeErr := json.Unmarshal(data, &br)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if decodeErr != nil || br.Description == "" {
			return fmt.Errorf("%s: unexpected status %s", method, resp.Status)
		}
		return fmt.Errorf("%s: unexpected status %s: %s", method, resp.Status, br.Description)
	}
	if decodeErr != nil {
		return fmt.Errorf("%s: decode response: %w", method, decodeErr)
	}
	if !br.Ok {
		return fmt.Errorf("%s: api returned ok=false: %s", method, br.Description)
	}
	return nil
}

// redact keeps the bot token out of error messages, which embed the URL.
func (t *Telegram) redact(err error) error {
	return errors.New(util.Redact(err.Error(), t.cfg.Token))
}
