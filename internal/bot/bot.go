// Package bot runs the Telegram front ends for comparison and download.
package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/five82/vidsim/internal/logging"
)

// pollTimeoutSecs is the long-poll timeout for getUpdates.
const pollTimeoutSecs = 60

// Client is the subset of the Telegram API the bots use. *tgbotapi.BotAPI
// implements it.
type Client interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Handler reacts to a single update.
type Handler interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update)
}

// NewClient authenticates with token.
func NewClient(token string) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}
	return api, nil
}

// Run long-polls for updates and hands each to h on its own goroutine. It
// returns after ctx is cancelled and every in-flight handler has returned.
func Run(ctx context.Context, client Client, h Handler, logger *logging.Logger) error {
	if logger == nil {
		logger = logging.Nop()
	}
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = pollTimeoutSecs
	updates := client.GetUpdatesChan(cfg)

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			client.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						logger.Error("Update handler panicked", "panic", r, "stack", string(debug.Stack()))
					}
				}()
				h.HandleUpdate(ctx, update)
			}()
		}
	}
}

// FileFetcher downloads a file by URL to a local path.
type FileFetcher interface {
	Fetch(ctx context.Context, url, dst string) error
}

// HTTPFetcher downloads over HTTP.
type HTTPFetcher struct {
	Client *http.Client
}

// Fetch writes the response body to dst via a temporary file in the same
// directory, so dst only ever appears complete.
func (f HTTPFetcher) Fetch(ctx context.Context, url, dst string) error {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: unexpected status %s", filepath.Base(dst), resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".part_*")
	if err != nil {
		return err
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), dst)
}

// replier sends text replies and logs delivery failures.
type replier struct {
	client Client
	logger *logging.Logger
}

func (r replier) text(chatID int64, text string) {
	if _, err := r.client.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		r.logger.Warn("Failed to send reply", "chat", chatID, "error", err)
	}
}

func (r replier) video(chatID int64, path string) error {
	_, err := r.client.Send(tgbotapi.NewVideo(chatID, tgbotapi.FilePath(path)))
	return err
}

// senderID returns the id sessions are keyed by.
func senderID(msg *tgbotapi.Message) int64 {
	if msg.From != nil {
		return msg.From.ID
	}
	return msg.Chat.ID
}
