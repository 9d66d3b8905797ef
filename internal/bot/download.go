package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/five82/vidsim/internal/download"
	"github.com/five82/vidsim/internal/logging"
	"github.com/five82/vidsim/internal/session"
	"github.com/five82/vidsim/internal/worker"
)

// Replies sent by the download bot.
const (
	MsgDownloadStart  = "🎬 Send me TikTok links and I'll send back HD downloads!"
	MsgDownloadStatus = "✅ Bot is alive and ready to download TikTok videos."
	MsgNoValidLinks   = "❌ Please send one or more valid TikTok links."
	MsgNoNewVideos    = "❌ No new videos were found."

	msgAskCount        = "🔢 How many recent videos would you like to download? (Max %d)"
	msgDownloadingLast = "⏬ Downloading last %d videos from: %s"
	msgDownloading     = "⏬ Downloading: %s"
	msgNotFound        = "❌ Could not find downloaded video for: %s"
	msgLinkFailed      = "❌ Error downloading %s: %v"
	msgProfileFailed   = "❌ Error downloading videos: %v"
	msgUnsupported     = "❌ Unsupported link format: %s"
	msgSendFailed      = "❌ Could not send %s: %v"
)

// Fetcher downloads the videos behind a link.
type Fetcher interface {
	Fetch(ctx context.Context, link string, limit int) (*download.Result, error)
}

// DownloadBot turns links into uploaded videos.
type DownloadBot struct {
	replier
	fetcher    Fetcher
	sessions   *session.Store
	sem        *worker.Semaphore
	maxProfile int
}

// DownloadBotConfig holds the DownloadBot dependencies.
type DownloadBotConfig struct {
	Client           Client
	Fetcher          Fetcher
	Sessions         *session.Store
	Semaphore        *worker.Semaphore
	MaxProfileVideos int
	Logger           *logging.Logger
}

// NewDownloadBot creates the download bot.
func NewDownloadBot(cfg DownloadBotConfig) *DownloadBot {
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}
	if cfg.Semaphore == nil {
		cfg.Semaphore = worker.NewSemaphore(1)
	}
	if cfg.MaxProfileVideos <= 0 || cfg.MaxProfileVideos > download.MaxProfileVideos {
		cfg.MaxProfileVideos = download.MaxProfileVideos
	}
	return &DownloadBot{
		replier:    replier{client: cfg.Client, logger: cfg.Logger},
		fetcher:    cfg.Fetcher,
		sessions:   cfg.Sessions,
		sem:        cfg.Semaphore,
		maxProfile: cfg.MaxProfileVideos,
	}
}

// HandleUpdate implements Handler.
func (b *DownloadBot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			b.text(chatID, MsgDownloadStart)
		case "status":
			b.text(chatID, MsgDownloadStatus)
		}
		return
	}

	key := session.Key(senderID(msg))
	text := msg.Text
	entities := msg.Entities
	if text == "" {
		text = msg.Caption
		entities = msg.CaptionEntities
	}

	if n, ok := download.ParseCount(text); ok {
		link, pending := b.sessions.TakeProfileLink(key)
		if !pending {
			return
		}
		b.fetchProfile(ctx, chatID, link, min(n, b.maxProfile))
		return
	}

	if !strings.Contains(text, "tiktok.com") {
		return
	}
	links := download.ExtractLinks(text, toEntities(entities))
	if len(links) == 0 {
		b.text(chatID, MsgNoValidLinks)
		return
	}

	for _, link := range links {
		switch download.Classify(link) {
		case download.KindVideo:
			b.fetchVideo(ctx, chatID, link)
		case download.KindProfile:
			b.sessions.SetProfileLink(key, link)
			b.text(chatID, fmt.Sprintf(msgAskCount, b.maxProfile))
		default:
			b.text(chatID, fmt.Sprintf(msgUnsupported, link))
		}
	}
}

func (b *DownloadBot) fetchVideo(ctx context.Context, chatID int64, link string) {
	b.text(chatID, fmt.Sprintf(msgDownloading, link))
	res, err := b.fetch(ctx, link, 1)
	switch {
	case errors.Is(err, download.ErrNothingDownloaded):
		b.text(chatID, fmt.Sprintf(msgNotFound, link))
	case err != nil:
		b.logger.Warn("Download failed", "link", link, "error", err)
		b.text(chatID, fmt.Sprintf(msgLinkFailed, link, err))
	default:
		b.sendFiles(chatID, res.Files)
	}
}

func (b *DownloadBot) fetchProfile(ctx context.Context, chatID int64, link string, count int) {
	b.text(chatID, fmt.Sprintf(msgDownloadingLast, count, link))
	res, err := b.fetch(ctx, link, count)
	switch {
	case errors.Is(err, download.ErrNothingDownloaded):
		b.text(chatID, MsgNoNewVideos)
	case err != nil:
		b.logger.Warn("Profile download failed", "link", link, "error", err)
		b.text(chatID, fmt.Sprintf(msgProfileFailed, err))
	default:
		b.sendFiles(chatID, res.Files)
	}
}

func (b *DownloadBot) fetch(ctx context.Context, link string, limit int) (*download.Result, error) {
	if err := b.sem.Acquire(ctx); err != nil {
		return nil, err
	}
	defer b.sem.Release()
	return b.fetcher.Fetch(ctx, link, limit)
}

func (b *DownloadBot) sendFiles(chatID int64, files []string) {
	for _, f := range files {
		if err := b.video(chatID, f); err != nil {
			b.logger.Warn("Failed to send video", "path", f, "error", err)
			b.text(chatID, fmt.Sprintf(msgSendFailed, f, err))
		}
	}
}

func toEntities(in []tgbotapi.MessageEntity) []download.Entity {
	out := make([]download.Entity, len(in))
	for i, e := range in {
		out[i] = download.Entity{Type: e.Type, Offset: e.Offset, Length: e.Length}
	}
	return out
}
