package bot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	vserrors "github.com/five82/vidsim/internal/errors"
	"github.com/five82/vidsim/internal/history"
	"github.com/five82/vidsim/internal/logging"
	"github.com/five82/vidsim/internal/session"
	"github.com/five82/vidsim/internal/similarity"
	"github.com/five82/vidsim/internal/worker"
)

// Replies sent by the comparison bot.
const (
	MsgSSIMStart     = "📹 Send me two videos, and I'll return the SSIM score comparing them."
	MsgSSIMStatus    = "✅ Bot is alive and ready to compare videos."
	MsgNotAVideo     = "❌ Please send an actual video file."
	MsgFirstReceived = "✅ First video received. Now send me the second one."
	MsgComparing     = "🔍 Comparing videos now..."
	MsgScoreNotFound = "⚠️ SSIM score not found in output."

	msgCompareFailed = "❌ Error comparing videos: %v"
	msgUploadFailed  = "❌ Could not download your video: %v"
	msgScore         = "📊 SSIM score: %.2f — %s %s"
)

const videosPerComparison = 2

// Comparer scores two local files.
type Comparer interface {
	Compare(ctx context.Context, reference, distorted string) (similarity.Result, error)
}

// Recorder stores comparison outcomes.
type Recorder interface {
	Record(ctx context.Context, e history.Entry) (history.Entry, error)
}

// SSIMBot collects two uploads per user and replies with their SSIM rating.
type SSIMBot struct {
	replier
	comparer  Comparer
	fetcher   FileFetcher
	sessions  *session.Store
	uploadDir string
	sem       *worker.Semaphore
	recorder  Recorder
}

// SSIMBotConfig holds the SSIMBot dependencies.
type SSIMBotConfig struct {
	Client    Client
	Comparer  Comparer
	Fetcher   FileFetcher
	Sessions  *session.Store
	UploadDir string
	Semaphore *worker.Semaphore
	Recorder  Recorder
	Logger    *logging.Logger
}

// NewSSIMBot creates the comparison bot.
func NewSSIMBot(cfg SSIMBotConfig) *SSIMBot {
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}
	if cfg.Fetcher == nil {
		cfg.Fetcher = HTTPFetcher{}
	}
	if cfg.Semaphore == nil {
		cfg.Semaphore = worker.NewSemaphore(1)
	}
	return &SSIMBot{
		replier:   replier{client: cfg.Client, logger: cfg.Logger},
		comparer:  cfg.Comparer,
		fetcher:   cfg.Fetcher,
		sessions:  cfg.Sessions,
		uploadDir: cfg.UploadDir,
		sem:       cfg.Semaphore,
		recorder:  cfg.Recorder,
	}
}

// FormatScore renders a successful comparison reply.
func FormatScore(res similarity.Result) string {
	return fmt.Sprintf(msgScore, float64(res.Score), res.Rating.Emoji(), res.Rating.Label())
}

// HandleUpdate implements Handler.
func (b *SSIMBot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			b.text(chatID, MsgSSIMStart)
		case "status":
			b.text(chatID, MsgSSIMStatus)
		}
		return
	}

	fileID, uniqueID, ok := videoFile(msg)
	if !ok {
		b.text(chatID, MsgNotAVideo)
		return
	}

	key := session.Key(senderID(msg))
	path, err := b.download(ctx, key, fileID, uniqueID)
	if err != nil {
		b.logger.Warn("Upload download failed", "user", key, "error", err)
		b.text(chatID, fmt.Sprintf(msgUploadFailed, err))
		return
	}

	if n := b.sessions.AddUpload(key, path); n < videosPerComparison {
		b.text(chatID, MsgFirstReceived)
		return
	}

	pair, ok := b.sessions.TakeUploads(key, videosPerComparison)
	if !ok {
		b.logger.Debug("Upload pair already claimed", "error", vserrors.NewSessionError("uploads taken by a concurrent update"))
		return
	}
	b.text(chatID, MsgComparing)
	b.text(chatID, b.compare(ctx, pair[0], pair[1]))

	for _, p := range pair {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			b.logger.Warn("Failed to remove upload", "error", vserrors.NewCleanupError(p, err))
		}
	}
	b.sessions.Clear(key)
}

// compare runs one comparison under the job semaphore and returns the reply.
func (b *SSIMBot) compare(ctx context.Context, reference, distorted string) string {
	if err := b.sem.Acquire(ctx); err != nil {
		return fmt.Sprintf(msgCompareFailed, err)
	}
	defer b.sem.Release()

	entry := history.Entry{Source: history.SourceBot, Reference: reference, Distorted: distorted}
	res, err := b.comparer.Compare(ctx, reference, distorted)

	var reply string
	switch {
	case err == nil:
		score := float64(res.Score)
		entry.Score = &score
		entry.Rating = res.Rating.Label()
		reply = FormatScore(res)
	case vserrors.IsScoreNotFound(err):
		entry.Error = err.Error()
		reply = MsgScoreNotFound
	default:
		entry.Error = err.Error()
		reply = fmt.Sprintf(msgCompareFailed, err)
	}

	if b.recorder != nil {
		if _, recErr := b.recorder.Record(ctx, entry); recErr != nil {
			b.logger.Warn("Failed to record comparison", "error", recErr)
		}
	}
	return reply
}

func (b *SSIMBot) download(ctx context.Context, key session.Key, fileID, uniqueID string) (string, error) {
	url, err := b.client.GetFileDirectURL(fileID)
	if err != nil {
		return "", fmt.Errorf("resolve file: %w", err)
	}
	dst := filepath.Join(b.uploadDir, b.sessions.ID(key)+"_"+uniqueID+".mp4")
	if err := b.fetcher.Fetch(ctx, url, dst); err != nil {
		return "", err
	}
	return dst, nil
}

// videoFile returns the file ids of a video or a video document.
func videoFile(msg *tgbotapi.Message) (fileID, uniqueID string, ok bool) {
	if msg.Video != nil {
		return msg.Video.FileID, msg.Video.FileUniqueID, true
	}
	if msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "video/") {
		return msg.Document.FileID, msg.Document.FileUniqueID, true
	}
	return "", "", false
}
