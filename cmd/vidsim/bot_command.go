package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/five82/vidsim/internal/bot"
	"github.com/five82/vidsim/internal/config"
	"github.com/five82/vidsim/internal/session"
	"github.com/five82/vidsim/internal/worker"
)

// uploadsDir is the work_dir subdirectory holding chat uploads.
const uploadsDir = "uploads"

func newBotCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "bot [ssim|download]",
		Short:     "Run a Telegram bot (mode defaults to bot.mode)",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{config.BotModeSSIM, config.BotModeDownload},
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.start(cmd, "bot")
			if err != nil {
				return err
			}
			defer s.close()

			mode := s.cfg.Bot.Mode
			if len(args) == 1 {
				mode = args[0]
			}
			if mode != config.BotModeSSIM && mode != config.BotModeDownload {
				return fmt.Errorf("%w: '%s'", config.ErrInvalidBotMode, mode)
			}
			if err := s.cfg.RequireBotToken(); err != nil {
				return err
			}

			client, err := bot.NewClient(s.cfg.Bot.Token)
			if err != nil {
				return err
			}
			logger := s.logger.With("bot", mode)
			logger.Info("Bot connected", "user", client.Self.UserName)
			s.runLog.Info("Bot @%s running in %s mode", client.Self.UserName, mode)

			sessions := session.NewStore(s.cfg.SessionTTL(), session.WithLogger(logger))
			go sessions.Run(cmd.Context(), 0)
			sem := worker.NewSemaphore(s.cfg.Bot.MaxConcurrent)

			var handler bot.Handler
			switch mode {
			case config.BotModeSSIM:
				cfg := bot.SSIMBotConfig{
					Client:    client,
					Comparer:  newClassifier(s.cfg, logger),
					Fetcher:   bot.HTTPFetcher{},
					Sessions:  sessions,
					UploadDir: filepath.Join(s.cfg.Paths.WorkDir, uploadsDir),
					Semaphore: sem,
					Logger:    logger,
				}
				store, err := openHistory(s.cfg)
				if err != nil {
					logger.Warn("History unavailable, comparisons will not be recorded", "error", err)
				} else {
					defer func() { _ = store.Close() }()
					cfg.Recorder = store
				}
				handler = bot.NewSSIMBot(cfg)
			case config.BotModeDownload:
				handler = bot.NewDownloadBot(bot.DownloadBotConfig{
					Client:           client,
					Fetcher:          newDownloader(s.cfg, logger),
					Sessions:         sessions,
					Semaphore:        sem,
					MaxProfileVideos: s.cfg.Download.MaxProfileVideos,
					Logger:           logger,
				})
			}

			err = bot.Run(cmd.Context(), client, handler, logger)
			s.runLog.Info("Bot stopped")
			return err
		},
	}
	return cmd
}
