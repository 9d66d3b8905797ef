package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/five82/vidsim/internal/config"
	"github.com/five82/vidsim/internal/logging"
	"github.com/five82/vidsim/internal/reporter"
	"github.com/five82/vidsim/internal/util"
)

type globalFlags struct {
	configPath string
	verbose    bool
	json       bool
	noLog      bool
}

type commandContext struct {
	flags *globalFlags

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(strings.TrimSpace(c.flags.configPath))
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// logger builds the structured logger for a command and installs it as the
// global logger.
func (c *commandContext) logger(cmd *cobra.Command, cfg *config.Config) (*logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	if c.flags.verbose {
		level = logging.LevelDebug
	}
	logger := logging.New(logging.Config{
		Level:   level,
		Output:  cmd.ErrOrStderr(),
		Format:  cfg.Logging.Format,
		Enabled: true,
	})
	logging.SetGlobal(logger)
	return logger, nil
}

// reporter returns the NDJSON reporter with --json and the terminal reporter
// otherwise.
func (c *commandContext) reporter(cmd *cobra.Command) reporter.Reporter {
	if c.flags.json {
		return reporter.NewJSONReporterWithWriter(cmd.OutOrStdout())
	}
	return reporter.NewTerminalReporterWithWriters(cmd.OutOrStdout(), cmd.ErrOrStderr(), c.flags.verbose)
}

// runLog opens the per-run audit log. It is nil when --no-log is set.
func (c *commandContext) runLog(cfg *config.Config, command string) (*logging.RunLog, error) {
	rl, err := logging.OpenRunLog(cfg.Paths.LogDir, command, c.flags.verbose, c.flags.noLog)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}
	return rl, nil
}

// runSession bundles what every long-running command sets up first.
type runSession struct {
	cfg    *config.Config
	logger *logging.Logger
	rep    reporter.Reporter
	runLog *logging.RunLog
}

func (c *commandContext) start(cmd *cobra.Command, command string) (*runSession, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.logger(cmd, cfg)
	if err != nil {
		return nil, err
	}
	rl, err := c.runLog(cfg, command)
	if err != nil {
		return nil, err
	}
	rep := c.reporter(cmd)
	if rl != nil {
		rep = reporter.NewCompositeReporter(rep, reporter.NewJSONReporterWithWriter(rl.Writer()))
	}
	info := util.GetSystemInfo()
	rep.Hardware(reporter.HardwareSummary{Hostname: info.Hostname, NumCPU: info.NumCPU})
	return &runSession{cfg: cfg, logger: logger, rep: rep, runLog: rl}, nil
}

func (s *runSession) close() {
	_ = s.runLog.Close()
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
