package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/vidsim/internal/deps"
	"github.com/five82/vidsim/internal/util"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that ffmpeg, ffprobe and yt-dlp are installed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			statuses := deps.CheckBinaries(deps.Requirements(cfg))

			if ctx.flags.json {
				if err := writeJSON(cmd, statuses); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(
					[]string{"Tool", "Status", "Path", "Used for"},
					doctorRows(statuses),
					nil,
				))
				fmt.Fprintf(out, "Work dir: %s (%s free)\n", cfg.Paths.WorkDir,
					util.FormatBytes(util.GetAvailableSpace(cfg.Paths.WorkDir)))
			}

			if missing := deps.MissingRequired(statuses); len(missing) > 0 {
				return fmt.Errorf("missing required tools: %s", strings.Join(missing, ", "))
			}
			return nil
		},
	}
}

func doctorRows(statuses []deps.Status) [][]string {
	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		status := "available"
		path := s.Path
		switch {
		case !s.Available && s.Optional:
			status = "missing (optional)"
			path = s.Detail
		case !s.Available:
			status = "missing"
			path = s.Detail
		}
		rows = append(rows, []string{s.Name, titleCase(status), path, s.Description})
	}
	return rows
}
