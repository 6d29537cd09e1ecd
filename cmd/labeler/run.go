package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/frame-labeler/internal/common"
	"github.com/Veraticus/frame-labeler/internal/display"
	"github.com/Veraticus/frame-labeler/internal/engine"
	"github.com/Veraticus/frame-labeler/internal/tui"
	"github.com/Veraticus/frame-labeler/internal/tui/themes"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const headlessTick = 50 * time.Millisecond

func runCmd() *cobra.Command {
	var (
		headless bool
		duration time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Classify the live feed and show the top labels",
		Long: `Start a session: load the model, open the capture source and classify
frames continuously. The terminal UI shows the mirrored feed with the top
labels underneath. With --headless every display refresh is logged instead.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}
			return runSession(ctx, headless)
		},
	}

	cmd.Flags().BoolVar(&headless, "headless", false, "log display refreshes instead of starting the TUI")
	cmd.Flags().DurationVar(&duration, "duration", 0, "stop after this long (0 runs until interrupted)")
	cmd.Flags().String("provider", "", "classifier provider (http, mock)")
	cmd.Flags().String("model-url", "", "model base URL serving metadata.json")
	cmd.Flags().String("source", "", "capture source (dir, http, synthetic)")
	cmd.Flags().String("path", "", "image directory for the dir source")
	cmd.Flags().String("url", "", "snapshot URL for the http source")
	cmd.Flags().Float64("fps", 0, "capture rate in frames per second")
	cmd.Flags().Duration("interval", 0, "display refresh interval")
	cmd.Flags().Bool("no-mirror", false, "show the feed unmirrored")
	cmd.Flags().String("theme", "default", "TUI theme (default, catppuccin-mocha)")

	_ = viper.BindPFlag("classifier.provider", cmd.Flags().Lookup("provider"))
	_ = viper.BindPFlag("classifier.model_url", cmd.Flags().Lookup("model-url"))
	_ = viper.BindPFlag("capture.source", cmd.Flags().Lookup("source"))
	_ = viper.BindPFlag("capture.path", cmd.Flags().Lookup("path"))
	_ = viper.BindPFlag("capture.url", cmd.Flags().Lookup("url"))
	_ = viper.BindPFlag("capture.fps", cmd.Flags().Lookup("fps"))
	_ = viper.BindPFlag("display.interval", cmd.Flags().Lookup("interval"))
	_ = viper.BindPFlag("display.theme", cmd.Flags().Lookup("theme"))

	cmd.PreRun = func(cmd *cobra.Command, _ []string) {
		if noMirror, _ := cmd.Flags().GetBool("no-mirror"); noMirror {
			viper.Set("display.mirror", false)
		}
	}

	return cmd
}

func runSession(ctx context.Context, headless bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cls, err := initClassifier(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = cls.Close() }()

	dev, err := initDevice(cfg)
	if err != nil {
		return err
	}

	if !headless {
		closer, redirectErr := redirectLogs()
		if redirectErr != nil {
			return redirectErr
		}
		defer func() { _ = closer.Close() }()
	}

	session := engine.NewSession(cls, dev, cfg.Loop)
	defer func() {
		if stopErr := session.Stop(); stopErr != nil {
			slog.Warn("Failed to stop session", "error", stopErr)
		}
	}()

	if startErr := session.Start(ctx); startErr != nil && headless {
		return startErr
	}

	if headless {
		return watch(ctx, session, display.NewThrottle(cfg.Display), headlessTick)
	}

	return tui.Run(ctx, session,
		tui.WithTheme(themes.GetTheme(viper.GetString("display.theme"))),
		tui.WithRenderOptions(cfg.Render),
		tui.WithDisplay(cfg.Display),
	)
}

// redirectLogs sends logs to the configured file while the TUI owns the
// terminal.
func redirectLogs() (io.Closer, error) {
	level, err := common.ParseLevel(viper.GetString("logging.level"))
	if err != nil {
		return nil, err
	}
	path := viper.GetString("logging.file")
	closer, err := common.RedirectLogger(path, level, viper.GetString("logging.format"))
	if err != nil {
		return nil, fmt.Errorf("failed to redirect logs to %s: %w", path, err)
	}
	return closer, nil
}

// watch drives the display throttle without a terminal UI and logs every
// refresh. It returns the startup error if the session fails and nil when
// ctx ends.
func watch(ctx context.Context, session tui.SessionView, throttle *display.Throttle, every time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			snap := session.Snapshot()
			if throttle.Tick(now, snap) {
				state := throttle.State()
				slog.Info("Display refreshed",
					"status", state.Status.String(),
					"slots", formatSlots(state.Slots),
					"requests", snap.Stats.Requests,
					"failures", snap.Stats.Failures)
			}
			if snap.State == engine.StateFailed {
				return snap.StartupErr
			}
		}
	}
}

func formatSlots(slots []display.Slot) string {
	parts := make([]string, 0, len(slots))
	for _, s := range slots {
		if s.Empty() {
			parts = append(parts, `""`)
			continue
		}
		if s.ConfidenceText == "" {
			parts = append(parts, s.Label)
			continue
		}
		parts = append(parts, s.Label+" "+s.ConfidenceText)
	}
	return strings.Join(parts, " | ")
}
