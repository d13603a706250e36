package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/alnah/go-mediakit/internal/cli"
)

// Injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	// Load .env file if present (ignore error if missing).
	_ = godotenv.Load()

	// Context with signal cancellation.
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	env := cli.DefaultEnv()

	rootCmd := &cobra.Command{
		Use:   "mediakit",
		Short: "Probe, split, edit and transcribe media with ffmpeg",
		Long: `mediakit drives ffmpeg and ffprobe to inspect media, find silences,
split recordings at natural pauses, edit by time range, extract stills,
clean up speech audio, and transcribe it.

ffmpeg is located through FFMPEG_PATH, then PATH, then a verified download.`,
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		// Silence Cobra's default error/usage printing; we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	env.BindFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		cli.ProbeCmd(env),
		cli.SilencesCmd(env),
		cli.SplitCmd(env),
		cli.SliceCmd(env),
		cli.MergeCmd(env),
		cli.CutCmd(env),
		cli.ReplaceAudioCmd(env),
		cli.DelayAudioCmd(env),
		cli.FramesCmd(env),
		cli.FormatCmd(env),
		cli.TranscribeCmd(env),
		cli.ServeCmd(env),
		cli.ConfigCmd(env),
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		cancel()
		os.Exit(cli.ExitCode(err))
	}
}
