// Package main is the entry point for the terminal chat client.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/capitalize-ai/multimodal-gateway/internal/client"
	"github.com/capitalize-ai/multimodal-gateway/pkg/logger"
)

var version = "2.0.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:          "chat",
		Short:        "Terminal client for the multimodal gateway",
		Long:         "chat sends text, images, recordings and files to the gateway and keeps the conversation log.",
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, v, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.String("gateway", "http://localhost:3001", "gateway base URL")
	flags.Duration("timeout", client.DefaultTimeout, "timeout for each gateway call")
	flags.Int("history", 5, "number of recent entries sent as chat context")
	flags.Bool("auto-send", false, "send transcripts to chat automatically")
	flags.String("assistant", "Hasan AI", "assistant name used in the greeting")
	flags.String("log-level", "error", "log level (debug, info, warn, error)")
	_ = v.BindPFlags(flags)

	v.SetEnvPrefix("CHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return cmd
}

func run(ctx context.Context, v *viper.Viper, in io.Reader, out io.Writer) error {
	log, err := logger.New(logger.Options{Level: v.GetString("log-level"), Format: "console", Output: "stderr"})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	timeout := v.GetDuration("timeout")
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	gateway := client.NewGateway(v.GetString("gateway"), timeout)

	r := newREPL(replConfig{
		In:        in,
		Out:       out,
		Assistant: v.GetString("assistant"),
		Backend:   gateway,
		Status:    gateway,
		Logger:    log.Named("chat"),
		Dispatcher: client.DispatcherConfig{
			HistoryLimit:        v.GetInt("history"),
			AutoSendTranscripts: v.GetBool("auto-send"),
		},
	})
	return r.Run(ctx)
}
