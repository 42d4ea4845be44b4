package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/refset/churnform/internal/churn"
	"github.com/refset/churnform/internal/config"
	"github.com/refset/churnform/internal/logging"
	"github.com/refset/churnform/internal/lottie"
	"github.com/refset/churnform/internal/metrics"
	"github.com/refset/churnform/internal/model"
	"github.com/refset/churnform/internal/web"
)

var (
	configPath string
	addr       string
	modelPath  string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "churnform",
	Short:         "Customer churn prediction page",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          serve,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (default config.yaml if present)")
	rootCmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides server.addr")
	rootCmd.Flags().StringVar(&modelPath, "model", "", "model artifact path, overrides model.path")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "churnform:", err)
		os.Exit(1)
	}
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if modelPath != "" {
		cfg.Model.Path = modelPath
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Without a model there is nothing to serve
	forest, err := model.Load(cfg.Model.Path)
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}
	logger.Info("loaded model",
		zap.String("path", cfg.Model.Path),
		zap.Int("trees", forest.NumTrees()),
		zap.Int("features", forest.NumFeatures()),
		zap.Strings("columns", forest.FeatureNames()))
	if forest.NumFeatures() != churn.NumFeatures {
		return fmt.Errorf("model %s expects %d features, form produces %d", cfg.Model.Path, forest.NumFeatures(), churn.NumFeatures)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	opts := []lottie.Option{
		lottie.WithTimeout(cfg.Assets.Timeout),
		lottie.WithMaxBytes(cfg.Assets.MaxBytes),
	}
	if m != nil {
		opts = append(opts, lottie.WithRecorder(m))
	}
	animations := lottie.NewClient(logger, opts...).LoadSet(ctx, lottie.Sources{
		Gunfire:      cfg.Assets.GunfireURL,
		Satisfaction: cfg.Assets.SatisfactionURL,
		Chatbot:      cfg.Assets.ChatbotURL,
		Fireworks:    cfg.Assets.FireworksURL,
	})

	srv, err := web.New(cfg, churn.NewPredictor(forest), animations, logger, m)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}
