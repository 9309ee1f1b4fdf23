package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"go2tv.app/tizenbridge/internal/adapters/desktop"
	go2tvadapters "go2tv.app/tizenbridge/internal/adapters/go2tv"
	"go2tv.app/tizenbridge/internal/config"
	"go2tv.app/tizenbridge/internal/device"
	"go2tv.app/tizenbridge/internal/discovery"
	"go2tv.app/tizenbridge/internal/domain"
	"go2tv.app/tizenbridge/internal/hostbridge"
	"go2tv.app/tizenbridge/internal/lifecycle"
	"go2tv.app/tizenbridge/internal/log"
	"go2tv.app/tizenbridge/internal/metrics"
	"go2tv.app/tizenbridge/internal/video"
)

const (
	shutdownTimeout = 5 * time.Second
	// desktopPlatformVersion is reported when neither the config nor the
	// capabilities name a platform version.
	desktopPlatformVersion = "6.5"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the video adapter to a host over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), lifecycle.TerminationSignals()...)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	logger := log.WithComponent("serve")
	logger.Info().Str("config_renderer", cfg.Renderer.Address).Msg("bridge_starting")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	bundle := go2tvadapters.NewBundle()
	renderers := discovery.NewService(bundle.Discovery, log.Base())

	rendererURL, err := pickRenderer(ctx, cfg, renderers)
	if err != nil {
		return err
	}
	plugin, err := go2tvadapters.NewAVPlay(go2tvadapters.AVPlayOptions{
		RendererURL: rendererURL,
		Factory:     bundle.DLNAFactory,
		Logger:      log.Base(),
	})
	if err != nil {
		return err
	}

	screen := desktop.NewScreensaver(log.Base())
	defer screen.Close()

	var current atomic.Pointer[video.Player]
	app := desktop.NewApplication(cfg.Device.LaunchPayload, cancel, func() {
		if p := current.Load(); p != nil {
			p.SetVisible(false)
		}
	})

	dev, err := newDevice(cfg, plugin, screen, app)
	if err != nil {
		return err
	}
	if err := dev.Init(ctx); err != nil {
		return err
	}

	player, err := dev.CreateVideo(ctx, domain.Rect{}, video.PlayerOptions{
		PlayTimeout:  cfg.Video.PlayTimeout,
		PollInterval: cfg.Video.PollInterval,
	})
	if err != nil {
		return fmt.Errorf("create video adapter: %w", err)
	}
	current.Store(player)
	defer func() {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()
		if err := player.Close(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("player_close_failed")
		}
		if err := plugin.Close(); err != nil {
			logger.Warn().Err(err).Msg("plugin_close_failed")
		}
	}()

	for _, client := range cfg.DRMClients() {
		if err := player.AttachDRM(ctx, client); err != nil {
			return fmt.Errorf("attach %s: %w", client.Type(), err)
		}
	}
	lifecycle.WatchVisibility(ctx, player.SetVisible)

	srv := hostbridge.New(os.Stdin, os.Stdout, hostbridge.Config{
		Logger:     log.Base(),
		Controller: player,
		Renderers:  renderers,
	})

	// Run blocks on stdin, so a signal cannot interrupt it; the process
	// leaves it behind on exit.
	bridgeDone := make(chan error, 1)
	go func() { bridgeDone <- srv.Run(ctx) }()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case err := <-bridgeDone:
			// End of input ends the process.
			cancel()
			return err
		case <-gctx.Done():
			return gctx.Err()
		}
	})
	if cfg.MetricsAddr != "" {
		g.Go(func() error { return serveMetrics(gctx, cfg.MetricsAddr, logger) })
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	logger.Info().Err(err).Msg("bridge_stopping")
	return err
}

func pickRenderer(ctx context.Context, cfg config.Config, renderers *discovery.Service) (string, error) {
	if cfg.Renderer.Address != "" {
		return cfg.Renderer.Address, nil
	}
	r, err := renderers.First(ctx, cfg.Renderer.DiscoveryTimeout)
	if err != nil {
		return "", fmt.Errorf("select renderer (set renderer.address or %sRENDERER): %w", config.EnvPrefix, err)
	}
	logger := log.WithComponent("serve")
	logger.Info().Str(log.FieldRenderer, r.Address).Str("name", r.Name).Msg("renderer_selected")
	return r.Address, nil
}

func newDevice(cfg config.Config, plugin *go2tvadapters.AVPlay, screen *desktop.Screensaver, app *desktop.Application) (*device.Device, error) {
	appRes, err := cfg.AppResolution()
	if err != nil {
		return nil, err
	}
	product := desktop.Product{
		ID:       cfg.Device.DUID,
		Version:  cfg.Device.Firmware,
		UHDPanel: cfg.Device.UHD,
		UHD8K:    cfg.Device.UHD8K,
	}
	platformVersion := cfg.Video.PlatformVersion
	if platformVersion == "" {
		platformVersion = desktopPlatformVersion
	}

	return device.New(device.Config{
		System:        desktop.NewSystemInfo(cfg.Device.Capabilities, cfg.Device.Properties, platformVersion, panelFor(product), appRes),
		Product:       product,
		Audio:         desktop.NewAudio(cfg.Device.Volume),
		Screen:        screen,
		Keys:          desktop.NewKeys(log.Base()),
		App:           app,
		Plugin:        plugin,
		Surface:       desktop.NewSurface(log.Base()),
		AppResolution: appRes,
		// Empty lets the device read the version from its capabilities.
		PlatformVersion: cfg.Video.PlatformVersion,
		Logger:          log.Base(),
	})
}

func panelFor(p desktop.Product) domain.Resolution {
	switch {
	case p.Is8KPanelSupported():
		return domain.ResolutionUHD8K
	case p.IsUDPanelSupported():
		return domain.ResolutionUHD4K
	default:
		return domain.ResolutionFHD
	}
}

func serveMetrics(ctx context.Context, addr string, logger zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	logger.Info().Str("addr", addr).Msg("metrics_listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
