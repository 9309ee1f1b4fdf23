package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"go2tv.app/tizenbridge/internal/adapters/desktop"
	go2tvadapters "go2tv.app/tizenbridge/internal/adapters/go2tv"
	"go2tv.app/tizenbridge/internal/buildinfo"
	"go2tv.app/tizenbridge/internal/config"
	"go2tv.app/tizenbridge/internal/diagnostics"
	"go2tv.app/tizenbridge/internal/discovery"
	"go2tv.app/tizenbridge/internal/domain"
	"go2tv.app/tizenbridge/internal/drm"
	"go2tv.app/tizenbridge/internal/log"
)

type selfTestOutput struct {
	Server struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"server"`
	Config struct {
		Valid    bool   `json:"valid"`
		Error    string `json:"error,omitempty"`
		Renderer string `json:"renderer,omitempty"`
	} `json:"config"`
	Adapters struct {
		DiscoveryWired bool `json:"discovery_wired"`
		DLNAWired      bool `json:"dlna_wired"`
		Screensaver    bool `json:"screensaver_bus"`
	} `json:"adapters"`
	DRM struct {
		PlayReady  bool `json:"playready"`
		Verimatrix bool `json:"verimatrix"`
		MultiDRM   bool `json:"multi_drm"`
	} `json:"drm"`
	Renderers    []domain.Renderer            `json:"renderers,omitempty"`
	Dependencies diagnostics.DependencyReport `json:"dependencies"`
}

func newSelfTestCmd(opts *rootOptions) *cobra.Command {
	var discover bool
	cmd := &cobra.Command{
		Use:   "self-test",
		Short: "Report wiring, configuration and platform tool diagnostics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var out selfTestOutput
			out.Server.Name = buildinfo.Name
			out.Server.Version = buildinfo.Version

			cfg, err := opts.load()
			out.Config.Valid = err == nil
			if err != nil {
				out.Config.Error = err.Error()
				cfg = config.Defaults()
			}
			out.Config.Renderer = cfg.Renderer.Address

			bundle := go2tvadapters.NewBundle()
			out.Adapters.DiscoveryWired = bundle.Discovery != nil
			out.Adapters.DLNAWired = bundle.DLNAFactory != nil

			screen := desktop.NewScreensaver(log.Base())
			out.Adapters.Screensaver = screen.Supported()
			_ = screen.Close()

			out.DRM.PlayReady = drm.IsSupported(domain.DRMPlayReady)
			out.DRM.Verimatrix = drm.IsSupported(domain.DRMVerimatrix)
			out.DRM.MultiDRM = drm.CanHandleMultiDRM()
			out.Dependencies = diagnostics.DetectDependencies()

			if discover {
				svc := discovery.NewService(bundle.Discovery, log.Base())
				out.Renderers, err = svc.ListRenderers(cmd.Context(), cfg.Renderer.DiscoveryTimeout, true)
				if err != nil {
					return err
				}
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(out)
		},
	}
	cmd.Flags().BoolVar(&discover, "discover", false, "also search the LAN for renderers")
	return cmd
}

func newRenderersCmd(opts *rootOptions) *cobra.Command {
	var (
		timeout            time.Duration
		includeUnreachable bool
	)
	cmd := &cobra.Command{
		Use:   "renderers",
		Short: "List DLNA media renderers on the local network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("timeout") {
				timeout = cfg.Renderer.DiscoveryTimeout
			}

			svc := discovery.NewService(go2tvadapters.NewBundle().Discovery, log.Base())
			renderers, err := svc.ListRenderers(cmd.Context(), timeout, includeUnreachable)
			if err != nil {
				return err
			}
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(renderers)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 3*time.Second, "how long to search")
	cmd.Flags().BoolVar(&includeUnreachable, "include-unreachable", false, "keep renderers that fail a TCP reachability check")
	return cmd
}
