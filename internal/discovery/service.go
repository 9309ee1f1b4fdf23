// Package discovery lists the DLNA media renderers reachable on the LAN.
package discovery

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"net"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go2tv.app/go2tv/v2/devices"

	"go2tv.app/tizenbridge/internal/adapters"
	"go2tv.app/tizenbridge/internal/domain"
	"go2tv.app/tizenbridge/internal/log"
)

const (
	defaultTimeout               = 2500 * time.Millisecond
	reachabilityWait             = 400 * time.Millisecond
	defaultDiscoveryDelaySeconds = 1
	maxPerAttemptTimeout         = 3 * time.Second
)

// ErrNoRenderer is returned by First when the search found nothing.
var ErrNoRenderer = errors.New("no dlna renderer found")

var isReachableAddress = defaultReachableAddress

type Service struct {
	adapter adapters.Discovery
	logger  zerolog.Logger
}

func NewService(adapter adapters.Discovery, logger zerolog.Logger) *Service {
	return &Service{
		adapter: adapter,
		logger:  logger.With().Str(log.FieldComponent, "discovery").Logger(),
	}
}

// ListRenderers searches for renderers until timeout. A search that finds
// nothing in time returns an empty list, not an error.
func (s *Service) ListRenderers(ctx context.Context, timeout time.Duration, includeUnreachable bool) ([]domain.Renderer, error) {
	if s.adapter == nil {
		return nil, errors.New("discovery adapter is not configured")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	type result struct {
		devices []devices.Device
		err     error
	}
	resultCh := make(chan result, 1)
	go func() {
		loaded, err := s.loadUntilTimeout(ctx, timeout)
		resultCh <- result{devices: loaded, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		s.logger.Debug().Dur("timeout", timeout).Msg("discovery_timed_out")
		return []domain.Renderer{}, nil
	case r := <-resultCh:
		if r.err != nil {
			if errors.Is(r.err, devices.ErrNoDeviceAvailable) {
				return []domain.Renderer{}, nil
			}
			return nil, r.err
		}

		renderers := normalizeRenderers(r.devices)
		if !includeUnreachable {
			renderers = filterReachable(renderers)
		}
		sortRenderers(renderers)
		s.logger.Debug().Int("count", len(renderers)).Msg("discovery_completed")
		return renderers, nil
	}
}

// First returns the first reachable video renderer in listing order.
func (s *Service) First(ctx context.Context, timeout time.Duration) (domain.Renderer, error) {
	renderers, err := s.ListRenderers(ctx, timeout, false)
	if err != nil {
		return domain.Renderer{}, err
	}
	for _, r := range renderers {
		if r.Capabilities.SupportsVideo {
			return r, nil
		}
	}
	return domain.Renderer{}, ErrNoRenderer
}

func (s *Service) loadUntilTimeout(ctx context.Context, timeout time.Duration) ([]devices.Device, error) {
	deadline := time.Now().Add(timeout)
	var lastErr error

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			if lastErr == nil || errors.Is(lastErr, devices.ErrNoDeviceAvailable) {
				return []devices.Device{}, nil
			}
			return nil, lastErr
		}

		loaded, err := s.adapter.LoadAllDevices(timeoutToDelaySeconds(min(remaining, maxPerAttemptTimeout)))
		if err == nil {
			return loaded, nil
		}
		if !errors.Is(err, devices.ErrNoDeviceAvailable) {
			return nil, err
		}
		lastErr = err
	}
}

func timeoutToDelaySeconds(timeout time.Duration) int {
	seconds := int(math.Ceil(timeout.Seconds()))
	if seconds <= 0 {
		return defaultDiscoveryDelaySeconds
	}
	return seconds
}

// normalizeRenderers keeps the DLNA devices of a mixed discovery result.
func normalizeRenderers(discovered []devices.Device) []domain.Renderer {
	result := make([]domain.Renderer, 0, len(discovered))
	for _, raw := range discovered {
		if !strings.Contains(strings.ToLower(raw.Type), "dlna") {
			continue
		}
		address := strings.TrimSpace(raw.Addr)
		result = append(result, domain.Renderer{
			ID:           stableID(address),
			Name:         strings.TrimSpace(raw.Name),
			Type:         strings.TrimSpace(raw.Type),
			Address:      address,
			IsAudioOnly:  raw.IsAudioOnly,
			Capabilities: capabilitiesFor(raw.IsAudioOnly),
		})
	}
	return result
}

func filterReachable(all []domain.Renderer) []domain.Renderer {
	filtered := make([]domain.Renderer, 0, len(all))
	for _, r := range all {
		if isReachableAddress(r.Address, reachabilityWait) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// sortRenderers puts video renderers first, then orders by name and address.
func sortRenderers(all []domain.Renderer) {
	sort.Slice(all, func(i, j int) bool {
		if all[i].IsAudioOnly != all[j].IsAudioOnly {
			return !all[i].IsAudioOnly
		}
		if a, b := strings.ToLower(all[i].Name), strings.ToLower(all[j].Name); a != b {
			return a < b
		}
		if a, b := strings.ToLower(all[i].Address), strings.ToLower(all[j].Address); a != b {
			return a < b
		}
		return all[i].ID < all[j].ID
	})
}

func stableID(address string) string {
	sum := sha1.Sum([]byte("dlna|" + canonicalAddress(address)))
	return "dmr_" + hex.EncodeToString(sum[:8])
}

func canonicalAddress(address string) string {
	parsed, err := url.Parse(address)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(address))
	}

	host := strings.ToLower(parsed.Hostname())
	port := parsed.Port()
	if port == "" {
		port = defaultPort(parsed.Scheme)
	}

	path := strings.TrimSpace(strings.ToLower(parsed.EscapedPath()))
	if path == "" {
		path = "/"
	}

	return fmt.Sprintf("%s://%s:%s%s", strings.ToLower(parsed.Scheme), host, port, path)
}

func defaultPort(scheme string) string {
	if strings.EqualFold(scheme, "https") {
		return "443"
	}
	return "80"
}

func capabilitiesFor(audioOnly bool) domain.Capabilities {
	return domain.Capabilities{
		SupportsVideo:      !audioOnly,
		SupportsHLSM3U8URL: false,
		Limitations: []domain.Limitation{{
			Code:    "HLS_M3U8_URL_UNSUPPORTED",
			Message: "HLS .m3u8 URLs cannot be played on DLNA renderers.",
		}},
	}
}

func defaultReachableAddress(address string, timeout time.Duration) bool {
	parsed, err := url.Parse(address)
	if err != nil || parsed.Host == "" {
		return false
	}

	hostPort := parsed.Host
	if parsed.Port() == "" {
		hostPort = net.JoinHostPort(parsed.Hostname(), defaultPort(parsed.Scheme))
	}

	conn, err := net.DialTimeout("tcp", hostPort, timeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
