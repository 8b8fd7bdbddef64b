// Package browser owns the shared headless Chromium used for JS-rendered
// page fetches.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"traveld/internal/config"
)

// ErrNotConnected is returned when a render is attempted before the
// browser is started.
var ErrNotConnected = errors.New("browser not connected")

// Manager owns the Chromium instance and bounds concurrent pages.
type Manager struct {
	cfg    config.BrowserConfig
	logger *zap.Logger

	mu         sync.RWMutex
	browser    *rod.Browser
	incognito  *rod.Browser
	controlURL string

	// Counting semaphore for concurrent pages.
	slots chan struct{}
}

// NewManager creates a manager; the browser starts lazily on first use.
func NewManager(cfg config.BrowserConfig, logger *zap.Logger) *Manager {
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = 4
	}
	return &Manager{
		cfg:    cfg,
		logger: logger,
		slots:  make(chan struct{}, maxPages),
	}
}

// Start connects to an existing Chrome or launches a new one.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// If we already have a browser, verify it's still alive.
	if m.browser != nil {
		if _, err := m.browser.Version(); err == nil {
			return nil
		}
		m.logger.Warn("stale browser connection detected, reconnecting")
		_ = m.browser.Close()
		m.browser = nil
		m.incognito = nil
		m.controlURL = ""
	}

	controlURL := m.cfg.DebuggerURL
	if controlURL == "" && len(m.cfg.Launch) > 0 {
		bin := m.cfg.Launch[0]
		launch := launcher.New().Bin(bin).Headless(m.cfg.Headless)
		for _, rawFlag := range m.cfg.Launch[1:] {
			flagStr := strings.TrimLeft(rawFlag, "-")
			name, val, hasVal := strings.Cut(flagStr, "=")
			if hasVal {
				launch = launch.Set(flags.Flag(name), val)
			} else {
				launch = launch.Set(flags.Flag(name))
			}
		}
		url, err := launch.Launch()
		if err != nil {
			// Retry without the extra flags before giving up.
			fallback := launcher.New().Bin(bin).Headless(m.cfg.Headless)
			alt, altErr := fallback.Launch()
			if altErr != nil {
				return fmt.Errorf("launch chrome: %w (fallback: %v)", err, altErr)
			}
			controlURL = alt
		} else {
			controlURL = url
		}
	}

	if controlURL == "" {
		url, err := launcher.New().Headless(m.cfg.Headless).Launch()
		if err != nil {
			return fmt.Errorf("no debugger_url and failed to launch: %w", err)
		}
		controlURL = url
	}

	// Not bound to ctx: the browser outlives the request that first
	// triggered a lazy start. Page contexts handle per-request cancellation.
	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connect to chrome: %w", err)
	}

	// One incognito context shared by every render; a context per render
	// would pile up in the browser until shutdown.
	incognito, err := browser.Incognito()
	if err != nil {
		_ = browser.Close()
		return fmt.Errorf("incognito context: %w", err)
	}

	m.browser = browser
	m.incognito = incognito
	m.controlURL = controlURL
	m.logger.Info("browser connected", zap.Bool("headless", m.cfg.Headless))
	return nil
}

func (m *Manager) ensureStarted(ctx context.Context) error {
	m.mu.RLock()
	if m.browser != nil {
		m.mu.RUnlock()
		return nil
	}
	m.mu.RUnlock()
	return m.Start(ctx)
}

// ControlURL returns the WebSocket debugger URL.
func (m *Manager) ControlURL() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.controlURL
}

// IsConnected reports whether the browser is connected.
func (m *Manager) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.browser != nil
}

// Render navigates an incognito page to the URL, waits for load, and
// returns the rendered HTML. The page is always closed.
func (m *Manager) Render(ctx context.Context, url string) (string, error) {
	if err := m.ensureStarted(ctx); err != nil {
		return "", err
	}

	select {
	case m.slots <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-m.slots }()

	m.mu.RLock()
	incognito := m.incognito
	m.mu.RUnlock()
	if incognito == nil {
		return "", ErrNotConnected
	}

	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", fmt.Errorf("create page: %w", err)
	}
	defer page.Close()

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             m.viewportWidth(),
		Height:            m.viewportHeight(),
		DeviceScaleFactor: 1.0,
		Mobile:            false,
	}).Call(page); err != nil {
		m.logger.Warn("failed to set viewport", zap.Error(err))
	}

	page = page.Context(ctx).Timeout(m.cfg.NavigationTimeoutDuration())
	if err := page.Navigate(url); err != nil {
		return "", fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("wait load %s: %w", url, err)
	}
	// Results render shortly after load on Google Travel pages.
	if err := page.WaitIdle(5 * time.Second); err != nil {
		m.logger.Debug("wait idle", zap.String("url", url), zap.Error(err))
	}

	htmlDoc, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("read html: %w", err)
	}
	return htmlDoc, nil
}

// Shutdown closes the browser.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var err error
	if m.browser != nil {
		err = m.browser.Close()
		m.browser = nil
		m.incognito = nil
	}
	m.controlURL = ""
	return err
}

func (m *Manager) viewportWidth() int {
	if m.cfg.ViewportWidth == 0 {
		return 1920
	}
	return m.cfg.ViewportWidth
}

func (m *Manager) viewportHeight() int {
	if m.cfg.ViewportHeight == 0 {
		return 1080
	}
	return m.cfg.ViewportHeight
}

// Fetcher adapts the manager to the scrape.Fetcher interface.
type Fetcher struct {
	manager *Manager
}

// NewFetcher wraps a manager for use as a page fetcher.
func NewFetcher(m *Manager) *Fetcher {
	return &Fetcher{manager: m}
}

// Fetch renders the URL in the shared browser.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	return f.manager.Render(ctx, url)
}
