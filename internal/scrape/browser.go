// Browser session management.
//
// Both scrapers share one Chromium process managed by go-rod. Each rendered
// page holds OS resources, so page acquisition goes through a small
// semaphore instead of spawning sessions unboundedly; MaxSessions in the
// configuration trades latency for resource safety. The browser is launched
// lazily on first use and a launch/connect failure is reported as
// ErrDriverUnavailable.
package scrape

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/dryanez/MrcarCotizacion/internal/config"
)

// Browser owns the shared headless-browser runtime. Safe for concurrent use.
type Browser struct {
	cfg config.BrowserConfig
	sem chan struct{}

	mu      sync.Mutex
	browser *rod.Browser
}

// NewBrowser prepares a Browser with the given configuration. The Chromium
// process is not started until the first Page call.
func NewBrowser(cfg config.BrowserConfig) *Browser {
	n := cfg.MaxSessions
	if n < 1 {
		n = 1
	}
	return &Browser{cfg: cfg, sem: make(chan struct{}, n)}
}

// connect launches Chromium and connects to it, reusing an existing
// connection when present. Any launch or connect failure maps to
// ErrDriverUnavailable.
func (b *Browser) connect() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser != nil {
		return b.browser, nil
	}

	l := launcher.New().
		Headless(b.cfg.Headless).
		NoSandbox(true).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("window-size", "1920,1080").
		Set("disable-blink-features", "AutomationControlled")
	if b.cfg.Bin != "" {
		l = l.Bin(b.cfg.Bin)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDriverUnavailable, err)
	}

	br := rod.New().ControlURL(u)
	if err := br.Connect(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDriverUnavailable, err)
	}
	b.browser = br
	return br, nil
}

// Page acquires a session slot and opens a fresh page bound to ctx with the
// configured user agent applied. The returned release function closes the
// page and frees the slot; callers must invoke it exactly once.
func (b *Browser) Page(ctx context.Context) (*rod.Page, func(), error) {
	select {
	case b.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
	free := func() { <-b.sem }

	br, err := b.connect()
	if err != nil {
		free()
		return nil, nil, err
	}

	page, err := br.Page(proto.TargetCreateTarget{})
	if err != nil {
		free()
		return nil, nil, fmt.Errorf("%w: %v", ErrDriverUnavailable, err)
	}
	page = page.Context(ctx)

	if b.cfg.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: b.cfg.UserAgent}); err != nil {
			_ = page.Close()
			free()
			return nil, nil, transientErr("browser", "set user agent", err)
		}
	}

	release := func() {
		_ = page.Close()
		free()
	}
	return page, release, nil
}

// NavTimeout exposes the per-navigation budget from the configuration.
func (b *Browser) NavTimeout() time.Duration { return b.cfg.NavTimeout }

// Close shuts the Chromium process down. Subsequent Page calls relaunch it.
func (b *Browser) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser != nil {
		_ = b.browser.Close()
		b.browser = nil
	}
}
