package browser

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	errs "catalogscraper/pkg/errors"
	"catalogscraper/pkg/logger"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// ChromeOptions configures the browser process and per-operation timeouts
type ChromeOptions struct {
	Headless          bool
	UserAgent         string
	ExecPath          string
	NavigationTimeout time.Duration
	QueryTimeout      time.Duration
	// IdleWindow is how long the network must stay quiet to count as idle
	IdleWindow time.Duration
	// IdleInflight is the number of open requests still tolerated as idle
	IdleInflight int
	// ClickGrace is how long WaitIdle after a click waits for the first request
	// before it accepts a quiet network as idle
	ClickGrace time.Duration
}

// Chrome is a Page backed by a Chrome tab driven through chromedp
type Chrome struct {
	opts        ChromeOptions
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	tracker     *idleTracker
	logger      logger.Logger
}

// NewChrome launches a browser and opens its first tab
func NewChrome(opts ChromeOptions, log logger.Logger) (*Chrome, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = 60 * time.Second
	}
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = 5 * time.Second
	}
	if opts.IdleWindow <= 0 {
		opts.IdleWindow = 500 * time.Millisecond
	}
	if opts.ClickGrace <= 0 {
		opts.ClickGrace = 2 * time.Second
	}
	if opts.IdleInflight <= 0 {
		opts.IdleInflight = 2
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...interface{}) {
		log.Debug(fmt.Sprintf(format, args...))
	}))

	c := &Chrome{
		opts:        opts,
		allocCancel: allocCancel,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
		tracker:     newIdleTracker(),
		logger:      log,
	}
	chromedp.ListenTarget(tabCtx, c.tracker.handle)

	// The first Run starts the browser
	if err := chromedp.Run(tabCtx, network.Enable()); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	logger.LogComponentStart(log, "browser", map[string]interface{}{
		"headless": opts.Headless,
	})
	return c, nil
}

// scoped derives a context from the tab that also ends when ctx or the timeout does
func (c *Chrome) scoped(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	tctx, cancel := context.WithTimeout(c.tabCtx, timeout)
	stop := context.AfterFunc(ctx, cancel)
	return tctx, func() {
		stop()
		cancel()
	}
}

func (c *Chrome) Navigate(ctx context.Context, url string) error {
	tctx, cancel := c.scoped(ctx, c.opts.NavigationTimeout)
	defer cancel()

	if err := chromedp.Run(tctx, chromedp.Navigate(url)); err != nil {
		return errs.Wrap(errs.ErrorTypeNavigation, err, "navigate to "+url)
	}
	if err := c.tracker.wait(tctx, c.opts.IdleWindow, c.opts.IdleInflight, c.opts.ClickGrace); err != nil {
		return errs.Wrap(errs.ErrorTypeNavigation, err, "wait for network idle on "+url)
	}
	return nil
}

func (c *Chrome) WaitIdle(ctx context.Context) error {
	tctx, cancel := c.scoped(ctx, c.opts.NavigationTimeout)
	defer cancel()

	if err := c.tracker.wait(tctx, c.opts.IdleWindow, c.opts.IdleInflight, c.opts.ClickGrace); err != nil {
		return errs.Wrap(errs.ErrorTypeNavigation, err, "wait for network idle")
	}
	return nil
}

func (c *Chrome) Fill(ctx context.Context, selector, value string) error {
	tctx, cancel := c.scoped(ctx, c.opts.QueryTimeout)
	defer cancel()

	return chromedp.Run(tctx,
		chromedp.SetValue(selector, "", chromedp.BySearch),
		chromedp.SendKeys(selector, value, chromedp.BySearch),
	)
}

func (c *Chrome) Click(ctx context.Context, selector string) error {
	tctx, cancel := c.scoped(ctx, c.opts.QueryTimeout)
	defer cancel()

	c.tracker.arm()
	return chromedp.Run(tctx, chromedp.Click(selector, chromedp.BySearch))
}

// first returns the first node matching selector without waiting for it to appear
func (c *Chrome) first(ctx context.Context, selector string) (*cdp.Node, error) {
	tctx, cancel := c.scoped(ctx, c.opts.QueryTimeout)
	defer cancel()

	var nodes []*cdp.Node
	if err := chromedp.Run(tctx, chromedp.Nodes(selector, &nodes, chromedp.BySearch, chromedp.AtLeast(0))); err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, ErrElementNotFound
	}
	return nodes[0], nil
}

func (c *Chrome) Exists(ctx context.Context, selector string) (bool, error) {
	_, err := c.first(ctx, selector)
	if errors.Is(err, ErrElementNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (c *Chrome) Attribute(ctx context.Context, selector, name string) (string, bool, error) {
	node, err := c.first(ctx, selector)
	if err != nil {
		return "", false, err
	}
	value, ok := node.Attribute(name)
	return value, ok, nil
}

func (c *Chrome) Text(ctx context.Context, selector string) (string, error) {
	node, err := c.first(ctx, selector)
	if err != nil {
		return "", err
	}

	tctx, cancel := c.scoped(ctx, c.opts.QueryTimeout)
	defer cancel()

	var text string
	if err := chromedp.Run(tctx, chromedp.TextContent([]cdp.NodeID{node.NodeID}, &text, chromedp.ByNodeID)); err != nil {
		return "", err
	}
	return text, nil
}

// OpenAux opens a new tab in the same browser, so it shares the login cookies.
// The first Run must use the tab's own context: the tab lives as long as that context.
func (c *Chrome) OpenAux(ctx context.Context) (AuxPage, error) {
	auxCtx, auxCancel := chromedp.NewContext(c.tabCtx)

	timer := time.AfterFunc(c.opts.QueryTimeout, auxCancel)
	stop := context.AfterFunc(ctx, auxCancel)
	err := chromedp.Run(auxCtx)
	timer.Stop()
	stop()

	if err != nil {
		auxCancel()
		return nil, fmt.Errorf("failed to open auxiliary tab: %w", err)
	}
	if err := auxCtx.Err(); err != nil {
		return nil, fmt.Errorf("failed to open auxiliary tab: %w", err)
	}
	return &chromeAux{parent: c, ctx: auxCtx, cancel: auxCancel}, nil
}

func (c *Chrome) Close() error {
	if c.tabCancel != nil {
		c.tabCancel()
	}
	if c.allocCancel != nil {
		c.allocCancel()
	}
	logger.LogComponentStop(c.logger, "browser", "closed")
	return nil
}

// fetchScript reads the current document back through fetch and returns it base64 encoded
const fetchScript = `(async () => {
  const res = await fetch(window.location.href, {credentials: 'include'});
  if (!res.ok) { throw new Error('HTTP ' + res.status); }
  const bytes = new Uint8Array(await res.arrayBuffer());
  let binary = '';
  for (let i = 0; i < bytes.length; i += 0x8000) {
    binary += String.fromCharCode.apply(null, bytes.subarray(i, i + 0x8000));
  }
  return btoa(binary);
})()`

type chromeAux struct {
	parent *Chrome
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

func (a *chromeAux) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	tctx, cancel := context.WithTimeout(a.ctx, a.parent.opts.NavigationTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var encoded string
	err := chromedp.Run(tctx,
		chromedp.Navigate(url),
		chromedp.Evaluate(fetchScript, &encoded, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to decode fetched bytes: %w", err)
	}
	return data, nil
}

func (a *chromeAux) Close() error {
	var err error
	a.once.Do(func() {
		err = chromedp.Cancel(a.ctx)
		a.cancel()
	})
	return err
}

// idleTracker counts in-flight requests of the main tab from network events.
// After arm, the network only counts as idle once activity newer than the mark
// has been seen, or the grace period has passed without any.
type idleTracker struct {
	mu           sync.Mutex
	inflight     map[network.RequestID]struct{}
	lastActivity time.Time
	armedAt      time.Time
}

func newIdleTracker() *idleTracker {
	return &idleTracker{
		inflight:     make(map[network.RequestID]struct{}),
		lastActivity: time.Now(),
	}
}

func (t *idleTracker) handle(ev interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		t.inflight[e.RequestID] = struct{}{}
	case *network.EventLoadingFinished:
		delete(t.inflight, e.RequestID)
	case *network.EventLoadingFailed:
		delete(t.inflight, e.RequestID)
	default:
		return
	}
	t.lastActivity = time.Now()
}

// arm marks the start of an action expected to trigger requests, e.g. a form submit
func (t *idleTracker) arm() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.armedAt = time.Now()
}

// quietLocked reports whether at most maxInflight requests have been open for the whole window
func (t *idleTracker) quietLocked(window time.Duration, maxInflight int) bool {
	return len(t.inflight) <= maxInflight && time.Since(t.lastActivity) >= window
}

// settled reports a quiet network, but holds off while an armed action has not produced activity yet
func (t *idleTracker) settled(window time.Duration, maxInflight int, grace time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.armedAt.IsZero() {
		if !t.lastActivity.After(t.armedAt) && time.Since(t.armedAt) < grace {
			return false
		}
		t.armedAt = time.Time{}
	}
	return t.quietLocked(window, maxInflight)
}

func (t *idleTracker) wait(ctx context.Context, window time.Duration, maxInflight int, grace time.Duration) error {
	ticker := time.NewTicker(window / 5)
	defer ticker.Stop()

	for {
		if t.settled(window, maxInflight, grace) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
