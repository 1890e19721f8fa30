package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	errs "catalogscraper/pkg/errors"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// Snapshot is an in-memory Page over HTML documents keyed by URL, used to test
// the scraper without a browser. It evaluates XPath selectors with htmlquery, so
// the configured selectors are checked against the same fixture markup Chrome sees.
type Snapshot struct {
	mu         sync.Mutex
	pages      map[string]string
	resources  map[string][]byte
	navigateTo map[string]string
	filled     map[string]string
	current    *html.Node
	currentURL string
	visits     []string
	auxOpen    int
	auxOpened  int
}

// NewSnapshot returns a Snapshot serving pages, keyed by URL
func NewSnapshot(pages map[string]string) *Snapshot {
	s := &Snapshot{
		pages:      make(map[string]string),
		resources:  make(map[string][]byte),
		navigateTo: make(map[string]string),
		filled:     make(map[string]string),
	}
	for url, doc := range pages {
		s.pages[url] = doc
	}
	return s
}

// AddPage registers the HTML served at url
func (s *Snapshot) AddPage(url, doc string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[url] = doc
}

// AddResource registers the bytes an auxiliary page returns for url
func (s *Snapshot) AddResource(url string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources[url] = data
}

// OnClick makes a click on selector navigate to url, as a submit button would
func (s *Snapshot) OnClick(selector, url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.navigateTo[selector] = url
}

// Filled returns the value last filled into selector
func (s *Snapshot) Filled(selector string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.filled[selector]
	return v, ok
}

// Visits returns every URL navigated to, in order
func (s *Snapshot) Visits() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.visits...)
}

// AuxStats returns how many auxiliary pages were opened and how many are still open
func (s *Snapshot) AuxStats() (opened, open int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.auxOpened, s.auxOpen
}

// CurrentURL returns the URL of the loaded document
func (s *Snapshot) CurrentURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentURL
}

func (s *Snapshot) load(url string) error {
	s.visits = append(s.visits, url)
	doc, ok := s.pages[url]
	if !ok {
		return errs.New(errs.ErrorTypeNavigation, "net::ERR_NAME_NOT_RESOLVED at "+url)
	}
	root, err := htmlquery.Parse(strings.NewReader(doc))
	if err != nil {
		return errs.Wrap(errs.ErrorTypeNavigation, err, "parse "+url)
	}
	s.current = root
	s.currentURL = url
	return nil
}

func (s *Snapshot) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(url)
}

func (s *Snapshot) WaitIdle(ctx context.Context) error {
	return ctx.Err()
}

// query returns the first match of selector in the current document
func (s *Snapshot) query(selector string) (*html.Node, error) {
	if s.current == nil {
		return nil, fmt.Errorf("no page loaded")
	}
	node, err := htmlquery.Query(s.current, selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	if node == nil {
		return nil, ErrElementNotFound
	}
	return node, nil
}

func (s *Snapshot) Fill(ctx context.Context, selector, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.query(selector); err != nil {
		return err
	}
	s.filled[selector] = value
	return nil
}

func (s *Snapshot) Click(ctx context.Context, selector string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.query(selector); err != nil {
		return err
	}
	if target, ok := s.navigateTo[selector]; ok {
		return s.load(target)
	}
	return nil
}

func (s *Snapshot) Exists(ctx context.Context, selector string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.query(selector)
	if errors.Is(err, ErrElementNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *Snapshot) Attribute(ctx context.Context, selector, name string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	node, err := s.query(selector)
	if err != nil {
		return "", false, err
	}
	for _, attr := range node.Attr {
		if attr.Key == name {
			return attr.Val, true, nil
		}
	}
	return "", false, nil
}

func (s *Snapshot) Text(ctx context.Context, selector string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	node, err := s.query(selector)
	if err != nil {
		return "", err
	}
	return htmlquery.InnerText(node), nil
}

func (s *Snapshot) OpenAux(ctx context.Context) (AuxPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auxOpened++
	s.auxOpen++
	return &snapshotAux{parent: s}, nil
}

func (s *Snapshot) Close() error {
	return nil
}

type snapshotAux struct {
	parent *Snapshot
	closed bool
}

func (a *snapshotAux) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	a.parent.mu.Lock()
	defer a.parent.mu.Unlock()
	if a.closed {
		return nil, fmt.Errorf("auxiliary page is closed")
	}
	data, ok := a.parent.resources[url]
	if !ok {
		return nil, fmt.Errorf("failed to fetch %s: HTTP 404", url)
	}
	return append([]byte(nil), data...), nil
}

func (a *snapshotAux) Close() error {
	a.parent.mu.Lock()
	defer a.parent.mu.Unlock()
	if !a.closed {
		a.closed = true
		a.parent.auxOpen--
	}
	return nil
}
