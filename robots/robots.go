package robots

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"

	"github.com/facualex/portalinmobiliario-etl/config"
)

// Checker answers whether a URL may be fetched under the host's robots.txt.
// Rules are fetched once per host and kept for the life of the run.
type Checker struct {
	client    *http.Client
	userAgent string
	respect   bool

	mu    sync.Mutex
	cache map[string]*robotstxt.RobotsData
}

func NewChecker(cfg config.RobotsConfig, client *http.Client) *Checker {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Checker{
		client:    client,
		userAgent: cfg.UserAgent,
		respect:   cfg.Respect,
		cache:     make(map[string]*robotstxt.RobotsData),
	}
}

// Allowed reports whether rawURL is permitted. A disabled checker allows
// everything, and so does a host whose robots.txt cannot be read.
func (c *Checker) Allowed(ctx context.Context, rawURL string) bool {
	if c == nil || !c.respect {
		return true
	}
	target, err := url.Parse(rawURL)
	if err != nil || !target.IsAbs() {
		return false
	}

	rules, err := c.rules(ctx, target)
	if err != nil {
		return true
	}
	path := target.EscapedPath()
	if path == "" {
		path = "/"
	}
	return rules.TestAgent(path, c.userAgent)
}

func (c *Checker) rules(ctx context.Context, target *url.URL) (*robotstxt.RobotsData, error) {
	host := strings.ToLower(target.Host)

	c.mu.Lock()
	cached, ok := c.cache[host]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	robotsURL := target.Scheme + "://" + target.Host + "/robots.txt"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build robots request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}

	c.mu.Lock()
	c.cache[host] = data
	c.mu.Unlock()
	return data, nil
}
