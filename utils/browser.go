package utils

import (
	"context"
	"strings"

	"github.com/chromedp/chromedp"

	"github.com/facualex/portalinmobiliario-etl/config"
)

// defaultFlags mirror the driver options the scraper has always run with.
var defaultFlags = map[string]interface{}{
	"no-sandbox":                      true,
	"disable-gpu":                     true,
	"disable-dev-shm-usage":           true,
	"ignore-certificate-errors":       true,
	"disable-logging":                 true,
	"start-maximized":                 true,
	"disable-browser-side-navigation": true,
	"disable-blink-features":          "AutomationControlled",
}

// NewAllocator creates a Chrome exec allocator context from the given config.
func NewAllocator(parent context.Context, cfg config.BrowserConfig) (context.Context, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
	)
	for name, value := range AllocatorFlags(cfg.ExtraFlags) {
		opts = append(opts, chromedp.Flag(name, value))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	if cfg.WindowWidth > 0 && cfg.WindowHeight > 0 {
		opts = append(opts, chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight))
	}
	return chromedp.NewExecAllocator(parent, opts...)
}

// AllocatorFlags merges the default Chrome flags with extra ones given as
// "--name", "name" or "name=value". An extra flag overrides a default.
func AllocatorFlags(extra []string) map[string]interface{} {
	flags := make(map[string]interface{}, len(defaultFlags)+len(extra))
	for k, v := range defaultFlags {
		flags[k] = v
	}
	for _, raw := range extra {
		raw = strings.TrimLeft(strings.TrimSpace(raw), "-")
		if raw == "" {
			continue
		}
		if name, value, ok := strings.Cut(raw, "="); ok {
			flags[name] = value
			continue
		}
		flags[raw] = true
	}
	return flags
}
