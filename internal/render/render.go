// Package render rasterizes the scorecard table with a headless Chrome
// controlled through the DevTools protocol.
package render

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// tableSelector is the element the screenshot is clipped to. The markup
// builder sets this id on its outermost table.
const tableSelector = "#mainTable"

type Config struct {
	// ControlURL connects to an already running Chrome. When empty a
	// headless instance is launched on demand.
	ControlURL string
}

type Service struct {
	controlURL string

	mu      sync.Mutex
	browser *rod.Browser
}

func NewService(c Config) *Service {
	return &Service{controlURL: c.ControlURL}
}

// Render substitutes {{key}} image placeholders with inline data URIs, loads
// the document and screenshots the table element. Images are embedded rather
// than linked so the page needs no network access.
func (s *Service) Render(ctx context.Context, html string, images map[string][]byte) ([]byte, error) {
	browser, err := s.ensureBrowser()
	if err != nil {
		return nil, fmt.Errorf("render: connect browser: %w", err)
	}

	for key, data := range images {
		uri := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data)
		html = strings.ReplaceAll(html, "{{"+key+"}}", uri)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("render: open page: %w", err)
	}
	defer func() { _ = page.Close() }()

	page = page.Context(ctx)

	if err := page.SetDocumentContent(html); err != nil {
		return nil, fmt.Errorf("render: set content: %w", err)
	}

	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("render: wait load: %w", err)
	}

	el, err := page.Element(tableSelector)
	if err != nil {
		return nil, fmt.Errorf("render: find %s: %w", tableSelector, err)
	}

	img, err := el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	if err != nil {
		return nil, fmt.Errorf("render: screenshot: %w", err)
	}

	return img, nil
}

func (s *Service) ensureBrowser() (*rod.Browser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browser != nil {
		return s.browser, nil
	}

	controlURL := s.controlURL
	if controlURL == "" {
		url, err := launcher.New().Headless(true).Launch()
		if err != nil {
			return nil, fmt.Errorf("launch chrome: %w", err)
		}
		controlURL = url
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, err
	}

	s.browser = browser
	return browser, nil
}

// Close disconnects from the browser. Safe to call without a prior Render.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browser == nil {
		return nil
	}

	err := s.browser.Close()
	s.browser = nil
	return err
}
