// Package browser drives the WhatsApp Web client through a Chrome session
// owned for the duration of a single dispatch attempt.
package browser

import (
	"context"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Page is the minimal page surface the prober and sender act on. The rod
// implementation is the production one; tests substitute fakes.
type Page interface {
	// Navigate loads the given URL and returns once navigation has started.
	Navigate(ctx context.Context, url string) error
	// WaitVisible blocks until an element matching the selector is visible
	// or the context is done.
	WaitVisible(ctx context.Context, selector string) error
	// Click waits for the element and clicks it.
	Click(ctx context.Context, selector string) error
	// Screenshot captures a full-page PNG.
	Screenshot(ctx context.Context) ([]byte, error)
}

type rodPage struct {
	page *rod.Page
}

func (p *rodPage) Navigate(ctx context.Context, url string) error {
	return p.page.Context(ctx).Navigate(url)
}

func (p *rodPage) WaitVisible(ctx context.Context, selector string) error {
	el, err := p.page.Context(ctx).Element(selector)
	if err != nil {
		return err
	}
	return el.WaitVisible()
}

func (p *rodPage) Click(ctx context.Context, selector string) error {
	el, err := p.page.Context(ctx).Element(selector)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (p *rodPage) Screenshot(ctx context.Context) ([]byte, error) {
	return p.page.Context(ctx).Screenshot(true, nil)
}
