// Package pages holds page objects: fixed selectors behind intention
// revealing operations.
package pages

import (
	"context"
	"time"

	"github.com/polzovatel/uibdd/internal/assert"
	"github.com/polzovatel/uibdd/internal/web"
)

const (
	allowCookiesButton = `button[id="L2AGLb"]`
	searchBox          = `input[name="q"]`
	searchButton       = `div[class="FPdoLc lJ9FBc"] > center > input[class="gNO89b"]`
	searchResults      = `h3[class="LC20lb MBeuO DKV0Md"]`
)

// cookieBannerWait bounds the look for the consent banner, which only some
// regions show.
const cookieBannerWait = 5 * time.Second

// SearchHomePage is the search engine start page.
type SearchHomePage struct {
	ui      *web.UI
	check   *assert.Asserter
	baseURL string
}

func NewSearchHomePage(ui *web.UI, check *assert.Asserter, baseURL string) SearchHomePage {
	return SearchHomePage{ui: ui, check: check, baseURL: baseURL}
}

func (p SearchHomePage) Navigate(ctx context.Context) error {
	return p.ui.Goto(ctx, p.baseURL)
}

// AllowCookies accepts the consent banner when it shows up.
func (p SearchHomePage) AllowCookies(ctx context.Context) error {
	wait := cookieBannerWait
	if w := p.ui.Wait(); w > 0 && w < wait {
		wait = w
	}
	button := p.ui.Element(allowCookiesButton, "Allow Cookies Button")
	if !button.IsVisible(ctx, wait) {
		return nil
	}
	return button.Click(ctx)
}

func (p SearchHomePage) TypeQuery(ctx context.Context, text string) error {
	return p.ui.InputField(searchBox, "Search Box").Type(ctx, text)
}

func (p SearchHomePage) Search(ctx context.Context) error {
	return p.ui.Element(searchButton, "Search Button").Click(ctx)
}

// FirstResult returns the heading of the first search result.
func (p SearchHomePage) FirstResult(ctx context.Context) (string, error) {
	return p.ui.Element(searchResults, "Search Results").TextContent(ctx)
}

// ResultContains checks the first result heading contains expected.
func (p SearchHomePage) ResultContains(ctx context.Context, expected string) error {
	actual, err := p.FirstResult(ctx)
	if err != nil {
		return err
	}
	return p.check.Contains(actual, expected, false)
}
