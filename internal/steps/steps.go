// Package steps binds gherkin step text to page object operations.
package steps

import (
	"context"
	"fmt"

	"github.com/polzovatel/uibdd/internal/lifecycle"
	"github.com/polzovatel/uibdd/internal/pages"
)

// StepRegistry is the part of *godog.ScenarioContext steps are bound through.
type StepRegistry interface {
	Step(expr, stepFunc interface{})
}

// Options points the page objects at their sites.
type Options struct {
	BaseURL     string
	DownloadURL string
}

const downloadedKey = "downloaded"

type steps struct {
	opts Options
}

// Register binds every step definition to r.
func Register(r StepRegistry, opts Options) {
	s := steps{opts: opts}
	r.Step(`^the user is on the Google search page$`, s.onSearchPage)
	r.Step(`^the user types "([^"]*)" in the search box$`, s.typeQuery)
	r.Step(`^the user clicks on the search button$`, s.clickSearch)
	r.Step(`^the search result - "([^"]*)" will be displayed on the screen$`, s.resultDisplayed)

	r.Step(`^the user is on the download page$`, s.onDownloadPage)
	r.Step(`^the user downloads the file "([^"]*)"$`, s.download)
	r.Step(`^the file "([^"]*)" is saved in the download folder$`, s.saved)
}

func (s steps) search(ctx context.Context) (pages.SearchHomePage, error) {
	sc, err := lifecycle.FromContext(ctx)
	if err != nil {
		return pages.SearchHomePage{}, err
	}
	return pages.NewSearchHomePage(sc.UI(), sc.Assert, s.opts.BaseURL), nil
}

func (s steps) downloads(ctx context.Context) (pages.DownloadPage, *lifecycle.Scenario, error) {
	sc, err := lifecycle.FromContext(ctx)
	if err != nil {
		return pages.DownloadPage{}, nil, err
	}
	return pages.NewDownloadPage(sc.UI(), sc.Assert, s.opts.DownloadURL), sc, nil
}

func (s steps) onSearchPage(ctx context.Context) error {
	p, err := s.search(ctx)
	if err != nil {
		return err
	}
	if err := p.Navigate(ctx); err != nil {
		return err
	}
	return p.AllowCookies(ctx)
}

func (s steps) typeQuery(ctx context.Context, query string) error {
	p, err := s.search(ctx)
	if err != nil {
		return err
	}
	return p.TypeQuery(ctx, query)
}

func (s steps) clickSearch(ctx context.Context) error {
	p, err := s.search(ctx)
	if err != nil {
		return err
	}
	return p.Search(ctx)
}

func (s steps) resultDisplayed(ctx context.Context, title string) error {
	p, err := s.search(ctx)
	if err != nil {
		return err
	}
	return p.ResultContains(ctx, title)
}

func (s steps) onDownloadPage(ctx context.Context) error {
	p, _, err := s.downloads(ctx)
	if err != nil {
		return err
	}
	return p.Navigate(ctx)
}

func (s steps) download(ctx context.Context, name string) error {
	p, sc, err := s.downloads(ctx)
	if err != nil {
		return err
	}
	saved, err := p.Download(ctx, name)
	if err != nil {
		return err
	}
	sc.Set(downloadedKey, saved)
	return nil
}

func (s steps) saved(ctx context.Context, name string) error {
	p, sc, err := s.downloads(ctx)
	if err != nil {
		return err
	}
	if got, ok := sc.Get(downloadedKey); !ok || got != name {
		return fmt.Errorf("no download of %s in this scenario", name)
	}
	return p.Saved(name)
}
