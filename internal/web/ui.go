package web

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/polzovatel/uibdd/internal/browser"
)

// Options configures a UI.
type Options struct {
	// Wait is the budget for every wait, navigation and event race.
	Wait time.Duration
	// DownloadPath is where DownloadFile stores artifacts.
	DownloadPath string
}

// UI is the entry point for one scenario page: navigation plus factories
// for targeted action sets.
type UI struct {
	page         browser.Page
	wait         time.Duration
	downloadPath string
}

// New binds a UI to page.
func New(page browser.Page, opts Options) *UI {
	return &UI{page: page, wait: opts.Wait, downloadPath: opts.DownloadPath}
}

// Page returns the underlying page handle.
func (u *UI) Page() browser.Page { return u.page }

// Wait returns the configured wait budget.
func (u *UI) Wait() time.Duration { return u.wait }

// DownloadPath is where DownloadFile stores artifacts.
func (u *UI) DownloadPath() string { return u.downloadPath }

// WithPage returns a UI bound to another page with the same settings.
func (u *UI) WithPage(page browser.Page) *UI {
	return &UI{page: page, wait: u.wait, downloadPath: u.downloadPath}
}

// ClosePage closes the bound page.
func (u *UI) ClosePage() error {
	return u.page.Close()
}

// Element targets the elements matched by selector.
func (u *UI) Element(selector, description string) Element {
	if description == "" {
		description = selector
	}
	return Element{
		selector:    selector,
		description: description,
		locator:     u.page.Locator(selector),
		page:        u.page,
		wait:        u.wait,
	}
}

// FromLocator wraps an already resolved locator.
func (u *UI) FromLocator(loc browser.Locator, description string) Element {
	return Element{description: description, locator: loc, page: u.page, wait: u.wait}
}

func (u *UI) InputField(selector, description string) InputField {
	return InputField{Element: u.Element(selector, description)}
}

func (u *UI) DropDown(selector, description string) DropDown {
	return DropDown{el: u.Element(selector, description)}
}

func (u *UI) CheckBox(selector, description string) CheckBox {
	return CheckBox{el: u.Element(selector, description)}
}

func (u *UI) Alert() Alert {
	return Alert{page: u.page, wait: u.wait}
}

func (u *UI) navigate(ctx context.Context, action, url string, fn func(time.Duration) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fn(u.wait); err != nil {
		if errors.Is(err, browser.ErrTimeout) {
			return &NavigationTimeoutError{Action: action, URL: url, Timeout: u.wait, Err: err}
		}
		return fmt.Errorf("%s %s: %w", action, url, err)
	}
	return nil
}

// Goto navigates to url and waits for the load event.
func (u *UI) Goto(ctx context.Context, url string) error {
	return u.navigate(ctx, "goto", url, func(d time.Duration) error { return u.page.Goto(url, d) })
}

func (u *UI) GoBack(ctx context.Context) error {
	return u.navigate(ctx, "back", u.page.URL(), u.page.GoBack)
}

func (u *UI) GoForward(ctx context.Context) error {
	return u.navigate(ctx, "forward", u.page.URL(), u.page.GoForward)
}

func (u *UI) PageRefresh(ctx context.Context) error {
	return u.navigate(ctx, "reload", u.page.URL(), u.page.Reload)
}

// KeyPress presses key on whatever has focus.
func (u *UI) KeyPress(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return u.page.KeyPress(key)
}

func (u *UI) WaitForURL(ctx context.Context, url string) error {
	return u.navigate(ctx, "wait for url", url, func(d time.Duration) error { return u.page.WaitForURL(url, d) })
}

func (u *UI) WaitForLoadState(ctx context.Context) error {
	return u.waitForLoadState(ctx, browser.LoadStateLoad)
}

func (u *UI) WaitForDOMContentLoaded(ctx context.Context) error {
	return u.waitForLoadState(ctx, browser.LoadStateDOMContentLoaded)
}

func (u *UI) waitForLoadState(ctx context.Context, state browser.LoadState) error {
	return u.navigate(ctx, "wait for "+string(state), u.page.URL(), func(d time.Duration) error {
		return u.page.WaitForLoadState(state, d)
	})
}

// SwitchToNewWindow clicks the element and returns a UI bound to the page it opens.
func (u *UI) SwitchToNewWindow(ctx context.Context, selector, description string) (*UI, error) {
	el := u.Element(selector, description)
	page, err := u.page.ExpectPage(func() error { return el.Click(ctx) }, u.wait)
	if err != nil {
		if errors.Is(err, browser.ErrTimeout) {
			return nil, &TimeoutError{Description: el.Description(), State: "new window", Timeout: u.wait, Err: err}
		}
		return nil, err
	}
	next := u.WithPage(page)
	if err := next.WaitForDOMContentLoaded(ctx); err != nil {
		return nil, err
	}
	return next, nil
}

// DownloadFile alt-clicks the element, stores the download under the
// download path and returns its suggested file name. The transient
// download is deleted whether or not saving it worked.
func (u *UI) DownloadFile(ctx context.Context, selector string) (name string, err error) {
	el := u.Element(selector, selector)
	dl, err := u.page.ExpectDownload(func() error {
		return el.clickWith(ctx, browser.ClickOptions{Modifiers: []string{"Alt"}})
	}, u.wait)
	if err != nil {
		if errors.Is(err, browser.ErrTimeout) {
			return "", &TimeoutError{Description: selector, State: "downloaded", Timeout: u.wait, Err: err}
		}
		return "", err
	}
	name = dl.SuggestedFilename()
	defer func() {
		if derr := dl.Delete(); derr != nil {
			err = errors.Join(err, fmt.Errorf("delete download %s: %w", name, derr))
		}
		if err != nil {
			name = ""
		}
	}()
	if err := os.MkdirAll(u.downloadPath, 0o755); err != nil {
		return name, fmt.Errorf("create download dir: %w", err)
	}
	if err := dl.SaveAs(filepath.Join(u.downloadPath, name)); err != nil {
		return name, fmt.Errorf("save download %s: %w", name, err)
	}
	return name, nil
}

// AcceptAlertOnElementClick clicks the element, accepts the alert and returns its message.
func (u *UI) AcceptAlertOnElementClick(ctx context.Context, selector, description string) (string, error) {
	return u.Alert().Accept(ctx, u.Element(selector, description).Click)
}

// DismissAlertOnElementClick clicks the element, dismisses the alert and returns its message.
func (u *UI) DismissAlertOnElementClick(ctx context.Context, selector, description string) (string, error) {
	return u.Alert().Dismiss(ctx, u.Element(selector, description).Click)
}

// AcceptPromptOnElementClick clicks the element, answers the prompt with
// promptText and returns the prompt message.
func (u *UI) AcceptPromptOnElementClick(ctx context.Context, selector, description, promptText string) (string, error) {
	return u.Alert().AcceptPrompt(ctx, promptText, u.Element(selector, description).Click)
}

// Pause stops for the playwright inspector.
func (u *UI) Pause() error {
	return u.page.Pause()
}

// PauseFor sleeps for d or until ctx is done.
func (u *UI) PauseFor(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
