package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

var defaultArgs = []string{
	"--start-maximized",
	"--disable-notifications",
	"--disable-extensions",
	"--disable-infobars",
	"--disable-popup-blocking",
	"--disable-translate",
	"--disable-plugins",
	"--disable-dev-shm-usage",
}

// Launcher owns playwright lifecycle and the launched browser.
type Launcher struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	kind    Kind
}

var _ Driver = (*Launcher)(nil)

// NewLauncher starts playwright and launches the requested engine.
func NewLauncher(ctx context.Context, opts LaunchOptions) (*Launcher, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}
	args := opts.Args
	if args == nil {
		args = defaultArgs
	}
	launch := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		SlowMo:   playwright.Float(float64(opts.SlowMo.Milliseconds())),
		Args:     args,
		FirefoxUserPrefs: map[string]interface{}{
			"media.navigator.streams.fake":        true,
			"media.navigator.permission.disabled": true,
		},
	}
	if opts.Timeout > 0 {
		launch.Timeout = playwright.Float(float64(opts.Timeout.Milliseconds()))
	}

	var engine playwright.BrowserType
	switch opts.Kind {
	case Firefox:
		engine = pw.Firefox
	case WebKit:
		engine = pw.WebKit
	default:
		opts.Kind = Chromium
		engine = pw.Chromium
	}
	b, err := engine.Launch(launch)
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch %s: %w", opts.Kind, err)
	}
	return &Launcher{pw: pw, browser: b, kind: opts.Kind}, nil
}

// Kind reports the engine that was launched.
func (l *Launcher) Kind() Kind { return l.kind }

func (l *Launcher) NewContext(opts ContextOptions) (Context, error) {
	po := playwright.BrowserNewContextOptions{
		NoViewport:        playwright.Bool(opts.NoViewport),
		IgnoreHttpsErrors: playwright.Bool(opts.IgnoreHTTPSErrors),
		AcceptDownloads:   playwright.Bool(opts.AcceptDownloads),
	}
	if opts.RecordVideoDir != "" {
		po.RecordVideo = &playwright.RecordVideo{Dir: opts.RecordVideoDir}
	}
	bc, err := l.browser.NewContext(po)
	if err != nil {
		return nil, fmt.Errorf("new context: %w", err)
	}
	if opts.DefaultTimeout > 0 {
		bc.SetDefaultTimeout(ms(opts.DefaultTimeout))
	}
	return &pwContext{context: bc}, nil
}

func (l *Launcher) Close() error {
	if l.browser != nil {
		_ = l.browser.Close()
	}
	if l.pw != nil {
		return l.pw.Stop()
	}
	return nil
}

type pwContext struct {
	context playwright.BrowserContext
}

func (c *pwContext) NewPage() (Page, error) {
	page, err := c.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("new page: %w", err)
	}
	return &pwPage{page: page}, nil
}

func (c *pwContext) Close() error {
	return wrap(c.context.Close())
}

type pwPage struct {
	page playwright.Page
}

var (
	_ Context  = (*pwContext)(nil)
	_ Page     = (*pwPage)(nil)
	_ Locator  = (*pwLocator)(nil)
	_ Download = (*pwDownload)(nil)
	_ Dialog   = (*pwDialog)(nil)
)

func (p *pwPage) Locator(selector string) Locator {
	return &pwLocator{loc: p.page.Locator(selector)}
}

func (p *pwPage) Goto(url string, timeout time.Duration) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   playwright.Float(ms(timeout)),
	})
	return wrap(err)
}

func (p *pwPage) GoBack(timeout time.Duration) error {
	_, err := p.page.GoBack(playwright.PageGoBackOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   playwright.Float(ms(timeout)),
	})
	return wrap(err)
}

func (p *pwPage) GoForward(timeout time.Duration) error {
	_, err := p.page.GoForward(playwright.PageGoForwardOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   playwright.Float(ms(timeout)),
	})
	return wrap(err)
}

func (p *pwPage) Reload(timeout time.Duration) error {
	_, err := p.page.Reload(playwright.PageReloadOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   playwright.Float(ms(timeout)),
	})
	return wrap(err)
}

func (p *pwPage) WaitForURL(url string, timeout time.Duration) error {
	return wrap(p.page.WaitForURL(url, playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(ms(timeout)),
	}))
}

func (p *pwPage) WaitForLoadState(state LoadState, timeout time.Duration) error {
	ls := playwright.LoadState(state)
	return wrap(p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   &ls,
		Timeout: playwright.Float(ms(timeout)),
	}))
}

func (p *pwPage) SetContent(html string) error {
	return wrap(p.page.SetContent(html))
}

func (p *pwPage) KeyPress(key string) error {
	return wrap(p.page.Keyboard().Press(key))
}

func (p *pwPage) MouseClick(x, y float64) error {
	return wrap(p.page.Mouse().Click(x, y))
}

func (p *pwPage) ExpectPage(trigger func() error, timeout time.Duration) (Page, error) {
	page, err := p.page.Context().ExpectPage(trigger, playwright.BrowserContextExpectPageOptions{
		Timeout: playwright.Float(ms(timeout)),
	})
	if err != nil {
		return nil, wrap(err)
	}
	return &pwPage{page: page}, nil
}

func (p *pwPage) ExpectDownload(trigger func() error, timeout time.Duration) (Download, error) {
	dl, err := p.page.ExpectDownload(trigger, playwright.PageExpectDownloadOptions{
		Timeout: playwright.Float(ms(timeout)),
	})
	if err != nil {
		return nil, wrap(err)
	}
	return &pwDownload{download: dl}, nil
}

func (p *pwPage) OnceDialog(handler func(Dialog)) {
	p.page.Once("dialog", func(d playwright.Dialog) {
		handler(&pwDialog{dialog: d})
	})
}

func (p *pwPage) Pause() error {
	return wrap(p.page.Pause())
}

func (p *pwPage) URL() string {
	return p.page.URL()
}

func (p *pwPage) Title() (string, error) {
	t, err := p.page.Title()
	return t, wrap(err)
}

func (p *pwPage) Evaluate(expression string, arg any) (any, error) {
	v, err := p.page.Evaluate(expression, arg)
	return v, wrap(err)
}

func (p *pwPage) Close() error {
	return wrap(p.page.Close())
}

type pwLocator struct {
	loc playwright.Locator
}

func (l *pwLocator) First() Locator {
	return &pwLocator{loc: l.loc.First()}
}

func (l *pwLocator) Count() (int, error) {
	n, err := l.loc.Count()
	return n, wrap(err)
}

func (l *pwLocator) WaitFor(state WaitState, timeout time.Duration) error {
	ws := playwright.WaitForSelectorState(state)
	return wrap(l.loc.WaitFor(playwright.LocatorWaitForOptions{
		State:   &ws,
		Timeout: playwright.Float(ms(timeout)),
	}))
}

func (l *pwLocator) Click(opts ClickOptions) error {
	co := playwright.LocatorClickOptions{}
	for _, m := range opts.Modifiers {
		co.Modifiers = append(co.Modifiers, playwright.KeyboardModifier(m))
	}
	if opts.Timeout > 0 {
		co.Timeout = playwright.Float(ms(opts.Timeout))
	}
	return wrap(l.loc.Click(co))
}

func (l *pwLocator) DoubleClick() error {
	return wrap(l.loc.Dblclick())
}

func (l *pwLocator) Hover() error {
	return wrap(l.loc.Hover())
}

func (l *pwLocator) ScrollIntoView() error {
	return wrap(l.loc.ScrollIntoViewIfNeeded())
}

func (l *pwLocator) TextContent() (string, error) {
	s, err := l.loc.TextContent()
	return s, wrap(err)
}

func (l *pwLocator) InnerText() (string, error) {
	s, err := l.loc.InnerText()
	return s, wrap(err)
}

func (l *pwLocator) InnerHTML() (string, error) {
	s, err := l.loc.InnerHTML()
	return s, wrap(err)
}

// Attribute goes through the page script because GetAttribute folds a
// missing attribute into an empty string.
func (l *pwLocator) Attribute(name string) (string, bool, error) {
	val, err := l.loc.Evaluate(`(el, name) => el.getAttribute(name)`, name)
	if err != nil {
		return "", false, wrap(err)
	}
	s, ok := val.(string)
	return s, ok, nil
}

func (l *pwLocator) InputValue() (string, error) {
	s, err := l.loc.InputValue()
	return s, wrap(err)
}

func (l *pwLocator) IsEditable(timeout time.Duration) (bool, error) {
	ok, err := l.loc.IsEditable(playwright.LocatorIsEditableOptions{
		Timeout: playwright.Float(ms(timeout)),
	})
	return ok, wrap(err)
}

func (l *pwLocator) IsEnabled(timeout time.Duration) (bool, error) {
	ok, err := l.loc.IsEnabled(playwright.LocatorIsEnabledOptions{
		Timeout: playwright.Float(ms(timeout)),
	})
	return ok, wrap(err)
}

func (l *pwLocator) IsChecked() (bool, error) {
	ok, err := l.loc.IsChecked()
	return ok, wrap(err)
}

func (l *pwLocator) Press(key string) error {
	return wrap(l.loc.Press(key))
}

func (l *pwLocator) PressSequentially(text string, delay time.Duration) error {
	opts := playwright.LocatorPressSequentiallyOptions{}
	if delay > 0 {
		opts.Delay = playwright.Float(ms(delay))
	}
	return wrap(l.loc.PressSequentially(text, opts))
}

func (l *pwLocator) Fill(value string) error {
	return wrap(l.loc.Fill(value))
}

func (l *pwLocator) Check() error {
	return wrap(l.loc.Check())
}

func (l *pwLocator) Uncheck() error {
	return wrap(l.loc.Uncheck())
}

const optionsScript = `(el) => Array.from(el.options || []).map((o, i) => ({
	index: i, value: o.value, label: o.label, selected: o.selected
}))`

func (l *pwLocator) Options() ([]Option, error) {
	val, err := l.loc.Evaluate(optionsScript, nil)
	if err != nil {
		return nil, wrap(err)
	}
	raw, err := json.Marshal(val)
	if err != nil {
		return nil, fmt.Errorf("marshal options: %w", err)
	}
	var opts []Option
	if err := json.Unmarshal(raw, &opts); err != nil {
		return nil, fmt.Errorf("decode options: %w", err)
	}
	return opts, nil
}

func (l *pwLocator) Select(opt Option) error {
	_, err := l.loc.SelectOption(playwright.SelectOptionValues{
		Indexes: &[]int{opt.Index},
	})
	return wrap(err)
}

func (l *pwLocator) AllTextContents() ([]string, error) {
	texts, err := l.loc.AllTextContents()
	return texts, wrap(err)
}

func (l *pwLocator) BoundingBox() (*Box, error) {
	rect, err := l.loc.BoundingBox()
	if err != nil {
		return nil, wrap(err)
	}
	if rect == nil {
		return nil, nil
	}
	return &Box{X: rect.X, Y: rect.Y, Width: rect.Width, Height: rect.Height}, nil
}

func (l *pwLocator) Evaluate(expression string, arg any) (any, error) {
	val, err := l.loc.Evaluate(expression, arg)
	return val, wrap(err)
}

type pwDownload struct {
	download playwright.Download
}

func (d *pwDownload) SuggestedFilename() string { return d.download.SuggestedFilename() }

func (d *pwDownload) SaveAs(path string) error { return wrap(d.download.SaveAs(path)) }

func (d *pwDownload) Delete() error { return wrap(d.download.Delete()) }

type pwDialog struct {
	dialog playwright.Dialog
}

func (d *pwDialog) Type() string    { return d.dialog.Type() }
func (d *pwDialog) Message() string { return d.dialog.Message() }

func (d *pwDialog) Accept(promptText string) error {
	if promptText == "" {
		return wrap(d.dialog.Accept())
	}
	return wrap(d.dialog.Accept(promptText))
}

func (d *pwDialog) Dismiss() error { return wrap(d.dialog.Dismiss()) }

// ms converts a per-call budget. Playwright reads 0 as "wait forever", so
// anything under a millisecond becomes 1ms.
func ms(d time.Duration) float64 {
	if n := d.Milliseconds(); n > 0 {
		return float64(n)
	}
	return 1
}

func wrap(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("playwright: %w: %w", ErrTimeout, err)
	}
	return fmt.Errorf("playwright: %w", err)
}
