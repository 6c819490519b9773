// Package browsertest provides an in-memory browser driver for tests.
//
// Pages hold a flat selector -> elements table instead of a DOM. Elements
// react to clicks through OnClick, which is where tests open dialogs,
// popups and downloads.
package browsertest

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/polzovatel/uibdd/internal/browser"
)

const pollInterval = 5 * time.Millisecond

// Element is a fake DOM node.
type Element struct {
	Text     string
	HTML     string
	Attrs    map[string]string
	Value    string
	Hidden   bool
	Disabled bool
	ReadOnly bool
	Checked  bool
	Options  []browser.Option
	Box      *browser.Box
	OnClick  func(p *Page)
}

// Driver is a fake browser.Driver.
type Driver struct {
	mu       sync.Mutex
	contexts []*Context
	closed   int

	// Setup runs on every page the driver opens.
	Setup func(p *Page)
	// NewContextErr is returned by NewContext when set.
	NewContextErr error
}

var _ browser.Driver = (*Driver)(nil)

func NewDriver() *Driver { return &Driver{} }

func (d *Driver) NewContext(opts browser.ContextOptions) (browser.Context, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.NewContextErr != nil {
		return nil, d.NewContextErr
	}
	c := &Context{driver: d, Options: opts}
	d.contexts = append(d.contexts, c)
	return c, nil
}

func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed++
	return nil
}

// Closed reports how many times Close was called.
func (d *Driver) Closed() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// Contexts returns every context opened so far.
func (d *Driver) Contexts() []*Context {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Context(nil), d.contexts...)
}

// Context is a fake browser.Context.
type Context struct {
	mu     sync.Mutex
	driver *Driver
	pages  []*Page
	closed int

	Options    browser.ContextOptions
	NewPageErr error
}

func (c *Context) NewPage() (browser.Page, error) {
	if c.NewPageErr != nil {
		return nil, c.NewPageErr
	}
	return c.newPage(), nil
}

func (c *Context) newPage() *Page {
	p := NewPage()
	p.context = c
	c.mu.Lock()
	c.pages = append(c.pages, p)
	c.mu.Unlock()
	if c.driver != nil && c.driver.Setup != nil {
		c.driver.Setup(p)
	}
	return p
}

func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
	return nil
}

// Closed reports how many times Close was called.
func (c *Context) Closed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Pages returns every page opened in the context.
func (c *Context) Pages() []*Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Page(nil), c.pages...)
}

// Page is a fake browser.Page.
type Page struct {
	mu       sync.Mutex
	context  *Context
	elements map[string][]*Element
	routes   map[string]func(*Page)
	history  []string
	pos      int
	calls    map[string]int
	keys     []string
	clicks   [][2]float64
	dialog   func(browser.Dialog)
	popup    *Page
	download *Download
	closed   int

	// StallNavigation makes every navigation run out of time.
	StallNavigation bool
	// PageTitle is what Title reports.
	PageTitle string
	// EvalResult is what Evaluate returns; EvalErr fails it instead.
	EvalResult any
	EvalErr    error
}

var _ browser.Page = (*Page)(nil)

func NewPage() *Page {
	return &Page{
		elements: make(map[string][]*Element),
		routes:   make(map[string]func(*Page)),
		calls:    make(map[string]int),
		history:  []string{"about:blank"},
	}
}

// Add appends elements matched by selector.
func (p *Page) Add(selector string, els ...*Element) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.elements[selector] = append(p.elements[selector], els...)
}

// Remove detaches every element matched by selector.
func (p *Page) Remove(selector string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.elements, selector)
}

// Update runs fn under the page lock so a test can mutate elements while
// another goroutine waits on them.
func (p *Page) Update(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn()
}

// Route registers the elements a navigation to url produces.
func (p *Page) Route(url string, fn func(*Page)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.routes[url] = fn
}

// Calls reports how often the named driver action ran.
func (p *Page) Calls(action string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[action]
}

// Keys returns keys pressed on the page or its elements.
func (p *Page) Keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.keys...)
}

// MouseClicks returns the raw coordinate clicks.
func (p *Page) MouseClicks() [][2]float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][2]float64(nil), p.clicks...)
}

// Closed reports how many times Close was called.
func (p *Page) Closed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// OpenPopup opens a page in the same context, as a target=_blank link would.
func (p *Page) OpenPopup() *Page {
	var np *Page
	if p.context != nil {
		np = p.context.newPage()
	} else {
		np = NewPage()
	}
	p.mu.Lock()
	p.popup = np
	p.mu.Unlock()
	return np
}

// StartDownload emits a download event with the given content.
func (p *Page) StartDownload(name string, content []byte) *Download {
	d := &Download{Name: name, Content: content}
	p.mu.Lock()
	p.download = d
	p.mu.Unlock()
	return d
}

// FireDialog hands d to the registered dialog handler. Without a handler
// the dialog is dismissed, as browsers do for unhandled dialogs.
func (p *Page) FireDialog(d *Dialog) {
	p.mu.Lock()
	h := p.dialog
	p.dialog = nil
	p.mu.Unlock()
	if h == nil {
		_ = d.Dismiss()
		return
	}
	h(d)
}

func (p *Page) record(action string) {
	p.calls[action]++
}

func (p *Page) Locator(selector string) browser.Locator {
	return &Locator{page: p, selector: selector}
}

func (p *Page) Goto(url string, timeout time.Duration) error {
	p.mu.Lock()
	if p.StallNavigation {
		p.mu.Unlock()
		return timeoutErr("goto "+url, timeout)
	}
	p.record("goto")
	p.history = append(p.history[:p.pos+1], url)
	p.pos = len(p.history) - 1
	route := p.routes[url]
	if route != nil {
		p.elements = make(map[string][]*Element)
	}
	p.mu.Unlock()
	if route != nil {
		route(p)
	}
	return nil
}

func (p *Page) GoBack(timeout time.Duration) error {
	return p.step(-1, "back", timeout)
}

func (p *Page) GoForward(timeout time.Duration) error {
	return p.step(1, "forward", timeout)
}

func (p *Page) step(delta int, action string, timeout time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.StallNavigation {
		return timeoutErr(action, timeout)
	}
	p.record(action)
	next := p.pos + delta
	if next < 0 || next >= len(p.history) {
		return nil
	}
	p.pos = next
	return nil
}

func (p *Page) Reload(timeout time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.StallNavigation {
		return timeoutErr("reload", timeout)
	}
	p.record("reload")
	return nil
}

func (p *Page) WaitForURL(url string, timeout time.Duration) error {
	return poll(timeout, "url "+url, func() bool {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.history[p.pos] == url
	})
}

func (p *Page) WaitForLoadState(state browser.LoadState, timeout time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("load:" + string(state))
	return nil
}

func (p *Page) SetContent(html string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("content")
	return nil
}

func (p *Page) KeyPress(key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	return nil
}

func (p *Page) MouseClick(x, y float64) error {
	p.mu.Lock()
	p.clicks = append(p.clicks, [2]float64{x, y})
	var hit *Element
	for _, els := range p.elements {
		for _, el := range els {
			b := el.Box
			if b != nil && x >= b.X && x <= b.X+b.Width && y >= b.Y && y <= b.Y+b.Height {
				hit = el
			}
		}
	}
	p.mu.Unlock()
	if hit != nil && hit.OnClick != nil {
		hit.OnClick(p)
	}
	return nil
}

func (p *Page) ExpectPage(trigger func() error, timeout time.Duration) (browser.Page, error) {
	p.mu.Lock()
	p.popup = nil
	p.mu.Unlock()
	if err := trigger(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.popup == nil {
		return nil, timeoutErr("page event", timeout)
	}
	np := p.popup
	p.popup = nil
	return np, nil
}

func (p *Page) ExpectDownload(trigger func() error, timeout time.Duration) (browser.Download, error) {
	p.mu.Lock()
	p.download = nil
	p.mu.Unlock()
	if err := trigger(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.download == nil {
		return nil, timeoutErr("download event", timeout)
	}
	d := p.download
	p.download = nil
	return d, nil
}

func (p *Page) OnceDialog(handler func(browser.Dialog)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dialog = handler
}

func (p *Page) Pause() error { return nil }

func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.history[p.pos]
}

func (p *Page) Title() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.PageTitle, nil
}

func (p *Page) Evaluate(expression string, arg any) (any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("evaluate")
	return p.EvalResult, p.EvalErr
}

func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed++
	return nil
}

// Locator is a fake browser.Locator.
type Locator struct {
	page     *Page
	selector string
	first    bool
}

func (l *Locator) matches() []*Element {
	els := l.page.elements[l.selector]
	if l.first && len(els) > 1 {
		return els[:1]
	}
	return els
}

// target returns the first match. Callers hold the page lock.
func (l *Locator) target() (*Element, error) {
	els := l.matches()
	if len(els) == 0 {
		return nil, timeoutErr("locator "+l.selector, 0)
	}
	return els[0], nil
}

// actionable returns the first match if it can receive input.
func (l *Locator) actionable() (*Element, error) {
	el, err := l.target()
	if err != nil {
		return nil, err
	}
	if el.Hidden || el.Disabled {
		return nil, timeoutErr("locator "+l.selector+" not actionable", 0)
	}
	return el, nil
}

func (l *Locator) First() browser.Locator {
	return &Locator{page: l.page, selector: l.selector, first: true}
}

func (l *Locator) Count() (int, error) {
	l.page.mu.Lock()
	defer l.page.mu.Unlock()
	return len(l.matches()), nil
}

func (l *Locator) WaitFor(state browser.WaitState, timeout time.Duration) error {
	return poll(timeout, fmt.Sprintf("locator %s to be %s", l.selector, state), func() bool {
		l.page.mu.Lock()
		defer l.page.mu.Unlock()
		els := l.matches()
		switch state {
		case browser.StateVisible:
			return len(els) > 0 && !els[0].Hidden
		case browser.StateHidden:
			return len(els) == 0 || els[0].Hidden
		case browser.StateAttached:
			return len(els) > 0
		case browser.StateDetached:
			return len(els) == 0
		}
		return false
	})
}

func (l *Locator) Click(opts browser.ClickOptions) error {
	l.page.mu.Lock()
	el, err := l.actionable()
	if err != nil {
		l.page.mu.Unlock()
		return err
	}
	l.page.record("click")
	for _, m := range opts.Modifiers {
		l.page.record("click+" + m)
	}
	l.page.mu.Unlock()
	if el.OnClick != nil {
		el.OnClick(l.page)
	}
	return nil
}

func (l *Locator) act(action string) error {
	l.page.mu.Lock()
	defer l.page.mu.Unlock()
	if _, err := l.actionable(); err != nil {
		return err
	}
	l.page.record(action)
	return nil
}

func (l *Locator) DoubleClick() error    { return l.act("dblclick") }
func (l *Locator) Hover() error          { return l.act("hover") }
func (l *Locator) ScrollIntoView() error { return l.act("scroll") }

func (l *Locator) read(fn func(el *Element) string) (string, error) {
	l.page.mu.Lock()
	defer l.page.mu.Unlock()
	el, err := l.target()
	if err != nil {
		return "", err
	}
	return fn(el), nil
}

func (l *Locator) TextContent() (string, error) {
	return l.read(func(el *Element) string { return el.Text })
}

func (l *Locator) InnerText() (string, error) {
	return l.read(func(el *Element) string {
		if el.Hidden {
			return ""
		}
		return el.Text
	})
}

func (l *Locator) InnerHTML() (string, error) {
	return l.read(func(el *Element) string { return el.HTML })
}

func (l *Locator) Attribute(name string) (string, bool, error) {
	l.page.mu.Lock()
	defer l.page.mu.Unlock()
	el, err := l.target()
	if err != nil {
		return "", false, err
	}
	v, ok := el.Attrs[name]
	return v, ok, nil
}

func (l *Locator) InputValue() (string, error) {
	return l.read(func(el *Element) string { return el.Value })
}

func (l *Locator) flag(timeout time.Duration, fn func(el *Element) bool) (bool, error) {
	var out bool
	err := poll(timeout, "locator "+l.selector, func() bool {
		l.page.mu.Lock()
		defer l.page.mu.Unlock()
		el, err := l.target()
		if err != nil {
			return false
		}
		out = fn(el)
		return true
	})
	return out, err
}

func (l *Locator) IsEditable(timeout time.Duration) (bool, error) {
	return l.flag(timeout, func(el *Element) bool { return !el.Disabled && !el.ReadOnly })
}

func (l *Locator) IsEnabled(timeout time.Duration) (bool, error) {
	return l.flag(timeout, func(el *Element) bool { return !el.Disabled })
}

func (l *Locator) IsChecked() (bool, error) {
	l.page.mu.Lock()
	defer l.page.mu.Unlock()
	el, err := l.target()
	if err != nil {
		return false, err
	}
	return el.Checked, nil
}

func (l *Locator) Press(key string) error {
	l.page.mu.Lock()
	defer l.page.mu.Unlock()
	if _, err := l.actionable(); err != nil {
		return err
	}
	l.page.keys = append(l.page.keys, key)
	return nil
}

func (l *Locator) mutate(action string, fn func(el *Element)) error {
	l.page.mu.Lock()
	defer l.page.mu.Unlock()
	el, err := l.actionable()
	if err != nil {
		return err
	}
	l.page.record(action)
	fn(el)
	return nil
}

func (l *Locator) PressSequentially(text string, delay time.Duration) error {
	return l.mutate("type", func(el *Element) { el.Value += text })
}

func (l *Locator) Fill(value string) error {
	return l.mutate("fill", func(el *Element) { el.Value = value })
}

func (l *Locator) Check() error {
	return l.mutate("check", func(el *Element) { el.Checked = true })
}

func (l *Locator) Uncheck() error {
	return l.mutate("uncheck", func(el *Element) { el.Checked = false })
}

func (l *Locator) Options() ([]browser.Option, error) {
	l.page.mu.Lock()
	defer l.page.mu.Unlock()
	el, err := l.target()
	if err != nil {
		return nil, err
	}
	return append([]browser.Option(nil), el.Options...), nil
}

func (l *Locator) Select(opt browser.Option) error {
	return l.mutate("select", func(el *Element) {
		for i := range el.Options {
			el.Options[i].Selected = el.Options[i].Index == opt.Index
		}
		el.Value = opt.Value
	})
}

func (l *Locator) AllTextContents() ([]string, error) {
	l.page.mu.Lock()
	defer l.page.mu.Unlock()
	var out []string
	for _, el := range l.matches() {
		out = append(out, el.Text)
	}
	return out, nil
}

func (l *Locator) BoundingBox() (*browser.Box, error) {
	l.page.mu.Lock()
	defer l.page.mu.Unlock()
	el, err := l.target()
	if err != nil {
		return nil, err
	}
	if el.Box == nil || el.Hidden {
		return nil, nil
	}
	b := *el.Box
	return &b, nil
}

// Evaluate understands the element click script only.
func (l *Locator) Evaluate(expression string, arg any) (any, error) {
	l.page.mu.Lock()
	el, err := l.target()
	if err != nil {
		l.page.mu.Unlock()
		return nil, err
	}
	if !strings.Contains(expression, ".click()") {
		l.page.mu.Unlock()
		return nil, fmt.Errorf("browsertest: unsupported script %q", expression)
	}
	l.page.record("jsclick")
	l.page.mu.Unlock()
	if el.OnClick != nil {
		el.OnClick(l.page)
	}
	return nil, nil
}

// Download is a fake browser.Download.
type Download struct {
	mu      sync.Mutex
	Name    string
	Content []byte
	// SaveErr makes SaveAs fail.
	SaveErr error
	savedTo string
	deleted bool
}

func (d *Download) SuggestedFilename() string { return d.Name }

func (d *Download) SaveAs(path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.SaveErr != nil {
		return d.SaveErr
	}
	if err := os.WriteFile(path, d.Content, 0o644); err != nil {
		return err
	}
	d.savedTo = path
	return nil
}

func (d *Download) Delete() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.deleted = true
	return nil
}

// SavedTo returns the path passed to SaveAs.
func (d *Download) SavedTo() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.savedTo
}

// Deleted reports whether Delete was called.
func (d *Download) Deleted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.deleted
}

// Dialog is a fake browser.Dialog.
type Dialog struct {
	mu         sync.Mutex
	Kind       string
	Text       string
	accepted   bool
	dismissed  bool
	promptText string
}

func (d *Dialog) Type() string    { return d.Kind }
func (d *Dialog) Message() string { return d.Text }

func (d *Dialog) Accept(promptText string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.accepted = true
	d.promptText = promptText
	return nil
}

func (d *Dialog) Dismiss() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dismissed = true
	return nil
}

// Accepted reports whether the dialog was accepted and with which prompt text.
func (d *Dialog) Accepted() (bool, string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.accepted, d.promptText
}

// Dismissed reports whether the dialog was dismissed.
func (d *Dialog) Dismissed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dismissed
}

func poll(timeout time.Duration, what string, cond func() bool) error {
	deadline := time.Now().Add(timeout)
	for {
		if cond() {
			return nil
		}
		if !time.Now().Before(deadline) {
			return timeoutErr(what, timeout)
		}
		time.Sleep(pollInterval)
	}
}

func timeoutErr(what string, timeout time.Duration) error {
	return fmt.Errorf("browsertest: %s exceeded %s: %w", what, timeout, browser.ErrTimeout)
}
