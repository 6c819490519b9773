package browser

import (
	"errors"
	"time"
)

//go:generate mockgen -destination=browsermock/browsermock.go -package=browsermock . Driver,Context

// ErrTimeout marks driver failures caused by an exhausted wait budget.
var ErrTimeout = errors.New("timeout")

// WaitState is an element state a locator can wait for.
type WaitState string

const (
	StateVisible  WaitState = "visible"
	StateHidden   WaitState = "hidden"
	StateAttached WaitState = "attached"
	StateDetached WaitState = "detached"
)

// LoadState is a page load milestone.
type LoadState string

const (
	LoadStateLoad             LoadState = "load"
	LoadStateDOMContentLoaded LoadState = "domcontentloaded"
	LoadStateNetworkIdle      LoadState = "networkidle"
)

// Kind selects the browser engine.
type Kind string

const (
	Chromium Kind = "chromium"
	Firefox  Kind = "firefox"
	WebKit   Kind = "webkit"
)

// LaunchOptions configures the one browser process of a test run.
type LaunchOptions struct {
	Kind     Kind
	Headless bool
	SlowMo   time.Duration
	Timeout  time.Duration
	Args     []string
}

// ContextOptions configures an isolated browser context.
type ContextOptions struct {
	NoViewport        bool
	IgnoreHTTPSErrors bool
	AcceptDownloads   bool
	// RecordVideoDir enables session recording when non-empty.
	RecordVideoDir string
	// DefaultTimeout applies to every page opened in the context.
	DefaultTimeout time.Duration
}

// ClickOptions tweaks a single click.
type ClickOptions struct {
	Modifiers []string
	Timeout   time.Duration
}

// Box is an element bounding box in CSS pixels.
type Box struct {
	X, Y, Width, Height float64
}

// Center returns the middle point of the box.
func (b Box) Center() (float64, float64) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// Option is one <option> of a <select> element.
type Option struct {
	Index    int    `json:"index"`
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// Driver is a launched browser.
type Driver interface {
	NewContext(opts ContextOptions) (Context, error)
	Close() error
}

// Context is an isolated browser session (cookies, storage).
type Context interface {
	NewPage() (Page, error)
	Close() error
}

// Page is one tab of a context.
type Page interface {
	Locator(selector string) Locator
	Goto(url string, timeout time.Duration) error
	GoBack(timeout time.Duration) error
	GoForward(timeout time.Duration) error
	Reload(timeout time.Duration) error
	WaitForURL(url string, timeout time.Duration) error
	WaitForLoadState(state LoadState, timeout time.Duration) error
	SetContent(html string) error
	KeyPress(key string) error
	MouseClick(x, y float64) error
	// ExpectPage runs trigger and returns the page it opened in the same context.
	ExpectPage(trigger func() error, timeout time.Duration) (Page, error)
	// ExpectDownload runs trigger and returns the download it started.
	ExpectDownload(trigger func() error, timeout time.Duration) (Download, error)
	// OnceDialog registers a handler for the next native dialog only.
	OnceDialog(handler func(Dialog))
	Pause() error
	URL() string
	Title() (string, error)
	// Evaluate runs expression in the page and returns its JSON-decoded result.
	Evaluate(expression string, arg any) (any, error)
	Close() error
}

// Locator is a lazy handle on the elements matching a selector.
// It is re-resolved on every call.
type Locator interface {
	First() Locator
	Count() (int, error)
	WaitFor(state WaitState, timeout time.Duration) error
	Click(opts ClickOptions) error
	DoubleClick() error
	Hover() error
	ScrollIntoView() error
	TextContent() (string, error)
	InnerText() (string, error)
	InnerHTML() (string, error)
	// Attribute reports whether the attribute exists next to its value.
	Attribute(name string) (string, bool, error)
	InputValue() (string, error)
	IsEditable(timeout time.Duration) (bool, error)
	IsEnabled(timeout time.Duration) (bool, error)
	IsChecked() (bool, error)
	Press(key string) error
	PressSequentially(text string, delay time.Duration) error
	Fill(value string) error
	Check() error
	Uncheck() error
	Options() ([]Option, error)
	Select(opt Option) error
	AllTextContents() ([]string, error)
	BoundingBox() (*Box, error)
	Evaluate(expression string, arg any) (any, error)
}

// Download is a file download started by the page.
type Download interface {
	SuggestedFilename() string
	SaveAs(path string) error
	Delete() error
}

// Dialog is a native alert, confirm or prompt.
type Dialog interface {
	Type() string
	Message() string
	Accept(promptText string) error
	Dismiss() error
}
