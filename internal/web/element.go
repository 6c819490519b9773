package web

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/polzovatel/uibdd/internal/browser"
)

// Target is the capability every action set shares: it names an element
// and can wait for it to show up.
type Target interface {
	Description() string
	WaitTillVisible(ctx context.Context) error
}

var (
	_ Target = Element{}
	_ Target = CheckBox{}
	_ Target = DropDown{}
)

// Element is an immutable handle on the elements matched by a selector.
// Single-element actions use the first match; AllTextContent and Count
// look at every match. The zero Element has no target and every action on
// it fails with ErrTargetNotSet.
type Element struct {
	selector    string
	description string
	locator     browser.Locator
	page        browser.Page
	wait        time.Duration
}

func (e Element) Selector() string    { return e.selector }
func (e Element) Description() string { return e.description }

// Locator returns the driver handle on every match.
func (e Element) Locator() browser.Locator { return e.locator }

func (e Element) first() (browser.Locator, error) {
	if e.locator == nil {
		return nil, ErrTargetNotSet
	}
	return e.locator.First(), nil
}

func (e Element) notInteractable(action string, err error) error {
	if err != nil && errors.Is(err, browser.ErrTimeout) {
		return &ElementNotInteractableError{Description: e.description, Action: action, Err: err}
	}
	return err
}

// act resolves the first match and runs fn unless ctx is already done.
func (e Element) act(ctx context.Context, action string, fn func(browser.Locator) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	loc, err := e.first()
	if err != nil {
		return err
	}
	return e.notInteractable(action, fn(loc))
}

func (e Element) Click(ctx context.Context) error {
	return e.act(ctx, "click", func(l browser.Locator) error { return l.Click(browser.ClickOptions{}) })
}

func (e Element) clickWith(ctx context.Context, opts browser.ClickOptions) error {
	return e.act(ctx, "click", func(l browser.Locator) error { return l.Click(opts) })
}

func (e Element) DoubleClick(ctx context.Context) error {
	return e.act(ctx, "double click", browser.Locator.DoubleClick)
}

func (e Element) Hover(ctx context.Context) error {
	return e.act(ctx, "hover", browser.Locator.Hover)
}

// ScrollIntoView scrolls the element into view unless it is already fully visible.
func (e Element) ScrollIntoView(ctx context.Context) error {
	return e.act(ctx, "scroll", browser.Locator.ScrollIntoView)
}

func (e Element) waitFor(ctx context.Context, state browser.WaitState, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	loc, err := e.first()
	if err != nil {
		return err
	}
	if err := loc.WaitFor(state, timeout); err != nil {
		if errors.Is(err, browser.ErrTimeout) {
			return &TimeoutError{Description: e.description, State: string(state), Timeout: timeout, Err: err}
		}
		return err
	}
	return nil
}

func (e Element) WaitTillVisible(ctx context.Context) error {
	return e.waitFor(ctx, browser.StateVisible, e.wait)
}

func (e Element) WaitTillInvisible(ctx context.Context) error {
	return e.waitFor(ctx, browser.StateHidden, e.wait)
}

// WaitForPresent waits for the element to be attached to the DOM.
func (e Element) WaitForPresent(ctx context.Context) error {
	return e.waitFor(ctx, browser.StateAttached, e.wait)
}

// WaitTillDetached waits for the element to leave the DOM.
func (e Element) WaitTillDetached(ctx context.Context) error {
	return e.waitFor(ctx, browser.StateDetached, e.wait)
}

func (e Element) readVisible(ctx context.Context, read func(browser.Locator) (string, error)) (string, error) {
	if err := e.WaitTillVisible(ctx); err != nil {
		return "", err
	}
	loc, err := e.first()
	if err != nil {
		return "", err
	}
	s, err := read(loc)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

func (e Element) TextContent(ctx context.Context) (string, error) {
	return e.readVisible(ctx, browser.Locator.TextContent)
}

func (e Element) InnerText(ctx context.Context) (string, error) {
	return e.readVisible(ctx, browser.Locator.InnerText)
}

func (e Element) InnerHTML(ctx context.Context) (string, error) {
	return e.readVisible(ctx, browser.Locator.InnerHTML)
}

// Attribute returns the trimmed attribute value. A missing attribute is an
// AttributeNotFoundError, never an empty string.
func (e Element) Attribute(ctx context.Context, name string) (string, error) {
	return e.readVisible(ctx, func(l browser.Locator) (string, error) {
		v, ok, err := l.Attribute(name)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", &AttributeNotFoundError{Description: e.description, Name: name}
		}
		return v, nil
	})
}

// InputValue returns the value of an input, textarea or select, untrimmed.
func (e Element) InputValue(ctx context.Context) (string, error) {
	if err := e.WaitTillVisible(ctx); err != nil {
		return "", err
	}
	loc, err := e.first()
	if err != nil {
		return "", err
	}
	return loc.InputValue()
}

func (e Element) query(ctx context.Context, fn func(browser.Locator) (bool, error)) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	loc, err := e.first()
	if err != nil {
		return false, err
	}
	ok, err := fn(loc)
	if errors.Is(err, browser.ErrTimeout) {
		return false, nil
	}
	return ok, err
}

// IsEditable polls up to d. Running out of time is a false, not an error.
func (e Element) IsEditable(ctx context.Context, d time.Duration) (bool, error) {
	return e.query(ctx, func(l browser.Locator) (bool, error) { return l.IsEditable(d) })
}

// IsEnabled polls up to d. Running out of time is a false, not an error.
func (e Element) IsEnabled(ctx context.Context, d time.Duration) (bool, error) {
	return e.query(ctx, func(l browser.Locator) (bool, error) { return l.IsEnabled(d) })
}

// IsVisible polls up to d for the element to be visible. It is a query,
// not an assertion: every failure, an unset target included, reads as false.
func (e Element) IsVisible(ctx context.Context, d time.Duration) bool {
	return e.waitFor(ctx, browser.StateVisible, d) == nil
}

func (e Element) KeyPress(ctx context.Context, key string) error {
	return e.act(ctx, "key press", func(l browser.Locator) error { return l.Press(key) })
}

// TypeText sends one key event per character, pausing delay between them.
func (e Element) TypeText(ctx context.Context, text string, delay time.Duration) error {
	return e.act(ctx, "type", func(l browser.Locator) error { return l.PressSequentially(text, delay) })
}

func (e Element) AllTextContent(ctx context.Context) ([]string, error) {
	if err := e.WaitTillVisible(ctx); err != nil {
		return nil, err
	}
	return e.locator.AllTextContents()
}

// Count returns the number of matches, 0 when there are none.
func (e Element) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if e.locator == nil {
		return 0, ErrTargetNotSet
	}
	return e.locator.Count()
}

// MouseClick dispatches a raw click at the center of the element's box.
// It gets through overlays that intercept a regular click.
func (e Element) MouseClick(ctx context.Context) error {
	return e.act(ctx, "mouse click", func(l browser.Locator) error {
		if err := l.ScrollIntoView(); err != nil {
			return err
		}
		box, err := l.BoundingBox()
		if err != nil {
			return err
		}
		if box == nil {
			return &ElementNotInteractableError{Description: e.description, Action: "mouse click", Err: errNoBox}
		}
		x, y := box.Center()
		return e.page.MouseClick(x, y)
	})
}

var errNoBox = errors.New("element has no bounding box")

// JSClick clicks through the DOM, for elements outside the viewport or
// covered by other elements.
func (e Element) JSClick(ctx context.Context) error {
	if err := e.WaitTillVisible(ctx); err != nil {
		return err
	}
	return e.act(ctx, "js click", func(l browser.Locator) error {
		_, err := l.Evaluate("(node) => { node.click(); }", nil)
		return err
	})
}
