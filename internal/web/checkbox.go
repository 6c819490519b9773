package web

import (
	"context"

	"github.com/polzovatel/uibdd/internal/browser"
)

// CheckBox drives a checkbox or radio button.
type CheckBox struct {
	el Element
}

func (c CheckBox) Description() string { return c.el.Description() }

func (c CheckBox) WaitTillVisible(ctx context.Context) error { return c.el.WaitTillVisible(ctx) }

// Check leaves the box checked. An already checked box is not touched.
func (c CheckBox) Check(ctx context.Context) error {
	return c.set(ctx, true)
}

// Uncheck leaves the box unchecked. An already unchecked box is not touched.
func (c CheckBox) Uncheck(ctx context.Context) error {
	return c.set(ctx, false)
}

func (c CheckBox) set(ctx context.Context, want bool) error {
	action := "uncheck"
	if want {
		action = "check"
	}
	return c.el.act(ctx, action, func(l browser.Locator) error {
		checked, err := l.IsChecked()
		if err != nil {
			return err
		}
		if checked == want {
			return nil
		}
		if want {
			return l.Check()
		}
		return l.Uncheck()
	})
}

// IsChecked waits for the box to be visible and reports its state.
func (c CheckBox) IsChecked(ctx context.Context) (bool, error) {
	if err := c.el.WaitTillVisible(ctx); err != nil {
		return false, err
	}
	loc, err := c.el.first()
	if err != nil {
		return false, err
	}
	return loc.IsChecked()
}
