package web

import (
	"context"

	"github.com/polzovatel/uibdd/internal/browser"
)

// InputField adds text entry to the generic element actions.
type InputField struct {
	Element
}

// Fill clears the field and sets value in one step.
func (f InputField) Fill(ctx context.Context, value string) error {
	return f.act(ctx, "fill", func(l browser.Locator) error { return l.Fill(value) })
}

// Type sends value one keystroke at a time, firing key events.
func (f InputField) Type(ctx context.Context, value string) error {
	return f.TypeText(ctx, value, 0)
}

// FillAndTab fills the field then tabs out of it to trigger blur validation.
func (f InputField) FillAndTab(ctx context.Context, value string) error {
	if err := f.Fill(ctx, value); err != nil {
		return err
	}
	return f.KeyPress(ctx, "Tab")
}

// TypeAndTab types into the field then tabs out of it.
func (f InputField) TypeAndTab(ctx context.Context, value string) error {
	if err := f.Type(ctx, value); err != nil {
		return err
	}
	return f.KeyPress(ctx, "Tab")
}
