package web

import (
	"context"
	"strconv"

	"github.com/polzovatel/uibdd/internal/browser"
)

// DropDown drives a <select> element. Each select call picks exactly one
// option and fails with OptionNotFoundError when no option matches.
type DropDown struct {
	el Element
}

func (d DropDown) Description() string { return d.el.Description() }

func (d DropDown) WaitTillVisible(ctx context.Context) error { return d.el.WaitTillVisible(ctx) }

func (d DropDown) options(ctx context.Context) (browser.Locator, []browser.Option, error) {
	if err := d.el.WaitTillVisible(ctx); err != nil {
		return nil, nil, err
	}
	loc, err := d.el.first()
	if err != nil {
		return nil, nil, err
	}
	opts, err := loc.Options()
	if err != nil {
		return nil, nil, err
	}
	return loc, opts, nil
}

func (d DropDown) selectWhere(ctx context.Context, by, key string, match func(browser.Option) bool) error {
	loc, opts, err := d.options(ctx)
	if err != nil {
		return err
	}
	for _, o := range opts {
		if match(o) {
			return d.el.notInteractable("select", loc.Select(o))
		}
	}
	return &OptionNotFoundError{Description: d.el.Description(), By: by, Key: key}
}

func (d DropDown) SelectByValue(ctx context.Context, value string) error {
	return d.selectWhere(ctx, "value", value, func(o browser.Option) bool { return o.Value == value })
}

// SelectByVisibleText selects the option whose label is text.
func (d DropDown) SelectByVisibleText(ctx context.Context, text string) error {
	return d.selectWhere(ctx, "label", text, func(o browser.Option) bool { return o.Label == text })
}

// SelectByIndex selects the zero-based index-th option.
func (d DropDown) SelectByIndex(ctx context.Context, index int) error {
	return d.selectWhere(ctx, "index", strconv.Itoa(index), func(o browser.Option) bool { return o.Index == index })
}

// Options returns the labels of every option.
func (d DropDown) Options(ctx context.Context) ([]string, error) {
	_, opts, err := d.options(ctx)
	if err != nil {
		return nil, err
	}
	labels := make([]string, 0, len(opts))
	for _, o := range opts {
		labels = append(labels, o.Label)
	}
	return labels, nil
}

// SelectedOptions returns the labels of the selected options.
func (d DropDown) SelectedOptions(ctx context.Context) ([]string, error) {
	_, opts, err := d.options(ctx)
	if err != nil {
		return nil, err
	}
	var labels []string
	for _, o := range opts {
		if o.Selected {
			labels = append(labels, o.Label)
		}
	}
	return labels, nil
}
