package web

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polzovatel/uibdd/internal/browser"
	"github.com/polzovatel/uibdd/internal/browser/browsertest"
)

func TestFillThenInputValue(t *testing.T) {
	ui, page := newTestUI(t)
	page.Add(`input[name="q"]`, &browsertest.Element{Value: "stale"})
	ctx := context.Background()

	field := ui.InputField(`input[name="q"]`, "Search box")
	for _, v := range []string{"playwright", "", "  spaced  ", "ünïcödé"} {
		require.NoError(t, field.Fill(ctx, v))
		got, err := field.InputValue(ctx)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestTypeAndTabMovesFocus(t *testing.T) {
	ui, page := newTestUI(t)
	el := &browsertest.Element{}
	page.Add("#email", el)
	ctx := context.Background()

	field := ui.InputField("#email", "Email")
	require.NoError(t, field.TypeAndTab(ctx, "a@b.c"))
	require.NoError(t, field.FillAndTab(ctx, "x@y.z"))

	assert.Equal(t, "x@y.z", el.Value)
	assert.Equal(t, []string{"Tab", "Tab"}, page.Keys())
	assert.Equal(t, 1, page.Calls("type"))
	assert.Equal(t, 1, page.Calls("fill"))
}

func TestFillDisabledFieldIsNotInteractable(t *testing.T) {
	ui, page := newTestUI(t)
	page.Add("#locked", &browsertest.Element{Disabled: true})

	err := ui.InputField("#locked", "Locked field").Fill(context.Background(), "x")
	var notInteractable *ElementNotInteractableError
	require.ErrorAs(t, err, &notInteractable)
	assert.Equal(t, "fill", notInteractable.Action)
}

func TestCheckIsIdempotent(t *testing.T) {
	ui, page := newTestUI(t)
	box := &browsertest.Element{}
	page.Add("#terms", box)
	ctx := context.Background()

	terms := ui.CheckBox("#terms", "Terms")
	require.NoError(t, terms.Check(ctx))
	require.NoError(t, terms.Check(ctx))

	checked, err := terms.IsChecked(ctx)
	require.NoError(t, err)
	assert.True(t, checked)
	assert.Equal(t, 1, page.Calls("check"))

	require.NoError(t, terms.Uncheck(ctx))
	require.NoError(t, terms.Uncheck(ctx))
	checked, err = terms.IsChecked(ctx)
	require.NoError(t, err)
	assert.False(t, checked)
	assert.Equal(t, 1, page.Calls("uncheck"))
}

func TestIsCheckedWaitsForVisibility(t *testing.T) {
	ui, page := newTestUI(t)
	page.Add("#hidden", &browsertest.Element{Hidden: true, Checked: true})

	_, err := ui.CheckBox("#hidden", "Hidden box").IsChecked(context.Background())
	var te *TimeoutError
	assert.ErrorAs(t, err, &te)
}

func cityOptions() []browser.Option {
	return []browser.Option{
		{Index: 0, Value: "ber", Label: "Berlin", Selected: true},
		{Index: 1, Value: "lis", Label: "Lisbon"},
		{Index: 2, Value: "osl", Label: "Oslo"},
	}
}

func TestDropDownSelectorsAgree(t *testing.T) {
	ctx := context.Background()
	selects := map[string]func(DropDown) error{
		"value": func(d DropDown) error { return d.SelectByValue(ctx, "lis") },
		"label": func(d DropDown) error { return d.SelectByVisibleText(ctx, "Lisbon") },
		"index": func(d DropDown) error { return d.SelectByIndex(ctx, 1) },
	}
	for by, sel := range selects {
		t.Run(by, func(t *testing.T) {
			ui, page := newTestUI(t)
			el := &browsertest.Element{Options: cityOptions()}
			page.Add("#city", el)
			city := ui.DropDown("#city", "City")

			require.NoError(t, sel(city))
			selected, err := city.SelectedOptions(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"Lisbon"}, selected)
			assert.Equal(t, "lis", el.Value)
		})
	}
}

func TestDropDownMissingOption(t *testing.T) {
	ui, page := newTestUI(t)
	page.Add("#city", &browsertest.Element{Options: cityOptions()})
	ctx := context.Background()
	city := ui.DropDown("#city", "City")

	var notFound *OptionNotFoundError
	require.ErrorAs(t, city.SelectByValue(ctx, "par"), &notFound)
	assert.Equal(t, "value", notFound.By)
	assert.Equal(t, "par", notFound.Key)

	require.ErrorAs(t, city.SelectByIndex(ctx, 7), &notFound)
	assert.Equal(t, "7", notFound.Key)

	require.ErrorAs(t, city.SelectByVisibleText(ctx, "berlin"), &notFound)
	assert.Zero(t, page.Calls("select"))

	labels, err := city.Options(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Berlin", "Lisbon", "Oslo"}, labels)
}

func TestAlertAcceptReturnsMessage(t *testing.T) {
	ui, page := newTestUI(t)
	dialog := &browsertest.Dialog{Kind: "confirm", Text: "Delete file?"}
	page.Add("#delete", &browsertest.Element{OnClick: func(p *browsertest.Page) { p.FireDialog(dialog) }})

	msg, err := ui.AcceptAlertOnElementClick(context.Background(), "#delete", "Delete")
	require.NoError(t, err)
	assert.Equal(t, "Delete file?", msg)
	accepted, _ := dialog.Accepted()
	assert.True(t, accepted)
	assert.False(t, dialog.Dismissed())
}

func TestAlertDismiss(t *testing.T) {
	ui, page := newTestUI(t)
	dialog := &browsertest.Dialog{Kind: "confirm", Text: "Leave page?"}
	page.Add("#leave", &browsertest.Element{OnClick: func(p *browsertest.Page) { p.FireDialog(dialog) }})

	msg, err := ui.DismissAlertOnElementClick(context.Background(), "#leave", "Leave")
	require.NoError(t, err)
	assert.Equal(t, "Leave page?", msg)
	assert.True(t, dialog.Dismissed())
}

func TestAlertPromptText(t *testing.T) {
	ui, page := newTestUI(t)
	dialog := &browsertest.Dialog{Kind: "prompt", Text: "Your name"}
	page.Add("#ask", &browsertest.Element{OnClick: func(p *browsertest.Page) { p.FireDialog(dialog) }})

	msg, err := ui.AcceptPromptOnElementClick(context.Background(), "#ask", "Ask", "Ada")
	require.NoError(t, err)
	assert.Equal(t, "Your name", msg)
	accepted, text := dialog.Accepted()
	assert.True(t, accepted)
	assert.Equal(t, "Ada", text)
}

func TestAlertFiredLaterIsStillObserved(t *testing.T) {
	ui, page := newTestUI(t)
	dialog := &browsertest.Dialog{Kind: "alert", Text: "Saved"}
	page.Add("#save", &browsertest.Element{OnClick: func(p *browsertest.Page) {
		go func() {
			time.Sleep(10 * time.Millisecond)
			p.FireDialog(dialog)
		}()
	}})

	msg, err := ui.AcceptAlertOnElementClick(context.Background(), "#save", "Save")
	require.NoError(t, err)
	assert.Equal(t, "Saved", msg)
}

func TestAlertThatNeverOpensTimesOut(t *testing.T) {
	ui, page := newTestUI(t)
	page.Add("#noop", &browsertest.Element{})

	_, err := ui.AcceptAlertOnElementClick(context.Background(), "#noop", "No-op")
	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "dialog", te.Description)
	assert.ErrorIs(t, err, browser.ErrTimeout)
}

func TestAlertTriggerFailure(t *testing.T) {
	ui, _ := newTestUI(t)

	_, err := ui.DismissAlertOnElementClick(context.Background(), "#absent", "Absent")
	var notInteractable *ElementNotInteractableError
	assert.ErrorAs(t, err, &notInteractable)
}
