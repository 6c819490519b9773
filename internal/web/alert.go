package web

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/polzovatel/uibdd/internal/browser"
)

// Trigger is the action expected to open a native dialog.
type Trigger func(ctx context.Context) error

// Alert answers native dialogs. Every operation registers its one-shot
// handler before running the trigger, so the dialog cannot fire unobserved.
type Alert struct {
	page browser.Page
	wait time.Duration
}

// Accept accepts the dialog opened by trigger and returns its message.
func (a Alert) Accept(ctx context.Context, trigger Trigger) (string, error) {
	return a.handle(ctx, trigger, func(d browser.Dialog) error { return d.Accept("") })
}

// AcceptPrompt types promptText into the prompt opened by trigger and accepts it.
func (a Alert) AcceptPrompt(ctx context.Context, promptText string, trigger Trigger) (string, error) {
	return a.handle(ctx, trigger, func(d browser.Dialog) error { return d.Accept(promptText) })
}

// Dismiss dismisses the dialog opened by trigger and returns its message.
func (a Alert) Dismiss(ctx context.Context, trigger Trigger) (string, error) {
	return a.handle(ctx, trigger, browser.Dialog.Dismiss)
}

type dialogResult struct {
	message string
	err     error
}

func (a Alert) handle(ctx context.Context, trigger Trigger, respond func(browser.Dialog) error) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	results := make(chan dialogResult, 1)
	a.page.OnceDialog(func(d browser.Dialog) {
		results <- dialogResult{message: d.Message(), err: respond(d)}
	})

	var message string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return trigger(gctx)
	})
	g.Go(func() error {
		timer := time.NewTimer(a.wait)
		defer timer.Stop()
		select {
		case r := <-results:
			message = r.message
			return r.err
		case <-timer.C:
			return &TimeoutError{Description: "dialog", State: "opened", Timeout: a.wait, Err: browser.ErrTimeout}
		case <-gctx.Done():
			return gctx.Err()
		}
	})
	if err := g.Wait(); err != nil {
		return "", err
	}
	return message, nil
}
