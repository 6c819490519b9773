package lifecycle

import (
	"context"

	"github.com/cucumber/godog"
)

// ScenarioHooks is the part of *godog.ScenarioContext the coordinator binds to.
type ScenarioHooks interface {
	Before(h godog.BeforeScenarioHook)
	After(h godog.AfterScenarioHook)
	StepContext() godog.StepContext
}

var _ ScenarioHooks = (*godog.ScenarioContext)(nil)

// Register binds the coordinator to the scenario and step hooks of a suite.
func (c *Coordinator) Register(sc ScenarioHooks) {
	sc.Before(c.beforeScenario)
	sc.After(c.afterScenario)
	steps := sc.StepContext()
	steps.Before(c.beforeStep)
	steps.After(c.afterStep)
}

func (c *Coordinator) beforeScenario(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
	s, err := c.Open(ctx, sc.Name)
	if err != nil {
		return ctx, err
	}
	return WithScenario(ctx, s), nil
}

func (c *Coordinator) afterScenario(ctx context.Context, _ *godog.Scenario, err error) (context.Context, error) {
	s, serr := FromContext(ctx)
	if serr != nil {
		// Open failed and already released what it had opened.
		return ctx, nil
	}
	return ctx, c.Close(s, err)
}

func (c *Coordinator) beforeStep(ctx context.Context, st *godog.Step) (context.Context, error) {
	if s, err := FromContext(ctx); err == nil {
		c.StepStarted(s, st.Text)
	}
	return ctx, nil
}

func (c *Coordinator) afterStep(ctx context.Context, _ *godog.Step, status godog.StepResultStatus, err error) (context.Context, error) {
	if s, serr := FromContext(ctx); serr == nil {
		c.StepFinished(context.WithoutCancel(ctx), s, status.String(), err)
	}
	return ctx, err
}
