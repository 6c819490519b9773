// Package lifecycle owns the browser of a test run and the isolated world
// of each scenario.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/polzovatel/uibdd/internal/assert"
	"github.com/polzovatel/uibdd/internal/browser"
	"github.com/polzovatel/uibdd/internal/config"
	"github.com/polzovatel/uibdd/internal/logger"
	"github.com/polzovatel/uibdd/internal/snapshot"
	"github.com/polzovatel/uibdd/internal/web"
)

// LaunchFunc starts the browser driver.
type LaunchFunc func(ctx context.Context, opts browser.LaunchOptions) (browser.Driver, error)

// Launch starts a real playwright browser.
func Launch(ctx context.Context, opts browser.LaunchOptions) (browser.Driver, error) {
	l, err := browser.NewLauncher(ctx, opts)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// Coordinator launches one driver per run and opens one context and page
// per scenario.
type Coordinator struct {
	cfg    config.Config
	log    zerolog.Logger
	launch LaunchFunc

	mu       sync.Mutex
	driver   browser.Driver
	stopOnce sync.Once
	stopErr  error
}

func New(cfg config.Config, log zerolog.Logger, launch LaunchFunc) *Coordinator {
	if launch == nil {
		launch = Launch
	}
	return &Coordinator{cfg: cfg, log: log, launch: launch}
}

// Start launches the driver. Calling it again is a no-op.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.driver != nil {
		return nil
	}
	logger.Banner(c.log, fmt.Sprintf("[%s] Launching web browser - %s", time.Now().Format(logger.TimeFormat), c.cfg.Browser))
	d, err := c.launch(ctx, c.cfg.LaunchOptions())
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}
	c.driver = d
	return nil
}

// Stop closes the driver exactly once.
func (c *Coordinator) Stop() error {
	c.stopOnce.Do(func() {
		c.mu.Lock()
		d := c.driver
		c.mu.Unlock()
		if d == nil {
			return
		}
		logger.Banner(c.log, fmt.Sprintf("[%s] Closing web browser", time.Now().Format(logger.TimeFormat)))
		c.stopErr = d.Close()
	})
	return c.stopErr
}

// Open creates the isolated world of a scenario. A context opened before a
// failure is closed again.
func (c *Coordinator) Open(ctx context.Context, name string) (*Scenario, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	d := c.driver
	c.mu.Unlock()
	if d == nil {
		return nil, errors.New("lifecycle: browser not started")
	}

	id := uuid.NewString()
	s := &Scenario{
		ID:   id,
		Name: name,
		Log:  c.log.With().Str("scenario", name).Str("scenario_id", id).Logger(),
	}
	s.Assert = assert.New(s.Log)

	bctx, err := d.NewContext(c.cfg.ContextOptions(id))
	if err != nil {
		return nil, fmt.Errorf("open browser context: %w", err)
	}
	s.bctx = bctx
	s.setState(ContextOpen)

	page, err := bctx.NewPage()
	if err != nil {
		_ = s.close()
		return nil, fmt.Errorf("open page: %w", err)
	}
	s.page = page
	s.ui = web.New(page, web.Options{Wait: c.cfg.Wait, DownloadPath: c.cfg.DownloadPath})
	s.setState(PageOpen)

	logger.TestBegin(s.Log, name)
	return s, nil
}

// Close ends a scenario: page then context, exactly once. Soft assertion
// failures recorded during the scenario are returned so it still fails.
func (c *Coordinator) Close(s *Scenario, scenarioErr error) error {
	closeErr := s.close()
	softErr := s.Assert.Err()

	status := "passed"
	if scenarioErr != nil || softErr != nil {
		status = "failed"
	}
	if closeErr != nil {
		s.Log.Error().Err(closeErr).Msg("close page and context")
	}
	logger.Banner(s.Log, fmt.Sprintf("[%s] Closing page & context instances of web", time.Now().Format(logger.TimeFormat)))
	logger.TestEnd(s.Log, s.Name, status)

	if softErr != nil {
		softErr = fmt.Errorf("soft assertions failed: %w", softErr)
	}
	return errors.Join(softErr, closeErr)
}

// StepStarted logs the step text upper-cased.
func (c *Coordinator) StepStarted(s *Scenario, text string) {
	s.setState(StepRunning)
	s.Log.Info().Msg("- " + strings.ToUpper(text))
}

// StepFinished logs the step status. A skipped step is a warning; any other
// status but passed is an error, and a failed step also logs a snapshot of
// the page it left behind.
func (c *Coordinator) StepFinished(ctx context.Context, s *Scenario, status string, err error) {
	s.setState(PageOpen)
	switch status {
	case "passed":
		s.Log.Info().Msg("> PASSED ✅")
		return
	case "skipped":
		s.Log.Warn().Msg("> SKIPPED")
		return
	}
	s.Log.Error().Err(err).Msg(fmt.Sprintf("> %s ❌", strings.ToUpper(status)))
	if status != "failed" {
		return
	}
	snap, serr := snapshot.Collect(ctx, s.UI().Page())
	if serr != nil {
		s.Log.Warn().Err(serr).Str("url", snap.URL).Msg("page snapshot incomplete")
		return
	}
	s.Log.Error().Str("url", snap.URL).Str("title", snap.Title).Msg("page at failure:\n" + snap.String())
}
