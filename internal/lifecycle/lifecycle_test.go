package lifecycle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/polzovatel/uibdd/internal/browser"
	"github.com/polzovatel/uibdd/internal/browser/browsermock"
	"github.com/polzovatel/uibdd/internal/browser/browsertest"
	"github.com/polzovatel/uibdd/internal/config"
)

func testConfig(t *testing.T) config.Config {
	return config.Config{
		Browser:      browser.Chromium,
		Wait:         50 * time.Millisecond,
		DownloadPath: t.TempDir(),
		VideoDir:     "videos",
	}
}

func fixedDriver(d browser.Driver) LaunchFunc {
	return func(context.Context, browser.LaunchOptions) (browser.Driver, error) { return d, nil }
}

func TestStartLaunchesOnceAndStopClosesOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	driver := browsermock.NewMockDriver(ctrl)
	driver.EXPECT().Close().Return(nil).Times(1)

	launches := 0
	var got browser.LaunchOptions
	cfg := testConfig(t)
	cfg.Browser = browser.Firefox
	cfg.Headless = true
	c := New(cfg, zerolog.Nop(), func(_ context.Context, opts browser.LaunchOptions) (browser.Driver, error) {
		launches++
		got = opts
		return driver, nil
	})

	require.NoError(t, c.Start(context.Background()))
	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, 1, launches)
	assert.Equal(t, browser.Firefox, got.Kind)
	assert.True(t, got.Headless)

	require.NoError(t, c.Stop())
	require.NoError(t, c.Stop())
}

func TestStartReportsLaunchFailure(t *testing.T) {
	boom := errors.New("no browser binary")
	c := New(testConfig(t), zerolog.Nop(), func(context.Context, browser.LaunchOptions) (browser.Driver, error) {
		return nil, boom
	})
	assert.ErrorIs(t, c.Start(context.Background()), boom)
	assert.NoError(t, c.Stop())

	_, err := c.Open(context.Background(), "never")
	assert.Error(t, err)
}

func TestOpenBuildsIsolatedScenario(t *testing.T) {
	driver := browsertest.NewDriver()
	cfg := testConfig(t)
	cfg.RecordVideo = true
	c := New(cfg, zerolog.Nop(), fixedDriver(driver))
	require.NoError(t, c.Start(context.Background()))

	first, err := c.Open(context.Background(), "first")
	require.NoError(t, err)
	second, err := c.Open(context.Background(), "second")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.NotSame(t, first.UI(), second.UI())
	assert.Equal(t, PageOpen, first.State())
	assert.Equal(t, cfg.Wait, first.UI().Wait())

	contexts := driver.Contexts()
	require.Len(t, contexts, 2)
	opts := contexts[0].Options
	assert.True(t, opts.NoViewport)
	assert.True(t, opts.IgnoreHTTPSErrors)
	assert.True(t, opts.AcceptDownloads)
	assert.Equal(t, filepath.Join("videos", first.ID), opts.RecordVideoDir)
	assert.Len(t, contexts[0].Pages(), 1)

	require.NoError(t, c.Close(first, nil))
	require.NoError(t, c.Close(second, nil))
	assert.Equal(t, Idle, first.State())
	assert.Equal(t, 1, contexts[0].Pages()[0].Closed())
	assert.Equal(t, 1, contexts[0].Closed())
}

func TestScenarioWalksBackToIdle(t *testing.T) {
	var buf bytes.Buffer
	c := New(testConfig(t), zerolog.New(&buf), fixedDriver(browsertest.NewDriver()))
	require.NoError(t, c.Start(context.Background()))
	s, err := c.Open(context.Background(), "walk")
	require.NoError(t, err)
	c.StepStarted(s, "a step")
	c.StepFinished(context.Background(), s, "passed", nil)
	require.NoError(t, c.Close(s, nil))

	var states []string
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry struct {
			Message string `json:"message"`
			State   string `json:"state"`
		}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		if entry.Message == "scenario state" {
			states = append(states, entry.State)
		}
	}
	assert.Equal(t, []string{
		"context open", "page open", "step running", "page open",
		"page closed", "context closed", "idle",
	}, states)
	assert.Equal(t, Idle, s.State())
}

func TestCloseRunsOnceEvenAfterFailure(t *testing.T) {
	driver := browsertest.NewDriver()
	c := New(testConfig(t), zerolog.Nop(), fixedDriver(driver))
	require.NoError(t, c.Start(context.Background()))

	s, err := c.Open(context.Background(), "failing")
	require.NoError(t, err)

	require.NoError(t, c.Close(s, errors.New("step failed")))
	require.NoError(t, c.Close(s, errors.New("step failed")))

	bctx := driver.Contexts()[0]
	assert.Equal(t, 1, bctx.Closed())
	assert.Equal(t, 1, bctx.Pages()[0].Closed())
}

func TestOpenClosesContextWhenPageFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	bctx := browsermock.NewMockContext(ctrl)
	driver := browsermock.NewMockDriver(ctrl)
	gomock.InOrder(
		driver.EXPECT().NewContext(gomock.Any()).Return(bctx, nil),
		bctx.EXPECT().NewPage().Return(nil, errors.New("target closed")),
		bctx.EXPECT().Close().Return(nil).Times(1),
	)

	c := New(testConfig(t), zerolog.Nop(), fixedDriver(driver))
	require.NoError(t, c.Start(context.Background()))

	_, err := c.Open(context.Background(), "broken")
	assert.ErrorContains(t, err, "target closed")
}

func TestOpenReportsContextFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	driver := browsermock.NewMockDriver(ctrl)
	driver.EXPECT().NewContext(gomock.Any()).Return(nil, errors.New("browser closed"))

	c := New(testConfig(t), zerolog.Nop(), fixedDriver(driver))
	require.NoError(t, c.Start(context.Background()))

	_, err := c.Open(context.Background(), "broken")
	assert.ErrorContains(t, err, "browser closed")
}

func TestSoftFailuresFailTheScenario(t *testing.T) {
	c := New(testConfig(t), zerolog.Nop(), fixedDriver(browsertest.NewDriver()))
	require.NoError(t, c.Start(context.Background()))

	s, err := c.Open(context.Background(), "soft")
	require.NoError(t, err)
	require.NoError(t, s.Assert.Equals("a", "b", true))

	err = c.Close(s, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "soft assertions failed")
}

func TestStepLogging(t *testing.T) {
	var buf bytes.Buffer
	c := New(testConfig(t), zerolog.New(&buf), fixedDriver(browsertest.NewDriver()))
	require.NoError(t, c.Start(context.Background()))
	s, err := c.Open(context.Background(), "logged")
	require.NoError(t, err)

	c.StepStarted(s, "the user clicks on the search button")
	assert.Equal(t, StepRunning, s.State())
	c.StepFinished(context.Background(), s, "passed", nil)
	assert.Equal(t, PageOpen, s.State())
	c.StepStarted(s, "the search result is shown")
	c.StepFinished(context.Background(), s, "failed", errors.New("no result"))

	out := buf.String()
	assert.Contains(t, out, "- THE USER CLICKS ON THE SEARCH BUTTON")
	assert.Contains(t, out, "> PASSED ✅")
	assert.Contains(t, out, "> FAILED ❌")
	assert.Contains(t, out, `"level":"error"`)
	assert.Contains(t, out, `"scenario_id":"`+s.ID+`"`)
	assert.Contains(t, out, "SCENARIO: LOGGED - STARTED")
	assert.Contains(t, out, "page at failure")
}

func TestSkippedStepIsAWarning(t *testing.T) {
	var buf bytes.Buffer
	c := New(testConfig(t), zerolog.New(&buf), fixedDriver(browsertest.NewDriver()))
	require.NoError(t, c.Start(context.Background()))
	s, err := c.Open(context.Background(), "skipping")
	require.NoError(t, err)
	buf.Reset()

	c.StepFinished(context.Background(), s, "skipped", nil)
	out := buf.String()
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, "> SKIPPED")
	assert.NotContains(t, out, `"level":"error"`)
	assert.NotContains(t, out, "page at failure")

	buf.Reset()
	c.StepFinished(context.Background(), s, "undefined", nil)
	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.Contains(t, buf.String(), "> UNDEFINED ❌")
}

func TestScenarioContextRoundTrip(t *testing.T) {
	_, err := FromContext(context.Background())
	assert.ErrorIs(t, err, ErrNoScenario)

	s := &Scenario{Name: "ctx"}
	got, err := FromContext(WithScenario(context.Background(), s))
	require.NoError(t, err)
	assert.Same(t, s, got)

	s.Set("query", "playwright")
	v, ok := s.Get("query")
	assert.True(t, ok)
	assert.Equal(t, "playwright", v)
	_, ok = s.Get("missing")
	assert.False(t, ok)
}

func TestStateNames(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "step running", StepRunning.String())
	assert.Equal(t, "context closed", ContextClosed.String())
	assert.Equal(t, "unknown", State(42).String())
}
