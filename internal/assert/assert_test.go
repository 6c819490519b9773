package assert_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	check "github.com/polzovatel/uibdd/internal/assert"
)

func newAsserter() (*check.Asserter, *bytes.Buffer) {
	var buf bytes.Buffer
	return check.New(zerolog.New(&buf)), &buf
}

func TestPassingChecks(t *testing.T) {
	a, buf := newAsserter()

	assert.NoError(t, a.Equals(3, 3, false))
	assert.NoError(t, a.NotEquals("a", "b", false))
	assert.NoError(t, a.Contains("Playwright: Fast and reliable", "Playwright", false))
	assert.NoError(t, a.Contains([]string{"a", "b"}, "b", false))
	assert.NoError(t, a.NotContains("Playwright", "Selenium", false))
	assert.NoError(t, a.True(true, false))
	assert.NoError(t, a.False(false, false))

	assert.NoError(t, a.Err())
	assert.Empty(t, buf.String())
}

func TestHardFailureMessages(t *testing.T) {
	a, _ := newAsserter()
	cases := []struct {
		name string
		err  error
		msg  string
	}{
		{"equals", a.Equals("x", "y", false), "Expected 'x' should be EQUAL to Actual 'y'"},
		{"not equals", a.NotEquals(1, 1, false), "Expected '1' should NOT be EQUAL to Actual '1'"},
		{"contains", a.Contains("Google", "Playwright", false), "'Google' is expected to CONTAIN 'Playwright'"},
		{"not contains", a.NotContains("Playwright docs", "docs", false), "'Playwright docs' should NOT CONTAIN 'docs'"},
		{"true", a.True(false, false), "Expected is 'True' & Actual is 'false'"},
		{"false", a.False(true, false), "Expected is 'False' & Actual is 'true'"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var f *check.Failure
			require.ErrorAs(t, tc.err, &f)
			assert.Equal(t, tc.msg, f.Message)
			assert.NotEmpty(t, f.Detail)
		})
	}
	assert.NoError(t, a.Err())
}

func TestFailureCarriesValues(t *testing.T) {
	a, _ := newAsserter()
	var f *check.Failure
	require.ErrorAs(t, a.Equals(map[string]int{"a": 1}, map[string]int{"a": 2}, false), &f)
	assert.Equal(t, map[string]int{"a": 1}, f.Expected)
	assert.Equal(t, map[string]int{"a": 2}, f.Actual)
	assert.Contains(t, f.Error(), f.Message)
}

func TestSoftFailuresAreCollected(t *testing.T) {
	a, buf := newAsserter()

	require.NoError(t, a.Equals("x", "y", true))
	require.NoError(t, a.True(false, true))
	require.NoError(t, a.Equals("z", "z", true))

	err := a.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Expected 'x' should be EQUAL to Actual 'y'")
	assert.Contains(t, err.Error(), "Expected is 'True' & Actual is 'false'")

	var f *check.Failure
	assert.True(t, errors.As(err, &f))
	assert.Contains(t, buf.String(), "soft assertion failed")
	assert.Contains(t, buf.String(), `"level":"error"`)
}
