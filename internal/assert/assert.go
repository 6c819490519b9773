// Package assert checks step outcomes with uniform failure messages.
//
// Every check takes a soft flag. A hard failure is returned as *Failure. A
// soft failure is logged, kept on the Asserter and reported later by Err, so
// a scenario can run to its end and still fail.
package assert

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

// Failure is a failed check.
type Failure struct {
	Expected any
	Actual   any
	Message  string
	// Detail is the comparison report, including a diff where one applies.
	Detail string
}

func (f *Failure) Error() string {
	if f.Detail == "" {
		return f.Message
	}
	return f.Message + "\n" + f.Detail
}

// Asserter runs checks for one scenario.
type Asserter struct {
	log zerolog.Logger

	mu   sync.Mutex
	soft []error
}

func New(log zerolog.Logger) *Asserter {
	return &Asserter{log: log}
}

// recorder collects testify's reports instead of failing a *testing.T.
type recorder struct {
	reports []string
}

func (r *recorder) Errorf(format string, args ...interface{}) {
	r.reports = append(r.reports, fmt.Sprintf(format, args...))
}

func (a *Asserter) check(soft bool, expected, actual any, message string, ok func(assert.TestingT) bool) error {
	rec := &recorder{}
	if ok(rec) {
		return nil
	}
	f := &Failure{
		Expected: expected,
		Actual:   actual,
		Message:  message,
		Detail:   strings.TrimSpace(strings.Join(rec.reports, "\n")),
	}
	if !soft {
		return f
	}
	a.log.Error().Interface("expected", expected).Interface("actual", actual).Msg("soft assertion failed: " + message)
	a.mu.Lock()
	a.soft = append(a.soft, f)
	a.mu.Unlock()
	return nil
}

// Equals checks that actual equals expected.
func (a *Asserter) Equals(expected, actual any, soft bool) error {
	msg := fmt.Sprintf("Expected '%v' should be EQUAL to Actual '%v'", expected, actual)
	return a.check(soft, expected, actual, msg, func(t assert.TestingT) bool {
		return assert.Equal(t, expected, actual)
	})
}

func (a *Asserter) NotEquals(expected, actual any, soft bool) error {
	msg := fmt.Sprintf("Expected '%v' should NOT be EQUAL to Actual '%v'", expected, actual)
	return a.check(soft, expected, actual, msg, func(t assert.TestingT) bool {
		return assert.NotEqual(t, expected, actual)
	})
}

// Contains checks that actual, a string, slice or map, contains expected.
func (a *Asserter) Contains(actual, expected any, soft bool) error {
	msg := fmt.Sprintf("'%v' is expected to CONTAIN '%v'", actual, expected)
	return a.check(soft, expected, actual, msg, func(t assert.TestingT) bool {
		return assert.Contains(t, actual, expected)
	})
}

func (a *Asserter) NotContains(actual, expected any, soft bool) error {
	msg := fmt.Sprintf("'%v' should NOT CONTAIN '%v'", actual, expected)
	return a.check(soft, expected, actual, msg, func(t assert.TestingT) bool {
		return assert.NotContains(t, actual, expected)
	})
}

func (a *Asserter) True(condition bool, soft bool) error {
	msg := fmt.Sprintf("Expected is 'True' & Actual is '%v'", condition)
	return a.check(soft, true, condition, msg, func(t assert.TestingT) bool {
		return assert.True(t, condition)
	})
}

func (a *Asserter) False(condition bool, soft bool) error {
	msg := fmt.Sprintf("Expected is 'False' & Actual is '%v'", condition)
	return a.check(soft, false, condition, msg, func(t assert.TestingT) bool {
		return assert.False(t, condition)
	})
}

// Err joins every soft failure recorded so far, nil when there is none.
func (a *Asserter) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return errors.Join(a.soft...)
}
