package web

import (
	"errors"
	"fmt"
	"time"
)

// ErrTargetNotSet is returned by actions on an Element that was never
// pointed at a selector or locator.
var ErrTargetNotSet = errors.New("web: element target not set")

// TimeoutError reports an element that did not reach State in time.
type TimeoutError struct {
	Description string
	State       string
	Timeout     time.Duration
	Err         error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s did not become %s within %s", e.Description, e.State, e.Timeout)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// ElementNotInteractableError reports a driver that refused an interaction.
type ElementNotInteractableError struct {
	Description string
	Action      string
	Err         error
}

func (e *ElementNotInteractableError) Error() string {
	return fmt.Sprintf("%s: %s not interactable: %v", e.Action, e.Description, e.Err)
}

func (e *ElementNotInteractableError) Unwrap() error { return e.Err }

// OptionNotFoundError reports a dropdown without the requested option.
type OptionNotFoundError struct {
	Description string
	By          string
	Key         string
}

func (e *OptionNotFoundError) Error() string {
	return fmt.Sprintf("%s has no option with %s %q", e.Description, e.By, e.Key)
}

// NavigationTimeoutError reports a navigation that missed the load event.
type NavigationTimeoutError struct {
	Action  string
	URL     string
	Timeout time.Duration
	Err     error
}

func (e *NavigationTimeoutError) Error() string {
	return fmt.Sprintf("%s %s: no load event within %s", e.Action, e.URL, e.Timeout)
}

func (e *NavigationTimeoutError) Unwrap() error { return e.Err }

// AttributeNotFoundError reports an element without the requested attribute.
type AttributeNotFoundError struct {
	Description string
	Name        string
}

func (e *AttributeNotFoundError) Error() string {
	return fmt.Sprintf("%s has no attribute %q", e.Description, e.Name)
}
