package storefront

import "fmt"

// CardinalityError means the page did not have exactly the expected number of
// nodes for a field, which usually means the storefront markup has changed.
type CardinalityError struct {
	Field    string
	Expected int
	Got      int
}

func (e *CardinalityError) Error() string {
	return fmt.Sprintf("%d %s found, expecting exactly %d", e.Got, e.Field, e.Expected)
}

// FormatError means a node was found but its contents could not be parsed.
type FormatError struct {
	Field string
	Value string
	Err   error
}

func (e *FormatError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: unexpected format %q", e.Field, e.Value)
	}
	return fmt.Sprintf("%s: unexpected format %q: %s", e.Field, e.Value, e.Err.Error())
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// StatusError is returned when the storefront responds with anything but 200.
type StatusError struct {
	Url        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: http status %d", e.Url, e.StatusCode)
}

func expectOne(field string, got int) error {
	if got != 1 {
		return &CardinalityError{Field: field, Expected: 1, Got: got}
	}
	return nil
}
