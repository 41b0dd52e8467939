// Package assert holds checks for programmer errors, these panic instead of
// returning an error since they can only be violated by incorrect wiring.
package assert

func NotNil(value any) {
	if value == nil {
		panic("expected value to be not nil")
	}
}

func NotEmptyStr(str string) {
	if str == "" {
		panic("expected string to be non-empty")
	}
}
