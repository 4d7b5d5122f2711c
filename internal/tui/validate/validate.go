package validate

import (
	"fmt"
	"strings"
)

type ErrorHandler func(str string) error

func NotEmpty(name string) ErrorHandler {
	return func(str string) error {
		if strings.TrimSpace(str) == "" {
			return fmt.Errorf("%s cannot be empty", name)
		}
		return nil
	}
}

func WithinLen(min, max int, name string) ErrorHandler {
	return func(str string) error {
		if len(str) >= min && len(str) <= max {
			return nil
		}

		return fmt.Errorf(
			"expected %s to be between %d and %d characters, but got %d",
			name,
			min,
			max,
			len(str),
		)
	}
}

func Email(name string) ErrorHandler {
	return func(str string) error {
		at := strings.Index(str, "@")
		if at < 1 || at == len(str)-1 || !strings.Contains(str[at:], ".") {
			return fmt.Errorf("%s does not look like an email address", name)
		}
		return nil
	}
}

func Compose(input ...ErrorHandler) ErrorHandler {
	return func(str string) error {
		for _, f := range input {
			err := f(str)
			if err != nil {
				return err
			}
		}
		return nil
	}
}
