package validators

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	ErrNameEmpty   = errors.New("no name provided")
	ErrNameLength  = errors.New("name must be between 2 and 50 characters long")
	ErrNameInvalid = errors.New("name can only contain letters and spaces")
)

func NameValidator(n string) error {
	n = strings.TrimSpace(n)
	if n == "" {
		return ErrNameEmpty
	}

	if l := utf8.RuneCountInString(n); l < 2 || l > 50 {
		return ErrNameLength
	}

	for _, r := range n {
		if !unicode.IsLetter(r) && r != ' ' {
			return ErrNameInvalid
		}
	}

	return nil
}
