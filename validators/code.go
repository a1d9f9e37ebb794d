package validators

import "errors"

var ErrCodeInvalid = errors.New("verification code must be 6 digits")

func CodeValidator(c string) error {
	if len(c) != 6 {
		return ErrCodeInvalid
	}

	for i := 0; i < len(c); i++ {
		if c[i] < '0' || c[i] > '9' {
			return ErrCodeInvalid
		}
	}

	return nil
}
