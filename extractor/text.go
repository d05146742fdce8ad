package extractor

import (
	"errors"
	"unicode/utf8"
)

var errInvalidUTF8 = errors.New("content is not valid UTF-8")

func extractPlainText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", errInvalidUTF8
	}
	return string(data), nil
}
