package utils

import (
	"bytes"
	"unicode/utf8"
)

// SniffLength is the number of leading bytes inspected when detecting binary content.
const SniffLength = 1024

// IsBinary reports whether the provided byte slice appears to contain binary data.
// A sample cut at SniffLength may end inside a multi-byte rune; that tail is tolerated.
func IsBinary(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return true
	}
	return !validUTF8Prefix(data)
}

func validUTF8Prefix(data []byte) bool {
	if utf8.Valid(data) {
		return true
	}
	for trimmed := 1; trimmed < utf8.UTFMax && trimmed < len(data); trimmed++ {
		if utf8.Valid(data[:len(data)-trimmed]) {
			return !utf8.FullRune(data[len(data)-trimmed:])
		}
	}
	return false
}
