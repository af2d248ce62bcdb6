package voucher

import (
	"strings"
	"unicode"
)

// PinGroupSize is the number of characters per printed PIN group
const PinGroupSize = 4

// ChunkPin splits a PIN into groups of size characters after removing any
// whitespace. The final group is shorter when the length is not a multiple of size.
func ChunkPin(pin string, size int) []string {
	clean := []rune(Dechunk(pin))
	if len(clean) == 0 {
		return nil
	}
	if size <= 0 {
		return []string{string(clean)}
	}

	groups := make([]string, 0, (len(clean)+size-1)/size)
	for start := 0; start < len(clean); start += size {
		end := start + size
		if end > len(clean) {
			end = len(clean)
		}
		groups = append(groups, string(clean[start:end]))
	}
	return groups
}

// FormatPin renders a PIN as space separated groups of PinGroupSize
func FormatPin(pin string) string {
	return strings.Join(ChunkPin(pin, PinGroupSize), " ")
}

// Dechunk strips the separators inserted by FormatPin
func Dechunk(formatted string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, formatted)
}
