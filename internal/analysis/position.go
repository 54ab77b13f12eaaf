package analysis

import (
	"strings"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// OffsetToPosition converts a byte offset into a 0-based LSP position.
// The character column is counted in UTF-16 code units, per the LSP wire
// format. Offsets outside the text are clamped to the nearest valid
// position.
func OffsetToPosition(text string, offset int) protocol.Position {
	if offset < 0 {
		offset = 0
	}

	if offset > len(text) {
		offset = len(text)
	}

	line := strings.Count(text[:offset], "\n")
	lineStart := strings.LastIndexByte(text[:offset], '\n') + 1

	return protocol.Position{
		Line:      uint32(line),
		Character: uint32(utf16Length(text[lineStart:offset])),
	}
}

// PositionToOffset converts a 0-based LSP position into a byte offset.
// The character column arrives in UTF-16 code units. Positions past the
// end of a line or of the document are clamped.
func PositionToOffset(text string, position protocol.Position) int {
	offset := 0
	line := uint32(0)

	for line < position.Line {
		next := strings.IndexByte(text[offset:], '\n')
		if next < 0 {
			return len(text)
		}

		offset += next + 1
		line++
	}

	lineEnd := strings.IndexByte(text[offset:], '\n')
	if lineEnd < 0 {
		lineEnd = len(text) - offset
	}

	return offset + utf16UnitsToBytes(text[offset:offset+lineEnd], int(position.Character))
}

// RangeBetween builds a protocol range from two byte offsets.
func RangeBetween(text string, start, end int) protocol.Range {
	return protocol.Range{
		Start: OffsetToPosition(text, start),
		End:   OffsetToPosition(text, end),
	}
}

// utf16Length counts the UTF-16 code units of s. Runes beyond the BMP
// take a surrogate pair.
func utf16Length(s string) int {
	units := 0

	for _, r := range s {
		if r <= 0xFFFF {
			units++
		} else {
			units += 2
		}
	}

	return units
}

// utf16UnitsToBytes converts a UTF-16 code unit count into a byte offset
// within a single line, clamping past-end counts to the line length.
func utf16UnitsToBytes(line string, units int) int {
	bytes := 0
	count := 0

	for _, r := range line {
		if count >= units {
			break
		}

		if r <= 0xFFFF {
			count++
		} else {
			count += 2
		}

		bytes += utf8.RuneLen(r)
	}

	return bytes
}
