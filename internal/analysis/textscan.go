// Package analysis provides code analysis utilities for the LSP server.
package analysis

import "strings"

// ByteClass classifies a byte of source text as produced by ScanText.
type ByteClass byte

const (
	// ClassCode marks bytes that are plain source code.
	ClassCode ByteClass = iota

	// ClassComment marks bytes inside a line or block comment.
	ClassComment

	// ClassString marks bytes inside a string literal.
	ClassString
)

// ScanText classifies every byte of text as code, comment, or string.
// The scanner is the single shared comment/string state machine that all
// structural checks build on. It never fails: an unterminated string or
// block comment simply classifies the rest of the text.
func ScanText(text string) []ByteClass {
	classes := make([]ByteClass, len(text))

	const (
		stateCode = iota
		stateLineComment
		stateBlockComment
		stateString
	)

	state := stateCode
	blockStart := 0

	for i := 0; i < len(text); i++ {
		c := text[i]

		switch state {
		case stateCode:
			if c == '/' && i+1 < len(text) && text[i+1] == '/' {
				state = stateLineComment
				classes[i] = ClassComment
				continue
			}

			if c == '/' && i+1 < len(text) && text[i+1] == '*' {
				state = stateBlockComment
				blockStart = i
				classes[i] = ClassComment
				continue
			}

			if c == '"' {
				state = stateString
				classes[i] = ClassString
				continue
			}

			classes[i] = ClassCode

		case stateLineComment:
			classes[i] = ClassComment
			if c == '\n' {
				state = stateCode
				classes[i] = ClassCode
			}

		case stateBlockComment:
			classes[i] = ClassComment
			// The closing */ must not overlap the opening /*, so that
			// "/*/" leaves the comment open.
			if c == '/' && text[i-1] == '*' && i >= blockStart+3 {
				state = stateCode
			}

		case stateString:
			classes[i] = ClassString
			if c == '\\' && i+1 < len(text) {
				// Escaped character, classify it and skip
				i++
				classes[i] = ClassString
				continue
			}

			if c == '"' || c == '\n' {
				// Closing quote, or an unterminated string cut off by the
				// end of the line
				state = stateCode
			}
		}
	}

	return classes
}

// IsInsideComment reports whether the given offset lies inside a comment.
func IsInsideComment(text string, offset int) bool {
	if offset < 0 || offset >= len(text) {
		return false
	}

	return ScanText(text)[offset] == ClassComment
}

// IsInsideString reports whether the given offset lies inside a string literal.
func IsInsideString(text string, offset int) bool {
	if offset < 0 || offset >= len(text) {
		return false
	}

	return ScanText(text)[offset] == ClassString
}

// isWordChar reports whether c can appear inside an identifier.
func isWordChar(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

// isWordStart reports whether c can start an identifier.
func isWordStart(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z')
}

// WordAt extracts the identifier surrounding the given offset.
// It returns an empty string when the offset does not touch a word.
func WordAt(text string, offset int) string {
	if len(text) == 0 {
		return ""
	}

	if offset < 0 {
		offset = 0
	}

	if offset > len(text) {
		offset = len(text)
	}

	// Allow the cursor to sit just past the last character of a word
	if offset == len(text) || !isWordChar(text[offset]) {
		if offset == 0 || !isWordChar(text[offset-1]) {
			return ""
		}
		offset--
	}

	start := offset
	for start > 0 && isWordChar(text[start-1]) {
		start--
	}

	end := offset
	for end < len(text) && isWordChar(text[end]) {
		end++
	}

	return text[start:end]
}

// BraceDepth counts the brace nesting balance between two offsets, ignoring
// braces inside comments and strings. Unbalanced input is not an error; the
// counter simply reflects whatever the scan reached.
func BraceDepth(text string, from, to int) int {
	classes := ScanText(text)

	if from < 0 {
		from = 0
	}

	if to > len(text) {
		to = len(text)
	}

	depth := 0

	for i := from; i < to; i++ {
		if classes[i] != ClassCode {
			continue
		}

		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
		}
	}

	return depth
}

// IsAfterEquals reports whether the offset sits in a value position: after an
// assignment operator on the current line. Comparison operators (==, !=, <=,
// >=) do not count. A cheap single-line scan is used instead of expression
// parsing.
func IsAfterEquals(text string, offset int) bool {
	if offset > len(text) {
		offset = len(text)
	}

	if offset < 0 {
		return false
	}

	lineStart := strings.LastIndexByte(text[:offset], '\n') + 1
	line := text[lineStart:offset]

	eq := strings.LastIndexByte(line, '=')
	if eq < 0 {
		return false
	}

	// Reject comparison operators by inspecting the neighbouring characters
	if eq > 0 {
		switch line[eq-1] {
		case '=', '!', '<', '>':
			return false
		}
	}

	if eq+1 < len(line) && line[eq+1] == '=' {
		return false
	}

	// A token glued directly onto the '=' means the '=' belongs to that
	// token rather than marking an assignment
	after := line[eq+1:]
	if after != "" && isWordChar(after[0]) {
		return false
	}

	return true
}

// IsInsideNestedStructure reports whether the offset is nested inside an
// object or array literal deeper than the immediate block that starts at
// blockStart. Property-name completion is only offered at the top level of a
// block, so callers use this to suppress suggestions inside nested values.
func IsInsideNestedStructure(text string, blockStart, offset int) bool {
	classes := ScanText(text)

	if blockStart < 0 {
		blockStart = 0
	}

	if offset > len(text) {
		offset = len(text)
	}

	braceDepth := 0
	bracketDepth := 0

	for i := blockStart; i < offset; i++ {
		if classes[i] != ClassCode {
			continue
		}

		switch text[i] {
		case '{':
			braceDepth++
		case '}':
			if braceDepth > 0 {
				braceDepth--
			}
		case '[':
			bracketDepth++
		case ']':
			if bracketDepth > 0 {
				bracketDepth--
			}
		}
	}

	return braceDepth > 1 || bracketDepth > 0
}

// findMatchingBrace returns the offset of the '}' closing the '{' at open,
// honouring comment and string regions. When the block is unterminated it
// returns len(text), which callers treat as "block runs to end of file".
func findMatchingBrace(text string, classes []ByteClass, open int) int {
	depth := 0

	for i := open; i < len(text); i++ {
		if classes[i] != ClassCode {
			continue
		}

		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}

	return len(text)
}
