package parser

import "strings"

// RewriteErrorMessage maps a raw grammar-error category to human-readable,
// actionable text. Unmapped categories fall back to a cleaned version of the
// raw message.
func RewriteErrorMessage(category ErrorCategory, raw string) string {
	switch category {
	case ErrMissingToken:
		return "Syntax error: " + raw + ". Add the missing token to complete the statement."
	case ErrExtraneousToken:
		return "Syntax error: " + raw + ". Remove the extra token."
	case ErrMismatchedInput:
		return "Syntax error: " + raw + ". Check the statement structure."
	case ErrNoViableAlternative:
		return "Syntax error: could not understand this statement. " + cleanRawMessage(raw)
	case ErrUnrecognizedCharacter:
		return "Syntax error: " + raw + ". This character is not valid in Kite source."
	case ErrUnexpectedEOF:
		return "Syntax error: " + raw + ". A block or statement is left unclosed."
	default:
		return cleanRawMessage(raw)
	}
}

// cleanRawMessage strips parser-internal jargon from a raw error message so
// the fallback text is still presentable.
func cleanRawMessage(raw string) string {
	cleaned := raw

	for _, noise := range []string{"no viable alternative at input ", "mismatched input "} {
		cleaned = strings.ReplaceAll(cleaned, noise, "")
	}

	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return "Syntax error."
	}

	if !strings.HasSuffix(cleaned, ".") {
		cleaned += "."
	}

	return strings.ToUpper(cleaned[:1]) + cleaned[1:]
}
