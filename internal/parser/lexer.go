// Package parser implements the Kite grammar tier: a parsly-based lexer and
// a tolerant structural parser producing the syntax tree and syntax errors
// the analysis core consumes.
package parser

import (
	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"
)

// TokenKind classifies a lexical token.
type TokenKind int

const (
	TokenWhitespace TokenKind = iota
	TokenLineComment
	TokenBlockComment
	TokenString
	TokenNumber
	TokenWord
	TokenDecorator
	TokenPunct
	TokenUnknown
)

func (k TokenKind) String() string {
	switch k {
	case TokenWhitespace:
		return "whitespace"
	case TokenLineComment:
		return "line comment"
	case TokenBlockComment:
		return "block comment"
	case TokenString:
		return "string"
	case TokenNumber:
		return "number"
	case TokenWord:
		return "word"
	case TokenDecorator:
		return "decorator"
	case TokenPunct:
		return "punctuation"
	default:
		return "unknown"
	}
}

// Token is one lexical token with its byte span in the source text.
type Token struct {
	Kind  TokenKind
	Start int
	End   int
	Text  string
}

const (
	whitespaceCode = iota
	lineCommentCode
	blockCommentCode
	stringCode
	numberCode
	wordCode
	decoratorCode
	anyCode
)

var (
	whitespaceMatcher   = parsly.NewToken(whitespaceCode, "Whitespace", matcher.NewWhiteSpace())
	lineCommentMatcher  = parsly.NewToken(lineCommentCode, "Line comment", newLineCommentMatcher())
	blockCommentMatcher = parsly.NewToken(blockCommentCode, "Block comment", matcher.NewSeqBlock("/*", "*/"))
	stringMatcher       = parsly.NewToken(stringCode, "String", matcher.NewBlock('"', '"', '\\'))
	numberMatcher       = parsly.NewToken(numberCode, "Number", matcher.NewNumber())
	wordMatcher         = parsly.NewToken(wordCode, "Word", newIdentMatcher())
	decoratorMatcher    = parsly.NewToken(decoratorCode, "Decorator", newDecoratorMatcher())
	anyMatcher          = parsly.NewToken(anyCode, "Any", newAnyMatcher())
)

// keywords of the Kite language
var keywords = map[string]bool{
	"import": true, "from": true, "schema": true, "component": true,
	"resource": true, "fun": true, "var": true, "type": true,
	"input": true, "output": true, "for": true, "in": true,
	"if": true, "else": true, "return": true, "true": true, "false": true,
}

// IsKeyword reports whether word is a reserved Kite keyword.
func IsKeyword(word string) bool {
	return keywords[word]
}

// punctuation bytes the grammar knows about; anything else is an
// unrecognized character
var punctBytes = map[byte]bool{
	'{': true, '}': true, '(': true, ')': true, '[': true, ']': true,
	':': true, '=': true, ',': true, '.': true, '<': true, '>': true,
	'!': true, '+': true, '-': true, '*': true, '/': true, '&': true,
	'|': true, '"': true, '%': true, ';': true, '?': true,
}

// Tokenize splits text into tokens. It never fails; bytes no matcher
// accepts become TokenUnknown tokens for the parser to report.
func Tokenize(text string) []Token {
	cursor := parsly.NewCursor("", []byte(text), 0)

	var tokens []Token

	for cursor.Pos < cursor.InputSize {
		start := cursor.Pos

		matched := cursor.MatchAny(
			whitespaceMatcher,
			lineCommentMatcher,
			blockCommentMatcher,
			stringMatcher,
			numberMatcher,
			decoratorMatcher,
			wordMatcher,
			anyMatcher,
		)

		if matched.Code == parsly.EOF || cursor.Pos == start {
			break
		}

		token := Token{
			Start: start,
			End:   cursor.Pos,
			Text:  text[start:cursor.Pos],
		}

		switch matched.Code {
		case whitespaceCode:
			token.Kind = TokenWhitespace
		case lineCommentCode:
			token.Kind = TokenLineComment
		case blockCommentCode:
			token.Kind = TokenBlockComment
		case stringCode:
			token.Kind = TokenString
		case numberCode:
			token.Kind = TokenNumber
		case wordCode:
			token.Kind = TokenWord
		case decoratorCode:
			token.Kind = TokenDecorator
		default:
			if punctBytes[text[start]] {
				token.Kind = TokenPunct
			} else {
				token.Kind = TokenUnknown
			}
		}

		tokens = append(tokens, token)
	}

	return tokens
}

// identMatcher matches [A-Za-z_][A-Za-z0-9_]*.
type identMatcher struct{}

func (m *identMatcher) Match(cursor *parsly.Cursor) (matched int) {
	c := cursor.Input[cursor.Pos]
	if !(c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
		return 0
	}

	for i := cursor.Pos; i < cursor.InputSize; i++ {
		c = cursor.Input[i]
		if c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' {
			matched++
			continue
		}

		break
	}

	return matched
}

func newIdentMatcher() parsly.Matcher {
	return &identMatcher{}
}

// decoratorMatcher matches '@' followed by an identifier.
type atWordMatcher struct{}

func (m *atWordMatcher) Match(cursor *parsly.Cursor) (matched int) {
	if cursor.Input[cursor.Pos] != '@' {
		return 0
	}

	matched = 1

	for i := cursor.Pos + 1; i < cursor.InputSize; i++ {
		c := cursor.Input[i]
		if c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' {
			matched++
			continue
		}

		break
	}

	if matched == 1 {
		return 0
	}

	return matched
}

func newDecoratorMatcher() parsly.Matcher {
	return &atWordMatcher{}
}

// lineCommentMatcher matches "//" up to but not including the newline, or
// to end of input.
type slashCommentMatcher struct{}

func (m *slashCommentMatcher) Match(cursor *parsly.Cursor) (matched int) {
	if cursor.Pos+1 >= cursor.InputSize {
		return 0
	}

	if cursor.Input[cursor.Pos] != '/' || cursor.Input[cursor.Pos+1] != '/' {
		return 0
	}

	matched = 2

	for i := cursor.Pos + 2; i < cursor.InputSize; i++ {
		if cursor.Input[i] == '\n' {
			break
		}

		matched++
	}

	return matched
}

func newLineCommentMatcher() parsly.Matcher {
	return &slashCommentMatcher{}
}

// anyMatcher consumes a single byte so lexing always makes progress.
type singleByteMatcher struct{}

func (m *singleByteMatcher) Match(cursor *parsly.Cursor) (matched int) {
	if cursor.Pos < cursor.InputSize {
		return 1
	}

	return 0
}

func newAnyMatcher() parsly.Matcher {
	return &singleByteMatcher{}
}
