package parser

import (
	"fmt"
	"strings"
)

// Location is a 1-based line/column position in source text.
type Location struct {
	Line   int
	Column int
}

// ErrorCategory classifies a syntax error for message rewriting.
type ErrorCategory int

const (
	ErrMissingToken ErrorCategory = iota
	ErrExtraneousToken
	ErrMismatchedInput
	ErrNoViableAlternative
	ErrUnrecognizedCharacter
	ErrUnexpectedEOF
	ErrUnknown
)

// SyntaxError is one parser-reported error with its source position.
type SyntaxError struct {
	Line     int
	Column   int
	Category ErrorCategory
	Message  string
}

// ParseResult carries the tree and any syntax errors. Tree is nil when the
// text did not parse cleanly; callers must degrade to text-scanning
// heuristics in that case.
type ParseResult struct {
	Tree   *File
	Errors []SyntaxError
}

// File is the root of a parsed Kite file.
type File struct {
	Imports     []ImportDecl
	Schemas     []*Schema
	Components  []*Component
	Resources   []*Resource
	Functions   []*Function
	Variables   []*Variable
	TypeAliases []*TypeAlias
}

// ImportDecl is one import statement.
type ImportDecl struct {
	Path     string
	Wildcard bool
	Symbols  []string
	Loc      Location
}

// Property is a typed member of a schema or component definition, or a
// function parameter.
type Property struct {
	Name       string
	TypeName   string
	Loc        Location
	Decorators []Decorator
	HasDefault bool
}

// Decorator is one @name annotation.
type Decorator struct {
	Name string
	Loc  Location
}

// Schema is a schema definition with its property list.
type Schema struct {
	Name       string
	Loc        Location
	Properties []Property
	BodyStart  int
	BodyEnd    int
}

// Component is a component definition (InstanceOf empty) or instance.
type Component struct {
	Name       string
	InstanceOf string
	Loc        Location
	Inputs     []Property
	Outputs    []Property
	BodyStart  int
	BodyEnd    int
}

// Resource is a resource instance typed by a schema.
type Resource struct {
	Name       string
	SchemaName string
	Loc        Location
	BodyStart  int
	BodyEnd    int
}

// Function is a fun declaration.
type Function struct {
	Name       string
	Loc        Location
	Parameters []Property
	ReturnType string
}

// Variable is a var declaration.
type Variable struct {
	Name string
	Loc  Location
}

// TypeAlias is a type declaration.
type TypeAlias struct {
	Name   string
	Target string
	Loc    Location
}

// Parse tokenizes and structurally parses Kite source. It never panics on
// malformed input: errors are collected and the tree is withheld when the
// text did not parse cleanly.
func Parse(text string) *ParseResult {
	p := &fileParser{
		text:   text,
		tokens: significant(Tokenize(text)),
		file:   &File{},
	}

	p.parseFile()

	result := &ParseResult{Errors: p.errors}
	if len(p.errors) == 0 {
		result.Tree = p.file
	}

	return result
}

// significant filters out whitespace and comment tokens.
func significant(tokens []Token) []Token {
	out := tokens[:0:0]

	for _, t := range tokens {
		switch t.Kind {
		case TokenWhitespace, TokenLineComment, TokenBlockComment:
			continue
		}

		out = append(out, t)
	}

	return out
}

type fileParser struct {
	text   string
	tokens []Token
	pos    int
	file   *File
	errors []SyntaxError
}

func (p *fileParser) locate(offset int) Location {
	line := strings.Count(p.text[:offset], "\n")
	lineStart := strings.LastIndexByte(p.text[:offset], '\n') + 1

	return Location{Line: line + 1, Column: offset - lineStart + 1}
}

func (p *fileParser) errorAt(offset int, category ErrorCategory, format string, args ...any) {
	loc := p.locate(offset)

	p.errors = append(p.errors, SyntaxError{
		Line:     loc.Line,
		Column:   loc.Column,
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (p *fileParser) current() (Token, bool) {
	if p.pos >= len(p.tokens) {
		return Token{}, false
	}

	return p.tokens[p.pos], true
}

func (p *fileParser) advance() {
	p.pos++
}

// expectWord consumes the next token when it is a non-keyword identifier.
func (p *fileParser) expectWord(after string) (Token, bool) {
	t, ok := p.current()
	if !ok {
		p.errorAt(len(p.text), ErrUnexpectedEOF, "unexpected end of input after '%s'", after)
		return Token{}, false
	}

	if t.Kind != TokenWord || IsKeyword(t.Text) {
		p.errorAt(t.Start, ErrMissingToken, "expected identifier after '%s', got '%s'", after, t.Text)
		return Token{}, false
	}

	p.advance()

	return t, true
}

// expectPunct consumes the next token when it is the given punctuation.
func (p *fileParser) expectPunct(text, context string) (Token, bool) {
	t, ok := p.current()
	if !ok {
		p.errorAt(len(p.text), ErrUnexpectedEOF, "unexpected end of input, expected '%s' %s", text, context)
		return Token{}, false
	}

	if t.Kind != TokenPunct || t.Text != text {
		p.errorAt(t.Start, ErrMismatchedInput, "expected '%s' %s, got '%s'", text, context, t.Text)
		return Token{}, false
	}

	p.advance()

	return t, true
}

func (p *fileParser) parseFile() {
	var pendingDecorators []Decorator

	for {
		t, ok := p.current()
		if !ok {
			return
		}

		switch {
		case t.Kind == TokenUnknown:
			p.errorAt(t.Start, ErrUnrecognizedCharacter, "unrecognized character %q", t.Text)
			p.advance()

		case t.Kind == TokenDecorator:
			pendingDecorators = append(pendingDecorators, Decorator{
				Name: strings.TrimPrefix(t.Text, "@"),
				Loc:  p.locate(t.Start),
			})
			p.advance()
			p.skipDecoratorArgs()

		case t.Kind == TokenWord && t.Text == "import":
			p.parseImport()
			pendingDecorators = nil

		case t.Kind == TokenWord && t.Text == "schema":
			p.parseSchema()
			pendingDecorators = nil

		case t.Kind == TokenWord && t.Text == "component":
			p.parseComponent()
			pendingDecorators = nil

		case t.Kind == TokenWord && t.Text == "resource":
			p.parseResource()
			pendingDecorators = nil

		case t.Kind == TokenWord && t.Text == "fun":
			p.parseFunction()
			pendingDecorators = nil

		case t.Kind == TokenWord && t.Text == "var":
			p.parseVariable()
			pendingDecorators = nil

		case t.Kind == TokenWord && t.Text == "type":
			p.parseTypeAlias()
			pendingDecorators = nil

		case t.Kind == TokenPunct && t.Text == "}":
			p.errorAt(t.Start, ErrExtraneousToken, "extraneous '}' with no open block")
			p.advance()

		default:
			// Expressions, assignments, and other statement forms are
			// not structurally interesting at the file level
			p.advance()
		}
	}
}

// skipDecoratorArgs consumes a parenthesized argument list when one follows
// the decorator name.
func (p *fileParser) skipDecoratorArgs() {
	t, ok := p.current()
	if !ok || t.Kind != TokenPunct || t.Text != "(" {
		return
	}

	depth := 0

	for {
		t, ok = p.current()
		if !ok {
			p.errorAt(len(p.text), ErrUnexpectedEOF, "unexpected end of input in decorator arguments")
			return
		}

		if t.Kind == TokenPunct {
			switch t.Text {
			case "(":
				depth++
			case ")":
				depth--
			}
		}

		p.advance()

		if depth == 0 {
			return
		}
	}
}

func (p *fileParser) parseImport() {
	importTok, _ := p.current()
	p.advance()

	decl := ImportDecl{Loc: p.locate(importTok.Start)}

	t, ok := p.current()
	if !ok {
		p.errorAt(len(p.text), ErrUnexpectedEOF, "unexpected end of input after 'import'")
		return
	}

	switch {
	case t.Kind == TokenPunct && t.Text == "*":
		decl.Wildcard = true
		p.advance()

	case t.Kind == TokenPunct && t.Text == "{":
		p.advance()

		for {
			t, ok = p.current()
			if !ok {
				p.errorAt(len(p.text), ErrUnexpectedEOF, "unexpected end of input in import list")
				return
			}

			if t.Kind == TokenPunct && t.Text == "}" {
				p.advance()
				break
			}

			if t.Kind == TokenWord {
				decl.Symbols = append(decl.Symbols, t.Text)
			} else if !(t.Kind == TokenPunct && t.Text == ",") {
				p.errorAt(t.Start, ErrMismatchedInput, "expected symbol name in import list, got '%s'", t.Text)
			}

			p.advance()
		}

	default:
		p.errorAt(t.Start, ErrNoViableAlternative, "expected '*' or '{symbols}' after 'import', got '%s'", t.Text)
		return
	}

	t, ok = p.current()
	if !ok || t.Kind != TokenWord || t.Text != "from" {
		offset := len(p.text)
		if ok {
			offset = t.Start
		}
		p.errorAt(offset, ErrMissingToken, "expected 'from' in import statement")
		return
	}
	p.advance()

	t, ok = p.current()
	if !ok || t.Kind != TokenString {
		offset := len(p.text)
		if ok {
			offset = t.Start
		}
		p.errorAt(offset, ErrMissingToken, "expected quoted path after 'from'")
		return
	}
	p.advance()

	decl.Path = strings.Trim(t.Text, `"`)
	p.file.Imports = append(p.file.Imports, decl)
}

func (p *fileParser) parseSchema() {
	p.advance()

	name, ok := p.expectWord("schema")
	if !ok {
		return
	}

	open, ok := p.expectPunct("{", "to open the schema body")
	if !ok {
		return
	}

	schema := &Schema{
		Name:      name.Text,
		Loc:       p.locate(name.Start),
		BodyStart: open.Start,
	}

	schema.BodyEnd = p.parseSchemaBody(schema)
	p.file.Schemas = append(p.file.Schemas, schema)
}

// parseSchemaBody collects schema properties until the closing brace,
// returning its offset (or end of text when unterminated).
func (p *fileParser) parseSchemaBody(schema *Schema) int {
	var pending []Decorator

	for {
		t, ok := p.current()
		if !ok {
			p.errorAt(len(p.text), ErrUnexpectedEOF, "unexpected end of input in schema '%s'", schema.Name)
			return len(p.text)
		}

		switch {
		case t.Kind == TokenPunct && t.Text == "}":
			p.advance()
			return t.Start

		case t.Kind == TokenDecorator:
			pending = append(pending, Decorator{
				Name: strings.TrimPrefix(t.Text, "@"),
				Loc:  p.locate(t.Start),
			})
			p.advance()
			p.skipDecoratorArgs()

		case t.Kind == TokenWord && !IsKeyword(t.Text):
			property := Property{
				Name:       t.Text,
				Loc:        p.locate(t.Start),
				Decorators: pending,
			}
			pending = nil
			p.advance()

			if colon, ok := p.current(); ok && colon.Kind == TokenPunct && colon.Text == ":" {
				p.advance()

				if typeTok, ok := p.current(); ok && typeTok.Kind == TokenWord {
					property.TypeName = typeTok.Text
					p.advance()
				} else {
					p.errorAt(colon.End, ErrMissingToken, "expected type name after ':'")
				}
			}

			if eq, ok := p.current(); ok && eq.Kind == TokenPunct && eq.Text == "=" {
				property.HasDefault = true
				p.advance()
				p.skipValue()
			}

			schema.Properties = append(schema.Properties, property)

		case t.Kind == TokenUnknown:
			p.errorAt(t.Start, ErrUnrecognizedCharacter, "unrecognized character %q", t.Text)
			p.advance()

		default:
			p.advance()
		}
	}
}

// skipValue consumes a property default value: a literal, identifier, or a
// balanced {...} / [...] structure.
func (p *fileParser) skipValue() {
	t, ok := p.current()
	if !ok {
		return
	}

	if t.Kind == TokenPunct && (t.Text == "{" || t.Text == "[") {
		open, closing := t.Text, "}"
		if open == "[" {
			closing = "]"
		}

		depth := 0

		for {
			t, ok = p.current()
			if !ok {
				p.errorAt(len(p.text), ErrUnexpectedEOF, "unexpected end of input in value")
				return
			}

			if t.Kind == TokenPunct {
				switch t.Text {
				case open:
					depth++
				case closing:
					depth--
				}
			}

			p.advance()

			if depth == 0 {
				return
			}
		}
	}

	p.advance()
}

// parseBlock consumes a balanced {...} block starting at the current '{',
// returning the offsets of the braces. Nested declarations inside component
// bodies are handled by the caller re-entering the token stream.
func (p *fileParser) parseBlock(context string) (int, int, bool) {
	open, ok := p.expectPunct("{", context)
	if !ok {
		return 0, 0, false
	}

	depth := 1

	for {
		t, ok := p.current()
		if !ok {
			p.errorAt(len(p.text), ErrUnexpectedEOF, "unexpected end of input, unterminated block")
			return open.Start, len(p.text), true
		}

		if t.Kind == TokenPunct {
			switch t.Text {
			case "{":
				depth++
			case "}":
				depth--
			}
		}

		if t.Kind == TokenUnknown {
			p.errorAt(t.Start, ErrUnrecognizedCharacter, "unrecognized character %q", t.Text)
		}

		p.advance()

		if depth == 0 {
			return open.Start, t.Start, true
		}
	}
}

func (p *fileParser) parseComponent() {
	p.advance()

	first, ok := p.expectWord("component")
	if !ok {
		return
	}

	component := &Component{
		Name: first.Text,
		Loc:  p.locate(first.Start),
	}

	// A second identifier makes this an instance of a definition
	if t, ok := p.current(); ok && t.Kind == TokenWord && !IsKeyword(t.Text) {
		component.InstanceOf = first.Text
		component.Name = t.Text
		component.Loc = p.locate(t.Start)
		p.advance()
	}

	bodyStart, bodyEnd, ok := p.parseBlock("to open the component body")
	if !ok {
		return
	}

	component.BodyStart = bodyStart
	component.BodyEnd = bodyEnd

	// Re-scan the body span for inputs and outputs
	component.Inputs, component.Outputs = p.scanComponentMembers(bodyStart, bodyEnd)

	p.file.Components = append(p.file.Components, component)
}

// scanComponentMembers extracts input and output declarations from a
// component body span without disturbing the parser position.
func (p *fileParser) scanComponentMembers(bodyStart, bodyEnd int) (inputs, outputs []Property) {
	for i, t := range p.tokens {
		if t.Start <= bodyStart || t.End > bodyEnd {
			continue
		}

		if t.Kind != TokenWord || (t.Text != "input" && t.Text != "output") {
			continue
		}

		if i+1 >= len(p.tokens) {
			break
		}

		name := p.tokens[i+1]
		if name.Kind != TokenWord || IsKeyword(name.Text) {
			continue
		}

		property := Property{Name: name.Text, Loc: p.locate(name.Start)}

		if i+3 < len(p.tokens) &&
			p.tokens[i+2].Kind == TokenPunct && p.tokens[i+2].Text == ":" &&
			p.tokens[i+3].Kind == TokenWord {
			property.TypeName = p.tokens[i+3].Text
		}

		if t.Text == "input" {
			inputs = append(inputs, property)
		} else {
			outputs = append(outputs, property)
		}
	}

	return inputs, outputs
}

func (p *fileParser) parseResource() {
	p.advance()

	schemaName, ok := p.expectWord("resource")
	if !ok {
		return
	}

	name, ok := p.expectWord("resource "+schemaName.Text)
	if !ok {
		return
	}

	bodyStart, bodyEnd, ok := p.parseBlock("to open the resource body")
	if !ok {
		return
	}

	p.file.Resources = append(p.file.Resources, &Resource{
		Name:       name.Text,
		SchemaName: schemaName.Text,
		Loc:        p.locate(name.Start),
		BodyStart:  bodyStart,
		BodyEnd:    bodyEnd,
	})
}

func (p *fileParser) parseFunction() {
	p.advance()

	name, ok := p.expectWord("fun")
	if !ok {
		return
	}

	function := &Function{
		Name: name.Text,
		Loc:  p.locate(name.Start),
	}

	if _, ok := p.expectPunct("(", "to open the parameter list"); ok {
		for {
			t, ok := p.current()
			if !ok {
				p.errorAt(len(p.text), ErrUnexpectedEOF, "unexpected end of input in parameter list")
				return
			}

			if t.Kind == TokenPunct && t.Text == ")" {
				p.advance()
				break
			}

			if t.Kind == TokenWord && !IsKeyword(t.Text) {
				param := Property{Name: t.Text, Loc: p.locate(t.Start)}
				p.advance()

				if colon, ok := p.current(); ok && colon.Kind == TokenPunct && colon.Text == ":" {
					p.advance()

					if typeTok, ok := p.current(); ok && typeTok.Kind == TokenWord {
						param.TypeName = typeTok.Text
						p.advance()
					}
				}

				function.Parameters = append(function.Parameters, param)
				continue
			}

			p.advance()
		}
	}

	if colon, ok := p.current(); ok && colon.Kind == TokenPunct && colon.Text == ":" {
		p.advance()

		if typeTok, ok := p.current(); ok && typeTok.Kind == TokenWord {
			function.ReturnType = typeTok.Text
			p.advance()
		}
	}

	if t, ok := p.current(); ok && t.Kind == TokenPunct && t.Text == "{" {
		p.parseBlock("to open the function body")
	}

	p.file.Functions = append(p.file.Functions, function)
}

func (p *fileParser) parseVariable() {
	p.advance()

	name, ok := p.expectWord("var")
	if !ok {
		return
	}

	p.file.Variables = append(p.file.Variables, &Variable{
		Name: name.Text,
		Loc:  p.locate(name.Start),
	})
}

func (p *fileParser) parseTypeAlias() {
	p.advance()

	name, ok := p.expectWord("type")
	if !ok {
		return
	}

	alias := &TypeAlias{Name: name.Text, Loc: p.locate(name.Start)}

	if eq, ok := p.current(); ok && eq.Kind == TokenPunct && eq.Text == "=" {
		p.advance()

		if target, ok := p.current(); ok && target.Kind == TokenWord {
			alias.Target = target.Text
			p.advance()
		}
	}

	p.file.TypeAliases = append(p.file.TypeAliases, alias)
}

// FindSchemaDefinition returns the location of the named schema, or nil.
func FindSchemaDefinition(file *File, name string) *Location {
	if file == nil {
		return nil
	}

	for _, schema := range file.Schemas {
		if schema.Name == name {
			loc := schema.Loc
			return &loc
		}
	}

	return nil
}

// FindComponentDefinition returns the location of the named component
// definition (not instances), or nil.
func FindComponentDefinition(file *File, name string) *Location {
	if file == nil {
		return nil
	}

	for _, component := range file.Components {
		if component.InstanceOf == "" && component.Name == name {
			loc := component.Loc
			return &loc
		}
	}

	return nil
}

// FindFunctionDefinition returns the location of the named function, or nil.
func FindFunctionDefinition(file *File, name string) *Location {
	if file == nil {
		return nil
	}

	for _, function := range file.Functions {
		if function.Name == name {
			loc := function.Loc
			return &loc
		}
	}

	return nil
}

// SchemaProperties returns the property list of the named schema, or nil.
func SchemaProperties(file *File, name string) []Property {
	if file == nil {
		return nil
	}

	for _, schema := range file.Schemas {
		if schema.Name == name {
			return schema.Properties
		}
	}

	return nil
}
