package analysis

import (
	"regexp"
	"strings"
)

// ContextKind classifies the structural position of a cursor offset.
type ContextKind int

const (
	// ContextTopLevel means the cursor is outside any declaration body.
	ContextTopLevel ContextKind = iota

	// ContextSchemaBody means the cursor is inside a schema definition.
	ContextSchemaBody

	// ContextComponentDefBody means the cursor is inside a component
	// definition body.
	ContextComponentDefBody

	// ContextResourceBody means the cursor is inside a resource instance.
	ContextResourceBody

	// ContextComponentInstBody means the cursor is inside a component
	// instance body.
	ContextComponentInstBody

	// ContextDecoratorTarget means the cursor names a decorator.
	ContextDecoratorTarget

	// ContextPropertyAccess means the cursor follows "identifier.".
	ContextPropertyAccess
)

func (k ContextKind) String() string {
	switch k {
	case ContextSchemaBody:
		return "schema-body"
	case ContextComponentDefBody:
		return "component-def-body"
	case ContextResourceBody:
		return "resource-body"
	case ContextComponentInstBody:
		return "component-inst-body"
	case ContextDecoratorTarget:
		return "decorator-target"
	case ContextPropertyAccess:
		return "property-access"
	default:
		return "top-level"
	}
}

// CursorContext describes the structural position of an offset in a file.
// It is computed per request and never persisted.
type CursorContext struct {
	Kind ContextKind

	// TargetKind is the kind of declaration a decorator applies to, for
	// decorator-target contexts: "input", "output", "resource",
	// "component", "schema", "var", "fun", or "schema property".
	TargetKind string

	// ObjectName is the identifier before the dot for property access.
	ObjectName string

	// Enclosing is the resource or component instance containing the
	// cursor, when the context is one of the instance-body kinds.
	Enclosing *Declaration

	// IsValueContext is true when the cursor sits after an assignment
	// operator rather than in a property-name position.
	IsValueContext bool

	// AlreadySetProperties lists property names already assigned in the
	// enclosing block, so completion can exclude them.
	AlreadySetProperties []string
}

var (
	stackedDecoratorsRe = regexp.MustCompile(`^(@\w*(\([^)]*\))?\s*)+`)
	decoratorArgsRe     = regexp.MustCompile(`@\w+\([^)]*$`)
)

// decorator target keywords, in the order the forward scan recognises them
var decoratorTargetKeywords = []string{"input", "output", "resource", "component", "schema", "var", "fun"}

// ClassifyContext determines the structural position of an offset in text.
// First match wins: decorator target, property access, enclosing body,
// then top-level. Malformed input degrades to the best structural guess.
func ClassifyContext(text string, offset int) CursorContext {
	if offset < 0 {
		offset = 0
	}

	if offset > len(text) {
		offset = len(text)
	}

	ctx := CursorContext{Kind: ContextTopLevel}

	// 1. Decorator detection: the offset is preceded by '@', possibly with
	// a partial decorator name in between
	if decoStart, ok := decoratorStart(text, offset); ok {
		ctx.Kind = ContextDecoratorTarget
		ctx.TargetKind = decoratorTarget(text, decoStart)

		return ctx
	}

	// 2. Property access: the offset is preceded by "identifier."
	if object, ok := propertyAccessObject(text, offset); ok {
		ctx.Kind = ContextPropertyAccess
		ctx.ObjectName = object
		ctx.IsValueContext = IsAfterEquals(text, offset)

		return ctx
	}

	// 3. Body classification: the smallest enclosing declaration body
	if enclosing := innermostEnclosingBlock(text, offset); enclosing != nil {
		switch enclosing.Kind {
		case DeclSchema:
			ctx.Kind = ContextSchemaBody
		case DeclComponent:
			if enclosing.ComponentType == "" {
				ctx.Kind = ContextComponentDefBody
			} else {
				ctx.Kind = ContextComponentInstBody
				ctx.Enclosing = enclosing
			}
		case DeclResource:
			ctx.Kind = ContextResourceBody
			ctx.Enclosing = enclosing
		}

		ctx.IsValueContext = IsAfterEquals(text, offset)
		ctx.AlreadySetProperties = CollectProperties(text, enclosing.BodyStart, enclosing.BodyEnd)

		return ctx
	}

	ctx.IsValueContext = IsAfterEquals(text, offset)

	return ctx
}

// decoratorStart reports whether offset is positioned on a decorator name,
// returning the offset of the '@'.
func decoratorStart(text string, offset int) (int, bool) {
	i := offset

	// Step back over a partially typed decorator name
	for i > 0 && isWordChar(text[i-1]) {
		i--
	}

	if i > 0 && text[i-1] == '@' && !IsInsideComment(text, i-1) && !IsInsideString(text, i-1) {
		return i - 1, true
	}

	// An unclosed argument list keeps the cursor in decorator context:
	// "@minLength(3" with the cursor after the 3
	lineStart := strings.LastIndexByte(text[:offset], '\n') + 1

	if m := decoratorArgsRe.FindStringIndex(text[lineStart:offset]); m != nil {
		at := lineStart + m[0]
		if !IsInsideComment(text, at) && !IsInsideString(text, at) {
			return at, true
		}
	}

	return 0, false
}

// decoratorTarget determines what kind of declaration the decorator at
// decoStart applies to. It scans forward past any stacked decorators to the
// next declaration keyword. When no keyword follows but the decorator sits
// inside an unclosed schema body, the target is a schema property.
func decoratorTarget(text string, decoStart int) string {
	rest := text[decoStart:]

	m := stackedDecoratorsRe.FindStringIndex(rest)

	after := rest

	if m != nil {
		after = rest[m[1]:]
	}

	after = strings.TrimLeft(after, " \t\r\n")

	for _, keyword := range decoratorTargetKeywords {
		if strings.HasPrefix(after, keyword) {
			if len(after) == len(keyword) || !isWordChar(after[len(keyword)]) {
				return keyword
			}
		}
	}

	if enclosing := innermostEnclosingBlock(text, decoStart); enclosing != nil && enclosing.Kind == DeclSchema {
		return "schema property"
	}

	return ""
}

// propertyAccessObject reports whether offset is directly preceded by
// "identifier." and returns the identifier.
func propertyAccessObject(text string, offset int) (string, bool) {
	i := offset

	// Step back over a partially typed member name
	for i > 0 && isWordChar(text[i-1]) {
		i--
	}

	if i == 0 || text[i-1] != '.' {
		return "", false
	}

	if IsInsideComment(text, i-1) || IsInsideString(text, i-1) {
		return "", false
	}

	// Step back over whitespace between the dot and the object name
	j := i - 1
	for j > 0 && (text[j-1] == ' ' || text[j-1] == '\t') {
		j--
	}

	object := WordAt(text, j)
	if object == "" {
		return "", false
	}

	// Reject a leading dot with no identifier, and numeric literals
	if !isWordStart(object[0]) {
		return "", false
	}

	return object, true
}

// innermostEnclosingBlock finds the smallest schema, component, or resource
// body containing the offset. Returns nil when the offset is at top level.
func innermostEnclosingBlock(text string, offset int) *Declaration {
	decls := ExtractDeclarations(text, "")

	var innermost *Declaration

	for i := range decls {
		d := &decls[i]

		if d.BodyStart < 0 {
			continue
		}

		if d.Kind != DeclSchema && d.Kind != DeclComponent && d.Kind != DeclResource {
			continue
		}

		if offset <= d.BodyStart || offset > d.BodyEnd {
			continue
		}

		if innermost == nil || d.BodyStart > innermost.BodyStart {
			innermost = d
		}
	}

	return innermost
}
