package analysis

import (
	"regexp"
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// DeclKind classifies a named binding extracted from Kite source.
type DeclKind int

const (
	DeclVariable DeclKind = iota
	DeclForLoopVariable
	DeclFunction
	DeclSchema
	DeclResource
	DeclComponent
	DeclInput
	DeclOutput
	DeclTypeAlias
)

func (k DeclKind) String() string {
	switch k {
	case DeclVariable:
		return "variable"
	case DeclForLoopVariable:
		return "for-loop-variable"
	case DeclFunction:
		return "function"
	case DeclSchema:
		return "schema"
	case DeclResource:
		return "resource"
	case DeclComponent:
		return "component"
	case DeclInput:
		return "input"
	case DeclOutput:
		return "output"
	case DeclTypeAlias:
		return "type-alias"
	default:
		return "unknown"
	}
}

// Declaration is a named binding extracted from one file. Declarations are
// immutable once produced; extraction is re-run wholesale on every change.
type Declaration struct {
	Name string
	Kind DeclKind

	// TypeName is the declared type for inputs, outputs, and type aliases.
	TypeName string

	// SchemaName is the schema a resource instance is typed by.
	SchemaName string

	// ComponentType is the component definition a component instance
	// instantiates. Empty for component definitions.
	ComponentType string

	// Range spans the whole declaration, NameRange only the identifier.
	Range     protocol.Range
	NameRange protocol.Range

	// ScopeStart and ScopeEnd bound lexical visibility as byte offsets.
	// Both are -1 for declarations visible throughout the file.
	ScopeStart int
	ScopeEnd   int

	// BodyStart and BodyEnd bound the {...} body, when the declaration has
	// one. Both are -1 otherwise.
	BodyStart int
	BodyEnd   int

	URI string
}

// IsGlobal reports whether the declaration is visible throughout its file.
func (d *Declaration) IsGlobal() bool {
	return d.ScopeStart < 0
}

// VisibleAt reports whether the declaration is visible at the given offset.
// Block-scoped declarations are visible only within their scope range and
// only after their own name.
func (d *Declaration) VisibleAt(offset int) bool {
	if d.IsGlobal() {
		return true
	}

	return offset >= d.ScopeStart && offset <= d.ScopeEnd
}

var (
	schemaHeaderRe       = regexp.MustCompile(`^schema\s+([A-Za-z_]\w*)\s*\{`)
	componentHeaderRe    = regexp.MustCompile(`^component\s+([A-Za-z_]\w*)(?:\s+([A-Za-z_]\w*))?\s*\{`)
	resourceHeaderRe     = regexp.MustCompile(`^resource\s+([A-Za-z_]\w*)\s+([A-Za-z_]\w*)\s*\{`)
	funHeaderRe          = regexp.MustCompile(`^fun\s+([A-Za-z_]\w*)\s*\(([^)]*)\)\s*(?::\s*([A-Za-z_][\w.\[\]]*)\s*)?\{?`)
	varDeclRe            = regexp.MustCompile(`^var\s+([A-Za-z_]\w*)(?:\s*:\s*([A-Za-z_][\w.\[\]]*))?`)
	forLoopRe            = regexp.MustCompile(`^for\s+([A-Za-z_]\w*)\s+in\b`)
	typeAliasRe          = regexp.MustCompile(`^type\s+([A-Za-z_]\w*)\s*=\s*([A-Za-z_][\w.\[\]]*)?`)
	inputDeclRe          = regexp.MustCompile(`^input\s+([A-Za-z_]\w*)\s*:\s*([A-Za-z_][\w.\[\]]*)`)
	outputDeclRe         = regexp.MustCompile(`^output\s+([A-Za-z_]\w*)\s*(?::\s*([A-Za-z_][\w.\[\]]*))?`)
	funParamRe           = regexp.MustCompile(`([A-Za-z_]\w*)\s*(?::\s*([A-Za-z_][\w.\[\]]*))?`)
	propertyAssignmentRe = regexp.MustCompile(`^\s*([A-Za-z_]\w*)\s*=[^=]`)
)

// ExtractDeclarations extracts every named binding from one file's text.
// The result is ordered by source position. Nested bodies are scanned with
// brace-depth-bounded sub-scans so sibling blocks never leak declarations
// into each other. Malformed input yields a best-effort, possibly partial
// result, never an error.
func ExtractDeclarations(text, uri string) []Declaration {
	classes := ScanText(text)

	var decls []Declaration

	extractBlock(text, classes, uri, 0, len(text), true, &decls)

	return decls
}

// extractBlock scans [start,end) for declarations at the current block depth,
// recursing into declaration bodies but skipping over nested value literals.
func extractBlock(text string, classes []ByteClass, uri string, start, end int, topLevel bool, decls *[]Declaration) {
	if end > len(text) {
		end = len(text)
	}

	i := start

	for i < end {
		if classes[i] != ClassCode {
			i++
			continue
		}

		c := text[i]

		// A value literal opens a brace at our depth without declaring
		// anything: skip its whole body so inner text cannot match.
		if c == '{' {
			i = findMatchingBrace(text, classes, i) + 1
			continue
		}

		if !isWordStart(c) || (i > 0 && isWordChar(text[i-1])) {
			i++
			continue
		}

		next := matchDeclaration(text, classes, uri, i, end, topLevel, decls)
		if next > i {
			i = next
			continue
		}

		// Not a declaration keyword: skip the word
		for i < end && isWordChar(text[i]) {
			i++
		}
	}
}

// matchDeclaration tries to match a declaration keyword at offset i.
// It appends any extracted declarations and returns the offset to resume
// scanning at, or i when nothing matched.
func matchDeclaration(text string, classes []ByteClass, uri string, i, end int, topLevel bool, decls *[]Declaration) int {
	rest := text[i:end]

	switch {
	case strings.HasPrefix(rest, "schema"):
		m := schemaHeaderRe.FindStringSubmatchIndex(rest)
		if m == nil {
			return i
		}

		nameStart, nameEnd := i+m[2], i+m[3]
		bodyOpen := i + m[1] - 1
		bodyClose := findMatchingBrace(text, classes, bodyOpen)

		*decls = append(*decls, Declaration{
			Name:       text[nameStart:nameEnd],
			Kind:       DeclSchema,
			Range:      RangeBetween(text, i, min(bodyClose+1, len(text))),
			NameRange:  RangeBetween(text, nameStart, nameEnd),
			ScopeStart: -1,
			ScopeEnd:   -1,
			BodyStart:  bodyOpen,
			BodyEnd:    bodyClose,
			URI:        uri,
		})

		// Schema bodies hold properties, not declarations
		return bodyClose + 1

	case strings.HasPrefix(rest, "component"):
		m := componentHeaderRe.FindStringSubmatchIndex(rest)
		if m == nil {
			return i
		}

		bodyOpen := i + m[1] - 1
		bodyClose := findMatchingBrace(text, classes, bodyOpen)

		decl := Declaration{
			Kind:       DeclComponent,
			Range:      RangeBetween(text, i, min(bodyClose+1, len(text))),
			ScopeStart: -1,
			ScopeEnd:   -1,
			BodyStart:  bodyOpen,
			BodyEnd:    bodyClose,
			URI:        uri,
		}

		if m[6] >= 0 {
			// Two identifiers: an instance of a component definition
			nameStart, nameEnd := i+m[6], i+m[7]
			decl.Name = text[nameStart:nameEnd]
			decl.ComponentType = text[i+m[2] : i+m[3]]
			decl.NameRange = RangeBetween(text, nameStart, nameEnd)
		} else {
			// One identifier: the definition itself
			nameStart, nameEnd := i+m[2], i+m[3]
			decl.Name = text[nameStart:nameEnd]
			decl.NameRange = RangeBetween(text, nameStart, nameEnd)
		}

		if !topLevel {
			decl.ScopeStart = PositionToOffset(text, decl.NameRange.Start)
			decl.ScopeEnd = end
		}

		*decls = append(*decls, decl)
		extractBlock(text, classes, uri, bodyOpen+1, bodyClose, false, decls)

		return bodyClose + 1

	case strings.HasPrefix(rest, "resource"):
		m := resourceHeaderRe.FindStringSubmatchIndex(rest)
		if m == nil {
			return i
		}

		nameStart, nameEnd := i+m[4], i+m[5]
		bodyOpen := i + m[1] - 1
		bodyClose := findMatchingBrace(text, classes, bodyOpen)

		decl := Declaration{
			Name:       text[nameStart:nameEnd],
			Kind:       DeclResource,
			SchemaName: text[i+m[2] : i+m[3]],
			Range:      RangeBetween(text, i, min(bodyClose+1, len(text))),
			NameRange:  RangeBetween(text, nameStart, nameEnd),
			ScopeStart: -1,
			ScopeEnd:   -1,
			BodyStart:  bodyOpen,
			BodyEnd:    bodyClose,
			URI:        uri,
		}

		if !topLevel {
			decl.ScopeStart = nameStart
			decl.ScopeEnd = end
		}

		*decls = append(*decls, decl)
		extractBlock(text, classes, uri, bodyOpen+1, bodyClose, false, decls)

		return bodyClose + 1

	case strings.HasPrefix(rest, "fun"):
		m := funHeaderRe.FindStringSubmatchIndex(rest)
		if m == nil {
			return i
		}

		nameStart, nameEnd := i+m[2], i+m[3]

		decl := Declaration{
			Name:       text[nameStart:nameEnd],
			Kind:       DeclFunction,
			NameRange:  RangeBetween(text, nameStart, nameEnd),
			ScopeStart: -1,
			ScopeEnd:   -1,
			BodyStart:  -1,
			BodyEnd:    -1,
			URI:        uri,
		}

		if m[6] >= 0 {
			decl.TypeName = text[i+m[6] : i+m[7]]
		}

		headerEnd := i + m[1]
		bodyOpen := strings.IndexByte(text[nameEnd:min(headerEnd+1, len(text))], '{')

		if bodyOpen >= 0 {
			bodyOpen += nameEnd
			bodyClose := findMatchingBrace(text, classes, bodyOpen)
			decl.BodyStart = bodyOpen
			decl.BodyEnd = bodyClose
			decl.Range = RangeBetween(text, i, min(bodyClose+1, len(text)))

			if !topLevel {
				decl.ScopeStart = nameStart
				decl.ScopeEnd = end
			}

			*decls = append(*decls, decl)
			extractParameters(text, uri, i+m[4], i+m[5], bodyClose, decls)
			extractBlock(text, classes, uri, bodyOpen+1, bodyClose, false, decls)

			return bodyClose + 1
		}

		decl.Range = RangeBetween(text, i, headerEnd)
		*decls = append(*decls, decl)

		return headerEnd

	case strings.HasPrefix(rest, "var"):
		m := varDeclRe.FindStringSubmatchIndex(rest)
		if m == nil {
			return i
		}

		nameStart, nameEnd := i+m[2], i+m[3]

		decl := Declaration{
			Name:       text[nameStart:nameEnd],
			Kind:       DeclVariable,
			Range:      RangeBetween(text, i, i+m[1]),
			NameRange:  RangeBetween(text, nameStart, nameEnd),
			ScopeStart: nameStart,
			ScopeEnd:   end,
			BodyStart:  -1,
			BodyEnd:    -1,
			URI:        uri,
		}

		if m[4] >= 0 {
			decl.TypeName = text[i+m[4] : i+m[5]]
		}

		*decls = append(*decls, decl)

		return i + m[1]

	case strings.HasPrefix(rest, "for"):
		m := forLoopRe.FindStringSubmatchIndex(rest)
		if m == nil {
			return i
		}

		nameStart, nameEnd := i+m[2], i+m[3]

		// The loop variable is scoped to the loop body when one opens on
		// this statement, otherwise to the enclosing block
		scopeEnd := end

		if open := strings.IndexByte(text[nameEnd:end], '{'); open >= 0 {
			bodyOpen := nameEnd + open
			if lineBreak := strings.IndexByte(text[nameEnd:bodyOpen], '\n'); lineBreak < 0 {
				scopeEnd = findMatchingBrace(text, classes, bodyOpen)
			}
		}

		*decls = append(*decls, Declaration{
			Name:       text[nameStart:nameEnd],
			Kind:       DeclForLoopVariable,
			Range:      RangeBetween(text, i, i+m[1]),
			NameRange:  RangeBetween(text, nameStart, nameEnd),
			ScopeStart: nameStart,
			ScopeEnd:   scopeEnd,
			BodyStart:  -1,
			BodyEnd:    -1,
			URI:        uri,
		})

		return i + m[1]

	case strings.HasPrefix(rest, "type"):
		m := typeAliasRe.FindStringSubmatchIndex(rest)
		if m == nil {
			return i
		}

		nameStart, nameEnd := i+m[2], i+m[3]

		decl := Declaration{
			Name:       text[nameStart:nameEnd],
			Kind:       DeclTypeAlias,
			Range:      RangeBetween(text, i, i+m[1]),
			NameRange:  RangeBetween(text, nameStart, nameEnd),
			ScopeStart: -1,
			ScopeEnd:   -1,
			BodyStart:  -1,
			BodyEnd:    -1,
			URI:        uri,
		}

		if m[4] >= 0 {
			decl.TypeName = text[i+m[4] : i+m[5]]
		}

		*decls = append(*decls, decl)

		return i + m[1]

	case strings.HasPrefix(rest, "input"):
		return matchTypedMember(text, uri, i, end, topLevel, inputDeclRe, DeclInput, decls)

	case strings.HasPrefix(rest, "output"):
		return matchTypedMember(text, uri, i, end, topLevel, outputDeclRe, DeclOutput, decls)
	}

	return i
}

// matchTypedMember extracts an input or output declaration.
func matchTypedMember(text, uri string, i, end int, topLevel bool, re *regexp.Regexp, kind DeclKind, decls *[]Declaration) int {
	m := re.FindStringSubmatchIndex(text[i:end])
	if m == nil {
		return i
	}

	nameStart, nameEnd := i+m[2], i+m[3]

	decl := Declaration{
		Name:       text[nameStart:nameEnd],
		Kind:       kind,
		Range:      RangeBetween(text, i, i+m[1]),
		NameRange:  RangeBetween(text, nameStart, nameEnd),
		ScopeStart: -1,
		ScopeEnd:   -1,
		BodyStart:  -1,
		BodyEnd:    -1,
		URI:        uri,
	}

	if m[4] >= 0 {
		decl.TypeName = text[i+m[4] : i+m[5]]
	}

	if !topLevel {
		decl.ScopeStart = nameStart
		decl.ScopeEnd = end
	}

	*decls = append(*decls, decl)

	return i + m[1]
}

// extractParameters models function parameters as variables scoped to the
// function body.
func extractParameters(text, uri string, paramsStart, paramsEnd, bodyEnd int, decls *[]Declaration) {
	params := text[paramsStart:paramsEnd]
	partStart := 0

	for _, part := range strings.Split(params, ",") {
		offset := paramsStart + partStart
		partStart += len(part) + 1

		m := funParamRe.FindStringSubmatchIndex(part)
		if m == nil {
			continue
		}
		nameStart, nameEnd := offset+m[2], offset+m[3]

		decl := Declaration{
			Name:       text[nameStart:nameEnd],
			Kind:       DeclVariable,
			Range:      RangeBetween(text, nameStart, offset+m[1]),
			NameRange:  RangeBetween(text, nameStart, nameEnd),
			ScopeStart: nameStart,
			ScopeEnd:   bodyEnd,
			BodyStart:  -1,
			BodyEnd:    -1,
			URI:        uri,
		}

		if m[4] >= 0 {
			decl.TypeName = part[m[4]:m[5]]
		}

		*decls = append(*decls, decl)
	}
}

// DuplicateDeclaration pairs a declaration with the earlier one it collides
// with. The first occurrence always wins; later same-name entries in the
// same block are flagged.
type DuplicateDeclaration struct {
	First     Declaration
	Duplicate Declaration
}

// FindDuplicateDeclarations reports declarations that reuse a name already
// bound in the same block. textLen is needed to compare file-global scopes
// with top-level variable scopes, which extend to the end of the file.
func FindDuplicateDeclarations(decls []Declaration, textLen int) []DuplicateDeclaration {
	type blockKey struct {
		name string
		end  int
	}

	seen := make(map[blockKey]Declaration)

	var duplicates []DuplicateDeclaration

	for _, d := range decls {
		effectiveEnd := d.ScopeEnd
		if d.IsGlobal() {
			effectiveEnd = textLen
		}

		key := blockKey{name: d.Name, end: effectiveEnd}

		if first, ok := seen[key]; ok {
			duplicates = append(duplicates, DuplicateDeclaration{First: first, Duplicate: d})
			continue
		}

		seen[key] = d
	}

	return duplicates
}

// CollectProperties returns the property names already assigned at the top
// level of the block body [bodyStart, bodyEnd]. Assignments nested inside
// object or array values are excluded.
func CollectProperties(text string, bodyStart, bodyEnd int) []string {
	if bodyStart < 0 || bodyStart >= len(text) {
		return nil
	}

	if bodyEnd > len(text) {
		bodyEnd = len(text)
	}

	classes := ScanText(text)
	body := text[bodyStart:bodyEnd]

	var names []string

	offset := 0

	for _, line := range strings.Split(body, "\n") {
		m := propertyAssignmentRe.FindStringSubmatchIndex(line)

		if m != nil {
			abs := bodyStart + offset + m[2]
			if classes[abs] == ClassCode && !IsInsideNestedStructure(text, bodyStart, abs) {
				names = append(names, line[m[2]:m[3]])
			}
		}

		offset += len(line) + 1
	}

	return names
}
