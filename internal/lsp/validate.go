// Package lsp implements LSP protocol handlers.
package lsp

import (
	"fmt"
	"log"
	"path/filepath"
	"regexp"
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/kitelang/kite-lsp/internal/analysis"
	"github.com/kitelang/kite-lsp/internal/builtins"
	"github.com/kitelang/kite-lsp/internal/parser"
	"github.com/kitelang/kite-lsp/internal/server"
	"github.com/kitelang/kite-lsp/internal/workspace"
)

// ValidateDocument runs every validation pass over a document and returns
// the diagnostics to publish. Quick-fix correlation data for this document
// is rebuilt from scratch on every call, so code actions never see entries
// from a previous version of the text.
func ValidateDocument(srv *server.Server, doc *server.Document) []protocol.Diagnostic {
	if srv.DiagnosticData() != nil {
		srv.DiagnosticData().ResetDocument(doc.URI)
	}

	var diagnostics []protocol.Diagnostic

	diagnostics = append(diagnostics, syntaxDiagnostics(doc)...)

	decls := analysis.ExtractDeclarations(doc.Text, doc.URI)

	diagnostics = append(diagnostics, duplicateDiagnostics(doc.Text, decls)...)
	diagnostics = append(diagnostics, importDiagnostics(srv, doc)...)
	diagnostics = append(diagnostics, typeReferenceDiagnostics(srv, doc, decls)...)
	diagnostics = append(diagnostics, identifierReferenceDiagnostics(srv, doc, decls)...)
	diagnostics = append(diagnostics, decoratorDiagnostics(doc.Text)...)

	// Honor the client-configured problem cap
	if cfg := srv.Config(); cfg != nil && cfg.MaxProblems > 0 && len(diagnostics) > cfg.MaxProblems {
		sortDiagnostics(diagnostics)
		diagnostics = diagnostics[:cfg.MaxProblems]
	}

	log.Printf("Validation of %s produced %d diagnostic(s)\n", doc.URI, len(diagnostics))

	return diagnostics
}

// syntaxDiagnostics converts parser errors into diagnostics, rewriting the
// raw parser wording into actionable messages.
func syntaxDiagnostics(doc *server.Document) []protocol.Diagnostic {
	if doc.Parse == nil {
		return nil
	}

	var diagnostics []protocol.Diagnostic

	for _, syntaxErr := range doc.Parse.Errors {
		line := uint32(max(0, syntaxErr.Line-1))
		character := uint32(max(0, syntaxErr.Column-1))

		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: line, Character: character},
				End:   protocol.Position{Line: line, Character: character + 1},
			},
			Severity: severityPtr(protocol.DiagnosticSeverityError),
			Source:   stringPtr(diagnosticSource),
			Message:  parser.RewriteErrorMessage(syntaxErr.Category, syntaxErr.Message),
		})
	}

	return diagnostics
}

// duplicateDiagnostics flags declarations that rebind a name already taken
// in the same block. The first declaration wins; the later one is flagged.
func duplicateDiagnostics(text string, decls []analysis.Declaration) []protocol.Diagnostic {
	var diagnostics []protocol.Diagnostic

	for _, dup := range analysis.FindDuplicateDeclarations(decls, len(text)) {
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range:    dup.Duplicate.NameRange,
			Severity: severityPtr(protocol.DiagnosticSeverityError),
			Source:   stringPtr(diagnosticSource),
			Message: fmt.Sprintf("Duplicate declaration of '%s'; already declared at line %d",
				dup.Duplicate.Name, dup.First.NameRange.Start.Line+1),
		})
	}

	return diagnostics
}

// importDiagnostics checks every import statement: the target must resolve,
// must not be the file itself, and must not close an import cycle.
func importDiagnostics(srv *server.Server, doc *server.Document) []protocol.Diagnostic {
	imports := analysis.ExtractImportPaths(doc.Text)
	if len(imports) == 0 {
		return nil
	}

	source := newWorkspaceSource(srv)
	files := source.KiteFiles()
	currentPath := analysis.URIToPathOrSelf(doc.URI)

	var diagnostics []protocol.Diagnostic

	for _, imp := range imports {
		importRange := analysis.RangeBetween(doc.Text, imp.Start, imp.End)

		resolved := analysis.ResolveImportPath(imp.Path, currentPath, files)
		if resolved == "" {
			diagnostics = append(diagnostics, protocol.Diagnostic{
				Range:    importRange,
				Severity: severityPtr(protocol.DiagnosticSeverityError),
				Source:   stringPtr(diagnosticSource),
				Message:  fmt.Sprintf("Cannot resolve import '%s'", imp.Path),
			})

			continue
		}

		if analysis.SamePath(resolved, currentPath) {
			diagnostics = append(diagnostics, protocol.Diagnostic{
				Range:    importRange,
				Severity: severityPtr(protocol.DiagnosticSeverityError),
				Source:   stringPtr(diagnosticSource),
				Message:  "File imports itself",
			})

			continue
		}

		cycle := analysis.FindImportCycle(source, currentPath, resolved, map[string]bool{}, nil)
		if cycle != nil {
			names := []string{filepath.Base(currentPath)}
			for _, link := range cycle {
				names = append(names, filepath.Base(link))
			}

			diagnostics = append(diagnostics, protocol.Diagnostic{
				Range:    importRange,
				Severity: severityPtr(protocol.DiagnosticSeverityError),
				Source:   stringPtr(diagnosticSource),
				Message:  "Import cycle detected: " + strings.Join(names, " -> "),
			})
		}
	}

	return diagnostics
}

// typeRef is one use of a type name in a declaration header.
type typeRef struct {
	Name     string
	KindWord string // "Schema", "Component", or "Type"
	Range    protocol.Range
}

// collectTypeRefs gathers the type names a document's declarations refer
// to: resource schemas, component instance types, input/output/alias types.
func collectTypeRefs(text string, decls []analysis.Declaration) []typeRef {
	var refs []typeRef

	add := func(decl analysis.Declaration, name, kindWord string) {
		if name == "" || builtins.IsBuiltinType(name) {
			return
		}

		refs = append(refs, typeRef{
			Name:     name,
			KindWord: kindWord,
			Range:    headerNameRange(text, decl, name),
		})
	}

	for _, decl := range decls {
		switch decl.Kind {
		case analysis.DeclResource:
			add(decl, decl.SchemaName, "Schema")
		case analysis.DeclComponent:
			if decl.ComponentType != "" {
				add(decl, decl.ComponentType, "Component")
			}
		case analysis.DeclInput, analysis.DeclOutput:
			add(decl, decl.TypeName, "Type")
		case analysis.DeclTypeAlias:
			add(decl, decl.TypeName, "Type")
		}
	}

	return refs
}

// headerNameRange locates a type name within a declaration's header line
// and returns its range. Falls back to the declaration's name range when
// the text scan fails.
func headerNameRange(text string, decl analysis.Declaration, name string) protocol.Range {
	start := analysis.PositionToOffset(text, decl.Range.Start)

	headerEnd := start
	for headerEnd < len(text) && text[headerEnd] != '{' && text[headerEnd] != '\n' {
		headerEnd++
	}

	idx := strings.Index(text[start:headerEnd], name)
	if idx < 0 {
		return decl.NameRange
	}

	return analysis.RangeBetween(text, start+idx, start+idx+len(name))
}

// typeReferenceDiagnostics resolves every type reference against local
// declarations, then the workspace index. A symbol defined elsewhere but
// not imported gets a quick-fixable "not imported" diagnostic; a symbol
// defined nowhere gets "Cannot resolve" with a near-miss suggestion.
func typeReferenceDiagnostics(srv *server.Server, doc *server.Document, decls []analysis.Declaration) []protocol.Diagnostic {
	refs := collectTypeRefs(doc.Text, decls)
	if len(refs) == 0 {
		return nil
	}

	localTypes := make(map[string]bool)
	for _, decl := range decls {
		switch decl.Kind {
		case analysis.DeclSchema, analysis.DeclComponent, analysis.DeclTypeAlias:
			localTypes[decl.Name] = true
		}
	}

	imports := analysis.ExtractImportPaths(doc.Text)
	currentPath := analysis.URIToPathOrSelf(doc.URI)
	index := srv.WorkspaceIndex()

	var diagnostics []protocol.Diagnostic

	for _, ref := range refs {
		if localTypes[ref.Name] {
			continue
		}

		definingURI := findTypeDefinition(index, ref.Name, doc.URI)
		if definingURI != "" {
			definingPath := analysis.URIToPathOrSelf(definingURI)

			if analysis.IsSymbolImported(imports, ref.Name, definingPath, currentPath) {
				continue
			}

			message := fmt.Sprintf("%s '%s' is not imported. Found in '%s'.",
				ref.KindWord, ref.Name, filepath.Base(definingPath))

			key := server.DiagnosticKey(ref.Range.Start.Line, ref.Range.Start.Character, ref.Name)

			if srv.DiagnosticData() != nil {
				srv.DiagnosticData().Put(doc.URI, key, server.DiagnosticData{
					SymbolName:   ref.Name,
					DefiningFile: definingPath,
					ImportPath:   suggestedImportPath(currentPath, definingPath),
				})
			}

			diagnostics = append(diagnostics, protocol.Diagnostic{
				Range:    ref.Range,
				Severity: severityPtr(protocol.DiagnosticSeverityError),
				Source:   stringPtr(diagnosticSource),
				Message:  message,
				Data:     key,
			})

			continue
		}

		message := fmt.Sprintf("Cannot resolve %s", ref.Name)

		if suggestion := analysis.SuggestClosest(ref.Name, typeCandidates(localTypes, index)); suggestion != "" {
			message += fmt.Sprintf(". Did you mean '%s'?", suggestion)
		}

		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range:    ref.Range,
			Severity: severityPtr(protocol.DiagnosticSeverityError),
			Source:   stringPtr(diagnosticSource),
			Message:  message,
		})
	}

	return diagnostics
}

// findTypeDefinition returns the URI of a file (other than currentURI) that
// declares the named type, or "" when no workspace file does.
func findTypeDefinition(index *workspace.SymbolIndex, name, currentURI string) string {
	if index == nil {
		return ""
	}

	for _, loc := range index.FindSymbol(name) {
		if loc.Location.URI == currentURI {
			continue
		}

		switch loc.DeclKind {
		case analysis.DeclSchema, analysis.DeclComponent, analysis.DeclTypeAlias:
			return loc.Location.URI
		}
	}

	return ""
}

// typeCandidates builds the suggestion pool for "Did you mean" hints.
func typeCandidates(localTypes map[string]bool, index *workspace.SymbolIndex) []string {
	candidates := builtins.TypeNames()

	for name := range localTypes {
		candidates = append(candidates, name)
	}

	if index != nil {
		candidates = append(candidates, index.AllSymbolNames()...)
	}

	return candidates
}

// suggestedImportPath computes the path an added import statement should
// use: relative to the importing file when possible, else the defining
// file's base name.
func suggestedImportPath(currentPath, definingPath string) string {
	rel, err := filepath.Rel(filepath.Dir(currentPath), definingPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.Base(definingPath)
	}

	rel = filepath.ToSlash(rel)
	if !strings.HasPrefix(rel, ".") {
		rel = "./" + rel
	}

	return rel
}

// identifierReferenceDiagnostics resolves every identifier use in expression
// position against the declarations visible at that offset. A block-scoped
// name used before its declaration or outside its block does not resolve,
// even though the declaration exists elsewhere in the file.
func identifierReferenceDiagnostics(srv *server.Server, doc *server.Document, decls []analysis.Declaration) []protocol.Diagnostic {
	tokens := significantTokens(parser.Tokenize(doc.Text))
	index := srv.WorkspaceIndex()

	var diagnostics []protocol.Diagnostic

	inImport := false
	decoratorArgDepth := 0

	for i, tok := range tokens {
		// Import statements name symbols that live in other files; the
		// import passes judge those.
		if tok.Kind == parser.TokenWord && tok.Text == "import" {
			inImport = true
			continue
		}

		if inImport {
			if tok.Kind == parser.TokenString {
				inImport = false
			}

			continue
		}

		// Decorator arguments carry literals and property names, not
		// expression identifiers.
		if tok.Kind == parser.TokenDecorator {
			if i+1 < len(tokens) && isPunct(tokens[i+1], "(") {
				decoratorArgDepth = 1
			}

			continue
		}

		if decoratorArgDepth > 0 {
			switch {
			case isPunct(tok, "("):
				decoratorArgDepth++
			case isPunct(tok, ")"):
				decoratorArgDepth--
			}

			continue
		}

		if tok.Kind != parser.TokenWord || parser.IsKeyword(tok.Text) {
			continue
		}

		if builtins.IsBuiltinFunction(tok.Text) || builtins.IsBuiltinType(tok.Text) {
			continue
		}

		if !inReferencePosition(tokens, i) {
			continue
		}

		if resolvesAt(decls, tok.Text, tok.Start) {
			continue
		}

		if index != nil && len(index.FindSymbol(tok.Text)) > 0 {
			continue
		}

		message := fmt.Sprintf("Cannot resolve %s", tok.Text)

		if suggestion := analysis.SuggestClosest(tok.Text, referenceCandidates(decls, tok.Start)); suggestion != "" {
			message += fmt.Sprintf(". Did you mean '%s'?", suggestion)
		}

		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range:    analysis.RangeBetween(doc.Text, tok.Start, tok.End),
			Severity: severityPtr(protocol.DiagnosticSeverityError),
			Source:   stringPtr(diagnosticSource),
			Message:  message,
		})
	}

	return diagnostics
}

// significantTokens drops whitespace and comments so neighbor checks see
// the grammar's view of the token stream.
func significantTokens(tokens []parser.Token) []parser.Token {
	filtered := tokens[:0:0]

	for _, tok := range tokens {
		switch tok.Kind {
		case parser.TokenWhitespace, parser.TokenLineComment, parser.TokenBlockComment:
		default:
			filtered = append(filtered, tok)
		}
	}

	return filtered
}

func isPunct(tok parser.Token, text string) bool {
	return tok.Kind == parser.TokenPunct && tok.Text == text
}

// inReferencePosition reports whether the word token at index i is used as
// an expression identifier rather than a declared name, a member, a type
// annotation, or a property being assigned.
func inReferencePosition(tokens []parser.Token, i int) bool {
	if i > 0 {
		prev := tokens[i-1]

		// Member access and type annotation positions
		if isPunct(prev, ".") || isPunct(prev, ":") {
			return false
		}

		// Declaration headers: the word after a declaring keyword is a
		// type or a name; the word after another identifier is the
		// instance name slot.
		if prev.Kind == parser.TokenWord {
			if declaringKeywords[prev.Text] || !parser.IsKeyword(prev.Text) {
				return false
			}
		}

		// Type alias right-hand sides are judged by the type pass
		if i >= 3 && isPunct(prev, "=") &&
			tokens[i-3].Kind == parser.TokenWord && tokens[i-3].Text == "type" {
			return false
		}
	}

	if i+1 < len(tokens) {
		next := tokens[i+1]

		// Property names and parameter names are declared with ':'
		if isPunct(next, ":") {
			return false
		}

		// Assignment target; '==' comparisons keep the word in
		// reference position.
		if isPunct(next, "=") && (i+2 >= len(tokens) || !isPunct(tokens[i+2], "=")) {
			return false
		}
	}

	return true
}

var declaringKeywords = map[string]bool{
	"import": true, "schema": true, "component": true, "resource": true,
	"fun": true, "var": true, "type": true, "input": true, "output": true,
	"for": true,
}

// resolvesAt reports whether name is bound by a declaration visible at the
// given offset.
func resolvesAt(decls []analysis.Declaration, name string, offset int) bool {
	for i := range decls {
		if decls[i].Name == name && decls[i].VisibleAt(offset) {
			return true
		}
	}

	return false
}

// referenceCandidates builds the suggestion pool for unresolved identifier
// hints: declarations visible at the offset plus the builtin functions.
func referenceCandidates(decls []analysis.Declaration, offset int) []string {
	candidates := builtins.FunctionNames()

	for i := range decls {
		if decls[i].VisibleAt(offset) {
			candidates = append(candidates, decls[i].Name)
		}
	}

	return candidates
}

var decoratorUseRe = regexp.MustCompile(`@(\w+)`)

// decoratorDiagnostics flags decorator names outside the builtin catalog.
// Unknown decorators are warnings, not errors, since deployments may carry
// custom ones.
func decoratorDiagnostics(text string) []protocol.Diagnostic {
	var diagnostics []protocol.Diagnostic

	for _, m := range decoratorUseRe.FindAllStringSubmatchIndex(text, -1) {
		if analysis.IsInsideComment(text, m[0]) || analysis.IsInsideString(text, m[0]) {
			continue
		}

		name := text[m[2]:m[3]]
		if builtins.LookupDecorator(name) != nil {
			continue
		}

		message := fmt.Sprintf("Unknown decorator '@%s'", name)

		var decoNames []string
		for _, deco := range builtins.DecoratorsForTarget("") {
			decoNames = append(decoNames, deco.Name)
		}

		if suggestion := analysis.SuggestClosest(name, decoNames); suggestion != "" {
			message += fmt.Sprintf(". Did you mean '@%s'?", suggestion)
		}

		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range:    analysis.RangeBetween(text, m[0], m[1]),
			Severity: severityPtr(protocol.DiagnosticSeverityWarning),
			Source:   stringPtr(diagnosticSource),
			Message:  message,
		})
	}

	return diagnostics
}
