// Package lsp implements LSP protocol handlers.
package lsp

import (
	"log"
	"strings"
	"time"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/kitelang/kite-lsp/internal/analysis"
	"github.com/kitelang/kite-lsp/internal/builtins"
	"github.com/kitelang/kite-lsp/internal/parser"
	"github.com/kitelang/kite-lsp/internal/server"
)

// maxCompletionItems caps the list size sent to the client.
const maxCompletionItems = 200

// completionKeywords are offered in top-level and value positions.
var completionKeywords = []string{
	"import", "from", "schema", "component", "resource", "fun", "var",
	"type", "input", "output", "for", "in", "if", "else", "return",
	"true", "false",
}

// Completion handles the textDocument/completion request.
// Suggestions are driven by the structural position of the cursor: decorator
// names after '@', schema properties after '.', unset properties inside
// instance bodies, and scope-visible symbols elsewhere.
func Completion(context *glsp.Context, params *protocol.CompletionParams) (any, error) {
	startTime := time.Now()

	defer func() {
		log.Printf("Completion took %v", time.Since(startTime))
	}()

	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		log.Println("Warning: server instance not available in Completion")
		return []protocol.CompletionItem{}, nil
	}

	uri := params.TextDocument.URI
	position := params.Position

	doc, exists := srv.Documents().Get(uri)
	if !exists {
		log.Printf("Document not found for completion: %s\n", uri)
		return emptyCompletionList(), nil
	}

	offset := analysis.PositionToOffset(doc.Text, position)

	// No completion inside comments or string literals
	if analysis.IsInsideComment(doc.Text, offset) || analysis.IsInsideString(doc.Text, offset) {
		log.Println("Completion suppressed (inside comment or string)")
		return emptyCompletionList(), nil
	}

	cursorCtx := analysis.ClassifyContext(doc.Text, offset)

	log.Printf("Completion context at %s %d:%d is %s\n",
		uri, position.Line, position.Character, cursorCtx.Kind)

	var items []protocol.CompletionItem

	switch cursorCtx.Kind {
	case analysis.ContextDecoratorTarget:
		items = decoratorItems(cursorCtx.TargetKind)

	case analysis.ContextPropertyAccess:
		items = propertyAccessItems(srv, doc, cursorCtx.ObjectName, offset)

	case analysis.ContextResourceBody:
		items = instanceBodyItems(srv, doc, cursorCtx, offset)

	case analysis.ContextComponentInstBody:
		items = instanceBodyItems(srv, doc, cursorCtx, offset)

	case analysis.ContextSchemaBody, analysis.ContextComponentDefBody:
		if cursorCtx.IsValueContext {
			items = scopeItems(srv, doc, offset)
		} else {
			items = typeNameItems(srv, doc)
		}

	default:
		items = scopeItems(srv, doc, offset)
	}

	// Filter by the partial word under the cursor
	prefix := completionPrefix(doc.Text, offset)
	if prefix != "" {
		items = filterByPrefix(items, prefix)
	}

	if len(items) > maxCompletionItems {
		items = items[:maxCompletionItems]
	}

	log.Printf("Returning %d completion items\n", len(items))

	return &protocol.CompletionList{
		IsIncomplete: len(items) >= maxCompletionItems,
		Items:        items,
	}, nil
}

func emptyCompletionList() *protocol.CompletionList {
	return &protocol.CompletionList{IsIncomplete: false, Items: []protocol.CompletionItem{}}
}

// decoratorItems lists the decorators applicable to the declaration kind
// following the '@'.
func decoratorItems(targetKind string) []protocol.CompletionItem {
	var items []protocol.CompletionItem

	for _, deco := range builtins.DecoratorsForTarget(targetKind) {
		kind := protocol.CompletionItemKindFunction
		insert := deco.Name

		if deco.HasArguments {
			insert = deco.Name + "("
		}

		items = append(items, protocol.CompletionItem{
			Label:         deco.Name,
			Kind:          &kind,
			Detail:        stringPtr("decorator"),
			Documentation: deco.Documentation,
			InsertText:    &insert,
		})
	}

	return items
}

// propertyAccessItems resolves the identifier before the dot to a declared
// instance and offers its schema properties or component outputs.
func propertyAccessItems(srv *server.Server, doc *server.Document, objectName string, offset int) []protocol.CompletionItem {
	if objectName == "" {
		return nil
	}

	decls := analysis.ExtractDeclarations(doc.Text, doc.URI)

	for _, decl := range decls {
		if decl.Name != objectName || !decl.VisibleAt(offset) {
			continue
		}

		switch decl.Kind {
		case analysis.DeclResource:
			return schemaPropertyItems(srv, doc, decl.SchemaName, nil)
		case analysis.DeclComponent:
			if decl.ComponentType != "" {
				return componentOutputItems(srv, doc, decl.ComponentType)
			}
		case analysis.DeclInput, analysis.DeclOutput:
			return schemaPropertyItems(srv, doc, decl.TypeName, nil)
		}
	}

	return nil
}

// instanceBodyItems offers the properties still unset in a resource or
// component instance body. In value position it falls back to scope
// completion instead.
func instanceBodyItems(srv *server.Server, doc *server.Document, cursorCtx analysis.CursorContext, offset int) []protocol.CompletionItem {
	if cursorCtx.IsValueContext {
		return scopeItems(srv, doc, offset)
	}

	if cursorCtx.Enclosing == nil {
		return nil
	}

	// Inside a nested object or array literal the enclosing instance's
	// property names do not apply.
	if analysis.IsInsideNestedStructure(doc.Text, cursorCtx.Enclosing.BodyStart, offset) {
		return scopeItems(srv, doc, offset)
	}

	typeName := cursorCtx.Enclosing.SchemaName
	if cursorCtx.Enclosing.Kind == analysis.DeclComponent {
		typeName = cursorCtx.Enclosing.ComponentType
	}

	exclude := make(map[string]bool, len(cursorCtx.AlreadySetProperties))
	for _, name := range cursorCtx.AlreadySetProperties {
		exclude[name] = true
	}

	if cursorCtx.Kind == analysis.ContextComponentInstBody {
		return componentInputItems(srv, doc, typeName, exclude)
	}

	return schemaPropertyItems(srv, doc, typeName, exclude)
}

// schemaPropertyItems lists the properties of a named schema, minus any
// excluded names. The parse tree is preferred; documents with syntax errors
// degrade to a text scan of the schema body.
func schemaPropertyItems(srv *server.Server, doc *server.Document, schemaName string, exclude map[string]bool) []protocol.CompletionItem {
	if schemaName == "" {
		return nil
	}

	var items []protocol.CompletionItem

	kind := protocol.CompletionItemKindProperty

	for _, prop := range findSchemaProperties(srv, doc, schemaName) {
		if exclude[prop.Name] {
			continue
		}

		insert := prop.Name + " = "

		items = append(items, protocol.CompletionItem{
			Label:      prop.Name,
			Kind:       &kind,
			Detail:     stringPtr(prop.TypeName),
			InsertText: &insert,
		})
	}

	return items
}

// findSchemaProperties locates a schema by name in the current document or
// any open document and returns its properties.
func findSchemaProperties(srv *server.Server, doc *server.Document, schemaName string) []parser.Property {
	if props := schemaPropertiesIn(doc, schemaName); props != nil {
		return props
	}

	for _, uri := range srv.Documents().List() {
		if uri == doc.URI {
			continue
		}

		if other, ok := srv.Documents().Get(uri); ok {
			if props := schemaPropertiesIn(other, schemaName); props != nil {
				return props
			}
		}
	}

	// Unopened workspace files still contribute through a disk read
	source := newWorkspaceSource(srv)
	for _, path := range source.KiteFiles() {
		content, ok := source.FileContent(path)
		if !ok {
			continue
		}

		if props := schemaPropertiesInText(content, schemaName); props != nil {
			return props
		}
	}

	return nil
}

// schemaPropertiesIn reads a schema's properties from one document.
func schemaPropertiesIn(doc *server.Document, schemaName string) []parser.Property {
	if tree := doc.Tree(); tree != nil {
		if props := parser.SchemaProperties(tree, schemaName); props != nil {
			return props
		}

		return nil
	}

	return schemaPropertiesInText(doc.Text, schemaName)
}

// schemaPropertiesInText extracts "name: type" members from a schema body
// without a parse tree.
func schemaPropertiesInText(text, schemaName string) []parser.Property {
	for _, decl := range analysis.ExtractDeclarations(text, "") {
		if decl.Kind != analysis.DeclSchema || decl.Name != schemaName {
			continue
		}

		if decl.BodyStart < 0 || decl.BodyEnd < 0 {
			return nil
		}

		var props []parser.Property

		body := text[decl.BodyStart:min(decl.BodyEnd, len(text))]
		for _, line := range strings.Split(body, "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || strings.HasPrefix(trimmed, "@") || strings.HasPrefix(trimmed, "//") {
				continue
			}

			name, rest, found := strings.Cut(trimmed, ":")
			name = strings.TrimSpace(name)

			if !found || !isIdentifier(name) {
				continue
			}

			typeName := strings.TrimSpace(rest)
			if idx := strings.IndexAny(typeName, " =\t"); idx >= 0 {
				typeName = typeName[:idx]
			}

			props = append(props, parser.Property{Name: name, TypeName: typeName})
		}

		return props
	}

	return nil
}

// componentInputItems lists the inputs of a component definition.
func componentInputItems(srv *server.Server, doc *server.Document, componentType string, exclude map[string]bool) []protocol.CompletionItem {
	inputs, _ := findComponentMembers(srv, doc, componentType)

	var items []protocol.CompletionItem

	kind := protocol.CompletionItemKindField

	for _, prop := range inputs {
		if exclude[prop.Name] {
			continue
		}

		insert := prop.Name + " = "

		items = append(items, protocol.CompletionItem{
			Label:      prop.Name,
			Kind:       &kind,
			Detail:     stringPtr("input: " + prop.TypeName),
			InsertText: &insert,
		})
	}

	return items
}

// componentOutputItems lists the outputs of a component definition, for
// property access on a component instance.
func componentOutputItems(srv *server.Server, doc *server.Document, componentType string) []protocol.CompletionItem {
	_, outputs := findComponentMembers(srv, doc, componentType)

	var items []protocol.CompletionItem

	kind := protocol.CompletionItemKindProperty

	for _, prop := range outputs {
		items = append(items, protocol.CompletionItem{
			Label:  prop.Name,
			Kind:   &kind,
			Detail: stringPtr("output: " + prop.TypeName),
		})
	}

	return items
}

// findComponentMembers locates a component definition by name across open
// documents and returns its inputs and outputs.
func findComponentMembers(srv *server.Server, doc *server.Document, componentType string) (inputs, outputs []parser.Property) {
	check := func(d *server.Document) bool {
		tree := d.Tree()
		if tree == nil {
			return false
		}

		for _, comp := range tree.Components {
			if comp.Name == componentType && comp.InstanceOf == "" {
				inputs, outputs = comp.Inputs, comp.Outputs
				return true
			}
		}

		return false
	}

	if check(doc) {
		return inputs, outputs
	}

	for _, uri := range srv.Documents().List() {
		if uri == doc.URI {
			continue
		}

		if other, ok := srv.Documents().Get(uri); ok && check(other) {
			return inputs, outputs
		}
	}

	return nil, nil
}

// typeNameItems offers type names usable in a ': type' position: builtins,
// then every schema and alias visible in the workspace.
func typeNameItems(srv *server.Server, doc *server.Document) []protocol.CompletionItem {
	var items []protocol.CompletionItem

	typeKind := protocol.CompletionItemKindTypeParameter
	for _, name := range builtins.TypeNames() {
		items = append(items, protocol.CompletionItem{
			Label:  name,
			Kind:   &typeKind,
			Detail: stringPtr("builtin type"),
		})
	}

	structKind := protocol.CompletionItemKindStruct

	seen := make(map[string]bool)

	addDecl := func(name, detail string) {
		if name == "" || seen[name] {
			return
		}

		seen[name] = true

		items = append(items, protocol.CompletionItem{
			Label:  name,
			Kind:   &structKind,
			Detail: stringPtr(detail),
		})
	}

	for _, decl := range analysis.ExtractDeclarations(doc.Text, doc.URI) {
		switch decl.Kind {
		case analysis.DeclSchema:
			addDecl(decl.Name, "schema")
		case analysis.DeclTypeAlias:
			addDecl(decl.Name, "type alias")
		}
	}

	if index := srv.WorkspaceIndex(); index != nil {
		for _, name := range index.AllSymbolNames() {
			for _, loc := range index.FindSymbol(name) {
				if loc.DeclKind == analysis.DeclSchema || loc.DeclKind == analysis.DeclTypeAlias {
					addDecl(name, loc.Detail)
					break
				}
			}
		}
	}

	return items
}

// scopeItems offers keywords, builtin functions, and every declaration
// visible at the offset. Keyword and workspace-symbol lists are cached per
// content hash and index generation since they are identical for every
// offset in one version of the text and workspace.
func scopeItems(srv *server.Server, doc *server.Document, offset int) []protocol.CompletionItem {
	hash := server.ContentHash(doc.Text)

	// Cross-file symbols live in the cached list, so index changes have
	// to miss the cache as well.
	if index := srv.WorkspaceIndex(); index != nil {
		hash ^= index.Generation()
	}

	var cached *server.CachedCompletionItems

	if cache := srv.CompletionCache(); cache != nil {
		cached = cache.GetCachedItems(doc.URI, hash)
	}

	if cached == nil {
		cached = &server.CachedCompletionItems{
			Keywords:      keywordItems(),
			GlobalSymbols: globalSymbolItems(srv, doc),
		}

		if cache := srv.CompletionCache(); cache != nil {
			cache.SetCachedItems(doc.URI, hash, cached)
		}
	}

	items := make([]protocol.CompletionItem, 0, len(cached.Keywords)+len(cached.GlobalSymbols))
	items = append(items, cached.Keywords...)
	items = append(items, cached.GlobalSymbols...)

	// Block-scoped declarations depend on the offset and bypass the cache
	varKind := protocol.CompletionItemKindVariable

	for _, decl := range analysis.ExtractDeclarations(doc.Text, doc.URI) {
		if decl.IsGlobal() || !decl.VisibleAt(offset) {
			continue
		}

		items = append(items, protocol.CompletionItem{
			Label:  decl.Name,
			Kind:   &varKind,
			Detail: stringPtr(decl.Kind.String()),
		})
	}

	return items
}

// keywordItems builds completion items for the language keywords.
func keywordItems() []protocol.CompletionItem {
	kind := protocol.CompletionItemKindKeyword

	items := make([]protocol.CompletionItem, 0, len(completionKeywords))

	for _, kw := range completionKeywords {
		items = append(items, protocol.CompletionItem{
			Label: kw,
			Kind:  &kind,
		})
	}

	return items
}

// globalSymbolItems builds completion items for file-global declarations,
// workspace symbols, and builtin functions.
func globalSymbolItems(srv *server.Server, doc *server.Document) []protocol.CompletionItem {
	var items []protocol.CompletionItem

	seen := make(map[string]bool)

	for _, decl := range analysis.ExtractDeclarations(doc.Text, doc.URI) {
		if !decl.IsGlobal() || seen[decl.Name] {
			continue
		}

		seen[decl.Name] = true

		kind := completionKindFor(decl.Kind)

		items = append(items, protocol.CompletionItem{
			Label:  decl.Name,
			Kind:   &kind,
			Detail: stringPtr(decl.Kind.String()),
		})
	}

	if index := srv.WorkspaceIndex(); index != nil {
		kind := protocol.CompletionItemKindReference

		for _, name := range index.AllSymbolNames() {
			if !seen[name] {
				seen[name] = true

				items = append(items, protocol.CompletionItem{
					Label: name,
					Kind:  &kind,
				})
			}
		}
	}

	funcKind := protocol.CompletionItemKindFunction

	for _, name := range builtins.FunctionNames() {
		if seen[name] {
			continue
		}

		sig := builtins.GetBuiltinSignature(name)

		items = append(items, protocol.CompletionItem{
			Label:         name,
			Kind:          &funcKind,
			Detail:        stringPtr(sig.Signature()),
			Documentation: sig.Documentation,
		})
	}

	return items
}

// completionKindFor maps declaration kinds to LSP completion item kinds.
func completionKindFor(kind analysis.DeclKind) protocol.CompletionItemKind {
	switch kind {
	case analysis.DeclSchema:
		return protocol.CompletionItemKindStruct
	case analysis.DeclComponent:
		return protocol.CompletionItemKindClass
	case analysis.DeclResource:
		return protocol.CompletionItemKindModule
	case analysis.DeclFunction:
		return protocol.CompletionItemKindFunction
	case analysis.DeclTypeAlias:
		return protocol.CompletionItemKindTypeParameter
	case analysis.DeclInput, analysis.DeclOutput:
		return protocol.CompletionItemKindProperty
	default:
		return protocol.CompletionItemKindVariable
	}
}

// completionPrefix returns the partial word immediately before the offset.
func completionPrefix(text string, offset int) string {
	if offset > len(text) {
		offset = len(text)
	}

	start := offset
	for start > 0 && isWordByte(text[start-1]) {
		start--
	}

	return text[start:offset]
}

// filterByPrefix keeps items whose label starts with the prefix,
// case-insensitively.
func filterByPrefix(items []protocol.CompletionItem, prefix string) []protocol.CompletionItem {
	lower := strings.ToLower(prefix)

	var filtered []protocol.CompletionItem

	for _, item := range items {
		if strings.HasPrefix(strings.ToLower(item.Label), lower) {
			filtered = append(filtered, item)
		}
	}

	return filtered
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// isIdentifier reports whether s is a plain identifier.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i := 0; i < len(s); i++ {
		if !isWordByte(s[i]) {
			return false
		}

		if i == 0 && s[i] >= '0' && s[i] <= '9' {
			return false
		}
	}

	return true
}
