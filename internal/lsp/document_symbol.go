// Package lsp implements LSP protocol handlers.
package lsp

import (
	"log"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/kitelang/kite-lsp/internal/analysis"
	"github.com/kitelang/kite-lsp/internal/server"
	"github.com/kitelang/kite-lsp/internal/workspace"
)

// DocumentSymbol handles the textDocument/documentSymbol request.
// It returns a hierarchical list of symbols in the document for the outline view.
func DocumentSymbol(context *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		log.Println("Warning: server instance not available in DocumentSymbol")
		return nil, nil
	}

	uri := params.TextDocument.URI
	log.Printf("DocumentSymbol request for %s\n", uri)

	doc, exists := srv.Documents().Get(uri)
	if !exists {
		log.Printf("Document not found for document symbols: %s\n", uri)
		return nil, nil
	}

	symbols := collectDocumentSymbols(srv, doc)

	log.Printf("Found %d top-level symbols in %s\n", len(symbols), uri)

	return symbols, nil
}

// collectDocumentSymbols builds the outline: file-global declarations at the
// top, with schema properties and block-scoped declarations as children.
func collectDocumentSymbols(srv *server.Server, doc *server.Document) []protocol.DocumentSymbol {
	decls := analysis.ExtractDeclarations(doc.Text, doc.URI)

	var symbols []protocol.DocumentSymbol

	for _, decl := range decls {
		if !decl.IsGlobal() {
			continue
		}

		symbol := declarationSymbol(decl)

		switch decl.Kind {
		case analysis.DeclSchema:
			symbol.Children = schemaPropertySymbols(srv, doc, decl)
		case analysis.DeclComponent, analysis.DeclResource, analysis.DeclFunction:
			symbol.Children = nestedSymbols(doc.Text, decls, decl)
		}

		symbols = append(symbols, symbol)
	}

	return symbols
}

// declarationSymbol converts one declaration into a DocumentSymbol.
func declarationSymbol(decl analysis.Declaration) protocol.DocumentSymbol {
	detail := declarationDetail(decl)

	symbol := protocol.DocumentSymbol{
		Name:           decl.Name,
		Kind:           workspace.SymbolKindFor(decl.Kind),
		Range:          decl.Range,
		SelectionRange: decl.NameRange,
	}

	if detail != "" {
		symbol.Detail = &detail
	}

	return symbol
}

// declarationDetail builds the outline detail string for a declaration.
func declarationDetail(decl analysis.Declaration) string {
	switch decl.Kind {
	case analysis.DeclSchema:
		return "schema"
	case analysis.DeclResource:
		return "resource " + decl.SchemaName
	case analysis.DeclComponent:
		if decl.ComponentType == "" {
			return "component"
		}

		return "component " + decl.ComponentType
	case analysis.DeclFunction:
		return "fun"
	case analysis.DeclTypeAlias:
		return "type = " + decl.TypeName
	case analysis.DeclInput:
		return "input: " + decl.TypeName
	case analysis.DeclOutput:
		return "output: " + decl.TypeName
	default:
		return ""
	}
}

// schemaPropertySymbols lists a schema's properties as child symbols.
func schemaPropertySymbols(srv *server.Server, doc *server.Document, schema analysis.Declaration) []protocol.DocumentSymbol {
	var children []protocol.DocumentSymbol

	for _, prop := range findSchemaProperties(srv, doc, schema.Name) {
		detail := prop.TypeName

		propRange := schema.NameRange

		if prop.Loc.Line > 0 {
			pos := protocol.Position{
				Line:      uint32(max(0, prop.Loc.Line-1)),
				Character: uint32(max(0, prop.Loc.Column-1)),
			}
			propRange = protocol.Range{
				Start: pos,
				End:   protocol.Position{Line: pos.Line, Character: pos.Character + uint32(len(prop.Name))},
			}
		}

		children = append(children, protocol.DocumentSymbol{
			Name:           prop.Name,
			Kind:           protocol.SymbolKindProperty,
			Detail:         &detail,
			Range:          propRange,
			SelectionRange: propRange,
		})
	}

	return children
}

// nestedSymbols lists the block-scoped declarations directly inside the
// parent. Declarations inside a deeper nested declaration attach to that
// nesting instead, recursively. Function parameters count as direct
// children even though they sit in the header, before the body brace.
func nestedSymbols(text string, decls []analysis.Declaration, parent analysis.Declaration) []protocol.DocumentSymbol {
	if parent.BodyStart < 0 || parent.BodyEnd < 0 {
		return nil
	}

	var children []protocol.DocumentSymbol

	for _, decl := range decls {
		if decl.IsGlobal() {
			continue
		}

		start := analysis.PositionToOffset(text, decl.NameRange.Start)
		if !declContains(text, parent, start) {
			continue
		}

		if enclosedByNestedDecl(text, decls, parent, start) {
			continue
		}

		child := declarationSymbol(decl)
		if decl.BodyStart >= 0 && decl.BodyEnd >= 0 {
			child.Children = nestedSymbols(text, decls, decl)
		}

		children = append(children, child)
	}

	return children
}

// declContains reports whether the offset lies within outer's extent, from
// just after its name through its body end.
func declContains(text string, outer analysis.Declaration, offset int) bool {
	if outer.BodyEnd < 0 {
		return false
	}

	nameEnd := analysis.PositionToOffset(text, outer.NameRange.End)

	return offset > nameEnd && offset < outer.BodyEnd
}

// enclosedByNestedDecl reports whether the offset falls inside a
// declaration that is itself nested within the parent.
func enclosedByNestedDecl(text string, decls []analysis.Declaration, parent analysis.Declaration, offset int) bool {
	for _, other := range decls {
		otherStart := analysis.PositionToOffset(text, other.NameRange.Start)
		if !declContains(text, parent, otherStart) {
			continue
		}

		if declContains(text, other, offset) {
			return true
		}
	}

	return false
}
