// Package lsp implements LSP protocol handlers.
package lsp

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/kitelang/kite-lsp/internal/analysis"
	"github.com/kitelang/kite-lsp/internal/builtins"
	"github.com/kitelang/kite-lsp/internal/server"
)

// Hover handles the textDocument/hover request.
// It shows a declaration's signature and kind for the symbol under the cursor.
func Hover(context *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		log.Println("Warning: server instance not available in Hover")
		return nil, nil
	}

	uri := params.TextDocument.URI
	position := params.Position

	doc, exists := srv.Documents().Get(uri)
	if !exists {
		log.Printf("Document not found for hover: %s\n", uri)
		return nil, nil
	}

	offset := analysis.PositionToOffset(doc.Text, position)

	if analysis.IsInsideComment(doc.Text, offset) || analysis.IsInsideString(doc.Text, offset) {
		return nil, nil
	}

	word := analysis.WordAt(doc.Text, offset)
	if word == "" {
		return nil, nil
	}

	log.Printf("Hover request for '%s' at %s %d:%d\n", word, uri, position.Line, position.Character)

	markdown := hoverMarkdown(srv, doc, word, offset)
	if markdown == "" {
		return nil, nil
	}

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: markdown,
		},
	}, nil
}

// hoverMarkdown builds the hover content for a word, checking decorators,
// builtins, local declarations, then the workspace index.
func hoverMarkdown(srv *server.Server, doc *server.Document, word string, offset int) string {
	// '@word' hovers the decorator catalog entry
	if isDecoratorUse(doc.Text, word, offset) {
		if deco := builtins.LookupDecorator(word); deco != nil {
			return fmt.Sprintf("```kite\n@%s\n```\n\n%s\n\nApplies to: %s",
				deco.Name, deco.Documentation, strings.Join(deco.Targets, ", "))
		}

		return ""
	}

	if sig := builtins.GetBuiltinSignature(word); sig != nil {
		return fmt.Sprintf("```kite\n%s\n```\n\n%s", sig.Signature(), sig.Documentation)
	}

	if builtins.IsBuiltinType(word) {
		return fmt.Sprintf("```kite\n%s\n```\n\nBuilt-in type", word)
	}

	if decl := findVisibleDeclaration(doc, word, offset); decl != nil {
		return declarationMarkdown(srv, doc, decl)
	}

	// Fall back to the workspace index for symbols defined in other files
	if index := srv.WorkspaceIndex(); index != nil {
		for _, loc := range index.FindSymbol(word) {
			path := analysis.URIToPathOrSelf(loc.Location.URI)

			// "resource Bucket" and "component Network" details carry the
			// type; appending the name yields the declaration header.
			header := loc.DeclKind.String() + " " + loc.Name
			if strings.HasPrefix(loc.Detail, "resource ") || strings.HasPrefix(loc.Detail, "component ") {
				header = loc.Detail + " " + loc.Name
			} else if idx := strings.Index(loc.Detail, ": "); idx >= 0 {
				header = loc.DeclKind.String() + " " + loc.Name + loc.Detail[idx:]
			}

			return fmt.Sprintf("```kite\n%s\n```\n\nDefined in %s", header, filepath.Base(path))
		}
	}

	return ""
}

// isDecoratorUse reports whether the word at offset is written as '@word'.
func isDecoratorUse(text, word string, offset int) bool {
	if offset > len(text) {
		offset = len(text)
	}

	start := offset
	for start > 0 && isWordByte(text[start-1]) {
		start--
	}

	return start > 0 && text[start-1] == '@' && strings.HasPrefix(text[start:], word)
}

// findVisibleDeclaration returns the declaration of name visible at offset,
// preferring block-scoped declarations over file-global ones.
func findVisibleDeclaration(doc *server.Document, name string, offset int) *analysis.Declaration {
	decls := analysis.ExtractDeclarations(doc.Text, doc.URI)

	var global *analysis.Declaration

	for i := range decls {
		decl := &decls[i]
		if decl.Name != name || !decl.VisibleAt(offset) {
			continue
		}

		if !decl.IsGlobal() {
			return decl
		}

		if global == nil {
			global = decl
		}
	}

	return global
}

// declarationMarkdown renders a declaration as hover markdown.
func declarationMarkdown(srv *server.Server, doc *server.Document, decl *analysis.Declaration) string {
	switch decl.Kind {
	case analysis.DeclSchema:
		header := "schema " + decl.Name

		props := findSchemaProperties(srv, doc, decl.Name)
		if len(props) == 0 {
			return fmt.Sprintf("```kite\n%s\n```", header)
		}

		var lines []string
		for _, prop := range props {
			lines = append(lines, fmt.Sprintf("  %s: %s", prop.Name, prop.TypeName))
		}

		return fmt.Sprintf("```kite\n%s {\n%s\n}\n```", header, strings.Join(lines, "\n"))

	case analysis.DeclResource:
		return fmt.Sprintf("```kite\nresource %s %s\n```", decl.SchemaName, decl.Name)

	case analysis.DeclComponent:
		if decl.ComponentType == "" {
			return fmt.Sprintf("```kite\ncomponent %s\n```\n\nComponent definition", decl.Name)
		}

		return fmt.Sprintf("```kite\ncomponent %s %s\n```\n\nInstance of component '%s'",
			decl.ComponentType, decl.Name, decl.ComponentType)

	case analysis.DeclFunction:
		if tree := doc.Tree(); tree != nil {
			for _, fn := range tree.Functions {
				if fn.Name != decl.Name {
					continue
				}

				var params []string
				for _, p := range fn.Parameters {
					params = append(params, p.Name+": "+p.TypeName)
				}

				sig := fmt.Sprintf("fun %s(%s)", fn.Name, strings.Join(params, ", "))
				if fn.ReturnType != "" {
					sig += ": " + fn.ReturnType
				}

				return fmt.Sprintf("```kite\n%s\n```", sig)
			}
		}

		return fmt.Sprintf("```kite\nfun %s(...)\n```", decl.Name)

	case analysis.DeclInput:
		return fmt.Sprintf("```kite\ninput %s: %s\n```", decl.Name, decl.TypeName)

	case analysis.DeclOutput:
		return fmt.Sprintf("```kite\noutput %s: %s\n```", decl.Name, decl.TypeName)

	case analysis.DeclTypeAlias:
		return fmt.Sprintf("```kite\ntype %s = %s\n```", decl.Name, decl.TypeName)

	case analysis.DeclForLoopVariable:
		return fmt.Sprintf("```kite\n%s\n```\n\nLoop variable", decl.Name)

	default:
		return fmt.Sprintf("```kite\nvar %s\n```", decl.Name)
	}
}
