// Package lsp implements LSP protocol handlers.
package lsp

// This package contains all LSP request and notification handlers:
// - Initialize / Initialized
// - Shutdown / Exit
// - textDocument/didOpen, didClose, didChange, didSave
// - textDocument/completion
// - textDocument/hover
// - textDocument/definition
// - textDocument/references
// - textDocument/rename, prepareRename
// - textDocument/documentSymbol, workspace/symbol
// - textDocument/codeAction
