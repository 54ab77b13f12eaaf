package parser

import (
	"strings"
	"testing"
)

const parseFixture = `import { Config } from "./lib.kite"
import * from "./shared.kite"

schema Bucket {
  @required
  name: string
  region: string = "eu-west-1"
}

component Network {
  input cidr: string
  output id: string
}

component Network main {
  cidr = "10.0.0.0/16"
}

resource Bucket primary {
  name = "data"
}

fun describe(bucket: Bucket, verbose: bool): string {
}

var count

type Alias = string
`

func TestParse_CleanTree(t *testing.T) {
	result := Parse(parseFixture)

	if len(result.Errors) != 0 {
		t.Fatalf("Unexpected errors: %v", result.Errors)
	}

	tree := result.Tree
	if tree == nil {
		t.Fatal("Tree should be populated for clean input")
	}

	if len(tree.Imports) != 2 {
		t.Errorf("Imports = %d, want 2", len(tree.Imports))
	}

	if tree.Imports[0].Wildcard || tree.Imports[0].Path != "./lib.kite" {
		t.Errorf("First import = %+v", tree.Imports[0])
	}

	if len(tree.Imports[0].Symbols) != 1 || tree.Imports[0].Symbols[0] != "Config" {
		t.Errorf("First import symbols = %v", tree.Imports[0].Symbols)
	}

	if !tree.Imports[1].Wildcard {
		t.Error("Second import should be a wildcard")
	}

	if len(tree.Schemas) != 1 || len(tree.Components) != 2 ||
		len(tree.Resources) != 1 || len(tree.Functions) != 1 ||
		len(tree.Variables) != 1 || len(tree.TypeAliases) != 1 {
		t.Errorf("Tree shape: %d schemas, %d components, %d resources, %d functions, %d vars, %d aliases",
			len(tree.Schemas), len(tree.Components), len(tree.Resources),
			len(tree.Functions), len(tree.Variables), len(tree.TypeAliases))
	}
}

func TestParse_SchemaProperties(t *testing.T) {
	result := Parse(parseFixture)
	if result.Tree == nil {
		t.Fatal("Parse failed")
	}

	schema := result.Tree.Schemas[0]

	if len(schema.Properties) != 2 {
		t.Fatalf("Properties = %d, want 2", len(schema.Properties))
	}

	name := schema.Properties[0]
	if name.Name != "name" || name.TypeName != "string" {
		t.Errorf("First property = %+v", name)
	}

	if len(name.Decorators) != 1 || name.Decorators[0].Name != "required" {
		t.Errorf("First property decorators = %v", name.Decorators)
	}

	region := schema.Properties[1]
	if !region.HasDefault {
		t.Error("Region property should record its default")
	}
}

func TestParse_ComponentMembers(t *testing.T) {
	result := Parse(parseFixture)
	if result.Tree == nil {
		t.Fatal("Parse failed")
	}

	def := result.Tree.Components[0]
	if def.InstanceOf != "" || def.Name != "Network" {
		t.Fatalf("First component = %+v", def)
	}

	if len(def.Inputs) != 1 || def.Inputs[0].Name != "cidr" || def.Inputs[0].TypeName != "string" {
		t.Errorf("Inputs = %v", def.Inputs)
	}

	if len(def.Outputs) != 1 || def.Outputs[0].Name != "id" {
		t.Errorf("Outputs = %v", def.Outputs)
	}

	inst := result.Tree.Components[1]
	if inst.InstanceOf != "Network" || inst.Name != "main" {
		t.Errorf("Instance = %+v", inst)
	}
}

func TestParse_FunctionSignature(t *testing.T) {
	result := Parse(parseFixture)
	if result.Tree == nil {
		t.Fatal("Parse failed")
	}

	fn := result.Tree.Functions[0]

	if fn.Name != "describe" || fn.ReturnType != "string" {
		t.Errorf("Function = %+v", fn)
	}

	if len(fn.Parameters) != 2 {
		t.Fatalf("Parameters = %d, want 2", len(fn.Parameters))
	}

	if fn.Parameters[0].Name != "bucket" || fn.Parameters[0].TypeName != "Bucket" {
		t.Errorf("First parameter = %+v", fn.Parameters[0])
	}
}

func TestParse_Locations(t *testing.T) {
	result := Parse(parseFixture)
	if result.Tree == nil {
		t.Fatal("Parse failed")
	}

	// Locations are 1-based; the schema name sits on line 4
	schema := result.Tree.Schemas[0]
	if schema.Loc.Line != 4 || schema.Loc.Column != 8 {
		t.Errorf("Schema location = %+v, want 4:8", schema.Loc)
	}
}

func TestParse_ErrorsWithholdTree(t *testing.T) {
	result := Parse("schema {\n}\n")

	if result.Tree != nil {
		t.Error("Tree must be withheld when errors are present")
	}

	if len(result.Errors) == 0 {
		t.Fatal("Expected at least one error")
	}

	if result.Errors[0].Category != ErrMissingToken {
		t.Errorf("Category = %v, want ErrMissingToken", result.Errors[0].Category)
	}
}

func TestParse_ErrorCategories(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		category ErrorCategory
	}{
		{"missing identifier", "schema {\n}\n", ErrMissingToken},
		{"extraneous brace", "}\n", ErrExtraneousToken},
		{"unterminated block", "resource Bucket b {\n", ErrUnexpectedEOF},
		{"bad import clause", "import name from \"x\"\n", ErrNoViableAlternative},
		{"unrecognized character", "var x \x01\n", ErrUnrecognizedCharacter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Parse(tt.source)

			if len(result.Errors) == 0 {
				t.Fatal("Expected an error")
			}

			found := false
			for _, e := range result.Errors {
				if e.Category == tt.category {
					found = true
				}
			}

			if !found {
				t.Errorf("No error with category %v in %v", tt.category, result.Errors)
			}
		})
	}
}

func TestParse_ErrorPositions(t *testing.T) {
	result := Parse("var ok\nschema {\n}\n")

	if len(result.Errors) == 0 {
		t.Fatal("Expected an error")
	}

	e := result.Errors[0]
	if e.Line != 2 {
		t.Errorf("Error line = %d, want 2", e.Line)
	}
}

func TestParse_NeverPanics(t *testing.T) {
	inputs := []string{
		"",
		"{",
		"}",
		"schema",
		"import",
		"import {",
		"import { A",
		"import { A } from",
		"fun f(",
		"@",
		"@deco(",
		"component X",
		strings.Repeat("{", 100),
	}

	for _, text := range inputs {
		Parse(text)
	}
}

func TestFindDefinitions(t *testing.T) {
	result := Parse(parseFixture)
	if result.Tree == nil {
		t.Fatal("Parse failed")
	}

	if loc := FindSchemaDefinition(result.Tree, "Bucket"); loc == nil || loc.Line != 4 {
		t.Errorf("FindSchemaDefinition = %+v", loc)
	}

	if loc := FindComponentDefinition(result.Tree, "Network"); loc == nil {
		t.Error("Component definition not found")
	}

	// Instances are not definitions
	if loc := FindComponentDefinition(result.Tree, "main"); loc != nil {
		t.Error("Component instance reported as a definition")
	}

	if loc := FindFunctionDefinition(result.Tree, "describe"); loc == nil {
		t.Error("Function definition not found")
	}

	if loc := FindSchemaDefinition(result.Tree, "Missing"); loc != nil {
		t.Error("Unknown schema reported as found")
	}

	if loc := FindSchemaDefinition(nil, "Bucket"); loc != nil {
		t.Error("Nil tree should return nil")
	}
}

func TestSchemaProperties_Lookup(t *testing.T) {
	result := Parse(parseFixture)
	if result.Tree == nil {
		t.Fatal("Parse failed")
	}

	props := SchemaProperties(result.Tree, "Bucket")
	if len(props) != 2 {
		t.Fatalf("SchemaProperties = %d entries, want 2", len(props))
	}

	if props := SchemaProperties(result.Tree, "Missing"); props != nil {
		t.Error("Unknown schema should return nil")
	}
}

func TestRewriteErrorMessage(t *testing.T) {
	msg := RewriteErrorMessage(ErrMissingToken, "expected identifier after 'schema'")
	if !strings.HasPrefix(msg, "Syntax error: ") || !strings.Contains(msg, "missing token") {
		t.Errorf("Rewritten message = %q", msg)
	}

	fallback := RewriteErrorMessage(ErrUnknown, "no viable alternative at input 'x'")
	if strings.Contains(fallback, "no viable alternative") {
		t.Errorf("Fallback should strip parser jargon: %q", fallback)
	}

	if got := RewriteErrorMessage(ErrUnknown, ""); got != "Syntax error." {
		t.Errorf("Empty raw message = %q", got)
	}
}
