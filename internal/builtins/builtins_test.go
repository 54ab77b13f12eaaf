package builtins

import "testing"

func TestIsBuiltinType(t *testing.T) {
	for _, name := range []string{"string", "number", "bool", "object", "array", "any"} {
		if !IsBuiltinType(name) {
			t.Errorf("%q should be a builtin type", name)
		}
	}

	for _, name := range []string{"String", "Bucket", ""} {
		if IsBuiltinType(name) {
			t.Errorf("%q should not be a builtin type", name)
		}
	}
}

func TestGetBuiltinSignature(t *testing.T) {
	sig := GetBuiltinSignature("len")
	if sig == nil {
		t.Fatal("len should be a builtin function")
	}

	if sig.ReturnType != "number" {
		t.Errorf("len return type = %q", sig.ReturnType)
	}

	if sig.Documentation == "" {
		t.Error("Builtin functions should carry documentation")
	}

	if GetBuiltinSignature("nope") != nil {
		t.Error("Unknown function should return nil")
	}
}

func TestSignatureRendering(t *testing.T) {
	sig := &FunctionSignature{
		Name: "format",
		Parameters: []Parameter{
			{Name: "template", Type: "string"},
			{Name: "args", Type: "array"},
		},
		ReturnType: "string",
	}

	want := "fun format(template: string, args: array): string"
	if got := sig.Signature(); got != want {
		t.Errorf("Signature() = %q, want %q", got, want)
	}

	bare := &FunctionSignature{Name: "noop"}
	if got := bare.Signature(); got != "fun noop()" {
		t.Errorf("Signature() = %q", got)
	}
}

func TestIsBuiltinFunction(t *testing.T) {
	if !IsBuiltinFunction("keys") || !IsBuiltinFunction("merge") {
		t.Error("Catalog functions not recognized")
	}

	if IsBuiltinFunction("Len") {
		t.Error("Lookups are case-sensitive")
	}
}

func TestFunctionNames(t *testing.T) {
	names := FunctionNames()
	if len(names) == 0 {
		t.Fatal("Catalog should not be empty")
	}

	seen := make(map[string]bool)
	for _, name := range names {
		if seen[name] {
			t.Errorf("Duplicate name %q", name)
		}
		seen[name] = true
	}
}

func TestDecoratorsForTarget(t *testing.T) {
	all := DecoratorsForTarget("")
	if len(all) != len(decorators) {
		t.Error("Empty target should return the full catalog")
	}

	forInput := DecoratorsForTarget("input")
	if len(forInput) == 0 {
		t.Fatal("Inputs should have applicable decorators")
	}

	for _, deco := range forInput {
		found := false
		for _, target := range deco.Targets {
			if target == "input" {
				found = true
			}
		}

		if !found {
			t.Errorf("Decorator %q does not target inputs", deco.Name)
		}
	}

	// @required applies to properties and inputs but not resources
	forResource := DecoratorsForTarget("resource")
	for _, deco := range forResource {
		if deco.Name == "required" {
			t.Error("@required must not apply to resources")
		}
	}
}

func TestLookupDecorator(t *testing.T) {
	deco := LookupDecorator("minLength")
	if deco == nil {
		t.Fatal("minLength should exist")
	}

	if !deco.HasArguments {
		t.Error("minLength takes an argument")
	}

	if LookupDecorator("unknown") != nil {
		t.Error("Unknown decorator should return nil")
	}
}
