// Package builtins catalogs the names built into the Kite language: primitive
// types, library functions, and decorators. The catalogs back completion,
// hover, and rename validation.
package builtins

// builtinTypes are the primitive type names usable without declaration.
var builtinTypes = map[string]bool{
	"string": true,
	"number": true,
	"int":    true,
	"float":  true,
	"bool":   true,
	"object": true,
	"array":  true,
	"any":    true,
	"null":   true,
}

// IsBuiltinType reports whether name is a primitive Kite type.
func IsBuiltinType(name string) bool {
	return builtinTypes[name]
}

// TypeNames returns all primitive type names in a stable order.
func TypeNames() []string {
	return []string{"string", "number", "int", "float", "bool", "object", "array", "any", "null"}
}

// Parameter describes one parameter of a builtin function.
type Parameter struct {
	Name string
	Type string
}

// FunctionSignature describes a builtin library function.
type FunctionSignature struct {
	Name          string
	Parameters    []Parameter
	ReturnType    string
	Documentation string
}

// builtinFunctions is the Kite standard library surface.
var builtinFunctions = map[string]*FunctionSignature{
	"len": {
		Name:          "len",
		Parameters:    []Parameter{{Name: "value", Type: "any"}},
		ReturnType:    "number",
		Documentation: "Returns the length of a string, array, or object.",
	},
	"keys": {
		Name:          "keys",
		Parameters:    []Parameter{{Name: "value", Type: "object"}},
		ReturnType:    "array",
		Documentation: "Returns the property names of an object.",
	},
	"values": {
		Name:          "values",
		Parameters:    []Parameter{{Name: "value", Type: "object"}},
		ReturnType:    "array",
		Documentation: "Returns the property values of an object.",
	},
	"range": {
		Name:          "range",
		Parameters:    []Parameter{{Name: "from", Type: "number"}, {Name: "to", Type: "number"}},
		ReturnType:    "array",
		Documentation: "Returns the integers from `from` (inclusive) to `to` (exclusive).",
	},
	"format": {
		Name:          "format",
		Parameters:    []Parameter{{Name: "template", Type: "string"}, {Name: "args", Type: "any"}},
		ReturnType:    "string",
		Documentation: "Interpolates arguments into a template string.",
	},
	"join": {
		Name:          "join",
		Parameters:    []Parameter{{Name: "parts", Type: "array"}, {Name: "separator", Type: "string"}},
		ReturnType:    "string",
		Documentation: "Joins array elements into a single string.",
	},
	"split": {
		Name:          "split",
		Parameters:    []Parameter{{Name: "value", Type: "string"}, {Name: "separator", Type: "string"}},
		ReturnType:    "array",
		Documentation: "Splits a string around each occurrence of the separator.",
	},
	"replace": {
		Name:          "replace",
		Parameters:    []Parameter{{Name: "value", Type: "string"}, {Name: "old", Type: "string"}, {Name: "new", Type: "string"}},
		ReturnType:    "string",
		Documentation: "Replaces every occurrence of `old` with `new`.",
	},
	"contains": {
		Name:          "contains",
		Parameters:    []Parameter{{Name: "haystack", Type: "any"}, {Name: "needle", Type: "any"}},
		ReturnType:    "bool",
		Documentation: "Reports whether a string or array contains the given value.",
	},
	"toUpper": {
		Name:          "toUpper",
		Parameters:    []Parameter{{Name: "value", Type: "string"}},
		ReturnType:    "string",
		Documentation: "Converts a string to upper case.",
	},
	"toLower": {
		Name:          "toLower",
		Parameters:    []Parameter{{Name: "value", Type: "string"}},
		ReturnType:    "string",
		Documentation: "Converts a string to lower case.",
	},
	"trim": {
		Name:          "trim",
		Parameters:    []Parameter{{Name: "value", Type: "string"}},
		ReturnType:    "string",
		Documentation: "Removes leading and trailing whitespace.",
	},
	"toString": {
		Name:          "toString",
		Parameters:    []Parameter{{Name: "value", Type: "any"}},
		ReturnType:    "string",
		Documentation: "Converts any value to its string representation.",
	},
	"toNumber": {
		Name:          "toNumber",
		Parameters:    []Parameter{{Name: "value", Type: "string"}},
		ReturnType:    "number",
		Documentation: "Parses a string into a number.",
	},
	"min": {
		Name:          "min",
		Parameters:    []Parameter{{Name: "a", Type: "number"}, {Name: "b", Type: "number"}},
		ReturnType:    "number",
		Documentation: "Returns the smaller of two numbers.",
	},
	"max": {
		Name:          "max",
		Parameters:    []Parameter{{Name: "a", Type: "number"}, {Name: "b", Type: "number"}},
		ReturnType:    "number",
		Documentation: "Returns the larger of two numbers.",
	},
	"abs": {
		Name:          "abs",
		Parameters:    []Parameter{{Name: "value", Type: "number"}},
		ReturnType:    "number",
		Documentation: "Returns the absolute value of a number.",
	},
	"merge": {
		Name:          "merge",
		Parameters:    []Parameter{{Name: "base", Type: "object"}, {Name: "overlay", Type: "object"}},
		ReturnType:    "object",
		Documentation: "Merges two objects, with overlay properties winning.",
	},
}

// GetBuiltinSignature returns the signature of a builtin function, or nil
// when the name is not builtin.
func GetBuiltinSignature(functionName string) *FunctionSignature {
	return builtinFunctions[functionName]
}

// IsBuiltinFunction reports whether the name is a builtin library function.
func IsBuiltinFunction(functionName string) bool {
	_, ok := builtinFunctions[functionName]
	return ok
}

// FunctionNames returns the names of every builtin function.
func FunctionNames() []string {
	names := make([]string, 0, len(builtinFunctions))
	for name := range builtinFunctions {
		names = append(names, name)
	}

	return names
}

// Signature renders a signature in source form, e.g.
// "fun len(value: any): number".
func (s *FunctionSignature) Signature() string {
	sig := "fun " + s.Name + "("

	for i, param := range s.Parameters {
		if i > 0 {
			sig += ", "
		}

		sig += param.Name + ": " + param.Type
	}

	sig += ")"

	if s.ReturnType != "" {
		sig += ": " + s.ReturnType
	}

	return sig
}
