package builtins

// DecoratorInfo describes a builtin decorator and where it may appear.
type DecoratorInfo struct {
	Name          string
	Targets       []string
	HasArguments  bool
	Documentation string
}

// decorators is every decorator the language ships with. Targets use the
// same names the cursor classifier reports: "schema property", "input",
// "output", "resource", "component", "schema", "var", "fun".
var decorators = []DecoratorInfo{
	{
		Name:          "description",
		Targets:       []string{"schema", "schema property", "input", "output", "resource", "component", "fun", "var"},
		HasArguments:  true,
		Documentation: "Attaches human-readable documentation to a declaration.",
	},
	{
		Name:          "required",
		Targets:       []string{"schema property", "input"},
		HasArguments:  false,
		Documentation: "Marks a property or input as mandatory.",
	},
	{
		Name:          "default",
		Targets:       []string{"schema property", "input"},
		HasArguments:  true,
		Documentation: "Supplies a default value used when none is given.",
	},
	{
		Name:          "minLength",
		Targets:       []string{"schema property", "input"},
		HasArguments:  true,
		Documentation: "Constrains the minimum length of a string value.",
	},
	{
		Name:          "maxLength",
		Targets:       []string{"schema property", "input"},
		HasArguments:  true,
		Documentation: "Constrains the maximum length of a string value.",
	},
	{
		Name:          "minimum",
		Targets:       []string{"schema property", "input"},
		HasArguments:  true,
		Documentation: "Constrains the minimum of a numeric value.",
	},
	{
		Name:          "maximum",
		Targets:       []string{"schema property", "input"},
		HasArguments:  true,
		Documentation: "Constrains the maximum of a numeric value.",
	},
	{
		Name:          "pattern",
		Targets:       []string{"schema property", "input"},
		HasArguments:  true,
		Documentation: "Constrains a string value to match a regular expression.",
	},
	{
		Name:          "sensitive",
		Targets:       []string{"schema property", "input", "output", "var"},
		HasArguments:  false,
		Documentation: "Marks a value as secret so tooling redacts it.",
	},
	{
		Name:          "deprecated",
		Targets:       []string{"schema", "schema property", "component", "fun", "resource"},
		HasArguments:  true,
		Documentation: "Marks a declaration as deprecated, with an optional replacement hint.",
	},
	{
		Name:          "tag",
		Targets:       []string{"resource", "component"},
		HasArguments:  true,
		Documentation: "Attaches a label used for grouping and filtering.",
	},
	{
		Name:          "dependsOn",
		Targets:       []string{"resource", "component"},
		HasArguments:  true,
		Documentation: "Declares an explicit ordering dependency on another resource.",
	},
}

// DecoratorsForTarget returns the decorators applicable to a declaration
// kind. An empty target returns the full catalog.
func DecoratorsForTarget(target string) []DecoratorInfo {
	if target == "" {
		return decorators
	}

	var applicable []DecoratorInfo

	for _, deco := range decorators {
		for _, t := range deco.Targets {
			if t == target {
				applicable = append(applicable, deco)
				break
			}
		}
	}

	return applicable
}

// LookupDecorator returns the decorator with the given name, or nil.
func LookupDecorator(name string) *DecoratorInfo {
	for i := range decorators {
		if decorators[i].Name == name {
			return &decorators[i]
		}
	}

	return nil
}
