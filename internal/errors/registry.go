package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// DOM (G001-G009)
	"G001": {
		Category:   CategoryDOM,
		Message:    "Invalid selector",
		Suggestion: "Supported selectors: tag, #id, .class, [attr], [attr=value], *, descendant and comma groups.",
	},
	"G002": {
		Category: CategoryDOM,
		Message:  "Selector matched no node",
	},
	"G003": {
		Category: CategoryDOM,
		Message:  "Node is not a child of the given parent",
	},
	"G004": {
		Category: CategoryDOM,
		Message:  "HTML parse failed",
	},

	// Router (G010-G019)
	"G010": {
		Category:   CategoryRouter,
		Message:    "Invalid route pattern",
		Suggestion: "Patterns starting with ^ are used verbatim as regular expressions; check their syntax.",
	},
	"G011": {
		Category: CategoryRouter,
		Message:  "Unknown router mode",
	},
	"G012": {
		Category:   CategoryRouter,
		Message:    "Route parameter binding failed",
		Suggestion: "Bind targets are struct pointers with param or query tags on string, integer, float, bool or []string fields.",
	},

	// Components (G020-G029)
	"G020": {
		Category:   CategoryComponent,
		Message:    "Custom elements are not available",
		Suggestion: "Components fall back to function mode; enable custom elements in the configuration to use tags.",
	},
	"G021": {
		Category: CategoryComponent,
		Message:  "Custom element already defined",
	},
	"G022": {
		Category:   CategoryComponent,
		Message:    "Invalid custom element name",
		Suggestion: "Custom element names must contain a hyphen, e.g. x-counter.",
	},
	"G023": {
		Category: CategoryComponent,
		Message:  "Unknown shadow mode",
	},

	// Templates (G030-G039)
	"G030": {
		Category:   CategoryTemplate,
		Message:    "Template interpolation failed",
		Suggestion: "Only {path} lookups against the provided variables are supported.",
	},

	// Deferred values (G040-G049)
	"G040": {
		Category: CategoryDeferred,
		Message:  "Deferred value rejected",
	},

	// Config (G050-G059)
	"G050": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
	},
	"G051": {
		Category: CategoryConfig,
		Message:  "Site file could not be loaded",
	},

	// Protocol (G060-G069)
	"G060": {
		Category: CategoryProtocol,
		Message:  "Malformed live frame",
	},
	"G061": {
		Category: CategoryProtocol,
		Message:  "Unknown live frame type",
	},
}

// Lookup returns the template for a code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
