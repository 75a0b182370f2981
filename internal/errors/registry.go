package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// Error codes used across the module.
const (
	CodeTemplateParse     = "E101"
	CodeExpressionSyntax  = "E102"
	CodeExpressionEval    = "E103"
	CodeMountTarget       = "E201"
	CodeInstanceDestroyed = "E202"
	CodeMissingHostRef    = "E301"
	CodeAlreadyMounted    = "E302"
	CodeUnknownKind       = "E303"
	CodeConfigNotFound    = "E401"
	CodeConfigInvalid     = "E402"
	CodePublish           = "E501"
	CodeDataFile          = "E502"
)

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Compile Errors (E101-E199)
	// ============================================

	CodeTemplateParse: {
		Category: CategoryCompile,
		Message:  "Template could not be parsed",
	},
	CodeExpressionSyntax: {
		Category: CategoryCompile,
		Message:  "Invalid expression syntax",
	},
	CodeExpressionEval: {
		Category: CategoryCompile,
		Message:  "Expression evaluation failed",
	},

	// ============================================
	// Mount / Runtime Errors (E201-E299)
	// ============================================

	CodeMountTarget: {
		Category: CategoryMount,
		Message:  "Mount target is not a valid element",
	},
	CodeInstanceDestroyed: {
		Category: CategoryRuntime,
		Message:  "Instance has been destroyed",
	},

	// ============================================
	// Internal Errors (E301-E399)
	// ============================================

	CodeMissingHostRef: {
		Category: CategoryInternal,
		Message:  "Virtual node has no host node",
	},
	CodeAlreadyMounted: {
		Category: CategoryInternal,
		Message:  "Virtual node is already mounted",
	},
	CodeUnknownKind: {
		Category: CategoryInternal,
		Message:  "Unknown virtual node kind",
	},

	// ============================================
	// Config Errors (E401-E499)
	// ============================================

	CodeConfigNotFound: {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
	},
	CodeConfigInvalid: {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
	},

	// ============================================
	// CLI Errors (E501-E599)
	// ============================================

	CodePublish: {
		Category: CategoryCLI,
		Message:  "Snapshot could not be published",
	},
	CodeDataFile: {
		Category: CategoryCLI,
		Message:  "Data file could not be read",
	},
}

// Lookup returns the template registered for code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
