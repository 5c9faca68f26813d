package metafmt

// Process exit codes. 0 to 3 follow the usual shell meanings; the tens
// group failures by build stage (10s setup, 20s assembly, 30s output).
const (
	ExitSuccess          = 0  // Document built and valid
	ExitGeneralError     = 1  // Unknown or unclassified error
	ExitUsageError       = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic            = 3  // Internal panic (unexpected crash)
	ExitConfigError      = 10 // Invalid configuration
	ExitConnectionError  = 11 // Metadata store unreachable
	ExitTemplateError    = 20 // Template could not be parsed or resolved
	ExitContractError    = 21 // Metadata did not satisfy an element's contract
	ExitMetadataError    = 22 // Metadata inconsistent or reference unresolved
	ExitValidationFailed = 30 // Document written but failed validation
)

const (
	// DefaultConfigFileName is the configuration file looked up in the config directory.
	DefaultConfigFileName = "metafmt.yaml"

	// DefaultFormat is the output encoding used when none is requested.
	DefaultFormat = "xml"

	// AttrInstitute and AttrProject are the global attributes every element carries.
	AttrInstitute = "institute"
	AttrProject   = "project"
)
