package constants

// Tool name and related constants
const (
	// ToolName is the name of this tool
	ToolName = "sanity"

	// ConfigFileName is the config file written by sanity init
	ConfigFileName = "sanity.yaml"

	// EnvVarPrefix is the prefix for environment variables
	EnvVarPrefix = "SANITY"
)

// Exit codes of sanity check
const (
	ExitOK        = 0
	ExitViolation = 1
	ExitError     = 2
)

// Check rule names reported in violations
const (
	RuleMaxHigh           = "max-high"
	RuleMaxSignificant    = "max-significant"
	RuleMaxTotal          = "max-total"
	RuleMinLineCoverage   = "min-line-coverage"
	RuleMinBranchCoverage = "min-branch-coverage"
)
