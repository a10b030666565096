// Package exitcodes contains the constants representing possible a11yscan exit error codes.
package exitcodes

// ExitCode is just a type representing a process exit code for a11yscan.
type ExitCode uint8

// list of exit codes used by a11yscan
const (
	ViolationsMismatch ExitCode = 99
	InvalidConfig      ExitCode = 104
	ProvisioningFailed ExitCode = 105
	ReadyTimeout       ExitCode = 106
	AnalysisFailed     ExitCode = 107
	ExternalAbort      ExitCode = 108
)
