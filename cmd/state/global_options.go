package state

import "github.com/grafana/a11yscan/env"

// GlobalOptions contains global config values that apply for all a11yscan sub-commands.
type GlobalOptions struct {
	NoColor      bool
	LogOutput    string
	LogFormat    string
	TracesOutput string
	Verbose      bool
}

// GetDefaultGlobalOptions returns the default global flags.
func GetDefaultGlobalOptions() GlobalOptions {
	return GlobalOptions{
		LogOutput: "stderr",
	}
}

func consolidateGlobalFlags(defaultFlags GlobalOptions, lookup env.LookupFunc) GlobalOptions {
	result := defaultFlags

	if val, ok := lookup("A11YSCAN_LOG_OUTPUT"); ok {
		result.LogOutput = val
	}
	if val, ok := lookup("A11YSCAN_LOG_FORMAT"); ok {
		result.LogFormat = val
	}
	if val, ok := lookup("A11YSCAN_TRACES_OUTPUT"); ok {
		result.TracesOutput = val
	}
	if val, _ := lookup("A11YSCAN_NO_COLOR"); val != "" {
		result.NoColor = true
	}
	// Support https://no-color.org/, even an empty value disables colors.
	if _, ok := lookup("NO_COLOR"); ok {
		result.NoColor = true
	}
	return result
}
