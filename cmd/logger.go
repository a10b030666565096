package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grafana/a11yscan/cmd/state"
	"github.com/grafana/a11yscan/env"
	"github.com/grafana/a11yscan/errext"
	"github.com/grafana/a11yscan/errext/exitcodes"
)

// RawFormatter it does nothing with the message just prints it
type RawFormatter struct{}

// Format renders a single log entry
func (f RawFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	return append([]byte(entry.Message), '\n'), nil
}

// LogstashJSONFormatter defines a logstash json formatter
type LogstashJSONFormatter struct{}

// Format returns a formatted logstash message
func (f *LogstashJSONFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	e := make(map[string]any, len(entry.Data)+5)
	for k, v := range entry.Data {
		if err, ok := v.(error); ok {
			// Store error string value instead of error.
			e[k] = err.Error()
		} else {
			e[k] = v
		}
	}

	e["@timestamp"] = entry.Time.Format(time.RFC3339)
	e["@version"] = "1"

	if v, ok := entry.Data["message"]; ok {
		e["fields.message"] = v
	}
	e["message"] = entry.Message

	if v, ok := entry.Data["level"]; ok {
		e["fields.level"] = v
	}
	e["level_name"] = entry.Level.String()

	serialised, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return append(serialised, '\n'), nil
}

// loggerEnvConfig reads the logging part of the environment.
func loggerEnvConfig(gs *state.GlobalState) (env.Config, error) {
	conf, err := env.Load(gs.Lookup)
	if err != nil {
		return conf, errext.WithExitCodeIfNone(fmt.Errorf("logger: %w", err), exitcodes.InvalidConfig)
	}
	return conf, nil
}
