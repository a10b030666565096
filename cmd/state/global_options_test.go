package state

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/grafana/a11yscan/env"
)

func TestConsolidateGlobalFlags(t *testing.T) {
	t.Parallel()

	defaults := GetDefaultGlobalOptions()
	for name, tt := range map[string]struct {
		environ []string
		want    GlobalOptions
	}{
		"defaults": {
			want: GlobalOptions{LogOutput: "stderr"},
		},
		"env": {
			environ: []string{
				"A11YSCAN_LOG_OUTPUT=file=scan.log,level=info",
				"a11yscan_log_format=json",
				"A11YSCAN_TRACES_OUTPUT=otel",
			},
			want: GlobalOptions{LogOutput: "file=scan.log,level=info", LogFormat: "json", TracesOutput: "otel"},
		},
		"no_color": {
			environ: []string{"NO_COLOR="},
			want:    GlobalOptions{LogOutput: "stderr", NoColor: true},
		},
		"a11yscan_no_color_empty": {
			environ: []string{"A11YSCAN_NO_COLOR="},
			want:    GlobalOptions{LogOutput: "stderr"},
		},
	} {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, consolidateGlobalFlags(defaults, env.CaseInsensitive(tt.environ)))
		})
	}
}

type sliceWriter struct{ b []byte }

func (w *sliceWriter) Write(p []byte) (int, error) {
	w.b = append(w.b, p...)
	return len(p), nil
}

func TestConsoleWriter(t *testing.T) {
	t.Parallel()

	var out sliceWriter
	w := &ConsoleWriter{Writer: &out, IsTTY: true, Mutex: &sync.Mutex{}}
	n, err := w.Write([]byte("a\n"))
	assert.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "a\x1b[0K\n", string(out.b))

	out.b = nil
	w.DisableColors()
	_, err = w.Write([]byte("\x1b[32mok\x1b[0m\n"))
	assert.NoError(t, err)
	assert.Equal(t, "ok\n", string(out.b))
}
