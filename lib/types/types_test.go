package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDurationUnmarshalText(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]time.Duration{
		"20s":   20 * time.Second,
		"1m15s": 75 * time.Second,
		"500":   500 * time.Millisecond,
		"1.5":   1500 * time.Microsecond,
	} {
		var d Duration
		require.NoError(t, d.UnmarshalText([]byte(in)), in)
		assert.Equal(t, Duration(want), d, in)
	}

	var d Duration
	assert.EqualError(t, d.UnmarshalText([]byte("soon")), "'soon' is not a valid duration value")
}

func TestNullDurationJSON(t *testing.T) {
	t.Parallel()

	var d NullDuration
	require.NoError(t, json.Unmarshal([]byte(`"20s"`), &d))
	assert.Equal(t, NullDurationFrom(20*time.Second), d)

	require.NoError(t, json.Unmarshal([]byte(`250`), &d))
	assert.Equal(t, NullDurationFrom(250*time.Millisecond), d)

	require.NoError(t, json.Unmarshal([]byte(`null`), &d))
	assert.False(t, d.Valid)

	data, err := json.Marshal(NullDurationFrom(75 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, `"1m15s"`, string(data))

	data, err = json.Marshal(NullDuration{})
	require.NoError(t, err)
	assert.Equal(t, `null`, string(data))
}

func TestNullDurationYAML(t *testing.T) {
	t.Parallel()

	var v struct {
		Timeout NullDuration `yaml:"timeout"`
		Poll    NullDuration `yaml:"poll"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("timeout: 20s\n"), &v))
	assert.Equal(t, 20*time.Second, v.Timeout.ValueOr(time.Second))
	assert.Equal(t, 500*time.Millisecond, v.Poll.ValueOr(500*time.Millisecond))
}
