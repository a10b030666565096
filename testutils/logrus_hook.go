package testutils

import (
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
)

// SimpleLogrusHook implements the logrus.Hook interface and could be used to check
// if log messages were outputted
type SimpleLogrusHook struct {
	HookedLevels []logrus.Level
	mutex        sync.Mutex
	messageCache []logrus.Entry
}

// Levels just returns whatever was stored in the HookedLevels slice
func (smh *SimpleLogrusHook) Levels() []logrus.Level {
	return smh.HookedLevels
}

// Fire saves whatever message the logrus library passed in the cache
func (smh *SimpleLogrusHook) Fire(e *logrus.Entry) error {
	smh.mutex.Lock()
	defer smh.mutex.Unlock()
	smh.messageCache = append(smh.messageCache, *e)
	return nil
}

// Drain returns the currently stored messages and deletes them from the cache
func (smh *SimpleLogrusHook) Drain() []logrus.Entry {
	smh.mutex.Lock()
	defer smh.mutex.Unlock()
	res := smh.messageCache
	smh.messageCache = []logrus.Entry{}
	return res
}

// Contains reports whether a cached entry of category has a message
// containing msg. An empty category matches every entry.
func (smh *SimpleLogrusHook) Contains(category, msg string) bool {
	smh.mutex.Lock()
	defer smh.mutex.Unlock()
	for _, e := range smh.messageCache {
		if category != "" && e.Data["category"] != category {
			continue
		}
		if strings.Contains(e.Message, msg) {
			return true
		}
	}
	return false
}

var _ logrus.Hook = &SimpleLogrusHook{}

// NewLogger returns a logrus logger writing to the test log.
func NewLogger(tb testing.TB) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(NewTestOutput(tb))
	l.SetLevel(logrus.DebugLevel)
	return l
}

// NewTestOutput returns a writer that logs through tb.
func NewTestOutput(tb testing.TB) io.Writer {
	return testOutput{tb}
}

type testOutput struct{ testing.TB }

func (to testOutput) Write(p []byte) (n int, err error) {
	to.Helper()
	to.Log(strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}
