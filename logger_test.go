package wssession

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestZerologLoggerCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologLogger(zerolog.New(&buf)).WithField("session", "abc")

	l.Infof("connected to %s", "ws://localhost:8080")
	l.Debugln("ping", "received")

	out := buf.String()
	assert.Contains(t, out, `"session":"abc"`)
	assert.Contains(t, out, `"message":"connected to ws://localhost:8080"`)
	assert.Contains(t, out, `"message":"ping received"`)
	assert.Contains(t, out, `"level":"info"`)
}

func TestWriterLoggerSortsFields(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf).WithField("z", 1).WithField("a", 2)

	l.Warnln("careful")

	assert.Contains(t, buf.String(), "WARN [a=2, z=1]: careful\n")
}
