package logsvc

import (
	"bytes"
	"log"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/academia/core"
)

func newTestLogger(buf *bytes.Buffer) *RollbarLogger {
	return NewRollbarLogger(log.New(buf, "TEST : ", 0), &core.Config{Env: "TEST", Debug: true})
}

func TestRollbarLogger_prepare(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf)
	err := errors.New("boom")
	extras := map[string]interface{}{"student_id": 1}

	tests := []struct {
		name string
		args []interface{}
		want []interface{}
	}{
		{name: "no args", args: nil, want: []interface{}{"msg"}},
		{name: "error and extras", args: []interface{}{err, extras}, want: []interface{}{"msg", err, extras}},
		{name: "person dropped", args: []interface{}{core.Person{ID: "1"}, err}, want: []interface{}{"msg", err}},
		{name: "person pointer dropped", args: []interface{}{&core.Person{ID: "1"}, extras}, want: []interface{}{"msg", extras}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, l.prepare("msg", tt.args))
		})
	}
}

func TestRollbarLogger_print(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf)

	l.Warn("retrying", errors.New("conflict"), core.Person{ID: "1", Username: "admin"})

	out := buf.String()
	assert.Contains(t, out, "WARN: retrying")
	assert.Contains(t, out, "conflict")
	assert.NotContains(t, out, "admin")
}
