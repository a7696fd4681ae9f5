package worker

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgressPrint(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(10, true)
	p.output = &buf
	p.startTime = time.Now().Add(-10 * time.Second)

	p.Update(5, 10, 1)

	out := buf.String()
	assert.Contains(t, out, "█")
	assert.Contains(t, out, "5/10 tiles")
	assert.Contains(t, out, "(1 failed)")
	assert.Contains(t, out, "tiles/sec")
	assert.Contains(t, out, "ETA:")
}

func TestProgressDone(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(3, true)
	p.output = &buf
	p.startTime = time.Now().Add(-3 * time.Second)

	p.Update(3, 3, 0)
	buf.Reset()
	p.Done()

	assert.Contains(t, buf.String(), "Done in")
	assert.Equal(t, byte('\n'), buf.Bytes()[buf.Len()-1])
}

func TestProgressDisabled(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(10, false)
	p.output = &buf

	p.Callback()(5, 10, 0)
	p.Done()

	assert.Zero(t, buf.Len())
	assert.Equal(t, 5, p.completed)
}

func TestProgressSummary(t *testing.T) {
	p := NewProgress(10, false)
	p.startTime = time.Now().Add(-10 * time.Second)
	p.Update(10, 10, 2)

	s := p.Summary()
	assert.Contains(t, s, "8/10 tiles")
	assert.Contains(t, s, "2 failed")
}

func TestProgressZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(0, true)
	p.output = &buf

	assert.NotPanics(t, func() { p.Update(0, 0, 0) })
	assert.Contains(t, buf.String(), "0/0 tiles")
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		duration time.Duration
		want     string
	}{
		{30 * time.Second, "30s"},
		{90 * time.Second, "1m30s"},
		{5 * time.Minute, "5m0s"},
		{65 * time.Minute, "1h5m"},
		{2*time.Hour + 30*time.Minute, "2h30m"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, formatDuration(tt.duration))
		})
	}
}
