package controller

import (
	"bufio"
	"bytes"
	"errors"
	"testing"

	"paperinsight-be/internal/dto"

	"github.com/stretchr/testify/assert"
)

type brokenWriter struct{}

func (brokenWriter) Write(p []byte) (int, error) {
	return 0, errors.New("connection reset by peer")
}

func TestStreamEventsWritesFrames(t *testing.T) {
	var buf bytes.Buffer
	events := make(chan dto.ChatEvent, 2)
	events <- dto.NewTextEvent(1, "hello", true)
	events <- dto.NewCompleteEvent(2)
	close(events)

	streamEvents(bufio.NewWriter(&buf), events, func() {
		t.Fatal("unexpected disconnect callback")
	})

	out := buf.String()
	assert.Contains(t, out, "data: ")
	assert.Contains(t, out, `"seq":1`)
	assert.Contains(t, out, `"seq":2`)
}

func TestStreamEventsStopsRunOnDisconnect(t *testing.T) {
	events := make(chan dto.ChatEvent, 3)
	events <- dto.NewTextEvent(1, "hello", true)
	events <- dto.NewTextEvent(2, "world", true)
	events <- dto.NewCompleteEvent(3)
	close(events)

	stops := 0
	streamEvents(bufio.NewWriter(brokenWriter{}), events, func() { stops++ })

	// The stop callback fires exactly once, and the channel is fully
	// drained so the producer goroutine never blocks.
	assert.Equal(t, 1, stops)
	assert.Empty(t, events)
}
