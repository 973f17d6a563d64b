package agent

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/solenlabs/agent-relay/backend/internal/model/trace"
)

// ReplaySource replays a recorded invocation from a JSONL file, one event
// per line. It exists so the full relay pipeline can run without agent
// credentials; every invocation replays the same recording regardless of
// input text.
type ReplaySource struct {
	path  string
	delay time.Duration
}

// NewReplaySource validates that the recording exists up front so a bad
// path fails at startup, not on the first chat request.
func NewReplaySource(path string, delay time.Duration) (*ReplaySource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("replay recording unavailable: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("replay recording %s is a directory", path)
	}
	return &ReplaySource{path: path, delay: delay}, nil
}

// Invoke opens a fresh pass over the recording.
func (s *ReplaySource) Invoke(ctx context.Context, sessionID, inputText string) (Stream, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open replay recording: %w", err)
	}
	return &replayStream{
		ctx:     ctx,
		file:    f,
		scanner: bufio.NewScanner(f),
		delay:   s.delay,
	}, nil
}

type replayStream struct {
	ctx     context.Context
	file    *os.File
	scanner *bufio.Scanner
	delay   time.Duration
}

func (st *replayStream) Recv() (trace.Event, error) {
	for {
		if err := st.ctx.Err(); err != nil {
			return trace.Event{}, err
		}

		if !st.scanner.Scan() {
			if err := st.scanner.Err(); err != nil {
				return trace.Event{}, fmt.Errorf("failed to read replay recording: %w", err)
			}
			return trace.Event{}, io.EOF
		}

		line := strings.TrimSpace(st.scanner.Text())
		if line == "" {
			continue
		}

		if st.delay > 0 {
			select {
			case <-st.ctx.Done():
				return trace.Event{}, st.ctx.Err()
			case <-time.After(st.delay):
			}
		}

		var ev trace.Event
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			// A malformed line must not kill the invocation; forward it as
			// an untyped trace so subscribers still see something.
			log.Printf("[agent] malformed replay line, forwarding raw: %v", err)
			return trace.Event{Trace: &trace.Payload{Raw: map[string]any{"raw": line}}}, nil
		}
		if ev.Chunk == nil && ev.Trace == nil {
			continue
		}
		return ev, nil
	}
}

func (st *replayStream) Close() error {
	return st.file.Close()
}
