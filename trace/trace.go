// Package trace provides an optional register-dump sink: one JSON line
// per committed instruction, written as the engine runs. It is purely
// observational and is never consulted by the simulator itself.
package trace

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// Event is one committed instruction's register-file snapshot.
type Event struct {
	CommitIndex  uint64    `json:"commit_index"`
	InstructionPC uint32   `json:"instruction_pc"`
	Registers    [32]int32 `json:"registers"`
}

// Sink writes one JSON object per Record call, comma-separated, inside
// the "events" array of a top-level object, tagged with a run identifier so trace files from
// separate runs can be told apart if concatenated.
type Sink struct {
	w         io.Writer
	closer    io.Closer
	lock      sync.Mutex
	runID     string
	wroteOne  bool
	finished  bool
}

// Open creates the trace file at path and writes its header. The
// returned Sink must eventually be closed. Close is also registered with
// atexit.Register, so it runs if the process ends through atexit.Exit;
// a plain os.Exit does not run it.
func Open(path string) (*Sink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("trace: %w", err)
	}

	s := &Sink{
		w:      bufio.NewWriter(f),
		closer: f,
		runID:  xid.New().String(),
	}

	if _, err := fmt.Fprintf(s.w, "{\"run_id\":%q,\"events\":[\n", s.runID); err != nil {
		f.Close()
		return nil, fmt.Errorf("trace: %w", err)
	}

	atexit.Register(func() { s.Close() })

	return s, nil
}

// Record appends one commit event to the trace.
func (s *Sink) Record(ev Event) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.finished {
		return
	}

	if s.wroteOne {
		s.w.Write([]byte(",\n"))
	}
	s.wroteOne = true

	b, err := json.Marshal(ev)
	if err != nil {
		return
	}
	s.w.Write(b)
}

// Close writes the closing brackets and flushes the underlying file.
// Safe to call more than once; only the first call does anything.
func (s *Sink) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.finished {
		return nil
	}
	s.finished = true

	s.w.Write([]byte("\n]}\n"))
	if bw, ok := s.w.(*bufio.Writer); ok {
		bw.Flush()
	}
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
