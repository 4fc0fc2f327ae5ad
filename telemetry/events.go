// Package telemetry provides sward health tracking, bookmarking, snapshots
// and the report sinks.
package telemetry

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// EventType identifies telemetry events.
type EventType string

const (
	EventSow         EventType = "sow"
	EventGraze       EventType = "graze"
	EventCut         EventType = "cut"
	EventKill        EventType = "kill"
	EventBookmark    EventType = "bookmark"
	EventMassBalance EventType = "mass_balance"
)

// Event represents a single management or state event.
type Event struct {
	Type    EventType `json:"type"`
	Day     int       `json:"day"`
	Date    string    `json:"date"`
	Species string    `json:"species,omitempty"`

	// Optional fields depending on event type
	Amount float64 `json:"amount,omitempty"` // DM removed (kg/ha) or fraction killed
	Detail string  `json:"detail,omitempty"`
}

// EventLog writes events as zstd-compressed JSON lines.
type EventLog struct {
	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

// EventLogName is the event file name inside the output directory.
const EventLogName = "events.jsonl.zst"

// NewEventLog creates the event log in dir.
func NewEventLog(dir string) (*EventLog, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating event log directory: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, EventLogName))
	if err != nil {
		return nil, fmt.Errorf("creating event log: %w", err)
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("creating event encoder: %w", err)
	}
	return &EventLog{f: f, enc: enc, w: bufio.NewWriterSize(enc, 64*1024)}, nil
}

// Write appends one event. A nil log discards it.
func (l *EventLog) Write(e Event) error {
	if l == nil {
		return nil
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.w.Write(b); err != nil {
		return err
	}
	return l.w.WriteByte('\n')
}

// Close flushes and closes the log.
func (l *EventLog) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	var firstErr error
	if err := l.w.Flush(); err != nil {
		firstErr = err
	}
	if err := l.enc.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := l.f.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// ReadEvents decodes a compressed event stream.
func ReadEvents(r io.Reader) ([]Event, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening event stream: %w", err)
	}
	defer dec.Close()

	var events []Event
	sc := bufio.NewScanner(dec)
	for sc.Scan() {
		var e Event
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("event %d: %w", len(events)+1, err)
		}
		events = append(events, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading events: %w", err)
	}
	return events, nil
}

// ReadEventFile decodes an event log file.
func ReadEventFile(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}
	defer f.Close()
	return ReadEvents(f)
}
