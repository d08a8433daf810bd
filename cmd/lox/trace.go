package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/thomasrohde/lox/go/pkg/evaluator"
	"github.com/thomasrohde/lox/go/pkg/runtime"
)

// traceWriter appends trace events to a file as NDJSON.
type traceWriter struct {
	path string
	f    afero.File
	w    *bufio.Writer
	enc  *json.Encoder
	err  error
}

func openTrace(fs afero.Fs, path string) (*traceWriter, error) {
	f, err := fs.Create(path)
	if err != nil {
		return nil, &runtime.IOError{Op: "create trace", Path: path, Err: err}
	}
	w := bufio.NewWriter(f)
	return &traceWriter{path: path, f: f, w: w, enc: json.NewEncoder(w)}, nil
}

// hook returns the trace callback, or nil when tracing is off.
func (t *traceWriter) hook() func(evaluator.TraceEvent) {
	if t == nil {
		return nil
	}
	return t.write
}

// write keeps the first error and drops later events.
func (t *traceWriter) write(ev evaluator.TraceEvent) {
	if t.err != nil {
		return
	}
	t.err = errors.Wrap(t.enc.Encode(ev), "encode event")
}

func (t *traceWriter) Close() error {
	err := t.err
	if err == nil {
		err = t.w.Flush()
	}
	if cerr := t.f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return &runtime.IOError{Op: "write trace", Path: t.path, Err: err}
	}
	return nil
}

// TraceSummary aggregates the events of a trace file.
type TraceSummary struct {
	RunID         string         `json:"runId"`
	Runs          int            `json:"runs"`
	TotalEvents   int            `json:"totalEvents"`
	Statements    int            `json:"statements"`
	Prints        int            `json:"prints"`
	Blocks        int            `json:"blocks"`
	RuntimeErrors int            `json:"runtimeErrors"`
	Failed        int            `json:"failed"`
	ByEvent       map[string]int `json:"byEvent"`
	SkippedLines  int            `json:"skippedLines,omitempty"`
	StartTime     string         `json:"startTime,omitempty"`
	EndTime       string         `json:"endTime,omitempty"`
	DurationMs    float64        `json:"durationMs"`
}

type traceLine struct {
	Event string         `json:"event"`
	RunID string         `json:"runId"`
	TS    string         `json:"ts"`
	Data  map[string]any `json:"data,omitempty"`
}

func computeTraceSummary(r io.Reader) (*TraceSummary, error) {
	summary := &TraceSummary{ByEvent: make(map[string]int)}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var event traceLine
		if err := json.Unmarshal([]byte(line), &event); err != nil || event.Event == "" {
			summary.SkippedLines++
			continue
		}

		summary.TotalEvents++
		summary.ByEvent[event.Event]++
		if summary.RunID == "" {
			summary.RunID = event.RunID
		}

		switch evaluator.TraceEventType(event.Event) {
		case evaluator.TraceRunStart:
			summary.Runs++
			if summary.StartTime == "" {
				summary.StartTime = event.TS
			}
		case evaluator.TraceRunEnd:
			summary.EndTime = event.TS
			if ok, found := event.Data["ok"].(bool); found && !ok {
				summary.Failed++
			}
		case evaluator.TraceStmtStart:
			summary.Statements++
		case evaluator.TracePrint:
			summary.Prints++
		case evaluator.TraceBlockStart:
			summary.Blocks++
		case evaluator.TraceRuntimeError:
			summary.RuntimeErrors++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if summary.StartTime != "" && summary.EndTime != "" {
		start, err1 := parseTime(summary.StartTime)
		end, err2 := parseTime(summary.EndTime)
		if err1 == nil && err2 == nil {
			summary.DurationMs = float64(end.Sub(start).Microseconds()) / 1000
		}
	}
	return summary, nil
}

func printTraceSummaryText(w io.Writer, s *TraceSummary) {
	fmt.Fprintf(w, "Run: %s\n", s.RunID)
	fmt.Fprintf(w, "Runs: %d (%d failed)\n", s.Runs, s.Failed)
	fmt.Fprintf(w, "Events: %d\n", s.TotalEvents)
	names := make([]string, 0, len(s.ByEvent))
	for name := range s.ByEvent {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %d\n", name, s.ByEvent[name])
	}
	fmt.Fprintf(w, "Statements: %d, prints: %d, blocks: %d\n", s.Statements, s.Prints, s.Blocks)
	fmt.Fprintf(w, "Runtime errors: %d\n", s.RuntimeErrors)
	if s.SkippedLines > 0 {
		fmt.Fprintf(w, "Skipped lines: %d\n", s.SkippedLines)
	}
	if s.DurationMs > 0 {
		fmt.Fprintf(w, "Duration: %.3fms\n", s.DurationMs)
	}
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, errors.Errorf("cannot parse time: %s", s)
}
