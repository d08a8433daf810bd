// Package diagnostics defines Lox diagnostic types for lexical, syntax and runtime errors.
package diagnostics

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Diagnostic code constants.
const (
	ELex      = "E_LEX"
	EParse    = "E_PARSE"
	ERuntime  = "E_RUNTIME"
	EIO       = "E_IO"
	EConfig   = "E_CONFIG"
	EUsage    = "E_USAGE"
	EInternal = "E_INTERNAL"
)

// Diagnostic represents a lexical, syntax or runtime diagnostic.
type Diagnostic struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	// Where is the location fragment shown after "Error", e.g. " at 'x'" or " at end".
	Where string `json:"where,omitempty"`
	Hint  string `json:"hint,omitempty"`
}

// MakeDiag creates a new Diagnostic.
func MakeDiag(code, message, file string, line int, where string) Diagnostic {
	return Diagnostic{
		Code:    code,
		Message: message,
		File:    file,
		Line:    line,
		Where:   where,
	}
}

// Reporter receives diagnostics as the scanner and parser find them.
type Reporter interface {
	Report(d Diagnostic)
}

// ReporterFunc adapts a plain function to the Reporter interface.
type ReporterFunc func(d Diagnostic)

// Report calls f(d).
func (f ReporterFunc) Report(d Diagnostic) { f(d) }

// Collector is a Reporter that keeps every diagnostic in order.
type Collector struct {
	Diags []Diagnostic
}

// Report appends d.
func (c *Collector) Report(d Diagnostic) {
	c.Diags = append(c.Diags, d)
}

// HasErrors reports whether anything was collected.
func (c *Collector) HasErrors() bool {
	return len(c.Diags) > 0
}

// FormatDiagnostic formats a single diagnostic for display.
func FormatDiagnostic(d Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(d)
		return string(b)
	}
	var out string
	if d.Code == ERuntime {
		out = fmt.Sprintf("%s\n[line %d]", d.Message, d.Line)
	} else if d.Line > 0 {
		out = fmt.Sprintf("[line %d] Error%s: %s", d.Line, d.Where, d.Message)
	} else {
		out = fmt.Sprintf("Error%s: %s", d.Where, d.Message)
	}
	if d.Hint != "" {
		out += fmt.Sprintf("\n  hint: %s", d.Hint)
	}
	return out
}

// FormatDiagnostics formats a slice of diagnostics for display.
func FormatDiagnostics(diags []Diagnostic, pretty bool) string {
	if !pretty {
		if diags == nil {
			diags = []Diagnostic{}
		}
		b, _ := json.Marshal(diags)
		return string(b)
	}
	parts := make([]string, len(diags))
	for i, d := range diags {
		parts[i] = FormatDiagnostic(d, true)
	}
	return strings.Join(parts, "\n")
}
