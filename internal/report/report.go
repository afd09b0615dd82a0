// SPDX-License-Identifier: MPL-2.0

// Package report aggregates pipeline run results and renders them for
// humans (lipgloss tables) and machines (a stable JSON envelope).
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// SchemaVersion identifies the JSON envelope layout. Bump on breaking
// changes to the envelope or the run report shape.
const SchemaVersion = "powerforge/v1"

const (
	// StatusSucceeded marks a step that ran and passed.
	StatusSucceeded Status = "succeeded"
	// StatusFailed marks a step that ran and failed.
	StatusFailed Status = "failed"
	// StatusSkipped marks a step that did not run.
	StatusSkipped Status = "skipped"
)

type (
	// Status is the outcome of a single pipeline step.
	Status string

	// StepRecord is one step's outcome inside a run report.
	StepRecord struct {
		ID          string `json:"id"`
		Description string `json:"description"`
		Status      Status `json:"status"`
		// Reason explains a skip (dependency failure, resume, cancellation).
		Reason   string        `json:"reason,omitempty"`
		Duration time.Duration `json:"duration"`
		// Output is the step's captured tool output, when the step chose
		// to record it.
		Output string `json:"output,omitempty"`
		Error  string `json:"error,omitempty"`
	}

	// RunReport aggregates every step outcome of one pipeline run.
	RunReport struct {
		RunID      string       `json:"runId"`
		Command    string       `json:"command"`
		SpecDigest string       `json:"specDigest,omitempty"`
		StartedAt  time.Time    `json:"startedAt"`
		FinishedAt time.Time    `json:"finishedAt"`
		Steps      []StepRecord `json:"steps"`
		Success    bool         `json:"success"`
	}

	// Envelope is the machine-readable wrapper every command emits
	// under --json.
	Envelope struct {
		Schema  string   `json:"schema"`
		Command string   `json:"command"`
		Success bool     `json:"success"`
		Data    any      `json:"data,omitempty"`
		Errors  []string `json:"errors,omitempty"`
	}
)

// New starts a run report for the given command over the given spec digest.
func New(command, specDigest string) *RunReport {
	return &RunReport{
		RunID:      uuid.NewString(),
		Command:    command,
		SpecDigest: specDigest,
		StartedAt:  time.Now(),
	}
}

// Add appends a step outcome.
func (r *RunReport) Add(rec StepRecord) {
	r.Steps = append(r.Steps, rec)
}

// Finish stamps the end time and computes overall success: a run succeeds
// when no step failed. Skipped steps do not fail a run by themselves.
func (r *RunReport) Finish() {
	r.FinishedAt = time.Now()
	r.Success = true
	for _, s := range r.Steps {
		if s.Status == StatusFailed {
			r.Success = false
			return
		}
	}
}

// Failed returns the records of all failed steps.
func (r *RunReport) Failed() []StepRecord {
	var out []StepRecord
	for _, s := range r.Steps {
		if s.Status == StatusFailed {
			out = append(out, s)
		}
	}
	return out
}

// Duration returns the wall-clock duration of the run.
func (r *RunReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// NewEnvelope wraps data for --json output. Errors become message strings
// so the envelope stays serializable regardless of error types.
func NewEnvelope(command string, data any, errs ...error) *Envelope {
	env := &Envelope{
		Schema:  SchemaVersion,
		Command: command,
		Success: true,
		Data:    data,
	}
	for _, err := range errs {
		if err == nil {
			continue
		}
		env.Success = false
		env.Errors = append(env.Errors, err.Error())
	}
	return env
}

// WriteJSON writes the envelope as indented JSON.
func (e *Envelope) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(e); err != nil {
		return fmt.Errorf("failed to encode report envelope: %w", err)
	}
	return nil
}
