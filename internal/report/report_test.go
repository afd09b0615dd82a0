// SPDX-License-Identifier: MPL-2.0

package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRunReport_Finish(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		statuses []Status
		want     bool
	}{
		{name: "all succeeded", statuses: []Status{StatusSucceeded, StatusSucceeded}, want: true},
		{name: "one failed", statuses: []Status{StatusSucceeded, StatusFailed}, want: false},
		{name: "skips do not fail", statuses: []Status{StatusSucceeded, StatusSkipped}, want: true},
		{name: "empty run", statuses: nil, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := New("run", "digest")
			for i, st := range tt.statuses {
				r.Add(StepRecord{ID: string(rune('a' + i)), Status: st})
			}
			r.Finish()
			if r.Success != tt.want {
				t.Errorf("Success = %v, want %v", r.Success, tt.want)
			}
			if r.FinishedAt.Before(r.StartedAt) {
				t.Error("FinishedAt precedes StartedAt")
			}
		})
	}
}

func TestRunReport_UniqueRunIDs(t *testing.T) {
	t.Parallel()
	a := New("run", "")
	b := New("run", "")
	if a.RunID == b.RunID {
		t.Error("run IDs must be unique")
	}
	if a.RunID == "" {
		t.Error("run ID must not be empty")
	}
}

func TestEnvelope_WriteJSON(t *testing.T) {
	t.Parallel()
	env := NewEnvelope("plan", map[string]int{"steps": 3})
	var buf bytes.Buffer
	if err := env.WriteJSON(&buf); err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("envelope is not valid JSON: %v", err)
	}
	if decoded["schema"] != SchemaVersion {
		t.Errorf("schema = %v", decoded["schema"])
	}
	if decoded["success"] != true {
		t.Error("expected success")
	}
}

func TestEnvelope_Errors(t *testing.T) {
	t.Parallel()
	env := NewEnvelope("publish", nil, errors.New("push rejected"), nil)
	if env.Success {
		t.Error("an error must clear success")
	}
	if len(env.Errors) != 1 || env.Errors[0] != "push rejected" {
		t.Errorf("unexpected errors: %v", env.Errors)
	}
}

func TestRender(t *testing.T) {
	t.Parallel()
	r := New("run", "digest")
	r.Add(StepRecord{ID: "build", Description: "Build projects", Status: StatusSucceeded, Duration: 2 * time.Second})
	r.Add(StepRecord{ID: "sign", Status: StatusFailed, Error: "certificate not found", Output: "tool output"})
	r.Add(StepRecord{ID: "publish", Status: StatusSkipped, Reason: `dependency "sign" failed`})
	r.Finish()

	var buf bytes.Buffer
	Render(&buf, r)
	out := buf.String()

	for _, want := range []string{"build", "sign", "publish", "certificate not found", "Pipeline failed", `dependency "sign" failed`} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered output missing %q:\n%s", want, out)
		}
	}
}
