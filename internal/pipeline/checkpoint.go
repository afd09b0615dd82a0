// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// CheckpointFileName is the per-project checkpoint file, written next to
// the forge spec.
const CheckpointFileName = ".powerforge-checkpoint.json"

type (
	// Checkpoint persists the completed steps of an interrupted run so a
	// later run with --resume can skip them. It is bound to a spec digest:
	// editing the spec invalidates the checkpoint.
	Checkpoint struct {
		path  string
		state checkpointState
		done  map[StepID]bool
	}

	checkpointState struct {
		SpecDigest     string   `json:"specDigest"`
		CompletedSteps []string `json:"completedSteps"`
	}
)

// NewCheckpoint creates an empty checkpoint for the given spec digest,
// stored in dir.
func NewCheckpoint(dir, specDigest string) *Checkpoint {
	return &Checkpoint{
		path:  filepath.Join(dir, CheckpointFileName),
		state: checkpointState{SpecDigest: specDigest},
		done:  make(map[StepID]bool),
	}
}

// LoadCheckpoint reads the checkpoint stored in dir. A missing file
// returns (nil, nil): no previous run to resume.
func LoadCheckpoint(dir string) (*Checkpoint, error) {
	path := filepath.Join(dir, CheckpointFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}

	var state checkpointState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint %s: %w", path, err)
	}

	c := &Checkpoint{path: path, state: state, done: make(map[StepID]bool, len(state.CompletedSteps))}
	for _, id := range state.CompletedSteps {
		c.done[StepID(id)] = true
	}
	return c, nil
}

// Path returns the checkpoint file location.
func (c *Checkpoint) Path() string { return c.path }

// Matches reports whether the checkpoint was written for the given spec
// digest.
func (c *Checkpoint) Matches(specDigest string) bool {
	return specDigest != "" && c.state.SpecDigest == specDigest
}

// IsDone reports whether a step completed in the recorded run.
func (c *Checkpoint) IsDone(id StepID) bool { return c.done[id] }

// MarkDone records a completed step. Call Save to persist.
func (c *Checkpoint) MarkDone(id StepID) {
	if c.done[id] {
		return
	}
	c.done[id] = true
	c.state.CompletedSteps = append(c.state.CompletedSteps, string(id))
}

// Save writes the checkpoint to disk.
func (c *Checkpoint) Save() error {
	data, err := json.MarshalIndent(c.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	return nil
}

// Clear removes the checkpoint file. A missing file is not an error.
func (c *Checkpoint) Clear() error {
	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove checkpoint: %w", err)
	}
	return nil
}
