package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// CheckpointView is what the hosting view reports about one rendered
// checkpoint. The host keeps it accurate; the extractor only reads it.
type CheckpointView struct {
	ID string `json:"id,omitempty" yaml:"id,omitempty"`

	// Structural signals.
	HasOptions bool `json:"hasOptions" yaml:"has_options"`
	HasEditor  bool `json:"hasEditor" yaml:"has_editor"`

	// Question is the heading/paragraph text of a choice question.
	Question string `json:"question,omitempty" yaml:"question,omitempty"`
	// EditorPrompt is the paragraph rendered next to the code editor.
	EditorPrompt string `json:"editorPrompt,omitempty" yaml:"editor_prompt,omitempty"`

	// OptionLabels are the rendered option labels, e.g. "A. Resource".
	OptionLabels []string `json:"optionLabels,omitempty" yaml:"option_labels,omitempty"`
	// SelectedKey is the value of the selected option control, if any.
	SelectedKey string `json:"selectedKey,omitempty" yaml:"selected,omitempty"`

	BaseCode string `json:"baseCode,omitempty" yaml:"base_code,omitempty"`

	// Editor is the editor instance mounted inside this checkpoint.
	Editor Editor `json:"-" yaml:"-"`
	// RenderedLines are the visible editor lines. Off-screen lines are missing.
	RenderedLines []string `json:"renderedLines,omitempty" yaml:"rendered_lines,omitempty"`
}

// ViewStateSnapshot exposes the checkpoints of the current view in render
// order. Only the first one is considered active.
type ViewStateSnapshot interface {
	Checkpoints() []CheckpointView
}

// StaticSnapshot is a fixed ViewStateSnapshot, typically loaded from a file.
type StaticSnapshot struct {
	Views []CheckpointView `json:"checkpoints" yaml:"checkpoints"`
}

func (s *StaticSnapshot) Checkpoints() []CheckpointView {
	if s == nil {
		return nil
	}
	return s.Views
}

// snapshotFile is the on-disk form; editor_text becomes a mounted editor.
type snapshotFile struct {
	Checkpoints []struct {
		CheckpointView `yaml:",inline"`
		EditorText     string `json:"editorText" yaml:"editor_text"`
	} `json:"checkpoints" yaml:"checkpoints"`
}

// LoadSnapshot reads a StaticSnapshot from a YAML or JSON file. A non-empty
// editor_text is exposed as the checkpoint's mounted editor.
func LoadSnapshot(path string) (*StaticSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var file snapshotFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &file)
	default:
		err = yaml.Unmarshal(data, &file)
	}
	if err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}

	snap := &StaticSnapshot{}
	for _, cp := range file.Checkpoints {
		view := cp.CheckpointView
		if cp.EditorText != "" {
			view.Editor = NewTextEditor(cp.EditorText)
			view.HasEditor = true
		}
		snap.Views = append(snap.Views, view)
	}
	return snap, nil
}
