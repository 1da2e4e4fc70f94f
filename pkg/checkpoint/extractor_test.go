package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movelearn/tutor/pkg/types"
)

type panickingView struct{}

func (panickingView) Checkpoints() []CheckpointView { panic("view detached") }

type panickingEditor struct{}

func (*panickingEditor) Value() string { panic("editor disposed") }

func choiceView() *StaticSnapshot {
	return &StaticSnapshot{Views: []CheckpointView{{
		HasOptions:   true,
		Question:     "Q?",
		OptionLabels: []string{"A. x", "B. y"},
	}}}
}

func TestExtractNoActiveCheckpoint(t *testing.T) {
	assert.Nil(t, NewExtractor(nil, nil, nil).Extract())
	assert.Nil(t, NewExtractor(&StaticSnapshot{}, nil, nil).Extract())
}

func TestExtractChoice(t *testing.T) {
	ctx := NewExtractor(choiceView(), nil, nil).Extract()
	require.NotNil(t, ctx)

	assert.Equal(t, types.CheckpointChoice, ctx.Type)
	assert.Equal(t, "Q?", ctx.Question)
	assert.Equal(t, []types.Option{{Key: "A", Text: "x"}, {Key: "B", Text: "y"}}, ctx.Options.Entries())
	assert.Empty(t, ctx.Code)
	assert.Empty(t, ctx.BaseCode)
}

func TestExtractSkipsUnmatchedLabels(t *testing.T) {
	view := choiceView()
	view.Views[0].OptionLabels = []string{"A. x", "none of these", "b. lower", "C.  spaced  "}

	ctx := NewExtractor(view, nil, nil).Extract()
	require.NotNil(t, ctx)
	assert.Equal(t, []types.Option{{Key: "A", Text: "x"}, {Key: "C", Text: "spaced"}}, ctx.Options.Entries())
}

func TestExtractOnlyFirstCheckpoint(t *testing.T) {
	view := choiceView()
	view.Views = append(view.Views, CheckpointView{HasEditor: true, EditorPrompt: "second"})

	ctx := NewExtractor(view, nil, nil).Extract()
	require.NotNil(t, ctx)
	assert.Equal(t, types.CheckpointChoice, ctx.Type)
}

func TestExtractCodeLookupOrder(t *testing.T) {
	mounted := NewTextEditor("mounted")
	view := &StaticSnapshot{Views: []CheckpointView{{
		HasEditor:     true,
		EditorPrompt:  "Write a module",
		BaseCode:      "module 0x1::m {}",
		Editor:        mounted,
		RenderedLines: []string{"rendered 1", "rendered 2"},
	}}}

	reg := NewEditorRegistry()
	ex := NewExtractor(view, reg, nil)

	first := NewTextEditor("first")
	second := NewTextEditor("second")
	reg.Register(first)
	reg.Register(second)
	reg.SetCurrent(first)

	ctx := ex.Extract()
	require.NotNil(t, ctx)
	assert.Equal(t, types.CheckpointCode, ctx.Type)
	assert.Equal(t, "Write a module", ctx.Question)
	assert.Equal(t, "module 0x1::m {}", ctx.BaseCode)
	assert.Nil(t, ctx.Options)
	assert.Equal(t, "first", ctx.Code)

	first.SetValue("   ")
	assert.Equal(t, "second", ex.Extract().Code, "blank current editor falls through to latest")

	reg.Unregister(first)
	reg.Unregister(second)
	assert.Equal(t, "mounted", ex.Extract().Code)
	assert.Equal(t, "mounted", ex.EditorCode())

	mounted.SetValue("")
	assert.Equal(t, "rendered 1\nrendered 2", ex.Extract().Code)
	assert.Empty(t, ex.EditorCode(), "rendered lines are not a live read")
}

func TestExtractEditorWinsOverOptions(t *testing.T) {
	view := choiceView()
	view.Views[0].HasEditor = true
	view.Views[0].RenderedLines = []string{"let x = 1;"}

	ctx := NewExtractor(view, nil, nil).Extract()
	require.NotNil(t, ctx)
	assert.Equal(t, types.CheckpointCode, ctx.Type)
	assert.Nil(t, ctx.Options)
	assert.Equal(t, "Q?", ctx.Question, "choice question kept when no editor prompt")
}

func TestExtractNothingPopulated(t *testing.T) {
	view := &StaticSnapshot{Views: []CheckpointView{{}}}
	assert.Nil(t, NewExtractor(view, nil, nil).Extract())
}

func TestExtractRecoversFromPanics(t *testing.T) {
	assert.Nil(t, NewExtractor(panickingView{}, nil, nil).Extract())
	assert.Empty(t, NewExtractor(panickingView{}, nil, nil).SelectedOption())

	reg := NewEditorRegistry()
	reg.Register(&panickingEditor{})
	view := &StaticSnapshot{Views: []CheckpointView{{HasEditor: true}}}
	ex := NewExtractor(view, reg, nil)
	assert.Nil(t, ex.Extract())
	assert.Empty(t, ex.EditorCode())
}

func TestExtractIsIdempotent(t *testing.T) {
	ex := NewExtractor(choiceView(), nil, nil)
	first, second := ex.Extract(), ex.Extract()
	require.NotNil(t, first)
	assert.Equal(t, first, second)
	assert.NotSame(t, first, second)
}

func TestSelectedOption(t *testing.T) {
	view := choiceView()
	ex := NewExtractor(view, nil, nil)
	assert.Empty(t, ex.SelectedOption())

	view.Views[0].SelectedKey = "B"
	assert.Equal(t, "B. y", ex.SelectedOption())

	view.Views[0].SelectedKey = "D"
	assert.Equal(t, "D", ex.SelectedOption())
}

func TestLoadSnapshot(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "view.yaml")
	body := "checkpoints:\n" +
		"  - has_editor: true\n" +
		"    editor_prompt: Fix the bug\n" +
		"    base_code: \"module a {}\"\n" +
		"    editor_text: \"module a { fun f() {} }\"\n"
	require.NoError(t, os.WriteFile(yamlPath, []byte(body), 0o644))

	snap, err := LoadSnapshot(yamlPath)
	require.NoError(t, err)
	ctx := NewExtractor(snap, nil, nil).Extract()
	require.NotNil(t, ctx)
	assert.Equal(t, "module a { fun f() {} }", ctx.Code)
	assert.Equal(t, "module a {}", ctx.BaseCode)

	jsonPath := filepath.Join(dir, "view.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"checkpoints":[{"hasOptions":true,"question":"Q?","optionLabels":["A. x"],"selectedKey":"A"}]}`), 0o644))
	snap, err = LoadSnapshot(jsonPath)
	require.NoError(t, err)
	ex := NewExtractor(snap, nil, nil)
	assert.Equal(t, "A. x", ex.SelectedOption())

	_, err = LoadSnapshot(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestEditorRegistry(t *testing.T) {
	reg := NewEditorRegistry()
	assert.Nil(t, reg.Current())
	assert.Nil(t, reg.Latest())

	a, b := NewTextEditor("a"), NewTextEditor("b")
	reg.Register(a)
	reg.Register(b)
	assert.Same(t, b, reg.Current())

	reg.SetCurrent(NewTextEditor("stranger"))
	assert.Same(t, b, reg.Current(), "unregistered editors cannot become current")

	reg.SetCurrent(a)
	reg.Unregister(a)
	assert.Same(t, b, reg.Current())
	assert.Equal(t, 1, reg.Len())
}
