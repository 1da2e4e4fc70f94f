package checkpoint

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/movelearn/tutor/pkg/types"
)

var optionLabelPattern = regexp.MustCompile(`^([A-Z])\.\s*(.+)$`)

// ParseOptionLabel splits a rendered label such as "A. Resource" into its
// key and text. ok is false when the label has no leading option letter.
func ParseOptionLabel(label string) (key, text string, ok bool) {
	m := optionLabelPattern.FindStringSubmatch(strings.TrimSpace(label))
	if m == nil {
		return "", "", false
	}
	return m[1], strings.TrimSpace(m[2]), true
}

// Extractor derives the CheckpointContext of the active checkpoint.
type Extractor struct {
	view    ViewStateSnapshot
	editors *EditorRegistry
	log     *slog.Logger
}

// NewExtractor creates an extractor reading view and editors. Either may be nil.
func NewExtractor(view ViewStateSnapshot, editors *EditorRegistry, log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	if editors == nil {
		editors = NewEditorRegistry()
	}
	return &Extractor{view: view, editors: editors, log: log}
}

// Editors returns the registry consulted for live editor contents.
func (e *Extractor) Editors() *EditorRegistry {
	return e.editors
}

// Extract returns the context of the active checkpoint, or nil when there
// is none or nothing could be read. It never panics.
func (e *Extractor) Extract() (ctx *types.CheckpointContext) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Debug("checkpoint extraction failed", "error", fmt.Sprint(r))
			ctx = nil
		}
	}()

	view, ok := e.active()
	if !ok {
		return nil
	}

	ctx = &types.CheckpointContext{}
	if view.HasOptions {
		ctx.Type = types.CheckpointChoice
		ctx.Question = strings.TrimSpace(view.Question)
		ctx.Options = types.NewOptionSet()
		for _, label := range view.OptionLabels {
			if key, text, ok := ParseOptionLabel(label); ok {
				ctx.Options.Set(key, text)
			}
		}
	}

	// An editor surface wins over option controls.
	if view.HasEditor {
		ctx.Type = types.CheckpointCode
		ctx.Options = nil
		if q := strings.TrimSpace(view.EditorPrompt); q != "" {
			ctx.Question = q
		}
		ctx.Code = e.code(view)
		ctx.BaseCode = view.BaseCode
	}

	if ctx.Empty() {
		return nil
	}
	return ctx
}

// EditorCode reads the code straight from a live editor, skipping the
// rendered-line fallback. It returns "" when no editor holds any code.
func (e *Extractor) EditorCode() (code string) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Debug("editor read failed", "error", fmt.Sprint(r))
			code = ""
		}
	}()

	view, _ := e.active()
	return e.liveCode(view)
}

// SelectedOption returns the selected option as "K. text", or the raw key
// when its label cannot be parsed. It returns "" when nothing is selected.
func (e *Extractor) SelectedOption() (selected string) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Debug("selected option read failed", "error", fmt.Sprint(r))
			selected = ""
		}
	}()

	view, ok := e.active()
	if !ok || view.SelectedKey == "" {
		return ""
	}
	for _, label := range view.OptionLabels {
		if key, text, ok := ParseOptionLabel(label); ok && key == view.SelectedKey {
			return key + ". " + text
		}
	}
	return view.SelectedKey
}

func (e *Extractor) active() (CheckpointView, bool) {
	if e.view == nil {
		return CheckpointView{}, false
	}
	views := e.view.Checkpoints()
	if len(views) == 0 {
		return CheckpointView{}, false
	}
	return views[0], true
}

func (e *Extractor) code(view CheckpointView) string {
	if code := e.liveCode(view); code != "" {
		return code
	}
	if len(view.RenderedLines) > 0 {
		code := strings.Join(view.RenderedLines, "\n")
		if strings.TrimSpace(code) != "" {
			e.log.Debug("code rebuilt from rendered lines, may be incomplete", "lines", len(view.RenderedLines))
			return code
		}
	}
	return ""
}

// liveCode tries the focused editor, then the newest one, then the editor
// mounted in the view. Blank values fall through.
func (e *Extractor) liveCode(view CheckpointView) string {
	for _, ed := range []Editor{e.editors.Current(), e.editors.Latest(), view.Editor} {
		if ed == nil {
			continue
		}
		if v := ed.Value(); strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
