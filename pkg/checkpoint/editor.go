package checkpoint

import "sync"

// Editor is a live code editor instance. Implementations must be
// comparable (pointer receivers) so the registry can find them again.
type Editor interface {
	Value() string
}

// TextEditor is an in-memory Editor.
type TextEditor struct {
	mu   sync.RWMutex
	text string
}

// NewTextEditor returns an editor holding text.
func NewTextEditor(text string) *TextEditor {
	return &TextEditor{text: text}
}

func (e *TextEditor) Value() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.text
}

// SetValue replaces the editor contents.
func (e *TextEditor) SetValue(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.text = text
}

// EditorRegistry tracks the editors mounted by the hosting view. The view
// owns it; mounted editors register themselves and unregister on unmount.
type EditorRegistry struct {
	mu      sync.RWMutex
	editors []Editor
	current Editor
}

// NewEditorRegistry returns an empty registry.
func NewEditorRegistry() *EditorRegistry {
	return &EditorRegistry{}
}

// Register adds an editor and makes it the current one.
func (r *EditorRegistry) Register(e Editor) {
	if e == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.editors = append(r.editors, e)
	r.current = e
}

// Unregister removes an editor. If it was current, the most recently
// registered remaining editor becomes current.
func (r *EditorRegistry) Unregister(e Editor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.editors {
		if existing == e {
			r.editors = append(r.editors[:i], r.editors[i+1:]...)
			break
		}
	}
	if r.current == e {
		r.current = nil
		if n := len(r.editors); n > 0 {
			r.current = r.editors[n-1]
		}
	}
}

// SetCurrent marks a registered editor as the one with focus.
func (r *EditorRegistry) SetCurrent(e Editor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.editors {
		if existing == e {
			r.current = e
			return
		}
	}
}

// Current returns the editor with focus, or nil.
func (r *EditorRegistry) Current() Editor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Latest returns the most recently registered editor, or nil.
func (r *EditorRegistry) Latest() Editor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if n := len(r.editors); n > 0 {
		return r.editors[n-1]
	}
	return nil
}

// Len returns the number of registered editors.
func (r *EditorRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.editors)
}
