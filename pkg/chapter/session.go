// Package chapter drives the checkpoints of one chapter: submitting
// answers, tracking what passed and moving on to the next chapter.
package chapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/movelearn/tutor/pkg/checkpoint"
	"github.com/movelearn/tutor/pkg/client"
	"github.com/movelearn/tutor/pkg/types"
)

var (
	ErrCheckpointLocked   = errors.New("checkpoint already passed")
	ErrCheckpointsPending = errors.New("complete all checkpoints before continuing")
	ErrUnknownCheckpoint  = errors.New("checkpoint not in chapter")
	ErrEmptyAnswer        = errors.New("answer is empty")
)

const (
	passedNotice      = "检查点通过！"
	codeFailedNotice  = "代码编译失败，请查看输出信息并重新提交"
	wrongAnswerNotice = "答案不正确，请重新尝试"
	codeFailedError   = "代码编译失败"
	wrongAnswerError  = "答案不正确"
)

// Grader grades answers. client.CheckpointController implements it.
type Grader interface {
	Commit(ctx context.Context, id, content string) (*client.CommitResult, error)
	IsPassed(ctx context.Context, chapterID string) (bool, error)
}

// ProgressRecorder saves course progress. client.ProgressController
// implements it.
type ProgressRecorder interface {
	Update(ctx context.Context, courseID, chapterID string) (*client.Response[any], error)
	Finish(ctx context.Context, courseID, chapterID string) (*client.Response[any], error)
}

// Publisher receives assistant events.
type Publisher interface {
	Publish(types.AssistantEvent)
}

// CheckpointState is the submission state of one checkpoint.
type CheckpointState struct {
	Submitted bool
	Passed    bool
	Correct   bool
	Message   string
	Output    string
}

// SubmitResult is the outcome of Submit.
type SubmitResult struct {
	State CheckpointState
	// Notice is the message to show the learner.
	Notice string
}

// Options wires a Session. Grader is required.
type Options struct {
	Grader   Grader
	Progress ProgressRecorder
	Events   Publisher
	Logger   *slog.Logger
}

// Session tracks one opened chapter.
type Session struct {
	chapter  client.Chapter
	grader   Grader
	progress ProgressRecorder
	events   Publisher
	log      *slog.Logger

	mu            sync.Mutex
	chapterPassed bool
	states        map[string]CheckpointState
	answers       map[string]string
}

// NewSession opens chapter.
func NewSession(chapter client.Chapter, opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Session{
		chapter:  chapter,
		grader:   opts.Grader,
		progress: opts.Progress,
		events:   opts.Events,
		log:      opts.Logger.With("chapter", chapter.ID),
		states:   make(map[string]CheckpointState),
		answers:  make(map[string]string),
	}
}

// Chapter returns the chapter being worked on.
func (s *Session) Chapter() client.Chapter {
	return s.chapter
}

// Refresh asks the backend whether the chapter was passed before. A failed
// lookup leaves the chapter not passed.
func (s *Session) Refresh(ctx context.Context) {
	if len(s.chapter.Checkpoints) == 0 {
		return
	}
	passed, err := s.grader.IsPassed(ctx, s.chapter.ID)
	if err != nil {
		s.log.Warn("failed to check chapter status", "error", err)
		passed = false
	}
	s.mu.Lock()
	s.chapterPassed = passed
	s.mu.Unlock()
}

// ChapterPassed reports whether the chapter was passed in an earlier visit.
func (s *Session) ChapterPassed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chapterPassed
}

// State returns the state of checkpoint id.
func (s *Session) State(id string) CheckpointState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[id]
}

// SetAnswer records the learner's current answer without submitting it.
// Passed checkpoints keep their answer.
func (s *Session) SetAnswer(id, answer string) error {
	if _, ok := s.find(id); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCheckpoint, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if st := s.states[id]; st.Submitted && st.Passed {
		return ErrCheckpointLocked
	}
	s.answers[id] = answer
	return nil
}

// Answer returns the current answer of checkpoint id. CODE checkpoints
// start from their base code.
func (s *Session) Answer(id string) string {
	s.mu.Lock()
	answer, ok := s.answers[id]
	s.mu.Unlock()
	if ok {
		return answer
	}
	if cp, found := s.find(id); found && cp.Type == types.CheckpointCode {
		return cp.BaseCode
	}
	return ""
}

// Submit sends answer for grading. A passed checkpoint is locked; a failed
// one is immediately open for another submission.
func (s *Session) Submit(ctx context.Context, id, answer string) (SubmitResult, error) {
	cp, ok := s.find(id)
	if !ok {
		return SubmitResult{}, fmt.Errorf("%w: %s", ErrUnknownCheckpoint, id)
	}
	if strings.TrimSpace(answer) == "" {
		return SubmitResult{}, ErrEmptyAnswer
	}

	s.mu.Lock()
	if st := s.states[id]; st.Submitted && st.Passed {
		s.mu.Unlock()
		return SubmitResult{State: st}, ErrCheckpointLocked
	}
	s.answers[id] = answer
	s.mu.Unlock()

	res, err := s.grader.Commit(ctx, id, answer)
	if err != nil {
		s.log.Error("failed to submit answer", "checkpoint", id, "error", err)
		return SubmitResult{State: s.State(id), Notice: "提交失败，请重试"}, fmt.Errorf("commit checkpoint %s: %w", id, err)
	}

	passed := res.Passed()
	message := res.Text()
	output := res.CompilerOutput()
	st := CheckpointState{
		Submitted: true,
		Passed:    passed,
		Correct:   passed,
		Message:   message,
		Output:    output,
	}

	if passed {
		s.setState(id, st)
		s.log.Info("checkpoint passed", "checkpoint", id)
		s.publish(types.NewAssistantEvent(types.EventCheckpointCompleted, ""))
		return SubmitResult{State: st, Notice: passedNotice}, nil
	}

	// Failed submissions are retryable right away.
	st.Submitted = false
	s.setState(id, st)
	s.log.Info("checkpoint failed", "checkpoint", id, "type", cp.Type)

	notice := message
	if notice == "" {
		notice = wrongAnswerNotice
		if cp.Type == types.CheckpointCode {
			notice = codeFailedNotice
		}
	}
	ev := types.NewAssistantEvent(types.EventAnalyzeError, "")
	ev.ErrorInfo = failureInfo(cp, answer, message, output)
	s.publish(ev)

	return SubmitResult{State: st, Notice: notice}, nil
}

func failureInfo(cp client.Checkpoint, answer, message, output string) *types.ErrorInfo {
	if cp.Type == types.CheckpointCode {
		code := answer
		if code == "" {
			code = cp.BaseCode
		}
		return &types.ErrorInfo{
			Message:        firstNonEmpty(output, message, codeFailedError),
			Code:           code,
			CheckpointType: cp.Type,
		}
	}
	return &types.ErrorInfo{
		Message:        firstNonEmpty(message, wrongAnswerError),
		CheckpointType: cp.Type,
	}
}

// AllPassed reports whether the learner may move on.
func (s *Session) AllPassed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.chapterPassed || len(s.chapter.Checkpoints) == 0 {
		return true
	}
	for _, cp := range s.chapter.Checkpoints {
		st, ok := s.states[cp.ID]
		if !ok {
			return false
		}
		if cp.Type == types.CheckpointCode {
			if !st.Correct {
				return false
			}
		} else if !st.Passed {
			return false
		}
	}
	return true
}

// NextRoute is where Advance leads.
func (s *Session) NextRoute() string {
	if s.chapter.NextChapterID != "" {
		return "/chapters/" + s.chapter.NextChapterID
	}
	return "/courses/" + s.chapter.CourseID
}

// Advance records progress and returns the route to show next. The route is
// returned even when saving progress fails; the error then says why.
func (s *Session) Advance(ctx context.Context) (string, error) {
	if !s.AllPassed() {
		return "", ErrCheckpointsPending
	}
	s.publish(types.NewAssistantEvent(types.EventChapterCompleted, ""))

	route := s.NextRoute()
	if s.progress == nil {
		return route, nil
	}

	var err error
	if s.chapter.NextChapterID != "" {
		_, err = s.progress.Update(ctx, s.chapter.CourseID, s.chapter.ID)
	} else {
		_, err = s.progress.Finish(ctx, s.chapter.CourseID, s.chapter.ID)
	}
	if err != nil {
		s.log.Warn("failed to save progress", "error", err)
		return route, fmt.Errorf("save progress: %w", err)
	}
	return route, nil
}

// Checkpoints exposes the chapter as a checkpoint view, so the active
// checkpoint can be extracted for assistant requests.
func (s *Session) Checkpoints() []checkpoint.CheckpointView {
	views := make([]checkpoint.CheckpointView, 0, len(s.chapter.Checkpoints))
	for _, cp := range s.chapter.Checkpoints {
		view := checkpoint.CheckpointView{ID: cp.ID, BaseCode: cp.BaseCode}
		if cp.Options != nil {
			view.Question = cp.Options.Question
		}
		switch cp.Type {
		case types.CheckpointCode:
			view.HasEditor = true
			view.EditorPrompt = view.Question
			view.Editor = checkpoint.NewTextEditor(s.Answer(cp.ID))
		case types.CheckpointChoice:
			view.HasOptions = true
			view.SelectedKey = s.Answer(cp.ID)
			if cp.Options != nil {
				for _, key := range slices.Sorted(maps.Keys(cp.Options.Options)) {
					view.OptionLabels = append(view.OptionLabels, key+". "+cp.Options.Options[key])
				}
			}
		}
		views = append(views, view)
	}
	return views
}

func (s *Session) find(id string) (client.Checkpoint, bool) {
	for _, cp := range s.chapter.Checkpoints {
		if cp.ID == id {
			return cp, true
		}
	}
	return client.Checkpoint{}, false
}

func (s *Session) setState(id string, st CheckpointState) {
	s.mu.Lock()
	s.states[id] = st
	s.mu.Unlock()
}

func (s *Session) publish(ev types.AssistantEvent) {
	if s.events != nil {
		s.events.Publish(ev)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
