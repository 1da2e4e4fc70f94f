package client

import (
	"context"
	"net/http"
	"net/url"
)

type CheckpointController struct {
	exec Executor
}

// Commit submits an answer (option key, text or code) for grading.
func (c *CheckpointController) Commit(ctx context.Context, id, content string) (*CommitResult, error) {
	resp, err := Do[CommitResult](ctx, c.exec, Request{
		URI:    "/api/checkpoint/commit/" + url.PathEscape(id),
		Method: http.MethodPost,
		Body:   CommitRequest{Content: content},
	})
	if err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// IsPassed reports whether the user already passed the chapter.
func (c *CheckpointController) IsPassed(ctx context.Context, chapterID string) (bool, error) {
	resp, err := Do[bool](ctx, c.exec, Request{
		URI:    "/api/checkpoint/checkUserPassPoint/" + url.PathEscape(chapterID),
		Method: http.MethodGet,
	})
	if err != nil {
		return false, err
	}
	return resp.Data, nil
}

type MoveController struct {
	exec Executor
}

func (c *MoveController) Compile(ctx context.Context, code string) (*Response[map[string]any], error) {
	return Do[map[string]any](ctx, c.exec, Request{
		URI:    "/api/move/compile",
		Method: http.MethodPost,
		Body:   CompileRequest{Code: code},
	})
}

type ProgressController struct {
	exec Executor
}

func (c *ProgressController) Get(ctx context.Context, courseID string) (*Response[UserProgress], error) {
	return Do[UserProgress](ctx, c.exec, Request{URI: "/api/progress/" + url.PathEscape(courseID), Method: http.MethodGet})
}

// Update marks a chapter as completed.
func (c *ProgressController) Update(ctx context.Context, courseID, chapterID string) (*Response[any], error) {
	return Do[any](ctx, c.exec, Request{
		URI:    "/api/progress/update",
		Method: http.MethodPost,
		Body:   UpdateProgressRequest{CourseID: courseID, ChapterID: chapterID},
	})
}

// Finish marks the last chapter and with it the course as completed.
func (c *ProgressController) Finish(ctx context.Context, courseID, chapterID string) (*Response[any], error) {
	return Do[any](ctx, c.exec, Request{
		URI:    "/api/progress/finish",
		Method: http.MethodPost,
		Body:   UpdateProgressRequest{CourseID: courseID, ChapterID: chapterID},
	})
}
