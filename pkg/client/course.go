package client

import (
	"context"
	"net/http"
	"net/url"
)

type CourseController struct {
	exec Executor
}

// All lists courses, optionally filtered by type.
func (c *CourseController) All(ctx context.Context, typeID string) (*Response[[]Course], error) {
	uri := "/api/courses"
	if typeID != "" {
		uri += "?typeId=" + url.QueryEscape(typeID)
	}
	return Do[[]Course](ctx, c.exec, Request{URI: uri, Method: http.MethodGet})
}

func (c *CourseController) Buy(ctx context.Context, id string) (*Response[Course], error) {
	return Do[Course](ctx, c.exec, Request{URI: "/api/courses/buy/" + url.PathEscape(id), Method: http.MethodGet})
}

// Private lists the courses bought by the current user.
func (c *CourseController) Private(ctx context.Context) (*Response[[]Course], error) {
	return Do[[]Course](ctx, c.exec, Request{URI: "/api/courses/private-courses", Method: http.MethodGet})
}

func (c *CourseController) Types(ctx context.Context) (*Response[[]CourseType], error) {
	return Do[[]CourseType](ctx, c.exec, Request{URI: "/api/courses/types", Method: http.MethodGet})
}

func (c *CourseController) ByID(ctx context.Context, id string) (*Response[CourseDetail], error) {
	return Do[CourseDetail](ctx, c.exec, Request{URI: "/api/courses/" + url.PathEscape(id), Method: http.MethodGet})
}

type ChapterController struct {
	exec Executor
}

func (c *ChapterController) ByID(ctx context.Context, id string) (*Response[Chapter], error) {
	return Do[Chapter](ctx, c.exec, Request{URI: "/api/chapters/" + url.PathEscape(id), Method: http.MethodGet})
}

func (c *ChapterController) All(ctx context.Context) (*Response[[]Chapter], error) {
	return Do[[]Chapter](ctx, c.exec, Request{URI: "/api/chapters/", Method: http.MethodGet})
}
