package client

import (
	"context"
	"net/http"
)

type ContractController struct {
	exec Executor
}

// SignNonce requests the nonce and signer keys for minting a certificate.
func (c *ContractController) SignNonce(ctx context.Context, req SignRequest) (*Response[SignResponse], error) {
	return Do[SignResponse](ctx, c.exec, Request{URI: "/api/contract/sign", Method: http.MethodPost, Body: req})
}

func (c *ContractController) UpdateCertificate(ctx context.Context, courseID string) (*Response[any], error) {
	return Do[any](ctx, c.exec, Request{
		URI:    "/api/contract/update-certificate",
		Method: http.MethodPost,
		Body:   UpdateCertificateRequest{CourseID: courseID},
	})
}

type IndexController struct {
	exec Executor
}

func (c *IndexController) CourseBadges(ctx context.Context) (*Response[[]CourseBadge], error) {
	return Do[[]CourseBadge](ctx, c.exec, Request{URI: "/api/index/course-badge", Method: http.MethodGet})
}
