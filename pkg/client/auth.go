package client

import (
	"context"
	"net/http"
)

type AuthController struct {
	exec Executor
}

// Login exchanges a wallet address for a JWT.
func (c *AuthController) Login(ctx context.Context, walletAddress string) (*Response[TokenInfo], error) {
	return Do[TokenInfo](ctx, c.exec, Request{
		URI:    "/api/auth/login",
		Method: http.MethodPost,
		Body:   LoginRequest{WalletAddress: walletAddress},
	})
}
