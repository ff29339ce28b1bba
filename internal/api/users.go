package api

import (
	"context"
	"net/http"

	"github.com/ds124wfegd/eventhive/internal/entity"
)

type authResponse struct {
	Token string      `json:"token"`
	User  entity.User `json:"user"`
}

type registerRequest struct {
	entity.Registration
	IsAdmin bool `json:"isAdmin"`
}

type profileRequest struct {
	Name string `json:"name"`
}

type profileResponse struct {
	User entity.User `json:"user"`
}

// Register creates a regular account. Some deployments answer without a
// token, the returned session is then not Valid and the user has to log in.
func (c *Client) Register(ctx context.Context, reg entity.Registration) (entity.Session, error) {
	var res authResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "auth/register",
		body:   registerRequest{Registration: reg},
		public: true,
	}, &res)
	if err != nil {
		return entity.Session{}, err
	}
	return entity.Session{Token: res.Token, User: res.User}, nil
}

func (c *Client) Login(ctx context.Context, creds entity.Credentials) (entity.Session, error) {
	var res authResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "auth/login",
		body:   creds,
		public: true,
	}, &res)
	if err != nil {
		return entity.Session{}, err
	}
	return entity.Session{Token: res.Token, User: res.User}, nil
}

func (c *Client) UpdateProfile(ctx context.Context, name string) (entity.User, error) {
	var res profileResponse
	err := c.do(ctx, request{method: http.MethodPut, path: "users", body: profileRequest{Name: name}}, &res)
	return res.User, err
}
