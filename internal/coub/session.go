package coub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

type sessionResponse struct {
	APIToken string `json:"api_token"`
}

type torusResponse struct {
	AccessToken string `json:"access_token"`
}

// Login exchanges mini-app init data for an API token.
func (c *Client) Login(ctx context.Context, form string) (string, error) {
	return c.session(ctx, "/sessions/login_mini_app", form)
}

// Signup registers the mini-app user and returns an API token.
func (c *Client) Signup(ctx context.Context, form string) (string, error) {
	return c.session(ctx, "/sessions/signup_mini_app", form)
}

func (c *Client) session(ctx context.Context, path, form string) (string, error) {
	var out sessionResponse
	err := c.doJSON(ctx, request{
		method: http.MethodPost,
		url:    c.apiURL + path,
		form:   form,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.APIToken, nil
}

// TorusToken exchanges an API token for the rewards bearer token.
func (c *Client) TorusToken(ctx context.Context, apiToken string) (string, error) {
	var out torusResponse
	err := c.doJSON(ctx, request{
		method:  http.MethodPost,
		url:     c.apiURL + "/torus/token",
		headers: map[string]string{"X-Auth-Token": apiToken},
	}, &out)
	if err != nil {
		return "", err
	}
	return out.AccessToken, nil
}

// ErrNoAPIToken is returned when login and signup both succeed without an
// api_token in the response.
var ErrNoAPIToken = errors.New("unable to obtain api_token")

// ErrNoAccessToken is returned when the torus exchange has no access_token.
var ErrNoAccessToken = errors.New("unable to obtain access_token")

// Authenticate logs in (registering the user when login answers 404) and
// exchanges the resulting API token for a rewards bearer token.
func (c *Client) Authenticate(ctx context.Context, form string) (string, error) {
	apiToken, err := c.Login(ctx, form)
	if err != nil {
		if !IsStatus(err, http.StatusNotFound) {
			return "", fmt.Errorf("login: %w", err)
		}
		slog.Warn("Registering account...")
		apiToken, err = c.Signup(ctx, form)
		if err != nil {
			return "", fmt.Errorf("signup: %w", err)
		}
	}
	if apiToken == "" {
		return "", ErrNoAPIToken
	}

	bearer, err := c.TorusToken(ctx, apiToken)
	if err != nil {
		return "", fmt.Errorf("torus token: %w", err)
	}
	if bearer == "" {
		return "", ErrNoAccessToken
	}
	return bearer, nil
}
