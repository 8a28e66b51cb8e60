// Copyright 2026 The AgentDeck Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"context"
	"net/http"

	"github.com/agentdeck/deckctl/internal/apierr"
	"github.com/agentdeck/deckctl/internal/session"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type authResponse struct {
	User         *session.Identity `json:"user"`
	AccessToken  string            `json:"access_token"`
	RefreshToken string            `json:"refresh_token,omitempty"`
}

// VerifyResult is the identity-verification response. RefreshToken is
// set only when the backend rotates it during verification.
type VerifyResult struct {
	Identity     *session.Identity `json:"user"`
	RefreshToken string            `json:"refresh_token,omitempty"`
}

// Login exchanges credentials for a token pair and populates the
// session.
func (c *Client) Login(ctx context.Context, email, password string) (*session.Identity, error) {
	var out authResponse
	if err := c.do(ctx, http.MethodPost, "/v1/auth/login", loginRequest{Email: email, Password: password}, &out, false); err != nil {
		return nil, err
	}
	if out.User == nil || out.AccessToken == "" {
		return nil, apierr.New(http.StatusBadGateway, apierr.CodeServerError, "login response missing user or token")
	}

	access := out.AccessToken
	var refresh *string
	if out.RefreshToken != "" {
		refresh = &out.RefreshToken
	}
	if err := c.session.SetCredentials(out.User, &access, refresh); err != nil {
		return nil, err
	}
	return c.session.Identity(), nil
}

// VerifyIdentity asks the backend who the given bearer token belongs
// to. Used by the bootstrapper before the session is populated.
func (c *Client) VerifyIdentity(ctx context.Context, token string) (*VerifyResult, error) {
	var out VerifyResult
	if err := c.do(WithToken(ctx, token), http.MethodGet, "/v1/auth/me", nil, &out, true); err != nil {
		return nil, err
	}
	if out.Identity == nil {
		return nil, apierr.New(http.StatusBadGateway, apierr.CodeServerError, "verification response missing identity")
	}
	return &out, nil
}

// RefreshSession exchanges the refresh token for a new access token and
// rotates the durable copies. A definitive rejection of the refresh
// token ends the session.
func (c *Client) RefreshSession(ctx context.Context) error {
	refresh, ok := c.session.RefreshToken()
	if !ok {
		return apierr.New(http.StatusUnauthorized, apierr.CodeUnauthenticated, "no refresh token held")
	}

	var out authResponse
	err := c.do(ctx, http.MethodPost, "/v1/auth/refresh", refreshRequest{RefreshToken: refresh}, &out, false)
	if err != nil {
		if apierr.IsAuthentication(err) {
			c.session.Logout()
		}
		return err
	}
	if out.AccessToken == "" {
		return apierr.New(http.StatusBadGateway, apierr.CodeServerError, "refresh response missing token")
	}

	access := out.AccessToken
	var rotated *string
	if out.RefreshToken != "" {
		rotated = &out.RefreshToken
	}
	c.session.UpdateTokens(&access, rotated)
	return nil
}

// ProfileUpdate carries the mutable identity fields. Nil fields are
// left untouched by the backend.
type ProfileUpdate struct {
	Name      *string `json:"name,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// UpdateProfile patches the current user's profile and replaces the
// session identity with the returned record.
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (*session.Identity, error) {
	var out struct {
		User *session.Identity `json:"user"`
	}
	if err := c.authed(ctx, http.MethodPatch, "/v1/users/me", update, &out); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, apierr.New(http.StatusBadGateway, apierr.CodeServerError, "profile response missing user")
	}
	if err := c.session.SetCredentials(out.User, nil, nil); err != nil {
		return nil, err
	}
	return c.session.Identity(), nil
}
