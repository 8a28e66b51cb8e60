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
	"net/url"

	"github.com/agentdeck/deckctl/internal/tenant"
)

type workspaceList struct {
	Workspaces []tenant.Tenant `json:"workspaces"`
}

type workspaceEnvelope struct {
	Workspace tenant.Tenant `json:"workspace"`
}

type createWorkspaceRequest struct {
	Name string      `json:"name"`
	Plan tenant.Plan `json:"plan,omitempty"`
}

// WorkspaceUpdate carries the mutable workspace fields
type WorkspaceUpdate struct {
	Name *string      `json:"name,omitempty"`
	Plan *tenant.Plan `json:"plan,omitempty"`
}

// ListWorkspaces fetches the workspaces visible to the session's
// identity. Callers feed the result to tenant.Context.ReplaceAll.
func (c *Client) ListWorkspaces(ctx context.Context) ([]tenant.Tenant, error) {
	var out workspaceList
	if err := c.authed(ctx, http.MethodGet, "/v1/workspaces", nil, &out); err != nil {
		return nil, err
	}
	return out.Workspaces, nil
}

// ListWorkspacesWithToken is ListWorkspaces with an explicit bearer
// token, for the bootstrapper's startup fetch.
func (c *Client) ListWorkspacesWithToken(ctx context.Context, token string) ([]tenant.Tenant, error) {
	var out workspaceList
	if err := c.do(WithToken(ctx, token), http.MethodGet, "/v1/workspaces", nil, &out, true); err != nil {
		return nil, err
	}
	return out.Workspaces, nil
}

// CreateWorkspace creates a workspace. Callers upsert the result into
// the tenant context.
func (c *Client) CreateWorkspace(ctx context.Context, name string, plan tenant.Plan) (tenant.Tenant, error) {
	var out workspaceEnvelope
	err := c.authed(ctx, http.MethodPost, "/v1/workspaces", createWorkspaceRequest{Name: name, Plan: plan}, &out)
	return out.Workspace, err
}

// UpdateWorkspace patches a workspace's name or plan
func (c *Client) UpdateWorkspace(ctx context.Context, id string, update WorkspaceUpdate) (tenant.Tenant, error) {
	var out workspaceEnvelope
	err := c.authed(ctx, http.MethodPatch, "/v1/workspaces/"+url.PathEscape(id), update, &out)
	return out.Workspace, err
}

// DeleteWorkspace deletes a workspace. The caller owns the follow-up
// decision when the deleted workspace was the current selection.
func (c *Client) DeleteWorkspace(ctx context.Context, id string) error {
	return c.authed(ctx, http.MethodDelete, "/v1/workspaces/"+url.PathEscape(id), nil, nil)
}
