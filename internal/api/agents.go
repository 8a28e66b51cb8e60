package api

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/agentdeck/deckctl/internal/tenant"
)

// Agent is an AI agent deployed inside a workspace
type Agent struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Model     string    `json:"model"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type agentList struct {
	Agents []Agent `json:"agents"`
}

type agentEnvelope struct {
	Agent Agent `json:"agent"`
}

type createAgentRequest struct {
	Name  string `json:"name"`
	Model string `json:"model"`
}

// requireWorkspace guards agent operations, which are scoped to the
// current workspace via the workspace header.
func (c *Client) requireWorkspace() error {
	if c.tenants == nil || c.tenants.CurrentID() == "" {
		return tenant.ErrNoSelection
	}
	return nil
}

// ListAgents lists the agents in the current workspace
func (c *Client) ListAgents(ctx context.Context) ([]Agent, error) {
	if err := c.requireWorkspace(); err != nil {
		return nil, err
	}
	var out agentList
	if err := c.authed(ctx, http.MethodGet, "/v1/agents", nil, &out); err != nil {
		return nil, err
	}
	return out.Agents, nil
}

// CreateAgent deploys a new agent in the current workspace
func (c *Client) CreateAgent(ctx context.Context, name, model string) (Agent, error) {
	if err := c.requireWorkspace(); err != nil {
		return Agent{}, err
	}
	var out agentEnvelope
	err := c.authed(ctx, http.MethodPost, "/v1/agents", createAgentRequest{Name: name, Model: model}, &out)
	return out.Agent, err
}

// DeleteAgent removes an agent from the current workspace
func (c *Client) DeleteAgent(ctx context.Context, id string) error {
	if err := c.requireWorkspace(); err != nil {
		return err
	}
	return c.authed(ctx, http.MethodDelete, "/v1/agents/"+url.PathEscape(id), nil, nil)
}
