package tenant

import "errors"

// Domain errors
var (
	ErrTenantNotFound = errors.New("workspace not found")
	ErrNoSelection    = errors.New("no workspace selected")
)

// Plan is a workspace's billing tier
type Plan string

const (
	PlanFree       Plan = "free"
	PlanStarter    Plan = "starter"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// Status constants
type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
)

// Tenant represents a workspace the current identity can act within
type Tenant struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Plan   Plan   `json:"plan"`
	Status Status `json:"status"`
}

// StateStore persists UI state such as the current workspace selection.
// Deliberately a separate medium from the token store: the selection is
// not a secret and may carry different durability guarantees.
type StateStore interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}

// StateKeyCurrentWorkspace is the persisted selection hint
const StateKeyCurrentWorkspace = "current_workspace"
