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

package session

import "time"

// Identity represents the authenticated user. It is owned exclusively
// by the Manager: replaced wholesale on login and verification, cleared
// on logout, never merged field by field.
type Identity struct {
	ID          string       `json:"id"`
	Email       string       `json:"email"`
	Name        string       `json:"name,omitempty"`
	Role        string       `json:"role,omitempty"`
	AvatarURL   string       `json:"avatar_url,omitempty"`
	Verified    bool         `json:"verified"`
	Active      bool         `json:"active"`
	LastLoginAt time.Time    `json:"last_login_at,omitzero"`
	Memberships []Membership `json:"memberships,omitempty"`
}

// Membership is the relation between an identity and a workspace
type Membership struct {
	TenantID string    `json:"tenant_id"`
	Role     string    `json:"role"`
	Status   string    `json:"status"`
	JoinedAt time.Time `json:"joined_at,omitzero"`
}

// clone returns an independent copy so readers can never mutate the
// manager's copy through the returned pointer.
func (i *Identity) clone() *Identity {
	if i == nil {
		return nil
	}
	out := *i
	if i.Memberships != nil {
		out.Memberships = make([]Membership, len(i.Memberships))
		copy(out.Memberships, i.Memberships)
	}
	return &out
}
