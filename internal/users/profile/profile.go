// Copyright (c) 2026 Scriptorium Divinum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package profile holds the authorization record of each account and the probe
that turns it into an admin decision for a session.

# Architecture

  - Profile: the role attached to an account (identity.profile).
  - Repository: lookup, default creation and role assignment.
  - Probe: the admin gate's [middleware.AdminAuthorizer]. One bounded lookup per
    session, shared by concurrent callers, failing closed.
*/
package profile

import (
	"context"
	"time"

	"github.com/taibuivan/scriptorium/internal/platform/sec"
)

// Profile is the authorization record of an account.
type Profile struct {
	ID        string       `json:"id"`
	Email     string       `json:"email"`
	Role      sec.UserRole `json:"role"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// IsAdmin reports whether the profile grants admin access.
func (profile *Profile) IsAdmin() bool {
	return profile != nil && profile.Role.IsAdmin()
}

// Repository defines the persistence contract for profiles.
type Repository interface {

	/*
		FindByID returns the profile of the account, or nil when none exists yet.

		Returns:
		  - *Profile: Loaded entity or nil
		  - error: Storage failures
	*/
	FindByID(ctx context.Context, id string) (*Profile, error)

	/*
		CreateDefault creates the profile an account gets on first sign-in.

		The first profile created while no admin exists becomes admin; every
		other profile is a member. If the profile already exists it is
		returned unchanged.

		Returns:
		  - *Profile: The stored profile
		  - error: Storage failures
	*/
	CreateDefault(ctx context.Context, id, email string) (*Profile, error)

	/*
		SetRole creates or updates the profile with the given role.

		Returns:
		  - *Profile: The stored profile
		  - error: Storage failures
	*/
	SetRole(ctx context.Context, id, email string, role sec.UserRole) (*Profile, error)
}
