// Copyright (c) 2026 Scriptorium Divinum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// AccessState is the outcome of an authorization probe for one session.
type AccessState string

const (
	// AccessPending means the lookup has not finished yet.
	AccessPending AccessState = "pending"

	// AccessAuthorized means the session belongs to an admin profile.
	AccessAuthorized AccessState = "authorized"

	// AccessUnauthorized means the session is not admin, or the lookup failed or timed out.
	AccessUnauthorized AccessState = "unauthorized"
)
