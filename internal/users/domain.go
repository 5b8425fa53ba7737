// Package users serves the admin customer directory.
package users

import "github.com/greengrocer/storefront/internal/auth"

// Filters narrows the customer listing.
type Filters struct {
	Role   auth.Role
	Search string
}

// Stats counts accounts per role.
type Stats struct {
	Total     int `json:"total"`
	Admin     int `json:"admin"`
	Wholesale int `json:"wholesale"`
	Retail    int `json:"retail"`
}
