package model

import "time"

// Tenant is an organisation that users can belong to. Managers are always
// scoped to exactly one tenant; customers and admins are tenant-less.
type Tenant struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
