// Package model holds the DTOs exchanged with the lending API and the browser.
// Money is carried as decimal.Decimal and serialized as a JSON number.
package model

import "github.com/shopspring/decimal"

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// Role names known to the dashboard. ADMIN bypasses every permission check.
const (
	RoleAdmin   = "ADMIN"
	RoleManager = "MANAGER"
	RoleCashier = "CASHIER"
)

// Roles lists every assignable role.
var Roles = []string{RoleAdmin, RoleManager, RoleCashier}

// Payment methods. They also name the three tender buckets of a closing.
const (
	PaymentCash     = "CASH"
	PaymentTransfer = "TRANSFER"
	PaymentCard     = "CARD"
)
