package model

import "time"

// Owner is an internal staff/admin account.
type Owner struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	StoreID   string    `json:"storeId,omitempty"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// User is a borrower.
type User struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Identifier string    `json:"identification"`
	Phone      string    `json:"phone"`
	Email      string    `json:"email,omitempty"`
	Address    string    `json:"address,omitempty"`
	City       string    `json:"city,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// LoginRequest is forwarded to the auth endpoint as-is.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token issued by the lending API.
type LoginResponse struct {
	Token string `json:"access_token"`
	Owner Owner  `json:"user"`
}
