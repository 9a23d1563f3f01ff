package model

// PermissionMap is the granted {resource: [actions]} matrix of an owner.
type PermissionMap map[string][]string
