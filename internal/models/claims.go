package models

import "github.com/golang-jwt/jwt/v5"

// Application permissions
const (
	PermissionTreasuryRead   = "treasury:read"
	PermissionTreasuryWrite  = "treasury:write"
	PermissionChallengeRead  = "challenge:read"
	PermissionChallengeWrite = "challenge:write"
	PermissionReadAdmin      = "admin:read"
	PermissionWriteAdmin     = "admin:write"
)

type AdminClaims struct {
	jwt.RegisteredClaims
	AdminID      uint     `json:"admin_id"`
	Email        string   `json:"email"`
	Role         string   `json:"role"`
	Permissions  []string `json:"permissions"`
	TokenVersion int      `json:"token_version"`
}

// HasPermission checks if the claims include a specific permission
func (c *AdminClaims) HasPermission(permission string) bool {
	for _, p := range c.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// GetDefaultPermissions returns default permissions based on role
func GetDefaultPermissions(role string) []string {
	switch role {
	case "admin":
		return []string{
			PermissionTreasuryRead,
			PermissionTreasuryWrite,
			PermissionChallengeRead,
			PermissionChallengeWrite,
			PermissionReadAdmin,
			PermissionWriteAdmin,
		}
	case "viewer":
		return []string{
			PermissionTreasuryRead,
			PermissionChallengeRead,
		}
	default:
		return []string{}
	}
}
