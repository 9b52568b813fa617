package model

// Role is the access level stored on a user record. Authorization decisions
// consume this type only; nothing else in the codebase inspects it.
type Role string

const (
	RoleStandard Role = "standard"
	RoleAdmin    Role = "admin"
)

func ParseRole(s string) Role {
	if s == string(RoleAdmin) {
		return RoleAdmin
	}
	return RoleStandard
}

type User struct {
	ID           string   `json:"id"`
	Email        string   `json:"email"`
	PasswordHash string   `json:"-"`
	Name         string   `json:"name"`
	Role         Role     `json:"role"`
	ReviewCount  int      `json:"review_count"`
	ReviewIDs    []string `json:"review_ids"`
	Ctime        int64    `json:"ctime"`
	Mtime        int64    `json:"mtime"`
}
