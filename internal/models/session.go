package models

import (
	"fmt"
)

type Role string

const (
	RoleDispatcher Role = "dispatcher"
	RoleResponder  Role = "responder"
	RoleAdmin      Role = "admin"
)

var Roles = []Role{RoleDispatcher, RoleResponder, RoleAdmin}

func ParseRole(s string) (Role, error) {
	for _, r := range Roles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", s)
}

type User struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
	Avatar string `json:"avatar"`
}

// Session сохраняется при входе. Срока действия нет.
type Session struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}
