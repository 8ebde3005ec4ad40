package model

import "strings"

// Role 连接身份角色
type Role string

const (
	RoleAdmin   Role = "Admin"
	RoleAdvisor Role = "Advisor"
	RoleTrader  Role = "Trader"
)

// ParseRole 大小写不敏感，未知角色返回 false
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin, true
	case "advisor":
		return RoleAdvisor, true
	case "trader":
		return RoleTrader, true
	}
	return Role(s), false
}

// Staff Admin/Advisor 不计入在线人数
func (r Role) Staff() bool {
	return r == RoleAdmin || r == RoleAdvisor
}

func (r Role) Lower() string { return strings.ToLower(string(r)) }

// Identity 一次连接的身份，在校验 token 时生成，连接期间不可变
type Identity struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

// WithName 返回替换了显示名的副本
func (i Identity) WithName(name string) Identity {
	i.Name = name
	return i
}

// UserData 推送给连接自身的身份信息
type UserData struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	UserID string `json:"userId"`
}

func (i Identity) UserData() UserData {
	return UserData{Name: i.Name, Email: i.Email, Role: i.Role, UserID: i.UserID}
}

// JoinName 拼接姓名，缺失部分按空串处理
func JoinName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}
