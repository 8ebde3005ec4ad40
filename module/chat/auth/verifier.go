package auth

import (
	"strings"

	"SupportChat/module/chat/model"
	"SupportChat/tools/decode"
	"SupportChat/tools/errs"
	"SupportChat/tools/security"
)

// ClaimShape token 里 user 对象的两种形态
type ClaimShape int

const (
	ShapeUnknown ClaimShape = iota
	ShapePrimary            // user.role
	ShapeLegacy             // user.rType
)

type profileClaims struct {
	FirstName string `json:"fName"`
	LastName  string `json:"lName"`
	Email     string `json:"email"`
}

type userClaims struct {
	ID        string         `json:"id"`
	Role      string         `json:"role"`
	RType     string         `json:"rType"`
	FirstName string         `json:"fName"`
	LastName  string         `json:"lName"`
	Email     string         `json:"email"`
	Profile   *profileClaims `json:"profile"`
}

type tokenClaims struct {
	User *userClaims `json:"user"`
}

// Claims 已解析的 claim，出了 verifier 只用 Identity
type Claims struct {
	Shape ClaimShape
	user  userClaims
}

// ParseClaims 解析 JWT payload；缺少 user 或 user.id 视为非法凭证
func ParseClaims(raw map[string]any) (*Claims, error) {
	tc, err := decode.DecodeMap[tokenClaims](raw)
	if err != nil {
		return nil, errs.ErrInvalidCredential.WrapMsg("decode claims", "err", err)
	}
	if tc.User == nil {
		return nil, errs.ErrInvalidCredential.WrapMsg("missing user claim")
	}
	u := *tc.User
	u.ID = strings.TrimSpace(u.ID)
	if u.ID == "" {
		return nil, errs.ErrInvalidCredential.WrapMsg("missing user.id")
	}

	c := &Claims{user: u}
	switch {
	case strings.TrimSpace(u.Role) != "":
		c.Shape = ShapePrimary
	case strings.TrimSpace(u.RType) != "":
		c.Shape = ShapeLegacy
	}
	return c, nil
}

// RawRole 原始角色字符串，role 优先
func (c *Claims) RawRole() string {
	switch c.Shape {
	case ShapePrimary:
		return strings.TrimSpace(c.user.Role)
	case ShapeLegacy:
		return strings.TrimSpace(c.user.RType)
	}
	return ""
}

// Identity 未知角色原样保留，由 Authorizer 拒绝
func (c *Claims) Identity() model.Identity {
	role, ok := model.ParseRole(c.RawRole())
	if !ok {
		role = model.Role(c.RawRole())
	}

	u := c.user
	var name, email string
	if u.Profile != nil && u.Profile.FirstName != "" {
		name = model.JoinName(u.Profile.FirstName, u.Profile.LastName)
	} else {
		name = model.JoinName(u.FirstName, u.LastName)
	}
	if u.Profile != nil && u.Profile.Email != "" {
		email = u.Profile.Email
	} else {
		email = u.Email
	}

	return model.Identity{
		UserID: u.ID,
		Name:   name,
		Email:  email,
		Role:   role,
	}
}

// TokenVerifier 校验签名与过期，产出 Identity
type TokenVerifier struct {
	opts security.Options
}

func NewTokenVerifier(opts security.Options) *TokenVerifier {
	return &TokenVerifier{opts: opts}
}

func (v *TokenVerifier) Verify(token string) (model.Identity, error) {
	raw, err := security.Verify(v.opts, token)
	if err != nil {
		return model.Identity{}, errs.ErrInvalidCredential.WrapMsg("verify token", "err", err)
	}
	c, err := ParseClaims(raw)
	if err != nil {
		return model.Identity{}, err
	}
	return c.Identity(), nil
}
