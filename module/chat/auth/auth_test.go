package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"SupportChat/module/chat/directory"
	"SupportChat/module/chat/model"
	"SupportChat/tools/errs"
	"SupportChat/tools/security"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testOpts = security.DefaultOptions([]byte("auth-test-secret"))

func sign(t *testing.T, user map[string]any) string {
	t.Helper()
	tok, _, err := security.Sign(testOpts, jwtlib.MapClaims{"user": user})
	require.NoError(t, err)
	return tok
}

func TestVerifyPrimaryShape(t *testing.T) {
	v := NewTokenVerifier(testOpts)
	id, err := v.Verify(sign(t, map[string]any{
		"id":    "t1",
		"role":  "trader",
		"rType": "admin",
		"fName": "Top",
		"lName": "Level",
		"email": "top@x",
		"profile": map[string]any{
			"fName": "Pro",
			"lName": "File",
			"email": "pro@x",
		},
	}))
	require.NoError(t, err)
	assert.Equal(t, model.Identity{UserID: "t1", Name: "Pro File", Email: "pro@x", Role: model.RoleTrader}, id)
}

func TestVerifyLegacyShape(t *testing.T) {
	v := NewTokenVerifier(testOpts)
	id, err := v.Verify(sign(t, map[string]any{
		"id":    "a1",
		"rType": "ADVISOR",
		"fName": "Amy",
		"email": "amy@x",
	}))
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdvisor, id.Role)
	assert.Equal(t, "Amy", id.Name)
	assert.Equal(t, "amy@x", id.Email)
}

func TestVerifyNumericUserID(t *testing.T) {
	v := NewTokenVerifier(testOpts)
	id, err := v.Verify(sign(t, map[string]any{"id": 1024, "role": "Advisor", "fName": "Num"}))
	require.NoError(t, err)
	assert.Equal(t, "1024", id.UserID)
	assert.Equal(t, model.RoleAdvisor, id.Role)
}

func TestParseClaimsShapes(t *testing.T) {
	c, err := ParseClaims(map[string]any{"user": map[string]any{"id": "u", "role": "Admin"}})
	require.NoError(t, err)
	assert.Equal(t, ShapePrimary, c.Shape)

	c, err = ParseClaims(map[string]any{"user": map[string]any{"id": "u", "rType": "Admin"}})
	require.NoError(t, err)
	assert.Equal(t, ShapeLegacy, c.Shape)

	c, err = ParseClaims(map[string]any{"user": map[string]any{"id": 42.0}})
	require.NoError(t, err)
	assert.Equal(t, ShapeUnknown, c.Shape)
	assert.Equal(t, "42", c.Identity().UserID)
}

func TestVerifyMissingProfilePieces(t *testing.T) {
	v := NewTokenVerifier(testOpts)
	id, err := v.Verify(sign(t, map[string]any{"id": "t2", "role": "Trader"}))
	require.NoError(t, err)
	assert.Equal(t, "", id.Name)
	assert.Equal(t, "", id.Email)
}

func TestVerifyFailures(t *testing.T) {
	v := NewTokenVerifier(testOpts)

	_, err := v.Verify("garbage")
	assert.True(t, errors.Is(err, errs.ErrInvalidCredential))

	_, err = v.Verify(sign(t, map[string]any{"role": "Trader"}))
	assert.True(t, errors.Is(err, errs.ErrInvalidCredential), "missing id")

	tok, _, err := security.Sign(testOpts, jwtlib.MapClaims{"sub": "x"})
	require.NoError(t, err)
	_, err = v.Verify(tok)
	assert.True(t, errors.Is(err, errs.ErrInvalidCredential), "missing user")

	expired, _, err := security.Sign(testOpts, jwtlib.MapClaims{
		"user": map[string]any{"id": "u"},
		"exp":  time.Now().Add(-time.Hour).Unix(),
	})
	require.NoError(t, err)
	_, err = v.Verify(expired)
	assert.True(t, errors.Is(err, errs.ErrInvalidCredential), "expired")

	other := NewTokenVerifier(security.DefaultOptions([]byte("different")))
	_, err = other.Verify(sign(t, map[string]any{"id": "u", "role": "Trader"}))
	assert.True(t, errors.Is(err, errs.ErrInvalidCredential), "bad signature")
}

func fixtureDirectory() *directory.MemDirectory {
	d := directory.NewMemDirectory()
	d.AddMembership("g1", model.Membership{TraderID: "t1", AdvisorID: "a1", ScriptTitle: "Gold"})
	d.AddMembership("g1", model.Membership{TraderID: "t2", AdvisorID: "a1", ScriptTitle: "Gold"})
	d.AddTrader(model.Profile{ID: "t1", FirstName: "Tom", LastName: "Hill"})
	return d
}

func TestAuthorizeRules(t *testing.T) {
	ctx := context.Background()
	a := NewAuthorizer(fixtureDirectory())

	cases := []struct {
		name  string
		id    model.Identity
		group string
		want  *errs.CodeError
	}{
		{"trader member", model.Identity{UserID: "t1", Role: model.RoleTrader}, "g1", nil},
		{"advisor owner", model.Identity{UserID: "a1", Role: model.RoleAdvisor}, "g1", nil},
		{"trader outsider", model.Identity{UserID: "t9", Role: model.RoleTrader}, "g1", errs.ErrForbidden},
		{"unknown group", model.Identity{UserID: "t1", Role: model.RoleTrader}, "g2", errs.ErrForbidden},
		{"missing group", model.Identity{UserID: "t1", Role: model.RoleTrader}, " ", errs.ErrBadRequest},
		{"bad role", model.Identity{UserID: "t1", Role: "guest"}, "g1", errs.ErrForbidden},
		{"empty role", model.Identity{UserID: "t1"}, "g1", errs.ErrForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := a.Authorize(ctx, tc.id, tc.group)
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestAuthorizeAdminSkipsDirectory(t *testing.T) {
	d := fixtureDirectory()
	d.SetFail(true)
	a := NewAuthorizer(d)

	for _, g := range []string{"g1", "g404", "anything"} {
		require.NoError(t, a.Authorize(context.Background(), model.Identity{UserID: "x", Role: model.RoleAdmin}, g))
	}
	assert.Zero(t, d.MembershipCalls.Load())
}

func TestAuthorizeDirectoryFailure(t *testing.T) {
	d := fixtureDirectory()
	d.SetFail(true)
	err := NewAuthorizer(d).Authorize(context.Background(), model.Identity{UserID: "t1", Role: model.RoleTrader}, "g1")
	assert.True(t, errors.Is(err, errs.ErrStoreUnavailable))
}

func TestResolveNames(t *testing.T) {
	ctx := context.Background()
	d := fixtureDirectory()
	r := NewIdentityResolver(d, "")

	admin := r.Resolve(ctx, model.Identity{UserID: "ad", Name: "Claim Name", Role: model.RoleAdmin})
	assert.Equal(t, DefaultAdminName, admin.Name)

	trader := r.Resolve(ctx, model.Identity{UserID: "t1", Name: "Stale", Role: model.RoleTrader})
	assert.Equal(t, "Tom Hill", trader.Name)

	unknown := r.Resolve(ctx, model.Identity{UserID: "t2", Name: "Claim", Role: model.RoleTrader})
	assert.Equal(t, "Claim", unknown.Name)

	advisor := r.Resolve(ctx, model.Identity{UserID: "a1", Name: "Amy", Role: model.RoleAdvisor})
	assert.Equal(t, "Amy", advisor.Name)

	d.SetFail(true)
	failed := r.Resolve(ctx, model.Identity{UserID: "t1", Name: "Claim", Role: model.RoleTrader})
	assert.Equal(t, "Claim", failed.Name)
}

func TestDenyReason(t *testing.T) {
	d := fixtureDirectory()
	a := NewAuthorizer(d)
	ctx := context.Background()

	err := a.Authorize(ctx, model.Identity{UserID: "t1", Role: "guest"}, "g1")
	assert.Equal(t, ReasonRoleNotAllowed, DenyReason(err))

	err = a.Authorize(ctx, model.Identity{UserID: "t9", Role: model.RoleTrader}, "g1")
	assert.Equal(t, ReasonNotMember, DenyReason(err))

	err = a.Authorize(ctx, model.Identity{UserID: "t1", Role: model.RoleTrader}, "")
	assert.Equal(t, ReasonNoGroup, DenyReason(err))

	_, err = NewTokenVerifier(testOpts).Verify("garbage")
	assert.Equal(t, ReasonInvalidToken, DenyReason(err))

	d.SetFail(true)
	err = a.Authorize(ctx, model.Identity{UserID: "t1", Role: model.RoleTrader}, "g1")
	assert.Equal(t, ReasonUnavailable, DenyReason(err))
	assert.Equal(t, ReasonUnavailable, DenyReason(errors.New("plain")))
}
