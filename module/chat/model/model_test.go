package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestParseRole(t *testing.T) {
	for in, want := range map[string]Role{"admin": RoleAdmin, " Advisor ": RoleAdvisor, "TRADER": RoleTrader} {
		got, ok := ParseRole(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got)
	}
	_, ok := ParseRole("guest")
	assert.False(t, ok)
	assert.True(t, RoleAdvisor.Staff())
	assert.False(t, RoleTrader.Staff())
}

func TestJoinName(t *testing.T) {
	assert.Equal(t, "Ann Lee", JoinName("Ann", "Lee"))
	assert.Equal(t, "Ann", JoinName("Ann", ""))
	assert.Equal(t, "", JoinName("", ""))
}

func TestMessageJSONFieldNames(t *testing.T) {
	ts := time.Date(2024, 5, 1, 10, 0, 0, 123456789, time.UTC)
	m := NewMessage(Identity{UserID: "u1", Name: "Ann", Email: "a@x"}, "g1", "hi", ts)
	assert.Equal(t, ts.Truncate(time.Millisecond), m.Timestamp)

	b, err := json.Marshal(m)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	for _, k := range []string{"sender", "senderEmail", "message", "groupId", "userId", "timestamp"} {
		assert.Contains(t, raw, k)
	}
}

func TestMembershipAdvisorFallback(t *testing.T) {
	trader := primitive.NewObjectID()
	top := primitive.NewObjectID()
	var d MembershipDoc
	d.TraderID = trader
	d.AdvisorID = top
	m := d.Membership()
	assert.Equal(t, trader.Hex(), m.TraderID)
	assert.Equal(t, top.Hex(), m.AdvisorID)

	nested := primitive.NewObjectID()
	d.OtherInfo.Script.UserID = nested
	d.OtherInfo.Script.Title = "Gold"
	m = d.Membership()
	assert.Equal(t, nested.Hex(), m.AdvisorID)
	assert.Equal(t, "Gold", m.ScriptTitle)

	d.OtherInfo.Script.UserID = "legacy-string-id"
	assert.Equal(t, "legacy-string-id", d.Membership().AdvisorID)
}

func TestSnapshotNullAdvisor(t *testing.T) {
	b, err := json.Marshal(EmptySnapshot("g", "Support Group", 0))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"advisorId":null`)
	assert.Contains(t, string(b), `"participants":{}`)
}
