package directory

import (
	"context"
	"errors"
	"testing"

	"SupportChat/module/chat/model"
	"SupportChat/tools/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestMemDirectoryLookups(t *testing.T) {
	ctx := context.Background()
	d := NewMemDirectory()
	d.AddMembership("g1", model.Membership{TraderID: "t1", AdvisorID: "a1"})
	d.AddTrader(model.Profile{ID: "t1", FirstName: "Tom"})
	d.AddAdvisor(model.Profile{ID: "a1", FirstName: "Amy"})

	ms, err := d.Memberships(ctx, "g1")
	require.NoError(t, err)
	assert.Len(t, ms, 1)

	ms, err = d.Memberships(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, ms)

	p, err := d.Trader(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Tom", p.FirstName)

	p, err = d.Trader(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, p)

	ps, err := d.Advisors(ctx, []string{"a1", "missing"})
	require.NoError(t, err)
	assert.Len(t, ps, 1)
	assert.Equal(t, int64(2), d.MembershipCalls.Load())
}

func TestMemDirectoryFailure(t *testing.T) {
	d := NewMemDirectory()
	d.SetFail(true)
	_, err := d.Associates(context.Background())
	assert.True(t, errors.Is(err, errs.ErrStoreUnavailable))
}

func TestMongoDirectoryNotReady(t *testing.T) {
	d := NewMongoDirectory(func() (*mongo.Database, bool) { return nil, false })
	ctx := context.Background()

	_, err := d.Memberships(ctx, "65f000000000000000000001")
	assert.True(t, errors.Is(err, errs.ErrStoreUnavailable))

	// 非法的 groupId 不访问数据库
	ms, err := d.Memberships(ctx, "not-an-object-id")
	require.NoError(t, err)
	assert.Empty(t, ms)

	ps, err := d.Traders(ctx, []string{"bad"})
	require.NoError(t, err)
	assert.Empty(t, ps)
}
