package directory

import (
	"context"
	"errors"

	"SupportChat/module/chat/model"
	"SupportChat/tools/errs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DBProvider 连接未就绪时返回 false
type DBProvider func() (*mongo.Database, bool)

type MongoDirectory struct {
	db DBProvider
}

func NewMongoDirectory(db DBProvider) *MongoDirectory {
	return &MongoDirectory{db: db}
}

func (d *MongoDirectory) coll(name string) (*mongo.Collection, error) {
	db, ok := d.db()
	if !ok {
		return nil, errs.ErrStoreUnavailable.WrapMsg("mongo not ready")
	}
	return db.Collection(name), nil
}

func (d *MongoDirectory) Memberships(ctx context.Context, groupID string) ([]model.Membership, error) {
	scriptID, err := primitive.ObjectIDFromHex(groupID)
	if err != nil {
		return []model.Membership{}, nil
	}
	c, err := d.coll(model.MembershipTableName)
	if err != nil {
		return nil, err
	}
	cur, err := c.Find(ctx, bson.M{"scriptId": scriptID})
	if err != nil {
		return nil, errs.ErrStoreUnavailable.WrapMsg("find memberships", "groupId", groupID, "err", err)
	}
	var docs []model.MembershipDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errs.ErrStoreUnavailable.WrapMsg("decode memberships", "groupId", groupID, "err", err)
	}
	out := make([]model.Membership, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.Membership())
	}
	return out, nil
}

func (d *MongoDirectory) Trader(ctx context.Context, id string) (*model.Profile, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	c, err := d.coll(model.TraderTableName)
	if err != nil {
		return nil, err
	}
	var doc model.TraderDoc
	err = c.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.ErrStoreUnavailable.WrapMsg("find trader", "id", id, "err", err)
	}
	p := doc.ToProfile()
	return &p, nil
}

func (d *MongoDirectory) Traders(ctx context.Context, ids []string) ([]model.Profile, error) {
	var docs []model.TraderDoc
	if err := d.findByIDs(ctx, model.TraderTableName, ids, &docs); err != nil {
		return nil, err
	}
	out := make([]model.Profile, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.ToProfile())
	}
	return out, nil
}

func (d *MongoDirectory) Advisors(ctx context.Context, ids []string) ([]model.Profile, error) {
	var docs []model.StaffDoc
	if err := d.findByIDs(ctx, model.AdvisorTableName, ids, &docs); err != nil {
		return nil, err
	}
	return staffProfiles(docs), nil
}

func (d *MongoDirectory) Associates(ctx context.Context) ([]model.Profile, error) {
	c, err := d.coll(model.AssociateTableName)
	if err != nil {
		return nil, err
	}
	cur, err := c.Find(ctx, bson.M{}, options.Find().SetProjection(staffProjection))
	if err != nil {
		return nil, errs.ErrStoreUnavailable.WrapMsg("find associates", "err", err)
	}
	var docs []model.StaffDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errs.ErrStoreUnavailable.WrapMsg("decode associates", "err", err)
	}
	return staffProfiles(docs), nil
}

var staffProjection = bson.M{"fName": 1, "lName": 1, "dp": 1, "email": 1}

// findByIDs 非法 id 直接跳过，返回顺序由 Mongo 决定
func (d *MongoDirectory) findByIDs(ctx context.Context, table string, ids []string, out any) error {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return nil
	}
	c, err := d.coll(table)
	if err != nil {
		return err
	}
	cur, err := c.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return errs.ErrStoreUnavailable.WrapMsg("find by ids", "table", table, "err", err)
	}
	if err := cur.All(ctx, out); err != nil {
		return errs.ErrStoreUnavailable.WrapMsg("decode by ids", "table", table, "err", err)
	}
	return nil
}

func staffProfiles(docs []model.StaffDoc) []model.Profile {
	out := make([]model.Profile, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.ToProfile())
	}
	return out
}
