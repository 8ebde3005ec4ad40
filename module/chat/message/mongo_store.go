package message

import (
	"context"
	"time"

	"SupportChat/module/chat/model"
	"SupportChat/tools/errs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DBProvider 连接未就绪时返回 false
type DBProvider func() (*mongo.Database, bool)

type MongoStore struct {
	db DBProvider
}

func NewMongoStore(db DBProvider) *MongoStore {
	return &MongoStore{db: db}
}

func (s *MongoStore) coll() (*mongo.Collection, error) {
	db, ok := s.db()
	if !ok {
		return nil, errs.ErrStoreUnavailable.WrapMsg("mongo not ready")
	}
	return db.Collection(model.MessageTableName), nil
}

// EnsureIndexes groupId + timestamp 倒序，history 查询走这个索引
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	c, err := s.coll()
	if err != nil {
		return err
	}
	_, err = c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "groupId", Value: 1}, {Key: "timestamp", Value: -1}},
		Options: options.Index().SetName("groupId_timestamp"),
	})
	if err != nil {
		return errs.WrapMsg(err, "create chats index")
	}
	return nil
}

func (s *MongoStore) InsertMany(ctx context.Context, msgs []model.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	c, err := s.coll()
	if err != nil {
		return err
	}
	docs := make([]any, len(msgs))
	for i := range msgs {
		docs[i] = msgs[i]
	}
	if _, err := c.InsertMany(ctx, docs); err != nil {
		return errs.ErrStoreUnavailable.WrapMsg("insert chats", "count", len(msgs), "err", err)
	}
	return nil
}

func (s *MongoStore) Find(ctx context.Context, groupID string, before time.Time, limit int) ([]model.Message, error) {
	c, err := s.coll()
	if err != nil {
		return nil, err
	}
	filter := bson.M{"groupId": groupID}
	if !before.IsZero() {
		filter["timestamp"] = bson.M{"$lt": before}
	}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := c.Find(ctx, filter, opts)
	if err != nil {
		return nil, errs.ErrStoreUnavailable.WrapMsg("find chats", "groupId", groupID, "err", err)
	}
	var out []model.Message
	if err := cur.All(ctx, &out); err != nil {
		return nil, errs.ErrStoreUnavailable.WrapMsg("decode chats", "groupId", groupID, "err", err)
	}
	return out, nil
}
