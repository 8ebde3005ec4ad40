package model

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const MembershipTableName = "OpenTraderScripts"

// MembershipDoc OpenTraderScripts 集合里的一条记录，一个 trader 订阅一个 script（即一个群）
type MembershipDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	TraderID  primitive.ObjectID `bson:"traderId"`
	ScriptID  primitive.ObjectID `bson:"scriptId"` // 群ID
	AdvisorID primitive.ObjectID `bson:"advisorId"`
	OtherInfo struct {
		Script struct {
			UserID any    `bson:"userId"` // 混合类型：ObjectId 或 string
			Title  string `bson:"title"`
		} `bson:"script"`
	} `bson:"otherInfo"`
}

// Membership 目录层对外暴露的成员关系
type Membership struct {
	TraderID    string
	AdvisorID   string // 优先 otherInfo.script.userId，缺失时退回 advisorId
	ScriptTitle string
}

func (d MembershipDoc) Membership() Membership {
	advisor := IDString(d.OtherInfo.Script.UserID)
	if advisor == "" && !d.AdvisorID.IsZero() {
		advisor = d.AdvisorID.Hex()
	}
	trader := ""
	if !d.TraderID.IsZero() {
		trader = d.TraderID.Hex()
	}
	return Membership{
		TraderID:    trader,
		AdvisorID:   advisor,
		ScriptTitle: d.OtherInfo.Script.Title,
	}
}

// IDString ObjectId/string 统一成 hex 字符串
func IDString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case primitive.ObjectID:
		if t.IsZero() {
			return ""
		}
		return t.Hex()
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
