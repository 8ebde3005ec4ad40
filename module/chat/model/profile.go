package model

import "go.mongodb.org/mongo-driver/bson/primitive"

const (
	TraderTableName    = "Trader"
	AdvisorTableName   = "Advisor"
	AssociateTableName = "Associates"
)

// Profile 目录中的展示信息
type Profile struct {
	ID        string
	FirstName string
	LastName  string
	Image     string
	Email     string
}

func (p Profile) HasName() bool {
	return p.FirstName != "" || p.LastName != ""
}

// TraderDoc 姓名在 profile 子文档里
type TraderDoc struct {
	ID      primitive.ObjectID `bson:"_id"`
	Profile struct {
		FirstName string `bson:"fName"`
		LastName  string `bson:"lName"`
		Image     string `bson:"dp"`
		Email     string `bson:"email"`
	} `bson:"profile"`
}

func (d TraderDoc) ToProfile() Profile {
	return Profile{
		ID:        d.ID.Hex(),
		FirstName: d.Profile.FirstName,
		LastName:  d.Profile.LastName,
		Image:     d.Profile.Image,
		Email:     d.Profile.Email,
	}
}

// StaffDoc Advisor 与 Associates 结构相同，姓名在顶层
type StaffDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	FirstName string             `bson:"fName"`
	LastName  string             `bson:"lName"`
	Image     string             `bson:"dp"`
	Email     string             `bson:"email"`
}

func (d StaffDoc) ToProfile() Profile {
	return Profile{
		ID:        d.ID.Hex(),
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Image:     d.Image,
		Email:     d.Email,
	}
}
