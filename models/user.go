package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a newsletter subscriber. Both Verified and Approved must be true
// before the user can log in or receive mail; Unsubscribed excludes the user
// from all recipient resolution regardless of approval state.
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email    string             `bson:"email" json:"email"`
	Nickname string             `bson:"nickname" json:"nickname"`
	Password string             `bson:"password" json:"-"` // bcrypt hash

	Verified     bool `bson:"isVerified" json:"isVerified"`
	Approved     bool `bson:"isApproved" json:"isApproved"`
	Unsubscribed bool `bson:"unsubscribed" json:"unsubscribed"`

	// UnsubscribeToken is generated lazily on the first send to this user and
	// stable thereafter. It grants the capability to self-unsubscribe without
	// authentication.
	UnsubscribeToken string `bson:"unsubscribeToken,omitempty" json:"-"`

	VerificationToken    string     `bson:"verificationToken,omitempty" json:"-"`
	ResetPasswordToken   string     `bson:"resetPasswordToken,omitempty" json:"-"`
	ResetPasswordExpires *time.Time `bson:"resetPasswordExpires,omitempty" json:"-"`

	CreatedAt  time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time  `bson:"updatedAt" json:"updatedAt"`
	ApprovedAt *time.Time `bson:"approvedAt,omitempty" json:"approvedAt,omitempty"`
	LastLogin  *time.Time `bson:"lastLogin,omitempty" json:"lastLogin,omitempty"`
}

// CanReceiveMail reports whether recipient resolution may include this user.
func (u *User) CanReceiveMail() bool {
	return u.Approved && u.Verified && !u.Unsubscribed
}
