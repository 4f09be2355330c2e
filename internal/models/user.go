package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type User struct {
	ID              bson.ObjectID `bson:"_id,omitempty" json:"_id"`
	Email           string        `bson:"email" json:"email"`
	GoogleID        string        `bson:"googleId,omitempty" json:"googleId,omitempty"`
	FirstName       string        `bson:"firstName,omitempty" json:"firstName,omitempty"`
	LastName        string        `bson:"lastName,omitempty" json:"lastName,omitempty"`
	Gender          string        `bson:"gender,omitempty" json:"gender,omitempty"`
	DOB             string        `bson:"dob,omitempty" json:"dob,omitempty"`
	PasswordHash    string        `bson:"passwordHash,omitempty" json:"-"`
	EmailVerified   bool          `bson:"emailVerified" json:"emailVerified"`
	TotalJobsPosted int           `bson:"totalJobsPosted" json:"totalJobsPosted"`
	PaidJobCredits  int           `bson:"paidJobCredits" json:"paidJobCredits"`
	CreditedOrders  []string      `bson:"creditedOrders,omitempty" json:"-"`
	CreatedAt       time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// JobAllowance is how many jobs the user may have posted in total.
func (u *User) JobAllowance(freeQuota int) int {
	return freeQuota + u.PaidJobCredits
}

// RemainingPosts never goes below zero, even for counters that drifted past
// the allowance before the quota gate was atomic.
func (u *User) RemainingPosts(freeQuota int) int {
	if n := u.JobAllowance(freeQuota) - u.TotalJobsPosted; n > 0 {
		return n
	}
	return 0
}
