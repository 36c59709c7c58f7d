package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Mbenve9198/exit-wounds/models"
)

// recipientFilter is the base filter for every direct send: approved,
// verified, and not unsubscribed. Unsubscribed wins over everything else.
func recipientFilter() bson.M {
	return bson.M{
		"isApproved": true,
		"isVerified": true,
		"unsubscribed": bson.M{"$ne": true},
	}
}

func (db *DB) CreateUser(ctx context.Context, user *models.User) (primitive.ObjectID, error) {
	res, err := db.Users().InsertOne(ctx, user, options.InsertOne())
	if err != nil {
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (db *DB) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := db.Users().FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (db *DB) UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	err := db.Users().FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (db *DB) UserByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	var u models.User
	err := db.Users().FindOne(ctx, bson.M{"verificationToken": token}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (db *DB) UserByUnsubscribeToken(ctx context.Context, token string) (*models.User, error) {
	var u models.User
	err := db.Users().FindOne(ctx, bson.M{"unsubscribeToken": token}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (db *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	cur, err := db.Users().Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"createdAt": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Recipients returns every user eligible for a direct send, in insertion
// order. This ordering is observable: the dispatch loop processes recipients
// in exactly this order.
func (db *DB) Recipients(ctx context.Context) ([]models.User, error) {
	cur, err := db.Users().Find(ctx, recipientFilter(), options.Find().SetSort(bson.M{"createdAt": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// RecipientsByID returns the eligible subset of the given ids. Ids that match
// no eligible user are silently dropped.
func (db *DB) RecipientsByID(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	filter := recipientFilter()
	filter["_id"] = bson.M{"$in": ids}
	cur, err := db.Users().Find(ctx, filter, options.Find().SetSort(bson.M{"createdAt": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// SetUnsubscribeToken persists a lazily generated unsubscribe token. The
// token is written once and reused on every subsequent send.
func (db *DB) SetUnsubscribeToken(ctx context.Context, id primitive.ObjectID, token string) error {
	_, err := db.Users().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"unsubscribeToken": token,
		"updatedAt":        time.Now(),
	}})
	return err
}

// SetUnsubscribed flips the unsubscribed flag by email address.
func (db *DB) SetUnsubscribed(ctx context.Context, email string, unsubscribed bool) error {
	res, err := db.Users().UpdateOne(ctx, bson.M{"email": email}, bson.M{"$set": bson.M{
		"unsubscribed": unsubscribed,
		"updatedAt":    time.Now(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkVerified consumes a verification token.
func (db *DB) MarkVerified(ctx context.Context, id primitive.ObjectID) error {
	_, err := db.Users().UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set":   bson.M{"isVerified": true, "updatedAt": time.Now()},
		"$unset": bson.M{"verificationToken": ""},
	})
	return err
}

// Approve marks a user verified and approved in one write (approval via the
// admin email link implies the address works).
func (db *DB) Approve(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now()
	_, err := db.Users().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"isVerified": true,
		"isApproved": true,
		"approvedAt": now,
		"updatedAt":  now,
	}})
	return err
}

func (db *DB) SetLastLogin(ctx context.Context, id primitive.ObjectID) error {
	_, err := db.Users().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"lastLogin": time.Now()}})
	return err
}

// SetResetPasswordToken stores a password reset token with its expiry.
func (db *DB) SetResetPasswordToken(ctx context.Context, email, token string, expires time.Time) error {
	res, err := db.Users().UpdateOne(ctx, bson.M{"email": email}, bson.M{"$set": bson.M{
		"resetPasswordToken":   token,
		"resetPasswordExpires": expires,
		"updatedAt":            time.Now(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetPassword consumes an unexpired reset token and stores the new hash.
func (db *DB) ResetPassword(ctx context.Context, token, passwordHash string) error {
	res, err := db.Users().UpdateOne(ctx,
		bson.M{
			"resetPasswordToken":   token,
			"resetPasswordExpires": bson.M{"$gt": time.Now()},
		},
		bson.M{
			"$set":   bson.M{"password": passwordHash, "updatedAt": time.Now()},
			"$unset": bson.M{"resetPasswordToken": "", "resetPasswordExpires": ""},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	res, err := db.Users().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
