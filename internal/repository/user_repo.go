package repository

import (
	"context"
	"errors"
	"time"

	"jamjob-backend/internal/database"
	"jamjob-backend/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type UserRepo struct {
	collection *mongo.Collection
}

func NewUserRepo(store *database.Store) *UserRepo {
	return &UserRepo{
		collection: store.Collection(database.UsersCollection),
	}
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// Create inserts user. A second user with the same email fails with
// ErrDuplicate through the unique index.
func (r *UserRepo) Create(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	result, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	user.ID = result.InsertedID.(bson.ObjectID)
	return nil
}

// ReserveJobSlot increments totalJobsPosted only if the user is still below
// freeQuota+paidJobCredits, in a single document update. It returns the
// updated user, ErrQuotaExceeded when the allowance is used up, or
// ErrNotFound when no user has that email.
func (r *UserRepo) ReserveJobSlot(ctx context.Context, email string, freeQuota int) (*models.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{
		"$inc": bson.M{"totalJobsPosted": 1},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}

	var user models.User
	err := r.collection.FindOneAndUpdate(ctx, quotaFilter(email, freeQuota), update, opts).Decode(&user)
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	existing, err := r.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrNotFound
	}
	return nil, ErrQuotaExceeded
}

// ReleaseJobSlot undoes a reservation whose job insert failed.
func (r *UserRepo) ReleaseJobSlot(ctx context.Context, email string) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"email": email, "totalJobsPosted": bson.M{"$gt": 0}},
		bson.M{
			"$inc": bson.M{"totalJobsPosted": -1},
			"$set": bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	return err
}

// ApplyPaymentCredits adds credits for orderID unless that order is already
// in the user's creditedOrders. The check and the increment are one document
// update, so retries and concurrent completions credit an order once. The
// bool reports whether this call applied the credits.
func (r *UserRepo) ApplyPaymentCredits(ctx context.Context, email, orderID string, credits int) (*models.User, bool, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	filter := bson.M{"email": email, "creditedOrders": bson.M{"$ne": orderID}}
	update := bson.M{
		"$inc":      bson.M{"paidJobCredits": credits},
		"$addToSet": bson.M{"creditedOrders": orderID},
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
	}

	var user models.User
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&user)
	if err == nil {
		return &user, true, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, err
	}

	existing, err := r.FindByEmail(ctx, email)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, ErrNotFound
	}
	return existing, false, nil
}

// EnsureIndexes creates necessary indexes for the users collection
func (r *UserRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// quotaFilter matches the user only while totalJobsPosted is below the
// allowance. Missing counters count as zero so older documents still match.
func quotaFilter(email string, freeQuota int) bson.M {
	return bson.M{
		"email": email,
		"$expr": bson.M{
			"$lt": bson.A{
				bson.M{"$ifNull": bson.A{"$totalJobsPosted", 0}},
				bson.M{"$add": bson.A{
					freeQuota,
					bson.M{"$ifNull": bson.A{"$paidJobCredits", 0}},
				}},
			},
		},
	}
}
