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

type JobRepo struct {
	collection *mongo.Collection
}

func NewJobRepo(store *database.Store) *JobRepo {
	return &JobRepo{
		collection: store.Collection(database.JobsCollection),
	}
}

func (r *JobRepo) Insert(ctx context.Context, job *models.Job) error {
	result, err := r.collection.InsertOne(ctx, job)
	if err != nil {
		return err
	}
	job.ID = result.InsertedID.(bson.ObjectID)
	return nil
}

func (r *JobRepo) FindAll(ctx context.Context) ([]models.Job, error) {
	return r.find(ctx, bson.M{})
}

func (r *JobRepo) FindByPoster(ctx context.Context, email string) ([]models.Job, error) {
	return r.find(ctx, bson.M{models.JobKeyPostedBy: email})
}

func (r *JobRepo) find(ctx context.Context, filter bson.M) ([]models.Job, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	jobs := []models.Job{}
	if err := cursor.All(ctx, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *JobRepo) FindByID(ctx context.Context, id bson.ObjectID) (*models.Job, error) {
	var job models.Job
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&job)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

func (r *JobRepo) Delete(ctx context.Context, id bson.ObjectID) (*models.DeleteResult, error) {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, err
	}
	return &models.DeleteResult{Acknowledged: true, DeletedCount: result.DeletedCount}, nil
}

// UpdateExisting sets fields on the job with that id and fails with
// ErrNotFound if there is none.
func (r *JobRepo) UpdateExisting(ctx context.Context, id bson.ObjectID, fields bson.M) (*models.UpdateResult, error) {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return nil, err
	}
	if result.MatchedCount == 0 {
		return nil, ErrNotFound
	}
	return toUpdateResult(result), nil
}

// Upsert sets fields on the job with that id, creating the job under that id
// when it does not exist yet.
func (r *JobRepo) Upsert(ctx context.Context, id bson.ObjectID, fields bson.M) (*models.UpdateResult, error) {
	update := bson.M{
		"$set":         fields,
		"$setOnInsert": bson.M{models.JobKeyCreateAt: time.Now().UTC()},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update, options.UpdateOne().SetUpsert(true))
	if err != nil {
		return nil, err
	}
	return toUpdateResult(result), nil
}

// EnsureIndexes creates necessary indexes for the jobs collection
func (r *JobRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: models.JobKeyPostedBy, Value: 1}},
	})
	return err
}

func toUpdateResult(result *mongo.UpdateResult) *models.UpdateResult {
	out := &models.UpdateResult{
		Acknowledged:  true,
		MatchedCount:  result.MatchedCount,
		ModifiedCount: result.ModifiedCount,
		UpsertedCount: result.UpsertedCount,
	}
	if id, ok := result.UpsertedID.(bson.ObjectID); ok {
		out.UpsertedID = id.Hex()
	}
	return out
}
