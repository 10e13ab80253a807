package repository

import (
	"context"
	"time"

	"github.com/Lyearn/mgod"
	"github.com/Lyearn/mgod/schema/schemaopt"
	"github.com/dhanuprys/infrantery-backend-go/internal/core/domain"
	"github.com/dhanuprys/infrantery-backend-go/internal/core/port"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// activityRepository is the append-only store for TaskActivity records,
// spec §4.3. It exposes no update or delete: the log is append-only by
// construction, not by convention.
type activityRepository struct {
	model mgod.EntityMongoModel[domain.TaskActivity]
	coll  *mongo.Collection
}

func NewActivityRepository(db *mongo.Database, collectionName string) (port.ActivityRepository, error) {
	opts := schemaopt.SchemaOptions{
		Collection: collectionName,
		Timestamps: false,
	}
	model, err := mgod.NewEntityMongoModel(domain.TaskActivity{}, opts)
	if err != nil {
		return nil, err
	}

	repo := &activityRepository{model: model, coll: db.Collection(collectionName)}
	if err := repo.ensureIndexes(context.Background()); err != nil {
		return nil, err
	}
	return repo, nil
}

// ensureIndexes creates the three indexes spec §4.3/§6 name: by task, by
// project, and by actor, each descending on createdAt.
func (r *activityRepository) ensureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "task_id", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "project_id", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "actor", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	return err
}

// Append inserts activity, stamping CreatedAt itself since this
// collection runs with mgod's Timestamps option off (an append-only log
// has no updatedAt to maintain, and the fixed field name keeps the
// (taskId, createdAt desc) index simple).
func (r *activityRepository) Append(ctx context.Context, activity *domain.TaskActivity) error {
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now().UTC()
	}
	result, err := r.model.InsertOne(ctx, *activity)
	if err != nil {
		return err
	}
	activity.ID = result.ID
	return nil
}

func (r *activityRepository) FindByTaskID(ctx context.Context, taskID primitive.ObjectID, offset, limit int) ([]*domain.TaskActivity, int64, error) {
	filter := bson.M{"task_id": taskID}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var activities []*domain.TaskActivity
	if err := cursor.All(ctx, &activities); err != nil {
		return nil, 0, err
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	return activities, total, nil
}
