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

// taskRepository persists Task aggregates. Like projectRepository, plain
// CRUD runs through mgod's EntityMongoModel; the ordering/filter query
// and the compare-and-swap write spec §5 requires go through the raw
// collection.
type taskRepository struct {
	model mgod.EntityMongoModel[domain.Task]
	coll  *mongo.Collection
}

func NewTaskRepository(db *mongo.Database, collectionName string) (port.TaskRepository, error) {
	opts := schemaopt.SchemaOptions{
		Collection: collectionName,
		Timestamps: true,
	}
	model, err := mgod.NewEntityMongoModel(domain.Task{}, opts)
	if err != nil {
		return nil, err
	}

	repo := &taskRepository{model: model, coll: db.Collection(collectionName)}
	if err := repo.ensureIndexes(context.Background()); err != nil {
		return nil, err
	}
	return repo, nil
}

// ensureIndexes creates the indexes named in spec §6:
// (projectId,status,priority), (projectId,isDeleted,updatedAt desc),
// (assignee,status), and a weighted text index over title/description.
func (r *taskRepository) ensureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "project_id", Value: 1}, {Key: "status", Value: 1}, {Key: "priority", Value: 1}}},
		{Keys: bson.D{{Key: "project_id", Value: 1}, {Key: "is_deleted", Value: 1}, {Key: "updatedAt", Value: -1}}},
		{Keys: bson.D{{Key: "assignee", Value: 1}, {Key: "status", Value: 1}}},
		{
			Keys: bson.D{{Key: "title", Value: "text"}, {Key: "description", Value: "text"}},
			Options: options.Index().SetWeights(bson.D{
				{Key: "title", Value: 10},
				{Key: "description", Value: 5},
			}),
		},
	})
	return err
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	result, err := r.model.InsertOne(ctx, *task)
	if err != nil {
		return err
	}
	task.ID = result.ID
	task.CreatedAt = result.CreatedAt
	task.UpdatedAt = result.UpdatedAt
	return nil
}

func (r *taskRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Task, error) {
	return r.model.FindOne(ctx, bson.M{"_id": id})
}

func (r *taskRepository) FindByProjectAndID(ctx context.Context, projectID, taskID primitive.ObjectID, includeDeleted bool) (*domain.Task, error) {
	filter := bson.M{"_id": taskID, "project_id": projectID}
	if !includeDeleted {
		filter["is_deleted"] = false
	}
	return r.model.FindOne(ctx, filter)
}

func (r *taskRepository) Find(ctx context.Context, projectID primitive.ObjectID, filter port.TaskListFilter, sort port.TaskListSort, offset, limit int) ([]*domain.Task, int64, error) {
	match := bson.M{"project_id": projectID}

	if filter.IsDeleted != nil {
		match["is_deleted"] = *filter.IsDeleted
	} else {
		match["is_deleted"] = false
	}
	if len(filter.Status) > 0 {
		match["status"] = bson.M{"$in": filter.Status}
	}
	if len(filter.Priority) > 0 {
		match["priority"] = bson.M{"$in": filter.Priority}
	}
	if len(filter.Assignee) > 0 {
		match["assignee"] = bson.M{"$in": filter.Assignee}
	}
	if len(filter.Label) > 0 {
		match["labels"] = bson.M{"$in": filter.Label}
	}
	if filter.DueFrom != nil || filter.DueTo != nil {
		due := bson.M{}
		if filter.DueFrom != nil {
			due["$gte"] = *filter.DueFrom
		}
		if filter.DueTo != nil {
			due["$lte"] = *filter.DueTo
		}
		match["due_date"] = due
	}
	if filter.Search != "" {
		match["$text"] = bson.M{"$search": filter.Search}
	}

	sortKey := taskSortField(sort.Field)
	dir := -1
	if !sort.Descending {
		dir = 1
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: sortKey, Value: dir}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, match, findOpts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var tasks []*domain.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, 0, err
	}

	total, err := r.coll.CountDocuments(ctx, match)
	if err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// taskSortField maps the spec §4.2 sort token to its storage field name.
func taskSortField(field string) string {
	switch field {
	case "title":
		return "title"
	case "status":
		return "status"
	case "priority":
		return "priority"
	case "dueDate":
		return "due_date"
	case "updatedAt":
		return "updatedAt"
	default:
		return "createdAt"
	}
}

// CompareAndSwap persists task conditioned on the stored document's
// UpdatedAt still matching expectedUpdatedAt, the optimistic concurrency
// guard spec §5 requires so the state-machine check is evaluated against
// the committed status rather than a stale read. A mismatch (someone
// else wrote first) reports ok=false without error.
func (r *taskRepository) CompareAndSwap(ctx context.Context, task *domain.Task, expectedUpdatedAt time.Time) (bool, error) {
	now := time.Now().UTC()
	result, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": task.ID, "updatedAt": expectedUpdatedAt},
		bson.M{"$set": bson.M{
			"title":                 task.Title,
			"description":           task.Description,
			"status":                task.Status,
			"priority":              task.Priority,
			"assignee":              task.Assignee,
			"due_date":              task.DueDate,
			"labels":                task.Labels,
			"watchers":              task.Watchers,
			"is_deleted":            task.IsDeleted,
			"last_status_change_at": task.LastStatusChangeAt,
			"updatedAt":             now,
		}},
	)
	if err != nil {
		return false, err
	}
	if result.MatchedCount == 1 {
		task.UpdatedAt = now
		return true, nil
	}
	return false, nil
}

func (r *taskRepository) CountByProjectAndStatus(ctx context.Context, projectID primitive.ObjectID, status string) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{"project_id": projectID, "status": status, "is_deleted": false})
}

func (r *taskRepository) CountByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{"project_id": projectID, "is_deleted": false})
}
