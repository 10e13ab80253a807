package repository

import (
	"context"
	"strings"
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

// projectRepository persists the Project aggregate. mgod's
// EntityMongoModel covers plain CRUD; the member-list compare-and-set
// and the invitation-code uniqueness guard fall outside what mgod
// exposes, so this repository also keeps the raw *mongo.Collection
// handed down from the database connection (the teacher's own escape
// hatch, called out in project_member_repository.go) for those two
// operations, index setup, the filtered/paginated listing, field updates
// and soft deletes.
type projectRepository struct {
	model mgod.EntityMongoModel[domain.Project]
	coll  *mongo.Collection
}

func NewProjectRepository(db *mongo.Database, collectionName string) (port.ProjectRepository, error) {
	opts := schemaopt.SchemaOptions{
		Collection: collectionName,
		Timestamps: true,
	}
	model, err := mgod.NewEntityMongoModel(domain.Project{}, opts)
	if err != nil {
		return nil, err
	}

	repo := &projectRepository{model: model, coll: db.Collection(collectionName)}
	if err := repo.ensureIndexes(context.Background()); err != nil {
		return nil, err
	}
	return repo, nil
}

// ensureIndexes creates the indexes spec §6 requires: a unique index on
// invitationCode (scoped to non-deleted projects, since the uniqueness
// invariant only holds across those) and a text index over name and
// description for listUserProjects' search filter.
func (r *projectRepository) ensureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "invitation_code", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": bson.M{"$ne": domain.ProjectStatusDeleted}}),
		},
		{Keys: bson.D{{Key: "created_by", Value: 1}}},
		{Keys: bson.D{{Key: "members.user_id", Value: 1}}},
		{
			Keys: bson.D{{Key: "name", Value: "text"}, {Key: "description", Value: "text"}},
		},
	})
	return err
}

func (r *projectRepository) Create(ctx context.Context, project *domain.Project) error {
	result, err := r.model.InsertOne(ctx, *project)
	if err != nil {
		return err
	}
	project.ID = result.ID
	project.CreatedAt = result.CreatedAt
	project.UpdatedAt = result.UpdatedAt
	return nil
}

func (r *projectRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Project, error) {
	return r.model.FindOne(ctx, bson.M{"_id": id, "status": bson.M{"$ne": domain.ProjectStatusDeleted}})
}

func (r *projectRepository) FindByInvitationCode(ctx context.Context, code string) (*domain.Project, error) {
	return r.model.FindOne(ctx, bson.M{
		"invitation_code": strings.ToUpper(code),
		"status":          bson.M{"$ne": domain.ProjectStatusDeleted},
	})
}

func (r *projectRepository) ExistsByInvitationCode(ctx context.Context, code string) (bool, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{
		"invitation_code": strings.ToUpper(code),
		"status":          bson.M{"$ne": domain.ProjectStatusDeleted},
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *projectRepository) FindByUserID(ctx context.Context, userID primitive.ObjectID, filter port.ProjectListFilter, offset, limit int) ([]*domain.Project, int64, error) {
	match := bson.M{
		"members": bson.M{
			"$elemMatch": bson.M{"user_id": userID, "status": domain.MemberStatusActive},
		},
	}
	if filter.InvitedOnly {
		match["members"] = bson.M{
			"$elemMatch": bson.M{"user_id": userID, "status": domain.MemberStatusInvited},
		}
	}
	if filter.Status != "" {
		match["status"] = filter.Status
	} else {
		match["status"] = bson.M{"$ne": domain.ProjectStatusDeleted}
	}
	if filter.Search != "" {
		match["$text"] = bson.M{"$search": filter.Search}
	}

	sortField, sortDir := parseSort(filter.Sort, "updatedAt")
	findOpts := options.Find().
		SetSort(bson.D{{Key: sortField, Value: sortDir}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, match, findOpts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var projects []*domain.Project
	if err := cursor.All(ctx, &projects); err != nil {
		return nil, 0, err
	}

	total, err := r.coll.CountDocuments(ctx, match)
	if err != nil {
		return nil, 0, err
	}

	return projects, total, nil
}

// parseSort splits a "-field"/"field" sort token into a Mongo field name
// and direction, falling back to fallback descending when token is empty.
func parseSort(token, fallback string) (string, int) {
	if token == "" {
		return fallback, -1
	}
	if strings.HasPrefix(token, "-") {
		return token[1:], -1
	}
	return token, 1
}

func (r *projectRepository) UpdateFields(ctx context.Context, project *domain.Project) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": project.ID}, bson.M{
		"$set": bson.M{
			"name":        project.Name,
			"description": project.Description,
			"status":      project.Status,
			"settings":    project.Settings,
			"metadata":    project.Metadata,
			"updatedAt":   time.Now().UTC(),
		},
	})
	return err
}

// ReplaceMembers performs the optimistic check-and-set update spec §5
// requires: it matches on both _id and the expected version, bumping the
// version atomically with the member list replacement. If no document
// matches (because the version moved under a concurrent writer), ok is
// false and the caller re-reads and retries.
func (r *projectRepository) ReplaceMembers(ctx context.Context, projectID primitive.ObjectID, expectedVersion int, members []domain.Member) (bool, error) {
	result, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": projectID, "version": expectedVersion},
		bson.M{
			"$set": bson.M{
				"members":   members,
				"updatedAt": time.Now().UTC(),
			},
			"$inc": bson.M{"version": 1},
		},
	)
	if err != nil {
		return false, err
	}
	return result.MatchedCount == 1, nil
}

func (r *projectRepository) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"status": domain.ProjectStatusDeleted, "updatedAt": time.Now().UTC()},
	})
	return err
}
