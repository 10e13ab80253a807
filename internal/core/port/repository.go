package port

import (
	"context"
	"errors"
	"time"

	"github.com/dhanuprys/infrantery-backend-go/internal/core/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrProfileNotFound is returned by ProfileResolver when the User
// service has no profile for the requested id/email.
var ErrProfileNotFound = errors.New("profile not found")

// ProjectListFilter narrows listUserProjects (spec §4.1).
type ProjectListFilter struct {
	Search      string
	Status      string // "" means "not deleted"
	InvitedOnly bool
	Sort        string // e.g. "-updatedAt"
}

// ProjectRepository persists the Project aggregate, members embedded.
type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Project, error)
	FindByInvitationCode(ctx context.Context, code string) (*domain.Project, error)
	ExistsByInvitationCode(ctx context.Context, code string) (bool, error)
	FindByUserID(ctx context.Context, userID primitive.ObjectID, filter ProjectListFilter, offset, limit int) ([]*domain.Project, int64, error)

	// UpdateFields persists non-membership field changes (name,
	// description, status, settings, metadata) with a plain $set.
	UpdateFields(ctx context.Context, project *domain.Project) error

	// ReplaceMembers performs the optimistic check-and-set update spec §5
	// requires for membership mutations: it succeeds only if the stored
	// version still equals expectedVersion, atomically bumping it on
	// success. A false ok means the caller must re-read and retry.
	ReplaceMembers(ctx context.Context, projectID primitive.ObjectID, expectedVersion int, members []domain.Member) (ok bool, err error)

	SoftDelete(ctx context.Context, id primitive.ObjectID) error
}

// TaskListFilter narrows listTasks (spec §4.2).
type TaskListFilter struct {
	Status    []string
	Assignee  []primitive.ObjectID
	Priority  []string
	Label     []string
	Search    string
	DueFrom   *time.Time
	DueTo     *time.Time
	IsDeleted *bool // nil -> default false
}

// TaskListSort enumerates the sortable fields, spec §4.2.
type TaskListSort struct {
	Field      string // createdAt|updatedAt|title|status|priority|dueDate
	Descending bool
}

// TaskRepository persists Task aggregates.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Task, error)
	FindByProjectAndID(ctx context.Context, projectID, taskID primitive.ObjectID, includeDeleted bool) (*domain.Task, error)
	Find(ctx context.Context, projectID primitive.ObjectID, filter TaskListFilter, sort TaskListSort, offset, limit int) ([]*domain.Task, int64, error)

	// CompareAndSwap persists task, conditioned on the stored document's
	// UpdatedAt still matching expectedUpdatedAt — the optimistic
	// concurrency guard spec §5 requires for task mutation ordering. A
	// false ok means the caller should re-fetch and retry.
	CompareAndSwap(ctx context.Context, task *domain.Task, expectedUpdatedAt time.Time) (ok bool, err error)

	CountByProjectAndStatus(ctx context.Context, projectID primitive.ObjectID, status string) (int64, error)
	CountByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error)
}

// ActivityRepository appends and lists TaskActivity records. No update or
// delete method exists: the log is append-only by construction.
type ActivityRepository interface {
	Append(ctx context.Context, activity *domain.TaskActivity) error
	FindByTaskID(ctx context.Context, taskID primitive.ObjectID, offset, limit int) ([]*domain.TaskActivity, int64, error)
}

// PermissionBridge resolves a caller's project role from the Task
// service's perspective (spec §4.4). Implementations must cache with a
// short bounded TTL and fail closed when the Project service is
// unreachable.
type PermissionBridge interface {
	Role(ctx context.Context, projectID, userID primitive.ObjectID) (role string, isMember bool, err error)
}

// UserProfile is the minimal shape the core needs from the external User
// service (spec §1: out of scope, consumed as a boundary).
type UserProfile struct {
	UserID      primitive.ObjectID
	Email       string
	DisplayName string
}

// ProfileResolver resolves user ids to display profiles. Implementations
// may serve directly from bearer-token claims when available (spec §6)
// and fall back to the external User service otherwise.
type ProfileResolver interface {
	Resolve(ctx context.Context, userID primitive.ObjectID) (*UserProfile, error)
	ResolveByEmail(ctx context.Context, email string) (*UserProfile, error)
}

// NotificationEvent is the structured payload passed to the Notifier
// (spec §4.5). Kind identifies the event for the external notifier to
// route (email/push).
type NotificationEvent struct {
	Kind      string
	ProjectID primitive.ObjectID
	ActorID   primitive.ObjectID
	Payload   map[string]any
}

// Notifier dispatches side-effect notifications. Failures are non-fatal:
// callers log and continue (spec §4.5 fire-and-forget).
type Notifier interface {
	Notify(ctx context.Context, event NotificationEvent)
}

// TaskCountReporter pushes task-count rollups to the Project service
// (spec §3 metadata supplement), reusing the permission bridge's HTTP
// transport.
type TaskCountReporter interface {
	ReportTaskCounts(ctx context.Context, projectID primitive.ObjectID, total, completed int) error
}

// ArchiveCascader notifies the Task service that a project archived, so
// it can archive the project's open tasks (spec §9 Open Question #1).
type ArchiveCascader interface {
	ArchiveProjectTasks(ctx context.Context, projectID primitive.ObjectID)
}
