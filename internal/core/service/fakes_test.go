package service

import (
	"context"
	"sync"
	"time"

	"github.com/dhanuprys/infrantery-backend-go/internal/core/domain"
	"github.com/dhanuprys/infrantery-backend-go/internal/core/port"
	"github.com/dhanuprys/infrantery-backend-go/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func init() {
	// Avoid writing to the zero-value zerolog.Logger when service code
	// logs on error paths during tests.
	logger.Init("error", "production")
}

// fakeProjectRepo is an in-memory port.ProjectRepository for service tests.
type fakeProjectRepo struct {
	mu       sync.Mutex
	projects map[primitive.ObjectID]*domain.Project
	codes    map[string]primitive.ObjectID
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{
		projects: map[primitive.ObjectID]*domain.Project{},
		codes:    map[string]primitive.ObjectID{},
	}
}

func (f *fakeProjectRepo) Create(ctx context.Context, project *domain.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *project
	f.projects[project.ID] = &cp
	f.codes[project.InvitationCode] = project.ID
	return nil
}

func (f *fakeProjectRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	cp := *p
	cp.Members = append([]domain.Member(nil), p.Members...)
	return &cp, nil
}

func (f *fakeProjectRepo) FindByInvitationCode(ctx context.Context, code string) (*domain.Project, error) {
	f.mu.Lock()
	id, ok := f.codes[code]
	f.mu.Unlock()
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return f.FindByID(ctx, id)
}

func (f *fakeProjectRepo) ExistsByInvitationCode(ctx context.Context, code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.codes[code]
	return ok, nil
}

func (f *fakeProjectRepo) FindByUserID(ctx context.Context, userID primitive.ObjectID, filter port.ProjectListFilter, offset, limit int) ([]*domain.Project, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Project
	for _, p := range f.projects {
		if p.IsMember(userID) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeProjectRepo) UpdateFields(ctx context.Context, project *domain.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.projects[project.ID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	cp := *project
	cp.Members = existing.Members
	f.projects[project.ID] = &cp
	return nil
}

func (f *fakeProjectRepo) ReplaceMembers(ctx context.Context, projectID primitive.ObjectID, expectedVersion int, members []domain.Member) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.projects[projectID]
	if !ok {
		return false, mongo.ErrNoDocuments
	}
	if existing.Version != expectedVersion {
		return false, nil
	}
	existing.Members = append([]domain.Member(nil), members...)
	existing.Version++
	return true, nil
}

func (f *fakeProjectRepo) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	p.Status = domain.ProjectStatusDeleted
	return nil
}

// fakeProfileResolver serves profiles from an in-memory map.
type fakeProfileResolver struct {
	byID    map[primitive.ObjectID]*port.UserProfile
	byEmail map[string]*port.UserProfile
}

func newFakeProfileResolver() *fakeProfileResolver {
	return &fakeProfileResolver{
		byID:    map[primitive.ObjectID]*port.UserProfile{},
		byEmail: map[string]*port.UserProfile{},
	}
}

func (f *fakeProfileResolver) add(p *port.UserProfile) {
	f.byID[p.UserID] = p
	f.byEmail[p.Email] = p
}

func (f *fakeProfileResolver) Resolve(ctx context.Context, userID primitive.ObjectID) (*port.UserProfile, error) {
	p, ok := f.byID[userID]
	if !ok {
		return nil, port.ErrProfileNotFound
	}
	return p, nil
}

func (f *fakeProfileResolver) ResolveByEmail(ctx context.Context, email string) (*port.UserProfile, error) {
	p, ok := f.byEmail[email]
	if !ok {
		return nil, port.ErrProfileNotFound
	}
	return p, nil
}

// fakeNotifier records every notification it receives.
type fakeNotifier struct {
	mu     sync.Mutex
	events []port.NotificationEvent
}

func (f *fakeNotifier) Notify(ctx context.Context, event port.NotificationEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

// fakeArchiveCascader records which projects it was asked to cascade.
type fakeArchiveCascader struct {
	mu       sync.Mutex
	archived []primitive.ObjectID
}

func (f *fakeArchiveCascader) ArchiveProjectTasks(ctx context.Context, projectID primitive.ObjectID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.archived = append(f.archived, projectID)
}

// fakeTaskRepo is an in-memory port.TaskRepository for service tests.
type fakeTaskRepo struct {
	mu    sync.Mutex
	tasks map[primitive.ObjectID]*domain.Task
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: map[primitive.ObjectID]*domain.Task{}}
}

func (f *fakeTaskRepo) Create(ctx context.Context, task *domain.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now
	cp := *task
	f.tasks[task.ID] = &cp
	return nil
}

func (f *fakeTaskRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTaskRepo) FindByProjectAndID(ctx context.Context, projectID, taskID primitive.ObjectID, includeDeleted bool) (*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[taskID]
	if !ok || t.ProjectID != projectID {
		return nil, mongo.ErrNoDocuments
	}
	if t.IsDeleted && !includeDeleted {
		return nil, mongo.ErrNoDocuments
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTaskRepo) Find(ctx context.Context, projectID primitive.ObjectID, filter port.TaskListFilter, sort port.TaskListSort, offset, limit int) ([]*domain.Task, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Task
	for _, t := range f.tasks {
		if t.ProjectID != projectID {
			continue
		}
		out = append(out, t)
	}
	return out, int64(len(out)), nil
}

func (f *fakeTaskRepo) CompareAndSwap(ctx context.Context, task *domain.Task, expectedUpdatedAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.tasks[task.ID]
	if !ok {
		return false, mongo.ErrNoDocuments
	}
	if !existing.UpdatedAt.Equal(expectedUpdatedAt) {
		return false, nil
	}
	task.UpdatedAt = time.Now()
	cp := *task
	f.tasks[task.ID] = &cp
	return true, nil
}

func (f *fakeTaskRepo) CountByProjectAndStatus(ctx context.Context, projectID primitive.ObjectID, status string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, t := range f.tasks {
		if t.ProjectID == projectID && t.Status == status {
			n++
		}
	}
	return n, nil
}

func (f *fakeTaskRepo) CountByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, t := range f.tasks {
		if t.ProjectID == projectID {
			n++
		}
	}
	return n, nil
}

// fakeActivityRepo is an in-memory append-only port.ActivityRepository.
type fakeActivityRepo struct {
	mu         sync.Mutex
	activities []*domain.TaskActivity
}

func newFakeActivityRepo() *fakeActivityRepo {
	return &fakeActivityRepo{}
}

func (f *fakeActivityRepo) Append(ctx context.Context, activity *domain.TaskActivity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	activity.CreatedAt = time.Now()
	f.activities = append(f.activities, activity)
	return nil
}

func (f *fakeActivityRepo) FindByTaskID(ctx context.Context, taskID primitive.ObjectID, offset, limit int) ([]*domain.TaskActivity, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.TaskActivity
	for _, a := range f.activities {
		if a.TaskID == taskID {
			out = append(out, a)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeActivityRepo) byAction(taskID primitive.ObjectID, action string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, a := range f.activities {
		if a.TaskID == taskID && a.Action == action {
			n++
		}
	}
	return n
}

// fakePermissionBridge resolves roles from an in-memory map keyed by
// projectID+userID, mimicking the bridge's Role lookup without any HTTP
// round trip.
type fakePermissionBridge struct {
	roles map[primitive.ObjectID]map[primitive.ObjectID]string
}

func newFakePermissionBridge() *fakePermissionBridge {
	return &fakePermissionBridge{roles: map[primitive.ObjectID]map[primitive.ObjectID]string{}}
}

func (f *fakePermissionBridge) set(projectID, userID primitive.ObjectID, role string) {
	if f.roles[projectID] == nil {
		f.roles[projectID] = map[primitive.ObjectID]string{}
	}
	f.roles[projectID][userID] = role
}

func (f *fakePermissionBridge) Role(ctx context.Context, projectID, userID primitive.ObjectID) (string, bool, error) {
	byUser, ok := f.roles[projectID]
	if !ok {
		return "", false, nil
	}
	role, ok := byUser[userID]
	if !ok {
		return "", false, nil
	}
	return role, true, nil
}

// fakeTaskCountReporter records the last count report it received.
type fakeTaskCountReporter struct {
	mu        sync.Mutex
	reports   int
	total     int
	completed int
	done      chan struct{}
}

func newFakeTaskCountReporter() *fakeTaskCountReporter {
	return &fakeTaskCountReporter{done: make(chan struct{}, 16)}
}

func (f *fakeTaskCountReporter) ReportTaskCounts(ctx context.Context, projectID primitive.ObjectID, total, completed int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports++
	f.total = total
	f.completed = completed
	f.done <- struct{}{}
	return nil
}
