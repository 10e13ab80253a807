// Package client holds the Task service's outbound HTTP collaborators:
// the permission bridge into the Project service (spec §4.4), the
// profile resolver into the User service (spec §1), and the two small
// webhook-style calls the Project/Task services make to each other
// (task-count rollup, archive cascade). None of these concerns has an
// ecosystem HTTP client library anywhere in the retrieval pack, so each
// is built on stdlib net/http + context, generalizing the teacher's own
// mongo.Connect(ctx, ...) bounded-timeout idiom to outbound HTTP calls.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dhanuprys/infrantery-backend-go/internal/core/port"
	"github.com/dhanuprys/infrantery-backend-go/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// roleCacheEntry is one (projectId,userId) -> role lookup result, held
// only for TTL so the bridge never serves a write-stale permission.
type roleCacheEntry struct {
	role     string
	isMember bool
	expires  time.Time
}

// PermissionBridge resolves a caller's project role by calling the
// Project service's internal members-lookup endpoint, spec §4.4. It
// fails closed (INTERNAL_ERROR) whenever the Project service is
// unreachable, and caches hits for a short bounded TTL to tolerate
// request bursts without serving a role older than the TTL.
type PermissionBridge struct {
	baseURL    string
	httpClient *http.Client
	ttl        time.Duration
	authSecret string

	mu    sync.Mutex
	cache map[string]roleCacheEntry
}

func NewPermissionBridge(baseURL string, ttl time.Duration, authSecret string) *PermissionBridge {
	return &PermissionBridge{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		ttl:        ttl,
		authSecret: authSecret,
		cache:      make(map[string]roleCacheEntry),
	}
}

type membersLookupResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Role     string `json:"role"`
		IsMember bool   `json:"isMember"`
	} `json:"data"`
}

// Role implements port.PermissionBridge.
func (b *PermissionBridge) Role(ctx context.Context, projectID, userID primitive.ObjectID) (string, bool, error) {
	key := projectID.Hex() + ":" + userID.Hex()

	b.mu.Lock()
	if entry, ok := b.cache[key]; ok && time.Now().Before(entry.expires) {
		b.mu.Unlock()
		return entry.role, entry.isMember, nil
	}
	b.mu.Unlock()

	reqCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	url := fmt.Sprintf("%s/internal/projects/%s/members/%s", b.baseURL, projectID.Hex(), userID.Hex())
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Authorization", "Bearer "+b.authSecret)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		logger.Error().Err(err).Str("project_id", projectID.Hex()).Msg("permission bridge unreachable, failing closed")
		return "", false, fmt.Errorf("permission bridge unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		b.store(key, "", false)
		return "", false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("permission bridge returned status %d", resp.StatusCode)
	}

	var payload membersLookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", false, err
	}

	b.store(key, payload.Data.Role, payload.Data.IsMember)
	return payload.Data.Role, payload.Data.IsMember, nil
}

func (b *PermissionBridge) store(key, role string, isMember bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cache[key] = roleCacheEntry{role: role, isMember: isMember, expires: time.Now().Add(b.ttl)}
}

var _ port.PermissionBridge = (*PermissionBridge)(nil)

// TaskCountReporter pushes the Task service's rollup to the Project
// service's internal task-count endpoint (SPEC_FULL §3 supplement).
type TaskCountReporter struct {
	baseURL    string
	httpClient *http.Client
	authSecret string
}

func NewTaskCountReporter(baseURL, authSecret string) *TaskCountReporter {
	return &TaskCountReporter{baseURL: baseURL, httpClient: &http.Client{Timeout: 5 * time.Second}, authSecret: authSecret}
}

type taskCountPayload struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
}

func (r *TaskCountReporter) ReportTaskCounts(ctx context.Context, projectID primitive.ObjectID, total, completed int) error {
	reqCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	body, err := json.Marshal(taskCountPayload{Total: total, Completed: completed})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/internal/projects/%s/task-counts", r.baseURL, projectID.Hex())
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.authSecret)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("task-count report returned status %d", resp.StatusCode)
	}
	return nil
}

var _ port.TaskCountReporter = (*TaskCountReporter)(nil)

// ArchiveCascadeClient is the Project service's caller into the Task
// service's internal archive-cascade endpoint (SPEC_FULL §3, resolving
// spec §9 Open Question #1). Like the notifier, failures are logged and
// never fail the project archive operation that triggered them.
type ArchiveCascadeClient struct {
	baseURL    string
	httpClient *http.Client
	authSecret string
}

func NewArchiveCascadeClient(baseURL, authSecret string) *ArchiveCascadeClient {
	return &ArchiveCascadeClient{baseURL: baseURL, httpClient: &http.Client{Timeout: 5 * time.Second}, authSecret: authSecret}
}

func (a *ArchiveCascadeClient) ArchiveProjectTasks(ctx context.Context, projectID primitive.ObjectID) {
	go func() {
		reqCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		url := fmt.Sprintf("%s/internal/projects/%s/archive-tasks", a.baseURL, projectID.Hex())
		req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, nil)
		if err != nil {
			logger.Error().Err(err).Str("project_id", projectID.Hex()).Msg("failed to build archive-cascade request")
			return
		}
		req.Header.Set("Authorization", "Bearer "+a.authSecret)

		resp, err := a.httpClient.Do(req)
		if err != nil {
			logger.Error().Err(err).Str("project_id", projectID.Hex()).Msg("archive-cascade call failed")
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			logger.Error().Int("status", resp.StatusCode).Str("project_id", projectID.Hex()).Msg("archive-cascade call rejected")
		}
	}()
}

var _ port.ArchiveCascader = (*ArchiveCascadeClient)(nil)
