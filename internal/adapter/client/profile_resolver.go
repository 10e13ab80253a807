package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dhanuprys/infrantery-backend-go/internal/core/port"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProfileResolver resolves user ids/emails to display profiles by
// calling the external User service (spec §1 Out of scope). Bearer
// claims already carry email/displayName for the caller's own request
// (spec §6); this client is for resolving OTHER users (invitees,
// assignees, watchers, activity actors) that a handler only has the id
// for.
type ProfileResolver struct {
	baseURL    string
	httpClient *http.Client
	authSecret string
}

func NewProfileResolver(baseURL, authSecret string) *ProfileResolver {
	return &ProfileResolver{baseURL: baseURL, httpClient: &http.Client{Timeout: 5 * time.Second}, authSecret: authSecret}
}

type userProfileResponse struct {
	Success bool `json:"success"`
	Data    struct {
		UserID      string `json:"id"`
		Email       string `json:"email"`
		DisplayName string `json:"displayName"`
	} `json:"data"`
}

func (r *ProfileResolver) Resolve(ctx context.Context, userID primitive.ObjectID) (*port.UserProfile, error) {
	return r.fetch(ctx, fmt.Sprintf("%s/api/users/%s", r.baseURL, userID.Hex()))
}

func (r *ProfileResolver) ResolveByEmail(ctx context.Context, email string) (*port.UserProfile, error) {
	return r.fetch(ctx, fmt.Sprintf("%s/api/users?email=%s", r.baseURL, url.QueryEscape(email)))
}

func (r *ProfileResolver) fetch(ctx context.Context, requestURL string) (*port.UserProfile, error) {
	reqCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+r.authSecret)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, port.ErrProfileNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user service returned status %d", resp.StatusCode)
	}

	var payload userProfileResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	id, err := primitive.ObjectIDFromHex(payload.Data.UserID)
	if err != nil {
		return nil, err
	}

	return &port.UserProfile{
		UserID:      id,
		Email:       payload.Data.Email,
		DisplayName: payload.Data.DisplayName,
	}, nil
}

var _ port.ProfileResolver = (*ProfileResolver)(nil)
