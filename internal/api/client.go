// Package api is the HTTP client for the gallery backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tOgg1/galleria/internal/logging"
)

const (
	defaultUserAgent = "galleria"
	maxErrorBody     = 64 << 10
)

// Config configures a Client.
type Config struct {
	// BaseURL is the API root including its prefix, e.g. http://host:8000/api.
	BaseURL string
	// Timeout bounds each request when HTTPClient is nil.
	Timeout time.Duration
	// Token, when set, is sent as a bearer token.
	Token     string
	UserAgent string
	// HTTPClient overrides the transport (tests, proxies).
	HTTPClient *http.Client
	Logger     *zerolog.Logger
}

// Client talks to the gallery backend. It never retries; every retry in
// galleria is user-initiated.
type Client struct {
	base      *url.URL
	token     string
	userAgent string
	http      *http.Client
	log       zerolog.Logger
}

// New validates cfg and builds a Client.
func New(cfg Config) (*Client, error) {
	raw := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if raw == "" {
		return nil, fmt.Errorf("base url: %w", ErrInvalidArgument)
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url scheme %q: %w", base.Scheme, ErrInvalidArgument)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	log := logging.Component("api")
	if cfg.Logger != nil {
		log = *cfg.Logger
	}

	return &Client{
		base:      base,
		token:     strings.TrimSpace(cfg.Token),
		userAgent: userAgent,
		http:      httpClient,
		log:       log,
	}, nil
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Origin returns scheme://host of the API root. The backend serves /media
// and /thumbnails from the origin, outside the API prefix.
func (c *Client) Origin() string {
	return (&url.URL{Scheme: c.base.Scheme, Host: c.base.Host}).String()
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) error {
	var out map[string]string
	return c.do(ctx, "health", http.MethodGet, "/health", nil, nil, &out)
}

// ListImages fetches one page of the library in server order.
func (c *Client) ListImages(ctx context.Context, page, pageSize int) (ImagePage, error) {
	if page < 1 || pageSize < 1 {
		return ImagePage{}, fmt.Errorf("list images page=%d page_size=%d: %w", page, pageSize, ErrInvalidArgument)
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(pageSize))

	var out ImagePage
	if err := c.do(ctx, "list images", http.MethodGet, "/images", q, nil, &out); err != nil {
		return ImagePage{}, err
	}
	return out, nil
}

// RenameImage renames the file at relativePath and returns its new metadata.
func (c *Client) RenameImage(ctx context.Context, relativePath, newName string) (Image, error) {
	relativePath = strings.TrimSpace(relativePath)
	newName = strings.TrimSpace(newName)
	if relativePath == "" || newName == "" {
		return Image{}, fmt.Errorf("rename image: path and new name required: %w", ErrInvalidArgument)
	}
	var out Image
	err := c.do(ctx, "rename image", http.MethodPost, "/images/rename", nil,
		renameImageRequest{RelativePath: relativePath, NewName: newName}, &out)
	return out, err
}

// DeleteImage moves the file to the backend's trash.
func (c *Client) DeleteImage(ctx context.Context, relativePath string) (DeleteResult, error) {
	relativePath = strings.TrimSpace(relativePath)
	if relativePath == "" {
		return DeleteResult{}, fmt.Errorf("delete image: path required: %w", ErrInvalidArgument)
	}
	var out DeleteResult
	err := c.do(ctx, "delete image", http.MethodPost, "/images/delete", nil,
		deleteImageRequest{RelativePath: relativePath}, &out)
	return out, err
}

// ListPersons returns all persons, newest first.
func (c *Client) ListPersons(ctx context.Context) (PersonList, error) {
	var out PersonList
	err := c.do(ctx, "list persons", http.MethodGet, "/persons", nil, nil, &out)
	return out, err
}

// CreatePerson creates an empty person.
func (c *Client) CreatePerson(ctx context.Context, label string) (Person, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return Person{}, fmt.Errorf("create person: label required: %w", ErrInvalidArgument)
	}
	var out Person
	err := c.do(ctx, "create person", http.MethodPost, "/persons", nil, labelRequest{Label: label}, &out)
	return out, err
}

// RenamePerson changes a person's label.
func (c *Client) RenamePerson(ctx context.Context, id, label string) (Person, error) {
	id = strings.TrimSpace(id)
	label = strings.TrimSpace(label)
	if id == "" || label == "" {
		return Person{}, fmt.Errorf("rename person: id and label required: %w", ErrInvalidArgument)
	}
	var out Person
	err := c.do(ctx, "rename person", http.MethodPatch, personPath(id), nil, labelRequest{Label: label}, &out)
	return out, err
}

// DeletePerson deletes a person; its faces become unassigned.
func (c *Client) DeletePerson(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("delete person: id required: %w", ErrInvalidArgument)
	}
	return c.do(ctx, "delete person", http.MethodDelete, personPath(id), nil, nil, nil)
}

// AssignFaces attaches faces to a person.
func (c *Client) AssignFaces(ctx context.Context, personID string, faceIDs []string) (AssignResult, error) {
	return c.faceAssignment(ctx, "assign faces", "assign", personID, faceIDs)
}

// UnassignFaces detaches faces from a person.
func (c *Client) UnassignFaces(ctx context.Context, personID string, faceIDs []string) (AssignResult, error) {
	return c.faceAssignment(ctx, "unassign faces", "unassign", personID, faceIDs)
}

func (c *Client) faceAssignment(ctx context.Context, op, verb, personID string, faceIDs []string) (AssignResult, error) {
	personID = strings.TrimSpace(personID)
	ids := compactIDs(faceIDs)
	if personID == "" || len(ids) == 0 {
		return AssignResult{}, fmt.Errorf("%s: person id and face ids required: %w", op, ErrInvalidArgument)
	}
	var out AssignResult
	err := c.do(ctx, op, http.MethodPost, personPath(personID)+"/"+verb, nil, faceIDsRequest{FaceIDs: ids}, &out)
	return out, err
}

// MergePersons moves every face of the source persons into target and
// deletes the sources.
func (c *Client) MergePersons(ctx context.Context, targetID string, sourceIDs []string) (Person, error) {
	targetID = strings.TrimSpace(targetID)
	ids := compactIDs(sourceIDs)
	filtered := ids[:0]
	for _, id := range ids {
		if id != targetID {
			filtered = append(filtered, id)
		}
	}
	if targetID == "" || len(filtered) == 0 {
		return Person{}, fmt.Errorf("merge persons: target and at least one other source required: %w", ErrInvalidArgument)
	}
	var out Person
	err := c.do(ctx, "merge persons", http.MethodPost, personPath(targetID)+"/merge", nil,
		mergeRequest{SourcePersonIDs: filtered}, &out)
	return out, err
}

// ListFaces lists faces matching q.
func (c *Client) ListFaces(ctx context.Context, q FaceQuery) (FaceList, error) {
	values := url.Values{}
	if id := strings.TrimSpace(q.PersonID); id != "" {
		values.Set("person_id", id)
	}
	if q.Status != "" {
		switch q.Status {
		case FaceStatusAny, FaceStatusAssigned, FaceStatusUnassigned:
		default:
			return FaceList{}, fmt.Errorf("list faces: status %q: %w", q.Status, ErrInvalidArgument)
		}
		values.Set("status", string(q.Status))
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		values.Set("offset", strconv.Itoa(q.Offset))
	}
	var out FaceList
	err := c.do(ctx, "list faces", http.MethodGet, "/faces", values, nil, &out)
	return out, err
}

// Clusters asks the backend to cluster faces.
func (c *Client) Clusters(ctx context.Context, q ClusterQuery) (ClusterList, error) {
	values := url.Values{}
	if q.Threshold != nil {
		if *q.Threshold < 0 || *q.Threshold > 1 {
			return ClusterList{}, fmt.Errorf("clusters: threshold %v outside [0,1]: %w", *q.Threshold, ErrInvalidArgument)
		}
		values.Set("threshold", strconv.FormatFloat(*q.Threshold, 'f', -1, 64))
	}
	if q.MinClusterSize != nil {
		if *q.MinClusterSize < 1 {
			return ClusterList{}, fmt.Errorf("clusters: min cluster size %d: %w", *q.MinClusterSize, ErrInvalidArgument)
		}
		values.Set("min_cluster_size", strconv.Itoa(*q.MinClusterSize))
	}
	if q.UnassignedOnly != nil {
		values.Set("unassigned_only", strconv.FormatBool(*q.UnassignedOnly))
	}
	var out ClusterList
	err := c.do(ctx, "cluster faces", http.MethodGet, "/faces/clusters", values, nil, &out)
	return out, err
}

// Storage returns library size statistics.
func (c *Client) Storage(ctx context.Context) (StorageStats, error) {
	var out StorageStats
	err := c.do(ctx, "storage", http.MethodGet, "/storage", nil, nil, &out)
	return out, err
}

// ScanStatus returns face-scan progress.
func (c *Client) ScanStatus(ctx context.Context) (ScanStatus, error) {
	var out ScanStatus
	err := c.do(ctx, "scan status", http.MethodGet, "/scan/status", nil, nil, &out)
	return out, err
}

// ControlScan starts or stops the face scan.
func (c *Client) ControlScan(ctx context.Context, action ScanAction) (ControlResult, error) {
	switch action {
	case ScanStart, ScanStop:
	default:
		return ControlResult{}, fmt.Errorf("scan control: action %q: %w", action, ErrInvalidArgument)
	}
	var out ControlResult
	err := c.do(ctx, "scan control", http.MethodPost, "/scan/control", nil, scanControlRequest{Action: action}, &out)
	return out, err
}

// SyncStatus returns the media sync state.
func (c *Client) SyncStatus(ctx context.Context) (SyncStatus, error) {
	var out SyncStatus
	err := c.do(ctx, "sync status", http.MethodGet, "/scan/sync-status", nil, nil, &out)
	return out, err
}

// SyncMedia starts a background media directory sync.
func (c *Client) SyncMedia(ctx context.Context) (ControlResult, error) {
	var out ControlResult
	err := c.do(ctx, "sync media", http.MethodPost, "/scan/sync-media", nil, nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out interface{}) error {
	endpoint := c.endpoint(path, query)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	requestID := uuid.New().String()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Str("op", op).Str("request_id", requestID).Err(err).Msg("request failed")
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("op", op).
		Str("method", method).
		Str("url", logging.RedactURL(endpoint)).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Str("request_id", requestID).
		Msg("request")

	if ClassOf(resp.StatusCode) != Status2xx {
		apiErr := &APIError{
			Op:        op,
			Method:    method,
			Path:      path,
			Status:    resp.StatusCode,
			RequestID: requestID,
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var envelope errorBody
		if json.Unmarshal(raw, &envelope) == nil {
			apiErr.Detail = envelope.message()
		} else if text := strings.TrimSpace(string(raw)); text != "" {
			apiErr.Detail = text
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.base
	rawPath := strings.TrimRight(c.base.EscapedPath(), "/") + path
	if unescaped, err := url.PathUnescape(rawPath); err == nil {
		u.Path = unescaped
		u.RawPath = rawPath
	} else {
		u.Path = rawPath
		u.RawPath = ""
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func personPath(id string) string {
	return "/persons/" + url.PathEscape(id)
}

func compactIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
