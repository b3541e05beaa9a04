// Package apitest provides an in-memory gallery backend for tests.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/tOgg1/galleria/internal/api"
	"github.com/tOgg1/galleria/internal/testutil"
)

// PageRequest records one GET /images call.
type PageRequest struct {
	Page     int
	PageSize int
}

// Backend is a fake gallery backend mounted under /api.
type Backend struct {
	Server *httptest.Server

	mu        sync.Mutex
	images    []api.Image
	persons   []api.Person
	faces     []api.Face
	scan      api.ScanStatus
	syncState api.SyncStatus
	pages     []PageRequest
	requests  []*http.Request
	failPages map[int]int
	holdPages map[int]chan struct{}
	// TotalOverride, when positive, is reported instead of len(images).
	TotalOverride int
}

// NewBackend starts a fake backend; it is closed with the test.
func NewBackend(t testing.TB) *Backend {
	t.Helper()
	testutil.SkipIfNoNetwork(t)
	b := &Backend{
		failPages: make(map[int]int),
		holdPages: make(map[int]chan struct{}),
	}
	b.Server = httptest.NewServer(b.router())
	t.Cleanup(b.Server.Close)
	return b
}

// URL returns the API root (with the /api prefix).
func (b *Backend) URL() string {
	return b.Server.URL + "/api"
}

// Client builds an api.Client pointed at the backend.
func (b *Backend) Client(t testing.TB) *api.Client {
	t.Helper()
	client, err := api.New(api.Config{BaseURL: b.URL(), Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("api client: %v", err)
	}
	return client
}

// SeedImages replaces the library with n generated images, one per hour
// going back from base.
func (b *Backend) SeedImages(n int, base time.Time) []api.Image {
	images := make([]api.Image, 0, n)
	for i := 0; i < n; i++ {
		rel := fmt.Sprintf("album/img_%04d.jpg", i)
		images = append(images, api.Image{
			ID:           fmt.Sprintf("img_%d", i),
			Name:         path.Base(rel),
			RelativePath: rel,
			URL:          "/media/" + rel,
			SizeBytes:    int64(1000 + i),
			ModifiedAt:   api.NewTimestamp(base.Add(-time.Duration(i) * time.Hour)),
		})
	}
	b.SetImages(images)
	return images
}

// SetImages replaces the library.
func (b *Backend) SetImages(images []api.Image) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.images = append([]api.Image(nil), images...)
}

// Images returns a copy of the library.
func (b *Backend) Images() []api.Image {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]api.Image(nil), b.images...)
}

// SetPersons replaces the persons table.
func (b *Backend) SetPersons(persons []api.Person) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.persons = append([]api.Person(nil), persons...)
}

// Persons returns a copy of the persons table.
func (b *Backend) Persons() []api.Person {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]api.Person(nil), b.persons...)
}

// SetFaces replaces the faces table.
func (b *Backend) SetFaces(faces []api.Face) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.faces = append([]api.Face(nil), faces...)
}

// Faces returns a copy of the faces table.
func (b *Backend) Faces() []api.Face {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]api.Face(nil), b.faces...)
}

// FailPage makes GET /images?page=n answer with status.
func (b *Backend) FailPage(page, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failPages[page] = status
}

// HoldPage blocks GET /images?page=n until the returned func is called.
func (b *Backend) HoldPage(page int) (release func()) {
	ch := make(chan struct{})
	b.mu.Lock()
	b.holdPages[page] = ch
	b.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

// PageRequests returns the GET /images calls in arrival order.
func (b *Backend) PageRequests() []PageRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]PageRequest(nil), b.pages...)
}

// LastRequest returns the most recent request.
func (b *Backend) LastRequest() *http.Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.requests) == 0 {
		return nil
	}
	return b.requests[len(b.requests)-1]
}

func (b *Backend) router() http.Handler {
	r := mux.NewRouter().UseEncodedPath()
	r.Use(b.record)
	s := r.PathPrefix("/api").Subrouter()
	s.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	s.HandleFunc("/images", b.listImages).Methods(http.MethodGet)
	s.HandleFunc("/images/rename", b.renameImage).Methods(http.MethodPost)
	s.HandleFunc("/images/delete", b.deleteImage).Methods(http.MethodPost)
	s.HandleFunc("/persons", b.listPersons).Methods(http.MethodGet)
	s.HandleFunc("/persons", b.createPerson).Methods(http.MethodPost)
	s.HandleFunc("/persons/{id}", b.renamePerson).Methods(http.MethodPatch)
	s.HandleFunc("/persons/{id}", b.deletePerson).Methods(http.MethodDelete)
	s.HandleFunc("/persons/{id}/assign", b.assign(true)).Methods(http.MethodPost)
	s.HandleFunc("/persons/{id}/unassign", b.assign(false)).Methods(http.MethodPost)
	s.HandleFunc("/persons/{id}/merge", b.merge).Methods(http.MethodPost)
	s.HandleFunc("/faces/clusters", b.clusters).Methods(http.MethodGet)
	s.HandleFunc("/faces", b.listFaces).Methods(http.MethodGet)
	s.HandleFunc("/storage", b.storage).Methods(http.MethodGet)
	s.HandleFunc("/scan/status", b.scanStatus).Methods(http.MethodGet)
	s.HandleFunc("/scan/control", b.scanControl).Methods(http.MethodPost)
	s.HandleFunc("/scan/sync-status", b.syncStatus).Methods(http.MethodGet)
	s.HandleFunc("/scan/sync-media", b.syncMedia).Methods(http.MethodPost)
	return r
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.requests = append(b.requests, r.Clone(r.Context()))
		b.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) listImages(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 60
	}
	if pageSize > 240 {
		writeDetail(w, http.StatusUnprocessableEntity, "page_size must be <= 240")
		return
	}

	b.mu.Lock()
	b.pages = append(b.pages, PageRequest{Page: page, PageSize: pageSize})
	hold := b.holdPages[page]
	status := b.failPages[page]
	b.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-r.Context().Done():
			return
		}
	}
	if status != 0 {
		writeDetail(w, status, fmt.Sprintf("page %d unavailable", page))
		return
	}

	b.mu.Lock()
	total := len(b.images)
	if b.TotalOverride > 0 {
		total = b.TotalOverride
	}
	start := (page - 1) * pageSize
	items := []api.Image{}
	if start < len(b.images) {
		end := start + pageSize
		if end > len(b.images) {
			end = len(b.images)
		}
		items = append(items, b.images[start:end]...)
	}
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, api.ImagePage{Items: items, Page: page, PageSize: pageSize, Total: total})
}

func (b *Backend) renameImage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RelativePath string `json:"relative_path"`
		NewName      string `json:"new_name"`
	}
	if !decode(w, r, &req) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	idx := b.indexOfPath(req.RelativePath)
	if idx < 0 {
		writeDetail(w, http.StatusNotFound, "Image not found: "+req.RelativePath)
		return
	}
	name := req.NewName
	if path.Ext(name) == "" {
		name += path.Ext(b.images[idx].Name)
	}
	dir := path.Dir(req.RelativePath)
	rel := name
	if dir != "." {
		rel = dir + "/" + name
	}
	if b.indexOfPath(rel) >= 0 {
		writeDetail(w, http.StatusConflict, "Target already exists: "+rel)
		return
	}
	img := b.images[idx]
	img.Name = name
	img.RelativePath = rel
	img.URL = "/media/" + rel
	b.images[idx] = img
	writeJSON(w, http.StatusOK, img)
}

func (b *Backend) deleteImage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RelativePath string `json:"relative_path"`
	}
	if !decode(w, r, &req) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	idx := b.indexOfPath(req.RelativePath)
	if idx < 0 {
		writeDetail(w, http.StatusNotFound, "Image not found: "+req.RelativePath)
		return
	}
	b.images = append(b.images[:idx], b.images[idx+1:]...)
	writeJSON(w, http.StatusOK, api.DeleteResult{
		OriginalPath: req.RelativePath,
		TrashedPath:  ".trash/" + req.RelativePath,
	})
}

func (b *Backend) indexOfPath(rel string) int {
	for i, img := range b.images {
		if img.RelativePath == rel {
			return i
		}
	}
	return -1
}

func (b *Backend) listPersons(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	items := make([]api.Person, 0, len(b.persons))
	for _, p := range b.persons {
		p.FaceCount = b.faceCountLocked(p.ID)
		items = append(items, p)
	}
	writeJSON(w, http.StatusOK, api.PersonList{Total: len(items), Items: items})
}

func (b *Backend) faceCountLocked(personID string) int {
	n := 0
	for _, f := range b.faces {
		if f.PersonID != nil && *f.PersonID == personID {
			n++
		}
	}
	return n
}

func (b *Backend) createPerson(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Label string `json:"label"`
	}
	if !decode(w, r, &req) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	p := api.Person{ID: fmt.Sprintf("person-%d", len(b.persons)+1), Label: req.Label}
	b.persons = append([]api.Person{p}, b.persons...)
	writeJSON(w, http.StatusCreated, p)
}

func (b *Backend) personIndexLocked(id string) int {
	for i, p := range b.persons {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (b *Backend) renamePerson(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Label string `json:"label"`
	}
	if !decode(w, r, &req) {
		return
	}
	id := personVar(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	idx := b.personIndexLocked(id)
	if idx < 0 {
		writeDetail(w, http.StatusNotFound, "Person not found")
		return
	}
	b.persons[idx].Label = req.Label
	p := b.persons[idx]
	p.FaceCount = b.faceCountLocked(id)
	writeJSON(w, http.StatusOK, p)
}

func (b *Backend) deletePerson(w http.ResponseWriter, r *http.Request) {
	id := personVar(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	idx := b.personIndexLocked(id)
	if idx < 0 {
		writeDetail(w, http.StatusNotFound, "Person not found")
		return
	}
	for i := range b.faces {
		if b.faces[i].PersonID != nil && *b.faces[i].PersonID == id {
			b.faces[i].PersonID = nil
		}
	}
	b.persons = append(b.persons[:idx], b.persons[idx+1:]...)
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) assign(attach bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			FaceIDs []string `json:"face_ids"`
		}
		if !decode(w, r, &req) {
			return
		}
		id := personVar(r)
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.personIndexLocked(id) < 0 {
			writeDetail(w, http.StatusNotFound, "Person not found")
			return
		}
		if len(req.FaceIDs) == 0 {
			writeDetail(w, http.StatusBadRequest, "No face_ids provided")
			return
		}
		wanted := make(map[string]struct{}, len(req.FaceIDs))
		for _, fid := range req.FaceIDs {
			wanted[fid] = struct{}{}
		}
		for i := range b.faces {
			if _, ok := wanted[b.faces[i].ID]; !ok {
				continue
			}
			if attach {
				pid := id
				b.faces[i].PersonID = &pid
			} else if b.faces[i].PersonID != nil && *b.faces[i].PersonID == id {
				b.faces[i].PersonID = nil
			}
		}
		writeJSON(w, http.StatusOK, api.AssignResult{Count: len(req.FaceIDs)})
	}
}

func (b *Backend) merge(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SourcePersonIDs []string `json:"source_person_ids"`
	}
	if !decode(w, r, &req) {
		return
	}
	id := personVar(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.personIndexLocked(id) < 0 {
		writeDetail(w, http.StatusNotFound, "Target person not found")
		return
	}
	if len(req.SourcePersonIDs) == 0 {
		writeDetail(w, http.StatusBadRequest, "No source_person_ids provided")
		return
	}
	for _, src := range req.SourcePersonIDs {
		idx := b.personIndexLocked(src)
		if idx < 0 {
			continue
		}
		for i := range b.faces {
			if b.faces[i].PersonID != nil && *b.faces[i].PersonID == src {
				pid := id
				b.faces[i].PersonID = &pid
			}
		}
		b.persons = append(b.persons[:idx], b.persons[idx+1:]...)
	}
	target := b.persons[b.personIndexLocked(id)]
	target.FaceCount = b.faceCountLocked(id)
	writeJSON(w, http.StatusOK, target)
}

func (b *Backend) listFaces(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 {
		limit = 50
	}
	offset, _ := strconv.Atoi(q.Get("offset"))
	status := q.Get("status")
	personID := q.Get("person_id")

	b.mu.Lock()
	defer b.mu.Unlock()
	matched := make([]api.Face, 0, len(b.faces))
	for _, f := range b.faces {
		switch status {
		case "unassigned":
			if f.PersonID != nil {
				continue
			}
		case "assigned":
			if f.PersonID == nil {
				continue
			}
		}
		if personID != "" && (f.PersonID == nil || *f.PersonID != personID) {
			continue
		}
		matched = append(matched, f)
	}
	total := len(matched)
	if offset > len(matched) {
		offset = len(matched)
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	writeJSON(w, http.StatusOK, api.FaceList{Total: total, Limit: limit, Offset: offset, Items: matched[offset:end]})
}

// clusters groups unassigned faces by image directory; enough structure
// for client tests without embeddings.
func (b *Backend) clusters(w http.ResponseWriter, r *http.Request) {
	minSize, _ := strconv.Atoi(r.URL.Query().Get("min_cluster_size"))
	if minSize < 1 {
		minSize = 1
	}
	unassignedOnly := r.URL.Query().Get("unassigned_only") != "false"

	b.mu.Lock()
	defer b.mu.Unlock()
	groups := make(map[string][]api.Face)
	var keys []string
	for _, f := range b.faces {
		if unassignedOnly && f.PersonID != nil {
			continue
		}
		key := path.Dir(f.RelativePath)
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], f)
	}
	sort.Strings(keys)
	out := api.ClusterList{Clusters: []api.FaceCluster{}}
	for _, key := range keys {
		faces := groups[key]
		if len(faces) < minSize {
			continue
		}
		ids := make([]string, 0, len(faces))
		for _, f := range faces {
			ids = append(ids, f.ID)
		}
		out.Clusters = append(out.Clusters, api.FaceCluster{
			ClusterID:            len(out.Clusters),
			FaceIDs:              ids,
			RepresentativeFaceID: ids[0],
			Faces:                faces,
		})
	}
	out.TotalClusters = len(out.Clusters)
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) storage(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var total int64
	for _, img := range b.images {
		total += img.SizeBytes
	}
	writeJSON(w, http.StatusOK, api.StorageStats{
		TotalBytes: total,
		TotalGB:    float64(total) / (1 << 30),
		ImageCount: len(b.images),
		MediaPath:  "/srv/photos",
	})
}

func (b *Backend) scanStatus(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.scan)
}

func (b *Backend) scanControl(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action string `json:"action"`
	}
	if !decode(w, r, &req) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	switch req.Action {
	case "start":
		if b.scan.IsRunning {
			writeDetail(w, http.StatusBadRequest, "Scan is already running")
			return
		}
		b.scan.IsRunning = true
		b.scan.TotalImages = len(b.images)
		writeJSON(w, http.StatusOK, api.ControlResult{Status: "started", Message: "Face scanning started"})
	case "stop":
		if !b.scan.IsRunning {
			writeDetail(w, http.StatusBadRequest, "No scan is running")
			return
		}
		b.scan.IsRunning = false
		writeJSON(w, http.StatusOK, api.ControlResult{Status: "stopping", Message: "Face scanning will stop after current image"})
	default:
		writeDetail(w, http.StatusBadRequest, "Invalid action. Use 'start' or 'stop'")
	}
}

func (b *Backend) syncStatus(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.syncState)
}

func (b *Backend) syncMedia(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.syncState.IsRunning {
		writeDetail(w, http.StatusBadRequest, "Sync is already running")
		return
	}
	b.syncState.IsRunning = true
	b.syncState.LastReport = &api.SyncReport{Scanned: len(b.images)}
	writeJSON(w, http.StatusOK, api.ControlResult{Status: "started", Message: "Media sync started in background"})
}

func personVar(r *http.Request) string {
	raw := mux.Vars(r)["id"]
	if id, err := url.PathUnescape(raw); err == nil {
		return id
	}
	return raw
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body: "+strings.TrimSpace(err.Error()))
		return false
	}
	return true
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
