package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tOgg1/galleria/internal/api"
	"github.com/tOgg1/galleria/internal/api/apitest"
)

func strPtr(s string) *string { return &s }

func TestNewRejectsBadBaseURL(t *testing.T) {
	_, err := api.New(api.Config{})
	require.ErrorIs(t, err, api.ErrInvalidArgument)

	_, err = api.New(api.Config{BaseURL: "ftp://example.com/api"})
	require.ErrorIs(t, err, api.ErrInvalidArgument)
}

func TestOriginDropsAPIPrefix(t *testing.T) {
	client, err := api.New(api.Config{BaseURL: "http://photos.local:8000/api/"})
	require.NoError(t, err)
	require.Equal(t, "http://photos.local:8000/api", client.BaseURL())
	require.Equal(t, "http://photos.local:8000", client.Origin())
}

func TestListImagesSendsPagingAndHeaders(t *testing.T) {
	backend := apitest.NewBackend(t)
	backend.SeedImages(75, time.Date(2025, 3, 1, 12, 0, 0, 0, time.Local))

	client, err := api.New(api.Config{BaseURL: backend.URL(), Token: "s3cret-token", UserAgent: "galleria-test"})
	require.NoError(t, err)

	page, err := client.ListImages(context.Background(), 2, 30)
	require.NoError(t, err)
	require.Equal(t, 75, page.Total)
	require.Len(t, page.Items, 30)
	require.Equal(t, "img_30", page.Items[0].ID)
	require.Equal(t, []apitest.PageRequest{{Page: 2, PageSize: 30}}, backend.PageRequests())

	req := backend.LastRequest()
	require.Equal(t, "Bearer s3cret-token", req.Header.Get("Authorization"))
	require.Equal(t, "galleria-test", req.Header.Get("User-Agent"))
	_, err = uuid.Parse(req.Header.Get("X-Request-ID"))
	require.NoError(t, err)
}

func TestListImagesValidatesArguments(t *testing.T) {
	backend := apitest.NewBackend(t)
	client := backend.Client(t)

	_, err := client.ListImages(context.Background(), 0, 30)
	require.ErrorIs(t, err, api.ErrInvalidArgument)
	_, err = client.ListImages(context.Background(), 1, 0)
	require.ErrorIs(t, err, api.ErrInvalidArgument)
	require.Empty(t, backend.PageRequests())
}

func TestErrorDetailIsDecoded(t *testing.T) {
	backend := apitest.NewBackend(t)
	backend.SeedImages(3, time.Now())
	backend.FailPage(1, http.StatusServiceUnavailable)
	client := backend.Client(t)

	_, err := client.ListImages(context.Background(), 1, 30)
	var apiErr *api.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
	require.Equal(t, "page 1 unavailable", apiErr.Detail)
	require.Equal(t, api.Status5xx, apiErr.Class())
	require.NotEmpty(t, apiErr.RequestID)
	require.Contains(t, err.Error(), "list images: GET /images: 503")
}

func TestValidationDetailListUsesFirstMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":[{"loc":["query","page"],"msg":"Input should be greater than or equal to 1"}]}`))
	}))
	t.Cleanup(srv.Close)

	client, err := api.New(api.Config{BaseURL: srv.URL + "/api"})
	require.NoError(t, err)
	_, err = client.Storage(context.Background())
	var apiErr *api.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, "Input should be greater than or equal to 1", apiErr.Detail)
}

func TestPlainTextErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream timeout", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	client, err := api.New(api.Config{BaseURL: srv.URL + "/api"})
	require.NoError(t, err)
	err = client.Health(context.Background())
	var apiErr *api.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, "upstream timeout", apiErr.Detail)
}

func TestRenameAndDeleteImage(t *testing.T) {
	backend := apitest.NewBackend(t)
	backend.SeedImages(2, time.Now())
	client := backend.Client(t)
	ctx := context.Background()

	img, err := client.RenameImage(ctx, "album/img_0000.jpg", "beach")
	require.NoError(t, err)
	require.Equal(t, "img_0", img.ID)
	require.Equal(t, "album/beach.jpg", img.RelativePath)

	_, err = client.RenameImage(ctx, "album/img_0001.jpg", "beach.jpg")
	require.True(t, api.IsConflict(err))

	_, err = client.RenameImage(ctx, "album/missing.jpg", "x")
	require.True(t, api.IsNotFound(err))

	_, err = client.RenameImage(ctx, " ", "x")
	require.ErrorIs(t, err, api.ErrInvalidArgument)

	res, err := client.DeleteImage(ctx, "album/beach.jpg")
	require.NoError(t, err)
	require.Equal(t, "album/beach.jpg", res.OriginalPath)
	require.Len(t, backend.Images(), 1)
}

func TestPersonLifecycle(t *testing.T) {
	backend := apitest.NewBackend(t)
	backend.SetFaces([]api.Face{
		{ID: "f1", ImageID: "img_1", RelativePath: "a/1.jpg"},
		{ID: "f2", ImageID: "img_2", RelativePath: "a/2.jpg"},
		{ID: "f3", ImageID: "img_3", RelativePath: "b/3.jpg"},
	})
	client := backend.Client(t)
	ctx := context.Background()

	alice, err := client.CreatePerson(ctx, "Alice")
	require.NoError(t, err)
	bob, err := client.CreatePerson(ctx, "Bob")
	require.NoError(t, err)

	res, err := client.AssignFaces(ctx, alice.ID, []string{"f1", " f1 ", "f2"})
	require.NoError(t, err)
	require.Equal(t, 2, res.Count)

	_, err = client.AssignFaces(ctx, bob.ID, []string{"f3"})
	require.NoError(t, err)

	renamed, err := client.RenamePerson(ctx, bob.ID, "Robert")
	require.NoError(t, err)
	require.Equal(t, "Robert", renamed.Label)
	require.Equal(t, 1, renamed.FaceCount)

	merged, err := client.MergePersons(ctx, alice.ID, []string{bob.ID, alice.ID})
	require.NoError(t, err)
	require.Equal(t, 3, merged.FaceCount)

	list, err := client.ListPersons(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, list.Total)

	faces, err := client.ListFaces(ctx, api.FaceQuery{PersonID: alice.ID, Status: api.FaceStatusAssigned})
	require.NoError(t, err)
	require.Equal(t, 3, faces.Total)

	_, err = client.UnassignFaces(ctx, alice.ID, []string{"f3"})
	require.NoError(t, err)
	faces, err = client.ListFaces(ctx, api.FaceQuery{Status: api.FaceStatusUnassigned})
	require.NoError(t, err)
	require.Equal(t, 1, faces.Total)

	require.NoError(t, client.DeletePerson(ctx, alice.ID))
	err = client.DeletePerson(ctx, alice.ID)
	require.True(t, api.IsNotFound(err))
}

func TestMergeRequiresDistinctSource(t *testing.T) {
	backend := apitest.NewBackend(t)
	client := backend.Client(t)

	_, err := client.MergePersons(context.Background(), "p1", []string{"p1", ""})
	require.ErrorIs(t, err, api.ErrInvalidArgument)
	require.Nil(t, backend.LastRequest())
}

func TestPersonIDIsPathEscaped(t *testing.T) {
	backend := apitest.NewBackend(t)
	backend.SetPersons([]api.Person{{ID: "a/b", Label: "Slash"}})
	client := backend.Client(t)

	_, err := client.RenamePerson(context.Background(), "a/b", "Renamed")
	require.NoError(t, err)
	require.Equal(t, "/api/persons/a%2Fb", backend.LastRequest().URL.EscapedPath())
}

func TestClustersValidatesAndSendsQuery(t *testing.T) {
	backend := apitest.NewBackend(t)
	backend.SetFaces([]api.Face{
		{ID: "f1", RelativePath: "trip/1.jpg"},
		{ID: "f2", RelativePath: "trip/2.jpg"},
		{ID: "f3", RelativePath: "home/3.jpg"},
	})
	client := backend.Client(t)
	ctx := context.Background()

	bad := 1.5
	_, err := client.Clusters(ctx, api.ClusterQuery{Threshold: &bad})
	require.ErrorIs(t, err, api.ErrInvalidArgument)

	threshold := 0.45
	minSize := 2
	list, err := client.Clusters(ctx, api.ClusterQuery{Threshold: &threshold, MinClusterSize: &minSize})
	require.NoError(t, err)
	require.Equal(t, 1, list.TotalClusters)
	require.Equal(t, []string{"f1", "f2"}, list.Clusters[0].FaceIDs)

	q := backend.LastRequest().URL.Query()
	require.Equal(t, "0.45", q.Get("threshold"))
	require.Equal(t, "2", q.Get("min_cluster_size"))
	require.Empty(t, q.Get("unassigned_only"))
}

func TestListFacesRejectsUnknownStatus(t *testing.T) {
	client := apitest.NewBackend(t).Client(t)
	_, err := client.ListFaces(context.Background(), api.FaceQuery{Status: "maybe"})
	require.ErrorIs(t, err, api.ErrInvalidArgument)
}

func TestScanControlAndSync(t *testing.T) {
	backend := apitest.NewBackend(t)
	backend.SeedImages(4, time.Now())
	client := backend.Client(t)
	ctx := context.Background()

	_, err := client.ControlScan(ctx, "pause")
	require.ErrorIs(t, err, api.ErrInvalidArgument)

	res, err := client.ControlScan(ctx, api.ScanStart)
	require.NoError(t, err)
	require.Equal(t, "started", res.Status)

	_, err = client.ControlScan(ctx, api.ScanStart)
	require.True(t, api.IsBadRequest(err))

	status, err := client.ScanStatus(ctx)
	require.NoError(t, err)
	require.True(t, status.IsRunning)
	require.Equal(t, 4, status.TotalImages)

	_, err = client.SyncMedia(ctx)
	require.NoError(t, err)
	sync, err := client.SyncStatus(ctx)
	require.NoError(t, err)
	require.True(t, sync.IsRunning)
	require.NotNil(t, sync.LastReport)
	require.Equal(t, 4, sync.LastReport.Scanned)

	stats, err := client.Storage(ctx)
	require.NoError(t, err)
	require.Equal(t, 4, stats.ImageCount)
}

func TestContextCancellationAbortsRequest(t *testing.T) {
	backend := apitest.NewBackend(t)
	backend.SeedImages(3, time.Now())
	release := backend.HoldPage(1)
	t.Cleanup(release)
	client := backend.Client(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := client.ListImages(ctx, 1, 30)
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPersonCoverFieldsAreOptional(t *testing.T) {
	backend := apitest.NewBackend(t)
	backend.SetPersons([]api.Person{{ID: "p1", Label: "A", CoverImageURL: strPtr("/media/a.jpg")}})
	list, err := backend.Client(t).ListPersons(context.Background())
	require.NoError(t, err)
	require.Equal(t, "/media/a.jpg", *list.Items[0].CoverImageURL)
	require.Nil(t, list.Items[0].CoverFaceID)
}
