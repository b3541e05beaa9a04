package api

// Image is the metadata record for one library image. ID is stable across
// renames; RelativePath tracks the current on-disk location.
type Image struct {
	ID           string    `json:"id" yaml:"id"`
	Name         string    `json:"name" yaml:"name"`
	RelativePath string    `json:"relative_path" yaml:"relative_path"`
	URL          string    `json:"url" yaml:"url"`
	SizeBytes    int64     `json:"size_bytes" yaml:"size_bytes"`
	ModifiedAt   Timestamp `json:"modified_at" yaml:"modified_at"`
}

// ImagePage is one page of GET /images.
type ImagePage struct {
	Items    []Image `json:"items" yaml:"items"`
	Page     int     `json:"page" yaml:"page"`
	PageSize int     `json:"page_size" yaml:"page_size"`
	Total    int     `json:"total" yaml:"total"`
}

type renameImageRequest struct {
	RelativePath string `json:"relative_path" yaml:"relative_path"`
	NewName      string `json:"new_name" yaml:"new_name"`
}

type deleteImageRequest struct {
	RelativePath string `json:"relative_path" yaml:"relative_path"`
}

// DeleteResult reports where a soft-deleted image was moved.
type DeleteResult struct {
	OriginalPath string `json:"original_path" yaml:"original_path"`
	TrashedPath  string `json:"trashed_path" yaml:"trashed_path"`
}

// Person is a named group of faces.
type Person struct {
	ID            string  `json:"id" yaml:"id"`
	Label         string  `json:"label" yaml:"label"`
	FaceCount     int     `json:"face_count" yaml:"face_count"`
	CoverFaceID   *string `json:"cover_face_id,omitempty" yaml:"cover_face_id,omitempty"`
	CoverImageURL *string `json:"cover_image_url,omitempty" yaml:"cover_image_url,omitempty"`
}

// PersonList is the GET /persons response.
type PersonList struct {
	Total int      `json:"total" yaml:"total"`
	Items []Person `json:"items" yaml:"items"`
}

type labelRequest struct {
	Label string `json:"label" yaml:"label"`
}

type faceIDsRequest struct {
	FaceIDs []string `json:"face_ids" yaml:"face_ids"`
}

type mergeRequest struct {
	SourcePersonIDs []string `json:"source_person_ids" yaml:"source_person_ids"`
}

// AssignResult is returned by assign and unassign.
type AssignResult struct {
	Count int `json:"count" yaml:"count"`
}

// BoundingBox locates a face inside its image, in relative units.
type BoundingBox struct {
	Top    float64 `json:"top" yaml:"top"`
	Left   float64 `json:"left" yaml:"left"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Face is one detected face.
type Face struct {
	ID           string      `json:"id" yaml:"id"`
	ImageID      string      `json:"image_id" yaml:"image_id"`
	RelativePath string      `json:"relative_path" yaml:"relative_path"`
	ImageURL     string      `json:"image_url" yaml:"image_url"`
	BBox         BoundingBox `json:"bbox" yaml:"bbox"`
	Confidence   float64     `json:"confidence" yaml:"confidence"`
	PersonID     *string     `json:"person_id,omitempty" yaml:"person_id,omitempty"`
}

// FaceList is the GET /faces response.
type FaceList struct {
	Total  int    `json:"total" yaml:"total"`
	Limit  int    `json:"limit" yaml:"limit"`
	Offset int    `json:"offset" yaml:"offset"`
	Items  []Face `json:"items" yaml:"items"`
}

// FaceStatus filters faces by assignment.
type FaceStatus string

const (
	FaceStatusAny        FaceStatus = "any"
	FaceStatusUnassigned FaceStatus = "unassigned"
	FaceStatusAssigned   FaceStatus = "assigned"
)

// FaceQuery holds the GET /faces filters. Zero values are omitted.
type FaceQuery struct {
	PersonID string
	Status   FaceStatus
	Limit    int
	Offset   int
}

// ClusterQuery holds the GET /faces/clusters parameters. Nil pointers are
// left to the backend defaults (threshold 0.6, min size 1, unassigned only).
type ClusterQuery struct {
	Threshold      *float64
	MinClusterSize *int
	UnassignedOnly *bool
}

// FaceCluster is a group of faces judged similar by the backend.
type FaceCluster struct {
	ClusterID            int      `json:"cluster_id" yaml:"cluster_id"`
	FaceIDs              []string `json:"face_ids" yaml:"face_ids"`
	RepresentativeFaceID string   `json:"representative_face_id" yaml:"representative_face_id"`
	Faces                []Face   `json:"faces" yaml:"faces"`
}

// ClusterList is the GET /faces/clusters response.
type ClusterList struct {
	TotalClusters int           `json:"total_clusters" yaml:"total_clusters"`
	Clusters      []FaceCluster `json:"clusters" yaml:"clusters"`
}

// StorageStats is the GET /storage response.
type StorageStats struct {
	TotalBytes int64   `json:"total_bytes" yaml:"total_bytes"`
	TotalGB    float64 `json:"total_gb" yaml:"total_gb"`
	ImageCount int     `json:"image_count" yaml:"image_count"`
	MediaPath  string  `json:"media_path,omitempty" yaml:"media_path,omitempty"`
}

// ScanStatus is the face-scan progress report.
type ScanStatus struct {
	IsRunning       bool       `json:"is_running" yaml:"is_running"`
	TotalImages     int        `json:"total_images" yaml:"total_images"`
	ProcessedImages int        `json:"processed_images" yaml:"processed_images"`
	CurrentImage    *string    `json:"current_image,omitempty" yaml:"current_image,omitempty"`
	StartedAt       *Timestamp `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	ProgressPercent float64    `json:"progress_percent" yaml:"progress_percent"`
	IsSyncing       bool       `json:"is_syncing" yaml:"is_syncing"`
}

// ScanAction is a POST /scan/control action.
type ScanAction string

const (
	ScanStart ScanAction = "start"
	ScanStop  ScanAction = "stop"
)

type scanControlRequest struct {
	Action ScanAction `json:"action" yaml:"action"`
}

// ControlResult acknowledges scan control and sync requests.
type ControlResult struct {
	Status  string `json:"status" yaml:"status"`
	Message string `json:"message" yaml:"message"`
}

// SyncReport summarizes a media directory sync.
type SyncReport struct {
	Scanned  int `json:"scanned" yaml:"scanned"`
	Inserted int `json:"inserted" yaml:"inserted"`
	Updated  int `json:"updated" yaml:"updated"`
	Removed  int `json:"removed" yaml:"removed"`
}

// SyncStatus is the GET /scan/sync-status response.
type SyncStatus struct {
	IsRunning  bool        `json:"is_running" yaml:"is_running"`
	LastReport *SyncReport `json:"last_report,omitempty" yaml:"last_report,omitempty"`
}
