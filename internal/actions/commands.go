// Package actions turns user actions into typed commands executed against
// the backend and the local state owners.
package actions

import (
	"github.com/tOgg1/galleria/internal/api"
)

// Command is a user action. Name is stable and used in errors and logs.
type Command interface {
	Name() string
}

// RenameImage renames the file behind an image.
type RenameImage struct {
	ID           string
	RelativePath string
	NewName      string
}

// DeleteImage soft-deletes an image into the backend's trash.
type DeleteImage struct {
	ID           string
	RelativePath string
}

// ToggleFavorite flips favorite membership of an image.
type ToggleFavorite struct {
	ID string
}

// CreatePerson creates an empty person.
type CreatePerson struct {
	Label string
}

// RenamePerson changes a person's label.
type RenamePerson struct {
	ID    string
	Label string
}

// DeletePerson deletes a person; its faces become unassigned.
type DeletePerson struct {
	ID string
}

// AssignFaces attaches faces to a person.
type AssignFaces struct {
	PersonID string
	FaceIDs  []string
}

// UnassignFaces detaches faces from a person.
type UnassignFaces struct {
	PersonID string
	FaceIDs  []string
}

// MergePersons folds the source persons into the target.
type MergePersons struct {
	TargetID  string
	SourceIDs []string
}

// ControlScan starts or stops the face scan.
type ControlScan struct {
	Action api.ScanAction
}

// SyncMedia starts a media directory sync.
type SyncMedia struct{}

func (RenameImage) Name() string    { return "rename image" }
func (DeleteImage) Name() string    { return "delete image" }
func (ToggleFavorite) Name() string { return "toggle favorite" }
func (CreatePerson) Name() string   { return "create person" }
func (RenamePerson) Name() string   { return "rename person" }
func (DeletePerson) Name() string   { return "delete person" }
func (AssignFaces) Name() string    { return "assign faces" }
func (UnassignFaces) Name() string  { return "unassign faces" }
func (MergePersons) Name() string   { return "merge persons" }
func (ControlScan) Name() string    { return "scan control" }
func (SyncMedia) Name() string      { return "sync media" }
