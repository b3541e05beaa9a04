package actions

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tOgg1/galleria/internal/api"
	"github.com/tOgg1/galleria/internal/events"
	"github.com/tOgg1/galleria/internal/favorites"
	"github.com/tOgg1/galleria/internal/logging"
)

// ErrUnknownCommand is wrapped when no handler exists for a command.
var ErrUnknownCommand = errors.New("unknown command")

// MutationError is a failed command. It is never retried.
type MutationError struct {
	Command string
	Err     error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Command, e.Err)
}

func (e *MutationError) Unwrap() error {
	return e.Err
}

// Message is the short text shown inline next to the triggering control.
func (e *MutationError) Message() string {
	var apiErr *api.APIError
	if errors.As(e.Err, &apiErr) && apiErr.Detail != "" {
		return fmt.Sprintf("%s failed: %s", e.Command, apiErr.Detail)
	}
	return e.Error()
}

// Result describes a successful command. Only the fields relevant to the
// command are set.
type Result struct {
	Command    string
	Message    string
	Image      *api.Image
	Deleted    *api.DeleteResult
	Favorites  favorites.Set
	IsFavorite bool
	Person     *api.Person
	Count      int
	Control    *api.ControlResult
}

// Backend is the subset of the API client that commands mutate.
type Backend interface {
	RenameImage(ctx context.Context, relativePath, newName string) (api.Image, error)
	DeleteImage(ctx context.Context, relativePath string) (api.DeleteResult, error)
	CreatePerson(ctx context.Context, label string) (api.Person, error)
	RenamePerson(ctx context.Context, id, label string) (api.Person, error)
	DeletePerson(ctx context.Context, id string) error
	AssignFaces(ctx context.Context, personID string, faceIDs []string) (api.AssignResult, error)
	UnassignFaces(ctx context.Context, personID string, faceIDs []string) (api.AssignResult, error)
	MergePersons(ctx context.Context, targetID string, sourceIDs []string) (api.Person, error)
	ControlScan(ctx context.Context, action api.ScanAction) (api.ControlResult, error)
	SyncMedia(ctx context.Context) (api.ControlResult, error)
}

// Gallery receives successful image mutations.
type Gallery interface {
	ApplyRename(oldPath string, img api.Image) bool
	Remove(id string) bool
}

// Favorites owns favorite membership.
type Favorites interface {
	Toggle(ctx context.Context, id string) favorites.Set
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithGallery applies image mutations to g.
func WithGallery(g Gallery) Option {
	return func(d *Dispatcher) { d.gallery = g }
}

// WithFavorites routes ToggleFavorite to f.
func WithFavorites(f Favorites) Option {
	return func(d *Dispatcher) { d.favorites = f }
}

// WithPublisher publishes an event for every executed command.
func WithPublisher(p events.Publisher) Option {
	return func(d *Dispatcher) { d.publisher = p }
}

// Dispatcher executes commands.
type Dispatcher struct {
	backend   Backend
	gallery   Gallery
	favorites Favorites
	publisher events.Publisher
	log       zerolog.Logger
}

// NewDispatcher returns a dispatcher over backend.
func NewDispatcher(backend Backend, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		backend: backend,
		log:     logging.Component("actions"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Execute runs cmd. Failures are returned as *MutationError.
func (d *Dispatcher) Execute(ctx context.Context, cmd Command) (Result, error) {
	if cmd == nil {
		return Result{}, &MutationError{Command: "nil", Err: ErrUnknownCommand}
	}
	res, ev, err := d.execute(ctx, cmd)
	if err != nil {
		mErr := &MutationError{Command: cmd.Name(), Err: err}
		d.log.Warn().Err(err).Str("command", cmd.Name()).Msg("command failed")
		d.publish(ctx, events.New(events.MutationFailed, "", "", mErr.Message()).With("command", cmd.Name()))
		return Result{}, mErr
	}
	res.Command = cmd.Name()
	d.log.Debug().Str("command", cmd.Name()).Str("result", res.Message).Msg("command executed")
	d.publish(ctx, ev)
	return res, nil
}

func (d *Dispatcher) publish(ctx context.Context, ev *events.Event) {
	if d.publisher != nil && ev != nil {
		d.publisher.Publish(ctx, ev)
	}
}

func (d *Dispatcher) execute(ctx context.Context, cmd Command) (Result, *events.Event, error) {
	if d.backend == nil {
		if _, ok := cmd.(ToggleFavorite); !ok {
			return Result{}, nil, errors.New("no backend configured")
		}
	}

	switch c := cmd.(type) {
	case RenameImage:
		img, err := d.backend.RenameImage(ctx, c.RelativePath, c.NewName)
		if err != nil {
			return Result{}, nil, err
		}
		if d.gallery != nil {
			d.gallery.ApplyRename(c.RelativePath, img)
		}
		msg := fmt.Sprintf("Renamed to %s", img.Name)
		ev := events.New(events.ImageRenamed, events.EntityImage, img.ID, msg).
			With("old_path", c.RelativePath).
			With("new_path", img.RelativePath)
		return Result{Message: msg, Image: &img}, ev, nil

	case DeleteImage:
		res, err := d.backend.DeleteImage(ctx, c.RelativePath)
		if err != nil {
			return Result{}, nil, err
		}
		// Favorites are left alone: membership changes only through toggles.
		if d.gallery != nil && c.ID != "" {
			d.gallery.Remove(c.ID)
		}
		msg := fmt.Sprintf("Moved %s to trash", res.OriginalPath)
		ev := events.New(events.ImageDeleted, events.EntityImage, c.ID, msg).
			With("trashed_path", res.TrashedPath)
		return Result{Message: msg, Deleted: &res}, ev, nil

	case ToggleFavorite:
		if d.favorites == nil {
			return Result{}, nil, errors.New("no favorites store configured")
		}
		id := strings.TrimSpace(c.ID)
		if id == "" {
			return Result{}, nil, fmt.Errorf("image id required: %w", api.ErrInvalidArgument)
		}
		set := d.favorites.Toggle(ctx, id)
		on := set.Has(id)
		msg := "Removed from favorites"
		if on {
			msg = "Added to favorites"
		}
		ev := events.New(events.FavoriteToggled, events.EntityImage, id, msg).
			With("favorite", strconv.FormatBool(on))
		return Result{Message: msg, Favorites: set, IsFavorite: on}, ev, nil

	case CreatePerson:
		p, err := d.backend.CreatePerson(ctx, c.Label)
		if err != nil {
			return Result{}, nil, err
		}
		msg := fmt.Sprintf("Created %s", p.Label)
		return Result{Message: msg, Person: &p}, events.New(events.PersonCreated, events.EntityPerson, p.ID, msg), nil

	case RenamePerson:
		p, err := d.backend.RenamePerson(ctx, c.ID, c.Label)
		if err != nil {
			return Result{}, nil, err
		}
		msg := fmt.Sprintf("Renamed to %s", p.Label)
		return Result{Message: msg, Person: &p}, events.New(events.PersonRenamed, events.EntityPerson, p.ID, msg), nil

	case DeletePerson:
		if err := d.backend.DeletePerson(ctx, c.ID); err != nil {
			return Result{}, nil, err
		}
		msg := "Person deleted"
		return Result{Message: msg}, events.New(events.PersonDeleted, events.EntityPerson, c.ID, msg), nil

	case AssignFaces:
		res, err := d.backend.AssignFaces(ctx, c.PersonID, c.FaceIDs)
		if err != nil {
			return Result{}, nil, err
		}
		msg := fmt.Sprintf("Assigned %d face(s)", res.Count)
		ev := events.New(events.FacesAssigned, events.EntityPerson, c.PersonID, msg).
			With("count", strconv.Itoa(res.Count))
		return Result{Message: msg, Count: res.Count}, ev, nil

	case UnassignFaces:
		res, err := d.backend.UnassignFaces(ctx, c.PersonID, c.FaceIDs)
		if err != nil {
			return Result{}, nil, err
		}
		msg := fmt.Sprintf("Unassigned %d face(s)", res.Count)
		ev := events.New(events.FacesUnassigned, events.EntityPerson, c.PersonID, msg).
			With("count", strconv.Itoa(res.Count))
		return Result{Message: msg, Count: res.Count}, ev, nil

	case MergePersons:
		p, err := d.backend.MergePersons(ctx, c.TargetID, c.SourceIDs)
		if err != nil {
			return Result{}, nil, err
		}
		msg := fmt.Sprintf("Merged into %s", p.Label)
		ev := events.New(events.PersonsMerged, events.EntityPerson, p.ID, msg).
			With("sources", strings.Join(c.SourceIDs, ","))
		return Result{Message: msg, Person: &p, Count: p.FaceCount}, ev, nil

	case ControlScan:
		res, err := d.backend.ControlScan(ctx, c.Action)
		if err != nil {
			return Result{}, nil, err
		}
		ev := events.New(events.ScanControlled, events.EntityScan, string(c.Action), res.Message)
		return Result{Message: res.Message, Control: &res}, ev, nil

	case SyncMedia:
		res, err := d.backend.SyncMedia(ctx)
		if err != nil {
			return Result{}, nil, err
		}
		ev := events.New(events.MediaSynced, events.EntityScan, "sync", res.Message)
		return Result{Message: res.Message, Control: &res}, ev, nil
	}

	return Result{}, nil, fmt.Errorf("%T: %w", cmd, ErrUnknownCommand)
}
