package events

import (
	"context"
	"testing"
)

func TestFilter_Matches(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		event  *Event
		want   bool
	}{
		{
			name:   "empty filter matches any event",
			filter: Filter{},
			event:  &Event{Type: ImageRenamed, EntityType: EntityImage, EntityID: "img_1"},
			want:   true,
		},
		{
			name:   "nil event returns false",
			filter: Filter{},
			event:  nil,
			want:   false,
		},
		{
			name:   "event type filter matches",
			filter: Filter{EventTypes: []Type{ImageRenamed, ImageDeleted}},
			event:  &Event{Type: ImageDeleted, EntityType: EntityImage, EntityID: "img_1"},
			want:   true,
		},
		{
			name:   "event type filter rejects non-matching",
			filter: Filter{EventTypes: []Type{ImageRenamed}},
			event:  &Event{Type: PersonRenamed, EntityType: EntityPerson, EntityID: "p1"},
			want:   false,
		},
		{
			name:   "entity type filter rejects non-matching",
			filter: Filter{EntityTypes: []EntityType{EntityPerson}},
			event:  &Event{Type: FavoriteToggled, EntityType: EntityImage, EntityID: "img_1"},
			want:   false,
		},
		{
			name:   "entity id filter",
			filter: Filter{EntityID: "p1"},
			event:  &Event{Type: PersonsMerged, EntityType: EntityPerson, EntityID: "p2"},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(tt.event); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInMemoryPublisher_Subscribe(t *testing.T) {
	p := NewInMemoryPublisher()
	handler := func(*Event) {}

	if err := p.Subscribe("", Filter{}, handler); err != ErrInvalidSubscriptionID {
		t.Fatalf("expected ErrInvalidSubscriptionID, got %v", err)
	}
	if err := p.Subscribe("audit", Filter{}, nil); err != ErrNilHandler {
		t.Fatalf("expected ErrNilHandler, got %v", err)
	}
	if err := p.Subscribe("audit", Filter{}, handler); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.Subscribe("audit", Filter{}, handler); err != ErrSubscriptionExists {
		t.Fatalf("expected ErrSubscriptionExists, got %v", err)
	}
	if p.SubscriberCount() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", p.SubscriberCount())
	}
}

func TestInMemoryPublisher_Unsubscribe(t *testing.T) {
	p := NewInMemoryPublisher()
	_ = p.Subscribe("audit", Filter{}, func(*Event) {})

	if err := p.Unsubscribe("audit"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.Unsubscribe("audit"); err != ErrSubscriptionNotFound {
		t.Fatalf("expected ErrSubscriptionNotFound, got %v", err)
	}
}

func TestInMemoryPublisher_PublishWithFilter(t *testing.T) {
	p := NewInMemoryPublisher()
	var images, all int
	_ = p.Subscribe("images", Filter{EntityTypes: []EntityType{EntityImage}}, func(*Event) { images++ })
	_ = p.Subscribe("all", Filter{}, func(*Event) { all++ })

	ctx := context.Background()
	p.Publish(ctx, New(ImageDeleted, EntityImage, "img_1", "deleted"))
	p.Publish(ctx, New(PersonCreated, EntityPerson, "p1", "created"))
	p.Publish(ctx, nil)

	if images != 1 {
		t.Fatalf("expected 1 image event, got %d", images)
	}
	if all != 2 {
		t.Fatalf("expected 2 events, got %d", all)
	}

	p.Close()
	p.Publish(ctx, New(ImageDeleted, EntityImage, "img_2", "deleted"))
	if all != 2 {
		t.Fatalf("expected no delivery after Close, got %d", all)
	}
}

func TestNewEventHasIDAndMetadata(t *testing.T) {
	e := New(ImageRenamed, EntityImage, "img_1", "renamed").With("old_path", "a.jpg")
	if e.ID == "" || e.Timestamp.IsZero() {
		t.Fatalf("expected id and timestamp, got %+v", e)
	}
	if e.Metadata["old_path"] != "a.jpg" {
		t.Fatalf("metadata not set: %+v", e.Metadata)
	}
}
