package firestore

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/japaniel/mythos/pkg/store"
)

func TestWrapErrorClassifies(t *testing.T) {
	cases := []struct {
		code codes.Code
		want error
	}{
		{codes.NotFound, store.ErrNotFound},
		{codes.AlreadyExists, store.ErrConflict},
		{codes.Aborted, store.ErrConflict},
		{codes.Unavailable, store.ErrUnavailable},
		{codes.ResourceExhausted, store.ErrUnavailable},
	}
	for _, c := range cases {
		err := WrapError("op", status.Error(c.code, "boom"))
		if !errors.Is(err, c.want) {
			t.Fatalf("%v: expected %v, got %v", c.code, c.want, err)
		}
	}
	if err := WrapError("op", status.Error(codes.PermissionDenied, "no")); errors.Is(err, store.ErrUnavailable) || errors.Is(err, store.ErrNotFound) {
		t.Fatalf("permission denied should stay unclassified, got %v", err)
	}
}

func TestWrapErrorPassesCancellation(t *testing.T) {
	if err := WrapError("op", status.Error(codes.Canceled, "stop")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if err := WrapError("op", context.DeadlineExceeded); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline, got %v", err)
	}
	if WrapError("op", nil) != nil {
		t.Fatalf("nil must stay nil")
	}
}

func TestWrapErrorKeepsExistingClassification(t *testing.T) {
	inner := WrapError("", status.Error(codes.NotFound, "gone"))
	outer := WrapError("get horus", inner)
	var e *Error
	if !errors.As(outer, &e) || !e.IsNotFound() {
		t.Fatalf("expected classified error, got %v", outer)
	}
	if got := outer.Error(); got != "get horus: rpc error: code = NotFound desc = gone" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestDocumentDataRoundTrip(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	doc := store.Document{
		ID:          "horus",
		Mythology:   "egyptian",
		Type:        "deity",
		ContentHash: "abc",
		Fields: map[string]any{
			"id":        "horus",
			"mythology": "egyptian",
			"type":      "deity",
			"icon":      map[string]any{"glyph": "𓂀"},
		},
	}
	data := toData(doc, created)
	if data[fieldUpdatedAt] != firestore.ServerTimestamp {
		t.Fatalf("updatedAt must be the server timestamp")
	}
	if data[fieldCreatedAt] != created {
		t.Fatalf("createdAt not carried over: %v", data[fieldCreatedAt])
	}

	data[fieldUpdatedAt] = created.Add(time.Hour)
	back := fromData("horus", data)
	if !back.CreatedAt.Equal(created) || !back.UpdatedAt.Equal(created.Add(time.Hour)) {
		t.Fatalf("timestamps lost: %+v", back)
	}
	if back.ContentHash != "abc" || back.Mythology != "egyptian" || back.Type != "deity" {
		t.Fatalf("metadata lost: %+v", back)
	}
	if _, ok := back.Fields[fieldCreatedAt]; ok {
		t.Fatalf("timestamps must not leak into Fields")
	}
	if store.StringLeaves(back.Fields)["icon.glyph"] != "𓂀" {
		t.Fatalf("glyph changed")
	}
}

func TestProviderRequiresProjectID(t *testing.T) {
	t.Setenv(envGoogleProjectID, "")
	t.Setenv(envEmulatorHost, "")
	p := NewProvider(Config{})
	if _, err := p.Client(context.Background()); !errors.Is(err, ErrProjectIDMissing) {
		t.Fatalf("expected ErrProjectIDMissing, got %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := p.Client(context.Background()); !errors.Is(err, ErrProviderClosed) {
		t.Fatalf("expected ErrProviderClosed, got %v", err)
	}
}

func TestProjectIDFallsBackToEnv(t *testing.T) {
	t.Setenv(envGoogleProjectID, "mythos-dev")
	if got := NewProvider(Config{}).ProjectID(); got != "mythos-dev" {
		t.Fatalf("expected env project id, got %q", got)
	}
	if got := NewProvider(Config{ProjectID: " explicit "}).ProjectID(); got != "explicit" {
		t.Fatalf("expected explicit project id, got %q", got)
	}
}
