// Package storagetest provides fixtures shared by the snapshot store tests.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/iLeonidze/OXPAHA28-bot/internal/core/domain"
	"github.com/iLeonidze/OXPAHA28-bot/internal/core/ports"
)

// SampleSnapshot returns a snapshot exercising every answer variant.
func SampleSnapshot() *ports.Snapshot {
	base := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	filled := domain.NewSession(101, "confirm", base)
	filled.StepHistory = []domain.StepID{"start", "select_street", "select_house_number", "select_problem_area", "select_section_number"}
	filled.Answers[domain.FieldCategory] = domain.ChoiceAnswer("🔥 Пожар")
	filled.Answers[domain.FieldStreet] = domain.ChoiceAnswer("Ленина")
	filled.Answers[domain.FieldHouse] = domain.NumberAnswer(12)
	filled.Answers[domain.FieldSection] = domain.NumberAnswer(3)
	filled.Answers[domain.FieldFloor] = domain.NumberAnswer(0)
	filled.Answers[domain.FieldDescription] = domain.TextAnswer("Дым в подъезде")
	filled.Answers[domain.FieldMedia] = domain.MediaAnswer(domain.Media{
		Kind:         domain.MediaVideo,
		FileID:       "file-1",
		FileUniqueID: "uniq-1",
		FileSize:     2048,
		Width:        640,
		Height:       480,
		Duration:     7,
	})
	filled.Answers[domain.FieldLocation] = domain.LocationAnswer(domain.Location{Latitude: 55.751244, Longitude: 37.618423})
	filled.StartedAt = base
	filled.LastUpdatedAt = base.Add(time.Minute)
	filled.SubmissionIDs = []int64{41, 42}
	filled.LastSubmittedAt = base.Add(-time.Hour)

	fresh := domain.NewSession(202, "start", base.Add(2*time.Minute))
	fresh.LastUpdatedAt = base.Add(2 * time.Minute)

	return &ports.Snapshot{
		Version: ports.SnapshotVersion,
		SavedAt: base.Add(3 * time.Minute),
		Sessions: map[int64]*domain.Session{
			filled.UserID: filled,
			fresh.UserID:  fresh,
		},
	}
}

// Diff compares snapshots ignoring time zones, empty-versus-nil
// collections and the in-memory dirty flag.
func Diff(want, got *ports.Snapshot) string {
	return cmp.Diff(want, got,
		cmpopts.EquateEmpty(),
		cmpopts.EquateApproxTime(0),
		cmpopts.IgnoreFields(domain.Session{}, "Dirty"),
	)
}

// RunRoundTrip saves SampleSnapshot to store and checks Load returns it.
func RunRoundTrip(t *testing.T, store ports.SnapshotStore) {
	t.Helper()
	ctx := context.Background()

	want := SampleSnapshot()
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got == nil {
		t.Fatal("Load() = nil, want snapshot")
	}
	if diff := Diff(want, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

// RunOverwrite checks a second Save fully replaces the first.
func RunOverwrite(t *testing.T, store ports.SnapshotStore) {
	t.Helper()
	ctx := context.Background()

	if err := store.Save(ctx, SampleSnapshot()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	second := SampleSnapshot()
	delete(second.Sessions, 202)
	second.Sessions[101].CurrentStep = "start"
	second.Sessions[101].SubmissionIDs = append(second.Sessions[101].SubmissionIDs, 43)
	if err := store.Save(ctx, second); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := Diff(second, got); diff != "" {
		t.Errorf("Load() after overwrite mismatch (-want +got):\n%s", diff)
	}
}

// RunEmpty checks Load on a fresh store reports no snapshot.
func RunEmpty(t *testing.T, store ports.SnapshotStore) {
	t.Helper()

	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != nil {
		t.Errorf("Load() = %+v, want nil", got)
	}
}
