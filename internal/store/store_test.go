package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/ironsheep/addrslips/internal/detection"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "project.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func addTestArea(t *testing.T, s *Store) Area {
	t.Helper()
	a, err := s.AddArea(context.Background(), NewArea{
		Name:      "Nordstadt",
		Color:     Color{R: 0x12, G: 0x34, B: 0x56},
		ImagePath: "scans/nordstadt.png",
	})
	if err != nil {
		t.Fatalf("AddArea failed: %v", err)
	}
	return a
}

func TestAreaCRUD(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	a := addTestArea(t, s)

	if a.ID == 0 || a.State != AreaImported {
		t.Errorf("Unexpected new area %+v", a)
	}

	got, err := s.Area(ctx, a.ID)
	if err != nil {
		t.Fatalf("Area failed: %v", err)
	}
	if got.Name != "Nordstadt" || got.Color != a.Color || got.ImagePath != a.ImagePath {
		t.Errorf("Round trip mismatch: %+v vs %+v", got, a)
	}
	if !got.CreatedAt.Equal(a.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, a.CreatedAt)
	}

	if err := s.SetAreaState(ctx, a.ID, AreaStreetsDetected); err != nil {
		t.Fatalf("SetAreaState failed: %v", err)
	}
	found, err := s.FindArea(ctx, "scans/nordstadt.png")
	if err != nil {
		t.Fatalf("FindArea failed: %v", err)
	}
	if found.State != AreaStreetsDetected {
		t.Errorf("State = %v, want %v", found.State, AreaStreetsDetected)
	}

	areas, err := s.Areas(ctx)
	if err != nil || len(areas) != 1 {
		t.Fatalf("Areas = %v, %v", areas, err)
	}

	if err := s.DeleteArea(ctx, a.ID); err != nil {
		t.Fatalf("DeleteArea failed: %v", err)
	}
	if _, err := s.Area(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}

func TestAreaErrors(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if _, err := s.AddArea(ctx, NewArea{ImagePath: "x.png"}); err == nil {
		t.Error("Expected error for empty name")
	}
	if err := s.SetAreaState(ctx, 99, AreaComplete); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	a := addTestArea(t, s)
	if err := s.SetAreaState(ctx, a.ID, AreaState(42)); err == nil {
		t.Error("Expected error for invalid state")
	}
	if _, err := s.FindArea(ctx, "other.png"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSaveDetections(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	a := addTestArea(t, s)
	runID := uuid.NewString()

	ds := []detection.Detection{
		{Text: "14", X: 170, Y: 100, Confidence: 0.91, Radius: 30.5},
		{Text: "12", X: 70, Y: 100, Confidence: 0.88, Radius: 29.4},
		{Text: "3a", X: 120, Y: 40, Confidence: 0.6, Radius: 22},
	}
	if err := s.SaveDetections(ctx, a.ID, runID, ds); err != nil {
		t.Fatalf("SaveDetections failed: %v", err)
	}

	addrs, err := s.Addresses(ctx, a.ID)
	if err != nil {
		t.Fatalf("Addresses failed: %v", err)
	}
	want := []struct {
		number string
		radius int64
	}{{"3a", 22}, {"12", 29}, {"14", 31}}
	if len(addrs) != len(want) {
		t.Fatalf("Got %d addresses, want %d", len(addrs), len(want))
	}
	for i, w := range want {
		if addrs[i].HouseNumber != w.number || addrs[i].CircleRadius != w.radius {
			t.Errorf("Address %d = %s r=%d, want %s r=%d",
				i, addrs[i].HouseNumber, addrs[i].CircleRadius, w.number, w.radius)
		}
		if addrs[i].RunID != runID || addrs[i].Verified || addrs[i].StreetID != nil {
			t.Errorf("Unexpected defaults on %+v", addrs[i])
		}
	}

	got, err := s.Area(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.State != AreaAddressesDetected {
		t.Errorf("Area state = %v, want %v", got.State, AreaAddressesDetected)
	}
}

func TestSaveDetectionsUnknownArea(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	err := s.SaveDetections(ctx, 7, "run", []detection.Detection{{Text: "1"}})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestStreetsAndTeams(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	a := addTestArea(t, s)

	if err := s.SaveDetections(ctx, a.ID, "run", []detection.Detection{{Text: "5", X: 10, Y: 10, Radius: 20}}); err != nil {
		t.Fatal(err)
	}
	addrs, _ := s.Addresses(ctx, a.ID)

	street, err := s.AddStreet(ctx, a.ID, "Hauptstraße")
	if err != nil {
		t.Fatalf("AddStreet failed: %v", err)
	}
	if err := s.AssignStreet(ctx, addrs[0].ID, street.ID); err != nil {
		t.Fatalf("AssignStreet failed: %v", err)
	}
	addrs, _ = s.Addresses(ctx, a.ID)
	if addrs[0].StreetID == nil || *addrs[0].StreetID != street.ID {
		t.Errorf("StreetID = %v, want %d", addrs[0].StreetID, street.ID)
	}
	if err := s.AssignStreet(ctx, addrs[0].ID, 0); err != nil {
		t.Fatal(err)
	}
	addrs, _ = s.Addresses(ctx, a.ID)
	if addrs[0].StreetID != nil {
		t.Error("Street link not cleared")
	}
	if err := s.AssignStreet(ctx, addrs[0].ID, 999); err == nil {
		t.Error("Expected foreign key error for unknown street")
	}

	for i := 1; i <= 3; i++ {
		team, err := s.AddTeam(ctx, a.ID)
		if err != nil {
			t.Fatalf("AddTeam failed: %v", err)
		}
		if team.Number != i {
			t.Errorf("Team number = %d, want %d", team.Number, i)
		}
	}
	teams, err := s.Teams(ctx, a.ID)
	if err != nil || len(teams) != 3 {
		t.Fatalf("Teams = %v, %v", teams, err)
	}

	// Deleting the area cascades
	if err := s.DeleteArea(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	if addrs, _ := s.Addresses(ctx, a.ID); len(addrs) != 0 {
		t.Errorf("Addresses survived area deletion: %d", len(addrs))
	}
	if teams, _ := s.Teams(ctx, a.ID); len(teams) != 0 {
		t.Errorf("Teams survived area deletion: %d", len(teams))
	}
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "project.db")

	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	a := addTestArea(t, s)
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = Open(path)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer s.Close()
	if _, err := s.Area(ctx, a.ID); err != nil {
		t.Errorf("Area lost after reopen: %v", err)
	}
}

func TestColorAndState(t *testing.T) {
	c := Color{R: 0xAB, G: 0xCD, B: 0xEF}
	if c.Int64() != 0xABCDEF {
		t.Errorf("Int64 = %#x", c.Int64())
	}
	if ColorFromInt64(0xABCDEF) != c {
		t.Error("ColorFromInt64 did not invert Int64")
	}
	if AreaAddressesDetected.String() != "addresses_detected" || AreaState(-1).String() != "invalid" {
		t.Error("Unexpected state names")
	}
}

func TestRecordRun(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	na := NewArea{Name: "Südviertel", ImagePath: "/maps/sued.png"}

	first, err := s.RecordRun(ctx, na, "run-1", []detection.Detection{{Text: "1", X: 5, Y: 5}})
	if err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}
	second, err := s.RecordRun(ctx, na, "run-2", []detection.Detection{{Text: "2", X: 9, Y: 9}})
	if err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("Second run created a new area: %d vs %d", first.ID, second.ID)
	}
	if second.State != AreaAddressesDetected {
		t.Errorf("State = %v", second.State)
	}

	addrs, err := s.Addresses(ctx, first.ID)
	if err != nil || len(addrs) != 2 {
		t.Fatalf("Addresses = %+v, %v", addrs, err)
	}
	if addrs[0].RunID != "run-1" || addrs[1].RunID != "run-2" {
		t.Errorf("Unexpected run IDs %q, %q", addrs[0].RunID, addrs[1].RunID)
	}

	if _, err := s.RecordRun(ctx, NewArea{ImagePath: "/maps/other.png"}, "run-3", nil); err == nil {
		t.Error("Expected error for unnamed new area")
	}
}
