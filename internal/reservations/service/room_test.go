package service

import (
	"context"
	"errors"
	"testing"

	"staybook/internal/reservations/reservationstest"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/model"
)

func catalog() *reservationstest.Store {
	return reservationstest.NewStore(
		&model.Room{ID: 1, Number: "101", Available: true, TimesBooked: 5},
		&model.Room{ID: 2, Number: "102", Available: true, TimesBooked: 1},
		&model.Room{ID: 3, Number: "103", Available: false, TimesBooked: 0},
		&model.Room{ID: 4, Number: "104", Available: true, TimesBooked: 1},
	)
}

func ids(rooms []model.RoomView) []int64 {
	out := make([]int64, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.ID)
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRoomService_Recommended(t *testing.T) {
	svc := NewRoomService(catalog().Rooms(), testConfig())

	rooms, err := svc.Recommended(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []int64{2, 4, 1}
	if got := ids(rooms); !equalIDs(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestRoomService_RecommendedEmpty(t *testing.T) {
	svc := NewRoomService(reservationstest.NewStore().Rooms(), testConfig())

	rooms, err := svc.Recommended(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rooms == nil || len(rooms) != 0 {
		t.Errorf("expected empty non-nil list, got %v", rooms)
	}
}

func TestRoomService_Popular(t *testing.T) {
	svc := NewRoomService(catalog().Rooms(), testConfig())

	rooms, err := svc.Popular(context.Background(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []int64{1, 2, 4}
	if got := ids(rooms); !equalIDs(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestRoomService_List(t *testing.T) {
	svc := NewRoomService(catalog().Rooms(), testConfig())

	rooms, total, err := svc.List(context.Background(), 2, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 4 {
		t.Errorf("expected total 4, got %d", total)
	}
	if len(rooms) != 2 || rooms[0].ID != 2 || rooms[1].ID != 3 {
		t.Errorf("unexpected page %+v", rooms)
	}
}

func TestRoomService_RepositoryFailure(t *testing.T) {
	store := catalog()
	store.FindErr = errors.New("connection reset")
	svc := NewRoomService(store.Rooms(), testConfig())

	if _, err := svc.Recommended(context.Background()); !apperrors.HasCode(err, apperrors.CodeInternal) {
		t.Errorf("expected INTERNAL_ERROR, got %v", err)
	}
	if _, _, err := svc.List(context.Background(), 10, 0); !apperrors.HasCode(err, apperrors.CodeInternal) {
		t.Errorf("expected INTERNAL_ERROR, got %v", err)
	}
}
