package mongo

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func hasUniqueIndex(t *testing.T, def CollectionDef, field string) bool {
	t.Helper()
	for _, idx := range def.Indexes {
		keys, ok := idx.Keys.(bson.D)
		if !ok || len(keys) != 1 || keys[0].Key != field {
			continue
		}
		if idx.Options != nil && idx.Options.Unique != nil && *idx.Options.Unique {
			return true
		}
	}
	return false
}

func TestCollections_RequestIDIsUnique(t *testing.T) {
	defs := Collections()

	for _, name := range []string{"Bookings", "Reservation_locks"} {
		def, ok := defs[name]
		if !ok {
			t.Fatalf("collection %s is not migrated", name)
		}
		if !hasUniqueIndex(t, def, "request_id") {
			t.Errorf("%s: request_id must carry a unique index", name)
		}
	}
}

func TestCollections_AllHaveValidators(t *testing.T) {
	for name, def := range Collections() {
		if _, ok := def.Validator["$jsonSchema"]; !ok {
			t.Errorf("%s has no $jsonSchema validator", name)
		}
	}
}

func TestDemoRooms(t *testing.T) {
	rooms := DemoRooms(25)
	if len(rooms) != 25 {
		t.Fatalf("expected 25 rooms, got %d", len(rooms))
	}

	seen := make(map[string]bool)
	for i, r := range rooms {
		if r.ID != int64(i+1) {
			t.Errorf("room %d has id %d", i, r.ID)
		}
		if seen[r.Number] {
			t.Errorf("duplicate room number %s", r.Number)
		}
		seen[r.Number] = true
		if !r.Available || r.TimesBooked != 0 {
			t.Errorf("room %d should start available and unbooked", r.ID)
		}
	}
	if rooms[0].Number != "101" || rooms[20].Number != "201" {
		t.Errorf("unexpected numbering %s / %s", rooms[0].Number, rooms[20].Number)
	}
}
