package mongo

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestCollections_CoverEveryRepository(t *testing.T) {
	want := []string{"Venues", "Slots", "Bookings", "Challenges"}
	got := Collections()
	if len(got) != len(want) {
		t.Fatalf("expected %d collections, got %d", len(want), len(got))
	}
	for i, c := range got {
		if c.Name != want[i] {
			t.Errorf("collection %d: expected %s, got %s", i, want[i], c.Name)
		}
		if c.Validator["$jsonSchema"] == nil {
			t.Errorf("%s has no validator", c.Name)
		}
		if len(c.Indexes) == 0 {
			t.Errorf("%s has no indexes", c.Name)
		}
	}
}

func TestSlotsIndexes_GridCellIsUnique(t *testing.T) {
	idx := SlotsIndexes[0]
	keys, ok := idx.Keys.(bson.D)
	if !ok {
		t.Fatalf("unexpected key type %T", idx.Keys)
	}
	var names []string
	for _, k := range keys {
		names = append(names, k.Key)
	}
	if len(names) != 3 || names[0] != "venue_id" || names[1] != "date" || names[2] != "start_time" {
		t.Errorf("unexpected keys %v", names)
	}
	if idx.Options == nil || idx.Options.Unique == nil || !*idx.Options.Unique {
		t.Error("slot grid index must be unique")
	}
}

func TestChallengeValidator_RequiresCancelledByArray(t *testing.T) {
	schema := Collections()[3].Validator["$jsonSchema"].(bson.M)
	props := schema["properties"].(bson.M)
	cancelledBy := props["cancelled_by"].(bson.M)
	if cancelledBy["bsonType"] != "array" {
		t.Errorf("cancelled_by must be an array, got %v", cancelledBy["bsonType"])
	}
}
