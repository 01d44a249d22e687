package postgres

import (
	"testing"

	"advent-calendar-service/internal/infra/postgres/migrations"
)

func TestDecodeDayPrefersRowID(t *testing.T) {
	day, err := decodeDay(4, []byte(`{"id":9,"title":"Tinsel","question":"Q?","options":["A","B"],"correctAnswer":1}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if day.ID != 4 || day.Title != "Tinsel" || day.CorrectAnswer != 1 || len(day.Options) != 2 {
		t.Fatalf("unexpected day %+v", day)
	}

	if _, err := decodeDay(1, []byte(`{"id":`)); err == nil {
		t.Fatalf("expected error for truncated document")
	}
}

func TestMigrationsRegistered(t *testing.T) {
	sorted := migrations.Migrations.Sorted()
	if len(sorted) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(sorted))
	}
	if sorted[0].Name != "20251201000001" || sorted[1].Name != "20251201000002" {
		t.Fatalf("unexpected migration order %s, %s", sorted[0].Name, sorted[1].Name)
	}
}
