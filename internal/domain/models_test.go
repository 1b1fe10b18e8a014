package domain

import (
	"reflect"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:domain_models?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func TestTableNames(t *testing.T) {
	if (Ticket{}).TableName() != "tickets" {
		t.Fatalf("Ticket.TableName() = %q; want %q", (Ticket{}).TableName(), "tickets")
	}
	if (Blob{}).TableName() != "blobs" {
		t.Fatalf("Blob.TableName() = %q; want %q", (Blob{}).TableName(), "blobs")
	}
}

func TestMigrations_Indexes(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&Ticket{}, &Blob{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()
	for _, tbl := range []any{&Ticket{}, &Blob{}} {
		if !m.HasTable(tbl) {
			t.Fatalf("expected table for %T to exist", tbl)
		}
	}
	if !m.HasIndex(&Ticket{}, "idx_ticket_match") {
		t.Fatalf("expected index idx_ticket_match on tickets")
	}
	if m.HasColumn(&Ticket{}, "row") {
		t.Fatalf("sheet row must not be persisted")
	}
}

func TestTicket_ValuesRoundTripThroughRow(t *testing.T) {
	tk := Ticket{
		ID: "id-1", Timestamp: "2024-01-01T00:00:00Z", Email: "a@x.com",
		Subject: ChatSubject, Summary: "s", Classification: "Billing",
		Status: StatusOpen, FollowUp: "",
	}
	vals := tk.Values()
	if len(vals) != len(Columns) {
		t.Fatalf("Values() has %d cells; want %d", len(vals), len(Columns))
	}
	got := TicketFromRow(vals, 7)
	want := tk
	want.Row = 7
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("TicketFromRow mismatch:\n got=%+v\nwant=%+v", got, want)
	}
}

func TestTicketFromRow_PadsShortRows(t *testing.T) {
	got := TicketFromRow([]string{"id", "ts", "e@x.com"}, 2)
	if got.ID != "id" || got.Email != "e@x.com" || got.Status != "" || got.FollowUp != "" {
		t.Fatalf("unexpected padded ticket: %+v", got)
	}
	if got.IsOpen() {
		t.Fatalf("ticket without status must not be open")
	}
}

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2024-03-01T09:00:00Z", time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)},
		{"2024-03-01T09:00:00.123456Z", time.Date(2024, 3, 1, 9, 0, 0, 123456000, time.UTC)},
		{"2024-03-01T11:00:00+02:00", time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)},
		{"2024-03-01T09:00:00", time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)},
		{"2024-03-01T09:00:00.5", time.Date(2024, 3, 1, 9, 0, 0, 500000000, time.UTC)},
		{"2024-03-01 09:00:00", time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		got, err := ParseTimestamp(tc.in)
		if err != nil {
			t.Fatalf("ParseTimestamp(%q): %v", tc.in, err)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("ParseTimestamp(%q) = %v; want %v", tc.in, got, tc.want)
		}
	}
	if _, err := ParseTimestamp("yesterday"); err == nil {
		t.Fatalf("expected error for garbage timestamp")
	}
}

func TestFormatTimestamp_IsParseable(t *testing.T) {
	now := time.Date(2024, 5, 6, 7, 8, 9, 10, time.FixedZone("X", 3600))
	s := FormatTimestamp(now)
	back, err := ParseTimestamp(s)
	if err != nil || !back.Equal(now) {
		t.Fatalf("FormatTimestamp/ParseTimestamp mismatch: %q -> %v (%v)", s, back, err)
	}
}
