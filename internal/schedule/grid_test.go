package schedule

import (
	"reflect"
	"testing"
)

func TestNormalizeSkipsMalformedEntries(t *testing.T) {
	entries := []Entry{
		{Day: "", Time: "9:00 AM", SubjectName: "Maths"},
		{Day: "Monday", Time: "", SubjectName: "Physics"},
		{Day: "Monday", Time: "9:00 AM", SubjectName: "Chemistry", Venue: "LT-1"},
	}
	grid := Normalize(entries)
	if len(grid) != 1 {
		t.Fatalf("expected 1 day, got %d", len(grid))
	}
	cell, ok := grid.Cell("Monday", "9:00 AM")
	if !ok {
		t.Fatalf("expected cell at Monday 9:00 AM")
	}
	if cell.Subject != "Chemistry" || cell.Venue != "LT-1" {
		t.Fatalf("unexpected cell %+v", cell)
	}
}

func TestNormalizeLastEntryWinsOnDuplicateKeys(t *testing.T) {
	entries := []Entry{
		{Day: "Tuesday", Time: "10:00 AM", SubjectName: "Old", Venue: "LT-1"},
		{Day: "Tuesday", Time: "10:00 AM", SubjectName: "New", Venue: "LT-2"},
	}
	grid := Normalize(entries)
	cell, _ := grid.Cell("Tuesday", "10:00 AM")
	if cell.Subject != "New" || cell.Venue != "LT-2" {
		t.Fatalf("expected last entry to win, got %+v", cell)
	}
}

func TestNormalizeCarriesDuration(t *testing.T) {
	grid := Normalize([]Entry{{Day: "Monday", Time: "9:00 AM", SubjectName: "Lab", Duration: 3}})
	cell, _ := grid.Cell("Monday", "9:00 AM")
	if cell.Duration != 3 {
		t.Fatalf("expected duration 3 carried through, got %d", cell.Duration)
	}
	grid = Normalize([]Entry{{Day: "Monday", Time: "9:00 AM", SubjectName: "Lecture", Duration: 1}})
	cell, _ = grid.Cell("Monday", "9:00 AM")
	if cell.Duration != 0 {
		t.Fatalf("expected default duration left unset, got %d", cell.Duration)
	}
}

func TestDenormalizeRoundTrip(t *testing.T) {
	entries := []Entry{
		{Day: "Monday", Time: "9:00 AM", SubjectName: "Maths", Venue: "LT-1"},
		{Day: "Monday", Time: "2:00 PM", SubjectName: "Physics", Venue: "LT-2", Duration: 2},
		{Day: "Friday", Time: "8:00 AM", SubjectName: "Chemistry", Venue: "Lab-3"},
	}
	rows := Denormalize(Normalize(entries))
	if len(rows) != len(entries) {
		t.Fatalf("expected %d rows, got %d", len(entries), len(rows))
	}
	want := []UploadRow{
		{Day: "Monday", StartTime: "9:00 AM", Duration: 1, Subject: "Maths", Venue: "LT-1"},
		{Day: "Monday", StartTime: "2:00 PM", Duration: 2, Subject: "Physics", Venue: "LT-2"},
		{Day: "Friday", StartTime: "8:00 AM", Duration: 1, Subject: "Chemistry", Venue: "Lab-3"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", rows, want)
	}
}

func TestDenormalizeDefaultsDurationToOne(t *testing.T) {
	grid := Grid{"Monday": {"9:00 AM": Cell{Subject: "Maths"}}}
	rows := Denormalize(grid)
	if len(rows) != 1 || rows[0].Duration != 1 {
		t.Fatalf("expected duration 1, got %+v", rows)
	}
}

func TestCoveredSlotsHandlesLongSpans(t *testing.T) {
	grid := Grid{"Monday": {
		"9:00 AM": Cell{Subject: "Lab", Duration: 3},
		"2:00 PM": Cell{Subject: "Lecture"},
	}}
	covered := CoveredSlots(grid, "Monday", WeeklySlots)
	if !covered["10:00 AM"] || !covered["11:00 AM"] {
		t.Fatalf("expected 10:00 AM and 11:00 AM covered, got %v", covered)
	}
	if covered["12:00 PM"] || covered["2:00 PM"] || covered["9:00 AM"] {
		t.Fatalf("unexpected covered slots: %v", covered)
	}
}

func TestCoveredSlotsEmptyForOtherDays(t *testing.T) {
	grid := Grid{"Monday": {"9:00 AM": Cell{Subject: "Lab", Duration: 2}}}
	if covered := CoveredSlots(grid, "Tuesday", WeeklySlots); len(covered) != 0 {
		t.Fatalf("expected no covered slots on Tuesday, got %v", covered)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	grid := Grid{"Monday": {"9:00 AM": Cell{Subject: "Maths"}}}
	clone := grid.Clone()
	clone["Monday"]["9:00 AM"] = Cell{Subject: "Changed"}
	if cell, _ := grid.Cell("Monday", "9:00 AM"); cell.Subject != "Maths" {
		t.Fatalf("clone mutation leaked into original: %+v", cell)
	}
}
