package schedule

import "sort"

// Days is the weekday axis shared by every grid in the console.
var Days = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// WeeklySlots is the time axis of the weekly class schedule grid.
var WeeklySlots = []string{
	"8:00 AM", "9:00 AM", "10:00 AM", "11:00 AM", "12:00 PM",
	"2:00 PM", "3:00 PM", "4:00 PM", "5:00 PM", "6:00 PM",
}

// Entry is a flat schedule record as returned by the institute service.
type Entry struct {
	Day         string `json:"day"`
	Time        string `json:"time"`
	SubjectName string `json:"subjectName"`
	Venue       string `json:"venue"`
	Duration    int    `json:"duration,omitempty"`
	Group       string `json:"group,omitempty"`
	Semester    string `json:"semester,omitempty"`
}

// UploadRow is the flattened shape the institute service expects on upload.
type UploadRow struct {
	Day       string `json:"day"`
	StartTime string `json:"startTime"`
	Duration  int    `json:"duration"`
	Subject   string `json:"subject"`
	Venue     string `json:"venue"`
}

// Cell is the content of one (day, time) coordinate. Duration counts the
// consecutive slots the booking occupies; zero means unset and reads as one.
type Cell struct {
	Subject  string `json:"subject"`
	Venue    string `json:"venue"`
	Duration int    `json:"duration,omitempty"`
}

func (c Cell) Empty() bool {
	return c.Subject == "" && c.Venue == "" && c.Duration == 0
}

// Span is the number of slots the cell occupies, never less than one.
func (c Cell) Span() int {
	if c.Duration > 1 {
		return c.Duration
	}
	return 1
}

// Grid maps day -> time slot -> cell. Keys exist only while at least one
// cell field is non-empty; editors prune emptied cells and days.
type Grid map[string]map[string]Cell

func (g Grid) Clone() Grid {
	next := make(Grid, len(g))
	for day, slots := range g {
		inner := make(map[string]Cell, len(slots))
		for slot, cell := range slots {
			inner[slot] = cell
		}
		next[day] = inner
	}
	return next
}

// Cell returns the cell at (day, slot) and whether it exists.
func (g Grid) Cell(day, slot string) (Cell, bool) {
	slots, ok := g[day]
	if !ok {
		return Cell{}, false
	}
	cell, ok := slots[slot]
	return cell, ok
}

// Normalize reshapes flat records into a grid. Records with an empty day or
// time are skipped; duplicate (day, time) keys overwrite, last one wins, so
// the service's natural ordering is preserved.
func Normalize(entries []Entry) Grid {
	grid := make(Grid)
	for _, entry := range entries {
		if entry.Day == "" || entry.Time == "" {
			continue
		}
		slots, ok := grid[entry.Day]
		if !ok {
			slots = make(map[string]Cell)
			grid[entry.Day] = slots
		}
		cell := Cell{Subject: entry.SubjectName, Venue: entry.Venue}
		if entry.Duration > 1 {
			cell.Duration = entry.Duration
		}
		slots[entry.Time] = cell
	}
	return grid
}

// Denormalize flattens a grid back into upload rows, one per occupied cell,
// in day then slot axis order so output is deterministic.
func Denormalize(grid Grid) []UploadRow {
	rows := make([]UploadRow, 0, len(grid))
	for _, day := range orderedKeys(dayKeys(grid), Days) {
		for _, slot := range orderedKeys(slotKeys(grid[day]), WeeklySlots) {
			cell := grid[day][slot]
			rows = append(rows, UploadRow{
				Day:       day,
				StartTime: slot,
				Duration:  cell.Span(),
				Subject:   cell.Subject,
				Venue:     cell.Venue,
			})
		}
	}
	return rows
}

// CoveredSlots reports which slots of a day are occupied by an earlier
// cell's span. Spans are scanned start to end, so chains of merged slots of
// any length suppress correctly.
func CoveredSlots(grid Grid, day string, slots []string) map[string]bool {
	covered := make(map[string]bool)
	for i, slot := range slots {
		cell, ok := grid.Cell(day, slot)
		if !ok {
			continue
		}
		for j := i + 1; j < len(slots) && j < i+cell.Span(); j++ {
			covered[slots[j]] = true
		}
	}
	return covered
}

func dayKeys(grid Grid) map[string]struct{} {
	keys := make(map[string]struct{}, len(grid))
	for day := range grid {
		keys[day] = struct{}{}
	}
	return keys
}

func slotKeys(slots map[string]Cell) map[string]struct{} {
	keys := make(map[string]struct{}, len(slots))
	for slot := range slots {
		keys[slot] = struct{}{}
	}
	return keys
}

// orderedKeys returns the present keys in axis order, then any keys off the
// axis in lexicographic order.
func orderedKeys(present map[string]struct{}, axis []string) []string {
	ordered := make([]string, 0, len(present))
	seen := make(map[string]bool, len(present))
	for _, key := range axis {
		if _, ok := present[key]; ok {
			ordered = append(ordered, key)
			seen[key] = true
		}
	}
	rest := make([]string, 0)
	for key := range present {
		if !seen[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	return append(ordered, rest...)
}
