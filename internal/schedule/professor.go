package schedule

// ProfessorSlots is the fixed time axis of the professor schedule grid.
var ProfessorSlots = []string{
	"9:00 AM", "10:00 AM", "11:00 AM", "12:00 PM",
	"2:00 PM", "3:00 PM", "4:00 PM",
}

// Editable cell fields of the professor grid.
const (
	FieldSubjectName = "subjectName"
	FieldGroup       = "group"
	FieldSemester    = "semester"
)

// ProfessorCell is one professor grid coordinate. All-empty cells are kept:
// the professor grid is dense, never pruned.
type ProfessorCell struct {
	SubjectName string `json:"subjectName"`
	Group       string `json:"group"`
	Semester    string `json:"semester"`
	Venue       string `json:"venue"`
}

func (c ProfessorCell) Empty() bool {
	return c.SubjectName == "" && c.Group == "" && c.Semester == "" && c.Venue == ""
}

// ProfessorEntry is the flat wire shape of one professor schedule record.
type ProfessorEntry struct {
	ProfessorID string `json:"professorId,omitempty"`
	Day         string `json:"day"`
	Time        string `json:"time"`
	SubjectName string `json:"subjectName"`
	Group       string `json:"group"`
	Semester    string `json:"semester"`
	Venue       string `json:"venue"`
}

// ProfessorGrid maps day -> time slot -> cell over the fixed Days x
// ProfessorSlots axes. Every pair is always present.
type ProfessorGrid map[string]map[string]ProfessorCell

// NewProfessorGrid allocates a fully populated grid of empty cells. A fresh
// grid is allocated on every call; callers must never share one as a
// mutation target across fetches.
func NewProfessorGrid() ProfessorGrid {
	grid := make(ProfessorGrid, len(Days))
	for _, day := range Days {
		slots := make(map[string]ProfessorCell, len(ProfessorSlots))
		for _, slot := range ProfessorSlots {
			slots[slot] = ProfessorCell{}
		}
		grid[day] = slots
	}
	return grid
}

func (g ProfessorGrid) Clone() ProfessorGrid {
	next := make(ProfessorGrid, len(g))
	for day, slots := range g {
		inner := make(map[string]ProfessorCell, len(slots))
		for slot, cell := range slots {
			inner[slot] = cell
		}
		next[day] = inner
	}
	return next
}

// ApplyEntries replaces matching cells with fetched records. Records whose
// day or time is off the fixed axes are dropped.
func (g ProfessorGrid) ApplyEntries(entries []ProfessorEntry) {
	for _, entry := range entries {
		slots, ok := g[entry.Day]
		if !ok {
			continue
		}
		if _, ok := slots[entry.Time]; !ok {
			continue
		}
		slots[entry.Time] = ProfessorCell{
			SubjectName: entry.SubjectName,
			Group:       entry.Group,
			Semester:    entry.Semester,
			Venue:       entry.Venue,
		}
	}
}

// SetCell assigns one field directly. The dense model keeps all cells, so
// there is no pruning on empty values.
func (g ProfessorGrid) SetCell(day, slot, field, value string) error {
	slots, ok := g[day]
	if !ok {
		return ErrCellNotFound
	}
	cell, ok := slots[slot]
	if !ok {
		return ErrCellNotFound
	}
	switch field {
	case FieldSubjectName:
		cell.SubjectName = value
	case FieldGroup:
		cell.Group = value
	case FieldSemester:
		cell.Semester = value
	case FieldVenue:
		cell.Venue = value
	default:
		return ErrUnknownField
	}
	slots[slot] = cell
	return nil
}

// Flatten collects every cell with at least one non-empty field into bulk
// update rows, in day then slot axis order.
func (g ProfessorGrid) Flatten(professorID string) []ProfessorEntry {
	rows := make([]ProfessorEntry, 0)
	for _, day := range Days {
		for _, slot := range ProfessorSlots {
			cell := g[day][slot]
			if cell.Empty() {
				continue
			}
			rows = append(rows, ProfessorEntry{
				ProfessorID: professorID,
				Day:         day,
				Time:        slot,
				SubjectName: cell.SubjectName,
				Group:       cell.Group,
				Semester:    cell.Semester,
				Venue:       cell.Venue,
			})
		}
	}
	return rows
}
