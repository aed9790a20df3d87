package schedule

import "errors"

// Editable cell fields of the weekly grid.
const (
	FieldSubject = "subject"
	FieldVenue   = "venue"
)

type ActionType string

const (
	ActionSetCell ActionType = "set_cell"
	ActionExtend  ActionType = "extend"
	ActionReset   ActionType = "reset"
)

// Action is one state transition of the weekly editor.
type Action struct {
	Type  ActionType
	Day   string
	Slot  string
	Field string
	Value string
	Grid  Grid
}

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrUnknownField  = errors.New("unknown field")
	ErrCellNotFound  = errors.New("cell not found")
)

// Apply is the weekly editor's reducer: it returns the grid produced by one
// action without mutating the input. Setting a field to the empty string
// clears it; a cell with no remaining content is removed, and a day with no
// remaining slots is removed with it.
func Apply(grid Grid, action Action) (Grid, error) {
	switch action.Type {
	case ActionSetCell:
		return applySetCell(grid, action)
	case ActionExtend:
		return applyExtend(grid, action)
	case ActionReset:
		if action.Grid == nil {
			return make(Grid), nil
		}
		return action.Grid.Clone(), nil
	default:
		return nil, ErrUnknownAction
	}
}

func applySetCell(grid Grid, action Action) (Grid, error) {
	if action.Field != FieldSubject && action.Field != FieldVenue {
		return nil, ErrUnknownField
	}
	next := grid.Clone()
	slots, ok := next[action.Day]
	if !ok {
		slots = make(map[string]Cell)
		next[action.Day] = slots
	}
	cell := slots[action.Slot]
	switch action.Field {
	case FieldSubject:
		cell.Subject = action.Value
	case FieldVenue:
		cell.Venue = action.Value
	}
	if cell.Empty() {
		delete(slots, action.Slot)
		if len(slots) == 0 {
			delete(next, action.Day)
		}
		return next, nil
	}
	slots[action.Slot] = cell
	return next, nil
}

func applyExtend(grid Grid, action Action) (Grid, error) {
	cell, ok := grid.Cell(action.Day, action.Slot)
	if !ok {
		return nil, ErrCellNotFound
	}
	next := grid.Clone()
	duration := cell.Duration
	if duration < 1 {
		duration = 1
	}
	cell.Duration = duration + 1
	next[action.Day][action.Slot] = cell
	return next, nil
}
