package realtime

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"github.com/limbo/streek/pkg/entity"
)

var ErrUnknownTable = errors.New("change of unknown table")

// change is the payload built by the streek_notify_change trigger.
type change struct {
	Table  string          `json:"table"`
	Type   string          `json:"type"`
	UserID uuid.UUID       `json:"user_id"`
	New    json.RawMessage `json:"new"`
	Old    json.RawMessage `json:"old"`
}

// Decode turns a notification payload into a typed change event.
func Decode(payload []byte) (entity.ChangeEvent, error) {
	var c change
	if err := sonic.Unmarshal(payload, &c); err != nil {
		return entity.ChangeEvent{}, errors.New("decoding change payload error: " + err.Error())
	}
	ev := entity.ChangeEvent{
		Table:  c.Table,
		Kind:   entity.ChangeKind(c.Type),
		UserID: c.UserID,
	}
	switch ev.Kind {
	case entity.ChangeInsert, entity.ChangeUpdate, entity.ChangeDelete:
	default:
		return entity.ChangeEvent{}, fmt.Errorf("unknown change type %q", c.Type)
	}
	row := c.New
	if ev.Kind == entity.ChangeDelete {
		row = c.Old
	}
	if isNull(row) {
		return entity.ChangeEvent{}, fmt.Errorf("%s %s without row", c.Table, c.Type)
	}

	switch c.Table {
	case entity.TableHabit:
		var h entity.Habit
		if err := sonic.Unmarshal(row, &h); err != nil {
			return entity.ChangeEvent{}, errors.New("decoding habit row error: " + err.Error())
		}
		ev.HabitID = h.ID
		if ev.Kind != entity.ChangeDelete {
			ev.Habit = &h
		}
	case entity.TableHabitCompletion:
		var hc entity.HabitCompletion
		if err := sonic.Unmarshal(row, &hc); err != nil {
			return entity.ChangeEvent{}, errors.New("decoding completion row error: " + err.Error())
		}
		if !hc.CompletionDate.Valid() {
			return entity.ChangeEvent{}, fmt.Errorf("invalid completion date %q", hc.CompletionDate)
		}
		ev.HabitID = hc.HabitID
		ev.Completion = &hc
	default:
		return entity.ChangeEvent{}, fmt.Errorf("%w: %q", ErrUnknownTable, c.Table)
	}
	if ev.UserID == uuid.Nil {
		return entity.ChangeEvent{}, errors.New("change without owner")
	}
	return ev, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
