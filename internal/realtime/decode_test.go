package realtime_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limbo/streek/internal/realtime"
	"github.com/limbo/streek/pkg/calendar"
	"github.com/limbo/streek/pkg/entity"
)

var (
	ownerID = uuid.MustParse("6f1c7a9e-2d0b-4a51-9a36-1f0e2c3b4d5e")
	habitID = uuid.MustParse("0b8e5d8c-7c6f-4f3a-8e2d-9c1b0a7f6e5d")
)

func TestDecode(t *testing.T) {
	testCases := []struct {
		Desc    string
		Payload string
		Check   func(t *testing.T, ev entity.ChangeEvent)
	}{
		{
			Desc: "habit insert",
			Payload: `{"table" : "habit", "type" : "INSERT", "user_id" : "` + ownerID.String() + `", "new" : {"id":"` + habitID.String() +
				`","user_id":"` + ownerID.String() + `","name":"Read","color":"#00B865","streak":0,"created_at":"2025-03-10T09:15:00.123456+00:00"}, "old" : null}`,
			Check: func(t *testing.T, ev entity.ChangeEvent) {
				assert.Equal(t, entity.TableHabit, ev.Table)
				assert.Equal(t, entity.ChangeInsert, ev.Kind)
				require.NotNil(t, ev.Habit)
				assert.Equal(t, "Read", ev.Habit.Name)
				assert.Equal(t, habitID, ev.HabitID)
				assert.Equal(t, 2025, ev.Habit.CreatedAt.Year())
			},
		},
		{
			Desc: "habit update",
			Payload: `{"table":"habit","type":"UPDATE","user_id":"` + ownerID.String() + `","new":{"id":"` + habitID.String() +
				`","user_id":"` + ownerID.String() + `","name":"Read","color":"#00B865","streak":4,"created_at":"2025-03-10T09:15:00+00:00"},"old":{"id":"` + habitID.String() + `"}}`,
			Check: func(t *testing.T, ev entity.ChangeEvent) {
				require.NotNil(t, ev.Habit)
				assert.Equal(t, 4, ev.Habit.Streak)
			},
		},
		{
			Desc: "habit delete carries old id",
			Payload: `{"table":"habit","type":"DELETE","user_id":"` + ownerID.String() + `","new":null,"old":{"id":"` + habitID.String() +
				`","user_id":"` + ownerID.String() + `","name":"Read","color":"#00B865","streak":4,"created_at":"2025-03-10T09:15:00+00:00"}}`,
			Check: func(t *testing.T, ev entity.ChangeEvent) {
				assert.Nil(t, ev.Habit)
				assert.Equal(t, habitID, ev.HabitID)
			},
		},
		{
			Desc: "completion insert",
			Payload: `{"table":"habit_completion","type":"INSERT","user_id":"` + ownerID.String() + `","new":{"habit_id":"` + habitID.String() +
				`","user_id":"` + ownerID.String() + `","completion_date":"2025-03-10"},"old":null}`,
			Check: func(t *testing.T, ev entity.ChangeEvent) {
				require.NotNil(t, ev.Completion)
				assert.Equal(t, calendar.Day("2025-03-10"), ev.Completion.CompletionDate)
				assert.Equal(t, habitID, ev.HabitID)
				assert.Equal(t, ownerID, ev.UserID)
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.Desc, func(t *testing.T) {
			ev, err := realtime.Decode([]byte(tc.Payload))
			require.NoError(t, err)
			tc.Check(t, ev)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	testCases := []struct {
		Desc    string
		Payload string
	}{
		{Desc: "not json", Payload: `LISTEN`},
		{Desc: "unknown table", Payload: `{"table":"user_profiles","type":"UPDATE","user_id":"` + ownerID.String() + `","new":{"id":"` + ownerID.String() + `"}}`},
		{Desc: "unknown type", Payload: `{"table":"habit","type":"TRUNCATE","user_id":"` + ownerID.String() + `"}`},
		{Desc: "missing row", Payload: `{"table":"habit","type":"INSERT","user_id":"` + ownerID.String() + `","new":null}`},
		{Desc: "bad date", Payload: `{"table":"habit_completion","type":"INSERT","user_id":"` + ownerID.String() + `","new":{"habit_id":"` + habitID.String() + `","completion_date":"10.03.2025"}}`},
		{Desc: "missing owner", Payload: `{"table":"habit_completion","type":"INSERT","new":{"habit_id":"` + habitID.String() + `","completion_date":"2025-03-10"}}`},
	}
	for _, tc := range testCases {
		t.Run(tc.Desc, func(t *testing.T) {
			_, err := realtime.Decode([]byte(tc.Payload))
			assert.Error(t, err)
		})
	}
	_, err := realtime.Decode([]byte(testCases[1].Payload))
	assert.ErrorIs(t, err, realtime.ErrUnknownTable)
}
