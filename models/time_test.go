package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPITime_UnmarshalFixedLayout(t *testing.T) {
	var ts APITime
	require.NoError(t, json.Unmarshal([]byte(`"2026-03-01T12:30:45Z"`), &ts))

	assert.Equal(t, time.Date(2026, 3, 1, 12, 30, 45, 0, time.UTC), ts.Time())
}

func TestAPITime_UnmarshalFractionalSeconds(t *testing.T) {
	var ts APITime
	require.NoError(t, json.Unmarshal([]byte(`"2026-03-01T12:30:45.123456Z"`), &ts))

	assert.Equal(t, 2026, ts.Time().Year())
	assert.Equal(t, 123456000, ts.Time().Nanosecond())
}

func TestAPITime_UnmarshalEmptyAndNull(t *testing.T) {
	var ts APITime
	require.NoError(t, ts.UnmarshalJSON([]byte(`""`)))
	assert.True(t, ts.Time().IsZero())

	require.NoError(t, ts.UnmarshalJSON([]byte(`null`)))
	assert.True(t, ts.Time().IsZero())
}

func TestAPITime_UnmarshalInvalid(t *testing.T) {
	var ts APITime
	assert.Error(t, json.Unmarshal([]byte(`"01.03.2026"`), &ts))
}

func TestAPITime_MarshalUsesFixedLayout(t *testing.T) {
	ts := APITime(time.Date(2026, 3, 1, 12, 30, 45, 0, time.UTC))

	data, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2026-03-01T12:30:45Z"`, string(data))
}

func TestNoteResponse_ToNoteIsSynced(t *testing.T) {
	resp := NoteResponse{ID: 3, Title: "a", Description: "b"}

	note := resp.ToNote()
	assert.True(t, note.IsSynced)
	assert.False(t, note.IsDeleted)
	assert.False(t, note.IsLocalOnly())
}

func TestNote_IsLocalOnly(t *testing.T) {
	assert.True(t, Note{ID: -12345}.IsLocalOnly())
	assert.False(t, Note{ID: 1}.IsLocalOnly())
}

func TestNotesPage_HasNext(t *testing.T) {
	next := "http://localhost:8000/api/notes/?page=2"
	empty := ""

	assert.True(t, NotesPage{Next: &next}.HasNext())
	assert.False(t, NotesPage{Next: &empty}.HasNext())
	assert.False(t, NotesPage{}.HasNext())
}
