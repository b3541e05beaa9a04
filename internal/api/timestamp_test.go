package api

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestTimestampParsesNaiveAsLocal(t *testing.T) {
	var img Image
	require.NoError(t, json.Unmarshal([]byte(`{"id":"x","modified_at":"2025-01-05T10:20:30.123456"}`), &img))
	want := time.Date(2025, 1, 5, 10, 20, 30, 123456000, time.Local)
	require.True(t, want.Equal(img.ModifiedAt.Time))
	require.Equal(t, time.Local, img.ModifiedAt.Location())
}

func TestTimestampParsesRFC3339(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`"2025-02-10T08:00:00Z"`), &ts))
	require.True(t, time.Date(2025, 2, 10, 8, 0, 0, 0, time.UTC).Equal(ts.Time))
}

func TestTimestampNullAndEmpty(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`null`), &ts))
	require.True(t, ts.IsZero())
	require.NoError(t, json.Unmarshal([]byte(`""`), &ts))
	require.True(t, ts.IsZero())

	out, err := json.Marshal(ts)
	require.NoError(t, err)
	require.Equal(t, "null", string(out))
}

func TestTimestampRejectsGarbage(t *testing.T) {
	var ts Timestamp
	require.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
	require.Error(t, json.Unmarshal([]byte(`12`), &ts))
}

func TestTimestampRoundTripsThroughJSONAndYAML(t *testing.T) {
	ts := NewTimestamp(time.Date(2024, 12, 31, 23, 59, 0, 0, time.UTC))
	out, err := json.Marshal(ts)
	require.NoError(t, err)
	var back Timestamp
	require.NoError(t, json.Unmarshal(out, &back))
	require.True(t, ts.Equal(back.Time))

	y, err := yaml.Marshal(map[string]Timestamp{"at": ts})
	require.NoError(t, err)
	require.Contains(t, string(y), "2024-12-31T23:59:00Z")
}
