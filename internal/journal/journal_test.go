package journal

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestJournal(t *testing.T) *Journal {
	t.Helper()
	j := New(filepath.Join(t.TempDir(), "fwup.db"))
	require.NoError(t, j.Init())
	return j
}

func TestJournal_AppendAndList(t *testing.T) {
	j := newTestJournal(t)

	records, maxSeq, err := j.List()
	require.NoError(t, err)
	require.Empty(t, records)
	require.Equal(t, -1, maxSeq)

	first := Record{RunID: "run-1", State: "CheckingForUpdate"}
	require.NoError(t, j.Append(&first))
	require.NotEmpty(t, first.ID, "Append must assign an id")
	require.NotEmpty(t, first.DeviceTime, "Append must assign a device time")

	second := Record{RunID: "run-1", State: "UpToDate", Details: `{"version":"2.0.0"}`}
	require.NoError(t, j.Append(&second))

	records, maxSeq, err = j.List()
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.GreaterOrEqual(t, maxSeq, 2)
	require.Equal(t, first, records[0])
	require.Equal(t, second, records[1])
}

func TestJournal_Prune(t *testing.T) {
	j := newTestJournal(t)
	require.NoError(t, j.Append(&Record{RunID: "run-1", State: "CheckingForUpdate"}))
	require.NoError(t, j.Append(&Record{RunID: "run-1", State: "UpToDate"}))

	_, maxSeq, err := j.List()
	require.NoError(t, err)
	require.NoError(t, j.Prune(maxSeq))

	records, maxSeq, err := j.List()
	require.NoError(t, err)
	require.Empty(t, records)
	require.Equal(t, -1, maxSeq)

	// Records appended after a prune keep growing the sequence.
	require.NoError(t, j.Append(&Record{RunID: "run-2", State: "CheckingForUpdate"}))
	records, _, err = j.List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "run-2", records[0].RunID)
}

func TestJournal_InitIsIdempotent(t *testing.T) {
	j := newTestJournal(t)
	require.NoError(t, j.Append(&Record{RunID: "run-1", State: "Idle"}))
	require.NoError(t, j.Init())

	records, _, err := j.List()
	require.NoError(t, err)
	require.Len(t, records, 1)
}
