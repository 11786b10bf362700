package tracker_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/project-time/internal/model"
)

func TestExportCSV(t *testing.T) {
	tr, _ := newTracker(t, false)
	punch(t, tr, at(19, 8, 0), "ECM", "ECM-1 login; 100% done")
	punch(t, tr, at(19, 17, 0), model.ProjectNone)

	var buf bytes.Buffer
	require.NoError(t, tr.ExportCSV(context.Background(), &buf))

	want := "timestamp;project;description\n" +
		"2026-10-19T08:00:00.000Z;\"ECM\";\"ECM-1%20login%3B%20100%25%20done\"\n" +
		"2026-10-19T17:00:00.000Z;\"None\";\"\"\n"
	assert.Equal(t, want, buf.String())
}

func TestExportCSV_ConvertsToUTC(t *testing.T) {
	tr, _ := newTracker(t, false)
	berlin := time.FixedZone("CEST", 2*60*60)
	punch(t, tr, time.Date(2026, 10, 19, 10, 0, 0, 0, berlin), "ECM", "it's (done)!")

	var buf bytes.Buffer
	require.NoError(t, tr.ExportCSV(context.Background(), &buf))
	assert.Contains(t, buf.String(), "2026-10-19T08:00:00.000Z;\"ECM\";\"it's%20(done)!\"\n")
}

func TestImportCSV_RoundTrip(t *testing.T) {
	src, _ := newTracker(t, false)
	exampleMonday(t, src)
	require.NoError(t, src.UpdateDescription(context.Background(), at(19, 8, 0), "ümlaut & \"quotes\""))

	var buf bytes.Buffer
	require.NoError(t, src.ExportCSV(context.Background(), &buf))

	dst, store := newTracker(t, false)
	res, err := dst.ImportCSV(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Added)
	assert.Zero(t, res.Skipped)

	p, err := store.Get(context.Background(), at(19, 8, 0))
	require.NoError(t, err)
	assert.Equal(t, "ümlaut & \"quotes\"", p.Description)
	assert.Equal(t, 8.5, dst.Day(at(19, 0, 0)).TotalHours)
}

func TestImportCSV_SkipsExisting(t *testing.T) {
	tr, _ := newTracker(t, false)
	punch(t, tr, at(19, 8, 0), "ECM")

	in := "timestamp;project;description\n" +
		"2026-10-19T08:00:00.000Z;\"Other\";\"\"\n" +
		"2026-10-19T09:00:00.000Z;\"Other\";\"x\"\n"
	res, err := tr.ImportCSV(context.Background(), strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, "Other", tr.CurrentProject())
}

func TestImportCSV_UndefinedDescription(t *testing.T) {
	tr, store := newTracker(t, false)
	ctx := context.Background()

	in := "timestamp;project;description\n" +
		"2026-10-19T08:00:00.000Z;\"ECM\";\"undefined\"\n" +
		"2026-10-19T17:00:00.000Z;\"None\";undefined\n"
	res, err := tr.ImportCSV(ctx, strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Added)

	for _, key := range []time.Time{at(19, 8, 0), at(19, 17, 0)} {
		p, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Empty(t, p.Description)
	}
}

func TestImportCSV_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"bad timestamp", "yesterday;\"ECM\";\"\"\n"},
		{"empty project", "2026-10-19T08:00:00.000Z;\"\";\"\"\n"},
		{"missing column", "2026-10-19T08:00:00.000Z;\"ECM\"\n"},
		{"bad escape", "2026-10-19T08:00:00.000Z;\"ECM\";\"%zz\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, store := newTracker(t, false)
			_, err := tr.ImportCSV(context.Background(), strings.NewReader(tt.in))
			assert.Error(t, err)

			keys, err := store.Keys(context.Background())
			require.NoError(t, err)
			assert.Empty(t, keys)
		})
	}
}
