package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/project-time/internal/model"
	"github.com/Tiliavir/project-time/internal/storage"
)

func TestProjectList(t *testing.T) {
	list := storage.NewProjectList(t.TempDir())

	names, err := list.Names()
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, list.Add("zeta"))
	require.NoError(t, list.Add("Alpha"))
	require.NoError(t, list.Add(" beta "))

	names, err = list.Names()
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "beta", "zeta"}, names)

	assert.Error(t, list.Add("beta"), "duplicate")
	assert.Error(t, list.Add(model.ProjectLunch), "reserved")
	assert.Error(t, list.Add("  "), "empty")

	require.NoError(t, list.Remove("beta"))
	require.NoError(t, list.Remove("unknown"))

	all, err := list.All()
	require.NoError(t, err)
	assert.Equal(t, []string{
		model.ProjectNone, model.ProjectOutOfOffice, model.ProjectLunch, model.ProjectBreak,
		"Alpha", "zeta",
	}, all)
}
