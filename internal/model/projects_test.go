package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Tiliavir/project-time/internal/model"
)

func TestIsBreak(t *testing.T) {
	tests := []struct {
		project string
		want    bool
	}{
		{model.ProjectLunch, true},
		{model.ProjectBreak, true},
		{model.ProjectNone, false},
		{model.ProjectOutOfOffice, false},
		{"ECM", false},
		{"lunch", false},
	}
	for _, tt := range tests {
		t.Run(tt.project, func(t *testing.T) {
			assert.Equal(t, tt.want, model.IsBreak(tt.project))
		})
	}
}

func TestIsBreak_FollowsSystemProjects(t *testing.T) {
	for _, sp := range model.SystemProjects {
		assert.Equal(t, sp.Break, model.IsBreak(sp.Name), sp.Name)
	}
}
