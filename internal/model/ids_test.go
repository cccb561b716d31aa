package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"inews-rundown-gateway/internal/model"
)

func TestDeriveRundownID(t *testing.T) {
	assert.Equal(t, model.RundownID("Q1_1"), model.DeriveRundownID(model.PlaylistID("Q1"), 1))
	assert.Equal(t, model.RundownID("Q1_2"), model.DeriveRundownID(model.PlaylistID("Q1"), 2))
}
