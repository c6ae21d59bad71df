package prompt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillchat/session-platform/internal/model"
	"github.com/quillchat/session-platform/internal/prompt"
)

func TestDefaultCatalog(t *testing.T) {
	catalog := prompt.NewCatalog(nil)
	assert.NotEmpty(t, catalog.List())
}

func TestPick(t *testing.T) {
	catalog := prompt.NewCatalog([]model.Suggestion{
		{ID: "greet", Title: "Greet", Text: "Say hello!", AutoSubmit: true},
	})

	got, err := catalog.Pick("greet")
	require.NoError(t, err)
	assert.Equal(t, "Say hello!", got.Text)
	assert.True(t, got.AutoSubmit)

	_, err = catalog.Pick("missing")
	assert.ErrorIs(t, err, prompt.ErrNotFound)
}
