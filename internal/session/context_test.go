package session

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillchat/session-platform/internal/model"
)

func TestHistoryWindowFiltersAndBounds(t *testing.T) {
	var messages []*model.Message
	for i := 0; i < 20; i++ {
		messages = append(messages, &model.Message{
			Role:    model.RoleUser,
			Content: fmt.Sprintf("m%d", i),
		})
	}
	messages[3].Error = true
	messages[7].Regenerated = true

	window := historyWindow(messages, 15)

	require.Len(t, window, 15)
	// Oldest discarded first: the window ends at the newest message.
	assert.Equal(t, "m19", window[len(window)-1].Content)
	for _, entry := range window {
		assert.NotEqual(t, "m3", entry.Content)
		assert.NotEqual(t, "m7", entry.Content)
	}
}

func TestHistoryWindowSkipsStreamingPlaceholder(t *testing.T) {
	messages := []*model.Message{
		{Role: model.RoleUser, Content: "q"},
		{Role: model.RoleAssistant, Content: "partial", Streaming: true},
	}

	window := historyWindow(messages, 15)

	require.Len(t, window, 1)
	assert.Equal(t, "q", window[0].Content)
}

func TestBuildContextFixedOrder(t *testing.T) {
	opts := Options{
		ResponseLength: model.ResponseLengthConcise,
		Creativity:     model.CreativityCreative,
		Profile:        &model.Profile{DisplayName: "Ada"},
	}

	got := buildContext("You are a helpful aide.", opts)

	want := "You are a helpful aide.\n" +
		lengthDirectives[model.ResponseLengthConcise] + "\n" +
		creativityDirectives[model.CreativityCreative] + "\n" +
		"Address the user as Ada."
	assert.Equal(t, want, got)
}

func TestBuildContextSkipsAbsentParts(t *testing.T) {
	assert.Empty(t, buildContext("", Options{}))

	got := buildContext("", Options{Creativity: model.CreativityPrecise})
	assert.Equal(t, creativityDirectives[model.CreativityPrecise], got)
}

func TestProfileContext(t *testing.T) {
	assert.Empty(t, profileContext(nil))
	assert.Equal(t, "pragmatic mentor", profileContext(&model.Profile{Persona: "pragmatic mentor"}))
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		content string
		want    int
	}{
		{"", 0},
		{"a", 1},
		{"abcd", 1},
		{"abcde", 2},
		{"Hello", 2},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, estimateTokens(tt.content), "content %q", tt.content)
	}
}
