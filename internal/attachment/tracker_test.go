package attachment_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillchat/session-platform/internal/attachment"
	"github.com/quillchat/session-platform/internal/model"
)

func TestAddValidation(t *testing.T) {
	tracker := attachment.NewTracker(attachment.FixedSource(50))

	t.Run("empty name rejected", func(t *testing.T) {
		_, err := tracker.Add("  ", 10, "text/plain")
		assert.ErrorIs(t, err, attachment.ErrEmptyName)
	})

	t.Run("oversize file rejected", func(t *testing.T) {
		_, err := tracker.Add("big.bin", attachment.MaxFileSize+1, "application/octet-stream")
		assert.ErrorIs(t, err, attachment.ErrFileTooLarge)
	})

	t.Run("selection bounded", func(t *testing.T) {
		for i := 0; i < attachment.MaxFiles; i++ {
			_, err := tracker.Add("ok.txt", 10, "text/plain")
			require.NoError(t, err)
		}
		_, err := tracker.Add("one-too-many.txt", 10, "text/plain")
		assert.ErrorIs(t, err, attachment.ErrTooManyFiles)
	})
}

func TestAdvanceCompletesUploads(t *testing.T) {
	tracker := attachment.NewTracker(attachment.FixedSource(60))

	att, err := tracker.Add("notes.txt", 128, "text/plain")
	require.NoError(t, err)
	assert.Equal(t, model.AttachmentPending, att.State)

	tracker.Advance()
	items := tracker.Selected()
	require.Len(t, items, 1)
	assert.Equal(t, model.AttachmentUploading, items[0].State)
	assert.Equal(t, 60, items[0].Progress)

	tracker.Advance()
	items = tracker.Selected()
	assert.Equal(t, model.AttachmentComplete, items[0].State)
	assert.Equal(t, 100, items[0].Progress)

	// Terminal uploads stay put.
	tracker.Advance()
	assert.Equal(t, 100, tracker.Selected()[0].Progress)
}

func TestAdvanceMarksFailures(t *testing.T) {
	tracker := attachment.NewTracker(attachment.FailingSource{})

	_, err := tracker.Add("doomed.txt", 128, "text/plain")
	require.NoError(t, err)

	tracker.Advance()
	assert.Equal(t, model.AttachmentFailed, tracker.Selected()[0].State)
}

func TestRemoveAndClear(t *testing.T) {
	tracker := attachment.NewTracker(attachment.FixedSource(50))

	att, err := tracker.Add("a.txt", 10, "text/plain")
	require.NoError(t, err)
	_, err = tracker.Add("b.txt", 10, "text/plain")
	require.NoError(t, err)

	require.NoError(t, tracker.Remove(att.ID))
	assert.Len(t, tracker.Selected(), 1)
	assert.ErrorIs(t, tracker.Remove(att.ID), attachment.ErrNotFound)

	tracker.Clear()
	assert.Empty(t, tracker.Selected())
}
