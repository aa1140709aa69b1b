package github

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/review-keeper/internal/core"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEncodeDecodeThread_RoundTrip(t *testing.T) {
	thread := core.Thread{
		ID:     99,
		Status: core.StatusActive,
		Comments: []core.Comment{
			{Body: "**Unsanitized query input**\n\nInitial finding."},
			{Body: "🔁 Re-triggered at iteration 3: still present."},
		},
		Meta: core.BotMetadata{
			IsBot:       true,
			Fingerprint: "abc123",
			IterationID: 3,
		},
	}

	body := encodeThread(thread)
	decoded := decodeThread(&githubComment{id: 99, body: body, author: "keeper[bot]"}, discardLogger())

	assert.Equal(t, thread.ID, decoded.ID)
	assert.Equal(t, thread.Status, decoded.Status)
	assert.Equal(t, thread.Meta, decoded.Meta)
	require.Len(t, decoded.Comments, 2)
	assert.Equal(t, thread.Comments[0].Body, decoded.Comments[0].Body)
	assert.Equal(t, thread.Comments[1].Body, decoded.Comments[1].Body)
}

func TestEncodeThread_MarkerIsInvisibleMarkup(t *testing.T) {
	body := encodeThread(core.Thread{
		Status: core.StatusFixed,
		Meta:   core.BotMetadata{IsBot: true, Fingerprint: "fp"},
	})

	assert.True(t, strings.HasPrefix(body, "<!-- review-keeper "),
		"marker must be an HTML comment so GitHub renders nothing")
	assert.Contains(t, body, `"status":"fixed"`)
	assert.Contains(t, body, `"fingerprint":"fp"`)
}

func TestDecodeThread_HumanCommentIsReadOnlyThread(t *testing.T) {
	decoded := decodeThread(&githubComment{
		id:     7,
		body:   "LGTM, but have you considered pagination?",
		author: "alice",
	}, discardLogger())

	assert.False(t, decoded.Meta.IsBot)
	assert.Equal(t, core.StatusActive, decoded.Status)
	require.Len(t, decoded.Comments, 1)
	assert.Equal(t, "alice", decoded.Comments[0].Author)
}

func TestDecodeThread_MalformedMarkerDegradesToHuman(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{"unterminated marker", `<!-- review-keeper {"is_bot":true`},
		{"invalid json", `<!-- review-keeper not-json --> body`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			decoded := decodeThread(&githubComment{id: 1, body: tc.body, author: "x"}, discardLogger())
			assert.False(t, decoded.Meta.IsBot, "a broken marker must never grant bot ownership")
			require.Len(t, decoded.Comments, 1)
			assert.Equal(t, tc.body, decoded.Comments[0].Body)
		})
	}
}

func TestDecodeThread_StateThreadMarker(t *testing.T) {
	body := encodeThread(core.Thread{
		Status:   core.StatusClosed,
		Comments: []core.Comment{{Body: "### Review Keeper state\n\n```json\n{}\n```"}},
		Meta:     core.BotMetadata{IsBot: true, IsStateThread: true, IterationID: 4},
	})

	decoded := decodeThread(&githubComment{id: 5, body: body}, discardLogger())
	assert.True(t, decoded.Meta.IsStateThread)
	assert.Equal(t, core.StatusClosed, decoded.Status)
	assert.Equal(t, 4, decoded.Meta.IterationID)
}
