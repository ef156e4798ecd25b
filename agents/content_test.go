// Copyright (c) Microsoft. All rights reserved.

package agents_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	af "github.com/azure-ai-foundry/foundry-samples/go/agentframework"
	"github.com/azure-ai-foundry/foundry-samples/go/agents"
)

const messageWithAnnotations = `{
  "id": "msg_1",
  "object": "thread.message",
  "created_at": 1700000000,
  "thread_id": "thread_1",
  "role": "assistant",
  "assistant_id": "asst_1",
  "run_id": "run_1",
  "content": [
    {
      "type": "text",
      "text": {
        "value": "Prices rose【3:0†source】 per the report【3:1†source】.",
        "annotations": [
          {
            "type": "url_citation",
            "text": "【3:0†source】",
            "start_index": 10,
            "end_index": 22,
            "url_citation": {"url": "https://example.com/news", "title": "News"}
          },
          {
            "type": "file_citation",
            "text": "【3:1†source】",
            "file_citation": {"file_id": "file_abc", "quote": "up 3%"}
          },
          {
            "type": "future_citation",
            "text": "?"
          }
        ]
      }
    },
    {"type": "image_file", "image_file": {"file_id": "file_img"}},
    {"type": "audio", "audio": {"id": "aud_1"}}
  ]
}`

func TestThreadMessage_Decode(t *testing.T) {
	var m agents.ThreadMessage
	require.NoError(t, json.Unmarshal([]byte(messageWithAnnotations), &m))

	assert.Equal(t, "msg_1", m.ID)
	assert.Equal(t, agents.MessageRoleAssistant, m.Role)
	assert.Equal(t, "asst_1", m.AgentID)
	require.Len(t, m.Content, 3)

	text, ok := m.Content[0].(*agents.TextContent)
	require.True(t, ok)
	require.Len(t, text.Annotations, 3)

	url, ok := text.Annotations[0].(*agents.URLCitationAnnotation)
	require.True(t, ok)
	assert.Equal(t, "https://example.com/news", url.URL)
	assert.Equal(t, "News", url.Title)
	assert.Equal(t, 10, url.StartIndex)
	assert.Equal(t, 22, url.EndIndex)

	file, ok := text.Annotations[1].(*agents.FileCitationAnnotation)
	require.True(t, ok)
	assert.Equal(t, "file_abc", file.FileID)
	assert.Equal(t, "up 3%", file.Quote)

	unknown, ok := text.Annotations[2].(*agents.UnknownAnnotation)
	require.True(t, ok)
	assert.Equal(t, "future_citation", unknown.Type)
	assert.Equal(t, `{"type":"future_citation","text":"?"}`, string(unknown.Raw))

	img, ok := m.Content[1].(*agents.ImageFileContent)
	require.True(t, ok)
	assert.Equal(t, "file_img", img.FileID)

	audio, ok := m.Content[2].(*agents.UnknownContent)
	require.True(t, ok)
	assert.Equal(t, "audio", audio.ContentType())
	assert.Contains(t, string(audio.Raw), "aud_1")
}

func TestThreadMessage_RoundTripKeepsUnknownContent(t *testing.T) {
	var m agents.ThreadMessage
	require.NoError(t, json.Unmarshal([]byte(messageWithAnnotations), &m))

	data, err := json.Marshal(m)
	require.NoError(t, err)

	var back agents.ThreadMessage
	require.NoError(t, json.Unmarshal(data, &back))
	require.Len(t, back.Content, 3)
	assert.Equal(t, m.Content[0], back.Content[0])
	assert.Equal(t, m.Content[1], back.Content[1])
	assert.Equal(t, "audio", back.Content[2].ContentType())

	again, err := json.Marshal(back)
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(again))
}

func TestThreadMessage_Text(t *testing.T) {
	m := agents.ThreadMessage{Content: []agents.MessageContent{
		&agents.TextContent{Value: "first"},
		&agents.ImageFileContent{FileID: "file_1"},
		&agents.TextContent{Value: "second"},
	}}
	assert.Equal(t, "first\nsecond", m.Text())
	assert.Empty(t, (&agents.ThreadMessage{}).Text())
}

func TestResolveCitations(t *testing.T) {
	text := "See【1】 and【2】 and【3】 and【4】."
	annotations := []agents.Annotation{
		&agents.URLCitationAnnotation{Text: "【1】", URL: "https://a.example", Title: "A"},
		&agents.URLCitationAnnotation{Text: "【2】", URL: "https://b.example"},
		&agents.FileCitationAnnotation{Text: "【3】", FileID: "file_known"},
		&agents.FilePathAnnotation{Text: "【4】", FileID: "file_missing"},
		&agents.URLCitationAnnotation{URL: "https://ignored.example"},
		&agents.UnknownAnnotation{Type: "other", Text: "See"},
	}
	names := map[string]string{"file_known": "report.pdf"}

	got := agents.ResolveCitations(text, annotations, names)
	assert.Equal(t,
		"See [A](https://a.example) and [https://b.example](https://b.example) and [report.pdf] and [file_missing].",
		got)
}

func TestResolveCitations_RepeatedPlaceholder(t *testing.T) {
	got := agents.ResolveCitations("x【1】 y【1】", []agents.Annotation{
		&agents.FileCitationAnnotation{Text: "【1】", FileID: "file_1"},
	}, nil)
	assert.Equal(t, "x [file_1] y [file_1]", got)
}

func TestResolvedTextAndCitedFiles(t *testing.T) {
	var m agents.ThreadMessage
	require.NoError(t, json.Unmarshal([]byte(messageWithAnnotations), &m))

	got := m.ResolvedText(map[string]string{"file_abc": "prices.csv"})
	assert.Equal(t, "Prices rose [News](https://example.com/news) per the report [prices.csv].", got)

	text := m.Content[0].(*agents.TextContent)
	assert.Equal(t, []string{"file_abc"}, agents.CitedFileIDs(text.Annotations))
}

func TestLatestAssistantMessage(t *testing.T) {
	msgs := []agents.ThreadMessage{
		{ID: "a", Role: agents.MessageRoleAssistant, CreatedAt: 5},
		{ID: "u", Role: agents.MessageRoleUser, CreatedAt: 9},
		{ID: "b", Role: agents.MessageRoleAssistant, CreatedAt: 7},
		{ID: "c", Role: agents.MessageRoleAssistant, CreatedAt: 7},
	}
	m, ok := agents.LatestAssistantMessage(msgs)
	require.True(t, ok)
	assert.Equal(t, "c", m.ID)

	_, ok = agents.LatestAssistantMessage(msgs[1:2])
	assert.False(t, ok)
	_, ok = agents.LatestAssistantMessage(nil)
	assert.False(t, ok)
}

func TestMessageInput_JSON(t *testing.T) {
	t.Run("plain text", func(t *testing.T) {
		data, err := json.Marshal(agents.UserMessage("hello"))
		require.NoError(t, err)
		assert.JSONEq(t, `{"role":"user","content":"hello"}`, string(data))
	})

	t.Run("blocks", func(t *testing.T) {
		in := agents.MessageInput{
			Role: agents.MessageRoleUser,
			Blocks: []agents.InputContentBlock{
				agents.TextBlock("what is this?"),
				agents.ImageFileBlock("file_1", "high"),
				agents.ImageURLBlock("https://example.com/cat.png", ""),
			},
		}
		data, err := json.Marshal(in)
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"role": "user",
			"content": [
				{"type": "text", "text": "what is this?"},
				{"type": "image_file", "image_file": {"file_id": "file_1", "detail": "high"}},
				{"type": "image_url", "image_url": {"url": "https://example.com/cat.png"}}
			]
		}`, string(data))

		var back agents.MessageInput
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, in, back)
	})

	t.Run("default role", func(t *testing.T) {
		data, err := json.Marshal(agents.MessageInput{Content: "hi"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"role":"user","content":"hi"}`, string(data))
	})
}

func TestMessageDeltaEvent_TextOrdersByIndex(t *testing.T) {
	payload := `{
		"id": "msg_1",
		"object": "thread.message.delta",
		"delta": {
			"content": [
				{"index": 1, "type": "text", "text": {"value": " world"}},
				{"index": 0, "type": "text", "text": {"value": "hello"}},
				{"index": 2, "type": "image_file", "image_file": {"file_id": "f"}}
			]
		}
	}`
	var d agents.MessageDelta
	require.NoError(t, json.Unmarshal([]byte(payload), &d))
	require.Len(t, d.Content, 3)
	assert.Equal(t, 1, d.Content[0].Index)

	ev := &agents.MessageDeltaEvent{Event: agents.EventMessageDelta, Delta: d}
	assert.Equal(t, "hello world", ev.Text())
}

func TestRunErr(t *testing.T) {
	tests := []struct {
		name    string
		run     agents.Run
		wantNil bool
		want    af.RunError
	}{
		{name: "in progress", run: agents.Run{ID: "r", Status: agents.RunStatusInProgress}, wantNil: true},
		{name: "completed", run: agents.Run{ID: "r", Status: agents.RunStatusCompleted}, wantNil: true},
		{
			name: "failed",
			run: agents.Run{ID: "r", Status: agents.RunStatusFailed,
				LastError: &agents.LastError{Code: "rate_limit_exceeded", Message: "slow down"}},
			want: af.RunError{RunID: "r", Status: "failed", Code: "rate_limit_exceeded", Message: "slow down"},
		},
		{
			name: "incomplete",
			run: agents.Run{ID: "r", Status: agents.RunStatusIncomplete,
				IncompleteDetails: &agents.IncompleteDetails{Reason: "max_prompt_tokens"}},
			want: af.RunError{RunID: "r", Status: "incomplete", Message: "max_prompt_tokens"},
		},
		{
			name: "cancelled",
			run:  agents.Run{ID: "r", Status: agents.RunStatusCancelled},
			want: af.RunError{RunID: "r", Status: "cancelled"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run.Err()
			if tt.wantNil {
				assert.NoError(t, err)
				return
			}
			var re *af.RunError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, tt.want, *re)
			assert.ErrorIs(t, err, af.ErrRunFailed)
		})
	}
}
