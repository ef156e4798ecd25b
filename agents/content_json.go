// Copyright (c) Microsoft. All rights reserved.

package agents

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Wire shapes of message content and annotations.

type contentJSON struct {
	Type      string        `json:"type"`
	Index     *int          `json:"index,omitempty"`
	Text      *textJSON     `json:"text,omitempty"`
	ImageFile *ImageFileRef `json:"image_file,omitempty"`
	ImageURL  *ImageURLRef  `json:"image_url,omitempty"`
}

type textJSON struct {
	Value       string            `json:"value"`
	Annotations []json.RawMessage `json:"annotations"`
}

type annotationJSON struct {
	Type         string            `json:"type"`
	Text         string            `json:"text"`
	StartIndex   int               `json:"start_index,omitempty"`
	EndIndex     int               `json:"end_index,omitempty"`
	FileCitation *fileCitationJSON `json:"file_citation,omitempty"`
	URLCitation  *urlCitationJSON  `json:"url_citation,omitempty"`
	FilePath     *filePathJSON     `json:"file_path,omitempty"`
}

type fileCitationJSON struct {
	FileID string `json:"file_id"`
	Quote  string `json:"quote,omitempty"`
}

type urlCitationJSON struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

type filePathJSON struct {
	FileID string `json:"file_id"`
}

func unmarshalContent(raw json.RawMessage) (MessageContent, error) {
	var w contentJSON
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decode message content: %w", err)
	}
	switch w.Type {
	case "text":
		tc := &TextContent{}
		if w.Text != nil {
			tc.Value = w.Text.Value
			for _, ra := range w.Text.Annotations {
				a, err := unmarshalAnnotation(ra)
				if err != nil {
					return nil, err
				}
				tc.Annotations = append(tc.Annotations, a)
			}
		}
		return tc, nil
	case "image_file":
		c := &ImageFileContent{}
		if w.ImageFile != nil {
			c.FileID = w.ImageFile.FileID
		}
		return c, nil
	case "image_url":
		c := &ImageURLContent{}
		if w.ImageURL != nil {
			c.URL = w.ImageURL.URL
			c.Detail = w.ImageURL.Detail
		}
		return c, nil
	default:
		return &UnknownContent{Type: w.Type, Raw: compactRaw(raw)}, nil
	}
}

func marshalContent(c MessageContent) (json.RawMessage, error) {
	var w contentJSON
	switch c := c.(type) {
	case *TextContent:
		t := &textJSON{Value: c.Value, Annotations: []json.RawMessage{}}
		for _, a := range c.Annotations {
			ra, err := marshalAnnotation(a)
			if err != nil {
				return nil, err
			}
			t.Annotations = append(t.Annotations, ra)
		}
		w = contentJSON{Type: "text", Text: t}
	case *ImageFileContent:
		w = contentJSON{Type: "image_file", ImageFile: &ImageFileRef{FileID: c.FileID}}
	case *ImageURLContent:
		w = contentJSON{Type: "image_url", ImageURL: &ImageURLRef{URL: c.URL, Detail: c.Detail}}
	case *UnknownContent:
		if len(c.Raw) > 0 {
			return json.RawMessage(c.Raw), nil
		}
		w = contentJSON{Type: c.Type}
	default:
		return nil, fmt.Errorf("unsupported message content %T", c)
	}
	return json.Marshal(w)
}

func unmarshalAnnotation(raw json.RawMessage) (Annotation, error) {
	var w annotationJSON
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decode annotation: %w", err)
	}
	switch {
	case w.Type == "file_citation" && w.FileCitation != nil:
		return &FileCitationAnnotation{
			Text:       w.Text,
			FileID:     w.FileCitation.FileID,
			Quote:      w.FileCitation.Quote,
			StartIndex: w.StartIndex,
			EndIndex:   w.EndIndex,
		}, nil
	case w.Type == "url_citation" && w.URLCitation != nil:
		return &URLCitationAnnotation{
			Text:       w.Text,
			URL:        w.URLCitation.URL,
			Title:      w.URLCitation.Title,
			StartIndex: w.StartIndex,
			EndIndex:   w.EndIndex,
		}, nil
	case w.Type == "file_path" && w.FilePath != nil:
		return &FilePathAnnotation{
			Text:       w.Text,
			FileID:     w.FilePath.FileID,
			StartIndex: w.StartIndex,
			EndIndex:   w.EndIndex,
		}, nil
	}
	return &UnknownAnnotation{Type: w.Type, Text: w.Text, Raw: compactRaw(raw)}, nil
}

func marshalAnnotation(a Annotation) (json.RawMessage, error) {
	var w annotationJSON
	switch a := a.(type) {
	case *FileCitationAnnotation:
		w = annotationJSON{
			Type: "file_citation", Text: a.Text, StartIndex: a.StartIndex, EndIndex: a.EndIndex,
			FileCitation: &fileCitationJSON{FileID: a.FileID, Quote: a.Quote},
		}
	case *URLCitationAnnotation:
		w = annotationJSON{
			Type: "url_citation", Text: a.Text, StartIndex: a.StartIndex, EndIndex: a.EndIndex,
			URLCitation: &urlCitationJSON{URL: a.URL, Title: a.Title},
		}
	case *FilePathAnnotation:
		w = annotationJSON{
			Type: "file_path", Text: a.Text, StartIndex: a.StartIndex, EndIndex: a.EndIndex,
			FilePath: &filePathJSON{FileID: a.FileID},
		}
	case *UnknownAnnotation:
		if len(a.Raw) > 0 {
			return json.RawMessage(a.Raw), nil
		}
		w = annotationJSON{Type: a.Type, Text: a.Text}
	default:
		return nil, fmt.Errorf("unsupported annotation %T", a)
	}
	return json.Marshal(w)
}

type threadMessageJSON ThreadMessage

// MarshalJSON encodes the message with its content blocks in wire form.
func (m ThreadMessage) MarshalJSON() ([]byte, error) {
	content := make([]json.RawMessage, 0, len(m.Content))
	for _, c := range m.Content {
		raw, err := marshalContent(c)
		if err != nil {
			return nil, err
		}
		content = append(content, raw)
	}
	return json.Marshal(struct {
		threadMessageJSON
		Content []json.RawMessage `json:"content"`
	}{threadMessageJSON(m), content})
}

// UnmarshalJSON decodes the message and its typed content blocks.
func (m *ThreadMessage) UnmarshalJSON(data []byte) error {
	w := struct {
		*threadMessageJSON
		Content []json.RawMessage `json:"content"`
	}{threadMessageJSON: (*threadMessageJSON)(m)}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	m.Content = nil
	for _, raw := range w.Content {
		c, err := unmarshalContent(raw)
		if err != nil {
			return err
		}
		m.Content = append(m.Content, c)
	}
	return nil
}

type messageInputJSON struct {
	Role        MessageRole       `json:"role"`
	Content     json.RawMessage   `json:"content"`
	Attachments []Attachment      `json:"attachments,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// MarshalJSON sends Content as a string, or Blocks as an array when set.
// An empty role defaults to user.
func (in MessageInput) MarshalJSON() ([]byte, error) {
	w := messageInputJSON{Role: in.Role, Attachments: in.Attachments, Metadata: in.Metadata}
	if w.Role == "" {
		w.Role = MessageRoleUser
	}
	var err error
	if len(in.Blocks) > 0 {
		w.Content, err = json.Marshal(in.Blocks)
	} else {
		w.Content, err = json.Marshal(in.Content)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

// UnmarshalJSON accepts content as either a string or an array of blocks.
func (in *MessageInput) UnmarshalJSON(data []byte) error {
	var w messageInputJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*in = MessageInput{Role: w.Role, Attachments: w.Attachments, Metadata: w.Metadata}
	content := bytes.TrimSpace(w.Content)
	switch {
	case len(content) == 0 || bytes.Equal(content, []byte("null")):
		return nil
	case content[0] == '"':
		return json.Unmarshal(content, &in.Content)
	default:
		return json.Unmarshal(content, &in.Blocks)
	}
}

// MessageDelta is the incremental change carried by a thread.message.delta event.
type MessageDelta struct {
	ID      string
	Role    MessageRole
	Content []MessageDeltaContent
}

// MessageDeltaContent is a partial content block at position Index of the message.
type MessageDeltaContent struct {
	Index   int
	Content MessageContent
}

type messageDeltaJSON struct {
	ID    string `json:"id"`
	Delta struct {
		Role    MessageRole       `json:"role,omitempty"`
		Content []json.RawMessage `json:"content"`
	} `json:"delta"`
}

// UnmarshalJSON decodes a thread.message.delta payload.
func (d *MessageDelta) UnmarshalJSON(data []byte) error {
	var w messageDeltaJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*d = MessageDelta{ID: w.ID, Role: w.Delta.Role}
	for i, raw := range w.Delta.Content {
		var idx struct {
			Index *int `json:"index"`
		}
		if err := json.Unmarshal(raw, &idx); err != nil {
			return fmt.Errorf("decode delta content: %w", err)
		}
		c, err := unmarshalContent(raw)
		if err != nil {
			return err
		}
		dc := MessageDeltaContent{Index: i, Content: c}
		if idx.Index != nil {
			dc.Index = *idx.Index
		}
		d.Content = append(d.Content, dc)
	}
	return nil
}

// MarshalJSON encodes the delta in the thread.message.delta wire shape.
func (d MessageDelta) MarshalJSON() ([]byte, error) {
	w := messageDeltaJSON{ID: d.ID}
	w.Delta.Role = d.Role
	for _, dc := range d.Content {
		raw, err := marshalContent(dc.Content)
		if err != nil {
			return nil, err
		}
		var c map[string]any
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		c["index"] = dc.Index
		raw, err = json.Marshal(c)
		if err != nil {
			return nil, err
		}
		w.Delta.Content = append(w.Delta.Content, raw)
	}
	return json.Marshal(struct {
		messageDeltaJSON
		Object string `json:"object"`
	}{w, "thread.message.delta"})
}

// compactRaw copies raw in compact form so that a decoded value compares equal
// to the same value decoded again after marshaling.
func compactRaw(raw json.RawMessage) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return bytes.Clone(raw)
	}
	return buf.Bytes()
}
