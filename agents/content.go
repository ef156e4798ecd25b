// Copyright (c) Microsoft. All rights reserved.

package agents

import "strings"

// MessageContent is a sealed interface over the content blocks of a
// [ThreadMessage]. Use a type switch to inspect the underlying type.
type MessageContent interface {
	// ContentType returns the wire discriminator ("text", "image_file", ...).
	ContentType() string

	isMessageContent()
}

// TextContent is a text block with optional citation annotations.
type TextContent struct {
	Value       string
	Annotations []Annotation
}

// ImageFileContent references an image produced or uploaded as a file.
type ImageFileContent struct {
	FileID string
}

// ImageURLContent references an external image.
type ImageURLContent struct {
	URL    string
	Detail string
}

// UnknownContent preserves content blocks of types this package does not model.
type UnknownContent struct {
	Type string
	Raw  []byte
}

func (*TextContent) ContentType() string      { return "text" }
func (*ImageFileContent) ContentType() string { return "image_file" }
func (*ImageURLContent) ContentType() string  { return "image_url" }
func (c *UnknownContent) ContentType() string { return c.Type }

func (*TextContent) isMessageContent()      {}
func (*ImageFileContent) isMessageContent() {}
func (*ImageURLContent) isMessageContent()  {}
func (*UnknownContent) isMessageContent()   {}

// Annotation is a sealed interface over citations embedded in a [TextContent].
// Text is the placeholder in the message value that the annotation explains.
type Annotation interface {
	// Placeholder returns the text span the annotation refers to.
	Placeholder() string

	isAnnotation()
}

// FileCitationAnnotation cites a passage of an uploaded file.
type FileCitationAnnotation struct {
	Text       string
	FileID     string
	Quote      string
	StartIndex int
	EndIndex   int
}

// URLCitationAnnotation cites a web page, typically from Bing grounding.
type URLCitationAnnotation struct {
	Text       string
	URL        string
	Title      string
	StartIndex int
	EndIndex   int
}

// FilePathAnnotation refers to a file generated by a tool such as the code interpreter.
type FilePathAnnotation struct {
	Text       string
	FileID     string
	StartIndex int
	EndIndex   int
}

// UnknownAnnotation preserves annotations of types this package does not model.
type UnknownAnnotation struct {
	Type string
	Text string
	Raw  []byte
}

func (a *FileCitationAnnotation) Placeholder() string { return a.Text }
func (a *URLCitationAnnotation) Placeholder() string  { return a.Text }
func (a *FilePathAnnotation) Placeholder() string     { return a.Text }
func (a *UnknownAnnotation) Placeholder() string      { return a.Text }

func (*FileCitationAnnotation) isAnnotation() {}
func (*URLCitationAnnotation) isAnnotation()  {}
func (*FilePathAnnotation) isAnnotation()     {}
func (*UnknownAnnotation) isAnnotation()      {}

// Text returns the text blocks of the message joined by newlines, with
// annotation placeholders left as the service sent them.
func (m *ThreadMessage) Text() string {
	var parts []string
	for _, c := range m.Content {
		if tc, ok := c.(*TextContent); ok {
			parts = append(parts, tc.Value)
		}
	}
	return strings.Join(parts, "\n")
}

// LatestAssistantMessage returns the most recently created assistant message.
// Among messages with equal timestamps the later one in msgs wins.
func LatestAssistantMessage(msgs []ThreadMessage) (*ThreadMessage, bool) {
	var latest *ThreadMessage
	for i := range msgs {
		m := &msgs[i]
		if m.Role != MessageRoleAssistant {
			continue
		}
		if latest == nil || m.CreatedAt >= latest.CreatedAt {
			latest = m
		}
	}
	return latest, latest != nil
}

// MessageInput is a message posted to a thread. Content is sent as plain
// text unless Blocks is non-empty.
type MessageInput struct {
	Role        MessageRole
	Content     string
	Blocks      []InputContentBlock
	Attachments []Attachment
	Metadata    map[string]string
}

// UserMessage is shorthand for a plain-text user message.
func UserMessage(text string) MessageInput {
	return MessageInput{Role: MessageRoleUser, Content: text}
}

// InputContentBlock is one block of a multi-part message input.
type InputContentBlock struct {
	Type      string        `json:"type"`
	Text      string        `json:"text,omitempty"`
	ImageFile *ImageFileRef `json:"image_file,omitempty"`
	ImageURL  *ImageURLRef  `json:"image_url,omitempty"`
}

// ImageFileRef points at an uploaded image.
type ImageFileRef struct {
	FileID string `json:"file_id"`
	Detail string `json:"detail,omitempty"`
}

// ImageURLRef points at an external image.
type ImageURLRef struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

// TextBlock builds a text input block.
func TextBlock(text string) InputContentBlock {
	return InputContentBlock{Type: "text", Text: text}
}

// ImageFileBlock builds an input block for an uploaded image.
func ImageFileBlock(fileID, detail string) InputContentBlock {
	return InputContentBlock{Type: "image_file", ImageFile: &ImageFileRef{FileID: fileID, Detail: detail}}
}

// ImageURLBlock builds an input block for an external image.
func ImageURLBlock(url, detail string) InputContentBlock {
	return InputContentBlock{Type: "image_url", ImageURL: &ImageURLRef{URL: url, Detail: detail}}
}
