// Copyright (c) Microsoft. All rights reserved.

package agents

import "strings"

// ResolveCitations replaces annotation placeholders in text with readable
// references. URL citations become " [title](url)"; file citations and file
// paths become " [name]", where name is looked up in fileNames by file ID and
// falls back to the ID itself.
func ResolveCitations(text string, annotations []Annotation, fileNames map[string]string) string {
	for _, a := range annotations {
		placeholder := a.Placeholder()
		if placeholder == "" {
			continue
		}
		var repl string
		switch a := a.(type) {
		case *URLCitationAnnotation:
			title := a.Title
			if title == "" {
				title = a.URL
			}
			repl = " [" + title + "](" + a.URL + ")"
		case *FileCitationAnnotation:
			repl = " [" + fileName(fileNames, a.FileID) + "]"
		case *FilePathAnnotation:
			repl = " [" + fileName(fileNames, a.FileID) + "]"
		default:
			continue
		}
		text = strings.ReplaceAll(text, placeholder, repl)
	}
	return text
}

// ResolvedText returns the message text with citations resolved in each text block.
func (m *ThreadMessage) ResolvedText(fileNames map[string]string) string {
	var parts []string
	for _, c := range m.Content {
		if tc, ok := c.(*TextContent); ok {
			parts = append(parts, ResolveCitations(tc.Value, tc.Annotations, fileNames))
		}
	}
	return strings.Join(parts, "\n")
}

// CitedFileIDs returns the distinct file IDs referenced by annotations, in first-seen order.
func CitedFileIDs(annotations []Annotation) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, a := range annotations {
		var id string
		switch a := a.(type) {
		case *FileCitationAnnotation:
			id = a.FileID
		case *FilePathAnnotation:
			id = a.FileID
		}
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

func fileName(names map[string]string, id string) string {
	if n, ok := names[id]; ok && n != "" {
		return n
	}
	return id
}
