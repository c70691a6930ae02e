package cms

import (
	"encoding/json"
	"strings"
)

// block is a Portable Text block. Only text spans are kept.
type block struct {
	Type     string `json:"_type"`
	Children []struct {
		Type string `json:"_type"`
		Text string `json:"text"`
	} `json:"children"`
}

// PlainText flattens a description field to plain text. The field may be a
// plain string or a Portable Text array; paragraphs are separated by a
// blank line.
func PlainText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var blocks []block
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return ""
	}
	paragraphs := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if b.Type != "block" {
			continue
		}
		var sb strings.Builder
		for _, child := range b.Children {
			if child.Type == "span" || child.Type == "" {
				sb.WriteString(child.Text)
			}
		}
		if text := strings.TrimSpace(sb.String()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	}
	return strings.Join(paragraphs, "\n\n")
}
