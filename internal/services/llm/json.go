package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const snippetRunes = 160

// DecodeLLMJSON unmarshals a model reply into target. Replies wrapped in a
// ```json fence or surrounded by prose are retried on the embedded JSON.
func DecodeLLMJSON(content string, target any) error {
	payload := strings.TrimSpace(content)
	if payload == "" {
		return errors.New("empty payload")
	}
	err := json.Unmarshal([]byte(payload), target)
	if err == nil {
		return nil
	}
	if inner, ok := embeddedJSON(payload); ok && inner != payload {
		if err = json.Unmarshal([]byte(inner), target); err == nil {
			return nil
		}
		payload = inner
	}
	return fmt.Errorf("%w (reply: %s)", err, summarizePayloadSnippet(payload))
}

// embeddedJSON unfences s and cuts it down to the outermost array, or failing
// that the outermost object.
func embeddedJSON(s string) (string, bool) {
	s = unfence(s)
	if s == "" {
		return "", false
	}
	if s[0] == '[' || s[0] == '{' {
		return s, true
	}
	for _, pair := range [...][2]string{{"[", "]"}, {"{", "}"}} {
		start, end := strings.Index(s, pair[0]), strings.LastIndex(s, pair[1])
		if start >= 0 && end > start {
			return strings.TrimSpace(s[start : end+1]), true
		}
	}
	return "", false
}

func unfence(s string) string {
	s = strings.TrimSpace(s)
	body, fenced := strings.CutPrefix(s, "```")
	if !fenced {
		return s
	}
	body = strings.TrimLeft(body, " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = body[4:]
	}
	if i := strings.LastIndex(body, "```"); i >= 0 {
		body = body[:i]
	}
	return strings.TrimSpace(body)
}

// summarizePayloadSnippet collapses whitespace and caps the reply for error
// messages.
func summarizePayloadSnippet(content string) string {
	flat := strings.Join(strings.Fields(content), " ")
	if flat == "" {
		return "<empty>"
	}
	if runes := []rune(flat); len(runes) > snippetRunes {
		return string(runes[:snippetRunes]) + "..."
	}
	return flat
}
