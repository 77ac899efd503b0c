package translation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ytbili/internal/config"
	langpkg "ytbili/internal/language"
	"ytbili/internal/services/llm"
)

const systemPromptTemplate = `You translate video subtitles into %s.
The user sends a JSON array of subtitle lines%s. Reply with a JSON array of
strings holding the translations in the same order and with exactly the same
number of elements. Keep each translation short enough to read on screen.
Do not merge, split, explain or number lines. Reply with the JSON array only.`

var errMalformedReply = errors.New("malformed translation reply")

// completer is the subset of *llm.Client used here.
type completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// OpenAI translates through chat completions.
type OpenAI struct {
	client completer
}

// NewOpenAI builds the chat translator.
func NewOpenAI(client *llm.Client) *OpenAI {
	return &OpenAI{client: client}
}

// Name implements Translator.
func (o *OpenAI) Name() string { return config.TranslationOpenAI }

// Translate implements Translator. The batch goes out as one JSON array; when
// the reply has the wrong shape every line is retried on its own.
func (o *OpenAI) Translate(ctx context.Context, texts []string, source, target string) ([]string, error) {
	system := systemPrompt(source, target)
	out, err := o.translateArray(ctx, system, texts)
	if err == nil && len(out) == len(texts) {
		return out, nil
	}
	if err != nil && !errors.Is(err, errMalformedReply) {
		return nil, err
	}

	out = make([]string, len(texts))
	for i, text := range texts {
		single, err := o.translateArray(ctx, system, []string{text})
		if err != nil {
			return nil, err
		}
		if len(single) != 1 {
			return nil, fmt.Errorf("openai returned %d translations for a single line", len(single))
		}
		out[i] = single[0]
	}
	return out, nil
}

func (o *OpenAI) translateArray(ctx context.Context, system string, texts []string) ([]string, error) {
	payload, err := json.Marshal(texts)
	if err != nil {
		return nil, err
	}
	content, err := o.client.Complete(ctx, system, string(payload))
	if err != nil {
		return nil, err
	}
	var out []string
	if err := llm.DecodeLLMJSON(content, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedReply, err)
	}
	return out, nil
}

func systemPrompt(source, target string) string {
	from := ""
	if source != "" {
		from = " in " + langpkg.DisplayName(source)
	}
	return fmt.Sprintf(systemPromptTemplate, langpkg.DisplayName(target), from)
}
