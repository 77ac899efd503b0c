package transcription

import (
	"context"
	"strings"

	"ytbili/internal/config"
	"ytbili/internal/services/llm"
	"ytbili/internal/subtitles"
)

// OpenAI sends the audio to the OpenAI transcription endpoint.
type OpenAI struct {
	client *llm.Client
	model  string
}

// NewOpenAI builds the OpenAI provider.
func NewOpenAI(client *llm.Client, model string) *OpenAI {
	return &OpenAI{client: client, model: model}
}

// Name implements Provider.
func (o *OpenAI) Name() string { return config.TranscriptionOpenAI }

// Transcribe implements Provider. outputDir is unused; the SRT body comes back
// in the response.
func (o *OpenAI) Transcribe(ctx context.Context, audioPath, _ string, language string) ([]subtitles.Cue, error) {
	srt, err := o.client.TranscribeSRT(ctx, audioPath, o.model, language)
	if err != nil {
		return nil, err
	}
	return subtitles.Parse(strings.NewReader(srt))
}

// HealthCheck verifies the API key.
func (o *OpenAI) HealthCheck(ctx context.Context) error {
	return o.client.HealthCheck(ctx)
}
