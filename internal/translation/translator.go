package translation

import (
	"context"
	"fmt"
	"strings"

	"ytbili/internal/config"
	"ytbili/internal/services"
	"ytbili/internal/services/llm"
	"ytbili/internal/subtitles"
)

// Translator translates a batch of strings. source may be empty to let the
// backend detect it. Implementations return exactly one output per input.
type Translator interface {
	Name() string
	Translate(ctx context.Context, texts []string, source, target string) ([]string, error)
}

// NewTranslator builds the translator selected by translation.provider.
func NewTranslator(ctx context.Context, cfg *config.Config) (Translator, error) {
	switch cfg.Translation.Provider {
	case config.TranslationGoogle, "":
		return NewGoogle(ctx, cfg.Translation)
	case config.TranslationOpenAI:
		client := llm.NewClient(llm.Config{
			APIKey:         cfg.OpenAI.APIKey,
			BaseURL:        cfg.OpenAI.BaseURL,
			Model:          cfg.Translation.Model,
			TimeoutSeconds: cfg.OpenAI.TimeoutSeconds,
		})
		return NewOpenAI(client), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, stageName, "select provider",
			fmt.Sprintf("unsupported translation provider %q", cfg.Translation.Provider), nil)
	}
}

// Service translates subtitle tracks batch by batch.
type Service struct {
	translator Translator
	source     string
	target     string
	batchSize  int
}

// NewService wraps translator with the translation settings.
func NewService(cfg config.Translation, translator Translator) *Service {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 10
	}
	return &Service{translator: translator, source: cfg.SourceLanguage, target: cfg.TargetLanguage, batchSize: batch}
}

// Target returns the configured target language.
func (s *Service) Target() string { return s.target }

// ProviderName reports the active translator.
func (s *Service) ProviderName() string {
	if s == nil || s.translator == nil {
		return ""
	}
	return s.translator.Name()
}

// TranslateCues returns a copy of cues with translated text. Index and timing
// are preserved and blank cues are never sent. Empty source or target fall
// back to the configured languages. onBatch, when set, is called after every
// batch with the number of batches done and the total.
func (s *Service) TranslateCues(ctx context.Context, cues []subtitles.Cue, source, target string, onBatch func(done, total int)) ([]subtitles.Cue, error) {
	if strings.TrimSpace(source) == "" {
		source = s.source
	}
	if strings.TrimSpace(target) == "" {
		target = s.target
	}
	texts := subtitles.Texts(cues)
	pending := make([]int, 0, len(texts))
	for i, text := range texts {
		if strings.TrimSpace(text) != "" {
			pending = append(pending, i)
		}
	}

	total := (len(pending) + s.batchSize - 1) / s.batchSize
	out := make([]string, len(texts))
	for batch := 0; batch < total; batch++ {
		lo := batch * s.batchSize
		hi := min(lo+s.batchSize, len(pending))
		inputs := make([]string, 0, hi-lo)
		for _, idx := range pending[lo:hi] {
			inputs = append(inputs, texts[idx])
		}
		translated, err := s.translator.Translate(ctx, inputs, source, target)
		if err != nil {
			return nil, classify(err, s.translator.Name(), batch+1, total)
		}
		if len(translated) != len(inputs) {
			return nil, services.Wrap(services.ErrExternalTool, stageName, "translate batch",
				fmt.Sprintf("%s returned %d translations for %d cues", s.translator.Name(), len(translated), len(inputs)), nil)
		}
		for j, idx := range pending[lo:hi] {
			out[idx] = translated[j]
		}
		if onBatch != nil {
			onBatch(batch+1, total)
		}
	}
	return subtitles.WithTexts(cues, out)
}
