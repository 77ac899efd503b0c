package translation

import (
	"context"
	"fmt"
	"html"

	"cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/option"

	"ytbili/internal/config"
	langpkg "ytbili/internal/language"
)

// googleAPI is the subset of *translate.Client used here.
type googleAPI interface {
	Translate(ctx context.Context, inputs []string, target language.Tag, opts *translate.Options) ([]translate.Translation, error)
	Close() error
}

// Google translates through Google Cloud Translation (v2).
type Google struct {
	api googleAPI
}

// NewGoogle creates a Cloud Translation client. An API key takes precedence
// over a credentials file; with neither, application default credentials apply.
func NewGoogle(ctx context.Context, cfg config.Translation) (*Google, error) {
	var opts []option.ClientOption
	switch {
	case cfg.GoogleAPIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.GoogleAPIKey))
	case cfg.GoogleCredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.GoogleCredentialsFile))
	}
	client, err := translate.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create translate client: %w", err)
	}
	return &Google{api: client}, nil
}

// Name implements Translator.
func (g *Google) Name() string { return config.TranslationGoogle }

// Translate implements Translator.
func (g *Google) Translate(ctx context.Context, texts []string, source, target string) ([]string, error) {
	targetTag, err := langpkg.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("parse target language %q: %w", target, err)
	}
	opts := &translate.Options{Format: translate.Text}
	if source != "" {
		tag, err := langpkg.Parse(source)
		if err != nil {
			return nil, fmt.Errorf("parse source language %q: %w", source, err)
		}
		opts.Source = tag
	}
	results, err := g.api.Translate(ctx, texts, targetTag, opts)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(results))
	for i, result := range results {
		out[i] = html.UnescapeString(result.Text)
	}
	return out, nil
}

// Close releases the underlying client.
func (g *Google) Close() error {
	if g == nil || g.api == nil {
		return nil
	}
	return g.api.Close()
}
