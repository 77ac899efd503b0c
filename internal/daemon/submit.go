package daemon

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"ytbili/internal/config"
	"ytbili/internal/download"
	"ytbili/internal/language"
	"ytbili/internal/logging"
	"ytbili/internal/notifications"
	"ytbili/internal/queue"
	"ytbili/internal/services"
)

// ErrBusy is returned by Submit when api.reject_when_busy is set and a job is
// still active.
var ErrBusy = errors.New("a video is already being processed")

// SubmitRequest carries a user submission before validation.
type SubmitRequest struct {
	URL            string
	Title          string
	Description    string
	Tags           []string
	SourceLanguage string
	TargetLanguage string
}

// ParseTags splits a comma separated tag list. Full-width commas are accepted.
func ParseTags(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == '，' })
	tags := make([]string, 0, len(fields))
	for _, field := range fields {
		if tag := strings.TrimSpace(field); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// BuildSubmission validates req and resolves it against cfg. The URL is
// normalised to the canonical watch URL and the target language defaults to
// translation.target_language.
func BuildSubmission(cfg *config.Config, req SubmitRequest) (queue.Submission, error) {
	sourceURL, videoID, err := download.NormalizeURL(req.URL)
	if err != nil {
		return queue.Submission{}, err
	}
	target := strings.TrimSpace(req.TargetLanguage)
	if target == "" && cfg != nil {
		target = cfg.Translation.TargetLanguage
	}
	source := strings.TrimSpace(req.SourceLanguage)
	if source == "" && cfg != nil {
		source = cfg.Translation.SourceLanguage
	}
	if err := checkLanguage("target_language", target); err != nil {
		return queue.Submission{}, err
	}
	if err := checkLanguage("source_language", source); err != nil {
		return queue.Submission{}, err
	}
	return queue.Submission{
		SourceURL:      sourceURL,
		VideoID:        videoID,
		Title:          strings.TrimSpace(req.Title),
		Description:    strings.TrimSpace(req.Description),
		Tags:           req.Tags,
		SourceLanguage: source,
		TargetLanguage: target,
	}, nil
}

// checkLanguage rejects a non-empty code that is not a language tag or name,
// so a bad request fails before any download work starts.
func checkLanguage(field, code string) error {
	if code == "" {
		return nil
	}
	if _, err := language.Parse(code); err != nil {
		return services.WithHint(
			services.Wrap(services.ErrValidation, "submit", "check "+field, "unrecognised language "+strconv.Quote(code), err),
			"use a BCP 47 tag such as en, ja or zh-CN",
		)
	}
	return nil
}

// Submit validates and enqueues a video. A video that already has an active
// job returns that job together with an error wrapping queue.ErrDuplicate.
func (d *Daemon) Submit(ctx context.Context, req SubmitRequest) (*queue.Item, error) {
	sub, err := BuildSubmission(d.cfg, req)
	if err != nil {
		return nil, err
	}
	ctx = services.WithVideoID(ctx, sub.VideoID)

	d.submitMu.Lock()
	defer d.submitMu.Unlock()

	if d.cfg.API.RejectWhenBusy {
		active, err := d.store.ActiveCount(ctx)
		if err != nil {
			return nil, err
		}
		if active > 0 {
			return nil, services.WithHint(
				services.Wrap(services.ErrValidation, "submit", "check busy", "", ErrBusy),
				"wait for the current job or disable api.reject_when_busy",
			)
		}
	}

	item, err := d.store.NewJob(ctx, sub)
	if err != nil {
		if errors.Is(err, queue.ErrDuplicate) && item != nil {
			d.logger.Info("duplicate submission",
				logging.String(logging.FieldVideoID, sub.VideoID),
				logging.Int64(logging.FieldItemID, item.ID),
				logging.String(logging.FieldEventType, "job_duplicate"),
			)
		}
		return item, err
	}

	d.metrics.JobSubmitted()
	d.logger.Info("job queued",
		logging.Int64(logging.FieldItemID, item.ID),
		logging.String(logging.FieldVideoID, item.VideoID),
		logging.String("source_url", item.SourceURL),
		logging.String(logging.FieldEventType, "job_queued"),
	)
	if err := d.notifier.Publish(ctx, notifications.EventJobQueued, notifications.Payload{
		"title": item.Title,
		"url":   item.SourceURL,
	}); err != nil {
		d.logger.Warn("job queued notification failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "notification_failed"),
			logging.String(logging.FieldImpact, "operator was not told about the new job"),
		)
	}
	return item, nil
}
