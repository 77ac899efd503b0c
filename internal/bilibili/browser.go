package bilibili

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"ytbili/internal/config"
	"ytbili/internal/logging"
)

// Page selectors of the creator upload form.
const (
	selectorFileInput   = `input[type="file"]`
	selectorProgress    = `.upload-progress-v2`
	selectorTitle       = `.video-title-input`
	selectorDescription = `.description-textarea`
	selectorTagInput    = `.tag-input`
	selectorSubmit      = `//div[contains(@class, "submit-btn") and text()="立即投稿"]`
)

const (
	progressAppearTimeout = 120 * time.Second
	progressPollInterval  = 2 * time.Second
	formTimeout           = 10 * time.Second
	keystrokeBudget       = 20 * time.Millisecond
	tagPause              = 500 * time.Millisecond
	locationPollInterval  = time.Second
)

// successLocations are the pages Bilibili redirects to after a submission.
var successLocations = []string{
	"member.bilibili.com/video/submission",
	"member.bilibili.com/platform/upload-manager",
}

// Uploader submits a video to Bilibili.
type Uploader interface {
	Upload(ctx context.Context, videoPath string, meta Metadata) (Result, error)
}

// Result is the outcome of a successful submission.
type Result struct {
	// URL is the page the browser landed on after submitting.
	URL string
}

// BrowserUploader drives the creator web UI with a Chrome instance that
// reuses a persistent profile for the login session.
type BrowserUploader struct {
	cfg    config.Bilibili
	logger *slog.Logger
}

// NewBrowserUploader builds the chromedp uploader.
func NewBrowserUploader(cfg config.Bilibili, logger *slog.Logger) *BrowserUploader {
	return &BrowserUploader{cfg: cfg, logger: logging.NewComponentLogger(logger, "bilibili-browser")}
}

// Upload runs the full submission sequence for videoPath.
func (u *BrowserUploader) Upload(ctx context.Context, videoPath string, meta Metadata) (Result, error) {
	browserCtx, cancel := newBrowser(ctx, u.cfg, u.cfg.Headless)
	defer cancel()
	// Allocate the browser on the long-lived context; step timeouts wrap it below.
	if err := chromedp.Run(browserCtx); err != nil {
		return Result{}, &StepError{Step: "start browser", Err: err}
	}

	for _, step := range uploadSteps(u.cfg, videoPath, meta) {
		u.logger.Debug("bilibili upload step",
			logging.String("step", step.name),
			logging.Duration("timeout", step.timeout),
		)
		if err := runWithTimeout(browserCtx, step.timeout, step.actions...); err != nil {
			return Result{}, &StepError{Step: step.name, Err: err}
		}
	}

	location, err := waitForLocation(browserCtx, time.Duration(u.cfg.SubmitTimeoutSeconds)*time.Second, successLocations...)
	if err != nil {
		return Result{}, &StepError{Step: "confirm submission", Err: err}
	}
	return Result{URL: location}, nil
}

type uploadStep struct {
	name    string
	timeout time.Duration
	actions []chromedp.Action
}

// uploadSteps lists the browser sequence up to the submit click. The progress
// bar only has to appear in the DOM; the upload is over once it is hidden or
// removed.
func uploadSteps(cfg config.Bilibili, videoPath string, meta Metadata) []uploadStep {
	return []uploadStep{
		{"open upload page", formTimeout * 3, []chromedp.Action{
			chromedp.Navigate(cfg.UploadURL),
			chromedp.WaitReady(selectorFileInput, chromedp.ByQuery),
		}},
		{"attach video", formTimeout, []chromedp.Action{
			chromedp.SetUploadFiles(selectorFileInput, []string{videoPath}, chromedp.ByQuery),
		}},
		{"wait for upload start", progressAppearTimeout, []chromedp.Action{
			chromedp.WaitReady(selectorProgress, chromedp.ByQuery),
		}},
		{"wait for upload end", time.Duration(cfg.UploadTimeoutSeconds) * time.Second, []chromedp.Action{
			waitHidden(selectorProgress),
		}},
		{"wait for form", formTimeout, []chromedp.Action{
			chromedp.WaitVisible(selectorTitle, chromedp.ByQuery),
		}},
		{"fill form", fillTimeout(meta), formActions(meta)},
		{"submit", formTimeout, []chromedp.Action{
			chromedp.Click(selectorSubmit, chromedp.BySearch),
		}},
	}
}

// formInput is one entry typed into the submission form. Tags go one at a
// time into the same input, each followed by Enter and a pause.
type formInput struct {
	selector string
	text     string
	clear    bool
	pause    time.Duration
}

func formPlan(meta Metadata) []formInput {
	plan := []formInput{
		{selector: selectorTitle, text: meta.Title, clear: true},
		{selector: selectorDescription, text: meta.Description, clear: true},
	}
	for _, tag := range meta.Tags {
		plan = append(plan, formInput{selector: selectorTagInput, text: tag + kb.Enter, pause: tagPause})
	}
	return plan
}

func formActions(meta Metadata) []chromedp.Action {
	var actions []chromedp.Action
	for _, in := range formPlan(meta) {
		if in.clear {
			actions = append(actions, chromedp.Clear(in.selector, chromedp.ByQuery))
		}
		actions = append(actions, chromedp.SendKeys(in.selector, in.text, chromedp.ByQuery))
		if in.pause > 0 {
			actions = append(actions, chromedp.Sleep(in.pause))
		}
	}
	return actions
}

// fillTimeout grows with the typed text and the tag pauses.
func fillTimeout(meta Metadata) time.Duration {
	budget := formTimeout
	for _, in := range formPlan(meta) {
		budget += in.pause + time.Duration(utf8.RuneCountInString(in.text))*keystrokeBudget
	}
	return budget
}

// waitHidden polls until nothing matches sel or the match is not rendered.
func waitHidden(sel string) chromedp.Action {
	expr := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		return !el || el.offsetParent === null || getComputedStyle(el).visibility === "hidden";
	})()`, strconv.Quote(sel))
	return chromedp.ActionFunc(func(ctx context.Context) error {
		for {
			var hidden bool
			if err := chromedp.Evaluate(expr, &hidden).Do(ctx); err != nil {
				return err
			}
			if hidden {
				return nil
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(progressPollInterval):
			}
		}
	})
}

// StepError names the part of the browser sequence that failed.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("bilibili %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

func runWithTimeout(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return chromedp.Run(ctx, actions...)
}

// waitForLocation polls the current URL until it contains one of wanted.
func waitForLocation(ctx context.Context, timeout time.Duration, wanted ...string) (string, error) {
	deadline := time.Now().Add(timeout)
	var location string
	for {
		if err := chromedp.Run(ctx, chromedp.Location(&location)); err != nil {
			return "", err
		}
		if matchesAny(location, wanted) {
			return location, nil
		}
		if timeout > 0 && time.Now().After(deadline) {
			return "", fmt.Errorf("%w: still on %s", context.DeadlineExceeded, location)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(locationPollInterval):
		}
	}
}

func matchesAny(location string, wanted []string) bool {
	for _, w := range wanted {
		if strings.Contains(location, w) {
			return true
		}
	}
	return false
}

func newBrowser(ctx context.Context, cfg config.Bilibili, headless bool) (context.Context, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserDataDir(cfg.ProfileDir),
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("headless", headless),
	)
	if cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ChromePath))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	return browserCtx, func() {
		cancelBrowser()
		cancelAlloc()
	}
}

// chromeCandidates are probed in order when bilibili.chrome_path is unset.
var chromeCandidates = []string{
	"google-chrome",
	"google-chrome-stable",
	"chromium",
	"chromium-browser",
	"chrome",
}

// FindChrome resolves the browser executable chromedp will launch.
func FindChrome(cfg config.Bilibili) (string, error) {
	if cfg.ChromePath != "" {
		return exec.LookPath(cfg.ChromePath)
	}
	for _, candidate := range chromeCandidates {
		if path, err := exec.LookPath(candidate); err == nil {
			return path, nil
		}
	}
	return "", errors.New("no Chrome or Chromium executable found in PATH")
}
