package download

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"ytbili/internal/config"
	"ytbili/internal/services"
)

const printPrefix = "ytbili:"

// printTemplate makes yt-dlp report the final file after all post-processing.
const printTemplate = "after_move:" + printPrefix + "%(id)s\t%(title)s\t%(filepath)s"

var (
	progressPattern    = regexp.MustCompile(`^\[download\]\s+(\d+(?:\.\d+)?)%`)
	mergerPattern      = regexp.MustCompile(`^\[Merger\] Merging formats into "(.+)"$`)
	destinationPattern = regexp.MustCompile(`^\[download\] Destination: (.+)$`)
	alreadyPattern     = regexp.MustCompile(`^\[download\] (.+) has already been downloaded`)
)

// LineRunner executes a command and calls onLine for every output line.
type LineRunner func(ctx context.Context, name string, args []string, onLine func(string)) error

// Result describes a finished download.
type Result struct {
	VideoID string
	Title   string
	Path    string
}

// Client wraps the yt-dlp command line.
type Client struct {
	binary         string
	format         string
	mergeFormat    string
	outputTemplate string
	cookiesFile    string
	timeout        time.Duration
	runner         LineRunner
}

// NewClient constructs a yt-dlp client from configuration.
func NewClient(cfg config.Download) *Client {
	binary := strings.TrimSpace(cfg.Binary)
	if binary == "" {
		binary = "yt-dlp"
	}
	return &Client{
		binary:         binary,
		format:         cfg.Format,
		mergeFormat:    cfg.MergeFormat,
		outputTemplate: cfg.OutputTemplate,
		cookiesFile:    cfg.CookiesFile,
		timeout:        time.Duration(cfg.TimeoutSeconds) * time.Second,
		runner:         runLines,
	}
}

// WithRunner sets a custom command runner (for testing).
func (c *Client) WithRunner(runner LineRunner) {
	if runner != nil {
		c.runner = runner
	}
}

// Binary returns the yt-dlp executable name.
func (c *Client) Binary() string {
	return c.binary
}

// Download fetches sourceURL into dir. onProgress receives download percentages
// as yt-dlp reports them and may be nil.
func (c *Client) Download(ctx context.Context, sourceURL, dir string, onProgress func(float64)) (Result, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{}, services.Wrap(services.ErrConfiguration, stageName, "create output dir", dir, err)
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var (
		parser  outputParser
		lastErr string
	)
	err := c.runner(ctx, c.binary, c.buildArgs(sourceURL, dir), func(line string) {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "ERROR:") {
			lastErr = strings.TrimSpace(strings.TrimPrefix(line, "ERROR:"))
		}
		if percent, ok := parser.consume(line); ok && onProgress != nil {
			onProgress(percent)
		}
	})
	if err != nil {
		return Result{}, classifyRunError(ctx, err, lastErr)
	}

	result := parser.result(dir)
	if result.Path == "" {
		return Result{}, services.Wrap(services.ErrExternalTool, stageName, "resolve output",
			"yt-dlp finished without reporting an output file", nil)
	}
	info, statErr := os.Stat(result.Path)
	if statErr != nil || info.IsDir() {
		return Result{}, services.Wrap(services.ErrNotFound, stageName, "resolve output",
			fmt.Sprintf("downloaded file %q is missing", result.Path), statErr)
	}
	return result, nil
}

func (c *Client) buildArgs(sourceURL, dir string) []string {
	args := make([]string, 0, 16)
	if c.format != "" {
		args = append(args, "-f", c.format)
	}
	if c.mergeFormat != "" {
		args = append(args, "--merge-output-format", c.mergeFormat)
	}
	template := c.outputTemplate
	if template == "" {
		template = "%(title)s.%(ext)s"
	}
	args = append(args,
		"-o", filepath.Join(dir, template),
		"--no-playlist",
		"--newline",
		"--print", printTemplate,
	)
	if c.cookiesFile != "" {
		args = append(args, "--cookies", c.cookiesFile)
	}
	return append(args, sourceURL)
}

func classifyRunError(ctx context.Context, err error, lastErr string) error {
	message := "yt-dlp failed"
	if lastErr != "" {
		message = lastErr
	}
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return services.Wrap(services.ErrTimeout, stageName, "run yt-dlp", "download timed out", err)
	case errors.Is(err, exec.ErrNotFound):
		return services.WithHint(
			services.Wrap(services.ErrConfiguration, stageName, "run yt-dlp", "yt-dlp binary not found", err),
			"install yt-dlp or set download.binary",
		)
	case strings.Contains(lastErr, "Video unavailable") || strings.Contains(lastErr, "Private video"):
		return services.Wrap(services.ErrNotFound, stageName, "run yt-dlp", message, err)
	default:
		return services.Wrap(services.ErrExternalTool, stageName, "run yt-dlp", message, err)
	}
}

// outputParser tracks the output file as yt-dlp reports it. The explicit print
// line wins; the log lines are fallbacks for builds that ignore --print.
type outputParser struct {
	printed     Result
	merged      string
	destination string
	existing    string
}

func (p *outputParser) consume(line string) (float64, bool) {
	if rest, ok := strings.CutPrefix(line, printPrefix); ok {
		parts := strings.SplitN(rest, "\t", 3)
		if len(parts) == 3 {
			p.printed = Result{VideoID: parts[0], Title: parts[1], Path: parts[2]}
		}
		return 0, false
	}
	if m := progressPattern.FindStringSubmatch(line); m != nil {
		percent, err := strconv.ParseFloat(m[1], 64)
		return percent, err == nil
	}
	if m := mergerPattern.FindStringSubmatch(line); m != nil {
		p.merged = m[1]
		return 0, false
	}
	if m := destinationPattern.FindStringSubmatch(line); m != nil {
		p.destination = strings.TrimSpace(m[1])
		return 0, false
	}
	if m := alreadyPattern.FindStringSubmatch(line); m != nil {
		p.existing = strings.TrimSpace(m[1])
	}
	return 0, false
}

func (p *outputParser) result(dir string) Result {
	result := p.printed
	if result.Path == "" {
		for _, candidate := range []string{p.merged, p.destination, p.existing} {
			if candidate != "" {
				result.Path = candidate
				break
			}
		}
	}
	if result.Path != "" && !filepath.IsAbs(result.Path) {
		result.Path = filepath.Join(dir, result.Path)
	}
	if result.Title == "" && result.Path != "" {
		base := filepath.Base(result.Path)
		result.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return result
}

// runLines runs the command and streams stdout and stderr line by line.
func runLines(ctx context.Context, name string, args []string, onLine func(string)) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	reader, writer := io.Pipe()
	cmd.Stdout = writer
	cmd.Stderr = writer

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(reader)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			onLine(scanner.Text())
		}
		_, _ = io.Copy(io.Discard, reader)
	}()

	err := cmd.Start()
	if err == nil {
		err = cmd.Wait()
	}
	_ = writer.Close()
	wg.Wait()
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
