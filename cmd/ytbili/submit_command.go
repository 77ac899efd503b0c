package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"ytbili/internal/api"
	"ytbili/internal/daemon"
	"ytbili/internal/queue"
	"ytbili/internal/queueaccess"
	"ytbili/internal/services"
)

type submitFlags struct {
	title       string
	description string
	tags        string
	sourceLang  string
	targetLang  string
}

func (f *submitFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.title, "title", "t", "", "Bilibili title (defaults to the YouTube title)")
	cmd.Flags().StringVarP(&f.description, "description", "d", "", "Bilibili description")
	cmd.Flags().StringVar(&f.tags, "tags", "", "Comma separated Bilibili tags")
	cmd.Flags().StringVar(&f.sourceLang, "source-lang", "", "Spoken language of the video (auto-detected when empty)")
	cmd.Flags().StringVar(&f.targetLang, "target-lang", "", "Subtitle translation language")
}

func (f *submitFlags) request(url string) daemon.SubmitRequest {
	return daemon.SubmitRequest{
		URL:            url,
		Title:          f.title,
		Description:    f.description,
		Tags:           daemon.ParseTags(f.tags),
		SourceLanguage: f.sourceLang,
		TargetLanguage: f.targetLang,
	}
}

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var flags submitFlags
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "submit <youtube-url>",
		Short: "Queue a YouTube video for processing",
		Long: "Queue a YouTube video for processing. The job goes to the running daemon over its API; " +
			"when no daemon answers it is written to the queue database and picked up on the next start.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := flags.request(args[0])
			var resp api.ProcessResponse
			queuedLocally := false
			err := ctx.withAccess(cmd.Context(), func(session queueaccess.Session) error {
				queuedLocally = session.Local
				item, err := session.Access.Submit(cmd.Context(), req)
				if item != nil {
					resp = api.ProcessResponse{JobID: item.ID, Job: *item}
				}
				return err
			})
			if err != nil {
				return describeSubmitError(err, resp.JobID)
			}
			if jsonOut {
				return writeJSON(cmd, resp)
			}
			printSubmitted(cmd.OutOrStdout(), resp, queuedLocally)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print JSON")
	return cmd
}

func printSubmitted(out io.Writer, resp api.ProcessResponse, local bool) {
	fmt.Fprintf(out, "Queued job %d: %s\n", resp.JobID, resp.Job.Title)
	if resp.Job.SourceURL != "" {
		fmt.Fprintf(out, "Source: %s\n", resp.Job.SourceURL)
	}
	if local {
		fmt.Fprintln(out, "Daemon is not running; the job starts when ytbilid is launched")
	}
}

func describeSubmitError(err error, jobID int64) error {
	if apiErr, ok := asAPIError(err); ok {
		if apiErr.StatusCode == http.StatusConflict && apiErr.Response.JobID > 0 {
			return fmt.Errorf("%s (job %d)", apiErr.Response.Error, apiErr.Response.JobID)
		}
		return apiErr
	}
	if errors.Is(err, queue.ErrDuplicate) {
		return fmt.Errorf("video already queued (job %d)", jobID)
	}
	if details := services.Details(err); details.Message != "" && errors.Is(err, services.ErrValidation) {
		return errors.New(details.Message)
	}
	return err
}
