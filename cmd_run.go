package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"auto_social_publisher/approval"
	"auto_social_publisher/config"
	"auto_social_publisher/document"
	"auto_social_publisher/gauth"
	"auto_social_publisher/generator"
	"auto_social_publisher/media"
	"auto_social_publisher/notify"
	"auto_social_publisher/pipeline"
	"auto_social_publisher/publisher"
)

type runOptions struct {
	route     string
	prompt    string
	schemaDoc string
	systemDoc string
	approval  string
	dryRun    bool
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate one post, send it for approval and publish it",
	Args:  cobra.NoArgs,
	RunE:  runPost,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runOpts.route, "route", "", "target platform: twitter (x, xtwitter), instagram, facebook, linkedin, pinterest")
	f.StringVar(&runOpts.prompt, "prompt", "", "what the post should be about")
	f.StringVar(&runOpts.schemaDoc, "schema-doc", "", "Google Docs id of the schema document (overrides SCHEMA_DOC_ID)")
	f.StringVar(&runOpts.systemDoc, "system-doc", "", "Google Docs id of the system-prompt document (overrides SYSTEM_DOC_ID)")
	f.StringVar(&runOpts.approval, "approval", "", "approval mode: console, stdin, http (overrides config)")
	f.BoolVar(&runOpts.dryRun, "dry-run", false, "stop after the preview; print it and do not notify or publish")
}

func runPost(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	req, err := runOpts.apply(&cfg)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := &http.Client{Timeout: cfg.HTTPTimeout}
	creds := gauth.NewFileCredentials(cfg.Google.CredentialsFile, cfg.Google.TokenFile, logger)
	creds.HTTPClient = client

	llm, err := buildLLM(ctx, cfg.LLM)
	if err != nil {
		return err
	}
	agent, err := generator.NewAgent(llm, logger)
	if err != nil {
		return err
	}
	host, err := media.NewImgBB(cfg.Image.HostURL, cfg.Image.HostAPIKey, cfg.Image.Expiration, client, logger)
	if err != nil {
		return err
	}
	notifier, err := buildNotifier(cfg, creds, client)
	if err != nil {
		return err
	}
	approver, closeApprover := buildApprover(cfg, cmd)
	defer closeApprover()

	p := &pipeline.Pipeline{
		Documents: document.NewFetcher(creds, cfg.Google.DocsEndpoint, logger),
		Generator: agent,
		Images:    media.NewGenerator(cfg.Image.GeneratorURL, client, logger),
		Host:      host,
		Notifier:  notifier,
		Approver:  approver,
		Publisher: publisher.New(cfg.Platforms, client, logger),
		Logger:    logger,
	}
	logger.Info("run started", zap.String("route", req.Route), zap.Bool("dry_run", req.DryRun))
	out, err := p.Run(ctx, req)
	if err != nil {
		return err
	}
	if req.DryRun {
		fmt.Fprintln(cmd.OutOrStdout(), out.PreviewHTML)
		return nil
	}
	return printOutcome(cmd, out)
}

// apply folds the flags into cfg and returns the run request.
func (o runOptions) apply(cfg *config.Config) (pipeline.Request, error) {
	if o.approval != "" {
		cfg.Approval.Mode = o.approval
	}
	if o.schemaDoc != "" {
		cfg.Documents.SchemaDocID = o.schemaDoc
	}
	if o.systemDoc != "" {
		cfg.Documents.SystemDocID = o.systemDoc
	}
	var errs []error
	if o.route == "" {
		errs = append(errs, errors.New("--route is required"))
	}
	if o.prompt == "" {
		errs = append(errs, errors.New("--prompt is required"))
	}
	if cfg.Documents.SchemaDocID == "" || cfg.Documents.SystemDocID == "" {
		errs = append(errs, errors.New("both document ids are required; use --schema-doc/--system-doc or SCHEMA_DOC_ID/SYSTEM_DOC_ID"))
	}
	if err := errors.Join(errs...); err != nil {
		return pipeline.Request{}, err
	}
	return pipeline.Request{
		Route:       o.route,
		Prompt:      o.prompt,
		SchemaDocID: cfg.Documents.SchemaDocID,
		SystemDocID: cfg.Documents.SystemDocID,
		DryRun:      o.dryRun,
	}, nil
}

func buildNotifier(cfg config.Config, creds gauth.CredentialSource, client *http.Client) (notify.Notifier, error) {
	switch cfg.Notify.Channel {
	case "telegram":
		return notify.NewTelegram(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID, cfg.Notify.TelegramEndpoint, client, logger)
	case "email":
		to := notify.Recipient(cfg.Notify.EmailTo, cfg.Notify.TelegramChatID, logger)
		return notify.NewGmail(creds, cfg.Google.GmailEndpoint, to, logger)
	default:
		return nil, fmt.Errorf("notify channel %s not supported", cfg.Notify.Channel)
	}
}

func buildApprover(cfg config.Config, cmd *cobra.Command) (approval.Approver, func()) {
	switch cfg.Approval.Mode {
	case "http":
		h := approval.NewHTTP(cfg.Approval.Addr, cfg.Approval.PublicURL, logger)
		return h, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := h.Close(ctx); err != nil {
				logger.Warn("review server shutdown", zap.Error(err))
			}
		}
	case "stdin":
		return approval.NewLine(cmd.InOrStdin(), cmd.OutOrStdout()), func() {}
	default:
		return approval.NewConsole(cmd.OutOrStdout(), cfg.Approval.GlamourStyle), func() {}
	}
}

type summary struct {
	RunID     string          `json:"run_id"`
	Route     string          `json:"route"`
	ImageURL  string          `json:"image_url"`
	Approved  bool            `json:"approved"`
	Published bool            `json:"published"`
	Skipped   string          `json:"skipped,omitempty"`
	Response  json.RawMessage `json:"response,omitempty"`
}

func printOutcome(cmd *cobra.Command, out pipeline.Outcome) error {
	s := summary{
		RunID:     out.RunID,
		Route:     string(out.Route),
		ImageURL:  out.ImageURL,
		Approved:  out.Approved,
		Published: out.Published,
		Skipped:   out.Skipped,
		Response:  out.Result.Body,
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
