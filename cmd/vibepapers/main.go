package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/hzhou/vibepapers"
	"github.com/hzhou/vibepapers/internal/analyze"
	"github.com/hzhou/vibepapers/internal/config"
	"github.com/hzhou/vibepapers/internal/dateutil"
	"github.com/hzhou/vibepapers/internal/hfapi"
	"github.com/hzhou/vibepapers/internal/logger"
	"github.com/hzhou/vibepapers/internal/notify"
	"github.com/hzhou/vibepapers/internal/webassets"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	flags, err := parseFlags(os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if flags.version {
		fmt.Println("vibepapers", Version)
		return
	}

	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues.
	_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))

	cfg, err := loadConfig(flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	applyFlags(cfg, flags)

	log := logger.New(logger.Config{Level: logLevel(cfg, flags), Pretty: cfg.Log.Pretty})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, log, cfg, flags); err != nil {
		log.Error().Err(err).Msg("pipeline failed")
		os.Exit(1)
	}
}

// loadConfig reads the configured file, or returns defaults when no config
// flag was given.
func loadConfig(flags *runFlags) (*config.Config, error) {
	if flags.common.config == "" {
		return config.DefaultConfig(), nil
	}
	return config.LoadConfig(flags.common.config)
}

// applyFlags overlays command-line values onto the loaded config.
func applyFlags(cfg *config.Config, flags *runFlags) {
	if flags.top > 0 {
		cfg.Papers.TopN = flags.top
	}
	if flags.output != "" {
		cfg.Output.Dir = flags.output
	}
	if flags.language != "" {
		cfg.Papers.Language = flags.language
	}
	if flags.model != "" {
		cfg.Model.Name = flags.model
	}
	if flags.templateDir != "" {
		cfg.Assets.TemplateDir = flags.templateDir
	}
	if flags.skipAssets {
		cfg.Assets.SkipDownload = true
	}
}

func logLevel(cfg *config.Config, flags *runFlags) string {
	switch {
	case flags.common.quiet:
		return "error"
	case flags.common.verbose:
		return "debug"
	default:
		return cfg.Log.Level
	}
}

// resolveDate parses --date, or falls back to the last weekday (UTC).
// The upstream feed publishes nothing on weekends.
func resolveDate(flagValue string) (time.Time, error) {
	if flagValue != "" {
		return dateutil.ParseISO(flagValue)
	}
	return dateutil.LastWeekday(time.Now().UTC()), nil
}

func run(ctx context.Context, log zerolog.Logger, cfg *config.Config, flags *runFlags) error {
	day, err := resolveDate(flags.date)
	if err != nil {
		return err
	}
	dateStr := day.Format(dateutil.ISODate)
	log.Info().Str("date", dateStr).Int("top_n", cfg.Papers.TopN).Msg("daily papers pipeline starting")

	feed := hfapi.NewClient(log)
	papers, err := feed.FetchDaily(ctx, day, cfg.Papers.TopN)
	if err != nil {
		return err
	}
	if len(papers) == 0 {
		log.Warn().Str("date", dateStr).Msg("no papers found, nothing to do")
		return nil
	}

	analyzePapers(ctx, log, cfg, flags, papers)

	for _, p := range papers {
		if p.Analysis == "" {
			continue
		}
		cleaned, meta := vibepapers.ExtractMetadata(p.Analysis)
		p.Analysis = cleaned
		p.Metadata = meta
	}

	markdown := vibepapers.GenerateReport(papers, day)
	reportPath, err := vibepapers.SaveReport(cfg.Output.Dir, markdown, day)
	if err != nil {
		log.Error().Err(err).Msg("report archive failed")
	} else {
		log.Info().Str("path", reportPath).Msg("markdown report archived")
	}

	svc, err := vibepapers.NewService(log, cfg.Output.Dir,
		vibepapers.WithTemplateDir(cfg.Assets.TemplateDir),
		vibepapers.WithAdjacentWindow(cfg.Papers.LookbackDays, cfg.Papers.LookaheadDays),
	)
	if err != nil {
		return err
	}

	if !cfg.Assets.SkipDownload {
		webassets.Ensure(ctx, log, svc.HTMLRoot())
	}

	outDir, err := svc.GeneratePaperPages(ctx, papers, day)
	if err != nil {
		return err
	}
	log.Info().Str("dir", outDir).Msg("paper pages ready")

	if _, err := svc.GenerateSummaryPage(); err != nil {
		if errors.Is(err, vibepapers.ErrSummarySkipped) {
			log.Warn().Err(err).Msg("summary page skipped")
		} else {
			log.Error().Err(err).Msg("summary page failed")
		}
	}

	sendReport(log, cfg, flags, papers, day)

	log.Info().Msg("pipeline finished")
	return nil
}

// analyzePapers runs the model over the batch unless offline mode or a
// missing API key rules it out. Failures degrade to abstract-only pages.
func analyzePapers(ctx context.Context, log zerolog.Logger, cfg *config.Config, flags *runFlags, papers []*vibepapers.Paper) {
	if flags.offline {
		log.Info().Msg("offline mode, skipping analysis")
		return
	}
	apiKey := os.Getenv(cfg.Model.APIKeyEnv)
	if apiKey == "" {
		log.Warn().Str("env", cfg.Model.APIKeyEnv).Msg("api key not set, skipping analysis")
		return
	}

	analyzer := analyze.NewAnalyzer(log, apiKey, cfg.Model.Name, cfg.Papers.Language)
	ok := analyzer.AnalyzeAll(ctx, papers)
	log.Info().Int("analyzed", ok).Int("total", len(papers)).Msg("analysis finished")
}

func sendReport(log zerolog.Logger, cfg *config.Config, flags *runFlags, papers []*vibepapers.Paper, day time.Time) {
	if flags.skipEmail {
		return
	}
	mailer := notify.NewMailer(log, cfg.SMTP)
	if !mailer.Configured() {
		log.Warn().Msg("smtp not configured, skipping email")
		return
	}

	subject := fmt.Sprintf("AI Paper Daily | %s | %d papers", day.Format(dateutil.ISODate), len(papers))
	if err := mailer.Send(subject, vibepapers.GenerateEmailHTML(papers, day)); err != nil {
		log.Error().Err(err).Msg("report email failed")
	}
}
