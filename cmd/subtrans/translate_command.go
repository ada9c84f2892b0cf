package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"subtrans/internal/config"
	"subtrans/internal/language"
	"subtrans/internal/lexicon"
	"subtrans/internal/services"
	"subtrans/internal/subtitles"
	"subtrans/internal/translate"
)

type translateOptions struct {
	from       string
	to         string
	model      string
	dedicated  bool
	output     string
	noCompress bool
	failFast   bool
	noCache    bool
}

func newTranslateCommand(ctx *commandContext) *cobra.Command {
	var opts translateOptions

	cmd := &cobra.Command{
		Use:   "translate <file>...",
		Short: "Translate subtitle files",
		Long: "Translate SRT, ASS/SSA, or WebVTT subtitles cue by cue through Ollama.\n\n" +
			"Output is written next to each input with the target language code in the name\n" +
			"(movie.ja.srt becomes movie.zh.srt). Press Ctrl+C to stop; nothing is written\n" +
			"for an interrupted file.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(cmd, ctx, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.from, "from", "f", "", "Source language (en, ja, zh, or auto); defaults to config")
	flags.StringVarP(&opts.to, "to", "t", "", "Target language (en, ja, zh); defaults to config")
	flags.StringVarP(&opts.model, "model", "m", "", "Ollama model to use instead of the configured one")
	flags.BoolVar(&opts.dedicated, "dedicated", false, "Use the dedicated translation model and prompt template")
	flags.StringVarP(&opts.output, "output", "o", "", "Output path (single input only)")
	flags.BoolVar(&opts.noCompress, "no-compress", false, "Send lines as-is without collapsing repetition")
	flags.BoolVar(&opts.failFast, "fail-fast", false, "Stop at the first cue that fails to translate")
	flags.BoolVar(&opts.noCache, "no-cache", false, "Bypass the translation cache")
	return cmd
}

func runTranslate(cmd *cobra.Command, ctx *commandContext, opts translateOptions, args []string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}
	if strings.TrimSpace(opts.output) != "" && len(args) > 1 {
		return services.Wrap(services.ErrValidation, "translate", "flags", "--output accepts a single input file", nil)
	}

	from := firstNonEmpty(opts.from, cfg.Translation.SourceLanguage)
	to := firstNonEmpty(opts.to, cfg.Translation.TargetLanguage)
	mode, model := resolveModel(cfg, opts)

	lexicons, err := lexicon.Load(cfg.Translation.LexiconPath)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "translate", "load lexicon", cfg.Translation.LexiconPath, err)
	}

	var store translate.Store
	if cfg.Cache.Enabled && !opts.noCache {
		opened, err := ctx.openCache(cfg)
		if err != nil {
			return err
		}
		defer opened.Close()
		store = opened
	}

	client := ctx.ollamaClient(cfg)
	factory := func(from, to string) (translate.Translator, error) {
		tr, err := translate.NewOllama(client, translate.Options{Mode: mode, Model: model, From: from, To: to})
		if err != nil {
			return nil, err
		}
		return translate.NewCached(tr, store, tr.Model(), from, to, logger), nil
	}

	compress := cfg.CompressRepetition
	if opts.noCompress {
		compress = func(string) bool { return false }
	}
	svc := subtitles.NewService(factory,
		subtitles.WithLogger(logger),
		subtitles.WithLexicons(lexicons),
		subtitles.WithCompression(compress),
	)

	results := make([]subtitles.Result, 0, len(args))
	for _, input := range args {
		printer := newProgressPrinter(cmd.ErrOrStderr(), input)
		result, err := svc.TranslateFile(cmd.Context(), subtitles.Request{
			InputPath:  input,
			OutputPath: opts.output,
			From:       from,
			To:         to,
			FailFast:   opts.failFast || cfg.Translation.FailFast,
			Progress:   printer.update,
		})
		printer.finish()
		if err != nil {
			return fmt.Errorf("%s: %w", input, err)
		}
		results = append(results, result)
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderTranslateSummary(results))
	return nil
}

func resolveModel(cfg *config.Config, opts translateOptions) (translate.Mode, string) {
	if opts.dedicated || cfg.Ollama.UseDedicatedModel {
		return translate.ModeDedicated, firstNonEmpty(opts.model, cfg.Ollama.DedicatedModel)
	}
	return translate.ModeGeneral, firstNonEmpty(opts.model, cfg.Ollama.Model)
}

func renderTranslateSummary(results []subtitles.Result) string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			filepath.Base(r.InputPath),
			filepath.Base(r.OutputPath),
			language.DisplayName(r.From) + " → " + language.DisplayName(r.To),
			strconv.Itoa(r.Cues),
			strconv.Itoa(r.Translated),
			strconv.Itoa(r.Compressed),
			strconv.Itoa(r.Fallbacks),
			r.Duration.Round(time.Millisecond).String(),
		})
	}
	return renderTable(
		[]string{"Input", "Output", "Languages", "Cues", "Translated", "Compressed", "Kept source", "Took"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
	)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
