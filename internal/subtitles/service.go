package subtitles

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/asticode/go-astisub"
	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"subtrans/internal/fileutil"
	"subtrans/internal/language"
	"subtrans/internal/lexicon"
	"subtrans/internal/logging"
	"subtrans/internal/repetition"
	"subtrans/internal/services"
	"subtrans/internal/translate"
)

const (
	stageTranslate = "translate"
	// detectionSampleCues bounds how many cues feed source language detection.
	detectionSampleCues = 60
	progressBucket      = 10
)

// TranslatorFactory builds a translator once the language pair is known.
type TranslatorFactory func(from, to string) (translate.Translator, error)

// Request describes one file translation.
type Request struct {
	InputPath string
	// OutputPath overrides the derived output name when set.
	OutputPath string
	From       string
	To         string
	FailFast   bool
	Progress   func(Progress)
}

// Progress reports a finished cue.
type Progress struct {
	Index      int
	Total      int
	Source     string
	Translated string
	Compressed bool
	Fallback   bool
}

// Percent returns completion in the range 0-100.
func (p Progress) Percent() float64 {
	if p.Total <= 0 {
		return 100
	}
	return float64(p.Index) * 100 / float64(p.Total)
}

// Result summarizes a translated file.
type Result struct {
	RunID      string
	InputPath  string
	OutputPath string
	Format     Format
	Charset    string
	From       string
	To         string
	Cues       int
	Translated int
	Compressed int
	Fallbacks  int
	Skipped    int
	Duration   time.Duration
}

// Service translates subtitle files cue by cue.
type Service struct {
	newTranslator TranslatorFactory
	lexicons      lexicon.Set
	compress      func(source string) bool
	logger        *slog.Logger
	now           func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLexicons sets lexicon overrides applied over the built-in tables.
func WithLexicons(set lexicon.Set) Option {
	return func(s *Service) {
		if set != nil {
			s.lexicons = set
		}
	}
}

// WithCompression decides per source language whether repetition is
// collapsed before translation.
func WithCompression(fn func(source string) bool) Option {
	return func(s *Service) {
		if fn != nil {
			s.compress = fn
		}
	}
}

// NewService constructs a Service. Repetition compression applies to every
// source language unless WithCompression says otherwise.
func NewService(factory TranslatorFactory, opts ...Option) *Service {
	s := &Service{
		newTranslator: factory,
		lexicons:      lexicon.Set{},
		compress:      func(string) bool { return true },
		logger:        logging.NewNop(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "subtitles")
	return s
}

// TranslateFile translates every cue of req.InputPath and writes the result
// atomically. Cancelling ctx stops at the next cue and leaves no output.
func (s *Service) TranslateFile(ctx context.Context, req Request) (Result, error) {
	started := s.now()
	if s.newTranslator == nil {
		return Result{}, services.Wrap(services.ErrConfiguration, "subtitles", "translate", "translator factory required", nil)
	}
	from, to, err := normalizePair(req.From, req.To)
	if err != nil {
		return Result{}, err
	}

	doc, err := ReadFile(req.InputPath)
	if err != nil {
		return Result{}, err
	}
	items := doc.Subtitles.Items

	if from == language.Auto {
		detected, ok := language.Detect(sampleTexts(items))
		if !ok {
			return Result{}, services.Wrap(services.ErrValidation, "subtitles", "detect language",
				"could not detect source language; pass --from", nil)
		}
		from = detected
	}
	if from == to {
		return Result{}, services.Wrap(services.ErrValidation, "subtitles", "translate",
			fmt.Sprintf("source and target are both %s", language.DisplayName(to)), nil)
	}

	output := strings.TrimSpace(req.OutputPath)
	if output == "" {
		output = OutputPath(req.InputPath, from, to)
	}
	if sameFile(output, req.InputPath) {
		return Result{}, services.Wrap(services.ErrValidation, "subtitles", "translate",
			"output path would overwrite the input", nil)
	}

	unlock, err := lockOutput(output)
	if err != nil {
		return Result{}, err
	}
	defer unlock()

	translator, err := s.newTranslator(from, to)
	if err != nil {
		return Result{}, err
	}

	result := Result{
		RunID:      uuid.NewString(),
		InputPath:  req.InputPath,
		OutputPath: output,
		Format:     doc.Format,
		Charset:    doc.Charset,
		From:       from,
		To:         to,
		Cues:       len(items),
	}
	ctx = services.WithRunID(ctx, result.RunID)
	ctx = services.WithStage(ctx, stageTranslate)
	ctx = services.WithFile(ctx, req.InputPath)
	logger := logging.WithContext(ctx, s.logger)

	compress := s.compress(from)
	lex := s.lexicons.Resolve(from, to)
	detector := repetition.NewDetector(lex)
	reconstructor := repetition.NewReconstructor(lex)
	sampler := logging.NewProgressSampler(progressBucket)

	logger.Info("translation started",
		logging.String("from", from),
		logging.String("to", to),
		logging.String("format", string(doc.Format)),
		logging.String("charset", doc.Charset),
		logging.Int("cues", len(items)),
		logging.Bool("compress_repetition", compress),
		logging.String("output", output),
	)

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			logger.Info("translation cancelled", logging.Int("completed", i))
			return result, err
		}
		progress := Progress{Index: i + 1, Total: len(items)}
		source := CueText(item)
		progress.Source = source

		if strings.TrimSpace(source) == "" {
			result.Skipped++
			progress.Translated = source
			s.report(req.Progress, sampler, logger, progress)
			continue
		}

		cueCtx := services.WithCueIndex(ctx, i+1)
		input := source
		var detection repetition.Result
		if compress {
			detection = detector.Detect(source)
			if detection.Found {
				input = detection.Core
				logging.WithContext(cueCtx, logger).Debug("repetition collapsed",
					logging.String("descriptors", describe(detection.Descriptors)),
					logging.String("core", detection.Core),
				)
			}
		}

		translated, err := translator.Translate(cueCtx, input)
		switch {
		case err != nil && (ctx.Err() != nil || errors.Is(err, context.Canceled)):
			logger.Info("translation cancelled", logging.Int("completed", i))
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
			return result, err
		case err != nil && req.FailFast:
			return result, fmt.Errorf("translate cue %d: %w", i+1, err)
		case err != nil:
			logging.WarnWithContext(logging.WithContext(cueCtx, logger), "cue translation failed; keeping source text", "cue_fallback",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check that Ollama is running and the model is pulled"),
				logging.String(logging.FieldImpact, "cue left untranslated in output"),
			)
			translated = source
			progress.Fallback = true
			result.Fallbacks++
		case detection.Found:
			translated = reconstructor.Reconstruct(translated, detection.Descriptors)
			progress.Compressed = true
			result.Compressed++
			result.Translated++
		default:
			result.Translated++
		}

		SetCueText(item, translated)
		progress.Translated = translated
		logging.WithContext(cueCtx, logger).Debug("cue translated",
			logging.String("source", source),
			logging.String("translated", translated),
		)
		s.report(req.Progress, sampler, logger, progress)
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}
	if err := fileutil.WriteAtomic(output, 0o644, func(w io.Writer) error {
		return Write(w, doc.Subtitles, doc.Format)
	}); err != nil {
		return result, fmt.Errorf("write translated subtitles: %w", err)
	}

	result.Duration = s.now().Sub(started)
	logger.Info("translation finished",
		logging.String("output", output),
		logging.Int("translated", result.Translated),
		logging.Int("compressed", result.Compressed),
		logging.Int("fallbacks", result.Fallbacks),
		logging.Duration("duration", result.Duration),
	)
	return result, nil
}

func (s *Service) report(fn func(Progress), sampler *logging.ProgressSampler, logger *slog.Logger, p Progress) {
	if fn != nil {
		fn(p)
	}
	if sampler.ShouldLog(p.Index, p.Total) {
		logger.Info("translation progress",
			logging.Int("cue", p.Index),
			logging.Int("total", p.Total),
			logging.Float64("percent", p.Percent()),
		)
	}
}

func normalizePair(from, to string) (string, string, error) {
	if strings.TrimSpace(from) == "" {
		from = language.Auto
	}
	normFrom, err := language.Normalize(from)
	if err != nil {
		return "", "", services.Wrap(services.ErrValidation, "subtitles", "source language", "", err)
	}
	normTo, err := language.Normalize(to)
	if err != nil {
		return "", "", services.Wrap(services.ErrValidation, "subtitles", "target language", "", err)
	}
	if normTo == language.Auto {
		return "", "", services.Wrap(services.ErrValidation, "subtitles", "target language", "target cannot be auto", nil)
	}
	return normFrom, normTo, nil
}

func sampleTexts(items []*astisub.Item) []string {
	out := make([]string, 0, min(len(items), detectionSampleCues))
	for _, item := range items {
		if len(out) == detectionSampleCues {
			break
		}
		if text := strings.TrimSpace(CueText(item)); text != "" {
			out = append(out, text)
		}
	}
	return out
}

func describe(descs []repetition.Descriptor) string {
	parts := make([]string, 0, len(descs))
	for _, d := range descs {
		parts = append(parts, d.String())
	}
	return strings.Join(parts, "; ")
}

func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return absA == absB
}

func lockOutput(output string) (func(), error) {
	// The lock file is left in place after Unlock so every run locks the same inode.
	lock := flock.New(output + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire output lock: %w", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "subtitles", "lock",
			fmt.Sprintf("%s is being written by another subtrans run", output), nil)
	}
	return func() {
		_ = lock.Unlock()
	}, nil
}
