package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"subtrans/internal/language"
	"subtrans/internal/lexicon"
	"subtrans/internal/repetition"
	"subtrans/internal/services"
)

type detectOutput struct {
	Input         string `json:"input"`
	repetition.Result
	Reconstructed string `json:"reconstructed,omitempty"`
}

func newDetectCommand() *cobra.Command {
	var (
		from        string
		to          string
		lexiconPath string
		translated  string
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:         "detect <text>...",
		Short:       "Show how a line would be collapsed before translation",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		Args:        cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			normFrom, err := language.Normalize(from)
			if err != nil || normFrom == language.Auto {
				return services.Wrap(services.ErrValidation, "detect", "source language", "", errors.New("--from must be en, ja, or zh"))
			}
			normTo, err := language.Normalize(to)
			if err != nil || normTo == language.Auto {
				return services.Wrap(services.ErrValidation, "detect", "target language", "", errors.New("--to must be en, ja, or zh"))
			}
			set, err := lexicon.Load(lexiconPath)
			if err != nil {
				return services.Wrap(services.ErrConfiguration, "detect", "load lexicon", lexiconPath, err)
			}
			lex := set.Resolve(normFrom, normTo)

			text := strings.Join(args, " ")
			out := detectOutput{Input: text, Result: repetition.NewDetector(lex).Detect(text)}
			if cmd.Flags().Changed("translated") {
				out.Reconstructed = repetition.NewReconstructor(lex).Reconstruct(translated, out.Descriptors)
			}

			if asJSON {
				return writeJSON(cmd, out)
			}
			printDetect(cmd, out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&from, "from", "f", "ja", "Language of the text (selects the phrase lexicon)")
	cmd.Flags().StringVarP(&to, "to", "t", "zh", "Target language for reconstruction markers")
	cmd.Flags().StringVar(&lexiconPath, "lexicon", "", "YAML lexicon overrides")
	cmd.Flags().StringVar(&translated, "translated", "", "Translated core to re-expand with the detected descriptors")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func printDetect(cmd *cobra.Command, out detectOutput) {
	w := cmd.OutOrStdout()
	if !out.Found {
		fmt.Fprintln(w, "No repetition detected")
		if out.Reconstructed != "" {
			fmt.Fprintf(w, "Reconstructed: %s\n", out.Reconstructed)
		}
		return
	}
	fmt.Fprintf(w, "Core: %s\n", out.Core)
	rows := make([][]string, 0, len(out.Descriptors))
	for _, d := range out.Descriptors {
		spans := make([]string, 0, len(d.Spans))
		for _, s := range d.Spans {
			spans = append(spans, fmt.Sprintf("%d-%d", s.Start, s.End))
		}
		rows = append(rows, []string{d.Kind.String(), d.Unit, strconv.Itoa(d.Count), strings.Join(spans, " ")})
	}
	fmt.Fprintln(w, renderTable(
		[]string{"Kind", "Unit", "Count", "Spans"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	))
	if out.Reconstructed != "" {
		fmt.Fprintf(w, "Reconstructed: %s\n", out.Reconstructed)
	}
}
