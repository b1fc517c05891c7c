package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/thywilljoshua/deckgen/internal/apperr"
	"github.com/thywilljoshua/deckgen/internal/deck"
	"github.com/thywilljoshua/deckgen/internal/export"
	"github.com/thywilljoshua/deckgen/internal/preview"
	"github.com/thywilljoshua/deckgen/internal/session"
)

func generateCmd(a *app) *cobra.Command {
	var prompt string
	var docType string
	var slides int
	var templateID string
	var font string
	var file string
	var formats []string
	var out string
	var previewPath string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a presentation or document and export it",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := deck.ParseDocumentType(docType)
			if err != nil {
				return apperr.Wrap(err, apperr.KindInvalidInput, "")
			}
			var exports []export.Format
			for _, s := range formats {
				f, err := export.ParseFormat(s)
				if err != nil {
					return err
				}
				if !f.Supports(t) {
					return apperr.Newf(apperr.KindInvalidInput, "%s export is not available for a %s", f, strings.ToLower(string(t)))
				}
				exports = append(exports, f)
			}
			if out == "" {
				out = a.cfg.Output.Dir
			}

			o, err := a.orchestrator(cmd.Context())
			if err != nil {
				return err
			}
			o.SetPrompt(prompt)
			o.SetDocumentType(t)
			if t == deck.Presentation {
				if err := o.SetSlideCount(slides); err != nil {
					return err
				}
			}
			if templateID != "" {
				if err := o.SelectTemplate(templateID); err != nil {
					return err
				}
			}
			if font != "" {
				if err := o.SetFont(font); err != nil {
					return err
				}
			}
			if file != "" {
				if err := o.Attach(file); err != nil {
					return err
				}
			}

			var res session.Result
			withStatus(cmd.ErrOrStderr(), o, func() {
				res, err = o.Generate(cmd.Context())
			})
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), t, res)

			snap := o.Snapshot()
			ex := a.exporter()
			if len(exports) > 0 {
				if err := os.MkdirAll(out, 0o755); err != nil {
					return apperr.Wrap(err, apperr.KindExport, "")
				}
			}
			for _, f := range exports {
				path, err := ex.Export(f, exportInput(snap), out)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			if previewPath != "" {
				v := preview.Build(snap.DocType, snap.Template, snap.Items, snap.Images)
				if err := preview.WriteMarkdown(previewPath, snap.Prompt, v); err != nil {
					return fmt.Errorf("failed to write preview %s: %w", previewPath, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), filepath.Clean(previewPath))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "what to generate, or how to transform the attached file")
	cmd.Flags().StringVarP(&docType, "type", "t", "presentation", "document type: presentation|document")
	cmd.Flags().IntVarP(&slides, "slides", "n", deck.DefaultSlides, fmt.Sprintf("exact slide count for presentations (%d-%d)", deck.MinSlides, deck.MaxSlides))
	cmd.Flags().StringVar(&templateID, "template", "", "template id (see deckgen templates)")
	cmd.Flags().StringVar(&font, "font", "", "override the template font")
	cmd.Flags().StringVarP(&file, "file", "f", "", "ground generation in a PDF or PPTX file")
	cmd.Flags().StringSliceVarP(&formats, "export", "e", nil, "comma-separated export formats: pptx,docx,pdf")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output directory (default: output.dir)")
	cmd.Flags().StringVar(&previewPath, "preview", "", "also write a Markdown preview to this file")
	_ = cmd.MarkFlagRequired("prompt")
	return cmd
}

func exportInput(s session.Snapshot) export.Input {
	return export.Input{DocType: s.DocType, Template: s.Template, Items: s.Items, Images: s.Images}
}

func printResult(w io.Writer, t deck.DocumentType, res session.Result) {
	noun := t.Noun() + "s"
	if res.Requested > 0 && res.Requested != res.Received {
		fmt.Fprintf(w, "generated %d %s (%d requested)", res.Received, noun, res.Requested)
	} else {
		fmt.Fprintf(w, "generated %d %s", res.Received, noun)
	}
	if res.ImagesRequested > 0 {
		fmt.Fprintf(w, ", %d/%d images", res.ImagesCreated, res.ImagesRequested)
	}
	fmt.Fprintln(w)
}

// withStatus prints every new status line of o to w while fn runs.
func withStatus(w io.Writer, o *session.Orchestrator, fn func()) {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		t := time.NewTicker(100 * time.Millisecond)
		defer t.Stop()
		last := ""
		for {
			select {
			case <-done:
				return
			case <-t.C:
				if s := o.Status(); s != "" && s != last {
					fmt.Fprintln(w, s)
					last = s
				}
			}
		}
	}()
	fn()
	close(done)
	wg.Wait()
}
