package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thywilljoshua/deckgen/internal/apperr"
	"github.com/thywilljoshua/deckgen/internal/deck"
	"github.com/thywilljoshua/deckgen/internal/export"
	"github.com/thywilljoshua/deckgen/internal/preview"
	"github.com/thywilljoshua/deckgen/internal/session"
)

const shellHelp = `commands:
  prompt <text>                          set the prompt
  type <presentation|document>           set the document type
  slides <n>                             set the exact slide count
  template <id>                          select a template (resets the font)
  font <name>                            override the template font
  attach <file.pdf|file.pptx>            ground generation in a file
  detach                                 go back to creative mode
  generate                               generate content and images
  show                                   print the current preview
  edit <n>                               start editing slide n
  cancel                                 leave edit mode
  regen <n> <none|image|chart> [text]    regenerate slide n
  export <pptx|docx|pdf> [path]          export the current content
  status                                 print settings and state
  help                                   print this help
  quit                                   leave the shell`

var errQuit = errors.New("quit")

type shell struct {
	a   *app
	o   *session.Orchestrator
	out io.Writer
}

func shellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive session to generate, edit and export",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := a.orchestrator(cmd.Context())
			if err != nil {
				return err
			}
			sh := &shell{a: a, o: o, out: cmd.OutOrStdout()}
			return sh.run(cmd.Context(), cmd.InOrStdin())
		},
	}
}

func (sh *shell) run(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	fmt.Fprintln(sh.out, `deckgen shell, type "help" for commands`)
	for {
		fmt.Fprint(sh.out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(sh.out)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		err := sh.exec(ctx, line)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintln(sh.out, "error:", apperr.UserMessage(err))
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (sh *shell) exec(ctx context.Context, line string) error {
	name, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	switch strings.ToLower(name) {
	case "help", "?":
		fmt.Fprintln(sh.out, shellHelp)
	case "quit", "exit":
		return errQuit
	case "prompt":
		sh.o.SetPrompt(rest)
	case "type":
		t, err := deck.ParseDocumentType(rest)
		if err != nil {
			return apperr.Wrap(err, apperr.KindInvalidInput, "")
		}
		sh.o.SetDocumentType(t)
	case "slides":
		n, err := strconv.Atoi(rest)
		if err != nil {
			return apperr.Newf(apperr.KindInvalidInput, "slide count %q is not a number", rest)
		}
		return sh.o.SetSlideCount(n)
	case "template":
		return sh.o.SelectTemplate(rest)
	case "font":
		return sh.o.SetFont(rest)
	case "attach":
		if err := sh.o.Attach(rest); err != nil {
			return err
		}
		fmt.Fprintln(sh.out, "attached", rest)
	case "detach":
		sh.o.Detach()
	case "generate":
		var res session.Result
		var err error
		withStatus(sh.out, sh.o, func() { res, err = sh.o.Generate(ctx) })
		if err != nil {
			return err
		}
		printResult(sh.out, sh.o.Snapshot().DocType, res)
	case "show":
		sh.show()
	case "edit":
		return sh.edit(rest)
	case "cancel":
		sh.o.CancelEdit()
	case "regen":
		return sh.regen(ctx, rest)
	case "export":
		return sh.export(rest)
	case "status":
		sh.status()
	default:
		return apperr.Newf(apperr.KindInvalidInput, "unknown command %q, try help", name)
	}
	return nil
}

// slideNumber parses a one-based slide number into an index.
func slideNumber(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, apperr.Newf(apperr.KindInvalidInput, "slide number %q must be a positive integer", s)
	}
	return n - 1, nil
}

func (sh *shell) edit(arg string) error {
	i, err := slideNumber(arg)
	if err != nil {
		return err
	}
	it, err := sh.o.BeginEdit(i)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "editing slide %d, media %s\n", i+1, deck.DefaultMediaRequest(it))
	fmt.Fprintln(sh.out, deck.DefaultInstruction(it))
	fmt.Fprintf(sh.out, "regen %d %s <instruction> to apply, cancel to stop\n", i+1, deck.DefaultMediaRequest(it))
	return nil
}

func (sh *shell) regen(ctx context.Context, args string) error {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return apperr.New(apperr.KindInvalidInput, "usage: regen <n> <none|image|chart> [instruction]")
	}
	i, err := slideNumber(fields[0])
	if err != nil {
		return err
	}
	media, err := deck.ParseMediaRequest(fields[1])
	if err != nil {
		return apperr.Wrap(err, apperr.KindInvalidInput, "")
	}
	instruction := strings.Join(fields[2:], " ")

	var res session.RegenResult
	withStatus(sh.out, sh.o, func() { res, err = sh.o.Regenerate(ctx, i, instruction, media) })
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "slide %d: %s\n", res.Index+1, res.Item.Title)
	if res.ImageErr != nil {
		fmt.Fprintln(sh.out, "warning:", apperr.UserMessage(res.ImageErr))
	}
	return nil
}

func (sh *shell) export(args string) error {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return apperr.New(apperr.KindInvalidInput, "usage: export <pptx|docx|pdf> [path]")
	}
	f, err := export.ParseFormat(fields[0])
	if err != nil {
		return err
	}
	snap := sh.o.Snapshot()
	if !snap.HasContent() {
		return apperr.Wrap(session.ErrNoContent, apperr.KindExport, "")
	}
	path, dir := sh.a.cfg.Output.Dir, sh.a.cfg.Output.Dir
	if len(fields) > 1 {
		path, dir = fields[1], filepath.Dir(fields[1])
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperr.Wrap(err, apperr.KindExport, "")
		}
	}
	written, err := sh.a.exporter().Export(f, exportInput(snap), path)
	if err != nil {
		return err
	}
	fmt.Fprintln(sh.out, "wrote", written)
	return nil
}

func (sh *shell) show() {
	snap := sh.o.Snapshot()
	if !snap.HasContent() {
		fmt.Fprintln(sh.out, "nothing generated yet")
		return
	}
	v := preview.Build(snap.DocType, snap.Template, snap.Items, snap.Images)
	for _, f := range v.Frames {
		marker := ""
		if f.Index == snap.Editing {
			marker = " (editing)"
		}
		fmt.Fprintf(sh.out, "%d. %s%s\n", f.Number, f.Title, marker)
		switch {
		case f.Image != nil:
			fmt.Fprintf(sh.out, "   [image: %s]\n", f.Alt)
		case f.ImageMissing:
			fmt.Fprintf(sh.out, "   [image missing: %s]\n", f.Alt)
		}
		if f.Chart != nil {
			var series []string
			for _, s := range f.Chart.Series {
				series = append(series, s.Label)
			}
			fmt.Fprintf(sh.out, "   [%s chart: %s over %s]\n", f.Chart.Type, strings.Join(series, ", "), strings.Join(f.Chart.Labels, ", "))
		}
		for _, line := range f.Body {
			if v.Presentation() {
				fmt.Fprintf(sh.out, "   - %s\n", line)
			} else {
				fmt.Fprintf(sh.out, "   %s\n", line)
			}
		}
	}
}

func (sh *shell) status() {
	s := sh.o.Settings()
	snap := sh.o.Snapshot()
	fmt.Fprintf(sh.out, "prompt:   %q\n", s.Prompt)
	fmt.Fprintf(sh.out, "type:     %s\n", strings.ToLower(string(s.DocType)))
	if s.DocType == deck.Presentation {
		fmt.Fprintf(sh.out, "slides:   %d\n", s.SlideCount)
	}
	fmt.Fprintf(sh.out, "template: %s (%s)\n", s.Template.ID, s.Template.Font)
	if f := sh.o.Attachment(); f != "" {
		fmt.Fprintf(sh.out, "grounded: %s\n", f)
	}
	fmt.Fprintf(sh.out, "phase:    %s\n", snap.Phase)
	if snap.HasContent() {
		fmt.Fprintf(sh.out, "content:  %d %ss, %d images\n", len(snap.Items), snap.DocType.Noun(), len(snap.Images))
	}
	if snap.Err != nil {
		fmt.Fprintf(sh.out, "error:    %s\n", apperr.UserMessage(snap.Err))
	}
}
