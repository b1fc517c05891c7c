package session

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/thywilljoshua/deckgen/internal/ai"
	"github.com/thywilljoshua/deckgen/internal/apperr"
	"github.com/thywilljoshua/deckgen/internal/deck"
)

// Result summarizes a full generation.
type Result struct {
	// Requested is the slide count asked for, 0 for documents.
	Requested       int
	Received        int
	ImagesRequested int
	ImagesCreated   int
}

type imageJob struct {
	id     ulid.ULID
	index  int
	prompt string
}

type imageResult struct {
	imageJob
	data []byte
	err  error
}

// Generate replaces the content with a fresh generation from the current settings.
// Image failures are logged and leave that item without an image.
func (o *Orchestrator) Generate(ctx context.Context) (Result, error) {
	req, err := o.beginGenerate()
	if err != nil {
		return Result{}, err
	}
	defer o.release()

	start := time.Now()
	res, err := o.generate(ctx, req)
	o.metrics.Generation(string(req.DocType), time.Since(start), err)
	return res, err
}

func (o *Orchestrator) beginGenerate() (ai.GenerateRequest, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.busy {
		return ai.GenerateRequest{}, errBusy()
	}
	s := o.settings
	if blank(s.Prompt) {
		return ai.GenerateRequest{}, apperr.New(apperr.KindInvalidInput, "prompt is empty")
	}
	if s.DocType == deck.Presentation {
		if err := deck.ValidateSlideCount(s.SlideCount); err != nil {
			return ai.GenerateRequest{}, apperr.Wrap(err, apperr.KindInvalidInput, "")
		}
	}

	o.busy = true
	o.order, o.items, o.images = nil, nil, nil
	o.editing = -1
	o.lastErr = nil
	o.topic = s.Prompt
	o.docType = s.DocType
	o.style = s.Template
	o.phase = PhaseGeneratingContent
	o.status = "Generating content..."
	o.log.Debug().Str("doc_type", string(s.DocType)).Bool("grounded", o.grounding != "").Msg("generating content")

	req := ai.GenerateRequest{
		Prompt:    s.Prompt,
		DocType:   s.DocType,
		Template:  s.Template,
		Grounding: o.grounding,
	}
	if s.DocType == deck.Presentation {
		req.ItemCount = s.SlideCount
	}
	return req, nil
}

func (o *Orchestrator) generate(ctx context.Context, req ai.GenerateRequest) (Result, error) {
	callCtx, cancel := o.callContext(ctx)
	items, err := o.provider.Generate(callCtx, req)
	cancel()
	if err != nil {
		err = apperr.Wrap(err, apperr.KindGeneration, "")
		o.mu.Lock()
		o.phase = PhaseErrored
		o.lastErr = err
		o.mu.Unlock()
		o.log.Error().Err(err).Msg("generation failed")
		return Result{}, err
	}

	res := Result{Requested: req.ItemCount, Received: len(items)}
	if req.DocType == deck.Presentation && len(items) != req.ItemCount {
		o.log.Warn().Int("requested", req.ItemCount).Int("received", len(items)).Msg("slide count mismatch")
	}

	o.mu.Lock()
	o.order = make([]ulid.ULID, len(items))
	o.items = make(map[ulid.ULID]deck.Item, len(items))
	o.images = make(map[ulid.ULID][]byte)
	var jobs []imageJob
	for i, it := range items {
		id := o.newID()
		o.order[i] = id
		o.items[id] = it
		if it.WantsImage() {
			jobs = append(jobs, imageJob{id: id, index: i, prompt: it.ImagePrompt})
		}
	}
	res.ImagesRequested = len(jobs)
	if len(jobs) == 0 {
		o.phase = PhaseReady
		o.mu.Unlock()
		return res, nil
	}
	o.phase = PhaseGeneratingImages
	o.status = fmt.Sprintf("Generating %d image(s)...", len(jobs))
	o.mu.Unlock()
	o.log.Debug().Int("images", len(jobs)).Msg("generating images")

	results := o.synthesizeAll(ctx, jobs)

	o.mu.Lock()
	defer o.mu.Unlock()
	for _, r := range results {
		if r.err != nil {
			o.log.Warn().Err(r.err).Int("index", r.index).Str("prompt", r.prompt).Msg("image generation failed")
			continue
		}
		o.images[r.id] = r.data
		res.ImagesCreated++
	}
	o.phase = PhaseReady
	return res, nil
}

// synthesizeAll runs every job and returns one result per job, in job order.
// A failed job never cancels its siblings.
func (o *Orchestrator) synthesizeAll(ctx context.Context, jobs []imageJob) []imageResult {
	results := make([]imageResult, len(jobs))
	var g errgroup.Group
	if o.opts.ImageConcurrency > 0 {
		g.SetLimit(o.opts.ImageConcurrency)
	}
	for i, job := range jobs {
		g.Go(func() error {
			data, err := o.synthesize(ctx, job.prompt)
			results[i] = imageResult{imageJob: job, data: data, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (o *Orchestrator) synthesize(ctx context.Context, prompt string) ([]byte, error) {
	callCtx, cancel := o.callContext(ctx)
	defer cancel()
	data, err := o.provider.Synthesize(callCtx, prompt)
	if err == nil && len(data) == 0 {
		err = ai.ErrNoImage
	}
	err = apperr.Wrap(err, apperr.KindImage, "")
	o.metrics.Image(err)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func fmtIndex(i, n int) error {
	return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, n)
}
