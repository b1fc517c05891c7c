// Package session owns the generation state: the ordered content, the images
// attached to it, the per-request settings and the busy flag that serializes
// generation and regeneration.
package session

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/thywilljoshua/deckgen/internal/ai"
	"github.com/thywilljoshua/deckgen/internal/apperr"
	"github.com/thywilljoshua/deckgen/internal/deck"
	"github.com/thywilljoshua/deckgen/internal/grounding"
	"github.com/thywilljoshua/deckgen/internal/metrics"
)

var (
	ErrNoContent       = errors.New("nothing has been generated yet")
	ErrIndexOutOfRange = errors.New("index out of range")
)

type Phase string

const (
	PhaseIdle              Phase = "idle"
	PhaseGeneratingContent Phase = "generating_content"
	PhaseGeneratingImages  Phase = "generating_images"
	PhaseReady             Phase = "ready"
	PhaseErrored           Phase = "errored"
)

type Options struct {
	// CallTimeout bounds each model call. Zero leaves calls to the parent context.
	CallTimeout time.Duration
	// ImageConcurrency caps in-flight image calls. Zero runs one per requested image.
	ImageConcurrency int
	Metrics          *metrics.Recorder
	Logger           zerolog.Logger
}

// Orchestrator is safe for concurrent use. Only one generation or regeneration
// runs at a time; a second request fails with a busy error.
type Orchestrator struct {
	provider ai.Provider
	opts     Options
	log      zerolog.Logger
	metrics  *metrics.Recorder

	mu      sync.Mutex
	busy    bool
	phase   Phase
	status  string
	lastErr error
	entropy *ulid.MonotonicEntropy

	settings  Settings
	grounding string
	attached  string

	// state of the last successful generation
	topic   string
	docType deck.DocumentType
	style   deck.Template
	order   []ulid.ULID
	items   map[ulid.ULID]deck.Item
	images  map[ulid.ULID][]byte
	editing int
}

// Settings are the inputs of the next full generation.
type Settings struct {
	Prompt     string
	DocType    deck.DocumentType
	SlideCount int
	Template   deck.Template
}

func New(p ai.Provider, opts Options) *Orchestrator {
	return &Orchestrator{
		provider: p,
		opts:     opts,
		log:      opts.Logger.With().Str("component", "session").Logger(),
		metrics:  opts.Metrics,
		phase:    PhaseIdle,
		entropy:  ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
		settings: Settings{
			DocType:    deck.Presentation,
			SlideCount: deck.DefaultSlides,
			Template:   deck.DefaultTemplate(),
		},
		editing: -1,
	}
}

func (o *Orchestrator) Settings() Settings {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.settings
}

func (o *Orchestrator) SetPrompt(p string) {
	o.mu.Lock()
	o.settings.Prompt = p
	o.mu.Unlock()
}

func (o *Orchestrator) SetDocumentType(t deck.DocumentType) {
	o.mu.Lock()
	o.settings.DocType = t
	o.mu.Unlock()
}

func (o *Orchestrator) SetSlideCount(n int) error {
	if err := deck.ValidateSlideCount(n); err != nil {
		return apperr.Wrap(err, apperr.KindInvalidInput, "")
	}
	o.mu.Lock()
	o.settings.SlideCount = n
	o.mu.Unlock()
	return nil
}

// SelectTemplate switches the template and resets the font to the template's own.
func (o *Orchestrator) SelectTemplate(id string) error {
	t, ok := deck.LookupTemplate(id)
	if !ok {
		return apperr.Newf(apperr.KindInvalidInput, "unknown template %q", id)
	}
	o.mu.Lock()
	o.settings.Template = t
	o.mu.Unlock()
	return nil
}

// SetFont overrides the font of the selected template.
func (o *Orchestrator) SetFont(name string) error {
	f, ok := deck.LookupFont(name)
	if !ok {
		return apperr.Newf(apperr.KindInvalidInput, "unknown font %q", name)
	}
	o.mu.Lock()
	o.settings.Template = o.settings.Template.WithFont(f)
	o.mu.Unlock()
	return nil
}

// Attach extracts grounding text from path. On failure any previous attachment is cleared.
func (o *Orchestrator) Attach(path string) error {
	text, err := grounding.Extract(path)
	o.mu.Lock()
	defer o.mu.Unlock()
	if err != nil {
		o.grounding, o.attached = "", ""
		o.log.Error().Err(err).Str("path", path).Msg("attach failed")
		return err
	}
	o.grounding, o.attached = text, path
	o.log.Debug().Str("path", path).Int("chars", len(text)).Msg("grounding attached")
	return nil
}

func (o *Orchestrator) Detach() {
	o.mu.Lock()
	o.grounding, o.attached = "", ""
	o.mu.Unlock()
}

// Attachment returns the attached file path, or "" in creative mode.
func (o *Orchestrator) Attachment() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.attached
}

// BeginEdit marks item i as being edited and returns it.
func (o *Orchestrator) BeginEdit(i int) (deck.Item, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.busy {
		return deck.Item{}, errBusy()
	}
	it, _, err := o.itemAt(i)
	if err != nil {
		return deck.Item{}, apperr.Wrap(err, apperr.KindInvalidInput, "")
	}
	o.editing = i
	return it, nil
}

func (o *Orchestrator) CancelEdit() {
	o.mu.Lock()
	o.editing = -1
	o.mu.Unlock()
}

// Editing returns the index in edit mode, or -1.
func (o *Orchestrator) Editing() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.editing
}

func (o *Orchestrator) Busy() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.busy
}

// Status is the progress line of the running operation, or "" when idle.
func (o *Orchestrator) Status() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// Snapshot is a copy of the state, with images keyed by position.
type Snapshot struct {
	Prompt   string
	DocType  deck.DocumentType
	Template deck.Template
	Items    []deck.Item
	Images   map[int][]byte
	Phase    Phase
	Err      error
	Editing  int
}

func (s Snapshot) HasContent() bool { return s.Items != nil }

func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	s := Snapshot{
		Prompt:   o.topic,
		DocType:  o.docType,
		Template: o.style,
		Phase:    o.phase,
		Err:      o.lastErr,
		Editing:  o.editing,
	}
	if s.DocType == "" {
		s.DocType = o.settings.DocType
		s.Template = o.settings.Template
	}
	if o.order == nil {
		return s
	}
	s.Items = make([]deck.Item, len(o.order))
	s.Images = make(map[int][]byte, len(o.images))
	for i, id := range o.order {
		s.Items[i] = o.items[id]
		if img, ok := o.images[id]; ok {
			s.Images[i] = img
		}
	}
	return s
}

func errBusy() error {
	return apperr.New(apperr.KindBusy, "another generation is in progress")
}

// itemAt must be called with mu held.
func (o *Orchestrator) itemAt(i int) (deck.Item, ulid.ULID, error) {
	if o.order == nil {
		return deck.Item{}, ulid.ULID{}, ErrNoContent
	}
	if i < 0 || i >= len(o.order) {
		return deck.Item{}, ulid.ULID{}, fmtIndex(i, len(o.order))
	}
	id := o.order[i]
	return o.items[id], id, nil
}

// newID must be called with mu held.
func (o *Orchestrator) newID() ulid.ULID {
	return ulid.MustNew(ulid.Timestamp(time.Now()), o.entropy)
}

func (o *Orchestrator) release() {
	o.mu.Lock()
	o.busy = false
	o.status = ""
	o.mu.Unlock()
}

func (o *Orchestrator) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.opts.CallTimeout > 0 {
		return context.WithTimeout(ctx, o.opts.CallTimeout)
	}
	return context.WithCancel(ctx)
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }
