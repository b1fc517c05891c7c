package ai

import (
	"context"

	"github.com/thywilljoshua/deckgen/internal/deck"
)

type GenerateRequest struct {
	Prompt   string
	DocType  deck.DocumentType
	Template deck.Template
	// ItemCount is the exact slide count asked for. Ignored for documents.
	ItemCount int
	// Grounding is text extracted from an attached file. Empty means creative mode.
	Grounding string
}

type RegenerateRequest struct {
	// TopicPrompt is the whole-document prompt, not the item being replaced.
	TopicPrompt string
	Instruction string
	Media       deck.MediaRequest
}

type ContentGenerator interface {
	Generate(ctx context.Context, req GenerateRequest) ([]deck.Item, error)
}

type SlideRegenerator interface {
	Regenerate(ctx context.Context, req RegenerateRequest) (deck.Item, error)
}

type ImageSynthesizer interface {
	Synthesize(ctx context.Context, prompt string) ([]byte, error)
}

// Provider is everything the orchestrator needs from a model backend.
type Provider interface {
	ContentGenerator
	SlideRegenerator
	ImageSynthesizer
}
