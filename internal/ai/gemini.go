package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	genai "google.golang.org/genai"

	"github.com/thywilljoshua/deckgen/internal/apperr"
	"github.com/thywilljoshua/deckgen/internal/deck"
)

var (
	ErrEmptyResponse = errors.New("model returned an empty response")
	ErrNotArray      = errors.New("API did not return a valid array")
	ErrNotObject     = errors.New("API did not return a single JSON object")
	ErrNoImage       = errors.New("no image was generated from the prompt")
)

const (
	DefaultTextModel  = "gemini-2.5-flash"
	DefaultImageModel = "imagen-4.0-generate-001"
)

// models is the slice of *genai.Models this package calls.
type models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateImages(ctx context.Context, model, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

type Gemini struct {
	models     models
	TextModel  string
	ImageModel string
	log        zerolog.Logger
}

func NewGemini(ctx context.Context, apiKey, textModel, imageModel string, log zerolog.Logger) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("missing GEMINI_API_KEY")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, err
	}
	return newGemini(c.Models, textModel, imageModel, log), nil
}

func newGemini(m models, textModel, imageModel string, log zerolog.Logger) *Gemini {
	if textModel == "" {
		textModel = DefaultTextModel
	}
	if imageModel == "" {
		imageModel = DefaultImageModel
	}
	return &Gemini{
		models:     m,
		TextModel:  textModel,
		ImageModel: imageModel,
		log:        log.With().Str("component", "gemini").Logger(),
	}
}

func (g *Gemini) complete(ctx context.Context, in Instruction) (string, error) {
	res, err := g.models.GenerateContent(ctx, g.TextModel, []*genai.Content{
		genai.NewContentFromText(in.User, genai.RoleUser),
	}, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(in.System, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    in.Schema,
	})
	if err != nil {
		return "", fmt.Errorf("gemini API call failed: %w", err)
	}
	if res == nil {
		return "", ErrEmptyResponse
	}
	js := strings.TrimSpace(res.Text())
	g.log.Debug().Int("bytes", len(js)).Str("model", g.TextModel).Msg("gemini response")
	if js == "" {
		return "", ErrEmptyResponse
	}
	return js, nil
}

func (g *Gemini) Generate(ctx context.Context, req GenerateRequest) ([]deck.Item, error) {
	js, err := g.complete(ctx, GenerationInstruction(req))
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindGeneration, "")
	}
	items, err := parseItems(js)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindGeneration, "")
	}
	return items, nil
}

func (g *Gemini) Regenerate(ctx context.Context, req RegenerateRequest) (deck.Item, error) {
	js, err := g.complete(ctx, RegenerationInstruction(req))
	if err != nil {
		return deck.Item{}, apperr.Wrap(err, apperr.KindRegeneration, "")
	}
	it, err := parseItem(js)
	if err != nil {
		return deck.Item{}, apperr.Wrap(err, apperr.KindRegeneration, "")
	}
	return it, nil
}

func (g *Gemini) Synthesize(ctx context.Context, prompt string) ([]byte, error) {
	res, err := g.models.GenerateImages(ctx, g.ImageModel, FramedImagePrompt(prompt), &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		OutputMIMEType: "image/jpeg",
		AspectRatio:    "16:9",
	})
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindImage, "")
	}
	if res == nil || len(res.GeneratedImages) == 0 || res.GeneratedImages[0].Image == nil || len(res.GeneratedImages[0].Image.ImageBytes) == 0 {
		return nil, apperr.Wrap(ErrNoImage, apperr.KindImage, "")
	}
	return res.GeneratedImages[0].Image.ImageBytes, nil
}

func parseItems(js string) ([]deck.Item, error) {
	js = stripCodeFences(js)
	if strings.HasPrefix(js, "{") {
		return nil, ErrNotArray
	}
	if !strings.HasPrefix(js, "[") {
		if s := findFirstJSON(js, '[', ']'); s != "" {
			js = s
		} else {
			return nil, ErrNotArray
		}
	}
	var items []deck.Item
	if err := json.Unmarshal([]byte(js), &items); err != nil {
		return nil, fmt.Errorf("failed to parse response as JSON: %w", err)
	}
	items = deck.Normalize(items)
	if err := deck.Validate(items); err != nil {
		return nil, err
	}
	return items, nil
}

func parseItem(js string) (deck.Item, error) {
	js = stripCodeFences(js)
	if strings.HasPrefix(js, "[") {
		return deck.Item{}, ErrNotObject
	}
	if !strings.HasPrefix(js, "{") {
		if s := findFirstJSON(js, '{', '}'); s != "" {
			js = s
		} else {
			return deck.Item{}, ErrNotObject
		}
	}
	var it deck.Item
	if err := json.Unmarshal([]byte(js), &it); err != nil {
		return deck.Item{}, fmt.Errorf("failed to parse response as JSON: %w", err)
	}
	it = deck.Normalize([]deck.Item{it})[0]
	if err := deck.ValidateItem(it); err != nil {
		return deck.Item{}, err
	}
	return it, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if nl := strings.Index(s, "\n"); nl != -1 {
			s = s[nl+1:]
		}
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}

// findFirstJSON returns the first balanced lo..hi span, ignoring brackets inside strings.
func findFirstJSON(s string, lo, hi rune) string {
	start := -1
	depth := 0
	inString, escaped := false, false
	for i, r := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			if start != -1 {
				inString = true
			}
		case lo:
			if start == -1 {
				start = i
			}
			depth++
		case hi:
			if start != -1 {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}
