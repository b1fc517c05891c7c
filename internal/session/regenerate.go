package session

import (
	"context"
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/thywilljoshua/deckgen/internal/ai"
	"github.com/thywilljoshua/deckgen/internal/apperr"
	"github.com/thywilljoshua/deckgen/internal/deck"
)

// RegenResult describes a successful regeneration.
type RegenResult struct {
	Index int
	Item  deck.Item
	// HasImage reports whether images[Index] is set afterwards.
	HasImage bool
	// ImageErr is set when the new item asked for an image and synthesis failed.
	// The item is still replaced; it just has no image.
	ImageErr error
}

// Regenerate replaces item i with a fresh one derived from instruction in the
// context of the generation prompt. A blank instruction falls back to the
// current item's title and bullets. On failure item i and its image are kept.
// Edit mode is left in every case.
func (o *Orchestrator) Regenerate(ctx context.Context, i int, instruction string, media deck.MediaRequest) (RegenResult, error) {
	req, oldID, err := o.beginRegenerate(i, instruction, media)
	if err != nil {
		return RegenResult{}, err
	}
	defer o.release()

	res, err := o.regenerate(ctx, i, oldID, req)
	o.metrics.Regeneration(string(media), err)
	if err != nil {
		o.log.Error().Err(err).Int("index", i).Msg("regeneration failed")
	}
	return res, err
}

func (o *Orchestrator) beginRegenerate(i int, instruction string, media deck.MediaRequest) (ai.RegenerateRequest, ulid.ULID, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.busy {
		return ai.RegenerateRequest{}, ulid.ULID{}, errBusy()
	}
	o.editing = -1
	it, id, err := o.itemAt(i)
	if err != nil {
		return ai.RegenerateRequest{}, ulid.ULID{}, apperr.Wrap(err, apperr.KindRegeneration, "")
	}
	if blank(instruction) {
		instruction = deck.DefaultInstruction(it)
	}
	o.busy = true
	o.status = fmt.Sprintf("Regenerating slide %d...", i+1)
	return ai.RegenerateRequest{TopicPrompt: o.topic, Instruction: instruction, Media: media}, id, nil
}

func (o *Orchestrator) regenerate(ctx context.Context, i int, oldID ulid.ULID, req ai.RegenerateRequest) (RegenResult, error) {
	callCtx, cancel := o.callContext(ctx)
	it, err := o.provider.Regenerate(callCtx, req)
	cancel()
	if err == nil {
		err = deck.CheckMedia(it, req.Media)
	}
	if err != nil {
		return RegenResult{}, apperr.Wrap(err, apperr.KindRegeneration, "")
	}

	res := RegenResult{Index: i, Item: it}
	var img []byte
	if it.WantsImage() {
		o.mu.Lock()
		o.status = fmt.Sprintf("Generating new image for slide %d...", i+1)
		o.mu.Unlock()
		img, res.ImageErr = o.synthesize(ctx, it.ImagePrompt)
		if res.ImageErr != nil {
			o.log.Warn().Err(res.ImageErr).Int("index", i).Str("prompt", it.ImagePrompt).Msg("image generation failed")
		}
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	// the old identity goes away with its image
	id := o.newID()
	o.order[i] = id
	delete(o.items, oldID)
	delete(o.images, oldID)
	o.items[id] = it
	if img != nil {
		o.images[id] = img
		res.HasImage = true
	}
	return res, nil
}
