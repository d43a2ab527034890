// Package audio resolves a playable pronunciation URL for a word,
// either by trusting a caller-supplied URL or by synthesizing speech
// and persisting the result.
package audio

import (
	"context"
	"log"
	"time"

	"github.com/rstolbov/dictation-backend/internal/storage"
	"github.com/rstolbov/dictation-backend/internal/tts"
)

// Resolver obtains audio URLs for words. Synthesis failures never
// abort an authoring operation: a word without audio is legal and the
// client falls back to its own synthesis, so every failure here is
// logged and downgraded to an empty URL.
type Resolver struct {
	synth   tts.Synthesizer
	store   storage.Store
	timeout time.Duration
}

// NewResolver wires a synthesizer and a store. timeout bounds each
// synthesis call; zero selects a 15 second default.
func NewResolver(synth tts.Synthesizer, store storage.Store, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Resolver{synth: synth, store: store, timeout: timeout}
}

// Resolve returns the audio URL for one word. A non-empty supplied
// URL is trusted and returned unchanged. Otherwise the text is
// synthesized and streamed into storage; the empty string means no
// audio could be resolved.
func (r *Resolver) Resolve(ctx context.Context, text, language, suppliedURL string) string {
	if suppliedURL != "" {
		return suppliedURL
	}

	cctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	stream, err := r.synth.Synthesize(cctx, text, language)
	if err != nil {
		log.Printf("tts: synthesis failed for %q (%s): %v", text, language, err)
		return ""
	}
	defer stream.Close()

	url, err := r.store.Save(cctx, stream)
	if err != nil {
		log.Printf("tts: saving audio failed for %q: %v", text, err)
		return ""
	}
	return url
}
