// Package tts provides speech synthesis for word pronunciation audio.
// The concrete provider is a collaborator detail hidden behind the
// Synthesizer interface so it can be swapped without touching the
// authoring pipeline.
package tts

import (
	"context"
	"io"
)

// Synthesizer converts text to spoken audio in the given language.
type Synthesizer interface {
	// Synthesize returns a stream of encoded audio (MP3 for the default
	// provider) for the text. The caller must Close the returned reader.
	// Cancellation of ctx aborts an in-flight download.
	Synthesize(ctx context.Context, text, language string) (io.ReadCloser, error)
}
