package tts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
)

// DefaultHost is the public translation TTS endpoint. It requires no
// authentication token, which is exactly why the call sits behind a
// circuit breaker: when the endpoint starts refusing traffic there is
// no point hammering it once per word.
const DefaultHost = "https://translate.google.com"

// GoogleTranslate synthesizes speech through the public
// translate_tts endpoint. All requests go through a shared circuit
// breaker; while the breaker is open every Synthesize call fails
// immediately without touching the network.
type GoogleTranslate struct {
	host    string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewGoogleTranslate builds a provider talking to host (DefaultHost
// when empty). The http.Client's timeout bounds each synthesis call;
// callers may additionally bound it per request via context.
func NewGoogleTranslate(host string, client *http.Client) *GoogleTranslate {
	if host == "" {
		host = DefaultHost
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "tts",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &GoogleTranslate{host: host, client: client, breaker: cb}
}

// Synthesize fetches MP3 audio for the text. Any non-200 response is
// an error; the body is returned unread so the caller can stream it
// straight into storage.
func (g *GoogleTranslate) Synthesize(ctx context.Context, text, language string) (io.ReadCloser, error) {
	body, err := g.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.requestURL(text, language), nil)
		if err != nil {
			return nil, err
		}
		resp, err := g.client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("tts endpoint returned status %d", resp.StatusCode)
		}
		return resp.Body, nil
	})
	if err != nil {
		return nil, err
	}
	return body.(io.ReadCloser), nil
}

// requestURL builds the translate_tts query. client=tw-ob selects the
// tokenless variant of the endpoint.
func (g *GoogleTranslate) requestURL(text, language string) string {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", language)
	q.Set("q", text)
	return g.host + "/translate_tts?" + q.Encode()
}
