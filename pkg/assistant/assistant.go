// Package assistant answers chat questions and produces podcast summaries over
// the snippets of the current selection.
package assistant

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"docuwise-client/internal/pkg/logger"
	"docuwise-client/pkg/backend"
	"docuwise-client/pkg/store"

	"github.com/patrickmn/go-cache"
)

const (
	PodcastPersona = "narrator"
	PodcastTask    = "summarize"

	DefaultDocChatTopK = 5
)

var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrNoSnippets   = errors.New("no snippets to summarize")
	ErrNoAudio      = errors.New("backend returned no audio")
)

type Assistant struct {
	store   *store.Store
	client  backend.Client
	podcast *cache.Cache
	logger  logger.ILogger
}

func New(st *store.Store, client backend.Client, log logger.ILogger) *Assistant {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Assistant{
		store:  st,
		client: client,
		// Podcast generation is slow; identical snippet sets reuse the audio.
		podcast: cache.New(30*time.Minute, 10*time.Minute),
		logger:  log,
	}
}

func snippetTexts(snippets []store.Snippet) []string {
	texts := make([]string, 0, len(snippets))
	for _, s := range snippets {
		if t := strings.TrimSpace(s.Text); t != "" {
			texts = append(texts, t)
		}
	}
	return texts
}

// Chat answers message with the current snippet texts as context.
func (a *Assistant) Chat(ctx context.Context, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyMessage
	}

	texts := snippetTexts(a.store.Snapshot().Snippets)
	answer, err := a.client.Chat(ctx, message, texts)
	if err != nil {
		a.logger.Error("Assistant", "Chat failed", map[string]interface{}{
			"error":        err.Error(),
			"context_size": len(texts),
		})
		return "", err
	}
	return answer, nil
}

// DocChat answers message from the whole document collection.
func (a *Assistant) DocChat(ctx context.Context, message string) (*backend.DocChatResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	res, err := a.client.DocChat(ctx, message, DefaultDocChatTopK)
	if err != nil {
		a.logger.Error("Assistant", "Doc chat failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}
	return res, nil
}

func podcastKey(texts []string) string {
	h := sha256.New()
	for _, t := range texts {
		h.Write([]byte(t))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// GeneratePodcast narrates the current snippets and stores the audio location
// in the shared state. The result is dropped if the snippets changed while it
// was being generated.
func (a *Assistant) GeneratePodcast(ctx context.Context) (*backend.PodcastResult, error) {
	snap := a.store.Snapshot()
	texts := snippetTexts(snap.Snippets)
	if len(texts) == 0 {
		return nil, ErrNoSnippets
	}

	key := podcastKey(texts)
	if cached, found := a.podcast.Get(key); found {
		res := cached.(*backend.PodcastResult)
		a.publishAudio(key, res.AudioURL)
		return res, nil
	}

	res, err := a.client.Podcast(ctx, backend.PodcastRequest{
		SectionTexts: texts,
		Persona:      PodcastPersona,
		Task:         PodcastTask,
	})
	if err != nil {
		a.logger.Error("Assistant", "Podcast generation failed", map[string]interface{}{
			"error":    err.Error(),
			"sections": len(texts),
		})
		return nil, fmt.Errorf("generate podcast: %w", err)
	}
	if res.AudioURL == "" {
		return nil, ErrNoAudio
	}

	a.podcast.Set(key, res, cache.DefaultExpiration)
	a.publishAudio(key, res.AudioURL)
	return res, nil
}

func (a *Assistant) publishAudio(key, url string) {
	if podcastKey(snippetTexts(a.store.Snapshot().Snippets)) != key {
		a.logger.Debug("Assistant", "Snippets changed, audio not published", nil)
		return
	}
	a.store.SetAudioURL(url)
}
