package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"docuwise-client/internal/pkg/logger"
	"docuwise-client/pkg/store"
)

// StatusError is returned for any non-2xx backend response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend %s %s: status %d, body: %s", e.Method, e.Path, e.Code, e.Body)
}

// ErrMalformedResponse wraps payloads that could not be decoded.
var ErrMalformedResponse = errors.New("malformed backend response")

type HTTPClient struct {
	BaseURL string
	Client  *http.Client
	logger  logger.ILogger
}

// Ensure HTTPClient implements Client
var _ Client = &HTTPClient{}

// NewHTTPClient builds a client whose requests are bounded by timeout.
// Backend PDF processing can be slow, so callers usually pass minutes, not seconds.
func NewHTTPClient(baseURL string, timeout time.Duration, log logger.ILogger) *HTTPClient {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &HTTPClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Timeout: timeout,
		},
		logger: log,
	}
}

// --- Request/Response structs (Internal to this package) ---

type documentsResponse struct {
	Documents []store.DocumentMeta `json:"documents"`
}

type insightsPayload struct {
	Texts        []string `json:"texts"`
	SectionTexts []string `json:"section_texts"`
	Persona      string   `json:"persona"`
	Task         string   `json:"task"`
}

type chatRequest struct {
	Message string   `json:"message"`
	Context []string `json:"context"`
}

type chatResponse struct {
	Text string `json:"text"`
}

type docChatRequest struct {
	Message string `json:"message"`
	TopK    int    `json:"top_k"`
}

type podcastResponse struct {
	Script string `json:"script"`
	TTS    *struct {
		URL       string `json:"url"`
		AudioPath string `json:"audio_path"`
	} `json:"tts"`
	TTSError string `json:"tts_error"`
	Error    string `json:"error"`
}

// --- Transport helpers ---

func (c *HTTPClient) do(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("backend %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("Backend", "Request completed", map[string]interface{}{
		"method":      method,
		"path":        path,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: truncate(string(respBody), 512)}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrMalformedResponse, method, path, err)
	}
	return nil
}

func (c *HTTPClient) postJSON(ctx context.Context, path string, payload, out interface{}) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(payloadBytes), "application/json", out)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// --- Interface Implementation ---

func (c *HTTPClient) ListDocuments(ctx context.Context) ([]store.DocumentMeta, error) {
	var res documentsResponse
	if err := c.do(ctx, http.MethodGet, "/documents", nil, "", &res); err != nil {
		return nil, err
	}
	if res.Documents == nil {
		return []store.DocumentMeta{}, nil
	}
	return res.Documents, nil
}

func (c *HTTPClient) Ingest(ctx context.Context, files []UploadFile, kind IngestKind) error {
	if len(files) == 0 {
		return errors.New("ingest: no files")
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	if err := form.WriteField("kind", string(kind)); err != nil {
		return fmt.Errorf("write kind field: %w", err)
	}
	for _, f := range files {
		part, err := form.CreateFormFile("files", f.Name)
		if err != nil {
			return fmt.Errorf("create form file %s: %w", f.Name, err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return fmt.Errorf("copy %s: %w", f.Name, err)
		}
	}
	if err := form.Close(); err != nil {
		return fmt.Errorf("close multipart: %w", err)
	}

	return c.do(ctx, http.MethodPost, "/ingest", &buf, form.FormDataContentType(), nil)
}

func (c *HTTPClient) DeleteDocument(ctx context.Context, id string) error {
	// Ids are filenames and may contain spaces.
	return c.do(ctx, http.MethodDelete, "/documents/"+url.PathEscape(id), nil, "", nil)
}

func (c *HTTPClient) Recommend(ctx context.Context, req RecommendRequest) (*Recommendation, error) {
	var env recommendEnvelope
	if err := c.postJSON(ctx, "/recommend", req, &env); err != nil {
		return nil, err
	}
	return normalizeRecommendation(env), nil
}

func (c *HTTPClient) Insights(ctx context.Context, req InsightsRequest) (*InsightsResult, error) {
	payload := insightsPayload{
		Texts:        req.Texts,
		SectionTexts: req.Texts,
		Persona:      req.Persona,
		Task:         req.Task,
	}
	var env insightsEnvelope
	if err := c.postJSON(ctx, "/insights", payload, &env); err != nil {
		return nil, err
	}

	res := &InsightsResult{Pack: store.EmptyInsights(), Raw: rawText(env.Raw)}
	if env.Parsed != nil {
		res.Pack = env.Parsed.pack()
	}
	return res, nil
}

func (c *HTTPClient) Chat(ctx context.Context, message string, context []string) (string, error) {
	var res chatResponse
	err := c.postJSON(ctx, "/chat", chatRequest{Message: message, Context: context}, &res)
	if err == nil {
		if strings.TrimSpace(res.Text) == "" {
			return "Sorry, I couldn't process that.", nil
		}
		return res.Text, nil
	}

	c.logger.Warn("Backend", "Chat endpoint failed, falling back to insights", map[string]interface{}{
		"error": err.Error(),
	})

	ins, ierr := c.Insights(ctx, InsightsRequest{Texts: context, Persona: "Chat user", Task: message})
	if ierr != nil {
		return "", fmt.Errorf("chat fallback: %w", ierr)
	}
	if len(ins.Pack.Insights) > 0 {
		return strings.Join(ins.Pack.Insights, "\n• "), nil
	}
	if ins.Raw != "" {
		return ins.Raw, nil
	}
	return "No response available.", nil
}

func (c *HTTPClient) DocChat(ctx context.Context, message string, topK int) (*DocChatResult, error) {
	var res DocChatResult
	if err := c.postJSON(ctx, "/doc-chat", docChatRequest{Message: message, TopK: topK}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPClient) Podcast(ctx context.Context, req PodcastRequest) (*PodcastResult, error) {
	var res podcastResponse
	if err := c.postJSON(ctx, "/podcast", req, &res); err != nil {
		return nil, err
	}
	if res.Error != "" {
		return nil, fmt.Errorf("podcast: %s", res.Error)
	}

	out := &PodcastResult{Script: res.Script}
	if res.TTS != nil {
		out.AudioURL = firstNonEmpty(res.TTS.URL, res.TTS.AudioPath)
	}
	return out, nil
}
