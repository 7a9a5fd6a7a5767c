// Package ai wraps the Gemini generative-text API for topic
// classification and article analysis.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"

	"newsy/models"
)

const (
	defaultModel   = "gemini-2.0-flash"
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
)

const topicPrompt = `You are classifying AI news articles into exactly one topic for a daily newsletter.

Topics (respond with ONLY one of these exact labels):
- Models
- Agents & Tools
- MCP & SKILLs
- Safety
- Industry

Given the article title and optionally a short snippet, respond with exactly one topic label from the list above. No explanation, just the topic.`

const analyzePrompt = `You are a concise tech news summarizer. Given an article title, content and URL, write:
1. "summary": a 2-3 sentence summary that captures the key news, explains why it matters, and uses clear, accessible language.
2. "opinion": one sentence of editorial perspective on the development.

Respond with a JSON object containing exactly the keys "summary" and "opinion". No preamble, no markdown fences.`

// Client talks to the Gemini generateContent endpoint. The zero value
// is not usable; construct it with NewClient.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

type Option func(*Client)

// WithModel overrides the default Gemini model.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithBaseURL points the client at a different API host.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = strings.TrimSuffix(url, "/")
		}
	}
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		model:   defaultModel,
		baseURL: defaultBaseURL,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// generate performs one prompt round trip. Transient failures (429,
// 5xx, network errors) are retried with exponential backoff; other
// client errors fail immediately.
func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: prompt}}},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	var text string
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("gemini API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return backoff.Permanent(err)
			}
			return err
		}

		var result generateResponse
		if err := json.Unmarshal(respBody, &result); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to parse response: %w", err))
		}
		if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
			return backoff.Permanent(fmt.Errorf("empty response from model"))
		}

		text = result.Candidates[0].Content.Parts[0].Text
		return nil
	}

	retry := backoff.WithMaxRetries(backoff.WithContext(backoff.NewExponentialBackOff(), ctx), 3)
	if err := backoff.Retry(operation, retry); err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// Classify assigns one topic label to an article. Any failure, and any
// answer outside the known labels, collapses to the default topic; the
// error is logged, never surfaced.
func (c *Client) Classify(ctx context.Context, title, snippet string) string {
	prompt := topicPrompt + "\n\nTitle: " + title
	if snippet != "" {
		if len(snippet) > 500 {
			snippet = snippet[:500]
		}
		prompt += "\nSnippet: " + snippet
	}

	text, err := c.generate(ctx, prompt)
	if err != nil {
		log.WithError(err).WithField("title", title).Warn("Topic classification failed, using default")
		return models.DefaultTopic
	}

	if models.IsTopic(text) {
		return text
	}
	lower := strings.ToLower(text)
	for _, topic := range models.Topics {
		if strings.Contains(lower, strings.ToLower(topic)) {
			return topic
		}
	}
	return models.DefaultTopic
}

// Analyze generates a summary and a short opinion for an article.
// Empty strings with a nil error never happen; callers treat a
// returned error as a soft failure and carry on.
func (c *Client) Analyze(ctx context.Context, title, articleContent, url string) (string, string, error) {
	prompt := fmt.Sprintf("%s\n\nTitle: %s\n\nContent: %s\n\nURL: %s", analyzePrompt, title, articleContent, url)

	text, err := c.generate(ctx, prompt)
	if err != nil {
		return "", "", err
	}

	var analysis struct {
		Summary string `json:"summary"`
		Opinion string `json:"opinion"`
	}
	if err := json.Unmarshal([]byte(stripFences(text)), &analysis); err != nil {
		return "", "", fmt.Errorf("failed to parse analysis: %w", err)
	}
	if analysis.Summary == "" {
		return "", "", fmt.Errorf("model returned empty summary")
	}
	return analysis.Summary, analysis.Opinion, nil
}

// stripFences removes a markdown code fence the model sometimes wraps
// JSON answers in despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}
