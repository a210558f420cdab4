package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"chatrelay/internal/model"
)

const maxLineSize = 1 << 20

// upstreamLine tolerates providers that name the delta payload "delta"
// instead of "content".
type upstreamLine struct {
	model.StreamEvent
	Delta string `json:"delta,omitempty"`
}

// RelayClient speaks the native provider protocol: JSON POSTs authenticated
// with an x-api-key header, streaming responses as NDJSON.
type RelayClient struct {
	baseURL string
	apiKey  string
	// The generate endpoint answers in one round trip, streams may stay
	// open far longer, so only generateClient carries the timeout.
	generateClient *http.Client
	streamClient   *http.Client
	log            *logrus.Logger
}

func NewRelay(baseURL, apiKey string, timeout time.Duration, log *logrus.Logger) *RelayClient {
	return &RelayClient{
		baseURL:        strings.TrimRight(baseURL, "/"),
		apiKey:         apiKey,
		generateClient: &http.Client{Timeout: timeout},
		streamClient:   &http.Client{},
		log:            log,
	}
}

func (c *RelayClient) Generate(ctx context.Context, prompt string) (GenerateResult, error) {
	resp, err := c.post(ctx, c.generateClient, "/generate", prompt)
	if err != nil {
		return GenerateResult{}, err
	}
	defer resp.Body.Close() //nolint:errcheck // .

	var result GenerateResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return GenerateResult{}, fmt.Errorf("failed to decode response: %w", err)
	}

	return result, nil
}

func (c *RelayClient) Stream(ctx context.Context, prompt string, onEvent EventFunc) error {
	resp, err := c.post(ctx, c.streamClient, "/stream", prompt)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck // .

	if resp.Body == http.NoBody {
		return &UpstreamError{Status: resp.StatusCode, Message: "missing response body"}
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var parsed upstreamLine
		if err := json.Unmarshal([]byte(line), &parsed); err != nil {
			c.log.WithError(err).Warn("skipping malformed upstream line")
			continue
		}

		ev := parsed.StreamEvent
		if ev.Content == "" {
			ev.Content = parsed.Delta
		}

		if err := onEvent(ev); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read upstream stream: %w", err)
	}

	return nil
}

func (c *RelayClient) post(ctx context.Context, client *http.Client, path, prompt string) (*http.Response, error) {
	jsonData, err := json.Marshal(model.ChatRequest{Message: prompt})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, &UpstreamError{Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close() //nolint:errcheck // .
		return nil, &UpstreamError{Status: resp.StatusCode, Message: "unexpected status code"}
	}

	return resp, nil
}
