package groq

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.groq.com/openai/v1"

// Connection pool limits for the shared HTTP client.
const (
	maxConns          = 1000
	maxKeepaliveConns = 100
)

// Client is a minimal wire client for Groq's chat-completions API. Groq is
// OpenAI-shaped on requests but reports extra timing fields in its usage
// block, which is why it gets its own client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Groq wire client. An empty baseURL uses the public
// endpoint; a zero timeout disables the client-level timeout.
func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        maxConns,
				MaxIdleConnsPerHost: maxKeepaliveConns,
			},
		},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	Tools       []wireTool    `json:"tools,omitempty"`
	ToolChoice  string        `json:"tool_choice,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

type wireMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type wireToolCall struct {
	Index    *int         `json:"index,omitempty"`
	ID       string       `json:"id,omitempty"`
	Type     string       `json:"type,omitempty"`
	Function wireFunction `json:"function"`
}

type wireFunction struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

type wireTool struct {
	Type     string          `json:"type"`
	Function wireFunctionDef `json:"function"`
}

type wireFunctionDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

// wireUsage is Groq's usage block. Pointer fields keep "not reported"
// distinct from a reported zero.
type wireUsage struct {
	PromptTokens     *int64   `json:"prompt_tokens"`
	CompletionTokens *int64   `json:"completion_tokens"`
	TotalTokens      *int64   `json:"total_tokens"`
	PromptTime       *float64 `json:"prompt_time"`
	CompletionTime   *float64 `json:"completion_time"`
	QueueTime        *float64 `json:"queue_time"`
	TotalTime        *float64 `json:"total_time"`
}

type completionChoice struct {
	Message      wireMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

// Completion is one non-streaming chat completion.
type Completion struct {
	Choices []completionChoice `json:"choices"`
	Usage   *wireUsage         `json:"usage"`
}

type chunkDelta struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	ToolCalls []wireToolCall `json:"tool_calls"`
}

type chunkChoice struct {
	Delta        chunkDelta `json:"delta"`
	FinishReason string     `json:"finish_reason"`
}

// Chunk is one incremental unit of a streamed response. Groq delivers the
// trailing usage summary under x_groq on the final chunk.
type Chunk struct {
	Choices []chunkChoice `json:"choices"`
	Usage   *wireUsage    `json:"usage"`
	XGroq   *struct {
		Usage *wireUsage `json:"usage"`
	} `json:"x_groq"`
}

// usage returns the chunk's usage block regardless of where the vendor put it.
func (c *Chunk) usage() *wireUsage {
	if c.Usage != nil {
		return c.Usage
	}
	if c.XGroq != nil {
		return c.XGroq.Usage
	}
	return nil
}

type apiErrorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// APIError is a non-success response from the Groq API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("groq http %d: %s", e.StatusCode, e.Message)
}

// CreateChatCompletion sends one non-streaming request.
func (c *Client) CreateChatCompletion(ctx context.Context, req chatRequest) (*Completion, error) {
	req.Stream = false
	resp, err := c.post(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var completion Completion
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, fmt.Errorf("decode completion: %w", err)
	}
	return &completion, nil
}

// CreateChatCompletionStream opens a streaming request. The caller must Close
// the returned stream.
func (c *Client) CreateChatCompletionStream(ctx context.Context, req chatRequest) (*ChatStream, error) {
	req.Stream = true
	resp, err := c.post(ctx, req)
	if err != nil {
		return nil, err
	}
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &ChatStream{body: resp.Body, scanner: scanner}, nil
}

func (c *Client) post(ctx context.Context, payload chatRequest) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(resp.Body)
		var parsed apiErrorBody
		message := strings.TrimSpace(string(raw))
		if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Error.Message != "" {
			message = parsed.Error.Message
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: message}
	}
	return resp, nil
}

// ChatStream reads server-sent-event chunks from a streaming response.
type ChatStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	done    bool
}

// Recv returns the next chunk, or io.EOF when the vendor signals completion.
func (s *ChatStream) Recv() (*Chunk, error) {
	if s.done {
		return nil, io.EOF
	}
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			s.done = true
			return nil, io.EOF
		}
		var chunk Chunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return nil, fmt.Errorf("decode chunk: %w", err)
		}
		return &chunk, nil
	}
	if err := s.scanner.Err(); err != nil {
		return nil, err
	}
	s.done = true
	return nil, io.EOF
}

// Close closes the underlying response body.
func (s *ChatStream) Close() error {
	return s.body.Close()
}
