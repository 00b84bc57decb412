package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/modelrelay/modelrelay/llm"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

// Connection pool limits for the shared HTTP client.
const (
	maxConns          = 1000
	maxKeepaliveConns = 100
)

// Config holds everything needed to construct an Adapter.
type Config struct {
	// Provider overrides the vendor name carried on messages and errors.
	// Defaults to "openai". OpenAI-compatible vendors (DeepSeek, xAI) set
	// their own name and base URL.
	Provider     string
	APIKey       string
	BaseURL      string
	Organization string
	Model        string
	Temperature  *float64
	MaxTokens    int
	Timeout      time.Duration
	Tools        []llm.ToolSpec
	Dispatcher   llm.Dispatcher
	Logger       zerolog.Logger
}

// Adapter implements llm.Adapter against OpenAI's chat-completions API and
// any vendor exposing the same wire shape.
type Adapter struct {
	provider    string
	model       string
	client      *openai.Client
	temperature *float64
	maxTokens   int
	tools       []llm.ToolSpec
	dispatcher  llm.Dispatcher
	lifetime    *llm.Accumulator
	logger      zerolog.Logger
}

// New constructs an Adapter. A missing API key is logged rather than
// returned as an error; the failure surfaces later as an authentication
// error from the vendor.
func New(cfg Config) *Adapter {
	provider := cfg.Provider
	if provider == "" {
		provider = llm.ProviderOpenAI
	}
	logger := cfg.Logger.With().Str("provider", provider).Str("model", cfg.Model).Logger()

	if cfg.APIKey == "" {
		logger.Error().Msg("API key is not set; requests will fail authentication")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	if cfg.Organization != "" {
		clientConfig.OrgID = cfg.Organization
	}
	clientConfig.HTTPClient = &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        maxConns,
			MaxIdleConnsPerHost: maxKeepaliveConns,
		},
	}

	return &Adapter{
		provider:    provider,
		model:       cfg.Model,
		client:      openai.NewClientWithConfig(clientConfig),
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		tools:       cfg.Tools,
		dispatcher:  cfg.Dispatcher,
		lifetime:    llm.NewAccumulator(),
		logger:      logger,
	}
}

// Provider implements llm.Adapter.
func (a *Adapter) Provider() string { return a.provider }

// Model implements llm.Adapter.
func (a *Adapter) Model() string { return a.model }

// LifetimeMetrics implements llm.Adapter.
func (a *Adapter) LifetimeMetrics() map[string]float64 { return a.lifetime.Totals() }

// Invoke sends one non-streaming chat-completion request and returns the raw
// vendor completion.
func (a *Adapter) Invoke(ctx context.Context, messages []llm.Message) (openai.ChatCompletionResponse, error) {
	return a.client.CreateChatCompletion(ctx, a.buildRequest(messages, false))
}

// Response implements llm.Adapter.
func (a *Adapter) Response(ctx context.Context, conv *llm.Conversation) (*llm.ModelResponse, error) {
	return a.respond(ctx, conv, 1)
}

func (a *Adapter) respond(ctx context.Context, conv *llm.Conversation, turn int) (*llm.ModelResponse, error) {
	if turn > llm.MaxToolTurns {
		return nil, llm.ErrToolLoopExceeded(a.provider, a.model)
	}

	resp, err := a.Invoke(ctx, conv.Messages)
	if err != nil {
		return nil, a.convertError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, llm.NewProviderError(a.provider, a.model, 0, "no choices in response", nil)
	}

	choice := resp.Choices[0]
	assistant := llm.Message{
		Role:      llm.RoleAssistant,
		Content:   choice.Message.Content,
		ToolCalls: fromVendorToolCalls(choice.Message.ToolCalls),
	}

	metrics := usageMetrics(resp.Usage)
	assistant.Metrics = metrics.ToMap()
	a.lifetime.Add(metrics)
	conv.Append(assistant)

	if len(assistant.ToolCalls) > 0 {
		if a.dispatcher == nil {
			return nil, llm.NewInvalidRequestError(a.provider, a.model, 0,
				"model requested tool calls but no dispatcher is configured", nil)
		}
		if llm.HasRepeatedFailingCalls(conv) {
			return nil, llm.ErrRepeatedToolFailure(a.provider, a.model)
		}
		llm.RunToolCalls(ctx, a.dispatcher, assistant.ToolCalls, conv, a.logger)
		return a.respond(ctx, conv, turn+1)
	}

	return &llm.ModelResponse{Content: assistant.Content}, nil
}

// ResponseStream implements llm.Adapter.
func (a *Adapter) ResponseStream(ctx context.Context, conv *llm.Conversation, fn llm.StreamFunc) error {
	return a.respondStream(ctx, conv, fn, 1)
}

func (a *Adapter) respondStream(ctx context.Context, conv *llm.Conversation, fn llm.StreamFunc, turn int) error {
	if turn > llm.MaxToolTurns {
		return llm.ErrToolLoopExceeded(a.provider, a.model)
	}

	stream, err := a.client.CreateChatCompletionStream(ctx, a.buildRequest(conv.Messages, true))
	if err != nil {
		return a.convertError(err)
	}
	defer stream.Close()

	sd := llm.NewStreamData()
	var metrics llm.Metrics
	start := time.Now()

	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			return a.convertError(recvErr)
		}

		// The trailing usage chunk has no choices.
		if chunk.Usage != nil {
			foldUsage(&metrics, *chunk.Usage)
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		delta := chunk.Choices[0].Delta
		if delta.Content != "" {
			if metrics.TimeToFirstToken == nil {
				metrics.TimeToFirstToken = llm.Float64Ptr(time.Since(start).Seconds())
			}
			sd.AddContent(delta.Content)
			if err := fn(llm.ModelResponse{Content: delta.Content}); err != nil {
				return fmt.Errorf("stream handler: %w", err)
			}
		}
		for _, tc := range delta.ToolCalls {
			frag := llm.ToolCallFragment{
				ID:             tc.ID,
				Name:           tc.Function.Name,
				ArgumentsDelta: tc.Function.Arguments,
			}
			if tc.Index != nil {
				frag.Index = *tc.Index
			}
			sd.AddToolCall(frag)
		}
	}

	assistant := llm.Message{
		Role:      llm.RoleAssistant,
		Content:   sd.Content(),
		ToolCalls: sd.ToolCalls(),
	}
	assistant.Metrics = metrics.ToMap()
	a.lifetime.Add(metrics)
	conv.Append(assistant)

	if len(assistant.ToolCalls) > 0 {
		if a.dispatcher == nil {
			return llm.NewInvalidRequestError(a.provider, a.model, 0,
				"model requested tool calls but no dispatcher is configured", nil)
		}
		if llm.HasRepeatedFailingCalls(conv) {
			return llm.ErrRepeatedToolFailure(a.provider, a.model)
		}
		llm.RunToolCalls(ctx, a.dispatcher, assistant.ToolCalls, conv, a.logger)
		return a.respondStream(ctx, conv, fn, turn+1)
	}

	return nil
}

func (a *Adapter) buildRequest(messages []llm.Message, stream bool) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model:    a.model,
		Messages: toVendorMessages(messages),
		Stream:   stream,
	}
	if stream {
		req.StreamOptions = &openai.StreamOptions{IncludeUsage: true}
	}
	if len(a.tools) > 0 {
		req.Tools = toVendorTools(a.tools)
		req.ToolChoice = "auto"
	}
	if a.maxTokens > 0 {
		req.MaxTokens = a.maxTokens
	}
	if a.temperature != nil {
		req.Temperature = float32(*a.temperature)
	}
	return req
}

// convertError normalizes a vendor failure into a typed *llm.Error carrying
// the provider name, model id, and HTTP status code when available.
func (a *Adapter) convertError(err error) error {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return &llm.Error{
			Type:        llm.ErrorTypeNetwork,
			Provider:    a.provider,
			Model:       a.model,
			Message:     "request failed",
			Retryable:   true,
			ProviderErr: err,
		}
	}

	switch apiErr.HTTPStatusCode {
	case http.StatusTooManyRequests:
		return llm.NewRateLimitError(a.provider, a.model, apiErr.Message, nil, err)
	case http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity:
		return llm.NewInvalidRequestError(a.provider, a.model, apiErr.HTTPStatusCode, apiErr.Message, err)
	default:
		return llm.NewProviderError(a.provider, a.model, apiErr.HTTPStatusCode, apiErr.Message, err)
	}
}

func usageMetrics(usage openai.Usage) llm.Metrics {
	var m llm.Metrics
	foldUsage(&m, usage)
	return m
}

// foldUsage copies the vendor usage block into m. The wire format reports
// token counts unconditionally on completed calls, so all three are taken.
func foldUsage(m *llm.Metrics, usage openai.Usage) {
	m.InputTokens = llm.Int64Ptr(int64(usage.PromptTokens))
	m.OutputTokens = llm.Int64Ptr(int64(usage.CompletionTokens))
	m.TotalTokens = llm.Int64Ptr(int64(usage.TotalTokens))
}
