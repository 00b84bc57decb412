package groq

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/modelrelay/modelrelay/llm"
)

// Config holds the settings for a Groq adapter.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature *float64
	MaxTokens   int
	Timeout     time.Duration
	Tools       []llm.ToolSpec
	Dispatcher  llm.Dispatcher
	Logger      zerolog.Logger
}

// Adapter talks to Groq's chat-completions API and normalizes its responses,
// including the per-request timing fields Groq reports alongside token usage.
type Adapter struct {
	client     *Client
	model      string
	temp       *float64
	maxTokens  int
	tools      []llm.ToolSpec
	dispatcher llm.Dispatcher
	logger     zerolog.Logger
	lifetime   *llm.Accumulator
}

// New creates a Groq adapter. A missing API key is logged rather than
// returned as an error so that construction can happen before credentials
// are resolved; requests will fail with an authentication error instead.
func New(cfg Config) *Adapter {
	model := cfg.Model
	if model == "" {
		model = llm.DefaultGroqModel
	}
	logger := cfg.Logger.With().Str("provider", llm.ProviderGroq).Str("model", model).Logger()

	if cfg.APIKey == "" {
		logger.Error().Msg("API key is not set; requests will fail authentication")
	}

	return &Adapter{
		client:     NewClient(cfg.APIKey, cfg.BaseURL, cfg.Timeout),
		model:      model,
		temp:       cfg.Temperature,
		maxTokens:  cfg.MaxTokens,
		tools:      cfg.Tools,
		dispatcher: cfg.Dispatcher,
		logger:     logger,
		lifetime:   llm.NewAccumulator(),
	}
}

// Provider returns the provider identifier.
func (a *Adapter) Provider() string { return llm.ProviderGroq }

// Model returns the configured model name.
func (a *Adapter) Model() string { return a.model }

// LifetimeMetrics returns the accumulated usage across all calls made
// through this adapter.
func (a *Adapter) LifetimeMetrics() map[string]float64 { return a.lifetime.Totals() }

// Invoke sends one non-streaming chat-completion request and returns the raw
// vendor completion.
func (a *Adapter) Invoke(ctx context.Context, messages []llm.Message) (*Completion, error) {
	return a.client.CreateChatCompletion(ctx, a.buildRequestFor(messages))
}

// Response sends the conversation to Groq and appends the assistant's reply.
// Tool calls are dispatched and the exchange continues until the model
// answers without requesting tools.
func (a *Adapter) Response(ctx context.Context, conv *llm.Conversation) (*llm.ModelResponse, error) {
	return a.respond(ctx, conv, 1)
}

func (a *Adapter) respond(ctx context.Context, conv *llm.Conversation, turn int) (*llm.ModelResponse, error) {
	if turn > llm.MaxToolTurns {
		return nil, llm.ErrToolLoopExceeded(llm.ProviderGroq, a.model)
	}

	a.logger.Debug().Int("messages", conv.Len()).Int("turn", turn).Msg("sending chat completion")
	completion, err := a.Invoke(ctx, conv.Messages)
	if err != nil {
		return nil, a.convertError(err)
	}
	if len(completion.Choices) == 0 {
		return nil, llm.NewProviderError(llm.ProviderGroq, a.model, 0, "response contained no choices", nil)
	}

	choice := completion.Choices[0]
	assistant := llm.Message{
		Role:      llm.RoleAssistant,
		Content:   choice.Message.Content,
		ToolCalls: fromWireToolCalls(choice.Message.ToolCalls),
	}
	metrics := usageMetrics(completion.Usage)
	assistant.Metrics = metrics.ToMap()
	a.lifetime.Add(metrics)
	conv.Append(assistant)

	if len(assistant.ToolCalls) > 0 {
		if a.dispatcher == nil {
			return nil, llm.NewInvalidRequestError(llm.ProviderGroq, a.model, 0,
				"model requested tool calls but no dispatcher is configured", nil)
		}
		if llm.HasRepeatedFailingCalls(conv) {
			return nil, llm.ErrRepeatedToolFailure(llm.ProviderGroq, a.model)
		}
		llm.RunToolCalls(ctx, a.dispatcher, assistant.ToolCalls, conv, a.logger)
		return a.respond(ctx, conv, turn+1)
	}

	return &llm.ModelResponse{Content: assistant.Content, ToolCalls: assistant.ToolCalls}, nil
}

// ResponseStream streams the assistant's reply, invoking fn for each content
// delta. Tool calls are assembled from fragments, dispatched, and the
// exchange continues with a fresh stream.
func (a *Adapter) ResponseStream(ctx context.Context, conv *llm.Conversation, fn llm.StreamFunc) error {
	return a.respondStream(ctx, conv, fn, 1)
}

func (a *Adapter) respondStream(ctx context.Context, conv *llm.Conversation, fn llm.StreamFunc, turn int) error {
	if turn > llm.MaxToolTurns {
		return llm.ErrToolLoopExceeded(llm.ProviderGroq, a.model)
	}

	a.logger.Debug().Int("messages", conv.Len()).Int("turn", turn).Msg("opening chat completion stream")
	stream, err := a.client.CreateChatCompletionStream(ctx, a.buildRequest(conv))
	if err != nil {
		return a.convertError(err)
	}
	defer stream.Close()

	sd := llm.NewStreamData()
	var metrics llm.Metrics
	start := time.Now()

	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return a.convertError(err)
		}
		if usage := chunk.usage(); usage != nil {
			foldUsage(&metrics, usage)
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
			index := 0
			if tc.Index != nil {
				index = *tc.Index
			}
			sd.AddToolCall(llm.ToolCallFragment{
				Index:          index,
				ID:             tc.ID,
				Name:           tc.Function.Name,
				ArgumentsDelta: tc.Function.Arguments,
			})
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
			return llm.NewInvalidRequestError(llm.ProviderGroq, a.model, 0,
				"model requested tool calls but no dispatcher is configured", nil)
		}
		if llm.HasRepeatedFailingCalls(conv) {
			return llm.ErrRepeatedToolFailure(llm.ProviderGroq, a.model)
		}
		llm.RunToolCalls(ctx, a.dispatcher, assistant.ToolCalls, conv, a.logger)
		return a.respondStream(ctx, conv, fn, turn+1)
	}
	return nil
}

func (a *Adapter) buildRequest(conv *llm.Conversation) chatRequest {
	return a.buildRequestFor(conv.Messages)
}

func (a *Adapter) buildRequestFor(messages []llm.Message) chatRequest {
	return chatRequest{
		Model:       a.model,
		Messages:    toWireMessages(messages),
		Tools:       toWireTools(a.tools),
		Temperature: a.temp,
		MaxTokens:   a.maxTokens,
	}
}

func (a *Adapter) convertError(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429:
			return llm.NewRateLimitError(llm.ProviderGroq, a.model, apiErr.Message, nil, apiErr)
		case 400, 404, 422:
			return llm.NewInvalidRequestError(llm.ProviderGroq, a.model, apiErr.StatusCode, apiErr.Message, apiErr)
		default:
			return llm.NewProviderError(llm.ProviderGroq, a.model, apiErr.StatusCode, apiErr.Message, apiErr)
		}
	}
	return &llm.Error{
		Type:        llm.ErrorTypeNetwork,
		Provider:    llm.ProviderGroq,
		Model:       a.model,
		Message:     err.Error(),
		Retryable:   true,
		ProviderErr: err,
	}
}

// usageMetrics converts a wire usage block to normalized metrics. Fields the
// vendor omitted stay nil.
func usageMetrics(u *wireUsage) llm.Metrics {
	var m llm.Metrics
	foldUsage(&m, u)
	return m
}

func foldUsage(m *llm.Metrics, u *wireUsage) {
	if u == nil {
		return
	}
	if u.PromptTokens != nil {
		m.InputTokens = llm.Int64Ptr(*u.PromptTokens)
	}
	if u.CompletionTokens != nil {
		m.OutputTokens = llm.Int64Ptr(*u.CompletionTokens)
	}
	if u.TotalTokens != nil {
		m.TotalTokens = llm.Int64Ptr(*u.TotalTokens)
	}
	if u.PromptTime != nil {
		m.PromptTime = llm.Float64Ptr(*u.PromptTime)
	}
	if u.CompletionTime != nil {
		m.CompletionTime = llm.Float64Ptr(*u.CompletionTime)
	}
	if u.QueueTime != nil {
		m.QueueTime = llm.Float64Ptr(*u.QueueTime)
	}
	if u.TotalTime != nil {
		m.TotalTime = llm.Float64Ptr(*u.TotalTime)
	}
}
