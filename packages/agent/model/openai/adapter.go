// Package openai adapts github.com/sashabaranov/go-openai's streaming chat
// completions API to the model.Adapter interface.
package openai

import (
	"context"
	"io"

	openai "github.com/sashabaranov/go-openai"

	"github.com/arborly/reagent/packages/agent/format"
	"github.com/arborly/reagent/packages/agent/model"
	"github.com/arborly/reagent/packages/agent/types"
	"github.com/arborly/reagent/packages/stream"
)

// Adapter streams chat completions from an OpenAI-compatible endpoint.
type Adapter struct {
	client *openai.Client
	model  string
}

// NewAdapter returns an Adapter using apiKey and targeting modelName for
// every call (e.g. "gpt-4o").
func NewAdapter(apiKey, modelName string) *Adapter {
	return &Adapter{client: openai.NewClient(apiKey), model: modelName}
}

// NewAdapterWithClient wraps an already-configured client, for pointing at a
// compatible gateway (OpenRouter, Azure OpenAI, a local proxy) or for tests.
func NewAdapterWithClient(client *openai.Client, modelName string) *Adapter {
	return &Adapter{client: client, model: modelName}
}

func (a *Adapter) Stream(ctx context.Context, wire []format.WireMessage, tools []model.ToolSchema, opts model.GenerateOptions) *stream.EventStream[model.ChatResponse, *model.Usage] {
	es := stream.NewEventStream[model.ChatResponse, *model.Usage]()

	req := openai.ChatCompletionRequest{
		Model:    a.model,
		Messages: convertMessages(wire),
		Stream:   true,
	}
	applyOptions(&req, opts)
	if len(tools) > 0 {
		req.Tools = convertTools(tools)
	}

	completionStream, err := a.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		es.EndWithError(err)
		return es
	}

	go a.drain(ctx, completionStream, es)
	return es
}

func (a *Adapter) drain(ctx context.Context, completionStream *openai.ChatCompletionStream, es *stream.EventStream[model.ChatResponse, *model.Usage]) {
	defer completionStream.Close()

	var usage model.Usage
	for {
		select {
		case <-ctx.Done():
			es.EndWithError(ctx.Err())
			return
		default:
		}

		resp, err := completionStream.Recv()
		if err != nil {
			if err == io.EOF {
				es.End(&usage)
				return
			}
			es.EndWithError(err)
			return
		}

		if resp.Usage != nil {
			usage.InputTokens = resp.Usage.PromptTokens
			usage.OutputTokens = resp.Usage.CompletionTokens
		}

		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta

		var blocks []types.ContentBlock
		if delta.Content != "" {
			blocks = append(blocks, types.TextContent{Text: delta.Content})
		}
		// Each fragment becomes its own ToolUse block immediately, per
		// spec.md §4.2: the first fragment for an index carries id+name,
		// later fragments for the same index use the __fragment__ placeholder.
		for _, tc := range delta.ToolCalls {
			name := "__fragment__"
			if tc.Function.Name != "" {
				name = tc.Function.Name
			}
			blocks = append(blocks, types.ToolUseContent{
				ID:   tc.ID,
				Name: name,
				Raw:  tc.Function.Arguments,
			})
		}

		if len(blocks) == 0 {
			continue
		}
		es.Push(model.ChatResponse{
			ID:      resp.ID,
			Content: blocks,
			Usage:   &model.Usage{InputTokens: usage.InputTokens, OutputTokens: usage.OutputTokens},
		})
	}
}

func applyOptions(req *openai.ChatCompletionRequest, opts model.GenerateOptions) {
	if opts.Temperature != nil {
		req.Temperature = float32(*opts.Temperature)
	}
	if opts.TopP != nil {
		req.TopP = float32(*opts.TopP)
	}
	if opts.MaxTokens != nil {
		req.MaxTokens = *opts.MaxTokens
	}
	if opts.FrequencyPenalty != nil {
		req.FrequencyPenalty = float32(*opts.FrequencyPenalty)
	}
	if opts.PresencePenalty != nil {
		req.PresencePenalty = float32(*opts.PresencePenalty)
	}
}

func convertMessages(wire []format.WireMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(wire))
	for _, wm := range wire {
		msg := openai.ChatCompletionMessage{
			Role:       wm.Role,
			ToolCallID: wm.ToolCallID,
		}
		switch content := wm.Content.(type) {
		case string:
			msg.Content = content
		case []format.WireContentEntry:
			msg.MultiContent = convertContentEntries(content)
		}
		for _, tc := range wm.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}
		out = append(out, msg)
	}
	return out
}

func convertContentEntries(entries []format.WireContentEntry) []openai.ChatMessagePart {
	out := make([]openai.ChatMessagePart, 0, len(entries))
	for _, e := range entries {
		switch e.Type {
		case "image":
			out = append(out, openai.ChatMessagePart{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: e.ImageURL, Detail: openai.ImageURLDetailAuto},
			})
		default:
			out = append(out, openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: e.Text})
		}
	}
	return out
}

func convertTools(tools []model.ToolSchema) []openai.Tool {
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		params := t.Parameters
		if params == nil {
			params = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  params,
			},
		})
	}
	return out
}
