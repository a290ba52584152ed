// Package anthropic adapts github.com/anthropics/anthropic-sdk-go's
// streaming Messages API to the model.Adapter interface.
package anthropic

import (
	"context"
	"encoding/json"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	"github.com/arborly/reagent/packages/agent/format"
	"github.com/arborly/reagent/packages/agent/model"
	"github.com/arborly/reagent/packages/agent/types"
	"github.com/arborly/reagent/packages/stream"
)

// defaultMaxTokens is sent when GenerateOptions.MaxTokens is unset; the
// Messages API requires a positive max_tokens on every request.
const defaultMaxTokens = 4096

// Adapter streams Claude Messages completions.
type Adapter struct {
	client anthropic.Client
	model  string
}

// NewAdapter returns an Adapter using apiKey and targeting modelName.
func NewAdapter(apiKey, modelName string) *Adapter {
	return &Adapter{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  modelName,
	}
}

// NewAdapterWithClient wraps an already-configured client, for pointing at a
// custom base URL (a proxy, a test server) or for tests.
func NewAdapterWithClient(client anthropic.Client, modelName string) *Adapter {
	return &Adapter{client: client, model: modelName}
}

func (a *Adapter) Stream(ctx context.Context, wire []format.WireMessage, tools []model.ToolSchema, opts model.GenerateOptions) *stream.EventStream[model.ChatResponse, *model.Usage] {
	es := stream.NewEventStream[model.ChatResponse, *model.Usage]()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		Messages:  convertMessages(wire),
		MaxTokens: int64(maxTokens(opts)),
	}
	if system := systemPrompt(wire); system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if opts.Temperature != nil {
		params.Temperature = anthropic.Float(*opts.Temperature)
	}
	if opts.TopP != nil {
		params.TopP = anthropic.Float(*opts.TopP)
	}
	if len(tools) > 0 {
		params.Tools = convertTools(tools)
	}

	sdkStream := a.client.Messages.NewStreaming(ctx, params)
	go drain(sdkStream, es)
	return es
}

func maxTokens(opts model.GenerateOptions) int {
	if opts.MaxTokens != nil && *opts.MaxTokens > 0 {
		return *opts.MaxTokens
	}
	return defaultMaxTokens
}

func drain(sdkStream *ssestream.Stream[anthropic.MessageStreamEventUnion], es *stream.EventStream[model.ChatResponse, *model.Usage]) {
	var usage model.Usage
	// currentID/currentName carry the id/name of a tool_use block's opening
	// fragment; every subsequent input_json_delta fragment for that block
	// uses the __fragment__ placeholder and an ignored id, per spec.md §4.2.
	var currentID, currentName string
	inToolUse := false

	for sdkStream.Next() {
		event := sdkStream.Current()

		switch event.Type {
		case "message_start":
			ms := event.AsMessageStart()
			usage.InputTokens = int(ms.Message.Usage.InputTokens)

		case "content_block_start":
			start := event.AsContentBlockStart()
			if start.ContentBlock.Type == "tool_use" {
				toolUse := start.ContentBlock.AsToolUse()
				currentID, currentName = toolUse.ID, toolUse.Name
				inToolUse = true
				es.Push(model.ChatResponse{Content: []types.ContentBlock{
					types.ToolUseContent{ID: currentID, Name: currentName},
				}})
			}

		case "content_block_delta":
			delta := event.AsContentBlockDelta().Delta
			switch delta.Type {
			case "text_delta":
				if delta.Text != "" {
					es.Push(model.ChatResponse{Content: []types.ContentBlock{types.TextContent{Text: delta.Text}}})
				}
			case "thinking_delta":
				if delta.Thinking != "" {
					es.Push(model.ChatResponse{Content: []types.ContentBlock{types.ThinkingContent{Text: delta.Thinking}}})
				}
			case "input_json_delta":
				if delta.PartialJSON != "" && inToolUse {
					es.Push(model.ChatResponse{Content: []types.ContentBlock{
						types.ToolUseContent{Name: "__fragment__", Raw: delta.PartialJSON},
					}})
				}
			}

		case "content_block_stop":
			inToolUse = false

		case "message_delta":
			md := event.AsMessageDelta()
			if md.Usage.OutputTokens > 0 {
				usage.OutputTokens = int(md.Usage.OutputTokens)
			}
		}
	}

	if err := sdkStream.Err(); err != nil {
		es.EndWithError(err)
		return
	}
	es.End(&usage)
}

func systemPrompt(wire []format.WireMessage) string {
	for _, wm := range wire {
		if wm.Role == "system" {
			if s, ok := wm.Content.(string); ok {
				return s
			}
		}
	}
	return ""
}

func convertMessages(wire []format.WireMessage) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(wire))
	for _, wm := range wire {
		if wm.Role == "system" {
			continue
		}

		if wm.Role == "tool" {
			block := anthropic.NewToolResultBlock(wm.ToolCallID, textOfContent(wm.Content), false)
			out = append(out, anthropic.NewUserMessage(block))
			continue
		}

		var blocks []anthropic.ContentBlockParamUnion
		switch content := wm.Content.(type) {
		case string:
			if content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(content))
			}
		case []format.WireContentEntry:
			for _, e := range content {
				if e.Type == "text" && e.Text != "" {
					blocks = append(blocks, anthropic.NewTextBlock(e.Text))
				}
			}
		}

		for _, tc := range wm.ToolCalls {
			var input map[string]any
			_ = json.Unmarshal([]byte(tc.Function.Arguments), &input)
			blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, input, tc.Function.Name))
		}

		if wm.Role == "assistant" {
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		} else {
			out = append(out, anthropic.NewUserMessage(blocks...))
		}
	}
	return out
}

func textOfContent(content any) string {
	if s, ok := content.(string); ok {
		return s
	}
	return ""
}

func convertTools(tools []model.ToolSchema) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		raw, err := json.Marshal(t.Parameters)
		if err != nil {
			continue
		}
		var schema anthropic.ToolInputSchemaParam
		if err := json.Unmarshal(raw, &schema); err != nil {
			continue
		}

		param := anthropic.ToolUnionParamOfTool(schema, t.Name)
		if param.OfTool != nil {
			param.OfTool.Description = anthropic.String(t.Description)
		}
		out = append(out, param)
	}
	return out
}
