package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// chatGenerator is the part of eino's model.ChatModel the provider needs.
type chatGenerator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// ArkProvider implements Provider on top of an eino chat model (Volcengine Ark).
type ArkProvider struct {
	chatModel chatGenerator
}

// NewArkProvider wraps an eino chat model.
func NewArkProvider(chatModel model.ChatModel) (*ArkProvider, error) {
	if chatModel == nil {
		return nil, errors.New("ai: ark chat model is required")
	}
	return &ArkProvider{chatModel: chatModel}, nil
}

func (p *ArkProvider) Name() string { return "ark" }

// Complete sends the history plus the outgoing message as one Generate call.
func (p *ArkProvider) Complete(ctx context.Context, req Request) (Response, error) {
	messages := toArkMessages(req.History)
	messages = append(messages, schema.UserMessage(req.Message))

	out, err := p.chatModel.Generate(ctx, messages,
		model.WithTemperature(req.Config.Temperature),
		model.WithMaxTokens(int(req.Config.MaxOutputTokens)),
	)
	if err != nil {
		return Response{}, fmt.Errorf("ai: ark completion failed: %w", err)
	}
	if out == nil {
		return Response{FinishReason: FinishOther}, nil
	}

	reason := FinishCompleted
	if out.ResponseMeta != nil {
		reason = arkFinishReason(out.ResponseMeta.FinishReason)
	}

	if out.Content == "" {
		if reason == FinishCompleted {
			reason = FinishOther
		}
		return Response{FinishReason: reason}, nil
	}
	return Response{Text: out.Content, HasContent: true, FinishReason: reason}, nil
}

func toArkMessages(history []Content) []*schema.Message {
	messages := make([]*schema.Message, 0, len(history)+1)
	for _, entry := range history {
		text := ""
		for _, part := range entry.Parts {
			text += part
		}
		switch entry.Role {
		case RoleUser:
			messages = append(messages, schema.UserMessage(text))
		case RoleModel:
			messages = append(messages, schema.AssistantMessage(text, nil))
		}
	}
	return messages
}

func arkFinishReason(reason string) FinishReason {
	switch reason {
	case "", "stop":
		return FinishCompleted
	case "length":
		return FinishLengthTruncated
	case "content_filter":
		return FinishSafetyBlocked
	default:
		return FinishOther
	}
}
