package interpreter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"life_tracker/src/logger"
	"life_tracker/src/model"

	"github.com/bytedance/sonic"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
)

// Interpreter turns free text plus the user's context into a structured intent
type Interpreter struct {
	chat     einomodel.BaseChatModel
	template prompt.ChatTemplate
}

// New creates an Interpreter over a chat model. A nil prompts uses the defaults.
func New(chat einomodel.BaseChatModel, prompts *PromptConfig) *Interpreter {
	if prompts == nil {
		prompts = DefaultPromptConfig()
	}
	return &Interpreter{
		chat:     chat,
		template: createTemplate(prompts),
	}
}

// Interpret asks the model for an intent. It never fails: model or template
// errors degrade to an ActionError intent carrying a readable message, and
// replies without a JSON object degrade to a plain chat intent.
// overlay keys are merged over the record for this prompt only.
func (i *Interpreter) Interpret(ctx context.Context, message string, rec *model.ContextRecord, overlay map[string]any) model.Intent {
	start := time.Now()

	contextJSON, err := promptContext(rec, overlay)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to build prompt context")
		return model.ErrorIntent(fmt.Sprintf("AI error: %v", err))
	}

	messages, err := i.template.Format(ctx, map[string]any{
		"message": message,
		"context": contextJSON,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to format prompt")
		return model.ErrorIntent(fmt.Sprintf("AI error: %v", err))
	}

	out, err := i.chat.Generate(ctx, messages)
	if err != nil {
		logger.Error().Err(err).Msg("Chat model generation failed")
		return model.ErrorIntent(fmt.Sprintf("AI error: %v", err))
	}

	intent := ParseIntent(out.Content)
	logger.Debug().
		Str("action", string(intent.Action)).
		Dur("elapsed", time.Since(start)).
		Msg("Message interpreted")
	return intent
}

// promptContext renders the record, with overlay applied, as JSON for the prompt
func promptContext(rec *model.ContextRecord, overlay map[string]any) (string, error) {
	doc := make(map[string]any)
	if rec != nil {
		data, err := sonic.Marshal(rec)
		if err != nil {
			return "", fmt.Errorf("failed to marshal context: %w", err)
		}
		if err := sonic.Unmarshal(data, &doc); err != nil {
			return "", fmt.Errorf("failed to unmarshal context: %w", err)
		}
	}
	for k, v := range overlay {
		doc[k] = v
	}
	return sonic.MarshalString(doc)
}

// ParseIntent extracts the first-to-last brace span of content as an intent.
// Anything that does not decode to a known action becomes a chat intent
// carrying the raw text.
func ParseIntent(content string) model.Intent {
	text := strings.TrimSpace(content)
	fallback := model.Intent{Action: model.ActionChat, Message: text}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return fallback
	}

	var intent model.Intent
	if err := sonic.UnmarshalString(text[start:end+1], &intent); err != nil {
		logger.Debug().Err(err).Msg("Model reply is not a JSON intent")
		return fallback
	}
	if intent.Action == "" {
		intent.Action = model.ActionChat
	}
	if !intent.Action.Valid() {
		logger.Warn().Str("action", string(intent.Action)).Msg("Unknown action from model")
		return fallback
	}
	return intent
}
