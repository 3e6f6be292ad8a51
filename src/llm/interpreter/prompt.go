package interpreter

import (
	"fmt"
	"os"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	"gopkg.in/yaml.v3"
)

// PromptExample is one few-shot pair shown to the model
type PromptExample struct {
	User     string `yaml:"user"`
	Context  string `yaml:"context,omitempty"`
	Response string `yaml:"response"`
}

// PromptConfig represents the structure of the prompt YAML file
type PromptConfig struct {
	SystemPrompt string          `yaml:"system_prompt"`
	Examples     []PromptExample `yaml:"examples"`
}

// LoadPromptFile loads a prompt configuration from a YAML file. Missing
// sections fall back to the built-in defaults.
func LoadPromptFile(filepath string) (*PromptConfig, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("error reading prompt file: %w", err)
	}

	var config PromptConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing prompt YAML: %w", err)
	}

	defaults := DefaultPromptConfig()
	if strings.TrimSpace(config.SystemPrompt) == "" {
		config.SystemPrompt = defaults.SystemPrompt
	}
	if len(config.Examples) == 0 {
		config.Examples = defaults.Examples
	}
	return &config, nil
}

// DefaultPromptConfig returns the built-in life tracker prompt
func DefaultPromptConfig() *PromptConfig {
	return &PromptConfig{
		SystemPrompt: defaultSystemPrompt,
		Examples:     defaultExamples,
	}
}

const defaultSystemPrompt = `You are the assistant of a personal life tracker. You help the user with:

1. TRACKING: when the user wants to log something, extract the values.
2. ROUTINES: when the user mentions recurring activities, create or change routines.
3. QUERIES: answer questions about the user's data.
4. COACHING: give recommendations based on the data.

ALWAYS answer with a single JSON object in this format:
{
  "action": "track" | "create_routine" | "update_routine" | "delete_routine" | "show_routines" | "query" | "chat",
  "tracker": "<tracker name, only for track>",
  "data": { ... },
  "message": "<short reply for the user>",
  "component": "confirmation" | "list" | "routine-card" | "weekly-view" | "stat-card" | null
}

During an active workout the current context tells you the routine, the current exercise,
the set number and the last weight. Use them to complete terse input: a bare number is the
rep count of the next set at the last weight. Answer in the user's language. Be brief.`

var defaultExamples = []PromptExample{
	{
		User:     "3x10 bench press with 80kg",
		Response: `{"action": "track", "tracker": "Bench Press", "data": {"sets": 3, "reps": 10, "weight": 80, "unit": "kg"}, "message": "Saved: bench press 3x10 at 80kg", "component": "confirmation"}`,
	},
	{
		User:     "12",
		Context:  "workout active, current exercise Bench Press, last weight 80kg",
		Response: `{"action": "track", "tracker": "Bench Press", "data": {"reps": 12, "weight": 80, "unit": "kg"}, "message": "Set: 80kg x 12", "component": "confirmation"}`,
	},
	{
		User:     "I train Monday, Wednesday and Friday: push, pull, legs",
		Response: `{"action": "create_routine", "data": {"name": "Push/Pull/Legs", "schedule": "Monday, Wednesday, Friday", "days": [{"day": "Monday", "name": "Push"}, {"day": "Wednesday", "name": "Pull"}, {"day": "Friday", "name": "Legs"}]}, "message": "Push/Pull/Legs saved: Mon push, Wed pull, Fri legs.", "component": "routine-card"}`,
	},
	{
		User:     "Show me my routines",
		Response: `{"action": "show_routines", "data": {}, "message": "Here are your routines:", "component": "list"}`,
	},
	{
		User:     "Delete my training plan",
		Response: `{"action": "delete_routine", "data": {"name": "Training plan"}, "message": "Do you really want to delete the training plan?", "component": "confirmation"}`,
	},
}

// systemText renders the system prompt with its few-shot examples
func (p *PromptConfig) systemText() string {
	var b strings.Builder
	b.WriteString(p.SystemPrompt)
	if len(p.Examples) > 0 {
		b.WriteString("\n\n## Examples\n")
		for _, ex := range p.Examples {
			b.WriteString("\nUser: ")
			b.WriteString(ex.User)
			if ex.Context != "" {
				b.WriteString(" (context: ")
				b.WriteString(ex.Context)
				b.WriteString(")")
			}
			b.WriteString("\nResponse: ")
			b.WriteString(ex.Response)
			b.WriteString("\n")
		}
	}
	return b.String()
}

const userTemplate = `{{.message}}

<current_context>
{{.context}}
</current_context>`

// createTemplate builds the eino chat template. Go templates are used so the
// JSON braces in the system prompt need no escaping.
func createTemplate(p *PromptConfig) prompt.ChatTemplate {
	return prompt.FromMessages(schema.GoTemplate,
		schema.SystemMessage(escapeTemplate(p.systemText())),
		schema.UserMessage(userTemplate),
	)
}

// escapeTemplate neutralises template actions in static prompt text
func escapeTemplate(s string) string {
	return strings.NewReplacer("{{", `{{"{{"}}`, "}}", `{{"}}"}}`).Replace(s)
}
