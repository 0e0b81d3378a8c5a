package generator

import (
	"fmt"
	"strings"
	"time"
)

// Prompt is the message pair sent to the model.
type Prompt struct {
	System string
	User   string
}

const toolsNote = "You have been provided with an internet search tool. Use this tool to find relevant information about the users request before responding. Today's date is: %s"

// BuildContentPrompt composes the system instruction (configured system
// text, tools note, rules, output schema) and the user message.
func BuildContentPrompt(req Request) Prompt {
	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}

	var sb strings.Builder
	sb.WriteString(req.System["system"])
	sb.WriteString("\n\n<tools>\n")
	sb.WriteString(fmt.Sprintf(toolsNote, now.Format("2006-01-02")))
	sb.WriteString("\n</tools>\n\n<rules>\n")
	sb.WriteString(req.System["rules"])
	sb.WriteString("\n- Output must conform to provided JSON schema\n</rules>\n\n")
	sb.WriteString("Follow this Output JSON Schema:\n{\n")
	sb.WriteString(fmt.Sprintf("  root_schema: %s,\n", compact(req.Bundle.RootSchema)))
	sb.WriteString(fmt.Sprintf("  common_schema: %s,\n", compact(req.Bundle.CommonSchema)))
	sb.WriteString(fmt.Sprintf("  schema: %s\n", compact(req.Bundle.Schema)))
	sb.WriteString("}")

	return Prompt{
		System: sb.String(),
		User:   fmt.Sprintf("Social Media Platform: %s\nUser Prompt: %s\n", req.Route, req.UserPrompt),
	}
}
