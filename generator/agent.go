package generator

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Agent turns a Request into generated content with a single completion.
type Agent struct {
	llm    LLMClient
	logger *zap.Logger
}

func NewAgent(llm LLMClient, logger *zap.Logger) (*Agent, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{llm: llm, logger: logger.Named("generator")}, nil
}

// Generate builds the prompt, asks the model once and parses the reply.
// There is no repair pass: invalid JSON fails the step.
func (a *Agent) Generate(ctx context.Context, req Request) (Content, error) {
	prompt := BuildContentPrompt(req)
	a.logger.Debug("requesting completion",
		zap.String("route", req.Route),
		zap.Int("system_len", len(prompt.System)))

	raw, err := a.llm.Complete(ctx, prompt)
	if err != nil {
		return Content{}, err
	}
	content, err := ParseContent(raw)
	if err != nil {
		a.logger.Warn("model output rejected", zap.Int("len", len(raw)))
		return Content{}, err
	}
	return content, nil
}
