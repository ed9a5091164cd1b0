package tools

import (
	"context"

	"github.com/ppiankov/gaia-agent/internal/resolve"
)

// ResolverTool exposes a fact resolver to the model
type ResolverTool struct {
	Resolver resolve.Resolver
}

func (t ResolverTool) Name() string { return "resolve_" + t.Resolver.Name() }

func (t ResolverTool) Description() string { return t.Resolver.Description() }

func (t ResolverTool) Parameters() map[string]any {
	return objectSchema([]string{"question"}, map[string]string{
		"question": "The full question text",
	})
}

// Invoke resolves args["question"]; a failed resolution is an error
func (t ResolverTool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	q, err := stringArg(args, "question")
	if err != nil {
		return "", err
	}
	res := t.Resolver.Resolve(ctx, q)
	if !res.OK() {
		return "", res.Failure
	}
	return res.Answer, nil
}
