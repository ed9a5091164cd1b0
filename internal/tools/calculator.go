package tools

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
)

// Calculator evaluates arithmetic expressions
type Calculator struct{}

func (Calculator) Name() string { return "calculator" }

func (Calculator) Description() string {
	return "Evaluate a mathematical expression such as '2 + 2', '(5 * 3) / 2', '2 ** 10' or 'sqrt(16)'. " +
		"Supports + - * / % **, parentheses, comparisons, and the functions abs, ceil, floor, round, " +
		"min, max, sqrt, pow, exp, log, log2, log10, sin, cos, tan, plus the constants pi and e."
}

func (Calculator) Parameters() map[string]any {
	return objectSchema([]string{"expression"}, map[string]string{
		"expression": "The expression to evaluate",
	})
}

// Invoke evaluates args["expression"]
func (c Calculator) Invoke(ctx context.Context, args map[string]any) (string, error) {
	expression, err := stringArg(args, "expression")
	if err != nil {
		return "", err
	}
	return Evaluate(expression)
}

// Evaluate computes an expression and formats the result
func Evaluate(expression string) (string, error) {
	env := map[string]any{
		"pi": math.Pi,
		"e":  math.E,
	}
	opts := []expr.Option{expr.Env(env)}
	for name, fn := range unaryMath {
		opts = append(opts, expr.Function(name, wrapUnary(name, fn)))
	}
	opts = append(opts, expr.Function("pow", func(params ...any) (any, error) {
		if len(params) != 2 {
			return nil, fmt.Errorf("pow takes 2 arguments, got %d", len(params))
		}
		x, err := toFloat(params[0])
		if err != nil {
			return nil, err
		}
		y, err := toFloat(params[1])
		if err != nil {
			return nil, err
		}
		return math.Pow(x, y), nil
	}))

	program, err := expr.Compile(strings.TrimSpace(expression), opts...)
	if err != nil {
		return "", fmt.Errorf("failed to compile expression '%s': %v", expression, err)
	}
	result, err := expr.Run(program, env)
	if err != nil {
		return "", fmt.Errorf("failed to evaluate expression '%s': %v", expression, err)
	}
	return formatResult(result)
}

var unaryMath = map[string]func(float64) float64{
	"sqrt":  math.Sqrt,
	"exp":   math.Exp,
	"log":   math.Log,
	"log2":  math.Log2,
	"log10": math.Log10,
	"sin":   math.Sin,
	"cos":   math.Cos,
	"tan":   math.Tan,
}

func wrapUnary(name string, fn func(float64) float64) func(params ...any) (any, error) {
	return func(params ...any) (any, error) {
		if len(params) != 1 {
			return nil, fmt.Errorf("%s takes 1 argument, got %d", name, len(params))
		}
		x, err := toFloat(params[0])
		if err != nil {
			return nil, err
		}
		return fn(x), nil
	}
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}

func formatResult(v any) (string, error) {
	switch n := v.(type) {
	case int:
		return strconv.Itoa(n), nil
	case int64:
		return strconv.FormatInt(n, 10), nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return "", fmt.Errorf("result is not a finite number: %v", n)
		}
		if n == math.Trunc(n) && math.Abs(n) < 1e15 {
			return strconv.FormatInt(int64(n), 10), nil
		}
		return strconv.FormatFloat(n, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(n), nil
	default:
		return "", fmt.Errorf("expression result is not a number: %v", v)
	}
}
