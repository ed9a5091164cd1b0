// Package resolve implements the pattern-matched fact resolvers. Each
// resolver answers one family of benchmark questions from static data or
// a scraped, cached page.
package resolve

import (
	"context"
	"fmt"
)

// Reason classifies why a resolver could not produce an answer
type Reason string

const (
	ReasonUnmatched    Reason = "unmatched_question"
	ReasonPrecondition Reason = "resolver_precondition"
	ReasonFetch        Reason = "external_fetch_failure"
	ReasonParse        Reason = "parse_failure"
)

// Failure is the error variant of a Result
type Failure struct {
	Reason Reason
	Detail string
	Err    error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Reason, f.Detail, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Reason, f.Detail)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Result is either an answer or a Failure, never both
type Result struct {
	Answer  string
	Failure *Failure
}

// OK reports whether the result carries an answer
func (r Result) OK() bool {
	return r.Failure == nil
}

// Answered builds a successful result
func Answered(answer string) Result {
	return Result{Answer: answer}
}

// Failed builds a failed result
func Failed(reason Reason, detail string, err error) Result {
	return Result{Failure: &Failure{Reason: reason, Detail: detail, Err: err}}
}

// Resolver answers one family of questions
type Resolver interface {
	Name() string
	Description() string
	Resolve(ctx context.Context, question string) Result
}

// PageSource fetches the HTML of a page
type PageSource interface {
	FetchHTML(ctx context.Context, url string) (string, error)
}
