// Probe program that runs the scraping resolvers against live Wikipedia,
// bypassing every cache, to check the page layouts they depend on.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/gaia-agent/internal/model"
	"github.com/ppiankov/gaia-agent/internal/pipeline"
	"github.com/ppiankov/gaia-agent/internal/resolve"
	"github.com/ppiankov/gaia-agent/internal/worker"
)

func main() {
	fmt.Println("=== Live resolver probe ===")
	fmt.Println()

	cfg := model.DefaultConfig()
	fetcher := pipeline.NewFetcher(cfg.HTTP.Timeout, cfg.HTTP.UserAgent, cfg.HTTP.MaxBodyBytes, false, "", "", "").
		WithRateLimiter(worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize))

	logger, err := zap.NewDevelopment()
	if err != nil {
		logger = zap.NewNop()
	}
	defer func() { _ = logger.Sync() }()

	probes := []struct {
		resolver resolve.Resolver
		question string
		want     string
	}{
		{
			resolve.NewMercedesSosaAlbums(fetcher, nil, logger),
			"How many studio albums were published by Mercedes Sosa between 2000 and 2009 (included)?",
			"3",
		},
		{
			resolve.NewMalkoWinners(fetcher, nil, logger),
			"What is the first name of the only Malko Competition recipient from the 20th Century (after 1977) whose nationality on record is a country that no longer exists?",
			"Claus",
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	failed := 0
	for _, p := range probes {
		fmt.Printf("Resolver: %s\n", p.resolver.Name())
		fmt.Println(strings.Repeat("-", 60))

		start := time.Now()
		res := p.resolver.Resolve(ctx, p.question)
		switch {
		case !res.OK():
			failed++
			fmt.Printf("  ✗ failed (%s): %v\n", res.Failure.Reason, res.Failure)
		case res.Answer != p.want:
			failed++
			fmt.Printf("  ✗ got %q, expected %q\n", res.Answer, p.want)
		default:
			fmt.Printf("  ✓ %s\n", res.Answer)
		}
		fmt.Printf("  took %s\n\n", time.Since(start).Round(time.Millisecond))
	}

	if failed > 0 {
		os.Exit(1)
	}
}
