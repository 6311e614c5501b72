// Command planner is a terminal client for the Travel Companion API.
//
//	PLANNER_API_URL=http://localhost:8080 planner
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/pkordes/travel-companion/internal/apiclient"
)

func main() {
	apiURL := flag.String("api", envOr("PLANNER_API_URL", apiclient.DefaultBaseURL), "Travel Companion API base URL")
	trip := flag.String("trip", "", "trip to open on start")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	p := newPlanner(apiclient.New(*apiURL), os.Stdout)
	fmt.Println(color.New(color.FgGreen, color.Bold).Sprint("Travel Companion planner"))
	fmt.Printf("API: %s\n", color.CyanString(*apiURL))
	fmt.Println("Type /help for commands.")
	fmt.Println()

	if *trip != "" {
		p.handle(ctx, "/use "+*trip)
	}
	if err := p.run(ctx, os.Stdin); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
