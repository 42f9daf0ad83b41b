package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strings"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Global flags
	apiURL := "http://localhost:8080"
	if envURL := os.Getenv("API_URL"); envURL != "" {
		apiURL = envURL
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "full":
		fullCmd(apiURL, args)
	case "populate":
		populateCmd(apiURL, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Session Simulator - Development tool for exercising group decisions

USAGE:
  simulator <command> [options]

COMMANDS:
  full      Create a session, add fake members, swipe on every option and print the result
  populate  Add fake members to an existing session and have them swipe
  help      Show this help message

ENVIRONMENT:
  API_URL   Backend API URL (default: http://localhost:8080)

EXAMPLES:
  # Four members deciding between three restaurants
  simulator full --members=4 --options="Tacos,Sushi,Pizza"

  # Members who always agree
  simulator full --yes-rate=1

  # Add 3 more swiping members to an existing session
  simulator populate --session=<id> --count=3`)
}

func fullCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("full", flag.ExitOnError)
	members := fs.Int("members", 3, "Number of members including the creator")
	title := fs.String("title", "Where should we eat?", "Session title")
	options := fs.String("options", "Tacos,Sushi,Pizza,Ramen", "Comma-separated option descriptions")
	yesRate := fs.Float64("yes-rate", 0.6, "Probability that a member swipes yes")
	fs.Parse(args)

	if *members < 1 {
		fmt.Println("Error: --members must be at least 1")
		os.Exit(1)
	}

	client := NewAPIClient(apiURL)

	fmt.Println("=== Session Simulator: Full Flow ===")
	fmt.Println()

	// 1. Creator and session
	fmt.Print("Creating creator and session... ")
	creator, creatorToken, err := client.RegisterUser("Creator")
	if err != nil {
		fmt.Printf("FAILED\n  Error: %v\n", err)
		os.Exit(1)
	}

	session, err := client.CreateSession(creatorToken, *title, splitOptions(*options))
	if err != nil {
		fmt.Printf("FAILED\n  Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("OK (creator: %s)\n", creator.DisplayName)
	fmt.Printf("  Session created: %s\n", session.ID)

	if err := client.SetStatus(creatorToken, session.ID, "active"); err != nil {
		fmt.Printf("Warning: Failed to activate session: %v\n", err)
	}

	// 2. Members
	tokens := []string{creatorToken}
	fmt.Println()
	fmt.Printf("Adding %d member(s):\n", *members-1)
	tokens = append(tokens, addMembers(client, session.ID, *members-1)...)

	// 3. Swipes
	fmt.Println()
	fmt.Print("Swiping... ")
	if err := swipeAll(client, session, tokens, *yesRate); err != nil {
		fmt.Printf("FAILED\n  Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("OK")

	// 4. Result
	printResult(client, creatorToken, session)
}

func populateCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("populate", flag.ExitOnError)
	sessionID := fs.String("session", "", "Session ID (required)")
	count := fs.Int("count", 3, "Number of fake members to add")
	yesRate := fs.Float64("yes-rate", 0.6, "Probability that a member swipes yes")
	fs.Parse(args)

	if *sessionID == "" {
		fmt.Println("Error: --session is required")
		os.Exit(1)
	}

	client := NewAPIClient(apiURL)

	tokens := addMembers(client, *sessionID, *count)
	if len(tokens) == 0 {
		fmt.Println("No members joined")
		os.Exit(1)
	}

	session, err := client.GetSession(tokens[0], *sessionID)
	if err != nil {
		fmt.Printf("Failed to fetch session: %v\n", err)
		os.Exit(1)
	}

	fmt.Print("Swiping... ")
	if err := swipeAll(client, session, tokens, *yesRate); err != nil {
		fmt.Printf("FAILED\n  Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("OK")

	printResult(client, tokens[0], session)
}

func addMembers(client *APIClient, sessionID string, count int) []string {
	tokens := make([]string, 0, count)
	for i := 0; i < count; i++ {
		user, token, err := client.RegisterUser(fmt.Sprintf("Member%d", i+1))
		if err != nil {
			fmt.Printf("  [%d/%d] FAILED to create user: %v\n", i+1, count, err)
			os.Exit(1)
		}
		if err := client.JoinSession(token, sessionID); err != nil {
			fmt.Printf("  [%d/%d] FAILED to join session: %v\n", i+1, count, err)
			os.Exit(1)
		}
		tokens = append(tokens, token)
		fmt.Printf("  [%d/%d] %s joined\n", i+1, count, user.DisplayName)
	}
	return tokens
}

func swipeAll(client *APIClient, session *Session, tokens []string, yesRate float64) error {
	for _, token := range tokens {
		for _, option := range session.Options {
			vote := "no"
			if rand.Float64() < yesRate {
				vote = "yes"
			}
			if err := client.Swipe(token, session.ID, option.OptionID, vote); err != nil {
				return err
			}
		}
	}
	return nil
}

func printResult(client *APIClient, token string, session *Session) {
	descriptions := make(map[string]string, len(session.Options))
	for _, o := range session.Options {
		descriptions[o.OptionID] = o.Description
	}

	result, err := client.GetResult(token, session.ID)
	if err != nil {
		fmt.Printf("No result: %v\n", err)
		return
	}

	fmt.Println()
	fmt.Println("=========================================")
	fmt.Printf("  RESULT: %s (%d members)\n", strings.ToUpper(result.Kind), result.MemberCount)
	fmt.Println("=========================================")
	for _, id := range result.Unanimous {
		fmt.Printf("  Everyone agreed on: %s\n", descriptions[id])
	}
	fmt.Println()
	for i, tally := range result.AllResults {
		fmt.Printf("  %d. %-20s %d yes\n", i+1, descriptions[tally.OptionID], tally.YesCount)
	}
	fmt.Println()
}

func splitOptions(raw string) []string {
	var options []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			options = append(options, o)
		}
	}
	return options
}
