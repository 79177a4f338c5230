package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Global flags
	apiURL := "http://localhost:8001"
	if envURL := os.Getenv("API_URL"); envURL != "" {
		apiURL = envURL
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "flow":
		flowCmd(apiURL, args)
	case "seed":
		seedCmd(apiURL, args)
	case "load":
		loadCmd(apiURL, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Todo Simulator - Development tool for exercising the todo API

USAGE:
  simulator <command> [options]

COMMANDS:
  flow      Run one user through register, login, profile, refresh and task CRUD
  seed      Register users and give each a batch of tasks
  load      Run many concurrent users against the API and report timings
  help      Show this help message

ENVIRONMENT:
  API_URL   Backend API URL (default: http://localhost:8001)

EXAMPLES:
  # Smoke-test a running server
  simulator flow

  # Create 5 users with 20 tasks each
  simulator seed --users=5 --tasks=20

  # 50 concurrent users, 10 task operations each
  simulator load --users=50 --ops=10`)
}

func fail(step string, err error) {
	fmt.Printf("FAILED\n  %s: %v\n", step, err)
	os.Exit(1)
}

func flowCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("flow", flag.ExitOnError)
	domain := fs.String("domain", "example.com", "Email domain for the simulated user")
	fs.Parse(args)

	ctx := context.Background()
	client := NewAPIClient(apiURL)
	creds := NewCredentials("flow", *domain)

	fmt.Println("=== Todo Simulator: Full Flow ===")
	fmt.Println()

	fmt.Printf("Registering %s... ", creds.Email)
	if _, err := client.Register(ctx, creds); err != nil {
		fail("register", err)
	}
	fmt.Println("OK")

	fmt.Print("Registering the same email again... ")
	if _, err := client.Register(ctx, creds); err == nil {
		fail("duplicate register", fmt.Errorf("expected rejection"))
	}
	fmt.Println("OK (rejected)")

	fmt.Print("Logging in... ")
	pair, err := client.Login(ctx, creds)
	if err != nil {
		fail("login", err)
	}
	fmt.Println("OK")

	fmt.Print("Fetching profile... ")
	profile, err := client.Profile(ctx, pair.AccessToken)
	if err != nil {
		fail("profile", err)
	}
	fmt.Printf("OK (id: %s)\n", profile.ID)

	fmt.Print("Fetching profile without a token... ")
	status, err := client.Status(ctx, http.MethodGet, "/auth/profile", "")
	if err != nil {
		fail("anonymous profile", err)
	}
	if status != http.StatusUnauthorized {
		fail("anonymous profile", fmt.Errorf("expected 401, got %d", status))
	}
	fmt.Println("OK (401)")

	fmt.Print("Using refresh token as access token... ")
	status, err = client.Status(ctx, http.MethodGet, "/auth/profile", pair.RefreshToken)
	if err != nil {
		fail("refresh as access", err)
	}
	if status != http.StatusUnauthorized {
		fail("refresh as access", fmt.Errorf("expected 401, got %d", status))
	}
	fmt.Println("OK (401)")

	fmt.Print("Refreshing access token... ")
	access, err := client.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		fail("refresh", err)
	}
	fmt.Println("OK")

	fmt.Print("Creating, toggling and deleting a task... ")
	task, err := client.CreateTask(ctx, access, "simulated task")
	if err != nil {
		fail("create task", err)
	}
	toggled, err := client.ToggleTask(ctx, access, task.ID)
	if err != nil {
		fail("toggle task", err)
	}
	if !toggled.Completed {
		fail("toggle task", fmt.Errorf("task not completed after toggle"))
	}
	if err := client.DeleteTask(ctx, access, task.ID); err != nil {
		fail("delete task", err)
	}
	fmt.Println("OK")

	fmt.Println()
	fmt.Println("=========================================")
	fmt.Println("  FLOW COMPLETE")
	fmt.Println("=========================================")
	fmt.Printf("  Email:    %s\n", creds.Email)
	fmt.Printf("  Password: %s\n", creds.Password)
}

func seedCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	users := fs.Int("users", 3, "Number of users to create")
	tasks := fs.Int("tasks", 10, "Number of tasks per user")
	domain := fs.String("domain", "example.com", "Email domain for seeded users")
	fs.Parse(args)

	if *users < 1 || *tasks < 0 {
		fmt.Println("Error: --users must be at least 1 and --tasks must not be negative")
		os.Exit(1)
	}

	ctx := context.Background()
	client := NewAPIClient(apiURL)

	fmt.Println("=== Todo Simulator: Seed ===")
	fmt.Println()

	for i := 0; i < *users; i++ {
		creds := NewCredentials(fmt.Sprintf("seed%d", i+1), *domain)
		pair, err := client.Register(ctx, creds)
		if err != nil {
			fmt.Printf("  [%d/%d] FAILED: %v\n", i+1, *users, err)
			os.Exit(1)
		}

		for j := 0; j < *tasks; j++ {
			task, err := client.CreateTask(ctx, pair.AccessToken, fmt.Sprintf("Seed task %d", j+1))
			if err != nil {
				fmt.Printf("  [%d/%d] FAILED creating task: %v\n", i+1, *users, err)
				os.Exit(1)
			}
			if j%3 == 0 {
				if _, err := client.ToggleTask(ctx, pair.AccessToken, task.ID); err != nil {
					fmt.Printf("  [%d/%d] FAILED toggling task: %v\n", i+1, *users, err)
					os.Exit(1)
				}
			}
		}

		fmt.Printf("  [%d/%d] %s / %s (%d tasks)\n", i+1, *users, creds.Email, creds.Password, *tasks)
	}
}

type loadStats struct {
	requests atomic.Int64
	failures atomic.Int64
}

func loadCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("load", flag.ExitOnError)
	users := fs.Int("users", 20, "Number of concurrent users")
	ops := fs.Int("ops", 5, "Task operations per user")
	timeout := fs.Duration("timeout", 2*time.Minute, "Overall time limit")
	fs.Parse(args)

	if *users < 1 || *ops < 1 {
		fmt.Println("Error: --users and --ops must be at least 1")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := NewAPIClient(apiURL)
	stats := &loadStats{}

	fmt.Printf("=== Todo Simulator: Load (%d users x %d ops) ===\n", *users, *ops)
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < *users; i++ {
		g.Go(func() error {
			return simulateUser(gctx, client, stats, *ops)
		})
	}
	err := g.Wait()
	elapsed := time.Since(start)

	requests := stats.requests.Load()
	fmt.Println()
	fmt.Printf("  Requests:   %d\n", requests)
	fmt.Printf("  Failures:   %d\n", stats.failures.Load())
	fmt.Printf("  Elapsed:    %s\n", elapsed.Round(time.Millisecond))
	if elapsed > 0 {
		fmt.Printf("  Throughput: %.1f req/s\n", float64(requests)/elapsed.Seconds())
	}

	if err != nil {
		fmt.Printf("\nFirst failure: %v\n", err)
		os.Exit(1)
	}
}

func simulateUser(ctx context.Context, client *APIClient, stats *loadStats, ops int) error {
	track := func(err error) error {
		stats.requests.Add(1)
		if err != nil {
			stats.failures.Add(1)
		}
		return err
	}

	creds := NewCredentials("load", "example.com")
	if _, err := client.Register(ctx, creds); track(err) != nil {
		return err
	}
	pair, err := client.Login(ctx, creds)
	if track(err) != nil {
		return err
	}

	for i := 0; i < ops; i++ {
		task, err := client.CreateTask(ctx, pair.AccessToken, fmt.Sprintf("load task %d", i+1))
		if track(err) != nil {
			return err
		}
		if _, err := client.ToggleTask(ctx, pair.AccessToken, task.ID); track(err) != nil {
			return err
		}
	}

	tasks, err := client.ListTasks(ctx, pair.AccessToken)
	if track(err) != nil {
		return err
	}
	if len(tasks) != ops {
		return fmt.Errorf("%s sees %d tasks, expected %d", creds.Email, len(tasks), ops)
	}

	_, err = client.Refresh(ctx, pair.RefreshToken)
	return track(err)
}
