package client_test

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/pratik-mahalle/amiaudit/pkg/client"
)

// Example demonstrates basic usage of the client
func Example() {
	c := client.NewClient(client.Config{
		BaseURL: "http://localhost:8080",
		Token:   os.Getenv("AMIAUDIT_TOKEN"),
	})

	ctx := context.Background()

	rules, err := c.Rules().List(ctx)
	if err != nil {
		log.Fatal(err)
	}

	for _, r := range rules {
		fmt.Printf("%s [%s] %s\n", r.Code, r.Severity, r.Title)
	}
}

// ExampleRunService_Start demonstrates triggering a run
func ExampleRunService_Start() {
	c := client.NewClient(client.Config{
		BaseURL: "http://localhost:8080",
	})

	resp, err := c.Runs().Start(context.Background(), &client.StartRunRequest{
		Rules:   []string{"AMI.1"},
		Timeout: "5m",
	})

	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.IsConflict() {
		fmt.Println("A run is already in progress")
		return
	}
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("Started run", resp.RunID)
}

// ExampleFindingService_List demonstrates listing failing findings
func ExampleFindingService_List() {
	c := client.NewClient(client.Config{
		BaseURL: "http://localhost:8080",
	})

	page, err := c.Findings().List(context.Background(), &client.FindingListOptions{
		ListOptions: client.ListOptions{Page: 1, PageSize: 50},
		Compliance:  "FAILED",
		State:       "ACTIVE",
	})
	if err != nil {
		log.Fatal(err)
	}

	for _, f := range page.Data {
		fmt.Printf("%s %s\n", f.Severity.Label, f.ResourceARN())
	}
}
