package config_test

import (
	"fmt"
	"log"
	"os"

	"github.com/robert-malhotra/aurorax-client/internal/config"
)

func ExampleLoad() {
	// Point the client at a local fake API
	os.Setenv("AURORAX_BASE_URL", "http://127.0.0.1:8080")
	defer os.Unsetenv("AURORAX_BASE_URL")

	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	// Access configuration values
	fmt.Printf("AuroraX API: %s\n", cfg.API.BaseURL)
	fmt.Printf("Poll Interval: %s\n", cfg.Search.PollInterval)
	fmt.Printf("Wait Timeout: %s\n", cfg.Search.WaitTimeout)
	fmt.Printf("Fake Server: %s\n", cfg.Fake.Address())

	// Output:
	// AuroraX API: http://127.0.0.1:8080
	// Poll Interval: 1s
	// Wait Timeout: 15m0s
	// Fake Server: 127.0.0.1:8080
}
