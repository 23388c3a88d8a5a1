// Command generate submits a one-shot generation request to a running
// ml-agent service and prints the result.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

const EnvAgentAddr = "AGENT_ADDR"

type generateRequest struct {
	Prompt      string  `json:"prompt"`
	Model       string  `json:"model,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	TopP        float64 `json:"top_p,omitempty"`
	TopK        int     `json:"top_k,omitempty"`
	MaxLength   int     `json:"max_length,omitempty"`
}

type generateResponse struct {
	TaskID     string         `json:"task_id"`
	Text       string         `json:"text"`
	Key        string         `json:"key"`
	DurationMS int64          `json:"duration_ms"`
	Metadata   map[string]any `json:"metadata"`
	Error      string         `json:"error"`
}

func main() {
	var (
		addr        = flag.String("addr", "", "Service address (default http://localhost:8000)")
		image       = flag.Bool("image", false, "Generate an image instead of text")
		prompt      = flag.String("prompt", "", "Generation prompt")
		model       = flag.String("model", "", "Explicit model name (optional)")
		temperature = flag.Float64("temperature", 0, "Sampling temperature override")
		maxLength   = flag.Int("max-length", 0, "Maximum generated tokens")
		output      = flag.String("output", "", "Write image artifact to this file (image mode)")
		timeout     = flag.Duration("timeout", 10*time.Minute, "Request timeout")
	)
	flag.Parse()

	if *addr == "" {
		*addr = os.Getenv(EnvAgentAddr)
	}
	if *addr == "" {
		*addr = "http://localhost:8000"
	}
	if *prompt == "" {
		log.Fatal("prompt required: use -prompt")
	}

	endpoint := *addr + "/api/generate/text"
	if *image {
		endpoint = *addr + "/api/generate/image"
	}

	body, err := json.Marshal(generateRequest{
		Prompt:      *prompt,
		Model:       *model,
		Temperature: *temperature,
		MaxLength:   *maxLength,
	})
	if err != nil {
		log.Fatalf("encode request: %v", err)
	}

	client := &http.Client{Timeout: *timeout}

	resp, err := client.Post(endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.Fatalf("decode response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Fatalf("generation failed (%d): %s", resp.StatusCode, result.Error)
	}

	if *image {
		fmt.Printf("artifact: %s (%dms)\n", result.Key, result.DurationMS)
		if *output != "" {
			if err := fetchArtifact(client, *addr, result.Key, *output); err != nil {
				log.Fatalf("fetch artifact: %v", err)
			}
			fmt.Printf("written: %s\n", *output)
		}
		return
	}

	fmt.Println(result.Text)
}

func fetchArtifact(client *http.Client, addr, key, path string) error {
	resp, err := client.Get(addr + "/api/files/" + key)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
