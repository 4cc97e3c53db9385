package main

import (
	"net/http"
	"os"
	"time"
)

// defaultUrl points to the healthcheck endpoint of a vlm-relay instance running on the same host.
const defaultUrl = "http://localhost:11223/health"

// main probes the given URLs, if any response is not 2xx, it will return with exit code 1.
// Without arguments, the local relay healthcheck endpoint is probed.
func main() {
	os.Exit(checkWebEndpointsFromArgs())
}

func checkWebEndpointsFromArgs() int {
	urls := os.Args[1:]
	if len(urls) == 0 {
		urls = []string{defaultUrl}
	}

	for _, url := range urls {
		if !checkWebEndpoint(url) {
			return 1
		}
	}
	return 0
}

func checkWebEndpoint(url string) bool {
	client := &http.Client{
		Timeout: time.Second * 2,
	}

	resp, err := client.Get(url)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode <= 299
}
