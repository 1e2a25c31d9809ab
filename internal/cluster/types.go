// Package cluster provides GetJSON, the shared HTTP/JSON request helper
// used by this module's outbound service-to-service calls. See doc.go
// for the full writeup.
package cluster

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// httpClient is the shared HTTP client used for all cluster communication.
// It's configured with a 5-second timeout to prevent hanging on unresponsive
// peers and to enable quick failure detection.
var httpClient = &http.Client{Timeout: 5 * time.Second}

// GetJSON sends a GET request to the specified URL and decodes the
// JSON response into the provided output structure.
func GetJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return err
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("http %s: %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
