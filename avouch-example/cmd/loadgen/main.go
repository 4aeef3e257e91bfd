// Package main generates traffic for the avouch example server. It
// records a stream of randomized builds, most with sensible disclosure
// statements and a few with hostile or malformed ones, so the dashboard
// feed and the error paths both see action.
//
// Usage:
//
//	go run ./avouch-example/cmd/loadgen
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/chosenoffset/avouch/pkg/avouch/codec"
)

// profiles are the statement shapes the generator draws from. Weights
// are relative; higher means more often.
var profiles = []struct {
	name   string
	weight int
	fields func() map[string]any
}{
	{
		name:   "reviewed",
		weight: 5,
		fields: func() map[string]any {
			return map[string]any{
				"code":   map[string]any{"assistant": pick("copilot", "cursor", "none")},
				"risk":   map[string]any{"deploy": "low"},
				"review": map[string]any{"human": "full"},
			}
		},
	},
	{
		name:   "semi-auto",
		weight: 3,
		fields: func() map[string]any {
			return map[string]any{
				"code":   map[string]any{"assistant": "copilot", "share": int64(rand.IntN(60) + 20)},
				"risk":   map[string]any{"deploy": "high"},
				"review": map[string]any{"human": "spot"},
				"tools":  []any{"copilot", "cursor"},
			}
		},
	},
	{
		name:   "unreviewed",
		weight: 2,
		fields: func() map[string]any {
			return map[string]any{
				"code":   map[string]any{"assistant": "agent", "share": int64(rand.IntN(30) + 70)},
				"risk":   map[string]any{"deploy": "critical"},
				"review": map[string]any{"human": "none"},
			}
		},
	},
	{
		name:   "hostile text",
		weight: 1,
		fields: func() map[string]any {
			// Delimiter characters ride inside base64url escaping.
			return map[string]any{
				"note": "a;b:c,d",
				"risk": map[string]any{"deploy": "high"},
			}
		},
	},
}

func pick(options ...string) string {
	return options[rand.IntN(len(options))]
}

func randomStatement(origin string) (string, error) {
	total := 0
	for _, p := range profiles {
		total += p.weight
	}
	n := rand.IntN(total)
	for _, p := range profiles {
		if n < p.weight {
			return codec.Encode(p.fields(), 1, origin)
		}
		n -= p.weight
	}
	return codec.Encode(profiles[0].fields(), 1, origin)
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "pipeline API base URL")
	interval := flag.Duration("interval", 200*time.Millisecond, "delay between builds")
	flag.Parse()

	client := &http.Client{Timeout: 5 * time.Second}
	ctx := context.Background()

	for i := 0; ; i++ {
		statement, err := randomStatement(pick("acme", "initech", "globex"))
		if err != nil {
			slog.Error("failed to encode statement", "error", err)
			continue
		}

		// One build in twenty carries a statement the server must reject.
		if rand.IntN(20) == 0 {
			statement = "not a statement at all"
		}

		if err := recordBuild(ctx, client, *baseURL, i, statement); err != nil {
			slog.Warn("record failed", "error", err)
		}

		time.Sleep(*interval)
	}
}

func recordBuild(ctx context.Context, client *http.Client, baseURL string, n int, statement string) error {
	body, err := json.Marshal(map[string]any{
		"id":        fmt.Sprintf("build-%d-%d", time.Now().Unix(), n),
		"branch":    pick("main", "develop", "release/2.4"),
		"commit":    fmt.Sprintf("%08x", rand.Uint32()),
		"statement": statement,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/build", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	return nil
}
