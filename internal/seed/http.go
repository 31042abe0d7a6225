package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/harrier/pkg/logger"
)

// settlePoll is how often /stats is polled while waiting for the queue to drain.
const settlePoll = 100 * time.Millisecond

var errStatus = errors.New("unexpected status")

// Client talks JSON to a harrier server.
type Client struct {
	base   string
	client *http.Client
}

// NewClient returns a client for the server at base.
func NewClient(base string, timeout time.Duration) *Client {
	return &Client{base: base, client: &http.Client{Timeout: timeout}}
}

// Get decodes the JSON body of a GET into out. Non-200 answers are errors.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	status, body, err := c.do(req)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("GET %s: %w %d: %s", path, errStatus, status, bytes.TrimSpace(body))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// Post sends body as JSON and returns the status code.
func (c *Client) Post(ctx context.Context, path string, body any) (int, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	status, _, err := c.do(req)
	return status, err
}

func (c *Client) do(req *http.Request) (int, []byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, body, nil
}

// postCatalog stores every catalog record in dependency order.
func postCatalog(ctx context.Context, c *Client, s Season) error {
	post := func(path string, v any) error {
		status, err := c.Post(ctx, path, v)
		if err != nil {
			return err
		}
		if status != http.StatusOK {
			return fmt.Errorf("POST %s: %w %d", path, errStatus, status)
		}
		return nil
	}
	for _, v := range s.Courses {
		if err := post("/courses", v); err != nil {
			return err
		}
	}
	for _, v := range s.Schools {
		if err := post("/schools", v); err != nil {
			return err
		}
	}
	for _, v := range s.Athletes {
		if err := post("/athletes", v); err != nil {
			return err
		}
	}
	for _, v := range s.Meets {
		if err := post("/meets", v); err != nil {
			return err
		}
	}
	for _, v := range s.Races {
		if err := post("/races", v); err != nil {
			return err
		}
	}
	logger.Get().Info(ctx, "catalog posted",
		logger.Int("courses", len(s.Courses)),
		logger.Int("schools", len(s.Schools)),
		logger.Int("athletes", len(s.Athletes)),
		logger.Int("meets", len(s.Meets)),
		logger.Int("races", len(s.Races)))
	return nil
}

// submitResults posts results with cfg.Workers requests in flight.
// A rejected result is counted, not fatal; transport errors abort the run.
func submitResults(ctx context.Context, cfg *Config, c *Client, results []Result, stats *Stats) error {
	var accepted, rejected atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Workers, 1))
	for _, r := range results {
		g.Go(func() error {
			status, err := c.Post(gctx, "/results", r)
			if err != nil {
				return err
			}
			if status == http.StatusAccepted {
				accepted.Add(1)
				return nil
			}
			rejected.Add(1)
			if cfg.Verbose {
				logger.Get().Warn(gctx, "result rejected",
					logger.String("result", r.ID),
					logger.Int("status", status))
			}
			return nil
		})
	}
	err := g.Wait()

	stats.ResultsAccepted = int(accepted.Load())
	stats.ResultsRejected = int(rejected.Load())
	logger.Get().Info(ctx, "results submitted",
		logger.Int("accepted", stats.ResultsAccepted),
		logger.Int("rejected", stats.ResultsRejected))
	return err
}

type statsResponse struct {
	Records struct {
		Results int `json:"results"`
	} `json:"records"`
}

// waitStored polls /stats until want results are stored or cfg.Settle passes.
func waitStored(ctx context.Context, cfg *Config, c *Client, want int) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.Settle)
	defer cancel()

	ticker := time.NewTicker(settlePoll)
	defer ticker.Stop()
	last := 0
	for {
		var st statsResponse
		if err := c.Get(ctx, "/stats", &st); err == nil {
			last = st.Records.Results
			if last >= want {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%d of %d results stored: %w", last, want, ctx.Err())
		case <-ticker.C:
		}
	}
}
