package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// SubmissionRequest is the payload forwarded to Judge0. Field names follow
// the Judge0 submission API.
type SubmissionRequest struct {
	SourceCode           string   `json:"source_code"`
	LanguageID           int      `json:"language_id"`
	Stdin                *string  `json:"stdin,omitempty"`
	ExpectedOutput       *string  `json:"expected_output,omitempty"`
	CPUTimeLimit         *float32 `json:"cpu_time_limit,omitempty"`
	MemoryLimit          *int     `json:"memory_limit,omitempty"`
	CompilerOptions      *string  `json:"compiler_options,omitempty"`
	CommandLineArguments *string  `json:"command_line_arguments,omitempty"`
}

// Error is returned when Judge0 is unreachable or answers with a non-2xx
// status. StatusCode is 0 for transport failures (timeout, refused).
type Error struct {
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("judge request failed: %s", e.Body)
	}
	return fmt.Sprintf("status %d dari Judge0: %s", e.StatusCode, e.Body)
}

// Client is a synchronous Judge0 client. Submissions are sent with wait=true
// so the execution result comes back in the same response; the configured
// timeout bounds the whole round trip.
type Client struct {
	baseURL string
	httpc   *http.Client
	log     zerolog.Logger
}

// NewClient creates a Judge0 client.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "judge_client").Logger(),
	}
}

// Submit sends a submission and waits for its result. The raw result JSON is
// returned unchanged so callers can pass it through to their own clients.
func (c *Client) Submit(ctx context.Context, req *SubmissionRequest) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/submissions?base64_encoded=false&wait=true", c.baseURL)

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal submission: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		c.log.Error().Err(err).Msg("Judge0 request failed")
		return nil, &Error{Body: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{StatusCode: resp.StatusCode, Body: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warn().
			Int("status", resp.StatusCode).
			Int("language_id", req.LanguageID).
			Msg("Judge0 returned non-success status")
		return nil, &Error{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return json.RawMessage(body), nil
}
