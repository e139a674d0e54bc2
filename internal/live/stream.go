// Package live manages one-shot server-streamed analysis sessions: the SSE
// subscription against the risk backend and the state machine that relays
// its progress to the dashboard.
package live

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/clima-risk/climadash/internal/metrics"
	"github.com/clima-risk/climadash/internal/models"
)

// EventType classifies a message received over a live subscription.
type EventType int

const (
	// EventLog is a plain progress line, appended verbatim to the session log.
	EventLog EventType = iota
	// EventResult is the distinguished terminal result event.
	EventResult
	// EventError is a well-formed application error payload.
	EventError
)

// Event is one inbound message from a live subscription.
type Event struct {
	Type   EventType
	Line   string
	Result *ResultPayload
	Err    error
}

// ResultPayload is the terminal "result" event body: the live-derived risk
// data plus the recommendation computed server-side from it.
type ResultPayload struct {
	LiveData       models.LiveSummary    `json:"liveData"`
	Recommendation models.Recommendation `json:"recommendation"`
}

// AppError is the structured error object the backend can deliver in place
// of a log line. A payload counts as an AppError only if it parses as a
// JSON object carrying a non-empty "error" field; anything else, including
// JSON that merely looks structured, is treated as a plain log line.
type AppError struct {
	Message string `json:"error"`
	Trace   string `json:"trace,omitempty"`
}

func (e *AppError) Error() string { return e.Message }

// Client opens live-analysis subscriptions against the risk backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a live analysis client. The underlying HTTP client
// carries no timeout: streams are open-ended and cancelled via context.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

// Subscribe opens the server-push stream for one (lat, lon, date) analysis.
// Events arrive on the returned subscription until a terminal event or a
// transport failure, after which the channel is closed.
func (c *Client) Subscribe(ctx context.Context, lat, lon float64, date time.Time) (Stream, error) {
	params := url.Values{
		"lat":  {fmt.Sprintf("%.6f", lat)},
		"lon":  {fmt.Sprintf("%.6f", lon)},
		"date": {date.Format("2006-01-02")},
	}
	u := c.baseURL + "/api/live-risk?" + params.Encode()

	ctx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("open live stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("open live stream: status %d", resp.StatusCode)
	}

	sub := &Subscription{
		events: make(chan Event),
		cancel: cancel,
	}
	go sub.read(resp)
	return sub, nil
}

// Stream is a single open live subscription as seen by the session.
type Stream interface {
	// Events yields inbound events in receipt order. The channel closes
	// when the stream ends for any reason.
	Events() <-chan Event
	// Err reports the transport failure that ended the stream, if any.
	// Valid only after Events is closed.
	Err() error
	// Close tears the subscription down. Safe to call more than once.
	Close()
}

// Subscription is the concrete SSE stream returned by Client.Subscribe.
type Subscription struct {
	events    chan Event
	cancel    context.CancelFunc
	closeOnce sync.Once

	mu  sync.Mutex
	err error
}

func (s *Subscription) Events() <-chan Event { return s.events }

func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Subscription) Close() {
	s.closeOnce.Do(s.cancel)
}

func (s *Subscription) read(resp *http.Response) {
	defer close(s.events)
	defer resp.Body.Close()
	defer s.Close()

	var eventName string
	var data []string

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if len(data) > 0 {
				if done := s.dispatch(eventName, strings.Join(data, "\n")); done {
					return
				}
			}
			eventName, data = "", nil
		case strings.HasPrefix(line, "event:"):
			eventName = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		default:
			// Comment or unknown field, ignored.
		}
	}

	if err := scanner.Err(); err != nil {
		s.mu.Lock()
		s.err = fmt.Errorf("live stream: %w", err)
		s.mu.Unlock()
	}
}

// dispatch converts one complete SSE message into an Event. It reports true
// once a terminal message has been delivered and the stream should stop.
func (s *Subscription) dispatch(eventName, data string) bool {
	switch eventName {
	case "result":
		var payload ResultPayload
		if err := json.Unmarshal([]byte(data), &payload); err != nil {
			metrics.LiveEventsTotal.WithLabelValues("error").Inc()
			s.events <- Event{Type: EventError, Err: &AppError{Message: fmt.Sprintf("malformed result payload: %v", err)}}
			return true
		}
		metrics.LiveEventsTotal.WithLabelValues("result").Inc()
		s.events <- Event{Type: EventResult, Result: &payload}
		return true
	case "end":
		// Stream epilogue after the terminal event; nothing left to read.
		return true
	default:
		if appErr, ok := parseAppError(data); ok {
			metrics.LiveEventsTotal.WithLabelValues("error").Inc()
			s.events <- Event{Type: EventError, Err: appErr}
			return true
		}
		metrics.LiveEventsTotal.WithLabelValues("log").Inc()
		s.events <- Event{Type: EventLog, Line: data}
		return false
	}
}

func parseAppError(data string) (*AppError, bool) {
	trimmed := strings.TrimSpace(data)
	if !strings.HasPrefix(trimmed, "{") {
		return nil, false
	}
	var appErr AppError
	if err := json.Unmarshal([]byte(trimmed), &appErr); err != nil {
		return nil, false
	}
	if appErr.Message == "" {
		// Structured-looking but no error field: plain log line.
		return nil, false
	}
	return &appErr, true
}
