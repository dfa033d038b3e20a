package handlers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/searchktools/cluster-server/core/http"
)

// Item is one synthetic entry of a DataResponse
type Item struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// DataResponse is returned by GET /api/data
type DataResponse struct {
	ID        int    `json:"id"`
	Timestamp string `json:"timestamp"`
	PID       int    `json:"pid"`
	Items     []Item `json:"items"`
}

// SlowResponse is returned by GET /api/slow
type SlowResponse struct {
	Message   string `json:"message"`
	Delay     int    `json:"delay"`
	PID       int    `json:"pid"`
	Timestamp string `json:"timestamp"`
}

// EchoResponse is returned by POST /api/echo
type EchoResponse struct {
	ReceivedData json.RawMessage `json:"receivedData"`
	Timestamp    string          `json:"timestamp"`
	PID          int             `json:"pid"`
}

// ErrorResponse is returned by GET /api/error
type ErrorResponse struct {
	Error     bool   `json:"error"`
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

func (t *table) data(ctx http.Context) error {
	r := t.env.rand()

	items := make([]Item, dataItems)
	for i := range items {
		items[i] = Item{
			ID:    i + 1,
			Name:  fmt.Sprintf("Item %d", i+1),
			Value: r.Float64() * 100,
		}
	}

	ctx.Render(200, DataResponse{
		ID:        r.IntN(1_000_000),
		Timestamp: t.env.timestamp(),
		PID:       t.env.PID,
		Items:     items,
	})
	return nil
}

// The timer parks only this request's goroutine. The wait is not cut short
// when the client goes away.
func (t *table) slow(ctx http.Context) error {
	delay := DelayMS(ctx.Query("delay"))

	timer := time.NewTimer(time.Duration(delay) * time.Millisecond)
	<-timer.C

	ctx.Render(200, SlowResponse{
		Message:   fmt.Sprintf("Response delayed by %dms", delay),
		Delay:     delay,
		PID:       t.env.PID,
		Timestamp: t.env.timestamp(),
	})
	return nil
}

// An empty body echoes as {}. A body that is not JSON is a handler fault.
func (t *table) echo(ctx http.Context) error {
	body, err := ctx.Body()
	if err != nil {
		return errors.Wrap(err, "read request body")
	}

	received := json.RawMessage("{}")
	if len(body) > 0 {
		if !json.Valid(body) {
			return errors.New("request body is not valid JSON")
		}
		received = json.RawMessage(body)
	}

	ctx.Render(200, EchoResponse{
		ReceivedData: received,
		Timestamp:    t.env.timestamp(),
		PID:          t.env.PID,
	})
	return nil
}

// DelayMS parses a delay in milliseconds. Values above MaxDelayMS are
// treated as malformed.
func DelayMS(s string) int {
	delay := http.ParseIntOr(s, DefaultDelayMS)
	if delay > MaxDelayMS {
		return DefaultDelayMS
	}
	return delay
}

// ErrorCode parses a simulated status code, accepting 400-599 only.
func ErrorCode(s string) int {
	code := http.ParseIntOr(s, DefaultErrorCode)
	if code < 400 || code > 599 {
		return DefaultErrorCode
	}
	return code
}

func (t *table) simulatedError(ctx http.Context) error {
	code := ErrorCode(ctx.Query("type"))

	ctx.Render(code, ErrorResponse{
		Error:     true,
		Code:      code,
		Message:   fmt.Sprintf("Simulated %d error", code),
		Timestamp: t.env.timestamp(),
	})
	return nil
}
