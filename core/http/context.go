package http

import (
	"encoding/json"
	"io"
	"log"
	nethttp "net/http"
	"strconv"
	"sync"

	"github.com/pkg/errors"

	"github.com/searchktools/cluster-server/core/codec"
)

// MaxBodyBytes caps how much of a request body Body will read.
const MaxBodyBytes = 10 << 20

// HTTP header names
const (
	HeaderContentType = "Content-Type"
	HeaderAccept      = "Accept"
)

// Context defines the HTTP request context interface
type Context interface {
	// Request information
	Method() string
	Path() string
	Query(key string) string
	QueryInt(key string, def int) int
	Header(key string) string
	Body() ([]byte, error)
	RemoteAddr() string

	// Response methods
	String(code int, s string)
	JSON(code int, v any)
	Render(code int, v any)
	Error(code int, message string)

	// Binding
	Bind(v any) error

	// Response state
	Status() int
	Written() bool
}

// StandardContext is the net/http backed context implementation
type StandardContext struct {
	w nethttp.ResponseWriter
	r *nethttp.Request

	body     []byte
	bodyRead bool
	bodyErr  error

	status  int
	written bool
}

var contextPool = sync.Pool{
	New: func() any {
		return &StandardContext{}
	},
}

// AcquireContext takes a context from the pool and binds it to w and r.
func AcquireContext(w nethttp.ResponseWriter, r *nethttp.Request) *StandardContext {
	ctx := contextPool.Get().(*StandardContext)
	ctx.w = w
	ctx.r = r
	ctx.status = nethttp.StatusOK
	return ctx
}

// ReleaseContext returns ctx to the pool. ctx must not be used afterwards.
func ReleaseContext(ctx *StandardContext) {
	ctx.w = nil
	ctx.r = nil
	ctx.body = nil
	ctx.bodyRead = false
	ctx.bodyErr = nil
	ctx.status = 0
	ctx.written = false
	contextPool.Put(ctx)
}

// Method returns the HTTP method
func (c *StandardContext) Method() string {
	return c.r.Method
}

// Path returns the request path
func (c *StandardContext) Path() string {
	return c.r.URL.Path
}

// Query gets a query parameter
func (c *StandardContext) Query(key string) string {
	return c.r.URL.Query().Get(key)
}

// QueryInt parses a query parameter as a non-negative integer, returning
// def when it is missing, malformed or negative.
func (c *StandardContext) QueryInt(key string, def int) int {
	return ParseIntOr(c.Query(key), def)
}

// Header gets a request header
func (c *StandardContext) Header(key string) string {
	return c.r.Header.Get(key)
}

// Body reads the request body once and caches it. A body over
// MaxBodyBytes is an error.
func (c *StandardContext) Body() ([]byte, error) {
	if !c.bodyRead {
		c.bodyRead = true
		if c.r.Body != nil {
			c.body, c.bodyErr = io.ReadAll(nethttp.MaxBytesReader(c.w, c.r.Body, MaxBodyBytes))
			var tooLarge *nethttp.MaxBytesError
			if errors.As(c.bodyErr, &tooLarge) {
				c.body = nil
				c.bodyErr = errors.Errorf("request body exceeds %d bytes", tooLarge.Limit)
			}
		}
	}
	return c.body, c.bodyErr
}

// RemoteAddr returns the caller's address
func (c *StandardContext) RemoteAddr() string {
	return c.r.RemoteAddr
}

// Bind binds a JSON body to v
func (c *StandardContext) Bind(v any) error {
	body, err := c.Body()
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

// String sends a text response
func (c *StandardContext) String(code int, s string) {
	c.Data(code, "text/plain; charset=utf-8", []byte(s))
}

// JSON sends a JSON response
func (c *StandardContext) JSON(code int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.String(500, "JSON marshal error")
		return
	}
	c.Data(code, codec.MIMEJSON, data)
}

// Render encodes v with the codec negotiated from the Accept header.
func (c *StandardContext) Render(code int, v any) {
	cd := codec.Negotiate(c.Header(HeaderAccept))
	data, err := cd.Encode(v)
	if err != nil {
		c.Error(500, "failed to encode "+cd.Name()+" response: "+err.Error())
		return
	}
	c.Data(code, cd.ContentType(), data)
}

// Error sends an error response
func (c *StandardContext) Error(code int, message string) {
	c.JSON(code, map[string]any{
		"code":    code,
		"message": message,
	})
}

// Data sends raw data with a content type. Only the first response is
// written; later calls are dropped.
func (c *StandardContext) Data(code int, contentType string, data []byte) {
	if c.written {
		log.Printf("response already written for %s %s, dropping status %d", c.Method(), c.Path(), code)
		return
	}
	c.written = true
	c.status = code

	h := c.w.Header()
	h.Set(HeaderContentType, contentType)
	h.Set("Content-Length", strconv.Itoa(len(data)))
	c.w.WriteHeader(code)
	c.w.Write(data)
}

// Status returns the status written (200 before anything is written)
func (c *StandardContext) Status() int {
	return c.status
}

// Written reports whether a response has been sent
func (c *StandardContext) Written() bool {
	return c.written
}

// ParseIntOr parses s as a non-negative base-10 integer, falling back to def.
func ParseIntOr(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}
