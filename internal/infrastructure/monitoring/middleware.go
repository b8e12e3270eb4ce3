package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// unmatchedRoute labels requests that hit no registered route.
const unmatchedRoute = "unmatched"

// Middleware records request counts, latency and sizes per route template.
// Scrapes of the metrics endpoint itself are not recorded.
func Middleware(metrics *Metrics, skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[p] = struct{}{}
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		if _, ok := skipped[route]; ok {
			c.Next()
			return
		}
		if route == "" {
			route = unmatchedRoute
		}

		start := time.Now()
		c.Next()

		reqSize := c.Request.ContentLength
		if reqSize < 0 {
			reqSize = 0
		}
		respSize := int64(c.Writer.Size())
		if respSize < 0 {
			respSize = 0
		}
		metrics.RecordHTTPRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()),
			time.Since(start), reqSize, respSize)
	}
}

// Timer measures one collaborator call
type Timer struct {
	start   time.Time
	metrics *Metrics
	service string
	method  string
}

// NewTimer starts timing service.method
func NewTimer(metrics *Metrics, service, method string) *Timer {
	return &Timer{start: time.Now(), metrics: metrics, service: service, method: method}
}

// Stop records the call with its outcome
func (t *Timer) Stop(status string) {
	t.metrics.RecordServiceCall(t.service, t.method, status, time.Since(t.start))
}
