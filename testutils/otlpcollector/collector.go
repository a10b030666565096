// Package otlpcollector runs in-process OTLP trace collectors for tests.
package otlpcollector

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	coltracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/proto"
)

// Collector records the spans it receives.
type Collector struct {
	coltracepb.UnimplementedTraceServiceServer

	// Addr is the host:port the collector listens on.
	Addr string

	mu       sync.Mutex
	spans    []string
	services []string
	headers  []map[string][]string
}

// NewGRPC starts a collector serving the OTLP gRPC protocol.
func NewGRPC(tb testing.TB) *Collector {
	tb.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		tb.Fatalf("failed to listen: %v", err)
	}
	c := &Collector{Addr: lis.Addr().String()}

	grpcServer := grpc.NewServer()
	coltracepb.RegisterTraceServiceServer(grpcServer, c)
	go func() {
		_ = grpcServer.Serve(lis)
	}()
	tb.Cleanup(grpcServer.Stop)

	return c
}

// NewHTTP starts a collector serving the OTLP protobuf over HTTP protocol
// on path.
func NewHTTP(tb testing.TB, path string) *Collector {
	tb.Helper()

	c := &Collector{}
	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var req coltracepb.ExportTraceServiceRequest
		if err := proto.Unmarshal(body, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		c.record(&req, r.Header)

		resp, err := proto.Marshal(&coltracepb.ExportTraceServiceResponse{})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/x-protobuf")
		_, _ = w.Write(resp)
	})
	srv := httptest.NewServer(mux)
	tb.Cleanup(srv.Close)
	c.Addr = srv.Listener.Addr().String()

	return c
}

// Export implements the OTLP TraceService.
func (c *Collector) Export(
	ctx context.Context, req *coltracepb.ExportTraceServiceRequest,
) (*coltracepb.ExportTraceServiceResponse, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	c.record(req, md)
	return &coltracepb.ExportTraceServiceResponse{}, nil
}

func (c *Collector) record(req *coltracepb.ExportTraceServiceRequest, headers map[string][]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.headers = append(c.headers, headers)
	for _, rs := range req.GetResourceSpans() {
		for _, attr := range rs.GetResource().GetAttributes() {
			if attr.GetKey() == "service.name" {
				c.services = append(c.services, attr.GetValue().GetStringValue())
			}
		}
		for _, ss := range rs.GetScopeSpans() {
			for _, span := range ss.GetSpans() {
				c.spans = append(c.spans, span.GetName())
			}
		}
	}
}

// SpanNames returns the names of the received spans, in arrival order.
func (c *Collector) SpanNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.spans...)
}

// ServiceNames returns the service.name of every received resource.
func (c *Collector) ServiceNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.services...)
}

// Header returns the values of the request header key, for every export.
// gRPC metadata keys are lower case.
func (c *Collector) Header(key string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var values []string
	for _, h := range c.headers {
		if v, ok := h[key]; ok {
			values = append(values, v...)
			continue
		}
		values = append(values, http.Header(h).Values(key)...)
	}
	return values
}
