package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.opentelemetry.io/otel/trace"

	"github.com/switchyardhq/switchyard/internal/http/handler"
	"github.com/switchyardhq/switchyard/internal/http/router"
	"github.com/switchyardhq/switchyard/internal/model"
	"github.com/switchyardhq/switchyard/internal/service"
)

type fakeIngestService struct {
	ingestFn       func(ctx context.Context, params service.IngestParams) (*service.IngestResult, error)
	capturedParams *service.IngestParams
}

func (f *fakeIngestService) Ingest(ctx context.Context, params service.IngestParams) (*service.IngestResult, error) {
	f.capturedParams = &params
	if f.ingestFn != nil {
		return f.ingestFn(ctx, params)
	}
	return &service.IngestResult{
		EventLog:  &model.EventLog{ID: 12345, WebhookID: "wh-1"},
		EventType: "issue_created",
		Enqueued:  true,
	}, nil
}

var _ = Describe("WebhookHandler", func() {
	var (
		engine *gin.Engine
		ingest *fakeIngestService
	)

	setup := func(token string) {
		gin.SetMode(gin.TestMode)
		engine = gin.New()
		router.SetupRoutes(engine, handler.NewWebhookHandler(ingest, token))
	}

	post := func(source string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/"+source, bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		return w
	}

	BeforeEach(func() {
		ingest = &fakeIngestService{}
	})

	It("queues a github webhook and returns 202", func() {
		setup("")

		w := post("github", []byte(`{"action":"opened","issue":{"number":7}}`), map[string]string{
			"X-GitHub-Event":    "issues",
			"X-GitHub-Delivery": "delivery-abc",
		})

		Expect(w.Code).To(Equal(http.StatusAccepted))

		var resp map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp["status"]).To(Equal("queued"))
		Expect(resp["webhook_id"]).To(Equal("wh-1"))
		Expect(resp["event_type"]).To(Equal("issue_created"))

		Expect(ingest.capturedParams).NotTo(BeNil())
		Expect(ingest.capturedParams.Source).To(Equal("github"))
		Expect(ingest.capturedParams.WebhookID).To(Equal("delivery-abc"))
		Expect(ingest.capturedParams.Headers["X-Github-Event"]).To(Equal("issues"))
	})

	It("carries the request trace id onto the ingest params", func() {
		setup("")
		spanCtx := trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    trace.TraceID{0x4b, 0xf9, 0x2f, 0x35, 0x77, 0xb3, 0x4d, 0xa6, 0xa3, 0xce, 0x92, 0x9d, 0x0e, 0x0e, 0x47, 0x36},
			SpanID:     trace.SpanID{0x00, 0xf0, 0x67, 0xaa, 0x0b, 0xa9, 0x02, 0xb7},
			TraceFlags: trace.FlagsSampled,
		})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/github", bytes.NewBufferString(`{"ref":"refs/heads/main"}`))
		req.Header.Set("Content-Type", "application/json")
		req = req.WithContext(trace.ContextWithSpanContext(req.Context(), spanCtx))
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusAccepted))
		Expect(ingest.capturedParams.TraceID).NotTo(BeNil())
		Expect(*ingest.capturedParams.TraceID).To(Equal(spanCtx.TraceID().String()))
	})

	It("leaves the trace id unset when the request carries no span", func() {
		setup("")

		w := post("github", []byte(`{"ref":"refs/heads/main"}`), nil)

		Expect(w.Code).To(Equal(http.StatusAccepted))
		Expect(ingest.capturedParams.TraceID).To(BeNil())
	})

	It("returns 200 for a duplicate delivery", func() {
		setup("")
		ingest.ingestFn = func(ctx context.Context, params service.IngestParams) (*service.IngestResult, error) {
			return &service.IngestResult{
				EventLog:   &model.EventLog{ID: 99, WebhookID: "wh-dup"},
				EventType:  "push",
				Duplicated: true,
			}, nil
		}

		w := post("github", []byte(`{"ref":"refs/heads/main"}`), nil)

		Expect(w.Code).To(Equal(http.StatusOK))

		var resp map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp["status"]).To(Equal("duplicate"))
		Expect(resp["webhook_id"]).To(Equal("wh-dup"))
	})

	It("rejects a missing token when one is configured", func() {
		setup("secret")

		w := post("github", []byte(`{}`), nil)

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
		Expect(ingest.capturedParams).To(BeNil())
	})

	It("accepts a matching token", func() {
		setup("secret")

		w := post("linear", []byte(`{"type":"Issue","action":"create"}`), map[string]string{
			"X-Webhook-Token": "secret",
			"Linear-Delivery": "lin-1",
		})

		Expect(w.Code).To(Equal(http.StatusAccepted))
		Expect(ingest.capturedParams.WebhookID).To(Equal("lin-1"))
	})

	It("rejects a non-JSON body", func() {
		setup("")

		w := post("github", []byte("not json"), nil)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(ingest.capturedParams).To(BeNil())
	})

	It("returns 500 when ingest fails", func() {
		setup("")
		ingest.ingestFn = func(ctx context.Context, params service.IngestParams) (*service.IngestResult, error) {
			return nil, fmt.Errorf("enqueue event: redis down")
		}

		w := post("google", []byte(`{}`), nil)

		Expect(w.Code).To(Equal(http.StatusInternalServerError))
	})

	It("serves the health endpoint", func() {
		setup("")

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`"status":"ok"`))
	})
})
