package service_test

import (
	"context"
	"encoding/json"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/switchyardhq/switchyard/common/id"
	"github.com/switchyardhq/switchyard/internal/model"
	"github.com/switchyardhq/switchyard/internal/queue"
	"github.com/switchyardhq/switchyard/internal/service"
	"github.com/switchyardhq/switchyard/internal/store"
)

// Mock EventLogStore
type mockEventLogStore struct {
	createOrGetFn func(ctx context.Context, log *model.EventLog) (*model.EventLog, bool, error)
	capturedLog   *model.EventLog
}

func (m *mockEventLogStore) CreateOrGet(ctx context.Context, log *model.EventLog) (*model.EventLog, bool, error) {
	m.capturedLog = log
	if m.createOrGetFn != nil {
		return m.createOrGetFn(ctx, log)
	}
	return log, true, nil
}

func (m *mockEventLogStore) GetByID(ctx context.Context, id int64) (*model.EventLog, error) {
	return nil, store.ErrNotFound
}

func (m *mockEventLogStore) MarkProcessed(ctx context.Context, id int64) error {
	return nil
}

func (m *mockEventLogStore) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	return nil
}

// Mock QueueProducer
type mockQueueProducer struct {
	enqueueFn   func(ctx context.Context, msg queue.EventMessage) error
	capturedMsg *queue.EventMessage
}

func (m *mockQueueProducer) Enqueue(ctx context.Context, msg queue.EventMessage) error {
	m.capturedMsg = &msg
	if m.enqueueFn != nil {
		return m.enqueueFn(ctx, msg)
	}
	return nil
}

func (m *mockQueueProducer) Close() error {
	return nil
}

var _ = Describe("IngestService", func() {
	var (
		svc       service.IngestService
		eventLogs *mockEventLogStore
		producer  *mockQueueProducer
		ctx       context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		eventLogs = &mockEventLogStore{}
		producer = &mockQueueProducer{}

		err := id.Init(1)
		Expect(err).NotTo(HaveOccurred())

		svc = service.NewIngestService(eventLogs, producer, nil)
	})

	Describe("Ingest", func() {
		Context("with a recognized github webhook", func() {
			It("persists and enqueues with the mapped event type", func() {
				result, err := svc.Ingest(ctx, service.IngestParams{
					Source:  "github",
					Headers: map[string]string{"X-GitHub-Event": "issues"},
					Payload: json.RawMessage(`{"action":"opened"}`),
				})

				Expect(err).NotTo(HaveOccurred())
				Expect(result.EventType).To(Equal("issue_created"))
				Expect(result.Enqueued).To(BeTrue())
				Expect(result.Duplicated).To(BeFalse())

				Expect(eventLogs.capturedLog).NotTo(BeNil())
				Expect(eventLogs.capturedLog.Source).To(Equal("github"))
				Expect(eventLogs.capturedLog.DedupeKey).To(HavePrefix("github:"))
				Expect(eventLogs.capturedLog.WebhookID).NotTo(BeEmpty())

				Expect(producer.capturedMsg).NotTo(BeNil())
				Expect(producer.capturedMsg.EventLogID).To(Equal(eventLogs.capturedLog.ID))
				Expect(producer.capturedMsg.EventType).To(Equal("issue_created"))
				Expect(producer.capturedMsg.Attempt).To(Equal(1))
			})

			It("maps headers carrying canonical MIME keys", func() {
				// The HTTP handler flattens http.Header, so ingest sees
				// "X-Github-Event" rather than GitHub's documented spelling.
				result, err := svc.Ingest(ctx, service.IngestParams{
					Source:  "github",
					Headers: map[string]string{"X-Github-Event": "issues"},
					Payload: json.RawMessage(`{"action":"opened"}`),
				})

				Expect(err).NotTo(HaveOccurred())
				Expect(result.EventType).To(Equal("issue_created"))
			})
		})

		Context("with an unmappable payload", func() {
			It("records event type unknown and still enqueues", func() {
				result, err := svc.Ingest(ctx, service.IngestParams{
					Source:  "github",
					Headers: map[string]string{"X-GitHub-Event": "watch"},
					Payload: json.RawMessage(`{"action":"started"}`),
				})

				Expect(err).NotTo(HaveOccurred())
				Expect(result.EventType).To(Equal(service.EventTypeUnknown))
				Expect(result.Enqueued).To(BeTrue())
			})
		})

		Context("with an unknown source", func() {
			It("accepts the webhook with event type unknown", func() {
				result, err := svc.Ingest(ctx, service.IngestParams{
					Source:  "pagerduty",
					Payload: json.RawMessage(`{"incident":"p1"}`),
				})

				Expect(err).NotTo(HaveOccurred())
				Expect(result.EventType).To(Equal(service.EventTypeUnknown))
			})
		})

		Context("when the payload was seen before", func() {
			BeforeEach(func() {
				eventLogs.createOrGetFn = func(ctx context.Context, log *model.EventLog) (*model.EventLog, bool, error) {
					existing := *log
					existing.ID = 999
					return &existing, false, nil
				}
			})

			It("dedupes without enqueueing", func() {
				result, err := svc.Ingest(ctx, service.IngestParams{
					Source:  "github",
					Headers: map[string]string{"X-GitHub-Event": "issues"},
					Payload: json.RawMessage(`{"action":"opened"}`),
				})

				Expect(err).NotTo(HaveOccurred())
				Expect(result.Duplicated).To(BeTrue())
				Expect(result.Enqueued).To(BeFalse())
				Expect(result.EventLog.ID).To(Equal(int64(999)))
				Expect(producer.capturedMsg).To(BeNil())
			})
		})

		Context("when a provider delivery id is supplied", func() {
			It("keeps it instead of minting one", func() {
				_, err := svc.Ingest(ctx, service.IngestParams{
					Source:    "linear",
					WebhookID: "delivery-42",
					Payload:   json.RawMessage(`{"type":"Issue","action":"create"}`),
				})

				Expect(err).NotTo(HaveOccurred())
				Expect(eventLogs.capturedLog.WebhookID).To(Equal("delivery-42"))
			})
		})

		Context("with missing inputs", func() {
			It("rejects an empty source", func() {
				_, err := svc.Ingest(ctx, service.IngestParams{Payload: json.RawMessage(`{}`)})
				Expect(err).To(HaveOccurred())
			})

			It("rejects an empty payload", func() {
				_, err := svc.Ingest(ctx, service.IngestParams{Source: "github"})
				Expect(err).To(HaveOccurred())
			})
		})

		Context("when the queue is down", func() {
			BeforeEach(func() {
				producer.enqueueFn = func(ctx context.Context, msg queue.EventMessage) error {
					return fmt.Errorf("redis connection refused")
				}
			})

			It("propagates the error", func() {
				_, err := svc.Ingest(ctx, service.IngestParams{
					Source:  "github",
					Headers: map[string]string{"X-GitHub-Event": "issues"},
					Payload: json.RawMessage(`{"action":"opened"}`),
				})

				Expect(err).To(MatchError(ContainSubstring("redis connection refused")))
			})
		})
	})
})
