package mapper_test

import (
	"context"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/switchyardhq/switchyard/internal/mapper"
)

// flatten mirrors how the webhook handler turns http.Header into the map the
// mappers receive: first value per key, keys in canonical MIME form.
func flatten(header http.Header) map[string]string {
	out := make(map[string]string)
	for key, values := range header {
		if len(values) > 0 {
			out[key] = values[0]
		}
	}
	return out
}

var _ = Describe("Mapper", func() {
	ctx := context.Background()

	Describe("ForSource", func() {
		It("knows github, linear, and google", func() {
			for _, source := range []string{"github", "linear", "google"} {
				m, ok := mapper.ForSource(source)
				Expect(ok).To(BeTrue(), source)
				Expect(m).NotTo(BeNil())
			}
		})

		It("returns false for unknown sources", func() {
			_, ok := mapper.ForSource("pagerduty")
			Expect(ok).To(BeFalse())
		})
	})

	Describe("GitHubEventMapper", func() {
		m := mapper.NewGitHubEventMapper()

		It("maps opened issues to issue_created", func() {
			et, err := m.Map(ctx,
				map[string]any{"action": "opened"},
				map[string]string{"X-GitHub-Event": "issues"})
			Expect(err).NotTo(HaveOccurred())
			Expect(et).To(Equal(mapper.EventIssueCreated))
		})

		It("maps other issue actions to issue_updated", func() {
			et, err := m.Map(ctx,
				map[string]any{"action": "closed"},
				map[string]string{"X-GitHub-Event": "issues"})
			Expect(err).NotTo(HaveOccurred())
			Expect(et).To(Equal(mapper.EventIssueUpdated))
		})

		It("maps issue comments and pull requests", func() {
			et, err := m.Map(ctx, map[string]any{}, map[string]string{"X-GitHub-Event": "issue_comment"})
			Expect(err).NotTo(HaveOccurred())
			Expect(et).To(Equal(mapper.EventCommentCreated))

			et, err = m.Map(ctx, map[string]any{}, map[string]string{"X-GitHub-Event": "pull_request"})
			Expect(err).NotTo(HaveOccurred())
			Expect(et).To(Equal(mapper.EventPRCreated))
		})

		It("errors on unknown event headers", func() {
			_, err := m.Map(ctx, map[string]any{}, map[string]string{"X-GitHub-Event": "watch"})
			Expect(err).To(HaveOccurred())
		})

		It("reads the event header out of a flattened http.Header", func() {
			header := http.Header{}
			header.Set("X-GitHub-Event", "issues")
			header.Set("Content-Type", "application/json")

			et, err := m.Map(ctx, map[string]any{"action": "opened"}, flatten(header))

			Expect(err).NotTo(HaveOccurred())
			Expect(et).To(Equal(mapper.EventIssueCreated))
		})
	})

	Describe("LinearEventMapper", func() {
		m := mapper.NewLinearEventMapper()

		It("maps issue creation from the body", func() {
			et, err := m.Map(ctx,
				map[string]any{"type": "Issue", "action": "create"},
				map[string]string{})
			Expect(err).NotTo(HaveOccurred())
			Expect(et).To(Equal(mapper.EventIssueCreated))
		})

		It("maps comments regardless of action", func() {
			et, err := m.Map(ctx,
				map[string]any{"type": "Comment", "action": "update"},
				map[string]string{})
			Expect(err).NotTo(HaveOccurred())
			Expect(et).To(Equal(mapper.EventCommentCreated))
		})

		It("errors on unknown entity types", func() {
			_, err := m.Map(ctx, map[string]any{"type": "Project"}, map[string]string{})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("GoogleEventMapper", func() {
		m := mapper.NewGoogleEventMapper()

		It("maps resource states from headers", func() {
			et, err := m.Map(ctx, map[string]any{}, map[string]string{"X-Goog-Resource-State": "sync"})
			Expect(err).NotTo(HaveOccurred())
			Expect(et).To(Equal(mapper.EventCalendarSync))

			et, err = m.Map(ctx, map[string]any{}, map[string]string{"X-Goog-Resource-State": "exists"})
			Expect(err).NotTo(HaveOccurred())
			Expect(et).To(Equal(mapper.EventCalendarEventUpdated))

			et, err = m.Map(ctx, map[string]any{}, map[string]string{"X-Goog-Resource-State": "not_exists"})
			Expect(err).NotTo(HaveOccurred())
			Expect(et).To(Equal(mapper.EventCalendarEventCancelled))
		})

		It("errors when the state header is missing", func() {
			_, err := m.Map(ctx, map[string]any{}, map[string]string{})
			Expect(err).To(HaveOccurred())
		})

		It("reads the state header out of a flattened http.Header", func() {
			header := http.Header{}
			header.Set("X-Goog-Resource-State", "sync")

			et, err := m.Map(ctx, map[string]any{}, flatten(header))

			Expect(err).NotTo(HaveOccurred())
			Expect(et).To(Equal(mapper.EventCalendarSync))
		})
	})
})
