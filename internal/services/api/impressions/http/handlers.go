// Package http provides http transport for impressions
package http

import (
	stdhttp "net/http"

	"bunshare/internal/modkit/httpkit"
	"bunshare/internal/services/api/impressions/domain"
)

// Register mounts the impression endpoints on the given router
func Register(r httpkit.Router, s domain.RecorderPort) {
	h := &handlers{svc: s}
	httpkit.PostJSON[domain.RecordInput](r, "/record", h.record)
}

type handlers struct {
	svc domain.RecorderPort
}

// swagger:route POST /impressions/record Impressions recordImpressions
// @Summary Record a batch of impressions
// @Description Entries that look like noise are counted as filtered and never fail the batch. Repeats of a session dedup key are ignored.
// @Tags Impressions
// @Accept json
// @Produce json
// @Param payload body domain.RecordInput true "Impression batch"
// @Success 200 {object} impression.Summary "ok"
// @Failure 503 {object} httpkit.Envelope "store unavailable"
// @Router /impressions/record [post]
func (h *handlers) record(r *stdhttp.Request, in domain.RecordInput) (any, error) {
	return h.svc.Record(r.Context(), domain.Batch{
		Events:    in.Impressions,
		UserID:    httpkit.User(r),
		UserAgent: r.UserAgent(),
	})
}
