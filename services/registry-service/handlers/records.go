package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"village-registry-system/pkg/response"
	"village-registry-system/services/registry-service/export"
	"village-registry-system/services/registry-service/models"
	"village-registry-system/services/registry-service/session"
	"village-registry-system/services/registry-service/workflow"
)

// controller is what the endpoints need from session.Residents and
// session.Letters.
type controller[T models.Record] interface {
	ListOwn(ctx context.Context) ([]T, error)
	List(ctx context.Context, status models.Status) ([]T, error)
	ObserveOwn(ctx context.Context) (*session.Observer[T], error)
	ObserveAll(ctx context.Context, status models.Status) (*session.Observer[T], error)
	Transition(ctx context.Context, id string, target models.Status, reason string) (workflow.Change, error)
	DeleteBatch(ctx context.Context, ids []string) (int64, error)
}

// records serves the endpoints shared by every record kind.
type records[T models.Record] struct {
	h      *Handler
	kind   models.Kind
	ctl    controller[T]
	toXLSX func([]T) (*excelize.File, error)
}

func newRecords[T models.Record](h *Handler, kind models.Kind, ctl controller[T], toXLSX func([]T) (*excelize.File, error)) *records[T] {
	return &records[T]{h: h, kind: kind, ctl: ctl, toXLSX: toXLSX}
}

func (rs *records[T]) mine(w http.ResponseWriter, r *http.Request) {
	out, err := rs.ctl.ListOwn(r.Context())
	if err != nil {
		rs.h.writeError(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, "Submissions fetched successfully", out)
}

func (rs *records[T]) mineStream(w http.ResponseWriter, r *http.Request) {
	obs, err := rs.ctl.ObserveOwn(r.Context())
	if err != nil {
		rs.h.writeError(w, r, err)
		return
	}
	streamSnapshots(rs.h, w, r, obs)
}

func (rs *records[T]) list(w http.ResponseWriter, r *http.Request) {
	out, err := rs.ctl.List(r.Context(), statusParam(r))
	if err != nil {
		rs.h.writeError(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, "Submissions fetched successfully", out)
}

func (rs *records[T]) listStream(w http.ResponseWriter, r *http.Request) {
	obs, err := rs.ctl.ObserveAll(r.Context(), statusParam(r))
	if err != nil {
		rs.h.writeError(w, r, err)
		return
	}
	streamSnapshots(rs.h, w, r, obs)
}

func (rs *records[T]) approve(w http.ResponseWriter, r *http.Request) {
	rs.transition(w, r, rs.kind.Status(models.OutcomeApproved), "")
}

func (rs *records[T]) reject(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Reason string `json:"reason"`
	}
	if err := decodeJSON(r, &input); err != nil && err != io.EOF {
		response.Error(w, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}
	rs.transition(w, r, models.StatusRejected, input.Reason)
}

func (rs *records[T]) transition(w http.ResponseWriter, r *http.Request, target models.Status, reason string) {
	id := chi.URLParam(r, "id")
	change, err := rs.ctl.Transition(r.Context(), id, target, reason)
	if err != nil {
		rs.h.writeError(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, "Status updated successfully", map[string]interface{}{
		"id":            id,
		"status":        change.To,
		"verified_at":   change.VerifiedAt,
		"verified_by":   change.VerifiedBy,
		"reject_reason": change.RejectReason,
	})
}

func (rs *records[T]) deleteBatch(w http.ResponseWriter, r *http.Request) {
	var input struct {
		IDs []string `json:"ids"`
	}
	if err := decodeJSON(r, &input); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}
	n, err := rs.ctl.DeleteBatch(r.Context(), input.IDs)
	if err != nil {
		rs.h.writeError(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, "Records deleted successfully", map[string]int64{"deleted": n})
}

func (rs *records[T]) exportXLSX(w http.ResponseWriter, r *http.Request) {
	out, err := rs.ctl.List(r.Context(), statusParam(r))
	if err != nil {
		rs.h.writeError(w, r, err)
		return
	}
	f, err := rs.toXLSX(out)
	if err != nil {
		rs.h.writeError(w, r, err)
		return
	}
	defer f.Close()

	name := fmt.Sprintf("%s-%s.xlsx", rs.kind, time.Now().Format("20060102"))
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	if err := f.Write(w); err != nil {
		rs.h.log.Warn("[WARN] export interrupted", zap.String("kind", string(rs.kind)), zap.Error(err))
	}
}

// statusParam reads ?status=; "ALL" and empty mean no filter.
func statusParam(r *http.Request) models.Status {
	s := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status")))
	if s == "" || s == "ALL" {
		return ""
	}
	return models.Status(s)
}
