package postrecords

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"alideal-affiliate-relay/db"
	"alideal-affiliate-relay/internal/ledger"
	"alideal-affiliate-relay/internal/pkg/render"
	"alideal-affiliate-relay/internal/router"

	"github.com/go-chi/chi/v5"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Handler exposes the persistent dedup ledger for inspection: the latest
// record per product identifier, and a recent-posts listing.
type Handler struct {
	store  *ledger.SQLStore
	logger *zap.SugaredLogger
}

type NewHandlerParams struct {
	fx.In

	Conn   db.Conn `name:"sqlite" optional:"true"`
	Logger *zap.SugaredLogger
}

func NewHandler(p NewHandlerParams) *Handler {
	var store *ledger.SQLStore
	if p.Conn != nil {
		store = ledger.NewSQLStore(p.Conn, 0, p.Logger)
	}
	return &Handler{
		store:  store,
		logger: p.Logger,
	}
}

func (h *Handler) RegisterRoute(r *chi.Mux) {
	r.Get("/v1/post-records", h.Handle)
	r.Get("/v1/post-records/{productID}", h.getByProductID)
}

type listResponse struct {
	Records []ledger.PostRecord `json:"records"`
}

func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		render.ChiErr(w, http.StatusServiceUnavailable, "sqlite disabled")
		return
	}

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			render.ChiErr(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	recs, err := h.store.Recent(r.Context(), limit)
	if errors.Is(err, db.ErrSQLiteDisabled) {
		render.ChiErr(w, http.StatusServiceUnavailable, "sqlite disabled")
		return
	}
	if err != nil {
		h.logger.Errorw("post_records_list_failed", "err", err)
		render.ChiErr(w, http.StatusInternalServerError, "failed to list post records")
		return
	}
	if recs == nil {
		recs = []ledger.PostRecord{}
	}

	render.ChiJSON(w, http.StatusOK, listResponse{Records: recs})
}

func (h *Handler) getByProductID(w http.ResponseWriter, r *http.Request) {
	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	if productID == "" {
		render.ChiErr(w, http.StatusBadRequest, "missing product id")
		return
	}

	if h.store == nil {
		render.ChiErr(w, http.StatusServiceUnavailable, "sqlite disabled")
		return
	}

	rec, err := h.store.GetByProductID(r.Context(), productID)
	if errors.Is(err, sql.ErrNoRows) {
		render.ChiErr(w, http.StatusNotFound, "not found")
		return
	}
	if errors.Is(err, db.ErrSQLiteDisabled) {
		render.ChiErr(w, http.StatusServiceUnavailable, "sqlite disabled")
		return
	}
	if err != nil {
		h.logger.Errorw("post_record_get_failed", "product_id", productID, "err", err)
		render.ChiErr(w, http.StatusInternalServerError, "failed to fetch post record")
		return
	}

	render.ChiJSON(w, http.StatusOK, rec)
}

var _ router.Handler = (*Handler)(nil)
