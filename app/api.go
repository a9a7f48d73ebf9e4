package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"pricewatch/config"
	"pricewatch/lib"
	"pricewatch/lib/aggregator"
	"pricewatch/lib/errs"
)

func NewHTTPServer(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, svc *lib.Service) *http.Server {
	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	srv := &http.Server{Addr: addr, Handler: router(log, svc)}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Sugar().Infof("Serving on %s", addr)
			go srv.ListenAndServe()
			return nil
		},
		OnStop: srv.Shutdown,
	})

	return srv
}

func router(log *zap.Logger, svc *lib.Service) http.Handler {
	ctrl := &controller{log, svc}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/", ctrl.root)

	r.Route("/api", func(r chi.Router) {
		r.Get("/search", ctrl.search)
		r.Get("/products", ctrl.listProducts)
		r.Get("/prices/{product_id}", ctrl.productPrices)
		r.Get("/deals", ctrl.deals)
		r.Post("/alerts", ctrl.createAlert)
		r.Get("/health", ctrl.health)
	})

	return r
}

type controller struct {
	log *zap.Logger
	svc *lib.Service
}

func statusOf(err error) int {
	var validationErr *errs.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (ctrl *controller) reject(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		ctrl.log.Sugar().Errorw("Request failed", "err", err)
	}
	http.Error(w, err.Error(), status)
}

func (ctrl *controller) resolve(w http.ResponseWriter, status int, body any) {
	b, err := json.Marshal(body)
	if err != nil {
		ctrl.reject(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}

func (ctrl *controller) root(w http.ResponseWriter, r *http.Request) {
	ctrl.resolve(w, http.StatusOK, map[string]any{
		"message": "Price Comparison & Deal Finder API",
		"version": "1.0.0",
		"status":  "operational",
	})
}

func (ctrl *controller) search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query().Get("q")

	outcome, err := ctrl.svc.SearchProducts(ctx, query)
	if err != nil {
		ctrl.reject(w, err)
		return
	}

	if outcome.Pending != nil {
		ctrl.resolve(w, http.StatusOK, PendingSearchView{}.From(outcome.Pending))
		return
	}
	ctrl.resolve(w, http.StatusOK, FromMany[aggregator.Match, SearchResultView](outcome.Matches))
}

func (ctrl *controller) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	summaries, err := ctrl.svc.ListProducts(ctx)
	if err != nil {
		ctrl.reject(w, err)
		return
	}

	views := FromMany[lib.ProductSummary, ProductView](summaries)
	ctrl.resolve(w, http.StatusOK, map[string]any{
		"count":    len(views),
		"products": views,
	})
}

func (ctrl *controller) productPrices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID := parseInt(chi.URLParam(r, "product_id"))

	detail, err := ctrl.svc.ProductPrices(ctx, productID)
	if err != nil {
		ctrl.reject(w, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, ProductPricesView{}.From(detail))
}

func (ctrl *controller) deals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	deals, err := ctrl.svc.BestDeals(ctx)
	if err != nil {
		ctrl.reject(w, err)
		return
	}

	views := FromMany[aggregator.Deal, DealView](deals)
	ctrl.resolve(w, http.StatusOK, map[string]any{
		"count": len(views),
		"deals": views,
	})
}

type createAlertRequest struct {
	ProductID   uint    `json:"product_id"`
	TargetPrice float64 `json:"target_price"`
	UserEmail   string  `json:"user_email"`
}

func (ctrl *controller) createAlert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctrl.reject(w, errs.Validationf("invalid request body: %v", err))
		return
	}

	alert, err := ctrl.svc.CreateAlert(ctx, req.ProductID, req.TargetPrice, req.UserEmail)
	if err != nil {
		ctrl.reject(w, err)
		return
	}
	ctrl.resolve(w, http.StatusCreated, map[string]any{
		"id":      alert.ID,
		"status":  "created",
		"message": fmt.Sprintf("Alert set for %.2f", alert.TargetPrice),
	})
}

func (ctrl *controller) health(w http.ResponseWriter, r *http.Request) {
	ctrl.resolve(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func parseInt(s string) uint {
	u, _ := strconv.ParseUint(s, 10, 64)
	return uint(u)
}
