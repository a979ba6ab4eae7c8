package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/diabetecam/diabetecam/httpx"
	"go.uber.org/zap"
)

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

type HealthHandler struct {
	db  *sql.DB
	log *zap.Logger
}

func NewHealthHandler(db *sql.DB, log *zap.Logger) *HealthHandler {
	return &HealthHandler{db: db, log: log}
}

// Health always answers 200 while the process runs.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready checks the database and answers 503 when it is unreachable.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "ok", Checks: map[string]string{"database": "ok"}}
	status := http.StatusOK
	if err := h.checkDatabase(ctx); err != nil {
		h.log.Warn("database health check failed", zap.Error(err))
		resp.Status, resp.Checks["database"] = "unavailable", "unavailable"
		status = http.StatusServiceUnavailable
	}
	resp.Timestamp = time.Now().UTC().Format(time.RFC3339)
	httpx.JSON(w, status, resp)
}

func (h *HealthHandler) checkDatabase(ctx context.Context) error {
	if h.db == nil {
		return sql.ErrConnDone
	}
	if err := h.db.PingContext(ctx); err != nil {
		return err
	}
	var one int
	return h.db.QueryRowContext(ctx, "SELECT 1").Scan(&one)
}
