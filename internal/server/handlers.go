package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Vibebros/sgkb-clanky/internal/assistant"
	"github.com/Vibebros/sgkb-clanky/internal/export"
	"github.com/Vibebros/sgkb-clanky/internal/finance"
	"github.com/Vibebros/sgkb-clanky/internal/requestctx"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code, "message": message})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.startTime).String(),
	}
	if r.URL.Query().Get("detail") == "true" {
		count, err := s.store.CountAll(r.Context())
		if err != nil {
			resp["status"] = "degraded"
			resp["store"] = err.Error()
		} else {
			resp["transactions"] = count
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type chatRequest struct {
	Message string           `json:"message"`
	History []assistant.Turn `json:"history"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON: "+err.Error())
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "message is required")
		return
	}

	ctx := r.Context()
	if convID := r.Header.Get("X-Conversation-ID"); convID != "" {
		ctx = requestctx.SetConversationID(ctx, convID)
	}
	ctx, cancel := context.WithTimeout(ctx, chatTimeout)
	defer cancel()

	resp, err := s.engine.Run(ctx, req.Message, req.History)
	if err != nil {
		log.Error().Err(err).
			Str("conversation_id", requestctx.ConversationID(ctx)).
			Msg("chat_request_failed")
		if errors.Is(err, assistant.ErrMalformedReply) {
			writeError(w, http.StatusBadGateway, "malformed_agent_reply", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTransactionsList(w http.ResponseWriter, r *http.Request) {
	filters := filtersFromQuery(r)
	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	executor := finance.NewExecutor(s.store)
	result, err := executor.Execute(r.Context(), filters, limit, offset, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleTransactionsExport(w http.ResponseWriter, r *http.Request) {
	filters := filtersFromQuery(r)

	// Export is unpaginated; cap at a sane upper bound.
	_, transactions, err := s.store.Query(r.Context(), filters, 10000, 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
	if err := export.WriteCSV(w, transactions); err != nil {
		log.Error().Err(err).Msg("transactions_export_failed")
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	filters := filtersFromQuery(r)

	_, transactions, err := s.store.Query(r.Context(), filters, 10000, 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}

	monthly := map[string]float64{}
	for month, total := range finance.MonthlyTotals(transactions) {
		monthly[month], _ = total.Float64()
	}
	sum, _ := finance.Sum(transactions).Float64()
	average, _ := finance.Average(transactions).Float64()
	median, _ := finance.Median(transactions).Float64()

	resp := map[string]interface{}{
		"count":          len(transactions),
		"sum":            sum,
		"average":        average,
		"median":         median,
		"by_category":    finance.ByCategory(transactions),
		"monthly_totals": monthly,
	}
	if minTx := finance.MinTransaction(transactions); minTx != nil {
		resp["min_amount"] = minTx.AmountFloat()
	}
	if maxTx := finance.MaxTransaction(transactions); maxTx != nil {
		resp["max_amount"] = maxTx.AmountFloat()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRecurring(w http.ResponseWriter, r *http.Request) {
	transactions, err := s.store.Outgoing(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	records := finance.DetectRecurring(transactions, finance.DefaultDetectorOptions())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":              len(records),
		"recurring_payments": records,
	})
}

// filtersFromQuery lifts query parameters into a filter map; the sanitizer
// decides which ones actually apply.
func filtersFromQuery(r *http.Request) map[string]interface{} {
	raw := make(map[string]interface{})
	for key, values := range r.URL.Query() {
		switch key {
		case "limit", "offset", "fields":
			continue
		}
		if len(values) > 0 && values[0] != "" {
			raw[key] = values[0]
		}
	}
	return finance.SanitizeFilters(raw)
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
