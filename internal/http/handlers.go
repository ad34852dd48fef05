package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"expenses/internal/core"
	applog "expenses/internal/log"
	"expenses/internal/model"
)

const listCacheKey = "transactions"

type transactionPayload struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
}

type transactionView struct {
	Index       int    `json:"index"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	AmountCents int64  `json:"amount_cents"`
	Category    string `json:"category"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (p transactionPayload) toTransaction() (*core.Transaction, error) {
	date, err := parseDate(p.Date)
	if err != nil {
		return nil, core.ErrInvalidDate
	}
	cents, err := core.ParseDecimalToCents(p.Amount)
	if err != nil {
		return nil, err
	}
	t := &core.Transaction{
		Date:        date,
		Description: sanitizeInput(p.Description),
		Amount:      core.Money{Cents: cents},
		Category:    sanitizeInput(p.Category),
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (a *API) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.handleListTransactions(w, r)
	case http.MethodPost:
		a.handleAddTransaction(w, r)
	case http.MethodDelete:
		a.handleRemoveTransaction(w, r)
	default:
		w.Header().Set("Allow", "GET, POST, DELETE")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (a *API) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	// The whole read path runs under the model mutex so a concurrent
	// mutation cannot slip between snapshot and cache fill.
	a.mu.Lock()
	defer a.mu.Unlock()

	if cached, ok := a.listCache.Get(listCacheKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(cached)
		return
	}

	transactions := a.model.Transactions()

	views := make([]transactionView, len(transactions))
	for i, t := range transactions {
		views[i] = transactionView{
			Index:       i,
			Date:        t.Date.Format("2006-01-02"),
			Description: t.Description,
			Amount:      core.FormatCents(t.Amount.Cents),
			AmountCents: t.Amount.Cents,
			Category:    t.Category,
		}
	}

	body, err := json.Marshal(map[string]any{
		"transactions": views,
		"count":        len(views),
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to marshal transaction list", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	a.listCache.Set(listCacheKey, body)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (a *API) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var payload transactionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := payload.toTransaction()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	a.mu.Lock()
	err = a.model.AddTransaction(t)
	count := len(a.model.Transactions())
	a.mu.Unlock()
	if err != nil {
		// Unreachable for a decoded payload, but the model's contract is
		// the source of truth here.
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	slog.InfoContext(r.Context(), "Transaction added",
		applog.FieldDescription, t.Description,
		applog.FieldAmountCents, t.Amount.Cents,
		applog.FieldCategory, t.Category,
		applog.FieldTxCount, count)

	writeJSON(w, http.StatusCreated, map[string]any{"count": count})
}

func (a *API) handleRemoveTransaction(w http.ResponseWriter, r *http.Request) {
	var payload transactionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := payload.toTransaction()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	// Removal of an absent transaction is a defined no-op; the model
	// notifies and clears matched indices either way, so the response
	// is 204 regardless.
	a.mu.Lock()
	a.model.RemoveTransaction(t)
	a.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

type filterPayload struct {
	Indices []int `json:"indices"`
}

func (a *API) handleFilter(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.mu.Lock()
		indices := a.model.MatchedFilterIndices()
		a.mu.Unlock()
		if indices == nil {
			indices = []int{}
		}
		writeJSON(w, http.StatusOK, filterPayload{Indices: indices})
	case http.MethodPut:
		var payload filterPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		a.mu.Lock()
		err := a.model.SetMatchedFilterIndices(payload.Indices)
		a.mu.Unlock()
		if err != nil {
			if errors.Is(err, model.ErrInvalidArgument) {
				writeError(w, http.StatusUnprocessableEntity, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	default:
		w.Header().Set("Allow", "GET, PUT")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
