package http

import (
	"net/http"

	applog "fxdesk/internal/log"
	"fxdesk/internal/report"
)

// handleListTransactions serves GET /api/transactions: newest first, optional
// branch filter, search term, currency filter and paging.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	txs, err := s.reports.Transactions(r.Context(), sanitizeInput(query.Get("branchid")))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	NewJSONResponse().Body(report.Search(txs, ParseSearchQuery(query))).Write(w)
}

// handleCurrencies lists the distinct currency codes on record.
func (s *Server) handleCurrencies(w http.ResponseWriter, r *http.Request) {
	txs, err := s.reports.Transactions(r.Context(), sanitizeInput(r.URL.Query().Get("branchid")))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	NewJSONResponse().Body(map[string][]string{"currencies": report.Currencies(txs)}).Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	tx, err := s.transactions.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	NewJSONResponse().Body(tx).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if fields := s.validate.Struct(req); fields != nil {
		ValidationError(fields).Write(w)
		return
	}

	created, err := s.transactions.Create(r.Context(), req.toCore())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Transaction created via API",
		applog.FieldTransaction, created.ID)

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/transactions/"+itoa(created.ID)).
		Body(created).
		Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	var req transactionPatchRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if fields := s.validate.Struct(req); fields != nil {
		ValidationError(fields).Write(w)
		return
	}

	updated, err := s.transactions.Update(r.Context(), id, req.toCore())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	NewJSONResponse().Body(updated).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	removed, err := s.transactions.Delete(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	NewJSONResponse().Body(removed).Write(w)
}
