package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/vaultline/ledger/internal/auth"
	"github.com/vaultline/ledger/internal/metrics"
	"github.com/vaultline/ledger/internal/models"
	"github.com/vaultline/ledger/internal/service"
	"github.com/vaultline/ledger/internal/store"
)

// Handler is for handling api requests
type Handler struct {
	authenticator *auth.Authenticator
	ledger        *service.LedgerService
}

func NewHandler(authenticator *auth.Authenticator, ledger *service.LedgerService) *Handler {
	return &Handler{
		authenticator: authenticator,
		ledger:        ledger,
	}
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// for error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondLedgerError maps a store failure to its HTTP status.
func respondLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrAccountNotFound):
		respondError(w, http.StatusNotFound, store.ErrAccountNotFound.Error())
	case errors.Is(err, store.ErrInvalidAmount):
		respondError(w, http.StatusBadRequest, store.ErrInvalidAmount.Error())
	case errors.Is(err, store.ErrInsufficientFunds):
		respondError(w, http.StatusBadRequest, store.ErrInsufficientFunds.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// accountID pulls the account id out of the route. An unparseable id can
// never name an existing account, so it reports not-found.
func accountID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id < 1 {
		return 0, store.ErrAccountNotFound
	}
	return id, nil
}

// Login exchanges the operator credential for a bearer token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.authenticator.Login(req.Username, req.Password)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	respondJSON(w, http.StatusOK, models.LoginResponse{Token: token})
}

// account creation
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.ledger.CreateAccount(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, models.AccountResponse{AccountID: account.ID})
}

// handles deposits
func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	id, err := accountID(r)
	if err != nil {
		respondLedgerError(w, err)
		return
	}

	var req models.AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, store.ErrInvalidAmount.Error())
		return
	}

	txID, err := h.ledger.Deposit(r.Context(), id, req.Amount)
	if err != nil {
		respondLedgerError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, models.TransactionResponse{TransactionID: txID})
}

// handles withdrawals
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	id, err := accountID(r)
	if err != nil {
		respondLedgerError(w, err)
		return
	}

	var req models.AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, store.ErrInvalidAmount.Error())
		return
	}

	txID, err := h.ledger.Withdraw(r.Context(), id, req.Amount)
	if err != nil {
		respondLedgerError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, models.TransactionResponse{TransactionID: txID})
}

// handles balance retrieval
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id, err := accountID(r)
	if err != nil {
		respondLedgerError(w, err)
		return
	}

	balance, err := h.ledger.GetBalance(r.Context(), id)
	if err != nil {
		respondLedgerError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, models.BalanceResponse{Balance: balance})
}

// handles health check
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// sets up the API routes
func SetupRoutes(r *mux.Router, h *Handler, tokens *auth.TokenService, log *logrus.Logger, m *metrics.Metrics) {
	r.Use(RequestLogger(log, m))

	// Health check (check if API is working)
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")

	if m != nil {
		r.Handle("/metrics", m.Handler()).Methods("GET")
	}

	// Credential issuance, the only unauthenticated ledger route
	r.HandleFunc("/login", h.Login).Methods("POST")

	// Every account route sits behind the authorization gate
	accounts := r.PathPrefix("/accounts").Subrouter()
	accounts.Use(Authorize(tokens, log))
	accounts.HandleFunc("", h.CreateAccount).Methods("POST")
	accounts.HandleFunc("/{id}/deposit", h.Deposit).Methods("POST")
	accounts.HandleFunc("/{id}/withdraw", h.Withdraw).Methods("POST")
	accounts.HandleFunc("/{id}/balance", h.GetBalance).Methods("GET")
}
