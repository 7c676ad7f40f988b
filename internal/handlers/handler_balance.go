package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portssvc "github.com/SscSPs/ledger_engine/internal/core/ports/services"
	"github.com/SscSPs/ledger_engine/internal/dto"
	"github.com/SscSPs/ledger_engine/internal/middleware"
	"github.com/SscSPs/ledger_engine/internal/utils/currencyfmt"
	"github.com/gin-gonic/gin"
)

// balanceHandler serves balance queries, statements and running totals.
type balanceHandler struct {
	balanceService      portssvc.BalanceSvcFacade
	runningTotalService portssvc.RunningTotalSvcFacade
	formatter           *currencyfmt.Formatter
}

func newBalanceHandler(bs portssvc.BalanceSvcFacade, rts portssvc.RunningTotalSvcFacade, f *currencyfmt.Formatter) *balanceHandler {
	return &balanceHandler{
		balanceService:      bs,
		runningTotalService: rts,
		formatter:           f,
	}
}

// registerBalanceRoutes registers balance routes under /accounts and /legs.
func registerBalanceRoutes(rg *gin.RouterGroup, bs portssvc.BalanceSvcFacade, rts portssvc.RunningTotalSvcFacade, f *currencyfmt.Formatter) {
	h := newBalanceHandler(bs, rts, f)

	accounts := rg.Group("/accounts/:id")
	{
		accounts.GET("/balance", h.getBalance)
		accounts.GET("/simple-balance", h.getSimpleBalance)
		accounts.GET("/statement", h.getStatement)
		accounts.GET("/running-totals", h.getRunningTotals)
		accounts.POST("/running-totals/reconcile", h.reconcileAccount)
	}

	legs := rg.Group("/legs/:id")
	{
		legs.GET("/balance-after", h.getBalanceAfter)
		legs.GET("/balance-before", h.getBalanceBefore)
	}

	rg.POST("/running-totals/reconcile", h.reconcileAll)
}

func (h *balanceHandler) respond(c *gin.Context, resp dto.BalanceResponse) {
	resp.Formatted = h.formatter.FormatBalance(c.Request.Context(), resp.Balance)
	c.JSON(http.StatusOK, resp)
}

type balanceFunc func(c *gin.Context, accountID string, opts domain.BalanceOptions) (domain.Balance, error)

func (h *balanceHandler) accountBalance(c *gin.Context, fn balanceFunc) {
	accountID := c.Param("id")
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("account_id", accountID))

	var q dto.BalanceQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, logger, "query parameters", err)
		return
	}

	b, err := fn(c, accountID, q.Options())
	if err != nil {
		respondError(c, logger, err, "Failed to compute balance")
		return
	}
	h.respond(c, dto.BalanceResponse{AccountID: accountID, AsOf: q.AsOf, Raw: q.Raw, Balance: b})
}

// getBalance godoc
// @Summary Get an account balance
// @Description Sum of the account's and all its descendants' legs, sign adjusted so that increases are positive
// @Tags balances
// @Produce  json
// @Param   id path string true "Account ID"
// @Param   as_of query string false "Only legs dated on or before (RFC3339)"
// @Param   from query string false "Only legs dated on or after (RFC3339)"
// @Param   currency query string false "Restrict to one currency"
// @Param   raw query bool false "Skip the account type sign"
// @Success 200 {object} dto.BalanceResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 500 {object} map[string]string "Failed to compute balance"
// @Security BearerAuth
// @Router /accounts/{id}/balance [get]
func (h *balanceHandler) getBalance(c *gin.Context) {
	h.accountBalance(c, func(c *gin.Context, id string, opts domain.BalanceOptions) (domain.Balance, error) {
		return h.balanceService.Balance(c.Request.Context(), id, opts)
	})
}

// getSimpleBalance godoc
// @Summary Get an account's own balance
// @Description Sum of the account's own legs only, every account currency present
// @Tags balances
// @Produce  json
// @Param   id path string true "Account ID"
// @Param   as_of query string false "Only legs dated on or before (RFC3339)"
// @Param   from query string false "Only legs dated on or after (RFC3339)"
// @Param   currency query string false "Restrict to one currency"
// @Param   raw query bool false "Skip the account type sign"
// @Success 200 {object} dto.BalanceResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 500 {object} map[string]string "Failed to compute balance"
// @Security BearerAuth
// @Router /accounts/{id}/simple-balance [get]
func (h *balanceHandler) getSimpleBalance(c *gin.Context) {
	h.accountBalance(c, func(c *gin.Context, id string, opts domain.BalanceOptions) (domain.Balance, error) {
		return h.balanceService.SimpleBalance(c.Request.Context(), id, opts)
	})
}

// getStatement godoc
// @Summary Get an account statement
// @Description Lists the account's legs in ledger order with the balance after each one
// @Tags balances
// @Produce  json
// @Param   id path string true "Account ID"
// @Param   from query string false "Only legs dated on or after (RFC3339)"
// @Param   to query string false "Only legs dated on or before (RFC3339)"
// @Param   limit query int false "Page size" default(50)
// @Param   nextToken query string false "Token from the previous page"
// @Success 200 {object} dto.StatementResponse
// @Failure 400 {object} map[string]string "Invalid query parameters or token"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 500 {object} map[string]string "Failed to build statement"
// @Security BearerAuth
// @Router /accounts/{id}/statement [get]
func (h *balanceHandler) getStatement(c *gin.Context) {
	accountID := c.Param("id")
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("account_id", accountID))

	var req dto.StatementRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, logger, "query parameters", err)
		return
	}

	statement, err := h.balanceService.Statement(c.Request.Context(), accountID, req)
	if err != nil {
		respondError(c, logger, err, "Failed to build statement")
		return
	}
	c.JSON(http.StatusOK, statement)
}

func (h *balanceHandler) legBalance(c *gin.Context, fn func(c *gin.Context, legID string) (domain.Balance, error)) {
	legID := c.Param("id")
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("leg_id", legID))

	b, err := fn(c, legID)
	if err != nil {
		respondError(c, logger, err, "Failed to compute balance")
		return
	}
	h.respond(c, dto.BalanceResponse{LegID: legID, Balance: b})
}

// getBalanceAfter godoc
// @Summary Balance after a leg
// @Description Balance of the leg's account over every leg up to and including this one
// @Tags balances
// @Produce  json
// @Param   id path string true "Leg ID"
// @Success 200 {object} dto.BalanceResponse
// @Failure 404 {object} map[string]string "Leg not found"
// @Failure 500 {object} map[string]string "Failed to compute balance"
// @Security BearerAuth
// @Router /legs/{id}/balance-after [get]
func (h *balanceHandler) getBalanceAfter(c *gin.Context) {
	h.legBalance(c, func(c *gin.Context, legID string) (domain.Balance, error) {
		return h.balanceService.AccountBalanceAfter(c.Request.Context(), legID)
	})
}

// getBalanceBefore godoc
// @Summary Balance before a leg
// @Description Balance of the leg's account over every leg strictly before this one
// @Tags balances
// @Produce  json
// @Param   id path string true "Leg ID"
// @Success 200 {object} dto.BalanceResponse
// @Failure 404 {object} map[string]string "Leg not found"
// @Failure 500 {object} map[string]string "Failed to compute balance"
// @Security BearerAuth
// @Router /legs/{id}/balance-before [get]
func (h *balanceHandler) getBalanceBefore(c *gin.Context) {
	h.legBalance(c, func(c *gin.Context, legID string) (domain.Balance, error) {
		return h.balanceService.AccountBalanceBefore(c.Request.Context(), legID)
	})
}

// getRunningTotals godoc
// @Summary Get cached running totals
// @Description Returns the maintained per-currency totals of the account's own legs
// @Tags running-totals
// @Produce  json
// @Param   id path string true "Account ID"
// @Param   raw query bool false "Skip the account type sign"
// @Success 200 {object} dto.BalanceResponse
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 500 {object} map[string]string "Failed to read running totals"
// @Security BearerAuth
// @Router /accounts/{id}/running-totals [get]
func (h *balanceHandler) getRunningTotals(c *gin.Context) {
	accountID := c.Param("id")
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("account_id", accountID))
	raw := c.Query("raw") == "true"

	b, err := h.runningTotalService.RunningTotals(c.Request.Context(), accountID, raw)
	if err != nil {
		respondError(c, logger, err, "Failed to read running totals")
		return
	}
	h.respond(c, dto.BalanceResponse{AccountID: accountID, Raw: raw, Balance: b})
}

// reconcileAccount godoc
// @Summary Reconcile one account's running totals
// @Description Recomputes the totals from legs; mismatches are corrected unless checkOnly is set
// @Tags running-totals
// @Produce  json
// @Param   id path string true "Account ID"
// @Param   checkOnly query bool false "Report without correcting"
// @Success 200 {object} dto.ReconcileResponse
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 409 {object} map[string]string "Lock not obtained, retry"
// @Failure 500 {object} map[string]string "Failed to reconcile"
// @Security BearerAuth
// @Router /accounts/{id}/running-totals/reconcile [post]
func (h *balanceHandler) reconcileAccount(c *gin.Context) {
	accountID := c.Param("id")
	checkOnly := c.Query("checkOnly") == "true"
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("account_id", accountID))

	mismatches, err := h.runningTotalService.UpdateRunningTotals(c.Request.Context(), accountID, checkOnly)
	if err != nil {
		respondError(c, logger, err, "Failed to reconcile running totals")
		return
	}
	c.JSON(http.StatusOK, dto.ReconcileResponse{AccountID: accountID, CheckOnly: checkOnly, Mismatches: orEmpty(mismatches)})
}

// reconcileAll godoc
// @Summary Reconcile every running total
// @Description Runs the reconciliation for all accounts, one unit of work per account
// @Tags running-totals
// @Produce  json
// @Param   checkOnly query bool false "Report without correcting"
// @Success 200 {object} dto.ReconcileResponse
// @Failure 500 {object} map[string]string "Failed to reconcile"
// @Security BearerAuth
// @Router /running-totals/reconcile [post]
func (h *balanceHandler) reconcileAll(c *gin.Context) {
	checkOnly := c.Query("checkOnly") == "true"
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	mismatches, err := h.runningTotalService.UpdateAllRunningTotals(c.Request.Context(), checkOnly)
	if err != nil {
		respondError(c, logger, err, "Failed to reconcile running totals")
		return
	}
	logger.Info("Running totals reconciled", slog.Int("mismatches", len(mismatches)), slog.Bool("check_only", checkOnly))
	c.JSON(http.StatusOK, dto.ReconcileResponse{CheckOnly: checkOnly, Mismatches: orEmpty(mismatches)})
}

func orEmpty(m []domain.Mismatch) []domain.Mismatch {
	if m == nil {
		return []domain.Mismatch{}
	}
	return m
}
