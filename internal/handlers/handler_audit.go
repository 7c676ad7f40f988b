package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	portssvc "github.com/SscSPs/ledger_engine/internal/core/ports/services"
	"github.com/SscSPs/ledger_engine/internal/middleware"
	"github.com/gin-gonic/gin"
)

type auditHandler struct {
	auditService   portssvc.AuditSvcFacade
	accountService portssvc.AccountTreeSvcFacade
}

func registerAuditRoutes(rg *gin.RouterGroup, audit portssvc.AuditSvcFacade, accounts portssvc.AccountTreeSvcFacade) {
	h := &auditHandler{auditService: audit, accountService: accounts}

	rg.GET("/audit", h.audit)
	rg.GET("/audit/equation", h.validateEquation)
}

// audit godoc
// @Summary Audit ledger integrity
// @Description Checks the accounting equation, the zero sum of every stored transaction and every running total. Reports only.
// @Tags audit
// @Produce  json
// @Success 200 {object} domain.AuditReport "Healthy ledger"
// @Failure 409 {object} domain.AuditReport "Problems found"
// @Failure 500 {object} map[string]string "Failed to audit"
// @Security BearerAuth
// @Router /audit [get]
func (h *auditHandler) audit(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	report, err := h.auditService.Audit(c.Request.Context())
	if err != nil {
		respondError(c, logger, err, "Failed to audit ledger")
		return
	}
	status := http.StatusOK
	if !report.Healthy() {
		status = http.StatusConflict
	}
	c.JSON(status, report)
}

// validateEquation godoc
// @Summary Validate the accounting equation
// @Description Sums the raw balance of every root account; the result must be zero in every currency
// @Tags audit
// @Produce  json
// @Success 200 {object} map[string]bool
// @Failure 409 {object} map[string]string "Equation violated"
// @Failure 500 {object} map[string]string "Failed to validate"
// @Security BearerAuth
// @Router /audit/equation [get]
func (h *auditHandler) validateEquation(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	err := h.accountService.ValidateAccountingEquation(c.Request.Context())
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"balanced": true})
	case apperrors.IsIntegrity(err):
		logger.Error("Accounting equation violated", slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"balanced": false, "error": err.Error()})
	default:
		respondError(c, logger, err, "Failed to validate accounting equation")
	}
}
