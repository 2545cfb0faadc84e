package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/richardliu001/store-credit-service/internal/model"
	"github.com/richardliu001/store-credit-service/internal/service"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	msgRejected   = "There was an error adjusting the affiliate's store credit, please check the amount and try again."
	msgRetryLater = "There was an error adjusting the affiliate's store credit, please refresh the page and try again."
)

func RegisterHandlers(r *gin.Engine, svc *service.CreditService, secret string, log *zap.SugaredLogger) {
	v1 := r.Group("/v1/affiliates/:id/store-credit", AuthMiddleware(secret))
	{
		v1.POST("/adjustments", RequireCapability(), adjustHandler(svc, log))
		v1.GET("/balance", balanceHandler(svc, log))
		v1.GET("/transactions", historyHandler(svc, log))
		v1.GET("/payout-method", payoutMethodHandler(svc, log))
		v1.PUT("/opt-in", optInHandler(svc, log))
	}
}

func affiliateID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid affiliate id"})
		return 0, false
	}
	return id, true
}

// authorizeSubject lets admins read any affiliate and affiliates read their own.
func authorizeSubject(c *gin.Context, svc *service.CreditService, id uint64, log *zap.SugaredLogger) bool {
	actor := actorFrom(c)
	if actor.ManageAffiliates {
		return true
	}
	uid, err := svc.SubjectUserID(c, id)
	if err == nil && uid != actor.UserID {
		err = errNotSelf
	}
	if err != nil {
		writeError(c, err, log)
		return false
	}
	return true
}

func writeError(c *gin.Context, err error, log *zap.SugaredLogger) {
	switch {
	case errors.Is(err, errNotSelf), errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, service.ErrUnknownSubject):
		c.JSON(http.StatusNotFound, gin.H{"error": "affiliate not found"})
	default:
		log.Errorw("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

type adjustReq struct {
	Movement string `json:"movement" binding:"required"`
	Amount   string `json:"amount" binding:"required"`
}

func adjustHandler(svc *service.CreditService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := affiliateID(c)
		if !ok {
			return
		}
		var req adjustReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": msgRejected})
			return
		}
		// unparsable amounts are rejected by the service as non-positive
		amt, err := decimal.NewFromString(req.Amount)
		if err != nil {
			amt = decimal.Zero
		}
		actor := actorFrom(c)
		res, err := svc.Adjust(c, service.AdjustRequest{
			AffiliateID: id,
			Movement:    req.Movement,
			Amount:      amt,
			ActorID:     actor.UserID,
			Type:        model.TypeManual,
			ReferenceID: id,
		})
		if err != nil {
			log.Warnw("store credit adjustment failed", "affiliate_id", id, "by_user_id", actor.UserID, "error", err)
			if service.IsRetryable(err) {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": msgRetryLater})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": msgRejected})
			return
		}
		c.JSON(http.StatusOK, gin.H{"balance": svc.FormatBalance(res.Balance)})
	}
}

func balanceHandler(svc *service.CreditService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := affiliateID(c)
		if !ok || !authorizeSubject(c, svc, id, log) {
			return
		}
		formatted, err := strconv.ParseBool(c.DefaultQuery("formatted", "true"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid formatted flag"})
			return
		}
		view, err := svc.CurrentBalance(c, id, formatted)
		if err != nil {
			writeError(c, err, log)
			return
		}
		if !view.Available {
			c.JSON(http.StatusOK, gin.H{"available": false, "balance": nil})
			return
		}
		var bal interface{} = view.Amount
		if formatted {
			bal = view.Formatted
		}
		c.JSON(http.StatusOK, gin.H{"available": true, "integration": view.Integration, "balance": bal})
	}
}

func historyHandler(svc *service.CreditService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := affiliateID(c)
		if !ok || !authorizeSubject(c, svc, id, log) {
			return
		}
		txs, err := svc.History(c, id)
		if err != nil {
			writeError(c, err, log)
			return
		}
		c.JSON(http.StatusOK, gin.H{"transactions": txs})
	}
}

func payoutMethodHandler(svc *service.CreditService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := affiliateID(c)
		if !ok || !authorizeSubject(c, svc, id, log) {
			return
		}
		m, err := svc.PayoutMethod(c, id)
		if err != nil {
			writeError(c, err, log)
			return
		}
		c.JSON(http.StatusOK, gin.H{"payout_method": m})
	}
}

type optInReq struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

func optInHandler(svc *service.CreditService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := affiliateID(c)
		if !ok {
			return
		}
		var req optInReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := svc.SetOptIn(c, id, *req.Enabled, actorFrom(c)); err != nil {
			writeError(c, err, log)
			return
		}
		c.JSON(http.StatusOK, gin.H{"store_credit_enabled": *req.Enabled})
	}
}
