package handler

import (
	"github.com/datapadi/web/internal/application/account"
	"github.com/gin-gonic/gin"
)

// AccountHandler serves the signed-in user's wallet and profile
type AccountHandler struct {
	BaseHandler
	accountService *account.Service
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accountService *account.Service) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// Dashboard godoc
//
//	@Summary		Wallet dashboard
//	@Description	Wallet balance, spend totals and recent transactions
//	@Tags			account
//	@Produce		json
//	@Success		200	{object}	dto.Response{data=account.DashboardResponse}
//	@Failure		401	{object}	dto.Response{error=dto.ErrorInfo}
//	@Failure		503	{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/account/dashboard [get]
func (h *AccountHandler) Dashboard(c *gin.Context) {
	resp, err := h.accountService.Dashboard(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Profile godoc
//
//	@Summary		User profile
//	@Tags			account
//	@Produce		json
//	@Success		200	{object}	dto.Response{data=account.ProfileResponse}
//	@Router			/account/profile [get]
func (h *AccountHandler) Profile(c *gin.Context) {
	resp, err := h.accountService.Profile(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Transactions godoc
//
//	@Summary		Transaction history
//	@Description	Paginated wallet transactions; type PINS selects PIN purchases
//	@Tags			account
//	@Produce		json
//	@Param			page	query		int		false	"Page number"	default(1)
//	@Param			limit	query		int		false	"Page size"		default(10)
//	@Param			type	query		string	false	"Transaction type"
//	@Success		200		{object}	dto.Response{data=[]account.TransactionDTO,meta=dto.Meta}
//	@Failure		400		{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/account/transactions [get]
func (h *AccountHandler) Transactions(c *gin.Context) {
	var req account.TransactionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.accountService.Transactions(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, resp.Items, resp.Total, resp.Page, resp.Limit)
}

// Fund godoc
//
//	@Summary		Fund wallet
//	@Description	Start a wallet top-up and return the payment link
//	@Tags			account
//	@Accept			json
//	@Produce		json
//	@Param			request	body		account.FundRequest	true	"Amount"
//	@Success		200		{object}	dto.Response{data=account.FundResponse}
//	@Failure		400		{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/account/fund [post]
func (h *AccountHandler) Fund(c *gin.Context) {
	var req account.FundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.accountService.Fund(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SubmitKYC godoc
//
//	@Summary		Submit KYC
//	@Description	Submit a BVN for identity verification
//	@Tags			account
//	@Accept			json
//	@Produce		json
//	@Param			request	body		account.KYCRequest	true	"BVN"
//	@Success		200		{object}	dto.Response{data=MessageResponse}
//	@Failure		400		{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/account/kyc [post]
func (h *AccountHandler) SubmitKYC(c *gin.Context) {
	var req account.KYCRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	msg, err := h.accountService.SubmitKYC(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, MessageResponse{Message: msg})
}
