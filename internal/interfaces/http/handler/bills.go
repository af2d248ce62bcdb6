package handler

import (
	"github.com/datapadi/web/internal/application/vtu"
	"github.com/gin-gonic/gin"
)

// BillsHandler serves cable TV and electricity bill payments
type BillsHandler struct {
	BaseHandler
	vtuService *vtu.Service
}

// NewBillsHandler creates a new bills handler
func NewBillsHandler(vtuService *vtu.Service) *BillsHandler {
	return &BillsHandler{vtuService: vtuService}
}

// CablePackages godoc
//
//	@Summary		Cable packages
//	@Tags			bills
//	@Produce		json
//	@Param			provider	query		string	true	"dstv, gotv, startimes or showmax"
//	@Success		200			{object}	dto.Response{data=[]vtu.PackageDTO}
//	@Failure		400			{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/bills/cable/packages [get]
func (h *BillsHandler) CablePackages(c *gin.Context) {
	packages, err := h.vtuService.CablePackages(c.Request.Context(), c.Query("provider"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, packages)
}

// VerifySmartCard godoc
//
//	@Summary		Verify smartcard
//	@Tags			bills
//	@Produce		json
//	@Param			provider	query		string	true	"Cable provider"
//	@Param			smart_card	query		string	true	"Smartcard / IUC number"
//	@Success		200			{object}	dto.Response{data=vtu.CustomerResponse}
//	@Failure		400			{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/bills/cable/verify [get]
func (h *BillsHandler) VerifySmartCard(c *gin.Context) {
	var req vtu.VerifySmartCardRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.vtuService.VerifySmartCard(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// PayCable godoc
//
//	@Summary		Pay cable subscription
//	@Tags			bills
//	@Accept			json
//	@Produce		json
//	@Param			request	body		vtu.PayCableRequest	true	"Payment"
//	@Success		201		{object}	dto.Response{data=vtu.PurchaseResponse}
//	@Failure		400		{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/bills/cable/pay [post]
func (h *BillsHandler) PayCable(c *gin.Context) {
	var req vtu.PayCableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.vtuService.PayCable(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Discos godoc
//
//	@Summary		Electricity distribution companies
//	@Tags			bills
//	@Produce		json
//	@Success		200	{object}	dto.Response{data=[]vtu.DiscoDTO}
//	@Router			/bills/electricity/discos [get]
func (h *BillsHandler) Discos(c *gin.Context) {
	discos, err := h.vtuService.Discos(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, discos)
}

// VerifyMeter godoc
//
//	@Summary		Verify meter
//	@Tags			bills
//	@Produce		json
//	@Param			disco			query		string	true	"Disco code"
//	@Param			meter_number	query		string	true	"Meter number"
//	@Param			meter_type		query		string	true	"PREPAID or POSTPAID"
//	@Success		200				{object}	dto.Response{data=vtu.CustomerResponse}
//	@Failure		400				{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/bills/electricity/verify [get]
func (h *BillsHandler) VerifyMeter(c *gin.Context) {
	var req vtu.VerifyMeterRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.vtuService.VerifyMeter(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// PayElectricity godoc
//
//	@Summary		Pay electricity
//	@Description	Buy units; prepaid payments return the meter token
//	@Tags			bills
//	@Accept			json
//	@Produce		json
//	@Param			request	body		vtu.PayElectricityRequest	true	"Payment"
//	@Success		201		{object}	dto.Response{data=vtu.PurchaseResponse}
//	@Failure		400		{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/bills/electricity/pay [post]
func (h *BillsHandler) PayElectricity(c *gin.Context) {
	var req vtu.PayElectricityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.vtuService.PayElectricity(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}
