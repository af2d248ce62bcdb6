package handler

import (
	"github.com/datapadi/web/internal/application/vtu"
	"github.com/gin-gonic/gin"
)

// VTUHandler serves direct data and airtime purchases
type VTUHandler struct {
	BaseHandler
	vtuService *vtu.Service
}

// NewVTUHandler creates a new VTU handler
func NewVTUHandler(vtuService *vtu.Service) *VTUHandler {
	return &VTUHandler{vtuService: vtuService}
}

// DataPlans godoc
//
//	@Summary		Data plans
//	@Description	Data bundle catalogue, optionally for one network
//	@Tags			vtu
//	@Produce		json
//	@Param			network	query		string	false	"MTN, AIRTEL, GLO or 9MOBILE"
//	@Success		200		{object}	dto.Response{data=[]vtu.PlanDTO}
//	@Failure		400		{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/vtu/data/plans [get]
func (h *VTUHandler) DataPlans(c *gin.Context) {
	plans, err := h.vtuService.DataPlans(c.Request.Context(), c.Query("network"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, plans)
}

// BuyData godoc
//
//	@Summary		Buy data
//	@Tags			vtu
//	@Accept			json
//	@Produce		json
//	@Param			request	body		vtu.BuyDataRequest	true	"Purchase"
//	@Success		201		{object}	dto.Response{data=vtu.PurchaseResponse}
//	@Failure		400		{object}	dto.Response{error=dto.ErrorInfo}
//	@Failure		502		{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/vtu/data [post]
func (h *VTUHandler) BuyData(c *gin.Context) {
	var req vtu.BuyDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.vtuService.BuyData(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// BuyAirtime godoc
//
//	@Summary		Buy airtime
//	@Tags			vtu
//	@Accept			json
//	@Produce		json
//	@Param			request	body		vtu.BuyAirtimeRequest	true	"Purchase"
//	@Success		201		{object}	dto.Response{data=vtu.PurchaseResponse}
//	@Failure		400		{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/vtu/airtime [post]
func (h *VTUHandler) BuyAirtime(c *gin.Context) {
	var req vtu.BuyAirtimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.vtuService.BuyAirtime(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// DataStatus godoc
//
//	@Summary		Data purchase status
//	@Tags			vtu
//	@Produce		json
//	@Param			ref	path		string	true	"Transaction reference"
//	@Success		200	{object}	dto.Response{data=vtu.StatusResponse}
//	@Router			/vtu/data/{ref} [get]
func (h *VTUHandler) DataStatus(c *gin.Context) {
	resp, err := h.vtuService.DataStatus(c.Request.Context(), c.Param("ref"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// AirtimeStatus godoc
//
//	@Summary		Airtime purchase status
//	@Tags			vtu
//	@Produce		json
//	@Param			ref	path		string	true	"Transaction reference"
//	@Success		200	{object}	dto.Response{data=vtu.StatusResponse}
//	@Router			/vtu/airtime/{ref} [get]
func (h *VTUHandler) AirtimeStatus(c *gin.Context) {
	resp, err := h.vtuService.AirtimeStatus(c.Request.Context(), c.Param("ref"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
