package handler

import (
	"context"

	"github.com/datapadi/web/internal/application/purchase"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// FlowHandler drives the step-by-step purchase flows
type FlowHandler struct {
	BaseHandler
	flowService *purchase.FlowService
}

// NewFlowHandler creates a new flow handler
func NewFlowHandler(flowService *purchase.FlowService) *FlowHandler {
	return &FlowHandler{flowService: flowService}
}

// flowTarget resolves the caller and the :id flow, answering the request on failure
func (h *FlowHandler) flowTarget(c *gin.Context) (string, uuid.UUID, bool) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "User ID not found")
		return "", uuid.Nil, false
	}
	id, err := parseID(c)
	if err != nil {
		h.BadRequest(c, "Invalid flow ID format")
		return "", uuid.Nil, false
	}
	return ownerID, id, true
}

// Create godoc
//
//	@Summary		Start a purchase flow
//	@Tags			flows
//	@Accept			json
//	@Produce		json
//	@Param			request	body		purchase.CreateFlowRequest	true	"Flow kind"
//	@Success		201		{object}	dto.Response{data=purchase.FlowResponse}
//	@Failure		400		{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/flows [post]
func (h *FlowHandler) Create(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "User ID not found")
		return
	}

	var req purchase.CreateFlowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.flowService.Create(c.Request.Context(), ownerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Get godoc
//
//	@Summary		Get a purchase flow
//	@Tags			flows
//	@Produce		json
//	@Param			id	path		string	true	"Flow ID"	format(uuid)
//	@Success		200	{object}	dto.Response{data=purchase.FlowResponse}
//	@Failure		404	{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/flows/{id} [get]
func (h *FlowHandler) Get(c *gin.Context) {
	ownerID, id, ok := h.flowTarget(c)
	if !ok {
		return
	}
	resp, err := h.flowService.Get(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Delete godoc
//
//	@Summary		Abandon a purchase flow
//	@Tags			flows
//	@Param			id	path	string	true	"Flow ID"	format(uuid)
//	@Success		204
//	@Router			/flows/{id} [delete]
func (h *FlowHandler) Delete(c *gin.Context) {
	ownerID, id, ok := h.flowTarget(c)
	if !ok {
		return
	}
	if err := h.flowService.Delete(c.Request.Context(), ownerID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Providers godoc
//
//	@Summary		Flow providers
//	@Description	Networks, discos or cable providers selectable for a flow kind
//	@Tags			flows
//	@Produce		json
//	@Param			kind	path		string	true	"DATA, AIRTIME, ELECTRICITY or CABLE"
//	@Success		200		{object}	dto.Response{data=[]purchase.ProviderResponse}
//	@Failure		400		{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/flows/providers/{kind} [get]
func (h *FlowHandler) Providers(c *gin.Context) {
	resp, err := h.flowService.Providers(c.Request.Context(), c.Param("kind"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SelectProvider godoc
//
//	@Summary		Choose the provider
//	@Tags			flows
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string							true	"Flow ID"	format(uuid)
//	@Param			request	body		purchase.SelectProviderRequest	true	"Provider"
//	@Success		200		{object}	dto.Response{data=purchase.FlowResponse}
//	@Failure		422		{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/flows/{id}/provider [post]
func (h *FlowHandler) SelectProvider(c *gin.Context) {
	ownerID, id, ok := h.flowTarget(c)
	if !ok {
		return
	}
	var req purchase.SelectProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.flowService.SelectProvider(c.Request.Context(), ownerID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UpdateDetails godoc
//
//	@Summary		Fill in purchase details
//	@Tags			flows
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Flow ID"	format(uuid)
//	@Param			request	body		purchase.DetailsRequest	true	"Details"
//	@Success		200		{object}	dto.Response{data=purchase.FlowResponse}
//	@Failure		400		{object}	dto.Response{error=dto.ErrorInfo}
//	@Failure		422		{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/flows/{id}/details [patch]
func (h *FlowHandler) UpdateDetails(c *gin.Context) {
	ownerID, id, ok := h.flowTarget(c)
	if !ok {
		return
	}
	var req purchase.DetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.flowService.UpdateDetails(c.Request.Context(), ownerID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Next godoc
//
//	@Summary		Advance the flow
//	@Description	Moves to the next step; leaving the details step verifies the meter or smartcard
//	@Tags			flows
//	@Produce		json
//	@Param			id	path		string	true	"Flow ID"	format(uuid)
//	@Success		200	{object}	dto.Response{data=purchase.FlowResponse}
//	@Failure		422	{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/flows/{id}/next [post]
func (h *FlowHandler) Next(c *gin.Context) {
	h.step(c, h.flowService.Next)
}

// Back godoc
//
//	@Summary		Go back one step
//	@Tags			flows
//	@Produce		json
//	@Param			id	path		string	true	"Flow ID"	format(uuid)
//	@Success		200	{object}	dto.Response{data=purchase.FlowResponse}
//	@Failure		422	{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/flows/{id}/back [post]
func (h *FlowHandler) Back(c *gin.Context) {
	h.step(c, h.flowService.Back)
}

// Pay godoc
//
//	@Summary		Pay
//	@Description	Submits the purchase from the confirm step
//	@Tags			flows
//	@Produce		json
//	@Param			id	path		string	true	"Flow ID"	format(uuid)
//	@Success		200	{object}	dto.Response{data=purchase.FlowResponse}
//	@Failure		422	{object}	dto.Response{error=dto.ErrorInfo}
//	@Failure		502	{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/flows/{id}/pay [post]
func (h *FlowHandler) Pay(c *gin.Context) {
	h.step(c, h.flowService.Pay)
}

type flowStep func(ctx context.Context, ownerID string, id uuid.UUID) (*purchase.FlowResponse, error)

func (h *FlowHandler) step(c *gin.Context, run flowStep) {
	ownerID, id, ok := h.flowTarget(c)
	if !ok {
		return
	}
	resp, err := run(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
