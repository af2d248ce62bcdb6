package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/datapadi/web/internal/application/printing"
	"github.com/datapadi/web/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// Response headers describing a rendered voucher document
const (
	HeaderPrintJobID   = "X-Print-Job-ID"
	HeaderPageCount    = "X-Page-Count"
	HeaderVoucherCount = "X-Voucher-Count"
)

// VoucherHandler prints and exports voucher sheets and proxies the PIN inventory
type VoucherHandler struct {
	BaseHandler
	voucherService *printing.VoucherService
}

// NewVoucherHandler creates a new voucher handler
func NewVoucherHandler(voucherService *printing.VoucherService) *VoucherHandler {
	return &VoucherHandler{voucherService: voucherService}
}

// Preview godoc
//
//	@Summary		Printable voucher sheet
//	@Description	Render the selected batches as a print-ready HTML document
//	@Tags			vouchers
//	@Accept			json
//	@Produce		html
//	@Param			request	body		printing.SelectionRequest	true	"Selection"
//	@Success		200		{string}	string	"HTML document"
//	@Failure		400		{object}	dto.Response{error=dto.ErrorInfo}
//	@Failure		503		{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/vouchers/preview [post]
func (h *VoucherHandler) Preview(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "User ID not found")
		return
	}

	var req printing.SelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	req.ScriptNonce = middleware.CSPNonce(c)

	resp, err := h.voucherService.Preview(c.Request.Context(), ownerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if resp.Job != nil {
		c.Header(HeaderPrintJobID, resp.Job.ID)
	}
	c.Header(HeaderPageCount, strconv.Itoa(resp.PageCount))
	c.Header(HeaderVoucherCount, strconv.Itoa(resp.Summary.Vouchers))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/html; charset=utf-8", resp.HTML)
}

// ExportPDF godoc
//
//	@Summary		Export vouchers as PDF
//	@Description	Rasterize the selection into a paginated PDF and download it
//	@Tags			vouchers
//	@Accept			json
//	@Produce		application/pdf
//	@Param			request	body		printing.SelectionRequest	true	"Selection"
//	@Success		200		{file}		binary	"PDF file"
//	@Failure		400		{object}	dto.Response{error=dto.ErrorInfo}
//	@Failure		409		{object}	dto.Response{error=dto.ErrorInfo}
//	@Failure		500		{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/vouchers/export [post]
func (h *VoucherHandler) ExportPDF(c *gin.Context) {
	h.export(c, h.voucherService.ExportPDF)
}

// ExportWorkbook godoc
//
//	@Summary		Export vouchers as XLSX
//	@Description	Write the selected vouchers, in print order, to a spreadsheet
//	@Tags			vouchers
//	@Accept			json
//	@Produce		application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
//	@Param			request	body		printing.SelectionRequest	true	"Selection"
//	@Success		200		{file}		binary	"XLSX file"
//	@Failure		400		{object}	dto.Response{error=dto.ErrorInfo}
//	@Failure		409		{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/vouchers/workbook [post]
func (h *VoucherHandler) ExportWorkbook(c *gin.Context) {
	h.export(c, h.voucherService.ExportWorkbook)
}

type exportFunc func(ctx context.Context, ownerID string, req printing.SelectionRequest) (*printing.ExportResult, error)

func (h *VoucherHandler) export(c *gin.Context, run exportFunc) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "User ID not found")
		return
	}

	var req printing.SelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := run(c.Request.Context(), ownerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if result.Job != nil {
		c.Header(HeaderPrintJobID, result.Job.ID)
		c.Header(HeaderPageCount, strconv.Itoa(result.Job.PageCount))
		c.Header(HeaderVoucherCount, strconv.Itoa(result.Job.VoucherCount))
	}
	c.Header("Content-Disposition", attachment(result.FileName))
	c.Data(http.StatusOK, result.ContentType, result.Data)
}

// ExportStatus godoc
//
//	@Summary		Export status
//	@Description	Whether the caller has an export in flight
//	@Tags			vouchers
//	@Produce		json
//	@Success		200	{object}	dto.Response{data=printing.ExportStatusResponse}
//	@Router			/vouchers/export/status [get]
func (h *VoucherHandler) ExportStatus(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "User ID not found")
		return
	}

	resp, err := h.voucherService.ExportStatus(c.Request.Context(), ownerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Inventory godoc
//
//	@Summary		PIN inventory
//	@Description	The most recent print batches
//	@Tags			vouchers
//	@Produce		json
//	@Success		200	{object}	dto.Response{data=printing.InventoryResponse}
//	@Failure		503	{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/vouchers/inventory [get]
func (h *VoucherHandler) Inventory(c *gin.Context) {
	resp, err := h.voucherService.Inventory(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// OrderDetail godoc
//
//	@Summary		Print order
//	@Description	One print order with its PINs, for ad-hoc printing
//	@Tags			vouchers
//	@Produce		json
//	@Param			ref	path		string	true	"Order reference"
//	@Success		200	{object}	dto.Response{data=printing.BatchResponse}
//	@Failure		404	{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/vouchers/orders/{ref} [get]
func (h *VoucherHandler) OrderDetail(c *gin.Context) {
	resp, err := h.voucherService.OrderDetail(c.Request.Context(), c.Param("ref"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Generate godoc
//
//	@Summary		Generate PINs
//	@Description	Ask the backend to issue a batch of recharge PINs
//	@Tags			vouchers
//	@Accept			json
//	@Produce		json
//	@Param			request	body		printing.GeneratePinsRequest	true	"Batch"
//	@Success		201		{object}	dto.Response{data=printing.GeneratePinsResponse}
//	@Failure		400		{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/vouchers/generate [post]
func (h *VoucherHandler) Generate(c *gin.Context) {
	var req printing.GeneratePinsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.voucherService.Generate(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// attachment builds a Content-Disposition value for a generated file name
func attachment(name string) string {
	return fmt.Sprintf("attachment; filename=%q", name)
}
