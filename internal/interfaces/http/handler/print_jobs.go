package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/datapadi/web/internal/application/printing"
	"github.com/gin-gonic/gin"
)

// PrintJobHandler serves the caller's export job history and stored files
type PrintJobHandler struct {
	BaseHandler
	voucherService *printing.VoucherService
}

// NewPrintJobHandler creates a new print job handler
func NewPrintJobHandler(voucherService *printing.VoucherService) *PrintJobHandler {
	return &PrintJobHandler{voucherService: voucherService}
}

// ListJobs godoc
//
//	@Summary		List print jobs
//	@Tags			print-jobs
//	@Produce		json
//	@Param			page		query		int		false	"Page number"	default(1)
//	@Param			page_size	query		int		false	"Page size"		default(20)
//	@Param			channel		query		string	false	"PRINT, PDF or WORKBOOK"
//	@Param			status		query		string	false	"Job status"
//	@Success		200			{object}	dto.Response{data=[]printing.JobResponse,meta=dto.Meta}
//	@Failure		400			{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/print-jobs [get]
func (h *PrintJobHandler) ListJobs(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "User ID not found")
		return
	}

	var req printing.ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.voucherService.ListJobs(c.Request.Context(), ownerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, resp.Items, resp.Total, resp.Page, resp.Size)
}

// GetJob godoc
//
//	@Summary		Get print job
//	@Tags			print-jobs
//	@Produce		json
//	@Param			id	path		string	true	"Job ID"	format(uuid)
//	@Success		200	{object}	dto.Response{data=printing.JobResponse}
//	@Failure		400	{object}	dto.Response{error=dto.ErrorInfo}
//	@Failure		404	{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/print-jobs/{id} [get]
func (h *PrintJobHandler) GetJob(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "User ID not found")
		return
	}
	jobID, err := parseID(c)
	if err != nil {
		h.BadRequest(c, "Invalid job ID format")
		return
	}

	resp, err := h.voucherService.GetJob(c.Request.Context(), ownerID, jobID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Download godoc
//
//	@Summary		Download export
//	@Description	Redirects to a signed link when storage provides one, otherwise streams the file
//	@Tags			print-jobs
//	@Produce		application/pdf
//	@Param			id	path		string	true	"Job ID"	format(uuid)
//	@Success		200	{file}		binary	"Stored file"
//	@Success		307	"Redirect to signed link"
//	@Failure		404	{object}	dto.Response{error=dto.ErrorInfo}
//	@Failure		422	{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/print-jobs/{id}/download [get]
func (h *PrintJobHandler) Download(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "User ID not found")
		return
	}
	jobID, err := parseID(c)
	if err != nil {
		h.BadRequest(c, "Invalid job ID format")
		return
	}

	dl, err := h.voucherService.OpenDownload(c.Request.Context(), ownerID, jobID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if dl.RedirectURL != "" {
		if !strings.HasPrefix(dl.RedirectURL, "https://") && !strings.HasPrefix(dl.RedirectURL, "http://") && !strings.HasPrefix(dl.RedirectURL, "/") {
			h.InternalError(c, "Invalid download URL configuration")
			return
		}
		c.Redirect(http.StatusTemporaryRedirect, dl.RedirectURL)
		return
	}

	defer dl.Body.Close()
	c.DataFromReader(http.StatusOK, dl.Size, dl.ContentType, dl.Body, map[string]string{
		"Content-Disposition": attachment(dl.FileName),
		HeaderPrintJobID:      jobID.String(),
	})
}

// PagePreview godoc
//
//	@Summary		Preview a PDF page
//	@Description	Render one page of a PDF export as PNG
//	@Tags			print-jobs
//	@Produce		image/png
//	@Param			id		path		string	true	"Job ID"	format(uuid)
//	@Param			page	path		int		true	"1-based page number"
//	@Success		200		{file}		binary	"PNG image"
//	@Failure		400		{object}	dto.Response{error=dto.ErrorInfo}
//	@Failure		404		{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/print-jobs/{id}/pages/{page} [get]
func (h *PrintJobHandler) PagePreview(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "User ID not found")
		return
	}
	jobID, err := parseID(c)
	if err != nil {
		h.BadRequest(c, "Invalid job ID format")
		return
	}
	page, err := strconv.Atoi(c.Param("page"))
	if err != nil || page < 1 {
		h.BadRequest(c, "Invalid page number")
		return
	}

	preview, err := h.voucherService.PagePreview(c.Request.Context(), ownerID, jobID, page)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header(HeaderPageCount, strconv.Itoa(preview.Pages))
	c.Header("Cache-Control", "private, max-age=300")
	c.Data(http.StatusOK, "image/png", preview.PNG)
}
