package printing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/datapadi/web/internal/domain/printing"
	"github.com/datapadi/web/internal/domain/shared"
	"github.com/datapadi/web/internal/domain/shared/valueobject"
	"github.com/datapadi/web/internal/domain/voucher"
	"github.com/datapadi/web/internal/infrastructure/logger"
	infra "github.com/datapadi/web/internal/infrastructure/printing"
	"github.com/datapadi/web/internal/infrastructure/telemetry"
	"github.com/datapadi/web/internal/infrastructure/vtuapi"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const defaultExportFlagTTL = 2 * time.Minute

// PinSource is the backend surface the voucher service reads PINs from
type PinSource interface {
	InventoryBatches(ctx context.Context) ([]voucher.PrintBatch, error)
	PrintOrder(ctx context.Context, reference string) (*vtuapi.PrintOrder, error)
	GeneratePins(ctx context.Context, network voucher.Network, value int64, quantity int) (string, error)
}

// DocumentRenderer lays vouchers out as sheet documents
type DocumentRenderer interface {
	RenderPrintDocument(req infra.DocumentRequest) (*infra.Document, error)
	RenderExportDocument(req infra.DocumentRequest) (*infra.Document, error)
	DefaultLayout() domain.SheetLayout
	Currency() valueobject.Currency
}

// PDFAssembler turns a rasterized sheet into a paginated PDF
type PDFAssembler interface {
	Assemble(raster *infra.Raster, layout domain.SheetLayout) (*infra.AssembledPDF, error)
}

// WorkbookWriter writes the voucher listing as a spreadsheet
type WorkbookWriter interface {
	Write(items []voucher.VoucherItem) ([]byte, error)
}

// ServiceConfig wires the voucher service
type ServiceConfig struct {
	Pins       PinSource
	Renderer   DocumentRenderer
	Rasterizer infra.Rasterizer
	Assembler  PDFAssembler
	Workbook   WorkbookWriter
	Storage    infra.DocumentStorage
	Jobs       domain.ExportJobRepository
	Flag       domain.ExportFlag
	Metrics    *telemetry.ServiceMetrics
	Logger     *zap.Logger
	// FlagTTL bounds how long a crashed export can keep the flag set
	FlagTTL    time.Duration
	PreviewDPI float64
}

// VoucherService prints and exports voucher sheets and keeps the export job history
type VoucherService struct {
	pins       PinSource
	renderer   DocumentRenderer
	rasterizer infra.Rasterizer
	assembler  PDFAssembler
	workbook   WorkbookWriter
	storage    infra.DocumentStorage
	jobRepo    domain.ExportJobRepository
	flag       domain.ExportFlag
	metrics    *telemetry.ServiceMetrics
	logger     *zap.Logger
	flagTTL    time.Duration
	previewDPI float64
}

// NewVoucherService creates a new voucher service
func NewVoucherService(cfg ServiceConfig) *VoucherService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := cfg.FlagTTL
	if ttl <= 0 {
		ttl = defaultExportFlagTTL
	}
	dpi := cfg.PreviewDPI
	if dpi <= 0 {
		dpi = infra.DefaultPreviewDPI
	}
	return &VoucherService{
		pins:       cfg.Pins,
		renderer:   cfg.Renderer,
		rasterizer: cfg.Rasterizer,
		assembler:  cfg.Assembler,
		workbook:   cfg.Workbook,
		storage:    cfg.Storage,
		jobRepo:    cfg.Jobs,
		flag:       cfg.Flag,
		metrics:    cfg.Metrics,
		logger:     logger,
		flagTTL:    ttl,
		previewDPI: dpi,
	}
}

// resolved is an immutable snapshot of the vouchers a request selected
type resolved struct {
	items       []voucher.VoucherItem
	batchIDs    []string
	layout      domain.SheetLayout
	summary     voucher.Summary
	fingerprint string
}

// resolve fetches the source batches and flattens the requested selection
func (s *VoucherService) resolve(ctx context.Context, req SelectionRequest) (*resolved, error) {
	layout, err := s.layoutFor(req)
	if err != nil {
		return nil, err
	}

	var (
		items []voucher.VoucherItem
		ids   []string
	)
	if ref := strings.TrimSpace(req.OrderRef); ref != "" {
		order, err := s.pins.PrintOrder(ctx, ref)
		if err != nil {
			return nil, sourceError("print order", err)
		}
		batch := order.ToBatch()
		items = voucher.FlattenBatch(batch)
		ids = []string{batch.ID}
	} else {
		if len(req.BatchIDs) == 0 {
			return nil, shared.NewValidationError("select at least one batch to print")
		}
		batches, err := s.pins.InventoryBatches(ctx)
		if err != nil {
			return nil, sourceError("print batches", err)
		}
		if len(batches) == 0 {
			return nil, shared.NewDataUnavailableError("No print batches are available")
		}
		sel, rejected := voucher.SelectionFromIDs(req.BatchIDs, batches)
		if len(rejected) > 0 {
			return nil, shared.NewValidationError("batches cannot be printed: " + strings.Join(rejected, ", "))
		}
		items = voucher.Flatten(sel, batches)
		ids = sel.IDs()
	}

	if len(items) == 0 {
		return nil, shared.NewValidationError("nothing to print")
	}

	return &resolved{
		items:       items,
		batchIDs:    ids,
		layout:      layout,
		summary:     voucher.Summarize(items),
		fingerprint: voucher.Fingerprint(items),
	}, nil
}

func (s *VoucherService) layoutFor(req SelectionRequest) (domain.SheetLayout, error) {
	base := s.renderer.DefaultLayout()
	columns := base.Columns
	if req.Columns != 0 {
		columns = req.Columns
	}
	height := base.CardHeightMM
	if req.Compact {
		height = domain.CardHeightCompact
	}
	layout, err := domain.NewSheetLayout(base.Paper, columns, height, base.Margins)
	if err != nil {
		var de *shared.DomainError
		if errors.As(err, &de) {
			return domain.SheetLayout{}, shared.NewValidationError(de.Message)
		}
		return domain.SheetLayout{}, err
	}
	return layout, nil
}

// sourceError keeps the kinds callers act on and folds the rest into DATA_UNAVAILABLE
func sourceError(what string, err error) error {
	var de *shared.DomainError
	if errors.As(err, &de) {
		switch de.Code {
		case shared.CodeUnauthorized, shared.CodeNotFound, shared.CodeValidation, shared.CodeDecodeFailed:
			return de
		}
	}
	return fmt.Errorf("%w: %v", shared.NewDataUnavailableError("Could not load "+what), err)
}

func (s *VoucherService) summaryDTO(sum voucher.Summary) SummaryDTO {
	return SummaryDTO{
		Batches:    sum.Batches,
		Vouchers:   sum.Vouchers,
		TotalValue: sum.TotalValue,
		Formatted:  s.renderer.Currency().Format(sum.TotalValue),
	}
}

// Preview renders the printable sheet and records the hand-off to the browser
func (s *VoucherService) Preview(ctx context.Context, ownerID string, req SelectionRequest) (*PreviewResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "voucher", "Preview",
		attribute.String(telemetry.SpanAttrChannel, domain.ChannelPrint.String()))
	defer span.End()

	sel, err := s.resolve(ctx, req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	doc, err := s.renderer.RenderPrintDocument(infra.DocumentRequest{
		Items:       sel.items,
		Layout:      sel.layout,
		Title:       "Voucher sheet",
		AutoPrint:   true,
		ScriptNonce: req.ScriptNonce,
	})
	if err != nil {
		telemetry.RecordError(span, err)
		if errors.Is(err, infra.ErrNothingToRender) {
			return nil, shared.NewValidationError("nothing to print")
		}
		return nil, fmt.Errorf("failed to render print document: %w", err)
	}
	span.SetAttributes(
		attribute.Int(telemetry.SpanAttrVoucherCount, len(sel.items)),
		attribute.Int(telemetry.SpanAttrPageCount, doc.PageCount),
	)

	resp := &PreviewResponse{
		HTML:      doc.HTML,
		PageCount: doc.PageCount,
		Summary:   s.summaryDTO(doc.Summary),
	}

	// The print dialog is the browser's; a failure to record the hand-off
	// must not take the document away from the user.
	job, err := domain.NewExportJob(ownerID, domain.ChannelPrint, sel.batchIDs, len(sel.items), sel.fingerprint, sel.layout)
	if err == nil {
		err = job.HandOff(doc.PageCount)
	}
	if err == nil {
		err = s.jobRepo.Save(ctx, job)
	}
	if err != nil {
		s.logger.Warn("failed to record print hand-off",
			zap.String("owner_id", ownerID),
			zap.Error(err))
	} else {
		resp.Job = toJobResponse(job)
	}

	s.metrics.RecordExport(ctx, domain.ChannelPrint.String(), telemetry.OutcomeSuccess, 0, len(sel.items), doc.PageCount)
	telemetry.SetOK(span)
	return resp, nil
}

// ExportResult is a finished export artifact
type ExportResult struct {
	Job         *JobResponse
	Data        []byte
	FileName    string
	ContentType string
}

// ExportPDF rasterizes the export clone of the sheet into a paginated PDF,
// stores it and records the job. Only one export per owner runs at a time.
func (s *VoucherService) ExportPDF(ctx context.Context, ownerID string, req SelectionRequest) (*ExportResult, error) {
	return s.export(ctx, ownerID, req, domain.ChannelPDF, s.producePDF)
}

// ExportWorkbook writes the same ordered vouchers as an XLSX listing
func (s *VoucherService) ExportWorkbook(ctx context.Context, ownerID string, req SelectionRequest) (*ExportResult, error) {
	return s.export(ctx, ownerID, req, domain.ChannelWorkbook, s.produceWorkbook)
}

// artifact is what a channel producer hands back for storage
type artifact struct {
	data      []byte
	pageCount int
	extension string
}

type producer func(ctx context.Context, sel *resolved) (*artifact, error)

func (s *VoucherService) export(
	ctx context.Context,
	ownerID string,
	req SelectionRequest,
	channel domain.Channel,
	produce producer,
) (*ExportResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "voucher", "Export",
		attribute.String(telemetry.SpanAttrChannel, channel.String()))
	defer span.End()
	start := time.Now()

	token, acquired, err := s.flag.Acquire(ctx, ownerID, s.flagTTL)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to acquire export flag: %w", err)
	}
	if !acquired {
		s.metrics.RecordExport(ctx, channel.String(), telemetry.OutcomeRejected, 0, 0, 0)
		telemetry.RecordError(span, shared.ErrExportInProgress)
		return nil, shared.ErrExportInProgress
	}

	// The export runs to completion once started, so it must not inherit the
	// request's cancellation. The flag is cleared whatever happens below.
	runCtx := logger.Detach(ctx)
	defer func() {
		if err := s.flag.Release(runCtx, ownerID, token); err != nil {
			s.logger.Error("failed to release export flag",
				zap.String("owner_id", ownerID),
				zap.Error(err))
		}
	}()

	sel, err := s.resolve(runCtx, req)
	if err != nil {
		s.metrics.RecordExport(runCtx, channel.String(), telemetry.OutcomeFailed, time.Since(start), 0, 0)
		telemetry.RecordError(span, err)
		return nil, err
	}

	job, err := domain.NewExportJob(ownerID, channel, sel.batchIDs, len(sel.items), sel.fingerprint, sel.layout)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to create export job: %w", err)
	}
	span.SetAttributes(
		attribute.String(telemetry.SpanAttrJobID, job.ID.String()),
		attribute.Int(telemetry.SpanAttrVoucherCount, len(sel.items)),
	)

	if err := s.jobRepo.Save(runCtx, job); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save export job: %w", err)
	}

	if err := job.StartRendering(); err != nil {
		return nil, err
	}
	if err := s.jobRepo.Save(runCtx, job); err != nil {
		return nil, fmt.Errorf("failed to update export job: %w", err)
	}

	fail := func(msg string, cause error) (*ExportResult, error) {
		s.logger.Error(msg,
			zap.String("job_id", job.ID.String()),
			zap.String("channel", channel.String()),
			zap.Error(cause))
		_ = job.Fail(fmt.Sprintf("%s: %v", msg, cause))
		if err := s.jobRepo.Save(runCtx, job); err != nil {
			s.logger.Error("failed to record export failure",
				zap.String("job_id", job.ID.String()),
				zap.Error(err))
		}
		s.metrics.RecordExport(runCtx, channel.String(), telemetry.OutcomeFailed, time.Since(start), len(sel.items), 0)
		wrapped := fmt.Errorf("%w: %s: %v", shared.ErrExportFailed, msg, cause)
		telemetry.RecordError(span, wrapped)
		return nil, wrapped
	}

	var out *artifact
	telemetry.WithProfilingLabels(runCtx, telemetry.ExportLabels("render", channel.String()), func(ctx context.Context) {
		out, err = produce(ctx, sel)
	})
	if err != nil {
		return fail("failed to render "+strings.ToLower(channel.String())+" document", err)
	}

	stored, err := s.storage.Store(runCtx, &infra.StoreRequest{
		OwnerID:     ownerID,
		JobID:       job.ID,
		Extension:   out.extension,
		ContentType: job.ContentType(),
		Data:        out.data,
	})
	if err != nil {
		return fail("failed to store document", err)
	}

	if err := job.Complete(stored.Key, stored.Size, out.pageCount); err != nil {
		return fail("failed to complete export job", err)
	}
	if err := s.jobRepo.Save(runCtx, job); err != nil {
		return fail("failed to save completed export job", err)
	}

	resp := toJobResponse(job)
	resp.ReprintOf = s.reprintOf(runCtx, job)

	duration := time.Since(start)
	s.metrics.RecordExport(runCtx, channel.String(), telemetry.OutcomeSuccess, duration, len(sel.items), out.pageCount)
	span.SetAttributes(attribute.Int(telemetry.SpanAttrPageCount, out.pageCount))
	telemetry.SetOK(span)

	s.logger.Info("voucher export completed",
		zap.String("job_id", job.ID.String()),
		zap.String("channel", channel.String()),
		zap.Int("vouchers", len(sel.items)),
		zap.Int("pages", out.pageCount),
		zap.Int64("size", stored.Size),
		zap.Duration("duration", duration))

	return &ExportResult{
		Job:         resp,
		Data:        out.data,
		FileName:    job.FileName(),
		ContentType: job.ContentType(),
	}, nil
}

func (s *VoucherService) producePDF(ctx context.Context, sel *resolved) (*artifact, error) {
	doc, err := s.renderer.RenderExportDocument(infra.DocumentRequest{
		Items:  sel.items,
		Layout: sel.layout,
		Title:  "Voucher sheet",
	})
	if err != nil {
		return nil, err
	}

	pageWidth, _ := doc.Layout.PageSizeMM()
	raster, err := s.rasterizer.Rasterize(ctx, doc.HTML, pageWidth)
	if err != nil {
		return nil, err
	}

	pdf, err := s.assembler.Assemble(raster, doc.Layout)
	if err != nil {
		return nil, err
	}
	return &artifact{data: pdf.Data, pageCount: pdf.PageCount, extension: "pdf"}, nil
}

func (s *VoucherService) produceWorkbook(_ context.Context, sel *resolved) (*artifact, error) {
	data, err := s.workbook.Write(sel.items)
	if err != nil {
		return nil, err
	}
	return &artifact{data: data, extension: "xlsx"}, nil
}

// reprintOf returns the most recent earlier job of the same channel that
// rendered identical content, if any
func (s *VoucherService) reprintOf(ctx context.Context, job *domain.ExportJob) string {
	prior, err := s.jobRepo.FindByFingerprint(ctx, job.OwnerID, job.Fingerprint)
	if err != nil {
		s.logger.Debug("fingerprint lookup failed", zap.Error(err))
		return ""
	}
	for _, p := range prior {
		if p.ID != job.ID && p.Channel == job.Channel {
			return p.ID.String()
		}
	}
	return ""
}

// ExportStatus reports whether the owner has an export in flight
func (s *VoucherService) ExportStatus(ctx context.Context, ownerID string) (*ExportStatusResponse, error) {
	set, err := s.flag.IsSet(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to read export flag: %w", err)
	}
	return &ExportStatusResponse{Exporting: set}, nil
}

// ListJobs lists the owner's export jobs, newest first
func (s *VoucherService) ListJobs(ctx context.Context, ownerID string, req ListJobsRequest) (*ListJobsResponse, error) {
	filter := domain.ExportJobFilter{
		Filter: shared.Filter{
			Page:     req.Page,
			PageSize: req.PageSize,
			OrderBy:  req.OrderBy,
			OrderDir: req.OrderDir,
		},
	}
	filter.Filter = filter.Filter.Normalize()
	if req.Channel != "" {
		ch := domain.Channel(req.Channel)
		filter.Channel = &ch
	}
	if req.Status != "" {
		st := domain.JobStatus(req.Status)
		filter.Status = &st
	}

	jobs, err := s.jobRepo.FindAllForOwner(ctx, ownerID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list export jobs: %w", err)
	}
	total, err := s.jobRepo.CountForOwner(ctx, ownerID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count export jobs: %w", err)
	}

	items := make([]JobResponse, len(jobs))
	for i := range jobs {
		items[i] = *toJobResponse(&jobs[i])
	}
	return &ListJobsResponse{Items: items, Total: total, Page: filter.Page, Size: filter.PageSize}, nil
}

// GetJob returns one of the owner's export jobs
func (s *VoucherService) GetJob(ctx context.Context, ownerID string, id uuid.UUID) (*JobResponse, error) {
	job, err := s.jobRepo.FindByIDForOwner(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	return toJobResponse(job), nil
}

func (s *VoucherService) completedJob(ctx context.Context, ownerID string, id uuid.UUID) (*domain.ExportJob, error) {
	job, err := s.jobRepo.FindByIDForOwner(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if !job.IsCompleted() || !job.HasFile() {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "Export job has no document to download")
	}
	return job, nil
}

// OpenDownload hands out a stored artifact, as a direct link when the
// storage supports one and as a stream otherwise
func (s *VoucherService) OpenDownload(ctx context.Context, ownerID string, id uuid.UUID) (*Download, error) {
	job, err := s.completedJob(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	dl := &Download{FileName: job.FileName(), ContentType: job.ContentType(), Size: job.FileSize}

	if linker, ok := s.storage.(infra.DownloadLinker); ok {
		url, expires, err := linker.DownloadURL(ctx, job.FileKey, dl.FileName)
		if err == nil {
			dl.RedirectURL = url
			dl.ExpiresAt = expires
			return dl, nil
		}
		s.logger.Warn("failed to presign download, streaming instead",
			zap.String("job_id", job.ID.String()),
			zap.Error(err))
	}

	body, err := s.storage.Get(ctx, job.FileKey)
	if err != nil {
		return nil, storageError(err)
	}
	dl.Body = body
	return dl, nil
}

// PagePreview renders one page of a stored PDF export as PNG
func (s *VoucherService) PagePreview(ctx context.Context, ownerID string, id uuid.UUID, page int) (*PagePreviewResponse, error) {
	job, err := s.completedJob(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if job.Channel != domain.ChannelPDF {
		return nil, shared.NewValidationError("page previews are only available for PDF exports")
	}
	if page < 1 || (job.PageCount > 0 && page > job.PageCount) {
		return nil, shared.NewValidationError(fmt.Sprintf("page must be between 1 and %d", job.PageCount))
	}

	data, err := infra.ReadDocument(ctx, s.storage, job.FileKey)
	if err != nil {
		return nil, storageError(err)
	}
	preview, err := infra.RenderPagePreview(data, page, s.previewDPI)
	if err != nil {
		return nil, fmt.Errorf("failed to render page preview: %w", err)
	}
	return &PagePreviewResponse{
		PNG:    preview.PNG,
		Page:   preview.Page,
		Pages:  preview.Pages,
		Width:  preview.Width,
		Height: preview.Height,
	}, nil
}

func storageError(err error) error {
	if errors.Is(err, infra.ErrDocumentNotFound) {
		return shared.NewDomainError(shared.CodeNotFound, "Stored document not found")
	}
	return fmt.Errorf("failed to read stored document: %w", err)
}

// Inventory lists the recent print batches
func (s *VoucherService) Inventory(ctx context.Context) (*InventoryResponse, error) {
	batches, err := s.pins.InventoryBatches(ctx)
	if err != nil {
		return nil, sourceError("print batches", err)
	}
	resp := &InventoryResponse{Batches: make([]BatchResponse, 0, len(batches))}
	for _, b := range batches {
		if b.IsPrintable() {
			resp.Printable++
		}
		resp.Batches = append(resp.Batches, toBatchResponse(b, false))
	}
	return resp, nil
}

// OrderDetail returns a single print order with its PINs
func (s *VoucherService) OrderDetail(ctx context.Context, reference string) (*BatchResponse, error) {
	order, err := s.pins.PrintOrder(ctx, reference)
	if err != nil {
		return nil, sourceError("print order", err)
	}
	resp := toBatchResponse(order.ToBatch(), true)
	return &resp, nil
}

// Generate asks the backend for a new PIN batch
func (s *VoucherService) Generate(ctx context.Context, req GeneratePinsRequest) (*GeneratePinsResponse, error) {
	network := voucher.ParseNetwork(req.Network)
	msg, err := s.pins.GeneratePins(ctx, network, req.Value, req.Quantity)
	if err != nil {
		return nil, err
	}
	if msg == "" {
		msg = "PIN generation started"
	}
	return &GeneratePinsResponse{Message: msg}, nil
}

// Cleanup removes export jobs and stored artifacts older than retention
func (s *VoucherService) Cleanup(ctx context.Context, retention time.Duration) error {
	files, err := s.storage.CleanupOlderThan(ctx, retention)
	if err != nil {
		return fmt.Errorf("failed to clean up stored documents: %w", err)
	}
	jobs, err := s.jobRepo.DeleteOlderThan(ctx, time.Now().Add(-retention))
	if err != nil {
		return fmt.Errorf("failed to delete old export jobs: %w", err)
	}
	s.logger.Info("export retention cleanup",
		zap.Int("documents", files),
		zap.Int64("jobs", jobs),
		zap.Duration("retention", retention))
	return nil
}
