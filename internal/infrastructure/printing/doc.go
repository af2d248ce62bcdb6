// Package printing turns an ordered voucher list into physical output.
//
// The pipeline has one layout and two output channels:
//
//   - LayoutRenderer lays vouchers out on fixed-size sheets with html/template.
//     In print mode the document carries a print stylesheet and opens the
//     browser print dialog; in export mode the styles are projected onto
//     rasterizer-safe colors first (ProjectExportSafe).
//   - ChromedpRasterizer captures the export document as one tall bitmap at
//     the configured device scale.
//   - PDFAssembler slices that bitmap into page-height bands (Paginate) and
//     embeds each band on its own page with fpdf.
//
// Supporting pieces render page previews (go-fitz), voucher workbooks
// (excelize) and store finished files (DocumentStorage).
package printing
