// Package printing contains the Printing bounded context.
// It owns the physical sheet layout of voucher documents and the export
// jobs recorded whenever a voucher selection is printed, exported to PDF
// or listed in a workbook.
package printing
