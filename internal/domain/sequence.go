package domain

// Series names a tenant-scoped counter.
type Series string

const (
	SeriesRentalNumber    Series = "rental_number"
	SeriesInvoiceNumber   Series = "invoice_number"
	SeriesAgreementNumber Series = "agreement_number"
	SeriesTenantCode      Series = "tenant_code"
)

// Zero-padded widths of the numeric component of each series.
const (
	RentalNumberWidth    = 6
	InvoiceSuffixWidth   = 3
	AgreementSuffixWidth = 4
	TenantCodeWidth      = 3
)
