package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"rentflow-backend/internal/domain"
	"rentflow-backend/internal/logger"
	"rentflow-backend/internal/repository"

	"github.com/google/uuid"
)

// SequenceAllocator issues the human-readable identifiers. Every allocation
// runs through the caller's transaction, so a number is only consumed if the
// row that carries it commits.
type SequenceAllocator struct{}

func NewSequenceAllocator() *SequenceAllocator {
	return &SequenceAllocator{}
}

func (a *SequenceAllocator) Next(ctx context.Context, seqs repository.SequenceRepository, tenantID uuid.UUID, series domain.Series, scope string) (int64, error) {
	v, err := seqs.Next(ctx, tenantID, series, scope)
	if err != nil {
		return 0, fmt.Errorf("allocate %s: %w", series, err)
	}
	return v, nil
}

func (a *SequenceAllocator) NextRentalNumber(ctx context.Context, seqs repository.SequenceRepository, tenantID uuid.UUID) (string, error) {
	v, err := a.Next(ctx, seqs, tenantID, domain.SeriesRentalNumber, "")
	if err != nil {
		return "", err
	}
	return Pad(v, domain.RentalNumberWidth), nil
}

// NextInvoiceNumber counts separately per interpolated prefix, so a
// date-based template restarts its suffix every period.
func (a *SequenceAllocator) NextInvoiceNumber(ctx context.Context, seqs repository.SequenceRepository, tenant *domain.Tenant, at time.Time) (string, error) {
	template := tenant.InvoicePrefixTemplate
	if template == "" {
		template = domain.DefaultInvoicePrefixTemplate
	}
	prefix := InterpolatePrefix(template, tenant.ID, at)
	v, err := a.Next(ctx, seqs, tenant.ID, domain.SeriesInvoiceNumber, prefix)
	if err != nil {
		return "", err
	}
	return prefix + Pad(v, domain.InvoiceSuffixWidth), nil
}

func (a *SequenceAllocator) NextAgreementNumber(ctx context.Context, seqs repository.SequenceRepository, tenant *domain.Tenant, at time.Time) (string, error) {
	template := tenant.AgreementPrefixTemplate
	if template == "" {
		template = domain.DefaultAgreementPrefixTemplate
	}
	prefix := InterpolatePrefix(template, tenant.ID, at)
	v, err := a.Next(ctx, seqs, tenant.ID, domain.SeriesAgreementNumber, prefix)
	if err != nil {
		return "", err
	}
	return prefix + Pad(v, domain.AgreementSuffixWidth), nil
}

// NextTenantCode draws from one global series per three-letter stem.
func (a *SequenceAllocator) NextTenantCode(ctx context.Context, seqs repository.SequenceRepository, tenantName string) (string, error) {
	letters, err := TenantCodeLetters(tenantName)
	if err != nil {
		return "", err
	}
	v, err := a.Next(ctx, seqs, uuid.Nil, domain.SeriesTenantCode, letters)
	if err != nil {
		return "", err
	}
	return letters + "-" + Pad(v, domain.TenantCodeWidth), nil
}

// Pad zero-pads n to width. Wider values are printed in full.
func Pad(n int64, width int) string {
	return fmt.Sprintf("%0*d", width, n)
}

func padString(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

// BookingCode joins the tenant code, without dashes, to the padded rental number.
func BookingCode(tenantCode, rentalNumber string) string {
	return strings.ReplaceAll(tenantCode, "-", "") + "-" + padString(rentalNumber, domain.RentalNumberWidth)
}

// InterpolatePrefix expands {year}, {month}, {day} and {tenantId-prefix}.
func InterpolatePrefix(template string, tenantID uuid.UUID, at time.Time) string {
	at = at.UTC()
	r := strings.NewReplacer(
		"{year}", strconv.Itoa(at.Year()),
		"{month}", fmt.Sprintf("%02d", int(at.Month())),
		"{day}", fmt.Sprintf("%02d", at.Day()),
		"{tenantId-prefix}", strings.ToUpper(strings.ReplaceAll(tenantID.String(), "-", "")[:8]),
	)
	return r.Replace(template)
}

// TenantCodeLetters takes the first three letters of name, upper-cased.
// Names with fewer letters are right-padded with X.
func TenantCodeLetters(name string) (string, error) {
	var b strings.Builder
	for _, r := range name {
		if r <= unicode.MaxASCII && unicode.IsLetter(r) {
			b.WriteRune(unicode.ToUpper(r))
			if b.Len() == 3 {
				break
			}
		}
	}
	if b.Len() == 0 {
		return "", domain.NewValidationError("name", "must contain at least one letter")
	}
	return padRight(b.String(), 3, "X"), nil
}

func padRight(s string, width int, fill string) string {
	for len(s) < width {
		s += fill
	}
	return s
}

// RetryOnCollision re-runs fn while it fails with ErrAllocationCollision, up
// to attempts times. Each attempt must open its own transaction so the
// allocation is fresh.
func RetryOnCollision(ctx context.Context, attempts int, fn func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 1; i <= attempts; i++ {
		if err = fn(ctx); err == nil || !errors.Is(err, domain.ErrAllocationCollision) {
			return err
		}
		logger.Warn("Identifier allocation collided, retrying", "attempt", i, "error", err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
	return err
}
