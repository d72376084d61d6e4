package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rentflow-backend/internal/domain"
	"rentflow-backend/internal/esign"
	"rentflow-backend/internal/logger"
	"rentflow-backend/internal/renderer"
	"rentflow-backend/internal/repository"
	"rentflow-backend/internal/storage"

	"github.com/google/uuid"
)

const pdfContentType = "application/pdf"

// Renderer turns a template and payload into a document asynchronously.
type Renderer interface {
	Submit(ctx context.Context, templateKey string, payload any) (string, error)
	Poll(ctx context.Context, jobID string) (*renderer.Job, error)
	Download(ctx context.Context, url string) ([]byte, error)
}

// PageReplacer swaps the last page of a PDF for another document.
type PageReplacer interface {
	ReplaceLastPage(doc, addendum []byte) ([]byte, error)
}

// SignatureProvider sends a document out for electronic signature.
type SignatureProvider interface {
	CreateRequest(ctx context.Context, req esign.SignatureRequest) (string, error)
}

type DocumentConfig struct {
	InvoiceTemplate   string
	AgreementTemplate string
	// AddendumTemplate renders the signature page that replaces the last
	// page of the signable agreement.
	AddendumTemplate string
	PollAttempts     int
	PollInterval     time.Duration
}

func (c *DocumentConfig) setDefaults() {
	if c.InvoiceTemplate == "" {
		c.InvoiceTemplate = "invoice"
	}
	if c.AgreementTemplate == "" {
		c.AgreementTemplate = "rental-agreement"
	}
	if c.AddendumTemplate == "" {
		c.AddendumTemplate = "rental-agreement-signature-page"
	}
	if c.PollAttempts <= 0 {
		c.PollAttempts = 10
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 2 * time.Second
	}
}

type documentService struct {
	txm     repository.TxManager
	repos   repository.Repositories
	seq     *SequenceAllocator
	render  Renderer
	store   storage.ObjectStorage
	pages   PageReplacer
	signer  SignatureProvider
	cfg     DocumentConfig
	now     func() time.Time
	sleeper func(ctx context.Context, d time.Duration) error
}

func NewDocumentService(
	txm repository.TxManager,
	repos repository.Repositories,
	seq *SequenceAllocator,
	render Renderer,
	store storage.ObjectStorage,
	pages PageReplacer,
	signer SignatureProvider,
	cfg DocumentConfig,
) DocumentService {
	cfg.setDefaults()
	return &documentService{
		txm:     txm,
		repos:   repos,
		seq:     seq,
		render:  render,
		store:   store,
		pages:   pages,
		signer:  signer,
		cfg:     cfg,
		now:     time.Now,
		sleeper: sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// documentSource is everything a render needs, read under the booking lock.
type documentSource struct {
	booking *domain.Booking
	tenant  *domain.Tenant
	vehicle *domain.Vehicle
	driver  domain.Driver
}

func (s *documentService) loadSource(ctx context.Context, repos repository.Repositories, tenantID, bookingID uuid.UUID) (*documentSource, error) {
	b, err := repos.Bookings.GetForUpdate(ctx, tenantID, bookingID)
	if err != nil {
		return nil, err
	}
	tenant, err := repos.Tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	driver, err := primaryDriver(b)
	if err != nil {
		return nil, err
	}
	vehicle, err := repos.Vehicles.GetByID(ctx, tenantID, b.VehicleID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	return &documentSource{booking: b, tenant: tenant, vehicle: vehicle, driver: driver}, nil
}

func (src *documentSource) payload(number string, issuedAt time.Time) domain.RenderPayload {
	return domain.RenderPayload{
		DocumentNumber: number,
		IssuedAt:       issuedAt,
		Tenant: domain.RenderTenant{
			Name:     src.tenant.Name,
			Code:     src.tenant.Code,
			Email:    src.tenant.Email,
			Currency: src.tenant.Currency,
		},
		Booking:       src.booking,
		PrimaryDriver: src.driver,
		Vehicle:       src.vehicle,
	}
}

// resolveInvoice returns the booking's invoice row, creating it with a fresh
// number when there is none. The booking row lock serialises concurrent
// callers, so only one number is ever issued per booking.
func (s *documentService) resolveInvoice(ctx context.Context, tenantID, bookingID, userID uuid.UUID) (*domain.Invoice, *documentSource, error) {
	var inv *domain.Invoice
	var src *documentSource
	err := s.txm.WithinTx(ctx, DefaultTxOptions, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		if src, err = s.loadSource(ctx, repos, tenantID, bookingID); err != nil {
			return err
		}
		inv, err = repos.Documents.GetInvoiceByBooking(ctx, tenantID, bookingID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		now := s.now().UTC()
		number, err := s.seq.NextInvoiceNumber(ctx, repos.Sequences, src.tenant, now)
		if err != nil {
			return err
		}
		inv = &domain.Invoice{
			ID:        uuid.New(),
			TenantID:  tenantID,
			BookingID: bookingID,
			Number:    number,
			CreatedBy: userID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		inserted, err := repos.Documents.CreateInvoice(ctx, inv)
		if err != nil {
			return err
		}
		if !inserted {
			// The booking already has a row; keep it and drop this allocation.
			inv, err = repos.Documents.GetInvoiceByBooking(ctx, tenantID, bookingID)
			if err != nil {
				return err
			}
			return errLostRace
		}
		return nil
	})
	if errors.Is(err, errLostRace) {
		return inv, src, nil
	}
	return inv, src, err
}

// errLostRace rolls back an allocation that turned out to be unneeded.
var errLostRace = errors.New("document row already exists")

func (s *documentService) GenerateInvoice(ctx context.Context, tenantID, bookingID, userID uuid.UUID) (*domain.InvoiceResult, error) {
	logger.EnterMethod("documentService.GenerateInvoice", "tenantID", tenantID, "bookingID", bookingID)
	inv, src, err := s.resolveInvoice(ctx, tenantID, bookingID, userID)
	if err != nil {
		logger.ExitMethodWithError("documentService.GenerateInvoice", err)
		return nil, err
	}

	doc, err := s.renderDocument(ctx, s.cfg.InvoiceTemplate, src.payload(inv.Number, inv.CreatedAt))
	if err != nil {
		logger.ExitMethodWithError("documentService.GenerateInvoice", err, "invoiceNumber", inv.Number)
		return nil, err
	}
	url, err := s.put(ctx, storage.InvoiceKey(tenantID, inv.Number), doc)
	if err != nil {
		logger.ExitMethodWithError("documentService.GenerateInvoice", err, "invoiceNumber", inv.Number)
		return nil, err
	}
	if err := s.repos.Documents.UpdateInvoiceURL(ctx, tenantID, bookingID, url); err != nil {
		logger.ExitMethodWithError("documentService.GenerateInvoice", err)
		return nil, err
	}

	logger.ExitMethod("documentService.GenerateInvoice", "invoiceNumber", inv.Number)
	return &domain.InvoiceResult{InvoiceNumber: inv.Number, URL: url}, nil
}

func (s *documentService) resolveAgreement(ctx context.Context, tenantID, bookingID, userID uuid.UUID) (*domain.Agreement, *documentSource, error) {
	var agr *domain.Agreement
	var src *documentSource
	err := s.txm.WithinTx(ctx, DefaultTxOptions, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		if src, err = s.loadSource(ctx, repos, tenantID, bookingID); err != nil {
			return err
		}
		agr, err = repos.Documents.GetAgreementByBooking(ctx, tenantID, bookingID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		now := s.now().UTC()
		number, err := s.seq.NextAgreementNumber(ctx, repos.Sequences, src.tenant, now)
		if err != nil {
			return err
		}
		agr = &domain.Agreement{
			ID:        uuid.New(),
			TenantID:  tenantID,
			BookingID: bookingID,
			Number:    number,
			CreatedBy: userID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		inserted, err := repos.Documents.CreateAgreement(ctx, agr)
		if err != nil {
			return err
		}
		if !inserted {
			agr, err = repos.Documents.GetAgreementByBooking(ctx, tenantID, bookingID)
			if err != nil {
				return err
			}
			return errLostRace
		}
		return nil
	})
	if errors.Is(err, errLostRace) {
		return agr, src, nil
	}
	return agr, src, err
}

func (s *documentService) GenerateAgreement(ctx context.Context, tenantID, bookingID, userID uuid.UUID) (*domain.AgreementResult, error) {
	logger.EnterMethod("documentService.GenerateAgreement", "tenantID", tenantID, "bookingID", bookingID)
	agr, src, err := s.resolveAgreement(ctx, tenantID, bookingID, userID)
	if err != nil {
		logger.ExitMethodWithError("documentService.GenerateAgreement", err)
		return nil, err
	}

	payload := src.payload(agr.Number, agr.CreatedAt)
	doc, err := s.renderDocument(ctx, s.cfg.AgreementTemplate, payload)
	if err != nil {
		logger.ExitMethodWithError("documentService.GenerateAgreement", err, "agreementNumber", agr.Number)
		return nil, err
	}
	url, err := s.put(ctx, storage.AgreementKey(tenantID, agr.Number), doc)
	if err != nil {
		logger.ExitMethodWithError("documentService.GenerateAgreement", err)
		return nil, err
	}

	addendum, err := s.renderDocument(ctx, s.cfg.AddendumTemplate, payload)
	if err != nil {
		logger.ExitMethodWithError("documentService.GenerateAgreement", err, "stage", "addendum")
		return nil, err
	}
	signable, err := s.pages.ReplaceLastPage(doc, addendum)
	if err != nil {
		err = fmt.Errorf("%w: build signable agreement: %v", domain.ErrDocumentGenerationFailed, err)
		logger.ExitMethodWithError("documentService.GenerateAgreement", err)
		return nil, err
	}
	signableURL, err := s.put(ctx, storage.SignableAgreementKey(tenantID, agr.Number), signable)
	if err != nil {
		logger.ExitMethodWithError("documentService.GenerateAgreement", err)
		return nil, err
	}

	if err := s.repos.Documents.UpdateAgreementURLs(ctx, tenantID, bookingID, url, signableURL); err != nil {
		logger.ExitMethodWithError("documentService.GenerateAgreement", err)
		return nil, err
	}

	logger.ExitMethod("documentService.GenerateAgreement", "agreementNumber", agr.Number)
	return &domain.AgreementResult{AgreementNumber: agr.Number, URL: url, SignableURL: signableURL}, nil
}

// RequestAgreementSignature sends the signable agreement to every driver
// with an email address, primary driver first.
func (s *documentService) RequestAgreementSignature(ctx context.Context, tenantID, bookingID uuid.UUID) (*domain.Agreement, error) {
	logger.EnterMethod("documentService.RequestAgreementSignature", "tenantID", tenantID, "bookingID", bookingID)
	if s.signer == nil {
		err := domain.NewValidationError("esign", "e-signature provider is not configured")
		logger.ExitMethodWithError("documentService.RequestAgreementSignature", err)
		return nil, err
	}
	agr, err := s.repos.Documents.GetAgreementByBooking(ctx, tenantID, bookingID)
	if err != nil {
		logger.ExitMethodWithError("documentService.RequestAgreementSignature", err)
		return nil, err
	}
	if agr.SignableURL == "" {
		err := domain.NotFoundError("signable agreement", agr.Number)
		logger.ExitMethodWithError("documentService.RequestAgreementSignature", err)
		return nil, err
	}
	b, err := s.repos.Bookings.GetByID(ctx, tenantID, bookingID)
	if err != nil {
		logger.ExitMethodWithError("documentService.RequestAgreementSignature", err)
		return nil, err
	}

	var signers []esign.Signer
	for _, d := range b.Drivers {
		if d.Email == "" {
			continue
		}
		signer := esign.Signer{Name: d.Name, Email: d.Email}
		if d.IsPrimary {
			signers = append([]esign.Signer{signer}, signers...)
		} else {
			signers = append(signers, signer)
		}
	}
	if len(signers) == 0 {
		err := domain.NewValidationError("drivers", "no driver has an email address")
		logger.ExitMethodWithError("documentService.RequestAgreementSignature", err)
		return nil, err
	}

	doc, err := s.store.Get(ctx, storage.SignableAgreementKey(tenantID, agr.Number))
	if err != nil {
		logger.ExitMethodWithError("documentService.RequestAgreementSignature", err)
		return nil, err
	}
	requestID, err := s.signer.CreateRequest(ctx, esign.SignatureRequest{
		Title:    fmt.Sprintf("Rental agreement %s", agr.Number),
		Filename: agr.Number + ".pdf",
		Document: doc,
		Signers:  signers,
	})
	if err != nil {
		logger.ExitMethodWithError("documentService.RequestAgreementSignature", err)
		return nil, err
	}
	if err := s.repos.Documents.SetSignatureRequest(ctx, tenantID, bookingID, requestID); err != nil {
		logger.ExitMethodWithError("documentService.RequestAgreementSignature", err)
		return nil, err
	}
	agr.SignatureRequestID = requestID

	logger.ExitMethod("documentService.RequestAgreementSignature", "requestID", requestID)
	return agr, nil
}

// renderDocument submits a job and polls it until it settles or the attempt
// budget runs out.
func (s *documentService) renderDocument(ctx context.Context, templateKey string, payload domain.RenderPayload) ([]byte, error) {
	jobID, err := s.render.Submit(ctx, templateKey, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDocumentGenerationFailed, err)
	}
	for attempt := 1; attempt <= s.cfg.PollAttempts; attempt++ {
		job, err := s.render.Poll(ctx, jobID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrDocumentGenerationFailed, err)
		}
		switch job.Status {
		case domain.RenderStatusSuccess:
			doc, err := s.render.Download(ctx, job.DownloadURL)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", domain.ErrDocumentGenerationFailed, err)
			}
			return doc, nil
		case domain.RenderStatusFailure:
			return nil, fmt.Errorf("%w: job %s: %s", domain.ErrDocumentGenerationFailed, jobID, job.Error)
		}
		if attempt < s.cfg.PollAttempts {
			if err := s.sleeper(ctx, s.cfg.PollInterval); err != nil {
				return nil, err
			}
		}
	}
	return nil, fmt.Errorf("%w: job %s after %d polls", domain.ErrDocumentGenerationTimedOut, jobID, s.cfg.PollAttempts)
}

func (s *documentService) put(ctx context.Context, key string, data []byte) (string, error) {
	url, err := s.store.Put(ctx, key, data, pdfContentType)
	if err != nil {
		if errors.Is(err, domain.ErrStorageFailure) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}
	return url, nil
}
