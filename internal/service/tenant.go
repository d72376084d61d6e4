package service

import (
	"context"

	"rentflow-backend/internal/domain"
	"rentflow-backend/internal/logger"
	"rentflow-backend/internal/repository"

	"github.com/google/uuid"
)

type tenantService struct {
	txm   repository.TxManager
	repos repository.Repositories
	seq   *SequenceAllocator
}

func NewTenantService(txm repository.TxManager, repos repository.Repositories, seq *SequenceAllocator) TenantService {
	return &tenantService{txm: txm, repos: repos, seq: seq}
}

func (s *tenantService) CreateTenant(ctx context.Context, cmd domain.CreateTenantCommand) (*domain.Tenant, error) {
	logger.EnterMethod("tenantService.CreateTenant", "name", cmd.Name)
	if err := validateStruct(cmd); err != nil {
		logger.ExitMethodWithError("tenantService.CreateTenant", err)
		return nil, err
	}
	if _, err := TenantCodeLetters(cmd.Name); err != nil {
		logger.ExitMethodWithError("tenantService.CreateTenant", err)
		return nil, err
	}

	tenant := &domain.Tenant{
		Name:                    cmd.Name,
		Email:                   cmd.Email,
		Currency:                cmd.Currency,
		InvoicePrefixTemplate:   cmd.InvoicePrefixTemplate,
		AgreementPrefixTemplate: cmd.AgreementPrefixTemplate,
	}
	if tenant.Currency == "" {
		tenant.Currency = "USD"
	}
	if tenant.InvoicePrefixTemplate == "" {
		tenant.InvoicePrefixTemplate = domain.DefaultInvoicePrefixTemplate
	}
	if tenant.AgreementPrefixTemplate == "" {
		tenant.AgreementPrefixTemplate = domain.DefaultAgreementPrefixTemplate
	}

	err := RetryOnCollision(ctx, createAttempts, func(ctx context.Context) error {
		return s.txm.WithinTx(ctx, DefaultTxOptions, func(ctx context.Context, repos repository.Repositories) error {
			code, err := s.seq.NextTenantCode(ctx, repos.Sequences, cmd.Name)
			if err != nil {
				return err
			}
			tenant.ID = uuid.New()
			tenant.Code = code
			return repos.Tenants.Create(ctx, tenant)
		})
	})
	if err != nil {
		logger.ExitMethodWithError("tenantService.CreateTenant", err)
		return nil, err
	}
	logger.ExitMethod("tenantService.CreateTenant", "tenantID", tenant.ID, "code", tenant.Code)
	return tenant, nil
}

func (s *tenantService) GetTenant(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	return s.repos.Tenants.GetByID(ctx, id)
}
