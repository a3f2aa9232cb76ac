package service

import (
	"context"
	"fmt"
	"log/slog"

	"docvault/internal/domain/repositories"
	"docvault/internal/domain/services"
	"docvault/internal/seed"
)

// resetOrder lists table deletions after the latest pointers are cleared.
// Children go before parents.
var resetOrder = [][]string{
	{repositories.TableDocumentTags, repositories.TableDocumentPermissions},
	{repositories.TableDocumentVersions},
	{repositories.TableDocuments, repositories.TableTags, repositories.TableUsers},
	{repositories.TableDepartments},
}

func resetTables() []string {
	var all []string
	for _, group := range resetOrder {
		all = append(all, group...)
	}
	return all
}

type maintenanceService struct {
	deptRepo        repositories.DepartmentRepository
	maintenanceRepo repositories.MaintenanceRepository
	txManager       repositories.TransactionManager
	locker          repositories.Locker
	logger          *slog.Logger
}

// NewMaintenanceService creates a new seed/reset service
func NewMaintenanceService(
	deptRepo repositories.DepartmentRepository,
	maintenanceRepo repositories.MaintenanceRepository,
	txManager repositories.TransactionManager,
	locker repositories.Locker,
	logger *slog.Logger,
) services.MaintenanceService {
	return &maintenanceService{
		deptRepo:        deptRepo,
		maintenanceRepo: maintenanceRepo,
		txManager:       txManager,
		locker:          locker,
		logger:          logger,
	}
}

// Seed inserts the default departments when the table is empty
func (s *maintenanceService) Seed(ctx context.Context) error {
	return s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.locker.EnterShared(txCtx); err != nil {
			return err
		}
		return s.seedDepartments(txCtx)
	})
}

// Reset wipes all tables and re-seeds in one transaction holding the exclusive gate
func (s *maintenanceService) Reset(ctx context.Context) (*services.ResetResult, error) {
	var removed map[string]int
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.locker.EnterExclusive(txCtx); err != nil {
			return err
		}

		var err error
		if removed, err = s.maintenanceRepo.Counts(txCtx, resetTables()...); err != nil {
			return err
		}

		if err := s.maintenanceRepo.ClearLatestPointers(txCtx); err != nil {
			return err
		}
		for _, tables := range resetOrder {
			if err := s.maintenanceRepo.DeleteAll(txCtx, tables...); err != nil {
				return err
			}
		}

		return s.seedDepartments(txCtx)
	})
	if err != nil {
		return nil, fmt.Errorf("reset database: %w", err)
	}

	s.logger.Warn("database reset and re-seeded", "removed_rows", removed)

	return &services.ResetResult{
		Status:  "success",
		Message: "Database has been reset and re-seeded.",
	}, nil
}

func (s *maintenanceService) seedDepartments(ctx context.Context) error {
	count, err := s.deptRepo.Count(ctx)
	if err != nil {
		return fmt.Errorf("count departments: %w", err)
	}
	if count > 0 {
		s.logger.Debug("departments already seeded", "count", count)
		return nil
	}

	catalog, err := seed.Load()
	if err != nil {
		return fmt.Errorf("load seed catalog: %w", err)
	}

	names := catalog.DepartmentNames()
	if err := s.deptRepo.CreateMany(ctx, names); err != nil {
		return fmt.Errorf("seed departments: %w", err)
	}

	s.logger.Info("departments seeded", "count", len(names))
	return nil
}
