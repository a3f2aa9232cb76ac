package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"docvault/internal/domain/models"
	"docvault/internal/domain/repositories"
)

// PostgresDepartmentRepository implements the DepartmentRepository interface
type PostgresDepartmentRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewDepartmentRepository creates a new department repository
func NewDepartmentRepository(config *RepositoryConfig) repositories.DepartmentRepository {
	return &PostgresDepartmentRepository{
		pool:   config.Pool,
		logger: config.Logger,
	}
}

// List returns all departments ordered by id
func (r *PostgresDepartmentRepository) List(ctx context.Context) ([]models.Department, error) {
	query := fmt.Sprintf(`SELECT id, name FROM %s ORDER BY id ASC`, TableDepartments)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	defer rows.Close()

	departments := []models.Department{}
	for rows.Next() {
		var d models.Department
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, fmt.Errorf("scan department: %w", err)
		}
		departments = append(departments, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate departments: %w", err)
	}

	return departments, nil
}

// Count returns the number of departments
func (r *PostgresDepartmentRepository) Count(ctx context.Context) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, TableDepartments)

	var count int
	executor := GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count departments: %w", err)
	}
	return count, nil
}

// CreateMany inserts departments by name, skipping names that already exist
func (r *PostgresDepartmentRepository) CreateMany(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (name)
		SELECT unnest($1::text[])
		ON CONFLICT (name) DO NOTHING
	`, TableDepartments)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, names)
	if err != nil {
		return fmt.Errorf("create departments: %w", err)
	}

	r.logger.Debug("departments inserted", "requested", len(names), "inserted", result.RowsAffected())
	return nil
}
