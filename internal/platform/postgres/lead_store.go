package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/leadflow/internal/domain"
	"github.com/phrazzld/leadflow/internal/platform/logger"
	"github.com/phrazzld/leadflow/internal/store"
)

const leadColumns = `id, first_name, last_name, email, phone, source, summary, next_action, created_at`

// PostgresLeadStore implements the store.LeadStore interface
// using a PostgreSQL database as the storage backend.
type PostgresLeadStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresLeadStore creates a new PostgreSQL implementation of the LeadStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresLeadStore(db store.DBTX, logger *slog.Logger) *PostgresLeadStore {
	if db == nil {
		// ALLOW-PANIC: constructor misuse
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresLeadStore{
		db:     db,
		logger: logger.With(slog.String("component", "lead_store")),
	}
}

// Ensure PostgresLeadStore implements store.LeadStore interface
var _ store.LeadStore = (*PostgresLeadStore)(nil)

// Create implements store.LeadStore.Create.
// Returns store.ErrEmailExists when the unique email index rejects the row.
func (s *PostgresLeadStore) Create(ctx context.Context, lead *domain.Lead) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := lead.Validate(); err != nil {
		log.Warn("lead validation failed during create",
			slog.String("error", err.Error()),
			slog.String("lead_id", lead.ID.String()))
		return err
	}

	query := `
		INSERT INTO leads (` + leadColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		lead.ID,
		lead.FirstName,
		lead.LastName,
		domain.NormalizeEmail(lead.Email),
		lead.Phone,
		string(lead.Source),
		lead.Summary,
		lead.NextAction,
		lead.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode &&
			(pgErr.ConstraintName == "" || pgErr.ConstraintName == leadsEmailConstraintKey) {
			log.Debug("lead email already exists", slog.String("lead_id", lead.ID.String()))
			return store.ErrEmailExists
		}

		log.Error("failed to create lead",
			slog.String("error", err.Error()),
			slog.String("lead_id", lead.ID.String()))
		return store.NewStoreError("lead", "create", "failed to insert lead", MapError(err))
	}

	log.Info("lead created",
		slog.String("lead_id", lead.ID.String()),
		slog.String("source", string(lead.Source)))
	return nil
}

// GetByID implements store.LeadStore.GetByID.
// Returns store.ErrLeadNotFound if the lead does not exist.
func (s *PostgresLeadStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`

	lead, err := scanLead(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("lead not found", slog.String("lead_id", id.String()))
			return nil, store.ErrLeadNotFound
		}

		log.Error("failed to get lead by ID",
			slog.String("error", err.Error()),
			slog.String("lead_id", id.String()))
		return nil, store.NewStoreError("lead", "get", "failed to load lead", MapError(err))
	}

	return lead, nil
}

// List implements store.LeadStore.List. Leads are returned newest first.
func (s *PostgresLeadStore) List(ctx context.Context) ([]*domain.Lead, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + leadColumns + ` FROM leads ORDER BY created_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to list leads", slog.String("error", err.Error()))
		return nil, store.NewStoreError("lead", "list", "failed to query leads", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	leads := make([]*domain.Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			log.Error("failed to scan lead row", slog.String("error", err.Error()))
			return nil, store.NewStoreError("lead", "list", "failed to scan lead", err)
		}
		leads = append(leads, lead)
	}

	if err := rows.Err(); err != nil {
		log.Error("error iterating lead rows", slog.String("error", err.Error()))
		return nil, store.NewStoreError("lead", "list", "failed to iterate leads", err)
	}

	return leads, nil
}

// Save implements store.LeadStore.Save. Only the enrichment fields are
// mutable; everything else is fixed at creation.
func (s *PostgresLeadStore) Save(ctx context.Context, lead *domain.Lead) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := lead.Validate(); err != nil {
		log.Warn("lead validation failed during save",
			slog.String("error", err.Error()),
			slog.String("lead_id", lead.ID.String()))
		return err
	}

	query := `
		UPDATE leads
		SET summary = $1, next_action = $2
		WHERE id = $3
	`
	result, err := s.db.ExecContext(ctx, query, lead.Summary, lead.NextAction, lead.ID)
	if err != nil {
		log.Error("failed to save lead",
			slog.String("error", err.Error()),
			slog.String("lead_id", lead.ID.String()))
		return store.NewStoreError("lead", "save", "failed to update lead", MapError(err))
	}

	if err := CheckRowsAffected(result, store.ErrLeadNotFound); err != nil {
		if errors.Is(err, store.ErrLeadNotFound) {
			log.Debug("lead not found during save", slog.String("lead_id", lead.ID.String()))
			return err
		}
		return store.NewStoreError("lead", "save", "failed to confirm update", err)
	}

	log.Debug("lead saved", slog.String("lead_id", lead.ID.String()))
	return nil
}

// ListEmails implements store.LeadStore.ListEmails.
func (s *PostgresLeadStore) ListEmails(ctx context.Context) ([]string, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, `SELECT email FROM leads`)
	if err != nil {
		log.Error("failed to list lead emails", slog.String("error", err.Error()))
		return nil, store.NewStoreError("lead", "list_emails", "failed to query emails", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	emails := make([]string, 0)
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, store.NewStoreError("lead", "list_emails", "failed to scan email", err)
		}
		emails = append(emails, email)
	}

	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("lead", "list_emails", "failed to iterate emails", err)
	}

	return emails, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*domain.Lead, error) {
	var (
		lead       domain.Lead
		source     string
		phone      sql.NullString
		summary    sql.NullString
		nextAction sql.NullString
	)

	if err := row.Scan(
		&lead.ID,
		&lead.FirstName,
		&lead.LastName,
		&lead.Email,
		&phone,
		&source,
		&summary,
		&nextAction,
		&lead.CreatedAt,
	); err != nil {
		return nil, err
	}

	lead.Source = domain.LeadSource(source)
	lead.Phone = nullStringPtr(phone)
	lead.Summary = nullStringPtr(summary)
	lead.NextAction = nullStringPtr(nextAction)
	lead.CreatedAt = lead.CreatedAt.UTC()

	return &lead, nil
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
