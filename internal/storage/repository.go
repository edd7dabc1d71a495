// Package storage is the sqlite persistence collaborator. It owns the five
// ledger collections and the attachment metadata, and applies batch inserts
// atomically.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"

	"ledger/internal/core"
	"ledger/internal/ports"
)

var _ ports.Store = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db *sql.DB
}

// dsn enables foreign keys so that case expenses must reference an existing
// case file, and waits on a busy database instead of failing at once.
func dsn(path string) string {
	return path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// migrates it.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	version, err := RunMigrations(dsn(dbPath))
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Info("SQLite repository ready", "path", dbPath, "schema_version", version)
	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Snapshot reads the five collections concurrently, each in insertion order.
func (r *SQLiteRepository) Snapshot(ctx context.Context) (core.Snapshot, error) {
	var s core.Snapshot
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		s.CaseFiles, err = r.listCaseFiles(ctx)
		return err
	})
	g.Go(func() (err error) {
		s.CaseExpenses, err = r.listCaseExpenses(ctx)
		return err
	})
	g.Go(func() (err error) {
		s.InstitutionEngagements, err = r.listInstitutionEngagements(ctx)
		return err
	})
	g.Go(func() (err error) {
		s.InstitutionExpenses, err = r.listInstitutionExpenses(ctx)
		return err
	})
	g.Go(func() (err error) {
		s.OfficeExpenses, err = r.listOfficeExpenses(ctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return core.Snapshot{}, err
	}
	return s, nil
}

// InsertBatch decodes and validates every record, then inserts them in one
// transaction. Any failure rolls the whole batch back.
func (r *SQLiteRepository) InsertBatch(ctx context.Context, t core.EntityType, records []map[string]any) error {
	snap, err := core.DecodeBatch(t, records)
	if err != nil {
		return err
	}
	if err := snap.Validate(); err != nil {
		return err
	}
	if err := r.Insert(ctx, snap); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Batch inserted", "entity", t, "rows", len(records))
	return nil
}

// Insert stores every record of s in one transaction. Records without an ID
// get a new one. Case files are written first so that expenses in the same
// snapshot can reference them.
func (r *SQLiteRepository) Insert(ctx context.Context, s core.Snapshot) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				slog.ErrorContext(ctx, "Rollback failed", "error", rbErr)
			}
		}
	}()

	for i, c := range s.CaseFiles {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO case_files (id, owner_id, file_number, client_name, amount_collected, amount_collectible, notes)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			newID(c.ID), c.OwnerID, c.FileNumber, c.ClientName, c.AmountCollected, c.AmountCollectible, c.Notes,
		); err != nil {
			return fmt.Errorf("insert case file %d: %w", i+1, err)
		}
	}
	for i, e := range s.CaseExpenses {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO case_expenses (id, case_file_id, expense_type, amount, date, reimbursed)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			newID(e.ID), e.CaseFileID, e.ExpenseType, e.Amount, dateArg(e.Date), e.Reimbursed,
		); err != nil {
			return fmt.Errorf("insert case expense %d: %w", i+1, err)
		}
	}
	for i, e := range s.InstitutionEngagements {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO institution_engagements (id, institution_name, file_number, collected_amount, commission_rate, net_entitlement, paid)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			newID(e.ID), e.InstitutionName, e.FileNumber, e.CollectedAmount, e.CommissionRate, e.NetEntitlement, e.Paid,
		); err != nil {
			return fmt.Errorf("insert institution engagement %d: %w", i+1, err)
		}
	}
	for i, e := range s.InstitutionExpenses {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO institution_expenses (id, description, expense_type, amount, date, paid)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			newID(e.ID), e.Description, e.ExpenseType, e.Amount, dateArg(e.Date), e.Paid,
		); err != nil {
			return fmt.Errorf("insert institution expense %d: %w", i+1, err)
		}
	}
	for i, e := range s.OfficeExpenses {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO office_expenses (id, description, category, amount, date, notes)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			newID(e.ID), e.Description, e.Category, e.Amount, dateArg(e.Date), e.Notes,
		); err != nil {
			return fmt.Errorf("insert office expense %d: %w", i+1, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Attachments implements ports.AttachmentLookup.
func (r *SQLiteRepository) Attachments(ctx context.Context, entityID string, t core.EntityType) ([]core.Attachment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, entity_id, entity_type, file_name, content_type, size, url
		 FROM attachments WHERE entity_type = ? AND entity_id = ? ORDER BY rowid`,
		string(t), entityID)
	if err != nil {
		return nil, fmt.Errorf("query attachments: %w", err)
	}
	defer rows.Close()

	out := make([]core.Attachment, 0)
	for rows.Next() {
		var a core.Attachment
		if err := rows.Scan(&a.ID, &a.EntityID, &a.EntityType, &a.FileName, &a.ContentType, &a.Size, &a.URL); err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// AddAttachment records attachment metadata and returns it with its ID set.
func (r *SQLiteRepository) AddAttachment(ctx context.Context, a core.Attachment) (core.Attachment, error) {
	if !a.EntityType.IsValid() {
		return core.Attachment{}, fmt.Errorf("%w: %q", core.ErrUnknownEntity, a.EntityType)
	}
	a.ID = newID(a.ID)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO attachments (id, entity_id, entity_type, file_name, content_type, size, url)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.EntityID, string(a.EntityType), a.FileName, a.ContentType, a.Size, a.URL)
	if err != nil {
		return core.Attachment{}, fmt.Errorf("insert attachment: %w", err)
	}
	return a, nil
}

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

func dateArg(d core.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.String()
}
