// Package pg implementa el Provider de PostgreSQL sobre pgx.
//
// Todas las colecciones comparten la tabla repository_records: metadatos en
// columnas (collection, id, tenant_id, row_version) y la entidad en un
// documento JSONB. Las escrituras son condicionales sobre row_version, así que
// el compare-and-swap lo resuelve la base dentro de la transacción.
package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/tenantadmin/internal/domain/repository"
	store "github.com/dropDatabas3/tenantadmin/internal/store"
)

func init() {
	store.RegisterDriver(&pgDriver{})
}

type pgDriver struct{}

func (d *pgDriver) Name() string { return "postgres" }

func (d *pgDriver) Open(ctx context.Context, cfg store.ProviderConfig) (store.Provider, error) {
	if cfg.DSN == "" {
		return nil, errors.New("pg: DSN is required")
	}

	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg: parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pcfg.MinConns = cfg.MinConns
	}
	if cfg.ConnMaxLifetime > 0 {
		pcfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("pg: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping failed: %w", err)
	}

	if cfg.Migrate {
		if _, err := NewMigrator(pool).Run(ctx); err != nil {
			pool.Close()
			return nil, err
		}
	}

	return &Provider{pool: pool}, nil
}

// Provider es el store.Provider respaldado por un pgxpool.
type Provider struct {
	pool *pgxpool.Pool
}

var _ store.Provider = (*Provider)(nil)

// Pool expone el pool para migraciones y health checks.
func (p *Provider) Pool() *pgxpool.Pool { return p.pool }

func (p *Provider) Name() string { return "postgres" }

func (p *Provider) Ping(ctx context.Context) error { return p.pool.Ping(ctx) }

func (p *Provider) Close() error {
	p.pool.Close()
	return nil
}

func (p *Provider) Begin(ctx context.Context) (store.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, mapErr(err)
	}
	return &pgTx{tx: tx}, nil
}

type pgTx struct {
	tx pgx.Tx
}

const selectColumns = `collection, id, tenant_id, row_version, data`

func scanRecord(row pgx.Row) (store.Record, error) {
	var rec store.Record
	err := row.Scan(&rec.Collection, &rec.ID, &rec.TenantID, &rec.RowVersion, &rec.Data)
	return rec, err
}

func (t *pgTx) Get(ctx context.Context, collection, id string) (store.Record, bool, error) {
	const query = `SELECT ` + selectColumns + ` FROM repository_records WHERE collection = $1 AND id = $2`
	rec, err := scanRecord(t.tx.QueryRow(ctx, query, collection, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return store.Record{}, false, nil
	}
	if err != nil {
		return store.Record{}, false, mapErr(err)
	}
	return rec, true, nil
}

func (t *pgTx) GetMany(ctx context.Context, collection string, ids []string) ([]store.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `SELECT ` + selectColumns + ` FROM repository_records WHERE collection = $1 AND id = ANY($2)`
	recs, err := t.query(ctx, query, collection, ids)
	if err != nil {
		return nil, err
	}

	// Respetar el orden pedido
	byID := make(map[string]store.Record, len(recs))
	for _, rec := range recs {
		byID[rec.ID] = rec
	}
	out := make([]store.Record, 0, len(recs))
	for _, id := range ids {
		if rec, ok := byID[id]; ok {
			out = append(out, rec)
			delete(byID, id)
		}
	}
	return out, nil
}

func (t *pgTx) ListByTenant(ctx context.Context, collection, tenantID string) ([]store.Record, error) {
	const query = `SELECT ` + selectColumns + ` FROM repository_records WHERE collection = $1 AND tenant_id = $2 ORDER BY id`
	return t.query(ctx, query, collection, tenantID)
}

func (t *pgTx) query(ctx context.Context, query string, args ...any) ([]store.Record, error) {
	rows, err := t.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []store.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, mapErr(err)
		}
		out = append(out, rec)
	}
	return out, mapErr(rows.Err())
}

func (t *pgTx) Insert(ctx context.Context, rec store.Record) error {
	const query = `
		INSERT INTO repository_records (collection, id, tenant_id, row_version, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (collection, id) DO NOTHING
	`
	tag, err := t.tx.Exec(ctx, query, rec.Collection, rec.ID, rec.TenantID, rec.RowVersion, rec.Data)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s/%s", repository.ErrDuplicateKey, rec.Collection, rec.ID)
	}
	return nil
}

func (t *pgTx) Update(ctx context.Context, rec store.Record, original []byte) error {
	const query = `
		UPDATE repository_records
		SET data = $5, row_version = $6, updated_at = NOW()
		WHERE collection = $1 AND id = $2 AND tenant_id = $3 AND row_version = $4
	`
	tag, err := t.tx.Exec(ctx, query, rec.Collection, rec.ID, rec.TenantID, original, rec.Data, rec.RowVersion)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	return t.classifyMiss(ctx, rec.Collection, rec.ID, rec.TenantID)
}

func (t *pgTx) Delete(ctx context.Context, collection, id string, original []byte) error {
	const query = `DELETE FROM repository_records WHERE collection = $1 AND id = $2 AND row_version = $3`
	tag, err := t.tx.Exec(ctx, query, collection, id, original)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	return t.classifyMiss(ctx, collection, id, "")
}

// classifyMiss distingue fila inexistente de token viejo cuando un write
// condicional no afectó filas. tenantID vacío no filtra por tenant.
func (t *pgTx) classifyMiss(ctx context.Context, collection, id, tenantID string) error {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM repository_records
			WHERE collection = $1 AND id = $2 AND ($3 = '' OR tenant_id = $3)
		)
	`
	var exists bool
	if err := t.tx.QueryRow(ctx, query, collection, id, tenantID).Scan(&exists); err != nil {
		return mapErr(err)
	}
	if exists {
		return fmt.Errorf("%w: %s/%s", repository.ErrConcurrencyConflict, collection, id)
	}
	return fmt.Errorf("%w: %s/%s", repository.ErrNotFound, collection, id)
}

func (t *pgTx) Commit(ctx context.Context) error {
	return mapErr(t.tx.Commit(ctx))
}

func (t *pgTx) Rollback(ctx context.Context) error {
	return mapErr(t.tx.Rollback(ctx))
}

// mapErr traduce errores de pgx a los sentinels del repositorio.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrTxClosed) {
		return store.ErrTxDone
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s", repository.ErrDuplicateKey, pgErr.ConstraintName)
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return fmt.Errorf("%w: %s", repository.ErrConcurrencyConflict, pgErr.Message)
		}
	}
	return err
}
