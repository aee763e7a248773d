// Package memory implementa un Provider en memoria.
//
// Las transacciones acumulan escrituras en un write-set propio (con
// read-your-writes) y las aplican al confirmar, bajo un único lock, después
// de revalidar cada expectativa contra el estado confirmado. Una expectativa
// vieja aborta el commit completo: todo o nada. Los listados por tenant
// también son expectativas: si otra transacción cambió ese conjunto de filas,
// una transacción que escribe no confirma.
//
// Pensado para tests y para correr el servicio sin base de datos.
package memory

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/dropDatabas3/tenantadmin/internal/domain/repository"
	store "github.com/dropDatabas3/tenantadmin/internal/store"
)

func init() {
	store.RegisterDriver(&memoryDriver{})
}

type memoryDriver struct{}

func (d *memoryDriver) Name() string { return "memory" }

func (d *memoryDriver) Open(ctx context.Context, cfg store.ProviderConfig) (store.Provider, error) {
	return New(), nil
}

// ErrClosed indica que el provider ya fue cerrado.
var ErrClosed = errors.New("memory: provider closed")

type rowKey struct {
	collection string
	id         string
}

// Provider guarda las filas confirmadas.
type Provider struct {
	mu     sync.RWMutex
	rows   map[rowKey]store.Record
	closed bool
}

var _ store.Provider = (*Provider)(nil)

// New crea un provider vacío.
func New() *Provider {
	return &Provider{rows: make(map[rowKey]store.Record)}
}

func (p *Provider) Name() string { return "memory" }

func (p *Provider) Begin(ctx context.Context) (store.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, ErrClosed
	}
	return &tx{
		p:       p,
		writes:  make(map[rowKey]write),
		expects: make(map[rowKey]expect),
		scans:   make(map[scanKey]string),
	}, nil
}

func (p *Provider) Ping(ctx context.Context) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	return nil
}

func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Len retorna la cantidad de filas confirmadas en la colección.
func (p *Provider) Len(collection string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	n := 0
	for k := range p.rows {
		if k.collection == collection {
			n++
		}
	}
	return n
}

// write es una escritura pendiente; deleted marca una baja.
type write struct {
	rec     store.Record
	deleted bool
}

// expect es lo que la transacción asumió del estado confirmado.
type expect struct {
	absent  bool
	version []byte
}

// scanKey identifica un listado de ListByTenant.
type scanKey struct {
	collection string
	tenantID   string
}

type tx struct {
	p       *Provider
	mu      sync.Mutex
	writes  map[rowKey]write
	expects map[rowKey]expect
	// scans guarda la huella del estado confirmado en el primer listado.
	scans map[scanKey]string
	done  bool
}

func (t *tx) check(ctx context.Context) error {
	if t.done {
		return store.ErrTxDone
	}
	return ctx.Err()
}

// lookup resuelve una fila viendo primero el write-set.
func (t *tx) lookup(k rowKey) (store.Record, bool) {
	if w, ok := t.writes[k]; ok {
		if w.deleted {
			return store.Record{}, false
		}
		return w.rec, true
	}
	t.p.mu.RLock()
	defer t.p.mu.RUnlock()
	rec, ok := t.p.rows[k]
	return rec, ok
}

func (t *tx) Get(ctx context.Context, collection, id string) (store.Record, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.check(ctx); err != nil {
		return store.Record{}, false, err
	}
	rec, ok := t.lookup(rowKey{collection, id})
	if !ok {
		return store.Record{}, false, nil
	}
	return clone(rec), true, nil
}

func (t *tx) GetMany(ctx context.Context, collection string, ids []string) ([]store.Record, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.check(ctx); err != nil {
		return nil, err
	}
	out := make([]store.Record, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if rec, ok := t.lookup(rowKey{collection, id}); ok {
			out = append(out, clone(rec))
		}
	}
	return out, nil
}

func (t *tx) ListByTenant(ctx context.Context, collection, tenantID string) ([]store.Record, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.check(ctx); err != nil {
		return nil, err
	}

	merged := make(map[string]store.Record)
	t.p.mu.RLock()
	for k, rec := range t.p.rows {
		if k.collection == collection {
			merged[k.id] = rec
		}
	}
	sk := scanKey{collection, tenantID}
	if _, ok := t.scans[sk]; !ok {
		t.scans[sk] = t.p.fingerprint(sk)
	}
	t.p.mu.RUnlock()
	for k, w := range t.writes {
		if k.collection != collection {
			continue
		}
		if w.deleted {
			delete(merged, k.id)
		} else {
			merged[k.id] = w.rec
		}
	}

	out := make([]store.Record, 0, len(merged))
	for _, rec := range merged {
		if rec.TenantID == tenantID {
			out = append(out, clone(rec))
		}
	}
	slices.SortFunc(out, func(a, b store.Record) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

func (t *tx) Insert(ctx context.Context, rec store.Record) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.check(ctx); err != nil {
		return err
	}
	k := rowKey{rec.Collection, rec.ID}
	if _, ok := t.lookup(k); ok {
		return fmt.Errorf("%w: %s/%s", repository.ErrDuplicateKey, rec.Collection, rec.ID)
	}
	if _, ok := t.expects[k]; !ok {
		t.expects[k] = expect{absent: true}
	}
	t.writes[k] = write{rec: clone(rec)}
	return nil
}

func (t *tx) Update(ctx context.Context, rec store.Record, original []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.check(ctx); err != nil {
		return err
	}
	k := rowKey{rec.Collection, rec.ID}
	cur, ok := t.lookup(k)
	if !ok || cur.TenantID != rec.TenantID {
		return fmt.Errorf("%w: %s/%s", repository.ErrNotFound, rec.Collection, rec.ID)
	}
	if !bytes.Equal(cur.RowVersion, original) {
		return fmt.Errorf("%w: %s/%s", repository.ErrConcurrencyConflict, rec.Collection, rec.ID)
	}
	if _, ok := t.expects[k]; !ok {
		t.expects[k] = expect{version: bytes.Clone(original)}
	}
	t.writes[k] = write{rec: clone(rec)}
	return nil
}

func (t *tx) Delete(ctx context.Context, collection, id string, original []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.check(ctx); err != nil {
		return err
	}
	k := rowKey{collection, id}
	cur, ok := t.lookup(k)
	if !ok {
		return fmt.Errorf("%w: %s/%s", repository.ErrNotFound, collection, id)
	}
	if !bytes.Equal(cur.RowVersion, original) {
		return fmt.Errorf("%w: %s/%s", repository.ErrConcurrencyConflict, collection, id)
	}
	if _, ok := t.expects[k]; !ok {
		t.expects[k] = expect{version: bytes.Clone(original)}
	}
	t.writes[k] = write{deleted: true}
	return nil
}

// Commit revalida las expectativas y aplica el write-set de forma atómica.
// No observa la cancelación de ctx: un commit empezado se completa.
func (t *tx) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return store.ErrTxDone
	}
	t.done = true

	t.p.mu.Lock()
	defer t.p.mu.Unlock()
	if t.p.closed {
		return ErrClosed
	}

	for k, e := range t.expects {
		cur, ok := t.p.rows[k]
		switch {
		case e.absent && ok:
			return fmt.Errorf("%w: %s/%s", repository.ErrDuplicateKey, k.collection, k.id)
		case !e.absent && !ok:
			return fmt.Errorf("%w: %s/%s", repository.ErrConcurrencyConflict, k.collection, k.id)
		case !e.absent && !bytes.Equal(cur.RowVersion, e.version):
			return fmt.Errorf("%w: %s/%s", repository.ErrConcurrencyConflict, k.collection, k.id)
		}
	}

	// Un listado solo invalida transacciones que escriben.
	if len(t.writes) > 0 {
		for sk, fp := range t.scans {
			if t.p.fingerprint(sk) != fp {
				return fmt.Errorf("%w: %s of tenant %s changed", repository.ErrConcurrencyConflict, sk.collection, sk.tenantID)
			}
		}
	}

	for k, w := range t.writes {
		if w.deleted {
			delete(t.p.rows, k)
			continue
		}
		t.p.rows[k] = w.rec
	}
	return nil
}

func (t *tx) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return store.ErrTxDone
	}
	t.done = true
	t.writes = nil
	t.expects = nil
	t.scans = nil
	return nil
}

// fingerprint resume las filas confirmadas del tenant como "id:version"
// ordenados. Requiere p.mu tomado.
func (p *Provider) fingerprint(sk scanKey) string {
	var parts []string
	for k, rec := range p.rows {
		if k.collection == sk.collection && rec.TenantID == sk.tenantID {
			parts = append(parts, k.id+":"+hex.EncodeToString(rec.RowVersion))
		}
	}
	slices.Sort(parts)
	return strings.Join(parts, ",")
}

func clone(rec store.Record) store.Record {
	rec.RowVersion = bytes.Clone(rec.RowVersion)
	rec.Data = bytes.Clone(rec.Data)
	return rec
}
