package store

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/tenantadmin/internal/domain/repository"
	"github.com/dropDatabas3/tenantadmin/internal/observability/logger"
)

// Colecciones de las entidades del dominio.
const (
	CollectionTenants = "tenants"
	CollectionUsers   = "users"
)

// NavigationLoader completa una navegación sobre las entidades ya leídas,
// dentro de la misma transacción.
type NavigationLoader[E any] func(ctx context.Context, tx Tx, items []E) error

// Observer recibe el resultado de cada operación de repositorio.
type Observer interface {
	ObserveOperation(entity, op string, err error, d time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveOperation(string, string, error, time.Duration) {}

// Option configura un repositorio.
type Option[E any] func(*settings[E])

type settings[E any] struct {
	collection string
	log        *zap.Logger
	observer   Observer
	navs       map[string]NavigationLoader[E]
}

// WithCollection fija el nombre de la colección. Default: nombre del tipo en
// minúsculas más "s".
func WithCollection[E any](name string) Option[E] {
	return func(s *settings[E]) { s.collection = name }
}

// WithLogger fija el logger. Default: logger.L() con nombre "repository".
func WithLogger[E any](l *zap.Logger) Option[E] {
	return func(s *settings[E]) { s.log = l }
}

// WithObserver registra un observer de operaciones (ej: métricas).
func WithObserver[E any](o Observer) Option[E] {
	return func(s *settings[E]) { s.observer = o }
}

// WithNavigationLoader registra el loader de una navegación.
func WithNavigationLoader[E any](name string, fn NavigationLoader[E]) Option[E] {
	return func(s *settings[E]) {
		if s.navs == nil {
			s.navs = make(map[string]NavigationLoader[E])
		}
		s.navs[name] = fn
	}
}

// engine concentra lo que comparten Repository y TenantRepository: ejecución
// transaccional, logging clasificado, materialización y forma de lecturas.
type engine[E repository.TenantEntity[K], K comparable] struct {
	provider   Provider
	collection string
	entity     string
	log        *zap.Logger
	observer   Observer
	navs       map[string]NavigationLoader[E]
}

func newEngine[E repository.TenantEntity[K], K comparable](p Provider, opts []Option[E]) engine[E, K] {
	var s settings[E]
	for _, o := range opts {
		o(&s)
	}

	name := entityName[E]()
	if s.collection == "" {
		s.collection = strings.ToLower(name) + "s"
	}
	if s.log == nil {
		s.log = logger.Named("repository")
	}
	if s.observer == nil {
		s.observer = nopObserver{}
	}

	return engine[E, K]{
		provider:   p,
		collection: s.collection,
		entity:     name,
		log:        s.log.With(logger.Entity(name)),
		observer:   s.observer,
		navs:       s.navs,
	}
}

func entityName[E any]() string {
	t := reflect.TypeOf((*E)(nil)).Elem()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

// exec corre fn dentro de la transacción y clasifica el resultado para el log.
// Nunca reintenta.
func (r *engine[E, K]) exec(ctx context.Context, op, tenantID, id string, fn func(ctx context.Context, tx Tx) error) error {
	start := time.Now()
	err := RunInTransaction(ctx, r.provider, func(ctx context.Context) error {
		return fn(ctx, ScopeFrom(ctx).Tx())
	})
	r.observer.ObserveOperation(r.entity, op, err, time.Since(start))
	if err != nil {
		r.logFailure(op, tenantID, id, err)
	}
	return err
}

// reject registra un error detectado antes de tocar el store.
func (r *engine[E, K]) reject(op, tenantID, id string, err error) error {
	r.observer.ObserveOperation(r.entity, op, err, 0)
	r.logFailure(op, tenantID, id, err)
	return err
}

func (r *engine[E, K]) logFailure(op, tenantID, id string, err error) {
	fields := []zap.Field{logger.Op(op), logger.TenantID(tenantID), logger.EntityID(id), logger.Err(err)}
	switch {
	case repository.IsConcurrencyConflict(err):
		r.log.Warn("concurrency conflict", fields...)
	case repository.IsInvalidInput(err), repository.IsTenantMismatch(err), repository.IsDuplicateKey(err), repository.IsNotFound(err):
		r.log.Warn("operation rejected", fields...)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		r.log.Info("operation canceled", fields...)
	default:
		r.log.Error("operation failed", fields...)
	}
}

// checkNavigations valida los nombres antes de cualquier I/O.
func (r *engine[E, K]) checkNavigations(opts repository.Options[E, K]) error {
	for _, name := range opts.NavigationProperties() {
		if _, ok := r.navs[name]; !ok {
			return invalidArg("navigation", "unknown: "+name)
		}
	}
	return nil
}

// materialize decodifica los registros en el orden de ids aplicando el modo
// de lectura. ids puede repetir valores; los ausentes en recs se omiten.
func (r *engine[E, K]) materialize(ctx context.Context, recs []Record, ids []string, mode repository.ReadMode) ([]E, error) {
	byID := make(map[string]Record, len(recs))
	for _, rec := range recs {
		byID[rec.ID] = rec
	}

	scope := ScopeFrom(ctx)
	var resolved map[string]E
	if mode == repository.ReadModeIdentityResolution {
		resolved = make(map[string]E, len(recs))
	}

	out := make([]E, 0, len(ids))
	for _, id := range ids {
		rec, ok := byID[id]
		if !ok {
			continue
		}
		if e, ok := resolved[id]; ok {
			out = append(out, e)
			continue
		}

		e, err := decode[E](rec)
		if err != nil {
			return nil, err
		}
		e.SetTenantID(rec.TenantID)
		e.SetRowVersion(rec.RowVersion)

		switch mode {
		case repository.ReadModeTracked:
			e = scope.track(r.collection, id, e).(E)
		case repository.ReadModeIdentityResolution:
			resolved[id] = e
		}
		out = append(out, e)
	}
	return out, nil
}

// read materializa, da forma y carga navegaciones.
func (r *engine[E, K]) read(ctx context.Context, tx Tx, recs []Record, ids []string, opts repository.Options[E, K]) ([]E, error) {
	items, err := r.materialize(ctx, recs, ids, opts.ReadMode())
	if err != nil {
		return nil, err
	}
	items = shape(items, opts)
	for _, name := range opts.NavigationProperties() {
		if err := r.navs[name](ctx, tx, items); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// stamp rota el RowVersion en memoria y lo restaura si el scope no confirma.
func (r *engine[E, K]) stamp(ctx context.Context, entity E, v []byte) {
	prev := entity.GetRowVersion()
	entity.SetRowVersion(v)
	ScopeFrom(ctx).OnRollback(func() { entity.SetRowVersion(prev) })
}

func (r *engine[E, K]) record(entity E, v []byte) (Record, error) {
	data, err := encode(entity)
	if err != nil {
		return Record{}, err
	}
	return Record{
		Collection: r.collection,
		ID:         keyString(entity.GetID()),
		TenantID:   entity.GetTenantID(),
		RowVersion: v,
		Data:       data,
	}, nil
}

func recordIDs(recs []Record) []string {
	ids := make([]string, len(recs))
	for i, rec := range recs {
		ids[i] = rec.ID
	}
	return ids
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
