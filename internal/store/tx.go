package store

import (
	"context"
	"errors"
	"fmt"
)

// Scope es el handle explícito de una transacción en curso. Viaja en el
// context.Context; las operaciones de repositorio que lo encuentran se unen a
// la transacción en lugar de abrir una nueva.
type Scope struct {
	tx          Tx
	provider    Provider
	tracked     map[trackKey]any
	afterCommit []func()
	onRollback  []func()
}

type trackKey struct {
	collection string
	id         string
}

type scopeKey struct{}

// ScopeFrom extrae el scope del contexto, o nil si no hay transacción activa.
func ScopeFrom(ctx context.Context) *Scope {
	if ctx == nil {
		return nil
	}
	s, _ := ctx.Value(scopeKey{}).(*Scope)
	return s
}

// Tx retorna la transacción del provider.
func (s *Scope) Tx() Tx { return s.tx }

// track registra una instancia trackeada o retorna la ya registrada.
func (s *Scope) track(collection, id string, entity any) any {
	k := trackKey{collection: collection, id: id}
	if prev, ok := s.tracked[k]; ok {
		return prev
	}
	if s.tracked == nil {
		s.tracked = make(map[trackKey]any)
	}
	s.tracked[k] = entity
	return entity
}

// forget quita una instancia trackeada (ej: después de un delete).
func (s *Scope) forget(collection, id string) {
	delete(s.tracked, trackKey{collection: collection, id: id})
}

// OnCommit encola fn para después de un commit exitoso del scope raíz.
// Si el scope termina en rollback, fn no se ejecuta.
func (s *Scope) OnCommit(fn func()) {
	s.afterCommit = append(s.afterCommit, fn)
}

// OnRollback encola fn para cuando el scope raíz termina sin commit. Se usa
// para revertir mutaciones en memoria (IDs asignados, RowVersion rotados).
// Los callbacks corren en orden inverso al de registro.
func (s *Scope) OnRollback(fn func()) {
	s.onRollback = append(s.onRollback, fn)
}

// RunInTransaction ejecuta fn dentro de una transacción de p.
//
// Si ctx ya trae un Scope, fn corre en él y el commit queda a cargo del
// llamador externo. Si no, abre una transacción, hace commit si fn retorna
// nil y rollback en cualquier otra salida (error o panic). La cancelación se
// chequea antes de abrir la transacción; un commit completado no se revierte.
func RunInTransaction(ctx context.Context, p Provider, fn func(ctx context.Context) error) (err error) {
	if s := ScopeFrom(ctx); s != nil {
		if s.provider != p {
			return errors.New("store: nested transaction on a different provider")
		}
		return fn(ctx)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	tx, err := p.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	scope := &Scope{tx: tx, provider: p}
	committed := false
	defer func() {
		if committed {
			return
		}
		for i := len(scope.onRollback) - 1; i >= 0; i-- {
			scope.onRollback[i]()
		}
		// El rollback corre aunque ctx esté cancelado.
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, ErrTxDone) && err != nil {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
	}()

	if err = fn(context.WithValue(ctx, scopeKey{}, scope)); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true

	for _, f := range scope.afterCommit {
		f()
	}
	return nil
}
