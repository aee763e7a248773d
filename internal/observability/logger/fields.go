package logger

import (
	"time"

	"go.uber.org/zap"
)

// Field es un alias de zap.Field.
type Field = zap.Field

// ─── HTTP ───

func RequestID(v string) zap.Field { return zap.String("request_id", v) }

func Method(v string) zap.Field { return zap.String("method", v) }

func Path(v string) zap.Field { return zap.String("path", v) }

func Status(v int) zap.Field { return zap.Int("status", v) }

func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }

func ClientIP(v string) zap.Field { return zap.String("client_ip", v) }

// ─── Dominio ───

// TenantID es el tenant sobre el que opera la llamada.
func TenantID(v string) zap.Field { return zap.String("tenant_id", v) }

func UserID(v string) zap.Field { return zap.String("user_id", v) }

// Entity es el nombre del tipo persistido (ej: "Tenant", "User").
func Entity(v string) zap.Field { return zap.String("entity", v) }

// EntityID es la clave de la entidad, ya serializada.
func EntityID(v string) zap.Field { return zap.String("entity_id", v) }

// Email se loguea solo en debug/warn de flujos de alta.
func Email(v string) zap.Field { return zap.String("email", v) }

// ─── Sistema ───

func Component(v string) zap.Field { return zap.String("component", v) }

// Op es la operación de repositorio o servicio (ej: "create", "update_batch").
func Op(v string) zap.Field { return zap.String("op", v) }

func Driver(v string) zap.Field { return zap.String("driver", v) }

func Err(err error) zap.Field { return zap.Error(err) }

func Count(v int) zap.Field { return zap.Int("count", v) }

func String(key, v string) zap.Field { return zap.String(key, v) }

func Any(key string, v any) zap.Field { return zap.Any(key, v) }

// Layer identifica la capa que loguea (controller, service, repository).
func Layer(v string) zap.Field { return zap.String("layer", v) }
