// Package repository define los contratos de persistencia del dominio.
//
// Estas interfaces representan contratos de negocio, independientes del
// almacenamiento subyacente (PostgreSQL, memoria, etc.). El motor genérico
// que las implementa vive en internal/store; los drivers concretos en
// internal/store/adapters/.
//
// Arquitectura:
//
//	┌─────────────────────────────────────────────────────┐
//	│        Services (tenants, users) / Controllers      │
//	└─────────────────────────────────────────────────────┘
//	                        │
//	                        ▼
//	┌─────────────────────────────────────────────────────┐
//	│   domain/repository (Repository[E,K], Options)      │
//	└─────────────────────────────────────────────────────┘
//	                        │
//	                        ▼
//	┌─────────────────────────────────────────────────────┐
//	│   store (motor genérico + transacciones + gate)     │
//	└─────────────────────────────────────────────────────┘
//	                        │
//	         ┌──────────────┴──────────────┐
//	         ▼                             ▼
//	┌─────────────┐               ┌─────────────┐
//	│  adapters/  │               │  adapters/  │
//	│     pg      │               │   memory    │
//	└─────────────┘               └─────────────┘
//
// Convenciones:
//   - TenantID se pasa explícitamente en todas las operaciones tenant-scoped
//   - Context siempre es el primer parámetro
//   - Las opciones de lectura se construyen con OptionsBuilder
//   - Errores de dominio están en errors.go
package repository
