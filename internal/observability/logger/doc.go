// Package logger expone el logger Zap del proceso y su propagación por contexto.
//
// Init se llama una vez desde cmd/tenantadmin con la sección log de la
// configuración. Los middlewares HTTP inyectan un logger con request_id vía
// ToContext; el resto del código lo recupera con From(ctx) y cae al singleton
// cuando no hay uno en el contexto.
//
//	log := logger.From(ctx)
//	log.Info("tenant created", logger.TenantID(t.ID))
//
// Los campos estándar (fields.go) mantienen los nombres de las claves
// consistentes entre capas.
package logger
