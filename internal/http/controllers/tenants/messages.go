package tenants

// Mensajes de la API de tenants.
const (
	MsgNotFound           = "Tenant not found"
	MsgAlreadyExists      = "Tenant already exists"
	MsgCreated            = "Tenant created successfully"
	MsgUpdated            = "Tenant updated"
	MsgDeleted            = "Tenant deleted"
	MsgTenantIDMissing    = "Tenant Id is required."
	MsgTenantDataRequired = "Tenant data is required in the request body."
	MsgFailedToCreate     = "Failed to create tenant."
	MsgFailedToUpdate     = "Failed to update tenant."
	MsgFailedToDelete     = "Failed to delete tenant."
)
