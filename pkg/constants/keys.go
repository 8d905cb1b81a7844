package constants

// Context Keys
const (
	ContextKeyPrincipal = "principal"
	ContextKeyToken     = "token"
)

// HTTP headers
const (
	HeaderAuthorization = "Authorization"
	BearerPrefix        = "Bearer "
)

// Response keys
const (
	ResponseError = "error"
	FieldMessage  = "message"
	FieldData     = "data"
	FieldCode     = "code"
)
