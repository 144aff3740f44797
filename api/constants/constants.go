package constants

// Common transport error messages
const (
	ErrInvalidJSON      = "corpo da requisicao invalido"
	ErrMethodNotAllowed = "Method Not Allowed"
	ErrStatsUnavailable = "contadores ainda nao disponiveis"
)

// File upload errors
const (
	ErrInvalidMultipart  = "upload multipart invalido"
	ErrFileRequired      = "arquivo nao enviado"
	ErrUnsupportedFormat = "formato nao suportado (csv, xls ou xlsx)"
	ErrNoValidRows       = "nenhuma linha valida no arquivo"
)

// Content types
const (
	HeaderContentType = "Content-Type"
	ContentTypeJSON   = "application/json"
	ContentTypeXLSX   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)
