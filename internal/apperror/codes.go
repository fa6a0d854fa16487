package apperror

const (
	// 报表相关
	CodeSheetNotFound   = "SHEET_NOT_FOUND"
	CodeEmptyFile       = "EMPTY_FILE"
	CodeUnreadableFile  = "UNREADABLE_FILE"
	CodeHeaderNotFound  = "HEADER_NOT_FOUND"
	CodeMissingHeaders  = "MISSING_HEADERS"
	CodeAudioTooLarge   = "AUDIO_TOO_LARGE"
	CodeNoEmployee      = "NO_EMPLOYEE_SELECTED"
	CodeNoDraft         = "NO_DRAFT"
	CodeInvalidCommand  = "INVALID_COMMAND"
	CodeUnknownLocale   = "UNKNOWN_LOCALE"
	CodeRateLimited     = "RATE_LIMITED"
	CodeGenerationBusy  = "GENERATION_IN_PROGRESS"
	CodeAINotConfigured = "AI_NOT_CONFIGURED"

	// 通用客户端错误
	CodeInvalidInput = "INVALID_INPUT"
	CodeNotFound     = "NOT_FOUND"

	// 服务端错误
	CodeGenerationFailed = "GENERATION_FAILED"
	CodeExportFailed     = "EXPORT_FAILED"
	CodeInternalError    = "INTERNAL_ERROR"
)
