package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"
	ErrTokenExpired  ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden         ErrCode = "FORBIDDEN"
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"
	ErrTeacherAccessOnly ErrCode = "TEACHER_ACCESS_ONLY"
	ErrAccessDenied      ErrCode = "ACCESS_DENIED"
	ErrNotTestOwner      ErrCode = "NOT_TEST_OWNER"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound         ErrCode = "NOT_FOUND"
	ErrTestNotFound     ErrCode = "TEST_NOT_FOUND"
	ErrQuestionNotFound ErrCode = "QUESTION_NOT_FOUND"
	ErrAttemptNotFound  ErrCode = "ATTEMPT_NOT_FOUND"
	ErrConflict         ErrCode = "CONFLICT"

	// ─── Attempt lifecycle ─────────────────────────────────────────────
	ErrAttemptCompleted ErrCode = "ATTEMPT_COMPLETED"
	ErrTimeExpired      ErrCode = "TIME_EXPIRED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrTokenRequired:
		return "Требуется токен авторизации."
	case ErrTokenInvalid:
		return "Недействительный токен авторизации."
	case ErrTokenExpired:
		return "Срок действия токена истёк."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "У вас нет доступа к этому ресурсу."
	case ErrStudentAccessOnly:
		return "Ресурс доступен только ученикам."
	case ErrTeacherAccessOnly:
		return "Ресурс доступен только учителям."
	case ErrAccessDenied:
		return "Тест сейчас недоступен для вас."
	case ErrNotTestOwner:
		return "Вы не являетесь автором этого теста."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Ошибка проверки данных. Проверьте введённые значения."
	case ErrInvalidID:
		return "Неверный формат идентификатора."
	case ErrInvalidPayload:
		return "Некорректное тело запроса."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Ресурс не найден."
	case ErrTestNotFound:
		return "Тест не найден."
	case ErrQuestionNotFound:
		return "Вопрос не относится к этому тесту."
	case ErrAttemptNotFound:
		return "Попытка не найдена."
	case ErrConflict:
		return "Ресурс уже существует."

	// ─── Attempt lifecycle ─────────────────────────────────────────────
	case ErrAttemptCompleted:
		return "Попытка уже завершена."
	case ErrTimeExpired:
		return "Время на выполнение теста истекло. Попытка завершена автоматически."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Слишком много запросов. Попробуйте позже."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Внутренняя ошибка сервера."
	default:
		return "Произошла непредвиденная ошибка."
	}
}
