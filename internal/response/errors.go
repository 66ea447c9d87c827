package response

import "net/http"

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication / Authorization ────────────────────────────────
	ErrTokenRequired   ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid    ErrCode = "TOKEN_INVALID"
	ErrAdminAccessOnly ErrCode = "ADMIN_ACCESS_ONLY"
	ErrAdminExists     ErrCode = "ADMIN_ALREADY_EXISTS"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"
	ErrNPMRequired    ErrCode = "NPM_REQUIRED"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrClassroomNotFound ErrCode = "CLASSROOM_NOT_FOUND"
	ErrUserNotFound      ErrCode = "USER_NOT_FOUND"
	ErrAccountNotFound   ErrCode = "ACCOUNT_NOT_FOUND"
	ErrConflict          ErrCode = "CONFLICT"

	// ─── Exam lifecycle ────────────────────────────────────────────────
	ErrUserInactive   ErrCode = "USER_INACTIVE"
	ErrExamNotOpen    ErrCode = "EXAM_WINDOW_NOT_OPEN"
	ErrExamClosed     ErrCode = "EXAM_WINDOW_CLOSED"
	ErrExamNotRunning ErrCode = "EXAM_NOT_RUNNING"

	// ─── External services ─────────────────────────────────────────────
	ErrExternalJudge ErrCode = "JUDGE_SERVICE_ERROR"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// HTTPStatus maps an error code to its transport status. This is the single
// place where the error taxonomy meets HTTP; handlers never pick a status
// for a code themselves.
func HTTPStatus(code ErrCode) int {
	switch code {
	case ErrTokenRequired, ErrTokenInvalid, ErrUserInactive, ErrExamNotOpen, ErrExamClosed:
		return http.StatusUnauthorized
	case ErrAdminAccessOnly:
		return http.StatusForbidden
	case ErrValidation, ErrInvalidID, ErrInvalidPayload, ErrNPMRequired, ErrAdminExists, ErrExamNotRunning:
		return http.StatusBadRequest
	case ErrClassroomNotFound, ErrUserNotFound, ErrAccountNotFound:
		return http.StatusNotFound
	case ErrConflict:
		return http.StatusConflict
	case ErrExternalJudge:
		return http.StatusBadGateway
	case ErrRateLimitExceeded:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication / Authorization ────────────────────────────────
	case ErrTokenRequired:
		return "Token autentikasi diperlukan."
	case ErrTokenInvalid:
		return "Token autentikasi tidak valid."
	case ErrAdminAccessOnly:
		return "Sumber daya ini terbatas untuk administrator."
	case ErrAdminExists:
		return "Admin sudah terdaftar, silakan hubungi admin yang ada."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validasi gagal. Silakan periksa masukan Anda."
	case ErrInvalidID:
		return "Format ID tidak valid."
	case ErrInvalidPayload:
		return "Payload permintaan tidak valid."
	case ErrNPMRequired:
		return "NPM wajib diisi."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrClassroomNotFound:
		return "Kelas tidak ditemukan."
	case ErrUserNotFound:
		return "Pengguna tidak ditemukan."
	case ErrAccountNotFound:
		return "Akun tidak ditemukan."
	case ErrConflict:
		return "Sumber daya sudah ada."

	// ─── Exam lifecycle ────────────────────────────────────────────────
	case ErrUserInactive:
		return "Pengguna sudah tidak aktif."
	case ErrExamNotOpen:
		return "Ujian belum dibuka."
	case ErrExamClosed:
		return "Ujian sudah ditutup."
	case ErrExamNotRunning:
		return "Ujian belum dimulai untuk pengguna ini."

	// ─── External services ─────────────────────────────────────────────
	case ErrExternalJudge:
		return "Permintaan ke layanan eksekusi kode gagal."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Terlalu banyak permintaan. Silakan coba lagi nanti."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Terjadi kesalahan server internal."
	default:
		return "Terjadi kesalahan yang tidak terduga."
	}
}
