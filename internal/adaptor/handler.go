package adaptor

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"user-backend/internal/usecase"
	"user-backend/pkg/apperror"
	"user-backend/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	Auth   *AuthHandler
	User   *UserHandler
	Upload *UploadHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger, config *utils.Config) *Handler {
	return &Handler{
		Auth:   NewAuthHandler(service.Auth, log, config),
		User:   NewUserHandler(service.User, log, config),
		Upload: NewUploadHandler(service.Upload, log, config),
	}
}

// errorResponder is shared by every handler: known failures are answered
// from their code, anything else is logged with request context and hidden
// behind a 500.
type errorResponder struct {
	log    *zap.Logger
	config *utils.Config
}

func (e errorResponder) handleServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	if appErr, ok := apperror.As(err); ok {
		if apperror.HTTPStatus(appErr.Code) >= http.StatusInternalServerError {
			e.log.Error(operation+" failed", zap.Error(err))
		} else {
			logFields := []zap.Field{
				zap.String("code", string(appErr.Code)),
				zap.String("message", appErr.Message),
			}
			if len(appErr.Fields) > 0 {
				logFields = append(logFields, zap.String("fields", utils.FormatValidationErrors(appErr.Fields)))
			}
			e.log.Debug(operation+" rejected", logFields...)
		}
		utils.ResponseAppError(w, appErr)
		return
	}

	fields := []zap.Field{
		zap.Error(err),
		zap.String("operation", operation),
		zap.String("url", r.URL.String()),
		zap.String("method", r.Method),
		zap.String("ip", r.RemoteAddr),
	}
	if userID, ok := utils.GetUserIDFromContext(r.Context()); ok {
		fields = append(fields, zap.String("user_id", userID.String()))
	}
	stack := string(debug.Stack())
	e.log.Error("Unhandled error", append(fields, zap.String("stack", stack))...)

	if e.config != nil && e.config.App.IsProduction() {
		utils.ResponseInternalError(w, "Internal server error")
		return
	}
	utils.ResponseInternalErrorDetailed(w, fmt.Sprintf("Internal server error: %v", err), stack)
}

// decodeJSON reads the request body into dst and answers 400 when it is not
// valid JSON.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			utils.ResponseBadRequest(w, "Request body too large", nil)
			return false
		}
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return false
	}
	return true
}
