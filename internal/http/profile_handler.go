package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"agrimarket/internal/service"
)

// ProfileHandler sirve el perfil de la sesión activa.
type ProfileHandler struct {
	logger      *zap.Logger
	profileServ *service.ProfileService
}

func NewProfileHandler(logger *zap.Logger, profileServ *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{logger: logger, profileServ: profileServ}
}

// GetProfile maneja GET /profile. Si el perfil falta se intenta
// recrear una vez desde los claims; si tampoco se puede, responde una
// vista de invitado degradada en lugar de fallar.
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
		return
	}

	profile, guest, err := h.profileServ.GetOrHeal(c.Request.Context(), claims)
	if err != nil {
		h.logger.Error("resolve profile failed", zap.Error(err), zap.String("user_id", claims.UserID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile, "guest": guest})
}
