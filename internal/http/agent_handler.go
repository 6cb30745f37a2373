package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"agrimarket/internal/domain"
	"agrimarket/internal/service"
)

// AgentHandler sirve el panel del agente de campo.
type AgentHandler struct {
	logger      *zap.Logger
	agentServ   *service.AgentService
	profileServ *service.ProfileService
}

func NewAgentHandler(logger *zap.Logger, agentServ *service.AgentService, profileServ *service.ProfileService) *AgentHandler {
	return &AgentHandler{logger: logger, agentServ: agentServ, profileServ: profileServ}
}

// GetStats maneja GET /agent/stats. Sólo perfiles de agente.
func (h *AgentHandler) GetStats(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
		return
	}

	profile, _, err := h.profileServ.GetOrHeal(c.Request.Context(), claims)
	if err != nil {
		h.logger.Error("resolve profile failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load profile"})
		return
	}
	if profile.UserType != domain.UserTypeAgent {
		c.JSON(http.StatusForbidden, gin.H{"error": "agent profile required"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": h.agentServ.Stats(profile)})
}
