package service

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"go.uber.org/zap"

	"agrimarket/internal/domain"
)

// AgentService sirve el resumen de actividad de un agente de campo. Mientras
// no exista un módulo de órdenes los números se simulan dentro de los rangos
// del panel original.
type AgentService struct {
	logger *zap.Logger
	mu     sync.Mutex
	rng    *rand.Rand
}

// AgentStats resume la actividad del territorio de un agente.
type AgentStats struct {
	TotalFarmers    int     `json:"total_farmers"`
	MonthlyRevenue  float64 `json:"monthly_revenue"`
	PendingOrders   int     `json:"pending_orders"`
	CompletedOrders int     `json:"completed_orders"`
	Territory       string  `json:"territory"`
	Commission      float64 `json:"commission"`
}

const agentCommissionRate = 0.15

func NewAgentService(logger *zap.Logger, seed int64) *AgentService {
	return &AgentService{
		logger: logger,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Stats genera el resumen para el perfil del agente. La comisión es el 15%
// del ingreso mensual.
func (s *AgentService) Stats(profile domain.Profile) AgentStats {
	location := strings.TrimSpace(profile.Location)
	if location == "" {
		location = "Local Area"
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	revenue := float64(s.rng.Intn(2000) + 500)
	return AgentStats{
		TotalFarmers:    s.rng.Intn(50) + 10,
		MonthlyRevenue:  revenue,
		PendingOrders:   s.rng.Intn(15) + 3,
		CompletedOrders: s.rng.Intn(45) + 20,
		Territory:       fmt.Sprintf("%s - %dkm radius", location, s.rng.Intn(10)+5),
		Commission:      revenue * agentCommissionRate,
	}
}
