package handlers

import (
	agentRepo "calibook/database/repository/agent"
	appointmentRepo "calibook/database/repository/appointment"
	blacklistRepo "calibook/database/repository/blacklist"
	pricingRepo "calibook/database/repository/pricing"
	providerRepo "calibook/database/repository/provider"
	scheduleRepo "calibook/database/repository/schedule"
	sessionRepo "calibook/database/repository/session"
	"calibook/services/booking"
	"calibook/services/session"
)

// HandlerBundle groups every handler dependency for route registration.
type HandlerBundle struct {
	Engine  *session.Engine
	Arbiter *booking.Arbiter

	ProviderRepo    providerRepo.ProviderRepository
	AgentRepo       agentRepo.AgentRepository
	ScheduleRepo    scheduleRepo.ScheduleRepository
	PricingRepo     pricingRepo.PricingRepository
	AppointmentRepo appointmentRepo.AppointmentRepository
	SessionRepo     sessionRepo.SessionRepository
	BlacklistRepo   blacklistRepo.BlacklistRepository
}
