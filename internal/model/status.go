package model

import "time"

// Tone is the colour family of a status badge.
type Tone string

// Badge tones.
const (
	ToneNeutral Tone = "neutral"
	ToneInfo    Tone = "info"
	ToneSuccess Tone = "success"
	ToneWarning Tone = "warning"
	ToneDanger  Tone = "danger"
)

// Badge is a status rendered for display.
type Badge struct {
	Label string
	Tone  Tone
}

var projectBadges = map[string]Badge{
	ProjectPending:    {"En attente", ToneNeutral},
	ProjectPlanning:   {"Planification", ToneInfo},
	ProjectInProgress: {"En cours", ToneInfo},
	ProjectReview:     {"En revue", ToneWarning},
	ProjectCompleted:  {"Terminé", ToneSuccess},
	ProjectOnHold:     {"En pause", ToneWarning},
	ProjectCancelled:  {"Annulé", ToneDanger},
}

var orderBadges = map[string]Badge{
	OrderPending:   {"En attente", ToneWarning},
	OrderConfirmed: {"Confirmée", ToneInfo},
	OrderPreparing: {"En préparation", ToneInfo},
	OrderShipped:   {"Expédiée", ToneInfo},
	OrderDelivered: {"Livrée", ToneSuccess},
	OrderCancelled: {"Annulée", ToneDanger},
	OrderRefunded:  {"Remboursée", ToneNeutral},
}

var paymentBadges = map[string]Badge{
	PaymentPending:  {"En attente", ToneWarning},
	PaymentPaid:     {"Payé", ToneSuccess},
	PaymentFailed:   {"Échoué", ToneDanger},
	PaymentRefunded: {"Remboursé", ToneNeutral},
}

var reservationBadges = map[string]Badge{
	ReservationPending:    {"En attente", ToneWarning},
	ReservationConfirmed:  {"Confirmée", ToneInfo},
	ReservationCheckedIn:  {"Arrivé", ToneSuccess},
	ReservationCheckedOut: {"Parti", ToneNeutral},
	ReservationCancelled:  {"Annulée", ToneDanger},
}

var productBadges = map[string]Badge{
	ProductDraft:    {"Brouillon", ToneNeutral},
	ProductActive:   {"Actif", ToneSuccess},
	ProductArchived: {"Archivé", ToneNeutral},
}

var conversationBadges = map[string]Badge{
	ConversationActive: {"Active", ToneSuccess},
	ConversationClosed: {"Fermée", ToneNeutral},
}

var roleBadges = map[string]Badge{
	RoleAdmin: {"Administrateur", ToneDanger},
	RoleStaff: {"Personnel", ToneInfo},
	RoleUser:  {"Client", ToneNeutral},
}

func lookup(badges map[string]Badge, status string) Badge {
	if b, ok := badges[status]; ok {
		return b
	}
	return Badge{Label: status, Tone: ToneNeutral}
}

// ProjectBadge returns the display badge of a project status.
func ProjectBadge(status string) Badge { return lookup(projectBadges, status) }

// OrderBadge returns the display badge of an order status.
func OrderBadge(status string) Badge { return lookup(orderBadges, status) }

// PaymentBadge returns the display badge of a payment status.
func PaymentBadge(status string) Badge { return lookup(paymentBadges, status) }

// ReservationBadge returns the display badge of a reservation status.
func ReservationBadge(status string) Badge { return lookup(reservationBadges, status) }

// ProductBadge returns the display badge of a product status.
func ProductBadge(status string) Badge { return lookup(productBadges, status) }

// ConversationBadge returns the display badge of a conversation status.
func ConversationBadge(status string) Badge { return lookup(conversationBadges, status) }

// RoleBadge returns the display badge of a user role.
func RoleBadge(role string) Badge { return lookup(roleBadges, role) }

// MilestoneBadge classifies a milestone: done, overdue or in progress.
// Milestones without a due date are never overdue.
func MilestoneBadge(m Milestone, now time.Time) Badge {
	switch {
	case m.Completed:
		return Badge{"Terminé", ToneSuccess}
	case !m.DueDate.IsZero() && m.DueDate.Before(now):
		return Badge{"En retard", ToneDanger}
	default:
		return Badge{"En cours", ToneInfo}
	}
}
