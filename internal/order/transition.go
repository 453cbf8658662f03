package order

import (
	"scanorder-backend/internal/models"
)

// TransitionPolicy decides whether an order may move from one status to another.
type TransitionPolicy interface {
	Allowed(from, to models.OrderStatus) bool
}

// PermissivePolicy accepts any known status from any state.
type PermissivePolicy struct{}

func (PermissivePolicy) Allowed(from, to models.OrderStatus) bool {
	return to.Valid()
}

// StrictPolicy only allows the forward kitchen flow plus cancellation of
// non-terminal orders. Completed and cancelled are terminal.
type StrictPolicy struct{}

var strictTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:   {models.OrderStatusConfirmed, models.OrderStatusCancelled},
	models.OrderStatusConfirmed: {models.OrderStatusPreparing, models.OrderStatusCancelled},
	models.OrderStatusPreparing: {models.OrderStatusReady, models.OrderStatusCancelled},
	models.OrderStatusReady:     {models.OrderStatusCompleted, models.OrderStatusCancelled},
}

func (StrictPolicy) Allowed(from, to models.OrderStatus) bool {
	for _, next := range strictTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func PolicyFor(strict bool) TransitionPolicy {
	if strict {
		return StrictPolicy{}
	}
	return PermissivePolicy{}
}
