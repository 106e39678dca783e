package handlers

import (
	"time"

	"discoveryserver/domain"
)

// fromRegisterRequest converts RegisterRequest to domain.Registration. Validation is left to the registry.
func fromRegisterRequest(svc string, req RegisterRequest) domain.Registration {
	return domain.Registration{
		Service:    svc,
		InstanceID: req.InstanceId,
		Address:    req.Address,
		Status:     domain.Status(deref(req.Status)),
		Metadata:   deref(req.Metadata),
		TTL:        time.Duration(deref(req.TtlMs)) * time.Millisecond,
	}
}

// deref returns *p, or the zero value for a nil p.
func deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}
