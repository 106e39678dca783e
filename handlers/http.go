// Package handlers contains the HTTP transport of the registry.
package handlers

import (
	"fmt"
	"net/http"

	"discoveryserver/adapters/peerhttp"
	"discoveryserver/domain"
	"discoveryserver/helpers"
	"discoveryserver/interfaces"
	"discoveryserver/service"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/labstack/echo/v4"
)

// HTTPServer implements ServerInterface on top of the registry core.
type HTTPServer struct {
	registry interfaces.Registry
	logger   log.Logger
}

// NewHTTPServer creates a new HTTPServer.
func NewHTTPServer(registry interfaces.Registry, logger log.Logger) *HTTPServer {
	logger = log.WithPrefix(helpers.NilPanic(logger, "handlers.http.go: logger is required"), "component", "HTTPServer")
	return &HTTPServer{
		registry: helpers.NilPanic(registry, "handlers.http.go: registry is required"),
		logger:   logger,
	}
}

// ListServices (GET /v1/services) returns the active instances of every service.
func (h *HTTPServer) ListServices(ectx echo.Context) error {
	return ectx.JSON(http.StatusOK, toServicesResponse(h.registry.Query("")))
}

// GetService (GET /v1/services/{service}) returns the active instances of one service.
// An unknown service is an empty list, not an error.
func (h *HTTPServer) GetService(ectx echo.Context, svc string) error {
	return ectx.JSON(http.StatusOK, toInstancesResponse(svc, h.registry.Query(svc)))
}

// RegisterInstance (POST /v1/services/{service}/instances) creates or replaces a lease.
// Returns 200 with the lease, 400 on parse/validation error.
func (h *HTTPServer) RegisterInstance(ectx echo.Context, svc string) error {
	var req RegisterRequest
	if err := ectx.Bind(&req); err != nil {
		return service.NewBadParameterError("invalid request body", err)
	}

	lease, err := h.registry.Register(fromRegisterRequest(svc, req))
	if err != nil {
		return fmt.Errorf("registerInstance failed to register %s/%s, err: %w", svc, req.InstanceId, err)
	}

	return ectx.JSON(http.StatusOK, toLeaseResponse(lease))
}

// RenewInstance (PUT .../{instance_id}/heartbeat) renews a lease. 404 tells the client to register again.
func (h *HTTPServer) RenewInstance(ectx echo.Context, svc string, instanceId string) error {
	lease, err := h.registry.Renew(svc, instanceId)
	if err != nil {
		return fmt.Errorf("renewInstance failed, err: %w", err)
	}

	return ectx.JSON(http.StatusOK, toLeaseResponse(lease))
}

// SetInstanceStatus (PUT .../{instance_id}/status) changes the reported status of an instance.
func (h *HTTPServer) SetInstanceStatus(ectx echo.Context, svc string, instanceId string) error {
	var req StatusRequest
	if err := ectx.Bind(&req); err != nil {
		return service.NewBadParameterError("invalid request body", err)
	}

	lease, err := h.registry.SetStatus(svc, instanceId, domain.Status(req.Status))
	if err != nil {
		return fmt.Errorf("setInstanceStatus failed, err: %w", err)
	}

	return ectx.JSON(http.StatusOK, toLeaseResponse(lease))
}

// CancelInstance (DELETE .../{instance_id}) removes a lease immediately.
func (h *HTTPServer) CancelInstance(ectx echo.Context, svc string, instanceId string) error {
	if err := h.registry.Cancel(svc, instanceId); err != nil {
		return fmt.Errorf("cancelInstance failed, err: %w", err)
	}

	return ectx.NoContent(http.StatusNoContent)
}

// GetNodeStatus (GET /v1/status) reports self-preservation and peer replication state.
func (h *HTTPServer) GetNodeStatus(ectx echo.Context) error {
	return ectx.JSON(http.StatusOK, toNodeStatusResponse(h.registry.Status()))
}

// Replicate (POST /v1/peers/replicate) merges a batch pushed by a peer.
// Returns 400 when any task of the batch is invalid; valid tasks of the batch are still applied.
func (h *HTTPServer) Replicate(ectx echo.Context) error {
	var req peerhttp.TasksPayload
	if err := ectx.Bind(&req); err != nil {
		return service.NewBadParameterError("invalid replication batch", err)
	}

	applied, err := h.registry.ApplyReplication(req.Tasks)
	if err != nil {
		return fmt.Errorf("replicate failed after %d applied tasks, err: %w", applied, err)
	}
	level.Debug(h.logger).Log("msg", "replication batch merged", "tasks", len(req.Tasks), "applied", applied)

	return ectx.JSON(http.StatusOK, ReplicateResponse{Applied: applied})
}

// GetSnapshot (GET /v1/peers/snapshot) exports the full local state for a peer's reconciliation.
func (h *HTTPServer) GetSnapshot(ectx echo.Context) error {
	tasks := h.registry.Export()
	if tasks == nil {
		tasks = []domain.ReplicationTask{}
	}
	return ectx.JSON(http.StatusOK, peerhttp.TasksPayload{Tasks: tasks})
}
