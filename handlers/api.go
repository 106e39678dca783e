package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// RegisterRequest is the body of POST /v1/services/{service}/instances.
type RegisterRequest struct {
	InstanceId string             `json:"instance_id"`
	Address    string             `json:"address"`
	Status     *string            `json:"status,omitempty"`
	Metadata   *map[string]string `json:"metadata,omitempty"`
	TtlMs      *int64             `json:"ttl_ms,omitempty"`
}

// StatusRequest is the body of PUT /v1/services/{service}/instances/{instance_id}/status.
type StatusRequest struct {
	Status string `json:"status"`
}

// InstanceInfo is one registered instance.
type InstanceInfo struct {
	Service            string             `json:"service"`
	InstanceId         string             `json:"instance_id"`
	Address            string             `json:"address"`
	Status             string             `json:"status"`
	Metadata           *map[string]string `json:"metadata,omitempty"`
	LastDirtyTimestamp int64              `json:"last_dirty_timestamp"`
}

// LeaseResponse describes a lease after a mutation.
type LeaseResponse struct {
	Instance      InstanceInfo `json:"instance"`
	RegisteredAt  time.Time    `json:"registered_at"`
	LastRenewedAt time.Time    `json:"last_renewed_at"`
	TtlMs         int64        `json:"ttl_ms"`
}

// InstancesResponse lists the active instances of one service.
type InstancesResponse struct {
	Service   string         `json:"service"`
	Instances []InstanceInfo `json:"instances"`
}

// ServicesResponse lists every service with active instances.
type ServicesResponse struct {
	Services []InstancesResponse `json:"services"`
}

// SelfPreservationInfo is the last self-preservation measurement.
type SelfPreservationInfo struct {
	State            string     `json:"state"`
	Enabled          bool       `json:"enabled"`
	Threshold        float64    `json:"threshold"`
	ExpectedRenewals float64    `json:"expected_renewals"`
	ObservedRenewals int64      `json:"observed_renewals"`
	Ratio            float64    `json:"ratio"`
	LastMeasuredAt   *time.Time `json:"last_measured_at,omitempty"`
}

// PeerInfo is the replication state of one peer.
type PeerInfo struct {
	Address     string     `json:"address"`
	Health      string     `json:"health"`
	LastSuccess *time.Time `json:"last_success,omitempty"`
	QueueDepth  int        `json:"queue_depth"`
}

// NodeStatusResponse is the body of GET /v1/status.
type NodeStatusResponse struct {
	NodeId           string               `json:"node_id"`
	Leases           int                  `json:"leases"`
	SelfPreservation SelfPreservationInfo `json:"self_preservation"`
	Peers            []PeerInfo           `json:"peers"`
}

// ReplicateResponse is the body of POST /v1/peers/replicate.
type ReplicateResponse struct {
	Applied int `json:"applied"`
}

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// (GET /v1/services)
	ListServices(ctx echo.Context) error
	// (GET /v1/services/{service})
	GetService(ctx echo.Context, service string) error
	// (POST /v1/services/{service}/instances)
	RegisterInstance(ctx echo.Context, service string) error
	// (PUT /v1/services/{service}/instances/{instance_id}/heartbeat)
	RenewInstance(ctx echo.Context, service string, instanceId string) error
	// (PUT /v1/services/{service}/instances/{instance_id}/status)
	SetInstanceStatus(ctx echo.Context, service string, instanceId string) error
	// (DELETE /v1/services/{service}/instances/{instance_id})
	CancelInstance(ctx echo.Context, service string, instanceId string) error
	// (GET /v1/status)
	GetNodeStatus(ctx echo.Context) error
	// (POST /v1/peers/replicate)
	Replicate(ctx echo.Context) error
	// (GET /v1/peers/snapshot)
	GetSnapshot(ctx echo.Context) error
}

// ServerInterfaceWrapper converts echo contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

func pathParam(ctx echo.Context, name string) (string, error) {
	var value string
	if err := echo.PathParamsBinder(ctx).MustString(name, &value).BindError(); err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter %s: %s", name, err))
	}
	return value, nil
}

// ListServices converts echo context to params.
func (w *ServerInterfaceWrapper) ListServices(ctx echo.Context) error {
	return w.Handler.ListServices(ctx)
}

// GetService converts echo context to params.
func (w *ServerInterfaceWrapper) GetService(ctx echo.Context) error {
	service, err := pathParam(ctx, "service")
	if err != nil {
		return err
	}
	return w.Handler.GetService(ctx, service)
}

// RegisterInstance converts echo context to params.
func (w *ServerInterfaceWrapper) RegisterInstance(ctx echo.Context) error {
	service, err := pathParam(ctx, "service")
	if err != nil {
		return err
	}
	return w.Handler.RegisterInstance(ctx, service)
}

// RenewInstance converts echo context to params.
func (w *ServerInterfaceWrapper) RenewInstance(ctx echo.Context) error {
	service, instanceId, err := instancePathParams(ctx)
	if err != nil {
		return err
	}
	return w.Handler.RenewInstance(ctx, service, instanceId)
}

// SetInstanceStatus converts echo context to params.
func (w *ServerInterfaceWrapper) SetInstanceStatus(ctx echo.Context) error {
	service, instanceId, err := instancePathParams(ctx)
	if err != nil {
		return err
	}
	return w.Handler.SetInstanceStatus(ctx, service, instanceId)
}

// CancelInstance converts echo context to params.
func (w *ServerInterfaceWrapper) CancelInstance(ctx echo.Context) error {
	service, instanceId, err := instancePathParams(ctx)
	if err != nil {
		return err
	}
	return w.Handler.CancelInstance(ctx, service, instanceId)
}

// GetNodeStatus converts echo context to params.
func (w *ServerInterfaceWrapper) GetNodeStatus(ctx echo.Context) error {
	return w.Handler.GetNodeStatus(ctx)
}

// Replicate converts echo context to params.
func (w *ServerInterfaceWrapper) Replicate(ctx echo.Context) error {
	return w.Handler.Replicate(ctx)
}

// GetSnapshot converts echo context to params.
func (w *ServerInterfaceWrapper) GetSnapshot(ctx echo.Context) error {
	return w.Handler.GetSnapshot(ctx)
}

func instancePathParams(ctx echo.Context) (string, string, error) {
	service, err := pathParam(ctx, "service")
	if err != nil {
		return "", "", err
	}
	instanceId, err := pathParam(ctx, "instance_id")
	if err != nil {
		return "", "", err
	}
	return service, instanceId, nil
}

// EchoRouter is the subset of echo.Echo and echo.Group used to register routes.
type EchoRouter interface {
	DELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// RegisterHandlers adds each server route to the EchoRouter.
func RegisterHandlers(router EchoRouter, si ServerInterface) {
	RegisterHandlersWithBaseURL(router, si, "")
}

// RegisterHandlersWithBaseURL registers handlers, and prepends baseURL to the paths.
func RegisterHandlersWithBaseURL(router EchoRouter, si ServerInterface, baseURL string) {
	wrapper := ServerInterfaceWrapper{
		Handler: si,
	}

	router.GET(baseURL+"/v1/services", wrapper.ListServices)
	router.GET(baseURL+"/v1/services/:service", wrapper.GetService)
	router.POST(baseURL+"/v1/services/:service/instances", wrapper.RegisterInstance)
	router.PUT(baseURL+"/v1/services/:service/instances/:instance_id/heartbeat", wrapper.RenewInstance)
	router.PUT(baseURL+"/v1/services/:service/instances/:instance_id/status", wrapper.SetInstanceStatus)
	router.DELETE(baseURL+"/v1/services/:service/instances/:instance_id", wrapper.CancelInstance)
	router.GET(baseURL+"/v1/status", wrapper.GetNodeStatus)
	router.POST(baseURL+"/v1/peers/replicate", wrapper.Replicate)
	router.GET(baseURL+"/v1/peers/snapshot", wrapper.GetSnapshot)
}
