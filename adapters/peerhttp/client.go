// Package peerhttp replicates registry mutations to sibling nodes over their HTTP API.
package peerhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"discoveryserver/domain"
	"discoveryserver/helpers"
	"discoveryserver/interfaces"
	"discoveryserver/service"
)

const (
	replicatePath = "/v1/peers/replicate"
	snapshotPath  = "/v1/peers/snapshot"
)

// Credentials authenticate this node against its peers. Every node of a cluster shares them.
type Credentials struct {
	Username string
	Password string
}

// NewClient creates an interfaces.PeerClient posting to address+"/v1/peers/replicate" and reading
// address+"/v1/peers/snapshot". Panics on nil client or empty username.
//
// Called from cmd/main; the client's own timeout bounds every request together with the caller's context.
func NewClient(client *http.Client, creds Credentials) interfaces.PeerClient {
	return &peerClient{
		client: helpers.NilPanic(client, "adapters.peerhttp.client.go: http client is required"),
		creds: Credentials{
			Username: helpers.StrPanic(creds.Username, "adapters.peerhttp.client.go: username is required"),
			Password: creds.Password,
		},
	}
}

type peerClient struct {
	client *http.Client
	creds  Credentials
}

// TasksPayload is the body of a replication push and of a snapshot answer.
type TasksPayload struct {
	Tasks []domain.ReplicationTask `json:"tasks"`
}

// Replicate pushes tasks to the peer. 4xx answers are reported as bad_parameter (the batch will never
// be accepted), everything else that is not 2xx as replication_delivery_failed.
func (p *peerClient) Replicate(ctx context.Context, address string, tasks []domain.ReplicationTask) error {
	body, err := json.Marshal(TasksPayload{Tasks: tasks})
	if err != nil {
		return service.NewInternalServerError("can't marshal replication batch", err)
	}
	req, err := p.newRequest(ctx, http.MethodPost, address, replicatePath, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return service.NewReplicationDeliveryError(fmt.Sprintf("replicate to %s failed", address), err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return statusError(address, replicatePath, resp.StatusCode)
}

// FetchSnapshot reads the peer's full state.
func (p *peerClient) FetchSnapshot(ctx context.Context, address string) ([]domain.ReplicationTask, error) {
	req, err := p.newRequest(ctx, http.MethodGet, address, snapshotPath, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, service.NewReplicationDeliveryError(fmt.Sprintf("snapshot from %s failed", address), err)
	}
	defer resp.Body.Close()
	if err := statusError(address, snapshotPath, resp.StatusCode); err != nil {
		return nil, err
	}

	var payload TasksPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, service.NewReplicationDeliveryError(fmt.Sprintf("snapshot from %s is not valid json", address), err)
	}
	if payload.Tasks == nil {
		return nil, service.NewReplicationDeliveryError(fmt.Sprintf("snapshot from %s is missing tasks field", address), nil)
	}
	return payload.Tasks, nil
}

func (p *peerClient) newRequest(ctx context.Context, method, address, path string, body io.Reader) (*http.Request, error) {
	if address == "" {
		return nil, service.NewBadParameterError("peer address is required", nil)
	}
	reqURL := strings.TrimSuffix(address, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, service.NewBadParameterError(fmt.Sprintf("invalid peer url %q", reqURL), err)
	}
	req.SetBasicAuth(p.creds.Username, p.creds.Password)
	return req, nil
}

func statusError(address, path string, status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests:
		return service.NewReplicationDeliveryError(fmt.Sprintf("peer %s deferred %s with %d", address, path, status), nil)
	case status >= 400 && status < 500:
		return service.NewBadParameterError(fmt.Sprintf("peer %s rejected %s with %d", address, path, status), nil)
	default:
		return service.NewReplicationDeliveryError(fmt.Sprintf("peer %s answered %s with %d", address, path, status), nil)
	}
}
