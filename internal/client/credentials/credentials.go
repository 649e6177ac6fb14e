// Package credentials defines the boundary to the credential store. The sync
// engine receives already-decrypted values through the Store interface and
// never persists or logs them; encryption at rest (OS-native protection or a
// symmetric key file) lives behind implementations of the same interface.
package credentials

import "context"

// WigleCredentials is the API name/token pair for the ingestion service.
type WigleCredentials struct {
	APIName  string
	APIToken string
}

// HostCredentials holds the connection parameters for the capture device.
// Exactly one of KeyFile or Password is expected to be set.
type HostCredentials struct {
	Host           string
	Port           int
	User           string
	KeyFile        string
	Password       string
	KnownHostsFile string
}

// Store supplies decrypted credentials per operation.
type Store interface {
	Wigle(ctx context.Context) (WigleCredentials, error)
	Host(ctx context.Context) (HostCredentials, error)
}

// StaticStore is a Store over fixed in-memory values, used when credentials
// arrive from configuration or interactive input.
type StaticStore struct {
	wigle WigleCredentials
	host  HostCredentials
}

func NewStaticStore(w WigleCredentials, h HostCredentials) *StaticStore {
	return &StaticStore{wigle: w, host: h}
}

func (s *StaticStore) Wigle(_ context.Context) (WigleCredentials, error) {
	return s.wigle, nil
}

func (s *StaticStore) Host(_ context.Context) (HostCredentials, error) {
	return s.host, nil
}
