package spicedb

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"

	"github.com/authzed/authzed-go/v1"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

// bearerToken attaches the preshared key to every call
type bearerToken struct {
	token    string
	insecure bool
}

func (b bearerToken) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	return map[string]string{"authorization": "Bearer " + b.token}, nil
}

func (b bearerToken) RequireTransportSecurity() bool {
	return !b.insecure
}

// NewClient dials SpiceDB. The connection is established lazily on the first call.
func NewClient(config Config) (*authzed.Client, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("SpiceDB endpoint is required")
	}

	opts := []grpc.DialOption{
		grpc.WithPerRPCCredentials(bearerToken{token: config.Token, insecure: config.Insecure}),
	}

	if config.Insecure {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	} else {
		pool, err := x509.SystemCertPool()
		if err != nil {
			return nil, fmt.Errorf("failed to load system CA pool: %w", err)
		}
		opts = append(opts, grpc.WithTransportCredentials(credentials.NewTLS(&tls.Config{
			RootCAs:    pool,
			MinVersion: tls.VersionTLS12,
		})))
	}

	client, err := authzed.NewClient(config.Endpoint, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SpiceDB client: %w", err)
	}
	return client, nil
}
