// Package firestore stores entity documents in a Cloud Firestore
// collection.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	defaultDialTimeout = 10 * time.Second
	envEmulatorHost    = "FIRESTORE_EMULATOR_HOST"
	envGoogleProjectID = "GOOGLE_CLOUD_PROJECT"
)

var (
	ErrProviderClosed   = errors.New("firestore: provider is closed")
	ErrProjectIDMissing = errors.New("firestore: project id is required")
)

// Config selects the project and how to reach it.
type Config struct {
	ProjectID       string
	EmulatorHost    string
	CredentialsFile string
}

type initResult struct {
	client *firestore.Client
	err    error
}

// Provider lazily initialises a shared Firestore client instance.
type Provider struct {
	cfg         Config
	dialTimeout time.Duration
	clientOpts  []option.ClientOption

	stateMu sync.Mutex
	initCh  chan initResult
	client  *firestore.Client

	closed atomic.Bool
}

// ProviderOption customises the Provider behaviour.
type ProviderOption func(*Provider)

// WithDialTimeout overrides the timeout used when creating the client.
func WithDialTimeout(timeout time.Duration) ProviderOption {
	return func(p *Provider) {
		if timeout > 0 {
			p.dialTimeout = timeout
		}
	}
}

// WithClientOptions appends client options applied during initialisation.
func WithClientOptions(opts ...option.ClientOption) ProviderOption {
	return func(p *Provider) {
		p.clientOpts = append(p.clientOpts, opts...)
	}
}

// NewProvider constructs a Provider using the supplied configuration.
func NewProvider(cfg Config, opts ...ProviderOption) *Provider {
	p := &Provider{cfg: cfg, dialTimeout: defaultDialTimeout}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// ProjectID returns the configured project, falling back to
// GOOGLE_CLOUD_PROJECT.
func (p *Provider) ProjectID() string {
	if id := strings.TrimSpace(p.cfg.ProjectID); id != "" {
		return id
	}
	return strings.TrimSpace(os.Getenv(envGoogleProjectID))
}

// Client returns the lazily initialised Firestore client. Concurrent
// callers wait for a single initialisation.
func (p *Provider) Client(ctx context.Context) (*firestore.Client, error) {
	for {
		if p.closed.Load() {
			return nil, ErrProviderClosed
		}

		p.stateMu.Lock()
		if p.client != nil {
			client := p.client
			p.stateMu.Unlock()
			return client, nil
		}
		if waitCh := p.initCh; waitCh != nil {
			p.stateMu.Unlock()
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case res, ok := <-waitCh:
				if ok && res.err != nil {
					return nil, res.err
				}
				// Re-check state on the next iteration.
				continue
			}
		}

		waitCh := make(chan initResult, 1)
		p.initCh = waitCh
		p.stateMu.Unlock()

		client, err := p.createClient(ctx)

		p.stateMu.Lock()
		p.initCh = nil
		if err == nil {
			p.client = client
		}
		p.stateMu.Unlock()

		waitCh <- initResult{client: client, err: err}
		close(waitCh)
		if err != nil {
			return nil, err
		}
		if p.closed.Load() {
			return nil, ErrProviderClosed
		}
		return client, nil
	}
}

func (p *Provider) createClient(ctx context.Context) (*firestore.Client, error) {
	if p.dialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.dialTimeout)
		defer cancel()
	}

	projectID := p.ProjectID()
	if projectID == "" {
		return nil, ErrProjectIDMissing
	}

	opts := append([]option.ClientOption(nil), p.clientOpts...)
	if host := p.emulatorHost(); host != "" {
		if os.Getenv(envEmulatorHost) == "" {
			_ = os.Setenv(envEmulatorHost, host)
		}
		opts = append(opts,
			option.WithoutAuthentication(),
			option.WithEndpoint(host),
			option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		)
	} else if f := strings.TrimSpace(p.cfg.CredentialsFile); f != "" {
		opts = append(opts, option.WithCredentialsFile(f))
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore: create client: %w", err)
	}
	return client, nil
}

// Close releases the underlying Firestore client. The Provider cannot be
// reused afterwards.
func (p *Provider) Close() error {
	if p == nil || p.closed.Swap(true) {
		return nil
	}
	p.stateMu.Lock()
	client := p.client
	p.client = nil
	p.stateMu.Unlock()
	if client == nil {
		return nil
	}
	return client.Close()
}

func (p *Provider) emulatorHost() string {
	if h := strings.TrimSpace(p.cfg.EmulatorHost); h != "" {
		return h
	}
	return strings.TrimSpace(os.Getenv(envEmulatorHost))
}
