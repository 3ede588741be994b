package grpcapi

import (
	"fmt"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Pool owns the single connection shared by every iteration. The connection
// is created on first use; later calls get the same one. A failed attempt
// leaves the pool empty so the next caller tries again.
type Pool struct {
	target string
	opts   []grpc.DialOption

	mu    sync.Mutex
	conn  *grpc.ClientConn
	dials int
}

// NewPool prepares a plaintext pool for target (host:port). Extra options are
// appended after the insecure transport credentials.
func NewPool(target string, opts ...grpc.DialOption) *Pool {
	all := append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	return &Pool{target: target, opts: all}
}

// Conn returns the shared connection, establishing it if needed.
func (p *Pool) Conn() (*grpc.ClientConn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn != nil {
		return p.conn, nil
	}
	conn, err := grpc.NewClient(p.target, p.opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", p.target, err)
	}
	p.dials++
	p.conn = conn
	return conn, nil
}

// Dials reports how many connections the pool has created.
func (p *Pool) Dials() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dials
}

// Close releases the connection. The pool may be used again afterwards.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn = nil
	return err
}
