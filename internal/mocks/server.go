package mocks

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/dtroode/vibenotes-server/internal/model"
)

type SecurityLayer struct {
	mock.Mock
}

var _ model.SecurityLayer = (*SecurityLayer)(nil)

// NewSecurityLayer creates a SecurityLayer mock whose expectations are asserted at cleanup.
func NewSecurityLayer(t *testing.T) *SecurityLayer {
	m := &SecurityLayer{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *SecurityLayer) Listen(protocol, addr string) (net.Listener, error) {
	args := m.Called(protocol, addr)
	listener, _ := args.Get(0).(net.Listener)
	return listener, args.Error(1)
}

type Pinger struct {
	mock.Mock
}

var _ model.Pinger = (*Pinger)(nil)

// NewPinger creates a Pinger mock whose expectations are asserted at cleanup.
func NewPinger(t *testing.T) *Pinger {
	m := &Pinger{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *Pinger) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
