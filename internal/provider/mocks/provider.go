// Package mocks provides testify mocks for the provider interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/capitalize-ai/multimodal-gateway/internal/provider"
)

// Provider is a mock implementation of provider.Provider.
type Provider struct {
	mock.Mock
}

// NewProvider creates a mock provider and registers expectation checks on cleanup.
func NewProvider(t interface {
	mock.TestingT
	Cleanup(func())
}) *Provider {
	m := &Provider{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *Provider) Complete(ctx context.Context, req *provider.CompletionRequest) (*provider.CompletionResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*provider.CompletionResponse)
	return resp, args.Error(1)
}

func (m *Provider) DescribeImage(ctx context.Context, req *provider.ImageRequest) (*provider.CompletionResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*provider.CompletionResponse)
	return resp, args.Error(1)
}

func (m *Provider) Transcribe(ctx context.Context, req *provider.TranscriptionRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *Provider) ListModels(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	models, _ := args.Get(0).([]string)
	return models, args.Error(1)
}

func (m *Provider) Name() string {
	return "mock"
}
