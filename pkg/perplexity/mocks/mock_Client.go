// Package mocks provides test doubles for the perplexity client.
package mocks

import (
	"context"

	perplexity "github.com/sells-group/brochure-cli/pkg/perplexity"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// ChatCompletion provides a mock function with given fields: ctx, req
func (_m *MockClient) ChatCompletion(ctx context.Context, req perplexity.ChatCompletionRequest) (*perplexity.ChatCompletionResponse, error) {
	ret := _m.Called(ctx, req)

	if len(ret) == 0 {
		panic("no return value specified for ChatCompletion")
	}

	var r0 *perplexity.ChatCompletionResponse
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, perplexity.ChatCompletionRequest) (*perplexity.ChatCompletionResponse, error)); ok {
		return rf(ctx, req)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*perplexity.ChatCompletionResponse)
	}
	r1 = ret.Error(1)

	return r0, r1
}

// NewMockClient creates a new instance of MockClient. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	m := &MockClient{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
