// Package mocks provides test doubles for the gemini client.
package mocks

import (
	"context"

	gemini "github.com/sells-group/brochure-cli/pkg/gemini"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// GenerateText provides a mock function with given fields: ctx, req
func (_m *MockClient) GenerateText(ctx context.Context, req gemini.TextRequest) (*gemini.TextResponse, error) {
	ret := _m.Called(ctx, req)

	if len(ret) == 0 {
		panic("no return value specified for GenerateText")
	}

	var r0 *gemini.TextResponse
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, gemini.TextRequest) (*gemini.TextResponse, error)); ok {
		return rf(ctx, req)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*gemini.TextResponse)
	}
	r1 = ret.Error(1)

	return r0, r1
}

// Close provides a mock function with no fields
func (_m *MockClient) Close() error {
	ret := _m.Called()

	if len(ret) == 0 {
		panic("no return value specified for Close")
	}

	return ret.Error(0)
}

// NewMockClient creates a new instance of MockClient. It also registers a
// testing interface on the mock and a cleanup function to assert the mocks
// expectations.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	mock := &MockClient{}
	mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
