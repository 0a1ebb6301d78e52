// Code generated by mockery v2.53.5. DO NOT EDIT.

package fixturemock

import (
	context "context"

	fixture "github.com/prediksibola/predictor-league/internal/domain/fixture"
	mock "github.com/stretchr/testify/mock"
)

// Store is an autogenerated mock type for the Store type
type Store struct {
	mock.Mock
}

// Load provides a mock function with given fields: ctx, source
func (_m *Store) Load(ctx context.Context, source fixture.Source) (fixture.Snapshot, error) {
	ret := _m.Called(ctx, source)

	if len(ret) == 0 {
		panic("no return value specified for Load")
	}

	var r0 fixture.Snapshot
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, fixture.Source) (fixture.Snapshot, error)); ok {
		return rf(ctx, source)
	}
	if rf, ok := ret.Get(0).(func(context.Context, fixture.Source) fixture.Snapshot); ok {
		r0 = rf(ctx, source)
	} else {
		r0 = ret.Get(0).(fixture.Snapshot)
	}

	if rf, ok := ret.Get(1).(func(context.Context, fixture.Source) error); ok {
		r1 = rf(ctx, source)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Save provides a mock function with given fields: ctx, source, snapshot
func (_m *Store) Save(ctx context.Context, source fixture.Source, snapshot fixture.Snapshot) error {
	ret := _m.Called(ctx, source, snapshot)

	if len(ret) == 0 {
		panic("no return value specified for Save")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, fixture.Source, fixture.Snapshot) error); ok {
		r0 = rf(ctx, source, snapshot)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// NewStore creates a new instance of Store. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *Store {
	mock := &Store{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
