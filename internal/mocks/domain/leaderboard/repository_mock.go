// Code generated by mockery v2.53.5. DO NOT EDIT.

package leaderboardmock

import (
	context "context"

	leaderboard "github.com/prediksibola/predictor-league/internal/domain/leaderboard"
	mock "github.com/stretchr/testify/mock"
)

// Repository is an autogenerated mock type for the Repository type
type Repository struct {
	mock.Mock
}

// GetByRound provides a mock function with given fields: ctx, round
func (_m *Repository) GetByRound(ctx context.Context, round int) (leaderboard.Snapshot, bool, error) {
	ret := _m.Called(ctx, round)

	if len(ret) == 0 {
		panic("no return value specified for GetByRound")
	}

	var r0 leaderboard.Snapshot
	var r1 bool
	var r2 error
	if rf, ok := ret.Get(0).(func(context.Context, int) (leaderboard.Snapshot, bool, error)); ok {
		return rf(ctx, round)
	}
	if rf, ok := ret.Get(0).(func(context.Context, int) leaderboard.Snapshot); ok {
		r0 = rf(ctx, round)
	} else {
		r0 = ret.Get(0).(leaderboard.Snapshot)
	}

	if rf, ok := ret.Get(1).(func(context.Context, int) bool); ok {
		r1 = rf(ctx, round)
	} else {
		r1 = ret.Get(1).(bool)
	}

	if rf, ok := ret.Get(2).(func(context.Context, int) error); ok {
		r2 = rf(ctx, round)
	} else {
		r2 = ret.Error(2)
	}

	return r0, r1, r2
}

// GetLatest provides a mock function with given fields: ctx
func (_m *Repository) GetLatest(ctx context.Context) (leaderboard.Snapshot, bool, error) {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for GetLatest")
	}

	var r0 leaderboard.Snapshot
	var r1 bool
	var r2 error
	if rf, ok := ret.Get(0).(func(context.Context) (leaderboard.Snapshot, bool, error)); ok {
		return rf(ctx)
	}
	if rf, ok := ret.Get(0).(func(context.Context) leaderboard.Snapshot); ok {
		r0 = rf(ctx)
	} else {
		r0 = ret.Get(0).(leaderboard.Snapshot)
	}

	if rf, ok := ret.Get(1).(func(context.Context) bool); ok {
		r1 = rf(ctx)
	} else {
		r1 = ret.Get(1).(bool)
	}

	if rf, ok := ret.Get(2).(func(context.Context) error); ok {
		r2 = rf(ctx)
	} else {
		r2 = ret.Error(2)
	}

	return r0, r1, r2
}

// Save provides a mock function with given fields: ctx, s
func (_m *Repository) Save(ctx context.Context, s leaderboard.Snapshot) error {
	ret := _m.Called(ctx, s)

	if len(ret) == 0 {
		panic("no return value specified for Save")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, leaderboard.Snapshot) error); ok {
		r0 = rf(ctx, s)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// NewRepository creates a new instance of Repository. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *Repository {
	mock := &Repository{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
