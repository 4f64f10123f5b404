package mocks

import "context"

// MockTransactor runs fn directly; set Err to make WithinTx fail before fn runs.
type MockTransactor struct {
	Err   error
	Calls int
}

func (m *MockTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Calls++
	if m.Err != nil {
		return m.Err
	}
	return fn(ctx)
}
