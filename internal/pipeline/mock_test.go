package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/toladimeji/crimewatch/pkg/classifier"
	"github.com/toladimeji/crimewatch/pkg/mapbox"
)

type mockGeocoder struct {
	mock.Mock
}

func (m *mockGeocoder) Forward(ctx context.Context, query string) (*mapbox.Result, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mapbox.Result), args.Error(1)
}

func (m *mockGeocoder) Available() bool {
	args := m.Called()
	return args.Bool(0)
}

type mockClassifier struct {
	mock.Mock
}

func (m *mockClassifier) Classify(ctx context.Context, text string) (*classifier.Prediction, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*classifier.Prediction), args.Error(1)
}

func (m *mockClassifier) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *mockClassifier) Available() bool {
	args := m.Called()
	return args.Bool(0)
}
