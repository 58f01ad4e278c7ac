package store

import (
	"context"
	"errors"

	"surveyline/pkg/model"
)

// ErrNotFound is returned when a survey id has no stored record.
var ErrNotFound = errors.New("survey not found")

// SurveyStore handles processed survey persistence.
type SurveyStore interface {
	SaveSurvey(ctx context.Context, s *model.Survey) error
	GetSurvey(ctx context.Context, id string) (*model.Survey, error)
	ListSurveys(ctx context.Context) ([]model.SurveyInfo, error)
	DeleteSurvey(ctx context.Context, id string) error
}

// Store is the composite interface used by the server.
type Store interface {
	SurveyStore
	Ping(ctx context.Context) error
	Close() error
}
