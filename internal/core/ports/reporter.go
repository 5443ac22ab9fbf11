package ports

import "go.trai.ch/bake/internal/core/domain"

// Reporter renders the execution report at the end of a build.
//
//go:generate mockgen -source=reporter.go -destination=mocks/mock_reporter.go -package=mocks
type Reporter interface {
	Report(report *domain.Report) error
}
