package ports

import (
	"context"

	"neuromatch/domain/match"
)

// MatchReporter renders a MatchResult into a user-facing artifact
// (spreadsheet, markdown, HTML). Reporters only read the result; the
// engine guarantees its candidate lists passed the validity gate and were
// actually returned by the sourcing repository.
type MatchReporter interface {
	WriteReport(ctx context.Context, result *match.MatchResult, destination string) error
}
