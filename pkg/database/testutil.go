package database

import (
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

// NewMockPool creates a pgxmock pool that satisfies DBTX for repository and
// migration tests. Expected SQL is matched as a regular expression against
// the statement, so a distinctive fragment such as "FROM farms" is enough.
// Call ExpectationsWereMet at the end of each test.
func NewMockPool() (pgxmock.PgxPoolIface, error) {
	return pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
}
