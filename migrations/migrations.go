// migrations встраивает SQL-миграции схемы PostgreSQL для goose.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
