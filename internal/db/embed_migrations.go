package db

import "embed"

// MigrationFS embeds the SQL migrations for users, refresh_tokens, and
// audit_logs. Applied by the migrate runner (cmd/migrate).
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
