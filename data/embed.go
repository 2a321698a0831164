// Package data embeds the database initialization scripts.
package data

import (
	_ "embed"
)

// InitdbMariaDBTables creates the voternet tables. ${DB_DATABASE} must be expanded first.
//
//go:embed initdb/mariadb/002-ddl-tables.sql
var InitdbMariaDBTables string

// InitdbMariaDBPrivileges grants the application user row access.
//
//go:embed initdb/mariadb/003-ddl-privileges.sql
var InitdbMariaDBPrivileges string
