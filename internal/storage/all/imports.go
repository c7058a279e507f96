// Package all wires the built-in storage backends into the storage factory.
// Importing it for side effects makes the "sqlite", "postgres", "mssql" and
// "mysql" kinds available to storage.New and storage.NewWriter.
package all

import (
	_ "steametl/internal/storage/mssql"
	_ "steametl/internal/storage/mysql"
	_ "steametl/internal/storage/postgres"
	_ "steametl/internal/storage/sqlite"
)
