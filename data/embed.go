// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package data embeds the SQL migrations so the binary is self-contained.
package data

import "embed"

// Migrations holds every file under migrations/, applied by [migration.RunUp].
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside [Migrations] holding the .sql files.
const MigrationsDir = "migrations"
