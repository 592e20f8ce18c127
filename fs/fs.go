// Package appfs embeds the files shipped inside the binaries: database migrations and email templates.
package appfs

import "embed"

//go:embed migrations/*.sql templates/email/*
var FS embed.FS

const (
	MigrationsDir     = "migrations"
	EmailTemplatesDir = "templates/email"
)
