// Package migrations embeds the versioned schema migrations.
package migrations

import "embed"

// BigQuery holds the BigQuery migrations under bigquery/, named NNNN_name.sql.
//
//go:embed bigquery/*.sql
var BigQuery embed.FS
