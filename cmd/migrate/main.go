// The migrate command applies the audit-store schema migrations.
package main

import (
	"flag"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/praxisos/praxis-server/internal/config"
	"github.com/praxisos/praxis-server/internal/logging"
)

func main() {
	var (
		dir  = flag.String("dir", "migrations", "migrations directory")
		down = flag.Bool("down", false, "roll back one migration instead of migrating up")
	)
	flag.Parse()

	logger := logging.New("migrate", "info", "text")

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("load configuration")
	}
	if cfg.AuditDatabaseURL == "" {
		logger.Fatal("AUDIT_DATABASE_URL is required")
	}

	m, err := migrate.New("file://"+*dir, cfg.AuditDatabaseURL)
	if err != nil {
		logger.WithError(err).Fatal("open migrations")
	}
	defer m.Close()

	if *down {
		err = m.Steps(-1)
	} else {
		err = m.Up()
	}
	if err != nil && err != migrate.ErrNoChange {
		logger.WithError(err).Fatal("apply migrations")
	}

	version, dirty, _ := m.Version()
	logger.WithField("version", version).WithField("dirty", dirty).Info("migrations applied")
	os.Exit(0)
}
