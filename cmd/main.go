package main

import (
	"os"

	_ "github.com/shenikar/civic_incident_tracker/docs"
	"github.com/shenikar/civic_incident_tracker/internal/cli"
)

// @title Civic Incident Reporting API
// @version 1.0
// @description Citizens report civic incidents, administrators review them and track every status change.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
