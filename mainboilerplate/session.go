package mainboilerplate

import (
	petname "github.com/dustinkirkland/golang-petname"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// RunConfig identifies a single run of the application.
type RunConfig struct {
	Name string `long:"name" env:"NAME" description:"Human-readable name of this run. Generated if not set"`
}

// Run is an identified run of the application.
type Run struct {
	// Name is readable, and chosen by the user or generated.
	Name string
	// ID is unique to this process.
	ID uuid.UUID
}

// NewRun returns a Run of the RunConfig, generating a Name if it's empty,
// and installs a FieldsHook which stamps Run identifiers onto log events.
func NewRun(cfg RunConfig) Run {
	var run = Run{Name: cfg.Name, ID: uuid.New()}
	if run.Name == "" {
		run.Name = petname.Generate(2, "-")
	}
	log.AddHook(FieldsHook{"run": run.Name, "runID": run.ID.String()})
	return run
}
