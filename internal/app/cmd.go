package app

// Command selects the application startup mode.
type Command string

const (
	// CommandServe starts the API server.
	CommandServe Command = "serve"
	// CommandWorker starts the auth cleanup worker.
	CommandWorker Command = "worker"
	// CommandMigrate applies pending database migrations.
	CommandMigrate Command = "migrate"
	// CommandHealthcheck runs the container healthcheck, used by Docker
	// in distroless images.
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand parses the subcommand from command-line arguments.
// Empty or unrecognized arguments fall back to CommandServe.
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch args[0] {
	case "worker":
		return CommandWorker
	case "serve":
		return CommandServe
	case "migrate":
		return CommandMigrate
	case "healthcheck":
		return CommandHealthcheck
	default:
		return CommandServe
	}
}
