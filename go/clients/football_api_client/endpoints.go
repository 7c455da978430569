package football_api_client

const (
	// Default base URLs, overridden by configuration.
	DefaultMatchesBaseURL      = "http://localhost:8080/api/matches"
	DefaultTeamsBaseURL        = "http://localhost:8080/api/teams"
	DefaultCompetitionsBaseURL = "http://localhost:8080/api/competitions"

	// Headers
	AcceptHeader    = "Accept"
	JsonContentType = "application/json"
)
