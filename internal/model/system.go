package model

// VersionInfo describes the running build and database schema.
type VersionInfo struct {
	AppVersion       string          `json:"app_version"`
	Commit           string          `json:"commit,omitempty"`
	DbVersion        string          `json:"db_version"`
	Features         map[string]bool `json:"features"`
	MigrationNeeded  bool            `json:"migration_needed"`
	MigrationMessage *string         `json:"migration_message"`
}
