package model

// Franchise and Division are the two axes of the hierarchy. Identity is the
// machine name, case-sensitive; display names are labels and never part of
// equality.

type Franchise struct {
	MachineName string `json:"machine_name"`
	DisplayName string `json:"display_name"`
}

type Division struct {
	MachineName string `json:"machine_name"`
	DisplayName string `json:"display_name"`
}

type Team struct {
	MachineName string `json:"machine_name"`
	DisplayName string `json:"display_name"`
}

const (
	// TeamEverybodyMachineName is the distinguished team every provisioned
	// user belongs to.
	TeamEverybodyMachineName = "everybody"
	TeamEverybodyDisplayName = "Everybody"

	// TeamInternationalMachineName is the distinguished top-level team whose
	// absence degrades the system but does not stop it.
	TeamInternationalMachineName = "international"
)

// TeamMachineName derives the machine name of the team pairing a franchise
// with a division, franchise first. Unique slug inputs yield a unique name
// per pair.
func TeamMachineName(franchise, division string) string {
	return franchise + "-" + division
}

// TeamDisplayName derives the human label of a derived team.
func TeamDisplayName(franchise, division string) string {
	return franchise + " - " + division
}
