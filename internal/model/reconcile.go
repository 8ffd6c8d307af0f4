package model

// DivisionState describes a single division machine name as seen by the
// canonical configuration and by the directory. A nil display name means the
// corresponding source does not know the division at all, or carries no label
// for it.
type DivisionState struct {
	ExistsInConfig       bool    `json:"exists_in_config"`
	ExistsInDirectory    bool    `json:"exists_in_directory"`
	ConfigDisplayName    *string `json:"config_display_name,omitempty"`
	DirectoryDisplayName *string `json:"directory_display_name,omitempty"`
}
