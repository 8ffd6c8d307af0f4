package model

type User struct {
	UID       string   `json:"uid"`
	GivenName string   `json:"given_name"`
	Surname   string   `json:"surname"`
	Mail      string   `json:"mail,omitempty"`
	Teams     []string `json:"teams,omitempty"`
}
