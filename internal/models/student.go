package models

type Student struct {
	PID            string  `json:"pid" db:"pid"`
	Name           string  `json:"name" db:"name"`
	Email          string  `json:"email" db:"email"`
	DegreeName     *string `json:"degree_name,omitempty" db:"degree_name"`
	DegreeType     *string `json:"degree_type,omitempty" db:"degree_type"`
	OptInBiometric bool    `json:"opt_in_biometric" db:"opt_in_biometric"`
}
