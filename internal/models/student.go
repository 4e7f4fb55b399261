package models

// Student is a person who can enroll in courses, identified externally by SSN.
type Student struct {
	ID   int    `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
	SSN  string `db:"ssn" json:"ssn"`
}
