package dto

// LoginRequest captures the login form.
type LoginRequest struct {
	Login    string `form:"login"`
	Password string `form:"password"`
}

// UserImportResult summarises a legacy user import.
type UserImportResult struct {
	Imported int
	Skipped  int
}
