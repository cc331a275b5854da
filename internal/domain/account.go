package domain

// Account holds the configured upstream account. The password itself lives in
// the secret store under SecretRef and is never written to the config file.
type Account struct {
	BaseURL   string
	Username  string
	SecretRef string
}
