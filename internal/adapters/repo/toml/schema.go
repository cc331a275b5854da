package toml

import (
	"fmt"

	"github.com/busmind/stopfinder-cli/internal/domain"
)

const currentSchemaVersion = 1

type fileSchema struct {
	Version int            `toml:"version"`
	Account *accountSchema `toml:"account"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported account schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type accountSchema struct {
	BaseURL   string `toml:"base_url"`
	Username  string `toml:"username"`
	SecretRef string `toml:"secret_ref"`
}

func toSchema(account domain.Account) accountSchema {
	return accountSchema{
		BaseURL:   account.BaseURL,
		Username:  account.Username,
		SecretRef: account.SecretRef,
	}
}

func fromSchema(entry accountSchema) domain.Account {
	return domain.Account{
		BaseURL:   entry.BaseURL,
		Username:  entry.Username,
		SecretRef: entry.SecretRef,
	}
}
