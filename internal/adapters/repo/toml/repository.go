package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/busmind/stopfinder-cli/internal/domain"
	"github.com/busmind/stopfinder-cli/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	configName      = "config"
	configType      = "toml"
	accountPathKey  = "account.path"
	accountFileMode = 0o600
	accountDirMode  = 0o700
	configDirName   = ".stopfinder"
	accountFileName = "account.toml"
	tempFilePattern = ".account-*.toml.tmp"
)

// Repository stores the single configured account in a TOML file under the
// user's home directory. Writes go through a temp file + rename.
type Repository struct {
	accountPath string
	mu          *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.AccountRepository = (*Repository)(nil)

func NewRepository(cfg *viper.Viper) (*Repository, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	defaultPath := filepath.Join(homeDir, configDirName, accountFileName)

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(filepath.Join(homeDir, configDirName))
	cfg.SetDefault(accountPathKey, defaultPath)

	err = cfg.ReadInConfig()
	if err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	accountPath := cfg.GetString(accountPathKey)
	if accountPath == "" {
		return nil, errors.New("account path is empty")
	}
	accountPath, err = normalizeAccountPath(accountPath)
	if err != nil {
		return nil, err
	}

	return &Repository{accountPath: accountPath, mu: lockForPath(accountPath)}, nil
}

func (r *Repository) Load(ctx context.Context) (domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return domain.Account{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.Account{}, err
	}
	if file.Account == nil || file.Account.Username == "" {
		return domain.Account{}, domain.ErrAccountNotConfigured
	}

	return fromSchema(*file.Account), nil
}

func (r *Repository) Save(ctx context.Context, account domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}
	file.applyDefaults()

	encoded := toSchema(account)
	file.Account = &encoded

	if err := ctx.Err(); err != nil {
		return err
	}

	return r.writeSchema(file)
}

func (r *Repository) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}
	if file.Account == nil {
		return nil
	}

	file.Account = nil
	return r.writeSchema(file)
}

func (r *Repository) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(r.accountPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema{}, nil
		}
		return fileSchema{}, fmt.Errorf("read account file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode account file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func (r *Repository) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(r.accountPath), accountDirMode); err != nil {
		return fmt.Errorf("create account directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode account file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(r.accountPath), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp account file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp account file: %w", err)
	}

	if err := tempFile.Chmod(accountFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp account file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp account file: %w", err)
	}

	if err := os.Rename(tempName, r.accountPath); err != nil {
		return fmt.Errorf("replace account file: %w", err)
	}

	cleanup = false

	if err := os.Chmod(r.accountPath, accountFileMode); err != nil {
		return fmt.Errorf("chmod account file: %w", err)
	}

	return nil
}

func normalizeAccountPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve account path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}
