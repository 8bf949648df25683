package auth

import (
	"github.com/rs/zerolog/log"
	"github.com/zalando/go-keyring"
)

const keyringService = "com.finbridge.ledgerbridge.syncagent"

// StoreAPIToken stores the API bearer token in the OS keychain so it does
// not have to live in the config file. Callers may ignore the error and
// fall back to config-supplied tokens.
func StoreAPIToken(account, token string) error {
	if err := keyring.Set(keyringService, account, token); err != nil {
		log.Debug().
			Err(err).
			Str("account", account).
			Msg("keyring not available, token will not be persisted")
		return err
	}

	log.Debug().Str("account", account).Msg("api token stored in keyring")
	return nil
}

// GetAPIToken retrieves a stored API token from the OS keychain.
// Returns empty string if none is stored (not an error).
func GetAPIToken(account string) (string, error) {
	token, err := keyring.Get(keyringService, account)
	if err == keyring.ErrNotFound {
		log.Debug().Str("account", account).Msg("no api token found in keyring")
		return "", nil
	}
	if err != nil {
		log.Debug().
			Err(err).
			Str("account", account).
			Msg("failed to read api token from keyring")
		return "", err
	}

	return token, nil
}

// DeleteAPIToken removes a stored API token from the OS keychain.
func DeleteAPIToken(account string) error {
	if err := keyring.Delete(keyringService, account); err != nil && err != keyring.ErrNotFound {
		log.Debug().
			Err(err).
			Str("account", account).
			Msg("failed to delete api token from keyring")
		return err
	}
	return nil
}
