package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/term"
	"lecca.io/olas-staker/internal/logger"
)

// Owner is the signing credential for the run. It is loaned to the
// transaction submitter and never written anywhere.
type Owner struct {
	Key     *ecdsa.PrivateKey
	Address common.Address
}

// Load reads the owner key from path. Two formats are accepted: a raw hex
// private key, or an encrypted go-ethereum keystore JSON (in which case the
// passphrase comes from the --password flag or an interactive prompt).
func Load(path, password string) (*Owner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		return loadKeystore(data, password)
	}
	return loadRawHex(trimmed)
}

func loadRawHex(s string) (*Owner, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	key, err := crypto.HexToECDSA(s)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return ownerFromKey(key), nil
}

func loadKeystore(data []byte, password string) (*Owner, error) {
	if password == "" {
		pw, err := promptPassword()
		if err != nil {
			return nil, err
		}
		password = pw
	}

	key, err := keystore.DecryptKey(data, password)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt keystore: %w", err)
	}
	return ownerFromKey(key.PrivateKey), nil
}

func ownerFromKey(key *ecdsa.PrivateKey) *Owner {
	addr := crypto.PubkeyToAddress(key.PublicKey)
	logger.Info("WALLET", "Loaded owner key for %s", addr.Hex())
	return &Owner{Key: key, Address: addr}
}

func promptPassword() (string, error) {
	logger.Promptf("Enter keystore password: ")
	pw, err := term.ReadPassword(int(syscall.Stdin))
	logger.Promptf("\n")
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(pw), nil
}
