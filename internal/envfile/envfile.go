// Package envfile mutates the .env file shared with the surrounding
// service tooling. The file is not owned by this tool; the only write is
// clearing the staking-participation flag after an unexpected failure.
package envfile

import (
	"os"

	"github.com/joho/godotenv"
)

// UseStakingKey signals downstream tooling whether staking participation
// can be assumed.
const UseStakingKey = "USE_STAKING"

// ClearStakingFlag removes USE_STAKING from the env file so downstream
// tooling re-verifies on-chain state before assuming the service is
// staked. A missing env file is not an error.
func ClearStakingFlag(path string) error {
	env, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if _, ok := env[UseStakingKey]; !ok {
		return nil
	}
	delete(env, UseStakingKey)
	return godotenv.Write(env, path)
}
