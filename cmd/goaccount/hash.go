package main

import (
	"bufio"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/password"
)

// NewHashCmd creates the hash subcommand.
func NewHashCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash [password]",
		Short: "Print a salt and password hash",
		Long: `Compute a fresh salt and the stored hash for a password with the
configured scheme and encoding. The password is read from stdin when no
argument is given. Useful for seeding accounts by hand.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHash,
	}
	cmd.Flags().String("manager.password.scheme", "sha256", "hash scheme (sha256 or argon2id)")
	cmd.Flags().String("manager.password.encoding", "utf-8", "password encoding (utf-8 or utf-16)")
	return cmd
}

func runHash(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configFile, cmd.Flags())
	if err != nil {
		return err
	}

	var plain string
	if len(args) == 1 {
		plain = args[0]
	} else {
		scanner := bufio.NewScanner(cmd.InOrStdin())
		if scanner.Scan() {
			plain = strings.TrimRight(scanner.Text(), "\r\n")
		}
		if err := scanner.Err(); err != nil {
			return oops.Code("INPUT_INVALID").With("operation", "read password").Wrap(err)
		}
	}
	if plain == "" {
		return oops.Code("INPUT_INVALID").Errorf("password must not be empty")
	}

	defaults := goAccount.DefaultConfig().Password
	hasher, err := password.New(password.Config{
		Scheme:   password.Scheme(cfg.Manager.Password.Scheme),
		Encoding: password.Encoding(cfg.Manager.Password.Encoding),
		Argon2: password.Argon2Params{
			Memory:      defaults.Argon2Memory,
			Time:        defaults.Argon2Time,
			Parallelism: defaults.Argon2Parallelism,
			KeyLength:   defaults.Argon2KeyLength,
		},
	})
	if err != nil {
		return oops.Code("CONFIG_INVALID").With("section", "manager.password").Wrap(err)
	}

	salt, err := hasher.NewSalt()
	if err != nil {
		return oops.Code("HASH_FAILED").Wrap(err)
	}
	hash, err := hasher.Hash(plain, salt)
	if err != nil {
		return oops.Code("HASH_FAILED").Wrap(err)
	}

	cmd.Printf("scheme: %s\n", hasher.Scheme())
	cmd.Printf("salt:   %s\n", salt)
	cmd.Printf("hash:   %s\n", hash)
	return nil
}
