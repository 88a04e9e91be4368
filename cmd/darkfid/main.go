// darkfid opens the ledger, deploys the native contracts and drives the
// validation engine over the local pending pool. Networking is out of
// scope here; transactions arrive in the pool through the library API.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ggreptile/darkfi/crypto"
	"github.com/ggreptile/darkfi/log"
	"github.com/ggreptile/darkfi/storage"
	"github.com/ggreptile/darkfi/tx"
	"github.com/ggreptile/darkfi/validator"
)

var (
	Version = "dev"
	Commit  = "none"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "darkfid",
		Short: "Transaction validation daemon",
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	var (
		dbPath     string
		logLevel   string
		faucetKeys []string
		commit     bool
	)

	var runCmd = &cobra.Command{
		Use:   "run",
		Short: "Verify the pending pool against canonical state",
		RunE: func(cmd *cobra.Command, args []string) error {
			log.InitLogger(logLevel)
			log.Info(log.ValidatorModule, "Starting darkfid", "version", Version, "commit", Commit, "db", dbPath)

			faucet := make([]crypto.PublicKey, 0, len(faucetKeys))
			for _, hexKey := range faucetKeys {
				pk, err := crypto.HexToPublicKey(hexKey)
				if err != nil {
					return fmt.Errorf("faucet key %q: %w", hexKey, err)
				}
				faucet = append(faucet, pk)
			}

			store, err := storage.NewPersistenceStore(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			state, err := validator.New(store, validator.Config{FaucetPubkeys: faucet})
			if err != nil {
				return err
			}

			pending, err := state.PendingTxs()
			if err != nil {
				return err
			}
			if len(pending) == 0 {
				log.Info(log.ValidatorModule, "Pending pool empty, nothing to do")
				return nil
			}

			if err := state.VerifyTransactions(pending, commit); err != nil {
				return err
			}
			if commit {
				log.Info(log.ValidatorModule, "Pending pool committed", "txs", len(pending))
			} else {
				log.Info(log.ValidatorModule, "Pending pool verified (dry run)", "txs", len(pending))
			}
			return nil
		},
	}
	runCmd.Flags().StringVar(&dbPath, "db", "darkfid.db", "leveldb path, empty for in-memory")
	runCmd.Flags().StringVar(&logLevel, "log-level", "info", "trace|debug|info|warn|error|crit")
	runCmd.Flags().StringSliceVar(&faucetKeys, "faucet-key", nil, "hex faucet pubkey allowlist entry (repeatable)")
	runCmd.Flags().BoolVar(&commit, "commit", false, "commit the pool instead of dry-running it")

	var inspectCmd = &cobra.Command{
		Use:   "inspect",
		Short: "Print the pending pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			log.InitLogger(logLevel)
			store, err := storage.NewPersistenceStore(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			state, err := validator.New(store, validator.Config{})
			if err != nil {
				return err
			}
			pending, err := state.PendingTxs()
			if err != nil {
				return err
			}
			for _, t := range pending {
				printTx(t)
			}
			fmt.Printf("%d pending transactions\n", len(pending))
			return nil
		},
	}
	inspectCmd.Flags().StringVar(&dbPath, "db", "darkfid.db", "leveldb path")
	inspectCmd.Flags().StringVar(&logLevel, "log-level", "warn", "trace|debug|info|warn|error|crit")

	rootCmd.AddCommand(runCmd, inspectCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printTx(t *tx.Transaction) {
	fmt.Printf("tx %s\n", t.Hash().Hex())
	for i := range t.Calls {
		fn, _ := t.Calls[i].Function()
		fmt.Printf("  call %d: contract=%s func=%#02x proofs=%d sigs=%d\n",
			i, t.Calls[i].ContractID.Hex(), fn, len(t.Proofs[i]), len(t.Signatures[i]))
	}
}
