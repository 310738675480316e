package cli

import (
	"encoding/json"
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/syilabs-io/syi-staking-engine/internal/config"
	"github.com/syilabs-io/syi-staking-engine/internal/db"
	"github.com/syilabs-io/syi-staking-engine/internal/engine"
)

func DumpStateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump-state",
		Short: "Print the persisted engine state",
		Args:  cobra.ExactArgs(0),
		RunE:  dumpState,
	}

	cmd.Flags().Bool("raw", false, "print the raw JSON payload instead of the decoded state")

	return cmd
}

func dumpState(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.New(GetConfigPath())
	if err != nil {
		return err
	}

	dbClient, err := db.New(ctx, cfg.Db)
	if err != nil {
		return err
	}

	stateDoc, err := dbClient.GetLatestEngineState(ctx)
	if db.IsNotFoundError(err) {
		fmt.Println("No persisted engine state")
		return nil
	} else if err != nil {
		return err
	}

	raw, err := cmd.Flags().GetBool("raw")
	if err != nil {
		return err
	}
	if raw {
		fmt.Println(string(stateDoc.Payload))
		return nil
	}

	var st engine.State
	if err := json.Unmarshal(stateDoc.Payload, &st); err != nil {
		return fmt.Errorf("failed to decode persisted engine state: %w", err)
	}

	fmt.Printf("Params version %d, saved at %s\n", stateDoc.ParamsVersion, stateDoc.SavedAt)
	spew.Dump(st)
	return nil
}
