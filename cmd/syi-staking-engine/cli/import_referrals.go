package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/syilabs-io/syi-staking-engine/internal/config"
	"github.com/syilabs-io/syi-staking-engine/internal/db"
	dbmodel "github.com/syilabs-io/syi-staking-engine/internal/db/model"
	"github.com/syilabs-io/syi-staking-engine/internal/engine"
)

func ImportReferralsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-referrals",
		Short: "Import referral bindings from a file of 'account referrer' pairs",
		Args:  cobra.ExactArgs(1),
		RunE:  importReferrals,
	}

	return cmd
}

// importReferrals replays referral bindings into the persisted engine state.
// Intended for seeding a fresh deployment from an export of the previous
// system; must not run while a server instance is writing the same state.
func importReferrals(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.New(GetConfigPath())
	if err != nil {
		return err
	}

	dbClient, err := db.New(ctx, cfg.Db)
	if err != nil {
		return err
	}

	params := engine.DefaultParams()
	params.RelaxedBinding = cfg.Engine.RelaxedBinding
	eng, _, err := engine.New(
		params,
		cfg.Engine.RootAddress,
		cfg.Engine.FeeSinkAddress,
		engine.RecorderFunc(func(engine.Event) {}),
	)
	if err != nil {
		return err
	}

	stateDoc, err := dbClient.GetLatestEngineState(ctx)
	switch {
	case db.IsNotFoundError(err):
		log.Info().Msg("No persisted engine state, importing into a fresh ledger")
	case err != nil:
		return err
	default:
		var st engine.State
		if err := json.Unmarshal(stateDoc.Payload, &st); err != nil {
			return fmt.Errorf("failed to decode persisted engine state: %w", err)
		}
		if err := eng.RestoreState(&st); err != nil {
			return err
		}
	}

	fd, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer fd.Close()

	now := time.Now().UTC()
	imported := 0
	sc := bufio.NewScanner(fd)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return fmt.Errorf("malformed line %q, expected 'account referrer'", line)
		}
		account, referrer := fields[0], fields[1]
		if err := eng.BindReferrer(account, referrer, now); err != nil {
			fmt.Printf("Skipping %s -> %s: %v\n", account, referrer, err)
			continue
		}
		imported++
	}
	if err := sc.Err(); err != nil {
		return err
	}

	st, err := eng.ExportState()
	if err != nil {
		return err
	}
	payload, err := json.Marshal(st)
	if err != nil {
		return err
	}
	if err := dbClient.SaveEngineState(ctx, &dbmodel.EngineStateDocument{
		Id:            dbmodel.LatestEngineStateId,
		ParamsVersion: st.Params.Version,
		Payload:       payload,
		SavedAt:       time.Now().UTC(),
	}); err != nil {
		return err
	}

	fmt.Printf("Imported %d referral bindings\n", imported)
	return nil
}
