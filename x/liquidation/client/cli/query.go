package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"
)

// GetQueryCmd returns the cli query commands for the liquidation module
func GetQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        "liquidation",
		Short:                      "Querying commands for the liquidation module",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdQueryLiquidations(),
		CmdQueryLiquidatablePositions(),
	)

	return cmd
}

// CmdQueryLiquidations returns the command to query liquidation records
func CmdQueryLiquidations() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Query liquidation records",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Liquidation records query requires running node connection")
			fmt.Println("Use REST API: GET /v1/liquidations")
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryLiquidatablePositions returns the command to query positions past threshold
func CmdQueryLiquidatablePositions() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "liquidatable",
		Short: "Query positions below the liquidation threshold",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Liquidatable positions query requires running node connection")
			fmt.Println("Use REST API: GET /v1/positions?state=liquidatable")
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}
