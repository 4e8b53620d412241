package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"
)

// GetQueryCmd returns the cli query commands for the collateral module
func GetQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        "collateral",
		Short:                      "Querying commands for the collateral module",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdQueryPosition(),
		CmdQueryPositions(),
		CmdQueryPositionHealth(),
		CmdQueryPrice(),
	)

	return cmd
}

// CmdQueryPosition returns the command to query a risk position
func CmdQueryPosition() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "position [position-id]",
		Short: "Query a risk position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Position query requires running node connection")
			fmt.Printf("Use REST API: GET /v1/positions/%s\n", args[0])
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryPositions returns the command to query all risk positions
func CmdQueryPositions() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "positions",
		Short: "Query all risk positions",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Positions query requires running node connection")
			fmt.Println("Use REST API: GET /v1/positions")
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryPositionHealth returns the command to query a position's risk snapshot
func CmdQueryPositionHealth() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health [position-id]",
		Short: "Query a position's health factor and risk score",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Health query requires running node connection")
			fmt.Printf("Use REST API: GET /v1/positions/%s/health\n", args[0])
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryPrice returns the command to query the stored oracle price
func CmdQueryPrice() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "price",
		Short: "Query the current gas price observation",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Price query requires running node connection")
			fmt.Println("Use REST API: GET /v1/price")
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}
