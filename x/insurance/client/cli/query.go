package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"
)

// GetQueryCmd returns the cli query commands for the insurance module
func GetQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        "insurance",
		Short:                      "Querying commands for the insurance module",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdQueryFund(),
		CmdQueryClaims(),
		CmdQueryClaim(),
	)

	return cmd
}

// CmdQueryFund returns the command to query the insurance fund status
func CmdQueryFund() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fund",
		Short: "Query insurance fund balance and solvency",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Fund query requires running node connection")
			fmt.Println("Use REST API: GET /v1/insurance/fund")
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryClaims returns the command to query all claims
func CmdQueryClaims() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claims",
		Short: "Query insurance claims",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Claims query requires running node connection")
			fmt.Println("Use REST API: GET /v1/insurance/claims")
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryClaim returns the command to query one claim
func CmdQueryClaim() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claim [claim-id]",
		Short: "Query an insurance claim",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Claim query requires running node connection")
			fmt.Printf("Use REST API: GET /v1/insurance/claims/%s\n", args[0])
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}
