package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"
)

// GetQueryCmd returns the cli query commands for the breaker module
func GetQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        "breaker",
		Short:                      "Querying commands for the breaker module",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdQueryStatus(),
		CmdQueryRiskMetrics(),
	)

	return cmd
}

// CmdQueryStatus returns the command to query breaker and emergency state
func CmdQueryStatus() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Query circuit breaker and emergency switch state",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Breaker status query requires running node connection")
			fmt.Println("Use REST API: GET /v1/breaker/status")
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryRiskMetrics returns the command to query system risk metrics
func CmdQueryRiskMetrics() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "risk-metrics",
		Short: "Query aggregated system risk metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Risk metrics query requires running node connection")
			fmt.Println("Use REST API: GET /v1/risk/metrics")
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}
