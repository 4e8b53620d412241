package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"
	"github.com/cosmos/cosmos-sdk/client/tx"

	"github.com/gashedge/gashedge/x/insurance/types"
)

// GetTxCmd returns the transaction commands for the insurance module
func GetTxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        "insurance",
		Short:                      "Insurance module transaction commands",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdDeposit(),
		CmdFileClaim(),
		CmdAssessClaim(),
		CmdRetryPayout(),
	)

	return cmd
}

// CmdDeposit returns the command to contribute to the fund
func CmdDeposit() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deposit [amount]",
		Short: "Deposit into the insurance fund",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgDeposit{
				Depositor: clientCtx.GetFromAddress().String(),
				Amount:    args[0],
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdFileClaim returns the command to file a claim
func CmdFileClaim() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "file-claim [amount] [incident-type] [evidence]",
		Short: "File a compensation claim against the fund",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgFileClaim{
				Claimant:     clientCtx.GetFromAddress().String(),
				Amount:       args[0],
				IncidentType: args[1],
				Evidence:     args[2],
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdAssessClaim returns the command to assess a pending claim
func CmdAssessClaim() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assess-claim [claim-id] [approve|reject]",
		Short: "Assess a pending claim (authority only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			claimID, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid claim id: %v", err)
			}
			approvedAmount, _ := cmd.Flags().GetString("approved-amount")

			msg := &types.MsgAssessClaim{
				Assessor:       clientCtx.GetFromAddress().String(),
				ClaimID:        claimID,
				Approve:        args[1] == "approve",
				ApprovedAmount: approvedAmount,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	cmd.Flags().String("approved-amount", "", "override the payout amount (defaults to claimed amount)")
	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdRetryPayout returns the command to retry an approved claim's payout
func CmdRetryPayout() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retry-payout [claim-id]",
		Short: "Retry payout of an approved claim once the fund allows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			claimID, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid claim id: %v", err)
			}

			msg := &types.MsgRetryPayout{
				Caller:  clientCtx.GetFromAddress().String(),
				ClaimID: claimID,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}
