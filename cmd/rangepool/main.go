package main

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rangepool/rangepool/lib/config"
	"github.com/rangepool/rangepool/lib/prices"
	"github.com/rangepool/rangepool/lib/scenario"

	ui "github.com/holiman/uint256"
)

func main() {
	root := &cobra.Command{
		Use:          "rangepool",
		Short:        "Single-range concentrated-liquidity pool toolkit",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Replay a scenario file against a fresh pool",
		RunE:  runScenario,
	}
	runCmd.Flags().String("scenario", "", "scenario JSON path")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.AddCommand(runCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote [sqrtPriceX96|price]",
		Short: "Convert between sqrtPriceX96 and decimal price",
		Args:  cobra.ExactArgs(1),
		RunE:  runQuote,
	}
	quoteCmd.Flags().Bool("to-sqrt", false, "treat the argument as a decimal price and print sqrtPriceX96")
	root.AddCommand(quoteCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runScenario(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.ScenarioPath == "" {
		return fmt.Errorf("scenario path is required")
	}

	s, err := scenario.Load(cfg.ScenarioPath)
	if err != nil {
		return err
	}

	runner, err := scenario.NewRunner(s, logger)
	if err != nil {
		return err
	}

	summary, err := runner.Run()
	if err != nil {
		return err
	}

	logger.Info("replay complete",
		zap.Int("ops", summary.OpsApplied),
		zap.String("price", summary.Price.String()),
		zap.Int("tick", summary.Tick),
		zap.String("liquidity", summary.Liquidity.Dec()),
		zap.String("balance0", summary.Balance0.Dec()),
		zap.String("balance1", summary.Balance1.Dec()))
	return nil
}

func runQuote(cmd *cobra.Command, args []string) error {
	toSqrt, _ := cmd.Flags().GetBool("to-sqrt")

	if toSqrt {
		price, err := decimal.NewFromString(args[0])
		if err != nil {
			return fmt.Errorf("bad price %q: %w", args[0], err)
		}
		sqrtX96, err := prices.SqrtX96FromPrice(price)
		if err != nil {
			return err
		}
		fmt.Println(sqrtX96.Dec())
		return nil
	}

	sqrtX96, err := ui.FromDecimal(args[0])
	if err != nil {
		return fmt.Errorf("bad sqrtPriceX96 %q: %w", args[0], err)
	}
	fmt.Println(prices.FromSqrtX96(sqrtX96).String())
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
