package commands

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dyluth/mediawatch/internal/envbus"
	"github.com/dyluth/mediawatch/internal/printer"
	"github.com/spf13/cobra"
)

const publishTimeout = 5 * time.Second

var resizeCmd = &cobra.Command{
	Use:   "resize WIDTH HEIGHT",
	Short: "Publish a viewport resize",
	Long: `Publish a resize event and store the new dimensions for the instance.

Examples:
  mediawatch resize 1280 800
  mediawatch resize 375 812 --name phone`,
	Args: cobra.ExactArgs(2),
	RunE: runResize,
}

var mediaCmd = &cobra.Command{
	Use:   "media TYPE",
	Short: "Publish a media type change",
	Long: `Publish a media type change (for example screen or print) and store it
for the instance.

Examples:
  mediawatch media print
  mediawatch media screen`,
	Args: cobra.ExactArgs(1),
	RunE: runMedia,
}

var printCmd = &cobra.Command{
	Use:   "print",
	Short: "Publish begin/end print signals",
	Long: `Publish the external print signals. Between "print begin" and "print end"
watchers render the print layout regardless of media changes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var printBeginCmd = &cobra.Command{
	Use:   "begin",
	Short: "Publish the before-print signal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return publish(cmd, &envbus.Event{Kind: envbus.KindBeforePrint})
	},
}

var printEndCmd = &cobra.Command{
	Use:   "end",
	Short: "Publish the after-print signal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return publish(cmd, &envbus.Event{Kind: envbus.KindAfterPrint})
	},
}

func init() {
	printCmd.AddCommand(printBeginCmd, printEndCmd)
	rootCmd.AddCommand(resizeCmd, mediaCmd, printCmd)
}

func runResize(cmd *cobra.Command, args []string) error {
	width, err := parseDimension("width", args[0])
	if err != nil {
		return err
	}
	height, err := parseDimension("height", args[1])
	if err != nil {
		return err
	}
	return publish(cmd, &envbus.Event{Kind: envbus.KindResize, Width: width, Height: height})
}

func runMedia(cmd *cobra.Command, args []string) error {
	return publish(cmd, &envbus.Event{Kind: envbus.KindMedia, Media: args[0]})
}

func parseDimension(name, raw string) (float64, error) {
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value < 0 {
		return 0, printer.Error(
			fmt.Sprintf("invalid %s", name),
			fmt.Sprintf("'%s' is not a non-negative number of pixels", raw),
			nil,
		)
	}
	return value, nil
}

// publish sends event to the configured instance and reports the result.
func publish(cmd *cobra.Command, event *envbus.Event) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), publishTimeout)
	defer cancel()

	bus, err := connectBus(ctx, cfg)
	if err != nil {
		return err
	}
	defer bus.Close()

	if err := bus.Publish(ctx, event); err != nil {
		return printer.ErrorWithContext(
			"failed to publish event",
			err.Error(),
			map[string]string{"Instance": bus.Instance(), "Kind": string(event.Kind)},
			nil,
		)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Published %s to instance '%s' (id=%s)\n", event.Kind, bus.Instance(), event.ID)
	return nil
}
