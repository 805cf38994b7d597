package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"spectra/internal/config"
	"spectra/pkg/build"
)

// configPathArg pre-scans the command line for --config so the file can be
// loaded before the remaining flags are bound; flag defaults then come
// from the loaded config and flags override file values.
func configPathArg(args []string) string {
	for i, arg := range args {
		if arg == "--config" && i+1 < len(args) {
			return args[i+1]
		}
		if strings.HasPrefix(arg, "--config=") {
			return strings.TrimPrefix(arg, "--config=")
		}
	}
	return ""
}

// ParseArgs loads the configuration (file, env, then flags) and applies
// the command line on top. The returned config carries either a one-off
// Command to execute or the settings for a full engine run.
func ParseArgs() (*config.Config, error) {
	buildInfo := build.Info()

	options, err := config.LoadConfig(configPathArg(os.Args[1:]))
	if err != nil {
		return nil, err
	}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         "Real-time spectral analysis engine for audio visualization",
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			options.TUIMode = true
			return nil
		},
	}
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	devicesCmd := &cobra.Command{
		Use:   "devices",
		Short: "List available audio capture devices",
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = "devices"
			options.TUIMode = false
		},
	}
	rootCmd.AddCommand(devicesCmd)

	var configPath string
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")

	// Input selection
	rootCmd.PersistentFlags().StringVarP(&options.Input.File, "file", "f", options.Input.File,
		"WAV file to analyze, or '-' for raw PCM on stdin; omit to capture from an input device")
	rootCmd.PersistentFlags().IntVarP(&options.Input.DeviceID, "device", "d", options.Input.DeviceID,
		"Capture device ID. Use 'devices' to list them.")
	rootCmd.PersistentFlags().IntVarP(&options.Input.Channels, "channels", "c", options.Input.Channels,
		"Number of input channels (1=mono, 2=stereo)")

	// Analysis parameters
	rootCmd.PersistentFlags().Float64VarP(&options.Analysis.SampleRate, "sample-rate", "s", options.Analysis.SampleRate,
		"Sample rate in Hertz (Hz)")
	rootCmd.PersistentFlags().IntVarP(&options.Analysis.FFTSize, "fft-size", "n", options.Analysis.FFTSize,
		"Analysis frame size, must be a power of 2")
	rootCmd.PersistentFlags().IntVar(&options.Analysis.HistoryDepth, "history", options.Analysis.HistoryDepth,
		"Number of spectra averaged for smoothing")
	rootCmd.PersistentFlags().DurationVar(&options.Analysis.Period, "period", options.Analysis.Period,
		"Analysis loop wake-up period")
	rootCmd.PersistentFlags().StringVar(&options.Analysis.Window, "window", options.Analysis.Window,
		"Analysis window function (hann, hamming, blackman, nuttall)")

	// Publication
	rootCmd.PersistentFlags().BoolVar(&options.Transport.WebSocketEnabled, "websocket", options.Transport.WebSocketEnabled,
		"Broadcast results as JSON over websocket")
	rootCmd.PersistentFlags().StringVar(&options.Transport.WebSocketAddr, "websocket-addr", options.Transport.WebSocketAddr,
		"Websocket listen address")
	rootCmd.PersistentFlags().BoolVar(&options.Transport.UDPEnabled, "udp", options.Transport.UDPEnabled,
		"Stream binary spectrum packets over UDP")
	rootCmd.PersistentFlags().StringVar(&options.Transport.UDPTargetAddress, "udp-target", options.Transport.UDPTargetAddress,
		"UDP packet destination address")

	// Debugging
	rootCmd.PersistentFlags().BoolVarP(&options.Debug, "verbose", "v", options.Debug,
		"Show verbose output")

	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	// Flags may have moved values outside the valid range.
	if err := options.Validate(); err != nil {
		return nil, err
	}
	return options, nil
}
