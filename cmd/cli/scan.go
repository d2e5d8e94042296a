package cli

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nexscan/nexscan/internal/engine"
	scanerrors "github.com/nexscan/nexscan/internal/errors"
	"github.com/nexscan/nexscan/internal/logging"
	"github.com/nexscan/nexscan/internal/output"
	"github.com/nexscan/nexscan/internal/ports"
	"github.com/nexscan/nexscan/internal/probe"
	"github.com/nexscan/nexscan/internal/resolve"
)

var scanFlags struct {
	ports       string
	topPorts    int
	scanType    string
	timeout     time.Duration
	concurrency int
	rateLimit   int
	banners     bool
	outputFile  string
	format      string
	showAll     bool
	noColor     bool
	dnsServer   string
	reverse     bool
}

var scanCmd = &cobra.Command{
	Use:   "scan [target]",
	Short: "Scan a target's ports",
	Long: `Scan probes the given target (IP address or hostname) over the selected
port set and reports each port's state. Interrupting with Ctrl-C stops the
scan gracefully and reports the results gathered so far.`,
	Example: `  nexscan scan 192.168.1.10 --ports 22,80,443
  nexscan scan example.com --top-ports 100 --banner
  sudo nexscan scan 10.0.0.5 --type half-open --ports 1-1024
  nexscan scan 10.0.0.53 --type udp --ports 53,123,161 --rate-limit 50`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVarP(&scanFlags.ports, "ports", "p", "",
		"port specification, e.g. '22,80,8000-8100'")
	scanCmd.Flags().IntVar(&scanFlags.topPorts, "top-ports", 0,
		"scan the N most common ports instead of an explicit spec")
	scanCmd.Flags().StringVarP(&scanFlags.scanType, "type", "t", "",
		"scan type: connect, half-open, udp")
	scanCmd.Flags().DurationVar(&scanFlags.timeout, "timeout", 0,
		"per-probe timeout")
	scanCmd.Flags().IntVarP(&scanFlags.concurrency, "concurrency", "c", 0,
		"number of concurrent probe workers")
	scanCmd.Flags().IntVar(&scanFlags.rateLimit, "rate-limit", -1,
		"max probes per second across all workers (0 = unlimited)")
	scanCmd.Flags().BoolVarP(&scanFlags.banners, "banner", "b", false,
		"grab service banners from open TCP ports")
	scanCmd.Flags().StringVarP(&scanFlags.outputFile, "output", "o", "",
		"write results to a file instead of stdout")
	scanCmd.Flags().StringVarP(&scanFlags.format, "format", "f", "",
		"output format: text, json, csv")
	scanCmd.Flags().BoolVarP(&scanFlags.showAll, "all", "a", false,
		"report closed and filtered ports too")
	scanCmd.Flags().BoolVar(&scanFlags.noColor, "no-color", false,
		"disable colored output")
	scanCmd.Flags().StringVar(&scanFlags.dnsServer, "dns-server", "",
		"DNS server for target resolution, e.g. 1.1.1.1:53")
	scanCmd.Flags().BoolVar(&scanFlags.reverse, "reverse", false,
		"reverse-resolve the target IP for display")

	scanCmd.MarkFlagsMutuallyExclusive("ports", "top-ports")
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	req, err := buildRequest(args[0])
	if err != nil {
		return err
	}

	// Resolve hostname targets before the engine sees them.
	resolver := resolve.New(scanFlags.dnsServer, viper.GetDuration("resolver.timeout"))
	ip, err := resolver.Target(ctx, req.Target)
	if err != nil {
		return err
	}
	if ip != req.Target {
		req.Hostname = req.Target
		req.Target = ip
	} else if scanFlags.reverse || viper.GetBool("resolver.reverse_lookup") {
		req.Hostname = resolver.Reverse(ctx, ip)
	}

	eng, err := engine.New(req)
	if err != nil {
		if scanerrors.IsFatal(err) {
			logging.Error("scan cannot start", "error", err.Error())
		}
		return err
	}

	session, err := eng.Scan(ctx)
	if err != nil {
		return err
	}

	opts := output.Options{
		Format:  output.FormatText,
		ShowAll: scanFlags.showAll || viper.GetBool("output.show_all"),
		Color:   !scanFlags.noColor && viper.GetBool("output.color"),
	}
	format := scanFlags.format
	if format == "" {
		format = viper.GetString("output.format")
	}
	if opts.Format, err = output.ParseFormat(format); err != nil {
		return err
	}

	if scanFlags.outputFile != "" {
		if err := output.Save(scanFlags.outputFile, session, opts); err != nil {
			return err
		}
		logging.Info("results written", "file", scanFlags.outputFile)
		return nil
	}
	return output.Write(os.Stdout, session, opts)
}

// buildRequest merges flags over config-file and env values into a
// validated scan request for the target.
func buildRequest(target string) (engine.ScanRequest, error) {
	var req engine.ScanRequest

	scanType := scanFlags.scanType
	if scanType == "" {
		scanType = viper.GetString("scan.scan_type")
	}
	mode, err := probe.ParseMode(scanType)
	if err != nil {
		return req, err
	}

	portSet, err := buildPortSet()
	if err != nil {
		return req, err
	}

	timeout := scanFlags.timeout
	if timeout == 0 {
		timeout = viper.GetDuration("scan.timeout")
	}
	concurrency := scanFlags.concurrency
	if concurrency == 0 {
		concurrency = viper.GetInt("scan.concurrency")
	}
	if concurrency > len(portSet) {
		concurrency = len(portSet)
	}
	rateLimit := scanFlags.rateLimit
	if rateLimit < 0 {
		rateLimit = viper.GetInt("scan.rate_limit")
	}

	return engine.ScanRequest{
		Target:      target,
		Ports:       portSet,
		Mode:        mode,
		Timeout:     timeout,
		Concurrency: concurrency,
		RateLimit:   rateLimit,
		GrabBanners: scanFlags.banners || viper.GetBool("scan.grab_banners"),
	}, nil
}

// buildPortSet picks between an explicit spec and a top-N selection, with
// the config file supplying whichever the flags leave unset.
func buildPortSet() ([]uint16, error) {
	spec := scanFlags.ports
	topN := scanFlags.topPorts

	if spec == "" && topN == 0 {
		spec = viper.GetString("scan.ports")
		if spec == "" {
			topN = viper.GetInt("scan.top_ports")
		}
	}

	if spec != "" {
		return ports.ParseSpec(spec)
	}
	return ports.TopPorts(topN)
}
