package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/grenault73/dash-live-source-simulator/cmd/dashfetcher/app"
	"github.com/grenault73/dash-live-source-simulator/internal"
	"github.com/grenault73/dash-live-source-simulator/pkg/logging"
	flag "github.com/spf13/pflag"
)

var usg = `Usage of %s:

%s downloads a static DASH VoD asset and stores the MPD and all segments
in an output directory. It also writes an asset.json configuration so that
the downloaded asset can be served by dashlivesim directly.

The -o/--outdir option provides a directory for storing the downloaded asset.
The -a/--auto option adds output subdirectories from the URL removing common prefix parts.

Some possible resources are available at https://cta-wave.github.io/Test-Content/.
To download one of them, try

$ %s -a https://dash.akamaized.net/WAVE/vectors/cfhd_sets/12.5_25_50/t1/2022-10-17/stream.mpd
`

func parseOptions() *app.Options {
	name := os.Args[0]
	o := app.Options{}
	flag.StringVarP(&o.OutDir, "outdir", "o", ".", "output directory")
	flag.BoolVarP(&o.AutoOutDir, "auto", "a", false, "automatically add output directory parts from URL")
	logFormatUsage := fmt.Sprintf("log format [%s]", strings.Join(logging.LogFormats, ", "))
	flag.StringVarP(&o.LogFormat, "logformat", "", "pretty", logFormatUsage)
	flag.StringVarP(&o.LogLevel, "loglevel", "", "info", "initial log level")
	flag.BoolVarP(&o.Version, "version", "v", false, "print version and date")
	flag.BoolVarP(&o.Force, "force", "f", false, "force overwrite of existing files")
	flag.CommandLine.SortFlags = false // keep help output order as declared

	flag.Usage = func() {
		parts := strings.Split(name, "/")
		name := parts[len(parts)-1]
		fmt.Fprintf(os.Stderr, usg, name, name, name)
		fmt.Fprintf(os.Stderr, "\nRun as %s [options] mpdURL\n\n", name)
		flag.PrintDefaults()
		os.Exit(2)
	}

	flag.Parse()
	internal.CheckVersion(o.Version)

	if len(flag.Args()) != 1 {
		flag.Usage()
	}

	o.AssetURL = flag.Args()[0]

	return &o
}

func main() {
	o := parseOptions()

	err := logging.InitSlog(o.LogLevel, o.LogFormat)
	if err != nil {
		slog.Error("init logging", "err", err)
		os.Exit(1)
	}

	if o.OutDir == "." {
		o.OutDir, err = os.Getwd()
		if err != nil {
			slog.Error("get working directory", "err", err)
			os.Exit(1)
		}
	}

	if o.AutoOutDir {
		o.OutDir, err = app.AutoDir(o.AssetURL, o.OutDir)
		if err != nil {
			slog.Error("automatic output dir", "err", err)
			os.Exit(1)
		}
		slog.Info("automatic output dir for MPD", "outDir", o.OutDir)
	}

	if err := app.Fetch(o); err != nil {
		slog.Error("fetch failed", "err", err)
		os.Exit(1)
	}
}
