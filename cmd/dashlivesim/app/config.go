package app

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/providers/structs"

	"github.com/grenault73/dash-live-source-simulator/pkg/logging"
	"github.com/spf13/pflag"
)

// maxMediaDelayMS bounds the injected media response delay so that it
// can never exceed a typical segment duration.
const maxMediaDelayMS = 1000

type ServerConfig struct {
	LogFormat    string `json:"logformat"`
	LogLevel     string `json:"loglevel"`
	Port         int    `json:"port"`
	TimeoutS     int    `json:"timeoutS"`
	VodRoot      string `json:"vodroot"`
	MediaDelayMS int    `json:"mediadelayMS"`
	CertPath     string `json:"certpath"`
	KeyPath      string `json:"keypath"`
}

var DefaultConfig = ServerConfig{
	LogFormat:    "pretty",
	LogLevel:     "info",
	Port:         8888,
	TimeoutS:     60,
	VodRoot:      "./vod",
	MediaDelayMS: 0,
}

// LoadConfig loads defaults, config file, command line, and finally applies environment variables
//
// VodRoot is set to cwd/root by default.
func LoadConfig(args []string, cwd string) (*ServerConfig, error) {
	// First set default values
	k := koanf.New(".")
	defaults := DefaultConfig
	k.Load(structs.Provider(defaults, "json"), nil)

	f := pflag.NewFlagSet("dashlivesim", pflag.ContinueOnError)
	f.Usage = func() {
		parts := strings.Split(args[0], "/")
		name := parts[len(parts)-1]
		fmt.Fprintf(os.Stderr, "Run as %s [options]:\n", name)
		f.PrintDefaults()
	}
	// Path to a config file to load into koanf along with some config params.
	cfgFile := f.String("cfg", "", "path to a JSON config file")
	f.Int("port", k.Int("port"), "HTTP port")
	lf := strings.Join(logging.LogFormats, ", ")
	f.String("logformat", k.String("logformat"), fmt.Sprintf("log format [%s]", lf))
	ll := strings.Join(logging.LogLevels, ", ")
	f.String("loglevel", k.String("loglevel"), fmt.Sprintf("log level [%s]", ll))
	f.String("vodroot", k.String("vodroot"), "VoD root directory")
	f.Int("timeout", k.Int("timeoutS"), "timeout for all requests (seconds)")
	f.Int("mediadelay", k.Int("mediadelayMS"), "extra delay before media segment responses (milliseconds)")
	f.String("certpath", k.String("certpath"), "path to TLS certificate file (for HTTPS)")
	f.String("keypath", k.String("keypath"), "path to TLS private key file (for HTTPS)")
	if err := f.Parse(args[1:]); err != nil {
		return nil, fmt.Errorf("command line parse: %w", err)
	}

	// Load the config file provided on the commandline.
	if *cfgFile != "" {
		cf := file.Provider(*cfgFile)
		if err := k.Load(cf, json.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	// Possibly override config file with commandline parameters
	if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
		return nil, fmt.Errorf("parsing cli: %v", err)
	}
	// Flags whose names differ from their config keys
	for flagName, key := range map[string]string{
		"timeout":    "timeoutS",
		"mediadelay": "mediadelayMS",
	} {
		if f.Changed(flagName) {
			k.Load(confmap.Provider(map[string]any{key: k.Int(flagName)}, "."), nil)
		}
	}

	// Overload with environment variables
	k.Load(env.Provider("DASHLIVESIM_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "DASHLIVESIM_")), "_", ".", -1)
	}), nil)

	// Make vodroot absolute in case it is not already
	vodRoot := k.String("vodroot")
	if vodRoot != "" && !path.IsAbs(vodRoot) {
		vodRoot = path.Join(cwd, vodRoot)
		k.Load(confmap.Provider(map[string]any{
			"vodroot": vodRoot,
		}, "."), nil)
	}

	var cfg ServerConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	if cfg.MediaDelayMS < 0 || cfg.MediaDelayMS > maxMediaDelayMS {
		return nil, fmt.Errorf("mediadelay must be in range [0, %d]", maxMediaDelayMS)
	}

	return &cfg, nil
}
