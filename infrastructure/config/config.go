package config

import (
	// Needed for the embedded sample configuration file.
	_ "embed"
	"fmt"
	"io/ioutil"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/btcsuite/btcutil"
	"github.com/btcsuite/go-socks/socks"
	"github.com/hashchaind/hashchaind/infrastructure/logger"
	"github.com/hashchaind/hashchaind/version"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
)

const (
	defaultConfigFilename = "hashchaind.conf"
	defaultLogLevel       = "info"
	defaultLogDirname     = "logs"
	// DefaultLogFilename is the name of the log file that gets all entries.
	DefaultLogFilename = "hashchaind.log"
	// DefaultErrLogFilename is the name of the log file that gets warnings and above.
	DefaultErrLogFilename = "hashchaind_err.log"
	// DefaultListenPort is the port peers are expected to listen on.
	DefaultListenPort    = "3333"
	defaultListenRetries = 32
	// DefaultConnectTimeout is the default connection timeout when dialing
	DefaultConnectTimeout = time.Second * 30
)

var (
	// DefaultAppDir is the default home directory for hashchaind.
	DefaultAppDir = btcutil.AppDataDir("hashchaind", false)

	defaultConfigFile = filepath.Join(DefaultAppDir, defaultConfigFilename)
	defaultLogDir     = filepath.Join(DefaultAppDir, defaultLogDirname)
	defaultListener   = net.JoinHostPort("127.0.0.1", DefaultListenPort)
)

//go:embed sample-hashchaind.conf
var sampleConfig []byte

// Flags defines the configuration options for hashchaind.
//
// See loadConfig for details on the configuration load process.
type Flags struct {
	ShowVersion   bool     `short:"V" long:"version" description:"Display version information and exit"`
	ConfigFile    string   `short:"C" long:"configfile" description:"Path to configuration file"`
	AppDir        string   `short:"b" long:"appdir" description:"Directory to store the node's files"`
	LogDir        string   `long:"logdir" description:"Directory to log output."`
	Listeners     []string `long:"listen" description:"Add an interface/port to listen for connections (default 127.0.0.1:3333)"`
	ListenRetries int      `long:"listenretries" description:"Number of consecutive ports to try when a listen port is taken"`
	ConnectPeers  []string `long:"connect" description:"Connect to the specified peers at startup"`
	Proxy         string   `long:"proxy" description:"Connect via SOCKS5 proxy (eg. 127.0.0.1:9050)"`
	ProxyUser     string   `long:"proxyuser" description:"Username for proxy server"`
	ProxyPass     string   `long:"proxypass" default-mask:"-" description:"Password for proxy server"`
	Profile       string   `long:"profile" description:"Enable HTTP profiling on given port -- NOTE port must be between 1024 and 65536"`
	DebugLevel    string   `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`
	NoConsole     bool     `long:"noconsole" description:"Do not read commands from stdin"`
}

// Config defines the configuration options for hashchaind.
//
// See loadConfig for details on the configuration load process.
type Config struct {
	*Flags
	Dial func(network, address string, timeout time.Duration) (net.Conn, error)
}

// LogFile returns the path of the log file that gets all entries.
func (cfg *Config) LogFile() string {
	return filepath.Join(cfg.LogDir, DefaultLogFilename)
}

// ErrLogFile returns the path of the log file that gets warnings and above.
func (cfg *Config) ErrLogFile() string {
	return filepath.Join(cfg.LogDir, DefaultErrLogFilename)
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(DefaultAppDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but they variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

// normalizeAddress returns addr with the default port appended if it is
// missing one.
func normalizeAddress(addr, defaultPort string) string {
	_, _, err := net.SplitHostPort(addr)
	if err != nil {
		return net.JoinHostPort(addr, defaultPort)
	}
	return addr
}

func normalizeAddresses(addrs []string, defaultPort string) []string {
	seen := make(map[string]struct{}, len(addrs))
	result := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		addr = normalizeAddress(addr, defaultPort)
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		result = append(result, addr)
	}
	return result
}

func defaultFlags() *Flags {
	return &Flags{
		ConfigFile:    defaultConfigFile,
		AppDir:        DefaultAppDir,
		LogDir:        defaultLogDir,
		DebugLevel:    defaultLogLevel,
		ListenRetries: defaultListenRetries,
	}
}

// LoadConfig initializes and parses the config using a config file and command
// line options.
func LoadConfig() (*Config, error) {
	cfg, _, err := loadConfig(os.Args[1:])
	if err != nil {
		return nil, err
	}

	// Show the version and exit if the version flag was specified.
	if cfg.ShowVersion {
		appName := filepath.Base(os.Args[0])
		appName = strings.TrimSuffix(appName, filepath.Ext(appName))
		fmt.Println(appName, "version", version.Version())
		os.Exit(0)
	}

	// Special show command to list supported subsystems and exit.
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", logger.SupportedSubsystems())
		os.Exit(0)
	}

	return cfg, nil
}

// loadConfig parses args on top of a config file.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
//
// The above results in hashchaind functioning properly without any config
// settings while still allowing the user to override settings with config
// files and command line options. Command line options always take precedence.
func loadConfig(args []string) (*Config, []string, error) {
	cfgFlags := defaultFlags()

	// Pre-parse the command line options to see if an alternative config
	// file, app dir or the version flag was specified. Any errors aside
	// from the help message error can be ignored here since they will be
	// caught by the final parse below.
	preCfg := *cfgFlags
	preParser := flags.NewParser(&preCfg, flags.HelpFlag)
	_, err := preParser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if ok := errors.As(err, &flagsErr); ok && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stderr, err)
			return nil, nil, err
		}
	}
	if preCfg.ShowVersion {
		return &Config{Flags: &preCfg}, nil, nil
	}

	// A custom app dir moves the default config file and log dir along.
	if preCfg.AppDir != DefaultAppDir {
		appDir := cleanAndExpandPath(preCfg.AppDir)
		if preCfg.ConfigFile == defaultConfigFile {
			preCfg.ConfigFile = filepath.Join(appDir, defaultConfigFilename)
		}
		if preCfg.LogDir == defaultLogDir {
			cfgFlags.LogDir = filepath.Join(appDir, defaultLogDirname)
		}
	}
	cfgFlags.ConfigFile = preCfg.ConfigFile

	// Load additional config from file.
	var configFileError error
	parser := flags.NewParser(cfgFlags, flags.Default)
	configFile := cleanAndExpandPath(preCfg.ConfigFile)
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		err := createDefaultConfigFile(configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating a default config file: %s\n", err)
		}
	}
	err = flags.NewIniParser(parser).ParseFile(configFile)
	if err != nil {
		var pathErr *os.PathError
		if ok := errors.As(err, &pathErr); !ok {
			return nil, nil, errors.Wrapf(err, "error parsing config file %s", configFile)
		}
		configFileError = err
	}

	// Parse command line options again to ensure they take precedence.
	remainingArgs, err := parser.ParseArgs(args)
	if err != nil {
		return nil, nil, err
	}

	cfg := &Config{Flags: cfgFlags}
	err = cfg.validate()
	if err != nil {
		return nil, nil, err
	}

	// Warn about missing config file only after all other configuration is
	// done. This prevents the warning on help messages and invalid
	// options. Note this should go directly before the return.
	if configFileError != nil {
		fmt.Fprintf(os.Stderr, "%s\n", configFileError)
	}

	return cfg, remainingArgs, nil
}

func (cfg *Config) validate() error {
	funcName := "loadConfig"

	cfg.AppDir = cleanAndExpandPath(cfg.AppDir)
	cfg.LogDir = cleanAndExpandPath(cfg.LogDir)
	cfg.ConfigFile = cleanAndExpandPath(cfg.ConfigFile)

	// Create the app directory if it doesn't already exist.
	err := os.MkdirAll(cfg.AppDir, 0700)
	if err != nil {
		// Show a nicer error message if it's because a symlink is
		// linked to a directory that does not exist (probably because
		// it's not mounted).
		var pathErr *os.PathError
		if ok := errors.As(err, &pathErr); ok && os.IsExist(err) {
			if link, lerr := os.Readlink(pathErr.Path); lerr == nil {
				err = errors.Errorf("is symlink %s -> %s mounted?", pathErr.Path, link)
			}
		}
		return errors.Errorf("%s: Failed to create app directory: %s", funcName, err)
	}

	if cfg.DebugLevel != "show" {
		err = logger.ParseAndSetLogLevels(cfg.DebugLevel)
		if err != nil {
			return errors.Errorf("%s: %s", funcName, err)
		}
	}

	// Validate profile port number
	if cfg.Profile != "" {
		profilePort, err := strconv.Atoi(cfg.Profile)
		if err != nil || profilePort < 1024 || profilePort > 65535 {
			return errors.Errorf("%s: The profile port must be between 1024 and 65535", funcName)
		}
	}

	if cfg.ListenRetries < 1 {
		return errors.Errorf("%s: listenretries must be at least 1, parsed [%d]", funcName, cfg.ListenRetries)
	}

	if len(cfg.Listeners) == 0 {
		cfg.Listeners = []string{defaultListener}
	}
	cfg.Listeners = normalizeAddresses(cfg.Listeners, DefaultListenPort)
	for _, listener := range cfg.Listeners {
		_, port, err := net.SplitHostPort(listener)
		if err != nil {
			return errors.Errorf("%s: Listen address '%s' is invalid: %s", funcName, listener, err)
		}
		if _, err := strconv.ParseUint(port, 10, 16); err != nil {
			return errors.Errorf("%s: Listen port '%s' is invalid", funcName, port)
		}
	}
	cfg.ConnectPeers = normalizeAddresses(cfg.ConnectPeers, DefaultListenPort)

	// Setup dial function depending on the specified options. The default
	// is to use the standard net.DialTimeout function. When a proxy is
	// specified, the dial function is set to the proxy specific dial
	// function.
	cfg.Dial = net.DialTimeout
	if cfg.Proxy != "" {
		_, _, err := net.SplitHostPort(cfg.Proxy)
		if err != nil {
			return errors.Errorf("%s: Proxy address '%s' is invalid: %s", funcName, cfg.Proxy, err)
		}

		proxy := &socks.Proxy{
			Addr:     cfg.Proxy,
			Username: cfg.ProxyUser,
			Password: cfg.ProxyPass,
		}
		cfg.Dial = proxy.DialTimeout
	}

	return nil
}

// createDefaultConfigFile writes the sample configuration to the given
// destination path.
func createDefaultConfigFile(destinationPath string) error {
	// Create the destination directory if it does not exists
	err := os.MkdirAll(filepath.Dir(destinationPath), 0700)
	if err != nil {
		return errors.WithStack(err)
	}

	err = ioutil.WriteFile(destinationPath, sampleConfig, 0600)
	if err != nil {
		return errors.WithStack(err)
	}
	return nil
}
