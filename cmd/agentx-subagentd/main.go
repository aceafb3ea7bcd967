// Command agentx-subagentd runs the AgentX subagent process: it parses
// the master-agent connection and updater-cadence flags, wires every MIB
// module's entries and updaters into one agent.Agent, and drives it
// until SIGTERM/SIGINT, grounded on original_source's __main__.py
// (signal handling, logging setup) and utils/arg_parser.py (flag set,
// exit codes).
package main

import (
	"context"
	"fmt"
	"log"
	"log/syslog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/packetflux/agentx-subagent/internal/agent"
	"github.com/packetflux/agentx-subagent/internal/axsession"
	"github.com/packetflux/agentx-subagent/internal/dbstore"
	"github.com/packetflux/agentx-subagent/internal/dbstore/redisclient"
	"github.com/packetflux/agentx-subagent/internal/mibs/bgp"
	"github.com/packetflux/agentx-subagent/internal/mibs/fdb"
	"github.com/packetflux/agentx-subagent/internal/mibs/interfaces"
	"github.com/packetflux/agentx-subagent/internal/mibs/lldp"
	"github.com/packetflux/agentx-subagent/internal/mibs/physical"
	"github.com/packetflux/agentx-subagent/internal/mibs/routes"
	"github.com/packetflux/agentx-subagent/internal/mibs/system"
	"github.com/packetflux/agentx-subagent/internal/mibtree"
	"github.com/packetflux/agentx-subagent/internal/oid"
	"github.com/packetflux/agentx-subagent/internal/updater"
)

// defaultRedisSocket matches original_source's redis_kwargs default.
const defaultRedisSocket = "/var/run/redis/redis.sock"

// defaultBGPAddress is where a local Quagga/FRRouting vtysh listens,
// matching original_source's QuaggaClient.HOST/PORT.
const defaultBGPAddress = "127.0.0.1:2605"

type cliArgs struct {
	host                   string
	port                   int
	unixSocketPath         string
	debug                  int
	hasDebug               bool
	frequency              int
	enableDynamicFrequency bool
}

func parseArgs(args []string) (cliArgs, error) {
	fs := pflag.NewFlagSet("agentx-subagentd", pflag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: agentx-subagentd -t <host> -p <port> -s <unix_socket_path> -d <debug> -f <frequency> -r")
		fs.PrintDefaults()
	}

	var a cliArgs
	fs.StringVarP(&a.host, "host", "t", "", "master-agent hostname")
	fs.IntVarP(&a.port, "port", "p", 705, "master-agent port")
	fs.StringVarP(&a.unixSocketPath, "unix_socket_path", "s", "", "master-agent UNIX socket")
	fs.IntVarP(&a.debug, "debug", "d", -1, "log level")
	fs.IntVarP(&a.frequency, "frequency", "f", updater.DefaultStaticInterval, "base updater interval in seconds")
	fs.BoolVarP(&a.enableDynamicFrequency, "enable_dynamic_frequency", "r", false, "enable adaptive pacing")

	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			os.Exit(0)
		}
		return cliArgs{}, err
	}
	a.hasDebug = a.debug >= 0
	return a, nil
}

// setupLogging mirrors __main__.py: an explicit -d/--debug logs to
// stdout at that level; otherwise INFO via syslog, falling back to
// stderr with a warning when syslog is unavailable.
func setupLogging(a cliArgs) *log.Logger {
	const prefix = "agentx-subagentd: "
	if a.hasDebug {
		return log.New(os.Stdout, prefix, log.LstdFlags)
	}

	w, err := syslog.New(syslog.LOG_INFO|syslog.LOG_DAEMON, "agentx-subagentd")
	if err != nil {
		l := log.New(os.Stderr, prefix, log.LstdFlags)
		l.Println("syslog unavailable, logging to stderr")
		return l
	}
	return log.New(w, prefix, 0)
}

func main() {
	a, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid option: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogging(a)
	debugLevel := a.hasDebug

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGUSR1)
	go func() {
		for sig := range sigCh {
			switch sig {
			case syscall.SIGUSR1:
				debugLevel = !debugLevel
				if debugLevel {
					logger.Println("signal_handler_sigusr1(): setting logger level to debug")
				} else {
					logger.Println("signal_handler_sigusr1(): revert logger level to info")
				}
			case syscall.SIGTERM, syscall.SIGINT:
				logger.Println("shutting down")
				cancel()
				return
			}
		}
	}()

	redis := redisclient.New("", defaultRedisSocket)
	if err := redis.Connect(ctx, ""); err != nil {
		logger.Printf("redis connect: %v", err)
		os.Exit(1)
	}
	defer redis.Close()

	ns := dbstore.NewNamespace([]dbstore.Client{redis})

	ifaces := interfaces.New(ns)
	fdbUp := fdb.New(ns)
	routesUp := routes.New(ns)
	lldpUp := lldp.New(ns)
	physicalUp := physical.New(ns)
	systemUp := system.New(ns)
	bgpUp := bgp.New("tcp", defaultBGPAddress)

	updaterConfigs := []updater.Config{
		{Updater: ifaces, StaticInterval: a.frequency, DynamicPacing: a.enableDynamicFrequency},
		{Updater: fdbUp, StaticInterval: a.frequency, DynamicPacing: a.enableDynamicFrequency},
		{Updater: routesUp, StaticInterval: a.frequency, DynamicPacing: a.enableDynamicFrequency},
		{Updater: lldpUp, StaticInterval: a.frequency, DynamicPacing: a.enableDynamicFrequency},
		{Updater: physicalUp, StaticInterval: a.frequency, DynamicPacing: a.enableDynamicFrequency},
		{Updater: systemUp, StaticInterval: a.frequency, DynamicPacing: a.enableDynamicFrequency},
		{Updater: bgpUp, StaticInterval: a.frequency, DynamicPacing: a.enableDynamicFrequency},
	}

	var entries []mibtree.Entry
	entries = append(entries, interfaces.Entries(ifaces)...)
	entries = append(entries, fdb.Entries(fdbUp)...)
	entries = append(entries, routes.Entries(routesUp)...)
	entries = append(entries, lldp.Entries(lldpUp)...)
	entries = append(entries, physical.Entries(physicalUp)...)
	entries = append(entries, system.Entries(systemUp)...)
	entries = append(entries, bgp.Entry(bgpUp))

	// Registration granularity follows each module's MIB group, not its
	// individual table columns: the master agent routes by longest OID
	// prefix match, so one RegisterSpec per group is sufficient, always
	// at default priority.
	roots := []axsession.RegisterSpec{
		{Subtree: oid.MustParse(".1.3.6.1.2.1.2"), Priority: axsession.DefaultPriority},        // IF-MIB ifTable
		{Subtree: oid.MustParse(".1.3.6.1.2.1.31"), Priority: axsession.DefaultPriority},       // ifXTable
		{Subtree: oid.MustParse(".1.3.6.1.2.1.17.7"), Priority: axsession.DefaultPriority},     // BRIDGE-MIB FDB
		{Subtree: oid.MustParse(".1.3.6.1.2.1.4.24.4"), Priority: axsession.DefaultPriority},   // ipCidrRouteTable
		{Subtree: oid.MustParse(".1.0.8802.1.1.2"), Priority: axsession.DefaultPriority},       // LLDP-MIB
		{Subtree: oid.MustParse(".1.3.6.1.2.1.47.1.1.1"), Priority: axsession.DefaultPriority}, // entPhysicalTable
		{Subtree: oid.MustParse(".1.3.6.1.2.1.99.1.1"), Priority: axsession.DefaultPriority},   // entitySensorValueTable
		{Subtree: oid.MustParse(".1.3.6.1.2.1.1"), Priority: axsession.DefaultPriority},        // system group
		{Subtree: bgp.SubtreeOID, Priority: axsession.DefaultPriority},
	}

	host := a.host
	if host == "" {
		host = "localhost"
	}
	network, address := "tcp", fmt.Sprintf("%s:%d", host, a.port)
	if a.unixSocketPath != "" {
		network, address = "unix", a.unixSocketPath
	}

	ag := agent.New(
		agent.WithNetwork(network, address),
		agent.WithDescr("SONiC AgentX subagent"),
		agent.WithSubagentOID(oid.MustParse(".1.3.6.1.4.1.99999.1")),
		agent.WithTrace(axsession.LoggingTrace()),
		agent.WithUpdaters(updaterConfigs...),
		agent.WithRoots(roots...),
		agent.WithEntries(entries...),
	)

	if err := ag.Run(ctx); err != nil {
		logger.Printf("agent stopped: %v", err)
		os.Exit(1)
	}
}
