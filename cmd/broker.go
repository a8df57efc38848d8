package cmd

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vecu-cosim/cosim-host/sim"
	"github.com/vecu-cosim/cosim-host/sim/broker"
)

var (
	listenAddr string // broker serve listen address
	setType    string // value type for broker set on undeclared paths
)

// brokerCmd groups the development broker tools
var brokerCmd = &cobra.Command{
	Use:   "broker",
	Short: "Run or query a local signal broker",
}

var brokerServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve an in-memory signal broker over TCP",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		setupCommandLogging()
		ln, err := net.Listen("tcp", listenAddr)
		if err != nil {
			logrus.Fatalf("Listening on %s: %v", listenAddr, err)
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := broker.NewServer(broker.NewStore()).Serve(ctx, ln); err != nil {
			logrus.Fatal(err)
		}
	},
}

var brokerGetCmd = &cobra.Command{
	Use:   "get [<path>...]",
	Short: "Print current broker values (all declared paths by default)",
	Run: func(cmd *cobra.Command, args []string) {
		setupCommandLogging()
		paths := args
		if len(paths) == 0 {
			paths = sim.BrokerPaths()
		}
		err := withBrokerConn(func(ctx context.Context, conn broker.Conn) error {
			values, err := conn.GetCurrentValues(ctx, paths)
			if err != nil {
				return err
			}
			printDatapoints(cmd.OutOrStdout(), paths, values)
			return nil
		})
		if err != nil {
			logrus.Fatal(err)
		}
	},
}

var brokerSetCmd = &cobra.Command{
	Use:   "set <path> <value>",
	Short: "Set a broker value",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		setupCommandLogging()
		v, err := valueForPath(args[0], args[1], setType)
		if err != nil {
			logrus.Fatal(err)
		}
		err = withBrokerConn(func(ctx context.Context, conn broker.Conn) error {
			return conn.SetCurrentValues(ctx, map[string]sim.Value{args[0]: v})
		})
		if err != nil {
			logrus.Fatal(err)
		}
		logrus.Infof("%s = %s", args[0], v)
	},
}

// valueForPath parses raw using the declared kind of a known path, or kind
// for any other path.
func valueForPath(path, raw, kind string) (sim.Value, error) {
	if s, ok := sim.SlotByPath(path); ok {
		return sim.ParseValue(s.Spec().Kind, raw)
	}
	k, err := sim.ParseKind(kind)
	if err != nil {
		return sim.Value{}, fmt.Errorf("%s is not a declared signal; %w", path, err)
	}
	return sim.ParseValue(k, raw)
}

func printDatapoints(w io.Writer, paths []string, values map[string]broker.Datapoint) {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)
	for _, p := range sorted {
		dp, ok := values[p]
		if !ok {
			fmt.Fprintf(w, "%s = <unset>\n", p)
			continue
		}
		fmt.Fprintf(w, "%s = %s (%s)\n", p, dp.Value, dp.Timestamp.Format(time.RFC3339Nano))
	}
}

// withBrokerConn connects to the configured broker address for one call.
func withBrokerConn(fn func(context.Context, broker.Conn) error) error {
	host, port, err := ParseBrokerAddress(viper.GetString("broker.address"))
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client := broker.NewTCPClient(time.Duration(viper.GetInt("broker.dial_timeout_ms")) * time.Millisecond)
	conn, err := client.Connect(ctx, host, port)
	if err != nil {
		return fmt.Errorf("%w: %s:%d: %v", sim.ErrBrokerUnavailable, host, port, err)
	}
	defer conn.Close()
	return fn(ctx, conn)
}

// setupCommandLogging applies logging settings for auxiliary commands.
func setupCommandLogging() {
	if err := configureLogging(viper.GetString("logging.level"), viper.GetString("logging.format")); err != nil {
		logrus.Fatal(err)
	}
}

func init() {
	brokerServeCmd.Flags().StringVar(&listenAddr, "listen", fmt.Sprintf("%s:%d", broker.DefaultHost, broker.DefaultPort), "Listen address")
	brokerSetCmd.Flags().StringVar(&setType, "type", "int", "Value type for paths outside the declared signal set (bool, int)")

	brokerCmd.PersistentFlags().String("address", "", "Broker address <host>:<port> (default broker.address)")
	_ = viper.BindPFlag("broker.address", brokerCmd.PersistentFlags().Lookup("address"))

	brokerCmd.AddCommand(brokerServeCmd, brokerGetCmd, brokerSetCmd)
}
