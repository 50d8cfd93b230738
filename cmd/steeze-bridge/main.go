package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/joeydtaylor/steeze-bridge/pkg/bridge"
	"github.com/joeydtaylor/steeze-bridge/pkg/framework"
	"github.com/joeydtaylor/steeze-bridge/pkg/serverfx"
	"github.com/joeydtaylor/steeze-bridge/pkg/transport/httpx"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

var rootCmd = &cobra.Command{
	Use:   "steeze-bridge",
	Short: "Controller host served through the httpx bridge",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		fx.New(
			serverfx.Module(options(cmd)...),
			serverfx.AsController(newEchoController),
		).Run()
		return nil
	},
}

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print the route table without serving",
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			app *framework.App[*httpx.Ctx]
			ad  *bridge.Adapter
		)
		fxApp := fx.New(
			serverfx.Providers(options(cmd)...),
			serverfx.AsController(newEchoController),
			fx.Populate(&app, &ad),
			fx.NopLogger,
		)
		if err := fxApp.Err(); err != nil {
			return err
		}
		if err := app.Init(); err != nil {
			return err
		}
		defer func() { _ = app.Close(context.Background()) }()

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, r := range ad.Engine().Routes() {
			fmt.Fprintf(w, "%s\t%s\n", r.Method, r.Path)
		}
		return w.Flush()
	},
}

func options(cmd *cobra.Command) []serverfx.Option {
	opts := []serverfx.Option{serverfx.WithService("steeze-bridge")}
	if p, _ := cmd.Flags().GetString("manifest"); p != "" {
		opts = append(opts, serverfx.WithManifestPath(p))
	}
	if l, _ := cmd.Flags().GetString("listen"); l != "" {
		opts = append(opts, serverfx.WithListen(l))
	}
	return opts
}

func init() {
	rootCmd.PersistentFlags().String("manifest", "", "manifest path (default $APP_MANIFEST or manifest.toml)")
	serveCmd.Flags().String("listen", "", "listen address (default $SERVER_LISTEN_ADDRESS or :4000)")
	rootCmd.AddCommand(serveCmd, routesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
