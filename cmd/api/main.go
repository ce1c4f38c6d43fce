package main

import (
	"os"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Tomlord1122/todo-server/internal/config"
)

var v = config.New()

var rootCmd = &cobra.Command{
	Use:           "todo-server",
	Short:         "Authenticated to-do list web service",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.Int("port", 8080, "port to listen on (overrides PORT)")
	flags.String("store", config.StorePostgres, "persistence store, postgres or memory (overrides STORE)")
	if err := bindFlag(v, flags, "port", "PORT"); err != nil {
		panic(err)
	}
	if err := bindFlag(v, flags, "store", "STORE"); err != nil {
		panic(err)
	}

	rootCmd.Flags().Bool("migrate", false, "run database migrations before serving")
}

// bindFlag lets the named flag override config key on v.
func bindFlag(v *viper.Viper, flags *pflag.FlagSet, name, key string) error {
	return pkgerrors.Wrapf(v.BindPFlag(key, flags.Lookup(name)), "bind --%s to %s", name, key)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logrus.WithError(err).Error("todo-server failed")
		os.Exit(1)
	}
}
