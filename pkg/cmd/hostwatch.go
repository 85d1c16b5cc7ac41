/*
Copyright 2020 David Arnold
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at
    http://www.apache.org/licenses/LICENSE-2.0
Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"gitlab.com/davidxarnold/hostwatch/pkg/core"
	"gitlab.com/davidxarnold/hostwatch/pkg/marketplace"
	"gitlab.com/davidxarnold/hostwatch/pkg/notify"
	"gitlab.com/davidxarnold/hostwatch/pkg/server"
	"gitlab.com/davidxarnold/hostwatch/pkg/util"
	"gitlab.com/davidxarnold/hostwatch/pkg/watch"
	v "gitlab.com/davidxarnold/hostwatch/version"
)

var cfgFile string

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			log.Fatalln(err)
		}

		// Search config in home directory with name ".hostwatch" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".hostwatch")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Println("Using config file:", viper.ConfigFileUsed())
	}
}

// splitList flattens list values that may arrive as a single delimited string
// from the environment.
func splitList(values []string, sep string) []string {
	var out []string
	for _, val := range values {
		for _, part := range strings.Split(val, sep) {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// NewWatchConfig builds the watch configuration from flags, environment and
// config file. Invalid GPU rules are logged and skipped.
func NewWatchConfig() (*watch.Config, error) {
	rules, errs := core.ParseGPURules(splitList(viper.GetStringSlice("gpu-types"), ";"))
	for _, err := range errs {
		log.WithError(err).Warn("skipping GPU rule")
	}

	q := marketplace.Query{
		MinVCPUs:   viper.GetInt("min-vcpus"),
		MinStorage: viper.GetInt("min-storage"),
		MinRAM:     viper.GetInt("min-ram"),
	}
	if n := viper.GetInt("max-gpu-count"); n >= 0 {
		q.MaxGPUCount = &n
	}

	fetchTimeout := time.Duration(viper.GetInt("fetch-timeout")) * time.Second

	return &watch.Config{
		Provider: viper.GetString("provider"),
		Fetch: marketplace.Options{
			URL:      viper.GetString("api-url"),
			Timeout:  fetchTimeout,
			RetryMax: viper.GetInt("retries"),
		},
		Query: q,
		Criteria: core.Criteria{
			CPUType:       viper.GetString("cpu-type"),
			GPURules:      rules,
			MaxGPUPrice:   viper.GetFloat64("max-gpu-price"),
			MinEfficiency: viper.GetFloat64("min-efficiency"),
			EnableCPU:     viper.GetBool("enable-cpu"),
			EnableGPU:     viper.GetBool("enable-gpu"),
		},
		Interval:  time.Duration(viper.GetInt("interval")) * time.Second,
		SendPhoto: viper.GetBool("send-photo"),
		Telegram: notify.TelegramConfig{
			Token:   viper.GetString("telegram-token"),
			ChatIDs: splitList(viper.GetStringSlice("chat-ids"), ","),
			APIBase: viper.GetString("telegram-api"),
		},
		Listen: viper.GetString("listen"),
	}, nil
}

// NewHostwatchCmd provides a cobra command
func NewHostwatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hostwatch",
		Short: "Watch a GPU/CPU marketplace for new matching hosts.",
		Long: "Hostwatch polls a host marketplace, scores GPU offers by value for money " +
			"and notifies chat destinations about hosts it has not reported before.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PreRun: func(cmd *cobra.Command, args []string) {
			err := viper.BindPFlags(cmd.Flags())
			if err != nil {
				log.Fatalf("unable to initialize hostwatch: %v ", err)
			}
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return util.SetupLogger()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			wc, err := NewWatchConfig()
			if err != nil {
				return err
			}
			return runWatch(cmd, wc)
		},
	}

	cmd.Version = v.Version

	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.hostwatch.yaml)")
	pf.String("provider", marketplace.ProviderTensorDock, "Inventory source. One of: tensordock|file")
	pf.String("api-url", "", "Inventory endpoint, or a file path for the file provider")
	pf.Int("min-vcpus", 1, "Minimum vCPUs requested from the marketplace")
	pf.Int("min-storage", 20, "Minimum storage (GB) requested from the marketplace")
	pf.Int("min-ram", 4, "Minimum RAM (GB) requested from the marketplace, 0 to omit")
	pf.Int("max-gpu-count", 0, "Maximum GPU count requested from the marketplace, -1 to omit")
	pf.Int("fetch-timeout", 30, "Inventory fetch timeout in seconds")
	pf.Int("retries", 3, "HTTP retries for inventory fetches; notifications are never retried")
	pf.String("cpu-type", "3995", "CPU type substring to match (case-sensitive)")
	pf.StringArray("gpu-types", nil, "GPU rule as model[,multiplier]; repeatable")
	pf.Float64("max-gpu-price", 0, "Per-GPU hourly price ceiling, 0 for none")
	pf.Float64("min-efficiency", 0, "Minimum efficiency for listed GPU offers, 0 for none")
	pf.Bool("enable-cpu", true, "Watch for hosts with the configured CPU type")
	pf.Bool("enable-gpu", true, "Watch for hosts with GPUs matching a rule")
	pf.String("telegram-token", "", "Telegram bot token; notifications are logged when empty")
	pf.String("telegram-api", notify.DefaultTelegramAPI, "Telegram Bot API base URL")
	pf.StringSlice("chat-ids", nil, "Telegram chat ids to notify")
	pf.StringP("output", "o", "txt", "Console table format. One of: txt|pretty|json|none")
	pf.String("log-format", "text", "Log format. One of: text|json")
	pf.String("log-level", "info", "Log level")

	cmd.Flags().Int("interval", 60, "Base polling interval in seconds (jittered by ±20%)")
	cmd.Flags().Bool("send-photo", true, "Also send the table as an image")
	cmd.Flags().String("listen", "", "Serve /seen, /healthz and /metrics on this address")

	cobra.OnInitialize(initConfig)

	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	_ = viper.BindPFlags(pf)
	_ = viper.BindPFlags(cmd.Flags())

	cmd.AddCommand(newOnceCmd(), newRulesCmd())

	return cmd
}

func runWatch(cmd *cobra.Command, wc *watch.Config) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	w, err := watch.NewWatcher(wc, watch.NewMetrics(reg))
	if err != nil {
		return err
	}
	w.Printer, err = newPrinter(cmd.OutOrStdout(), viper.GetString("output"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	if wc.Listen != "" {
		srv := server.New(wc.Listen, w.Seen, reg)
		g.Go(func() error { return srv.Run(ctx) })
	}
	g.Go(func() error { return w.Run(ctx) })

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
