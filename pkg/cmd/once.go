/*
Copyright 2025 David Arnold
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
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gitlab.com/davidxarnold/hostwatch/pkg/watch"
)

func newOnceCmd() *cobra.Command {
	var sendNotifications bool

	cmd := &cobra.Command{
		Use:   "once",
		Short: "Run a single cycle and print the matching hosts.",
		Long: "Once fetches the inventory a single time and prints the table. Every host " +
			"is new on a single run, so notifications are only sent with --notify.",
		RunE: func(cmd *cobra.Command, args []string) error {
			wc, err := NewWatchConfig()
			if err != nil {
				return err
			}

			w, err := watch.NewWatcher(wc, nil)
			if err != nil {
				return err
			}
			if !sendNotifications {
				w.Notifier = nil
			}
			w.Printer, err = newPrinter(cmd.OutOrStdout(), viper.GetString("output"))
			if err != nil {
				return err
			}

			_, err = w.RunCycle(cmd.Context())
			return err
		},
	}

	cmd.Flags().BoolVar(&sendNotifications, "notify", false, "Send notifications for the hosts found")

	return cmd
}
