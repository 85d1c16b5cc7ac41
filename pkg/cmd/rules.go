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
	"strconv"

	pt "github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gitlab.com/davidxarnold/hostwatch/pkg/core"
)

func newRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Show the GPU rules as they will be matched.",
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, errs := core.ParseGPURules(splitList(viper.GetStringSlice("gpu-types"), ";"))

			t := pt.NewWriter()
			t.Style().Options.DrawBorder = false
			t.Style().Options.SeparateColumns = false
			t.Style().Options.SeparateHeader = false
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(pt.Row{"#", "Pattern", "Multiplier", "Status"})

			for i, r := range rules {
				m := "N/A"
				if r.Multiplier != nil {
					m = strconv.FormatFloat(*r.Multiplier, 'f', -1, 64)
				}
				t.AppendRow(pt.Row{i + 1, r.Pattern, m, "ok"})
			}
			for _, err := range errs {
				t.AppendRow(pt.Row{"-", "", "", err.Error()})
			}

			t.Render()
			return nil
		},
	}
}
