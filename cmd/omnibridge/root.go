/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	flagConfig      string
	flagMetricsBind string
	flagGrace       int
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "omnibridge",
		Short: "Multi-protocol exchange connectivity engine",
		Long: "omnibridge runs a configured set of FIX, OUCH and NYSE Pillar\n" +
			"sessions, dialing out as an initiator or listening as an acceptor,\n" +
			"until asked to shut down.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to the configuration file (json/yaml/toml)")
	cmd.PersistentFlags().StringVar(&flagMetricsBind, "metrics-bind", "", "address to serve /metrics on, e.g. :9090 (empty disables it)")
	cmd.PersistentFlags().IntVar(&flagGrace, "shutdown-grace-seconds", 10, "bound on the Logout fan-out during graceful shutdown")

	return cmd
}

func run(args []string) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		return 1
	}
	return 0
}

func loadConfigViper() (*viper.Viper, error) {
	v := viper.New()
	if flagConfig == "" {
		return nil, fmt.Errorf("omnibridge: --config is required")
	}
	v.SetConfigFile(flagConfig)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("omnibridge: reading config %s: %w", flagConfig, err)
	}
	return v, nil
}
