/* Copyright 2026 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// flowtool works on flow graph files: validation, compilation, and
// rendering, without a running service.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Comcast/chatflow/flow"
	"github.com/Comcast/chatflow/tools"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "flowtool",
		Short:         "Validate, compile, and render flow graphs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newValidateCmd(), newCompileCmd(), newRenderCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Check a graph file against the flow rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := tools.DecodeGraphFile(args[0])
			if err != nil {
				return err
			}
			buckets, err := flow.Validate(g)
			if err != nil {
				return err
			}
			if _, err := flow.Compile(buckets); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d intents, %d contexts\n",
				args[0], len(buckets.Intents), len(buckets.Contexts))
			return nil
		},
	}
}

func newCompileCmd() *cobra.Command {
	var pretty bool

	cmd := &cobra.Command{
		Use:   "compile FILE",
		Short: "Print the compiled intents as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := tools.DecodeGraphFile(args[0])
			if err != nil {
				return err
			}
			buckets, err := flow.Validate(g)
			if err != nil {
				return err
			}
			compiled, err := flow.Compile(buckets)
			if err != nil {
				return err
			}

			var bs []byte
			if pretty {
				bs, err = json.MarshalIndent(compiled, "", "  ")
			} else {
				bs, err = json.Marshal(compiled)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", bs)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&pretty, "pretty", "p", false, "indent the JSON")

	return cmd
}

func newRenderCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "render FILE",
		Short: "Render a graph as mermaid, dot, or html",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := tools.DecodeGraphFile(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch format {
			case "mermaid":
				return tools.Mermaid(g, out, nil)
			case "dot":
				return tools.Dot(g, out)
			case "html":
				return tools.RenderGraphPage(g, out, nil)
			}
			return fmt.Errorf("unknown format %q", format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "mermaid", "mermaid, dot, or html")

	return cmd
}
