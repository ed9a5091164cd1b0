package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ppiankov/gaia-agent/internal/route"
)

// routesCmd lists the routing rules in precedence order
var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "List routing rules in precedence order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := agentConfig(cmd)
		if err != nil {
			return err
		}
		a, err := newAgent(cfg, logger)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "#\tRULE\tPATTERN\tRESOLVER")
		for i, rule := range a.router.Rules() {
			_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, rule.Name, rule.Pattern.String(), rule.Resolver.Description())
		}
		if err := w.Flush(); err != nil {
			return err
		}

		fallback := route.Unhandled
		if a.llm != nil {
			fallback = "LLM " + llmLabel(a)
		}
		fmt.Printf("\nUnmatched questions: %s\n", fallback)
		return nil
	},
}

// toolsCmd lists the tools available to the LLM loop
var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List tools available to the LLM",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := agentConfig(cmd)
		if err != nil {
			return err
		}
		a, err := newAgent(cfg, logger)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "TOOL\tDESCRIPTION")
		for _, name := range a.registry.Names() {
			t, _ := a.registry.Get(name)
			_, _ = fmt.Fprintf(w, "%s\t%s\n", name, t.Description())
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(routesCmd)
	rootCmd.AddCommand(toolsCmd)
}
