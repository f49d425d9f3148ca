package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kevinwang15/jsonedit"
)

type fileOpts struct {
	format string
}

func (o *fileOpts) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.format, "format", "f", "", "document format: json or yaml (default: by extension)")
}

func (o *fileOpts) open(path string) (*fileStore, any, error) {
	format, err := detectFormat(path, o.format)
	if err != nil {
		return nil, nil, err
	}
	st, err := openFileStore(path, format)
	if err != nil {
		return nil, nil, err
	}
	doc, err := st.document()
	if err != nil {
		return nil, nil, err
	}
	return st, doc, nil
}

func newNodesCmd() *cobra.Command {
	var opts fileOpts
	cmd := &cobra.Command{
		Use:   "nodes FILE",
		Short: "List the graph nodes of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, doc, err := opts.open(args[0])
			if err != nil {
				return err
			}
			nodes := jsonedit.BuildNodes(doc)
			loggerFromContext(cmd.Context()).Debug("built graph", "file", args[0], "nodes", len(nodes))
			out := cmd.OutOrStdout()
			for _, n := range nodes {
				fmt.Fprintln(out, n.Path)
				fmt.Fprintln(out, indent(n.Text(), "  "))
			}
			return nil
		},
	}
	opts.addFlags(cmd)
	return cmd
}

func newGetCmd() *cobra.Command {
	var opts fileOpts
	cmd := &cobra.Command{
		Use:   "get FILE PATH",
		Short: `Print the value at a path such as $["items"][0]`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := jsonedit.ParsePath(args[1])
			if err != nil {
				return err
			}
			_, doc, err := opts.open(args[0])
			if err != nil {
				return err
			}
			v, err := jsonedit.Get(doc, path)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), jsonedit.MarshalIndent(v))
			return nil
		},
	}
	opts.addFlags(cmd)
	return cmd
}

func newSetCmd() *cobra.Command {
	var (
		opts   fileOpts
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "set FILE PATH VALUE",
		Short: "Replace the value at a path",
		Long: `Replace the value at a path and write the document back.

VALUE is parsed as JSON; text that is not valid JSON is stored as a string.
A missing final key is added to its object, and an index equal to the array
length appends; every other segment of PATH must already exist.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			path, err := jsonedit.ParsePath(args[1])
			if err != nil {
				return err
			}
			st, doc, err := opts.open(args[0])
			if err != nil {
				return err
			}
			graph := newGraphStore(doc)
			node, err := graph.nodeAt(doc, path)
			if err != nil {
				return err
			}

			sess := jsonedit.NewSession(st, graph, jsonedit.WithLogger(logger))
			sess.Select(node)
			if err := sess.Edit(); err != nil {
				return err
			}
			sess.SetBuffer(args[2])
			if err := sess.Save(); err != nil {
				return err
			}

			doc, err = st.document()
			if err != nil {
				return err
			}
			graph.rebuild(doc)
			if !sess.Refresh() {
				logger.Debug("edited location is not a graph node", "path", path)
			}

			if dryRun {
				out, err := st.render()
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(out)
				return err
			}
			if !st.modified() {
				logger.Info("no change", "path", sess.Path())
				return nil
			}
			if err := st.flush(); err != nil {
				return err
			}
			logger.Info("updated", "file", args[0], "path", sess.Path())
			return nil
		},
	}
	opts.addFlags(cmd)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the result instead of writing the file")
	return cmd
}

func indent(s, prefix string) string {
	return prefix + strings.ReplaceAll(s, "\n", "\n"+prefix)
}
