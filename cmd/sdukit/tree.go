// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	ltree "github.com/charmbracelet/lipgloss/tree"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/sdukit/sdukit/internal/assemble"
	"github.com/sdukit/sdukit/internal/depgraph"
	"github.com/sdukit/sdukit/internal/tree"
	"github.com/sdukit/sdukit/pkg/coord"
	"github.com/sdukit/sdukit/pkg/sdumod"
)

const (
	formatText = "text"
	formatTOML = "toml"
)

type (
	treeFlags struct {
		format     string
		exclusions string
		includeAll bool
	}

	// loadOrder is the TOML export of a load-order tree.
	loadOrder struct {
		Project string      `toml:"project"`
		Slots   []slotEntry `toml:"slot"`
	}

	slotEntry struct {
		Index     int    `toml:"index"`
		Group     string `toml:"group"`
		Artifact  string `toml:"artifact"`
		Version   string `toml:"version"`
		Packaging string `toml:"packaging"`
		// Parent is the index of the parent slot, absent for roots.
		Parent *int `toml:"parent,omitempty"`
	}
)

func newTreeCommand(app *App) *cobra.Command {
	var f treeFlags
	cmd := &cobra.Command{
		Use:   "tree [workspace-dir]",
		Short: "Print the load order of a workspace",
		Long: `Tree computes the load-order tree of a workspace without resolving or
packaging any files. Parents are loaded before their children; slots are
numbered in pre-order.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTree(cmd, app, workspaceArg(args), f)
		},
	}
	cmd.Flags().StringVarP(&f.format, "format", "f", formatText, "output format: text or toml")
	cmd.Flags().StringVar(&f.exclusions, "exclusions", "", "comma-separated group:artifact patterns to leave out, * allowed")
	cmd.Flags().BoolVar(&f.includeAll, "include-all", true, "include feature and extension modules of an aggregate workspace")
	return cmd
}

func runTree(cmd *cobra.Command, app *App, dir string, f treeFlags) error {
	if f.format != formatText && f.format != formatTOML {
		return &ExitError{Code: ExitUsage, Err: fmt.Errorf("unknown format %q (expected text or toml)", f.format)}
	}
	exclusions, err := coord.ParseExclusions(f.exclusions)
	if err != nil {
		return err
	}
	includeAll := app.cfg.Build.IncludeAll
	if cmd.Flags().Changed("include-all") {
		includeAll = f.includeAll
	}

	run, err := app.openWorkspace(dir, includeAll)
	if err != nil {
		return err
	}
	t, err := run.builder.BuildTree(cmd.Context(), run.roots(exclusions), exclusions)
	if err != nil {
		return err
	}

	if f.format == formatTOML {
		out, err := marshalLoadOrder(run.project, t)
		if err != nil {
			return err
		}
		_, err = app.stdout.Write(out)
		return err
	}
	fmt.Fprintln(app.stdout, renderTree(run.project, t))
	return nil
}

// renderTree draws the forest under a root line naming the project.
func renderTree(project coord.Coordinate, t *depgraph.Tree) string {
	root := ltree.Root(TitleStyle.Render(project.DottedKey() + " " + project.Version)).
		Enumerator(ltree.RoundedEnumerator).
		EnumeratorStyle(treeEnumStyle)
	for _, id := range t.Roots() {
		root.Child(treeNode(t, id))
	}
	return root.String()
}

func treeNode(t *depgraph.Tree, id tree.NodeID) any {
	label := nodeLabel(t.Payload(id))
	children := t.Children(id)
	if len(children) == 0 {
		return label
	}
	sub := ltree.Root(label)
	for _, c := range children {
		sub.Child(treeNode(t, c))
	}
	return sub
}

func nodeLabel(d *sdumod.Descriptor) string {
	c := d.EffectiveCoordinate()
	var style lipgloss.Style
	switch c.Packaging {
	case coord.PackagingProfile:
		style = profileStyle
	case coord.PackagingExtension:
		style = extensionStyle
	default:
		style = featureStyle
	}
	return style.Render(c.Key()) + " " + c.Version + " " + SubtitleStyle.Render("("+c.Packaging.Label()+")")
}

// marshalLoadOrder encodes the slots in load order with parent indices.
func marshalLoadOrder(project coord.Coordinate, t *depgraph.Tree) ([]byte, error) {
	slots, err := assemble.Slots(t)
	if err != nil {
		return nil, err
	}
	index := make(map[tree.NodeID]int, len(slots))
	parents := make([]*int, 0, len(slots))
	t.WalkAll(func(id tree.NodeID, _ *sdumod.Descriptor, _ int) bool {
		index[id] = len(parents)
		var parent *int
		if p := t.Parent(id); p != tree.None {
			n := index[p]
			parent = &n
		}
		parents = append(parents, parent)
		return true
	})

	doc := loadOrder{Project: project.Key() + ":" + project.Version}
	for i, s := range slots {
		doc.Slots = append(doc.Slots, slotEntry{
			Index:     i,
			Group:     s.Group,
			Artifact:  s.Artifact,
			Version:   s.Version,
			Packaging: s.Packaging.String(),
			Parent:    parents[i],
		})
	}
	out, err := toml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode load order: %w", err)
	}
	return out, nil
}
